package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/pkg/errors"
)

// TraceabilityContract tracks herb batches from collection to finished
// product. Every entry point is a single read-validate-write transaction
// against the world state; the contract keeps no memory of its own between
// invocations.
type TraceabilityContract struct {
	contractapi.Contract
}

const (
	participantPrefix = "PARTICIPANT_"
	batchPrefix       = "BATCH_"
	qrPrefix          = "QR_"
)

// --------------------------- helpers --------------------------- //

// decodeStrict unmarshals caller-supplied JSON, rejecting unknown fields
// so malformed or unexpected shapes fail at the boundary.
func decodeStrict(raw string, v interface{}) error {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &ValidationError{Msg: fmt.Sprintf("invalid input: %v", err)}
	}
	return nil
}

func (c *TraceabilityContract) emitEvent(ctx contractapi.TransactionContextInterface, name string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "encoding %s event", name)
	}
	return ctx.GetStub().SetEvent(name, data)
}

// clientRole returns the verified role attribute of the invoking identity,
// or the empty string if the certificate carries none.
func (c *TraceabilityContract) clientRole(ctx contractapi.TransactionContextInterface) (string, error) {
	role, _, err := ctx.GetClientIdentity().GetAttributeValue("role")
	if err != nil {
		return "", errors.Wrap(err, "reading role attribute")
	}
	return role, nil
}

// txStamp returns the transaction timestamp in Unix milliseconds and the
// invoking client id. The transaction timestamp, not the wall clock, keeps
// history entries identical when the substrate re-executes a transaction.
func (c *TraceabilityContract) txStamp(ctx contractapi.TransactionContextInterface) (int64, string, error) {
	ts, err := ctx.GetStub().GetTxTimestamp()
	if err != nil {
		return 0, "", errors.Wrap(err, "reading transaction timestamp")
	}
	by, err := ctx.GetClientIdentity().GetID()
	if err != nil {
		return 0, "", errors.Wrap(err, "reading client identity")
	}
	return ts.AsTime().UnixMilli(), by, nil
}

func (c *TraceabilityContract) keyExists(ctx contractapi.TransactionContextInterface, key string) (bool, error) {
	data, err := ctx.GetStub().GetState(key)
	if err != nil {
		return false, errors.Wrapf(err, "reading key %s", key)
	}
	return len(data) > 0, nil
}

func (c *TraceabilityContract) readBatch(ctx contractapi.TransactionContextInterface, batchID string) (*Batch, error) {
	data, err := ctx.GetStub().GetState(batchPrefix + batchID)
	if err != nil {
		return nil, errors.Wrapf(err, "reading batch %s", batchID)
	}
	if len(data) == 0 {
		return nil, &NotFoundError{What: "batch", ID: batchID}
	}
	var batch Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, errors.Wrapf(err, "decoding batch %s", batchID)
	}
	return &batch, nil
}

func (c *TraceabilityContract) writeBatch(ctx contractapi.TransactionContextInterface, batch *Batch) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return errors.Wrapf(err, "encoding batch %s", batch.ID)
	}
	return ctx.GetStub().PutState(batchPrefix+batch.ID, data)
}

// --------------------------- entry points --------------------------- //

// CreateParticipant registers a supply-chain actor. Open to any caller.
func (c *TraceabilityContract) CreateParticipant(ctx contractapi.TransactionContextInterface, participantJSON string) (*TxReceipt, error) {
	var participant Participant
	if err := decodeStrict(participantJSON, &participant); err != nil {
		return nil, err
	}
	if participant.ID == "" {
		return nil, &ValidationError{Msg: "participant id required"}
	}
	exists, err := c.keyExists(ctx, participantPrefix+participant.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &ValidationError{Msg: fmt.Sprintf("participant %s already exists", participant.ID)}
	}
	data, err := json.Marshal(participant)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding participant %s", participant.ID)
	}
	if err := ctx.GetStub().PutState(participantPrefix+participant.ID, data); err != nil {
		return nil, err
	}
	if err := c.emitEvent(ctx, "ParticipantCreated", participant); err != nil {
		return nil, err
	}
	return &TxReceipt{Success: true}, nil
}

// CreateBatch opens the lifecycle of a new lot. Only farmers and
// collectors may create batches; the initial history entry records who
// created it and when.
func (c *TraceabilityContract) CreateBatch(ctx contractapi.TransactionContextInterface, batchJSON string) (*TxReceipt, error) {
	role, err := c.clientRole(ctx)
	if err != nil {
		return nil, err
	}
	if role != "farmer" && role != "collector" {
		return nil, &AuthorizationError{Msg: "only farmers and collectors can create batches"}
	}
	var input BatchInput
	if err := decodeStrict(batchJSON, &input); err != nil {
		return nil, err
	}
	if input.ID == "" {
		return nil, &ValidationError{Msg: "batch id required"}
	}
	exists, err := c.keyExists(ctx, batchPrefix+input.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &ValidationError{Msg: fmt.Sprintf("batch %s already exists", input.ID)}
	}
	ts, by, err := c.txStamp(ctx)
	if err != nil {
		return nil, err
	}
	batch := Batch{
		ID:       input.ID,
		Owner:    input.Owner,
		Geo:      input.Geo,
		Species:  input.Species,
		Photos:   input.Photos,
		Metadata: input.Metadata,
		History: []HistoryEntry{{
			Event:     "Created",
			Timestamp: ts,
			By:        by,
		}},
	}
	if err := c.writeBatch(ctx, &batch); err != nil {
		return nil, err
	}
	if err := c.emitEvent(ctx, "BatchCreated", batch); err != nil {
		return nil, err
	}
	return &TxReceipt{Success: true}, nil
}

// TransferBatch hands custody of a batch to another participant. The
// recipient is not checked against the participant registry and the caller
// need not be the current owner; both are deliberate and under product
// review.
func (c *TraceabilityContract) TransferBatch(ctx contractapi.TransactionContextInterface, batchID string, toParticipant string, metadata string) (*TxReceipt, error) {
	batch, err := c.readBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	ts, by, err := c.txStamp(ctx)
	if err != nil {
		return nil, err
	}
	batch.Owner = toParticipant
	batch.History = append(batch.History, HistoryEntry{
		Event:     "Transferred",
		Timestamp: ts,
		By:        by,
		To:        toParticipant,
		Metadata:  metadata,
	})
	if err := c.writeBatch(ctx, batch); err != nil {
		return nil, err
	}
	if err := c.emitEvent(ctx, "BatchTransferred", BatchTransferredEvent{
		BatchID:       batchID,
		ToParticipant: toParticipant,
		Metadata:      metadata,
	}); err != nil {
		return nil, err
	}
	return &TxReceipt{Success: true}, nil
}

// RecordQualityTest appends a lab-report digest to a batch. Only the hash
// crosses this boundary; the report itself stays off-chain. Repeated calls
// append in call order, never deduplicated.
func (c *TraceabilityContract) RecordQualityTest(ctx contractapi.TransactionContextInterface, batchID string, testJSON string) (*TxReceipt, error) {
	batch, err := c.readBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	var test QualityTest
	if err := decodeStrict(testJSON, &test); err != nil {
		return nil, err
	}
	if test.Hash == "" {
		return nil, &ValidationError{Msg: "test hash required"}
	}
	ts, by, err := c.txStamp(ctx)
	if err != nil {
		return nil, err
	}
	batch.QualityTests = append(batch.QualityTests, test.Hash)
	batch.History = append(batch.History, HistoryEntry{
		Event:     "QualityTest",
		Timestamp: ts,
		By:        by,
		TestHash:  test.Hash,
	})
	if err := c.writeBatch(ctx, batch); err != nil {
		return nil, err
	}
	if err := c.emitEvent(ctx, "QualityTestRecorded", QualityTestRecordedEvent{
		BatchID:  batchID,
		TestHash: test.Hash,
	}); err != nil {
		return nil, err
	}
	return &TxReceipt{Success: true}, nil
}

// AggregateBatches merges existing lots into a new batch entity whose own
// lifecycle starts here. The constituent ids are recorded as given; they
// are not checked for existence and the source batches are not marked as
// merged (asymmetric with ConsumeBatchForProduct, preserved pending
// product review).
func (c *TraceabilityContract) AggregateBatches(ctx contractapi.TransactionContextInterface, newBatchID string, batchIDsJSON string, metadata string) (*TxReceipt, error) {
	if newBatchID == "" {
		return nil, &ValidationError{Msg: "batch id required"}
	}
	var batchIDs []string
	if err := decodeStrict(batchIDsJSON, &batchIDs); err != nil {
		return nil, err
	}
	if len(batchIDs) == 0 {
		return nil, &ValidationError{Msg: "at least one batch id required"}
	}
	exists, err := c.keyExists(ctx, batchPrefix+newBatchID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &ValidationError{Msg: fmt.Sprintf("batch %s already exists", newBatchID)}
	}
	ts, by, err := c.txStamp(ctx)
	if err != nil {
		return nil, err
	}
	batch := Batch{
		ID:             newBatchID,
		Metadata:       metadata,
		AggregatedFrom: batchIDs,
		History: []HistoryEntry{{
			Event:     "Aggregated",
			Timestamp: ts,
			By:        by,
			From:      batchIDs,
		}},
	}
	if err := c.writeBatch(ctx, &batch); err != nil {
		return nil, err
	}
	if err := c.emitEvent(ctx, "BatchesAggregated", BatchesAggregatedEvent{
		NewBatchID: newBatchID,
		BatchIDs:   batchIDs,
		Metadata:   metadata,
	}); err != nil {
		return nil, err
	}
	return &TxReceipt{Success: true}, nil
}

// ConsumeBatchForProduct irreversibly binds each listed batch to a
// finished product. Manufacturers only. All batches are read and validated
// before any is written, so a missing id fails the whole call with no
// partial consumption.
func (c *TraceabilityContract) ConsumeBatchForProduct(ctx contractapi.TransactionContextInterface, productID string, batchIDsJSON string, productMetadata string) (*TxReceipt, error) {
	role, err := c.clientRole(ctx)
	if err != nil {
		return nil, err
	}
	if role != "manufacturer" {
		return nil, &AuthorizationError{Msg: "only manufacturers can consume batches"}
	}
	var batchIDs []string
	if err := decodeStrict(batchIDsJSON, &batchIDs); err != nil {
		return nil, err
	}
	if len(batchIDs) == 0 {
		return nil, &ValidationError{Msg: "at least one batch id required"}
	}
	ts, by, err := c.txStamp(ctx)
	if err != nil {
		return nil, err
	}
	batches := make([]*Batch, 0, len(batchIDs))
	for _, batchID := range batchIDs {
		batch, err := c.readBatch(ctx, batchID)
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}
	for _, batch := range batches {
		batch.ConsumedInProduct = productID
		batch.History = append(batch.History, HistoryEntry{
			Event:           "Consumed",
			Timestamp:       ts,
			By:              by,
			ProductID:       productID,
			ProductMetadata: productMetadata,
		})
		if err := c.writeBatch(ctx, batch); err != nil {
			return nil, err
		}
	}
	if err := c.emitEvent(ctx, "BatchConsumed", BatchConsumedEvent{
		ProductID:       productID,
		BatchIDs:        batchIDs,
		ProductMetadata: productMetadata,
	}); err != nil {
		return nil, err
	}
	return &TxReceipt{Success: true}, nil
}

// QueryBatch returns the full batch record.
func (c *TraceabilityContract) QueryBatch(ctx contractapi.TransactionContextInterface, batchID string) (*Batch, error) {
	return c.readBatch(ctx, batchID)
}

// QueryTrace returns just the provenance trail of a batch.
func (c *TraceabilityContract) QueryTrace(ctx contractapi.TransactionContextInterface, batchID string) ([]HistoryEntry, error) {
	batch, err := c.readBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	return batch.History, nil
}

// PutPrivateData writes a value into a restricted collection. The emitted
// event names the collection and key only; the value never reaches the
// public event channel.
func (c *TraceabilityContract) PutPrivateData(ctx contractapi.TransactionContextInterface, collection string, key string, value string) (*TxReceipt, error) {
	if err := ctx.GetStub().PutPrivateData(collection, key, []byte(value)); err != nil {
		return nil, errors.Wrapf(err, "writing private data %s/%s", collection, key)
	}
	if err := c.emitEvent(ctx, "PrivateDataPut", PrivateDataPutEvent{
		Collection: collection,
		Key:        key,
	}); err != nil {
		return nil, err
	}
	return &TxReceipt{Success: true}, nil
}

// GetPrivateData reads a value from a restricted collection.
func (c *TraceabilityContract) GetPrivateData(ctx contractapi.TransactionContextInterface, collection string, key string) (string, error) {
	value, err := ctx.GetStub().GetPrivateData(collection, key)
	if err != nil {
		return "", errors.Wrapf(err, "reading private data %s/%s", collection, key)
	}
	if len(value) == 0 {
		return "", &NotFoundError{What: "private data", ID: key}
	}
	return string(value), nil
}
