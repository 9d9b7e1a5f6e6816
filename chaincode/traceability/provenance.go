package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/pkg/errors"
)

// RecordCertification appends a certificate digest to a batch. As with
// quality tests, only the hash is committed; the certificate document
// lives off-chain.
func (c *TraceabilityContract) RecordCertification(ctx contractapi.TransactionContextInterface, batchID string, certJSON string) (*TxReceipt, error) {
	batch, err := c.readBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	var cert Certification
	if err := decodeStrict(certJSON, &cert); err != nil {
		return nil, err
	}
	if cert.Hash == "" {
		return nil, &ValidationError{Msg: "certificate hash required"}
	}
	ts, by, err := c.txStamp(ctx)
	if err != nil {
		return nil, err
	}
	batch.Certifications = append(batch.Certifications, cert.Hash)
	batch.History = append(batch.History, HistoryEntry{
		Event:     "Certified",
		Timestamp: ts,
		By:        by,
		CertHash:  cert.Hash,
	})
	if err := c.writeBatch(ctx, batch); err != nil {
		return nil, err
	}
	if err := c.emitEvent(ctx, "CertificationRecorded", CertificationRecordedEvent{
		BatchID:  batchID,
		CertHash: cert.Hash,
		CertType: cert.CertType,
	}); err != nil {
		return nil, err
	}
	return &TxReceipt{Success: true}, nil
}

// LinkQRCode binds a printed QR code to a batch. The link carries a
// SHA-256 digest of the batch's history at link time, so a consumer
// scanning the code can detect a trail that was extended afterwards.
func (c *TraceabilityContract) LinkQRCode(ctx contractapi.TransactionContextInterface, qrCode string, batchID string) (*TxReceipt, error) {
	if qrCode == "" {
		return nil, &ValidationError{Msg: "qr code required"}
	}
	exists, err := c.keyExists(ctx, qrPrefix+qrCode)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &ValidationError{Msg: fmt.Sprintf("qr code %s already linked", qrCode)}
	}
	batch, err := c.readBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	ts, _, err := c.txStamp(ctx)
	if err != nil {
		return nil, err
	}
	historyJSON, err := json.Marshal(batch.History)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding history of batch %s", batchID)
	}
	digest := sha256.Sum256(historyJSON)
	link := QRLink{
		QRCode:         qrCode,
		BatchID:        batchID,
		ProvenanceHash: hex.EncodeToString(digest[:]),
		CreatedAt:      ts,
	}
	data, err := json.Marshal(link)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding qr link %s", qrCode)
	}
	if err := ctx.GetStub().PutState(qrPrefix+qrCode, data); err != nil {
		return nil, err
	}
	if err := c.emitEvent(ctx, "QRCodeLinked", QRCodeLinkedEvent{
		QRCode:  qrCode,
		BatchID: batchID,
	}); err != nil {
		return nil, err
	}
	return &TxReceipt{Success: true}, nil
}

// ResolveQRCode returns the link record for a QR code.
func (c *TraceabilityContract) ResolveQRCode(ctx contractapi.TransactionContextInterface, qrCode string) (*QRLink, error) {
	data, err := ctx.GetStub().GetState(qrPrefix + qrCode)
	if err != nil {
		return nil, errors.Wrapf(err, "reading qr code %s", qrCode)
	}
	if len(data) == 0 {
		return nil, &NotFoundError{What: "qr code", ID: qrCode}
	}
	var link QRLink
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, errors.Wrapf(err, "decoding qr link %s", qrCode)
	}
	return &link, nil
}

// InitLedger seeds a few demo participants. Useful when instantiating the
// chaincode on a fresh channel; safe to skip in production.
func (c *TraceabilityContract) InitLedger(ctx contractapi.TransactionContextInterface) error {
	participants := []Participant{
		{ID: "farmer1", Name: "Demo Farmer", Role: "farmer"},
		{ID: "lab1", Name: "Demo Lab", Role: "lab"},
		{ID: "manufacturer1", Name: "Demo Manufacturer", Role: "manufacturer"},
	}
	for _, p := range participants {
		data, err := json.Marshal(p)
		if err != nil {
			return errors.Wrapf(err, "encoding participant %s", p.ID)
		}
		if err := ctx.GetStub().PutState(participantPrefix+p.ID, data); err != nil {
			return errors.Wrapf(err, "seeding participant %s", p.ID)
		}
	}
	return nil
}
