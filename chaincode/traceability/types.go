package main

// Participant is a registered supply-chain actor (farmer, collector, lab,
// processor, manufacturer, regulator). Stored once under PARTICIPANT_<id>
// and never updated afterwards.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Role string `json:"role"`
}

// Batch is a traceable lot of herb material, raw or aggregated. The
// history slice is the canonical provenance trail: ordered, append-only,
// never pruned. QualityTests and Certifications hold content digests only;
// the full reports live off-chain.
type Batch struct {
	ID                string         `json:"id"`
	Owner             string         `json:"owner,omitempty"`
	Geo               string         `json:"geo,omitempty"`
	Species           string         `json:"species,omitempty"`
	Photos            []string       `json:"photos,omitempty"`
	Metadata          string         `json:"metadata,omitempty"`
	History           []HistoryEntry `json:"history"`
	QualityTests      []string       `json:"qualityTests,omitempty"`
	Certifications    []string       `json:"certifications,omitempty"`
	AggregatedFrom    []string       `json:"aggregatedFrom,omitempty"`
	ConsumedInProduct string         `json:"consumedInProduct,omitempty"`
}

// BatchInput is the caller-supplied shape accepted by CreateBatch. The
// ledger-managed fields of Batch (history, test digests, aggregation and
// consumption links) are deliberately absent so callers cannot preload
// them.
type BatchInput struct {
	ID       string   `json:"id"`
	Owner    string   `json:"owner,omitempty"`
	Geo      string   `json:"geo,omitempty"`
	Species  string   `json:"species,omitempty"`
	Photos   []string `json:"photos,omitempty"`
	Metadata string   `json:"metadata,omitempty"`
}

// HistoryEntry is one record in a batch's provenance trail. Event names
// the transition; Timestamp is the transaction timestamp in Unix
// milliseconds; By is the invoking client identity. The remaining fields
// are event-specific.
type HistoryEntry struct {
	Event           string   `json:"event"`
	Timestamp       int64    `json:"timestamp"`
	By              string   `json:"by"`
	To              string   `json:"to,omitempty"`
	Metadata        string   `json:"metadata,omitempty"`
	TestHash        string   `json:"testHash,omitempty"`
	CertHash        string   `json:"certHash,omitempty"`
	From            []string `json:"from,omitempty"`
	ProductID       string   `json:"productId,omitempty"`
	ProductMetadata string   `json:"productMetadata,omitempty"`
}

// QualityTest carries only the digest of a lab report across the contract
// boundary.
type QualityTest struct {
	Hash string `json:"hash"`
}

// Certification carries the digest and kind of an off-chain certificate.
type Certification struct {
	Hash     string `json:"hash"`
	CertType string `json:"certType,omitempty"`
	Expiry   int64  `json:"expiry,omitempty"`
}

// QRLink binds a printed QR code to a batch together with a digest of the
// batch's provenance trail at link time.
type QRLink struct {
	QRCode         string `json:"qrCode"`
	BatchID        string `json:"batchId"`
	ProvenanceHash string `json:"provenanceHash"`
	CreatedAt      int64  `json:"createdAt"`
}

// TxReceipt is the success payload returned by mutating entry points.
type TxReceipt struct {
	Success bool `json:"success"`
}

// Event payloads. Events carry the semantically relevant fields of the
// operation, never the full resulting state; PrivateDataPutEvent in
// particular must not include the value.

type BatchTransferredEvent struct {
	BatchID       string `json:"batchId"`
	ToParticipant string `json:"toParticipant"`
	Metadata      string `json:"metadata,omitempty"`
}

type QualityTestRecordedEvent struct {
	BatchID  string `json:"batchId"`
	TestHash string `json:"testHash"`
}

type BatchesAggregatedEvent struct {
	NewBatchID string   `json:"newBatchId"`
	BatchIDs   []string `json:"batchIds"`
	Metadata   string   `json:"metadata,omitempty"`
}

type BatchConsumedEvent struct {
	ProductID       string   `json:"productId"`
	BatchIDs        []string `json:"batchIds"`
	ProductMetadata string   `json:"productMetadata,omitempty"`
}

type PrivateDataPutEvent struct {
	Collection string `json:"collection"`
	Key        string `json:"key"`
}

type CertificationRecordedEvent struct {
	BatchID  string `json:"batchId"`
	CertHash string `json:"certHash"`
	CertType string `json:"certType,omitempty"`
}

type QRCodeLinkedEvent struct {
	QRCode  string `json:"qrCode"`
	BatchID string `json:"batchId"`
}
