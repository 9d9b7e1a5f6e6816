package main

import (
	"crypto/x509"

	"github.com/golang/protobuf/ptypes/timestamp"
	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
)

// mockStub is an in-memory ChaincodeStubInterface for unit tests, after
// the MockStub that ships with Fabric's shim: a State map for the world
// state, a per-collection PvtState map, a fixed transaction timestamp and
// a capture of emitted events. Query iterators and proposal plumbing are
// not implemented; the contract under test never touches them.
type mockStub struct {
	TxID        string
	ChannelID   string
	State       map[string][]byte
	PvtState    map[string]map[string][]byte
	TxTimestamp *timestamp.Timestamp
	Events      []mockEvent
}

type mockEvent struct {
	Name    string
	Payload []byte
}

func newMockStub() *mockStub {
	return &mockStub{
		TxID:        "tx1",
		ChannelID:   "tracechannel",
		State:       map[string][]byte{},
		PvtState:    map[string]map[string][]byte{},
		TxTimestamp: &timestamp.Timestamp{Seconds: 1700000000},
	}
}

func (s *mockStub) GetTxID() string      { return s.TxID }
func (s *mockStub) GetChannelID() string { return s.ChannelID }

func (s *mockStub) GetArgs() [][]byte                            { return nil }
func (s *mockStub) GetStringArgs() []string                      { return nil }
func (s *mockStub) GetFunctionAndParameters() (string, []string) { return "", nil }
func (s *mockStub) GetArgsSlice() ([]byte, error)                { return nil, nil }

func (s *mockStub) GetState(key string) ([]byte, error) {
	return s.State[key], nil
}

func (s *mockStub) PutState(key string, value []byte) error {
	s.State[key] = value
	return nil
}

func (s *mockStub) DelState(key string) error {
	delete(s.State, key)
	return nil
}

func (s *mockStub) GetPrivateData(collection, key string) ([]byte, error) {
	m, in := s.PvtState[collection]
	if !in {
		return nil, nil
	}
	return m[key], nil
}

func (s *mockStub) PutPrivateData(collection string, key string, value []byte) error {
	if _, in := s.PvtState[collection]; !in {
		s.PvtState[collection] = map[string][]byte{}
	}
	s.PvtState[collection][key] = value
	return nil
}

func (s *mockStub) GetTxTimestamp() (*timestamp.Timestamp, error) {
	if s.TxTimestamp == nil {
		return nil, errors.New("tx timestamp not set")
	}
	return s.TxTimestamp, nil
}

func (s *mockStub) SetEvent(name string, payload []byte) error {
	s.Events = append(s.Events, mockEvent{Name: name, Payload: payload})
	return nil
}

// lastEvent returns the most recently emitted event, or a zero value.
func (s *mockStub) lastEvent() mockEvent {
	if len(s.Events) == 0 {
		return mockEvent{}
	}
	return s.Events[len(s.Events)-1]
}

func (s *mockStub) InvokeChaincode(string, [][]byte, string) pb.Response {
	return pb.Response{}
}

func (s *mockStub) SetStateValidationParameter(string, []byte) error { return nil }
func (s *mockStub) GetStateValidationParameter(string) ([]byte, error) {
	return nil, nil
}

func (s *mockStub) GetStateByRange(string, string) (shim.StateQueryIteratorInterface, error) {
	return nil, errors.New("not implemented")
}

func (s *mockStub) GetStateByRangeWithPagination(string, string, int32, string) (shim.StateQueryIteratorInterface, *pb.QueryResponseMetadata, error) {
	return nil, nil, errors.New("not implemented")
}

func (s *mockStub) GetStateByPartialCompositeKey(string, []string) (shim.StateQueryIteratorInterface, error) {
	return nil, errors.New("not implemented")
}

func (s *mockStub) GetStateByPartialCompositeKeyWithPagination(string, []string, int32, string) (shim.StateQueryIteratorInterface, *pb.QueryResponseMetadata, error) {
	return nil, nil, errors.New("not implemented")
}

func (s *mockStub) CreateCompositeKey(string, []string) (string, error) {
	return "", errors.New("not implemented")
}

func (s *mockStub) SplitCompositeKey(string) (string, []string, error) {
	return "", nil, errors.New("not implemented")
}

func (s *mockStub) GetQueryResult(string) (shim.StateQueryIteratorInterface, error) {
	return nil, errors.New("not implemented")
}

func (s *mockStub) GetQueryResultWithPagination(string, int32, string) (shim.StateQueryIteratorInterface, *pb.QueryResponseMetadata, error) {
	return nil, nil, errors.New("not implemented")
}

func (s *mockStub) GetHistoryForKey(string) (shim.HistoryQueryIteratorInterface, error) {
	return nil, errors.New("not implemented")
}

func (s *mockStub) GetPrivateDataHash(string, string) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (s *mockStub) DelPrivateData(collection, key string) error {
	if m, in := s.PvtState[collection]; in {
		delete(m, key)
	}
	return nil
}

func (s *mockStub) PurgePrivateData(string, string) error {
	return errors.New("not implemented")
}

func (s *mockStub) SetPrivateDataValidationParameter(string, string, []byte) error {
	return nil
}

func (s *mockStub) GetPrivateDataValidationParameter(string, string) ([]byte, error) {
	return nil, nil
}

func (s *mockStub) GetPrivateDataByRange(string, string, string) (shim.StateQueryIteratorInterface, error) {
	return nil, errors.New("not implemented")
}

func (s *mockStub) GetPrivateDataByPartialCompositeKey(string, string, []string) (shim.StateQueryIteratorInterface, error) {
	return nil, errors.New("not implemented")
}

func (s *mockStub) GetPrivateDataQueryResult(string, string) (shim.StateQueryIteratorInterface, error) {
	return nil, errors.New("not implemented")
}

func (s *mockStub) GetCreator() ([]byte, error)              { return nil, nil }
func (s *mockStub) GetTransient() (map[string][]byte, error) { return nil, nil }
func (s *mockStub) GetBinding() ([]byte, error)              { return nil, nil }
func (s *mockStub) GetDecorations() map[string][]byte        { return nil }
func (s *mockStub) GetSignedProposal() (*pb.SignedProposal, error) {
	return nil, nil
}

// mockClientIdentity stands in for the X.509-backed identity the peer
// hands to the contract.
type mockClientIdentity struct {
	id    string
	mspID string
	attrs map[string]string
}

func (c *mockClientIdentity) GetID() (string, error)    { return c.id, nil }
func (c *mockClientIdentity) GetMSPID() (string, error) { return c.mspID, nil }

func (c *mockClientIdentity) GetAttributeValue(name string) (string, bool, error) {
	value, found := c.attrs[name]
	return value, found, nil
}

func (c *mockClientIdentity) AssertAttributeValue(name, value string) error {
	actual, found := c.attrs[name]
	if !found || actual != value {
		return errors.Errorf("attribute %s does not have value %s", name, value)
	}
	return nil
}

func (c *mockClientIdentity) GetX509Certificate() (*x509.Certificate, error) {
	return nil, nil
}

type mockTransactionContext struct {
	stub     *mockStub
	identity *mockClientIdentity
}

func (ctx *mockTransactionContext) GetStub() shim.ChaincodeStubInterface { return ctx.stub }
func (ctx *mockTransactionContext) GetClientIdentity() cid.ClientIdentity {
	return ctx.identity
}

var (
	_ shim.ChaincodeStubInterface             = (*mockStub)(nil)
	_ cid.ClientIdentity                      = (*mockClientIdentity)(nil)
	_ contractapi.TransactionContextInterface = (*mockTransactionContext)(nil)
)

// newTestContext builds a transaction context for a caller holding the
// given role attribute.
func newTestContext(role string) *mockTransactionContext {
	return &mockTransactionContext{
		stub: newMockStub(),
		identity: &mockClientIdentity{
			id:    "x509::CN=" + role + "1::CN=ca.org1.example.com",
			mspID: "Org1MSP",
			attrs: map[string]string{"role": role},
		},
	}
}
