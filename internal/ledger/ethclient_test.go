package ledger

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/suite"
)

// fakeBackend answers registry reads from canned, ABI-encoded values.
type fakeBackend struct {
	abi       abi.ABI
	chainID   *big.Int
	outputs   map[string][]byte
	logs      map[uint64][]types.Log
	headers   map[uint64]*types.Header
	callErr   error
	lastQuery ethereum.FilterQuery
	calls     []string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	parsed, err := ParseRegistryABI()
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	return &fakeBackend{
		abi:     parsed,
		chainID: big.NewInt(56),
		outputs: map[string][]byte{},
		logs:    map[uint64][]types.Log{},
		headers: map[uint64]*types.Header{},
	}
}

func (f *fakeBackend) setOutput(t *testing.T, method string, values ...any) {
	out, err := f.abi.Methods[method].Outputs.Pack(values...)
	if err != nil {
		t.Fatalf("pack %s: %v", method, err)
	}
	f.outputs[method] = out
}

func (f *fakeBackend) addEvent(t *testing.T, contract, identity common.Address, block uint64, name string, value []byte, validTo, previous *big.Int) {
	event := f.abi.Events[attributeChangedEvent]
	var nameBytes [32]byte
	copy(nameBytes[:], name)
	data, err := event.Inputs.NonIndexed().Pack(nameBytes, value, validTo, previous)
	if err != nil {
		t.Fatalf("pack event: %v", err)
	}
	f.logs[block] = append(f.logs[block], types.Log{
		Address:     contract,
		Topics:      []common.Hash{event.ID, common.BytesToHash(identity.Bytes())},
		Data:        data,
		BlockNumber: block,
	})
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.callErr != nil {
		return nil, f.callErr
	}
	method, err := f.abi.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	f.calls = append(f.calls, method.Name)
	out, ok := f.outputs[method.Name]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return out, nil
}

func (f *fakeBackend) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	if f.callErr != nil {
		return nil, f.callErr
	}
	f.lastQuery = q
	return f.logs[q.FromBlock.Uint64()], nil
}

func (f *fakeBackend) HeaderByNumber(_ context.Context, number *big.Int) (*types.Header, error) {
	if f.callErr != nil {
		return nil, f.callErr
	}
	return f.headers[number.Uint64()], nil
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	if f.callErr != nil {
		return nil, f.callErr
	}
	return f.chainID, nil
}

type EthClientSuite struct {
	suite.Suite
	backend  *fakeBackend
	client   *EthClient
	contract common.Address
	identity common.Address
}

func TestEthClientSuite(t *testing.T) {
	suite.Run(t, new(EthClientSuite))
}

func (s *EthClientSuite) SetupTest() {
	s.backend = newFakeBackend(s.T())
	s.contract = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	s.identity = common.HexToAddress("0x1111111111111111111111111111111111111111")
	client, err := NewEthClient(56, s.backend, s.contract, time.Second)
	s.Require().NoError(err)
	s.client = client
}

func (s *EthClientSuite) TestGetDID() {
	s.Run("decodes the identity record", func() {
		var service [32]byte
		service[31] = 0x01
		controller := common.HexToAddress("0x2222222222222222222222222222222222222222")
		s.backend.setOutput(s.T(), "getDID", controller, service, []byte{0x02, 0x03})

		rec, err := s.client.GetDID(context.Background(), s.identity)
		s.Require().NoError(err)
		s.Equal(controller, rec.Controller)
		s.Equal(service, rec.ServiceHash)
		s.True(rec.HasServiceHash())
		s.Equal([]byte{0x02, 0x03}, rec.AuthenticationKey)
	})

	s.Run("wraps node failures as call errors", func() {
		s.backend.callErr = errors.New("connection refused")
		defer func() { s.backend.callErr = nil }()

		_, err := s.client.GetDID(context.Background(), s.identity)
		var callErr *CallError
		s.Require().ErrorAs(err, &callErr)
		s.Equal(CallGetDID, callErr.Call)
		s.Equal(uint64(56), callErr.ChainID)
	})
}

func (s *EthClientSuite) TestChangedDIDDocuments() {
	s.backend.setOutput(s.T(), "changedDidDocuments", big.NewInt(120))

	block, err := s.client.ChangedDIDDocuments(context.Background(), s.identity)
	s.Require().NoError(err)
	s.Equal(uint64(120), block)
}

func (s *EthClientSuite) TestHasRole() {
	s.backend.setOutput(s.T(), "hasRole", true)

	granted, err := s.client.HasRole(context.Background(), IssuerRole, s.identity)
	s.Require().NoError(err)
	s.True(granted)
	s.Equal([]string{"hasRole"}, s.backend.calls)
}

func (s *EthClientSuite) TestAttributeChanges() {
	s.Run("decodes events of exactly one block", func() {
		s.backend.addEvent(s.T(), s.contract, s.identity, 100, "DID/SVC", []byte("https://example.org"), big.NewInt(2_000_000_000), big.NewInt(90))

		changes, err := s.client.AttributeChanges(context.Background(), 100)
		s.Require().NoError(err)
		s.Require().Len(changes, 1)
		s.Equal(AttributeChange{
			Identity:       s.identity,
			Name:           "DID/SVC",
			Value:          []byte("https://example.org"),
			ValidTo:        2_000_000_000,
			PreviousChange: 90,
			BlockNumber:    100,
		}, changes[0])
		s.Equal(uint64(100), s.backend.lastQuery.FromBlock.Uint64())
		s.Equal(uint64(100), s.backend.lastQuery.ToBlock.Uint64())
		s.Equal([]common.Address{s.contract}, s.backend.lastQuery.Addresses)
	})

	s.Run("saturates unbounded validTo", func() {
		forever := new(big.Int).Lsh(big.NewInt(1), 255)
		s.backend.addEvent(s.T(), s.contract, s.identity, 200, "DID/PUB/Secp256k1/veriKey/hex", []byte{0x02}, forever, big.NewInt(0))

		changes, err := s.client.AttributeChanges(context.Background(), 200)
		s.Require().NoError(err)
		s.Require().Len(changes, 1)
		s.Equal(^uint64(0), changes[0].ValidTo)
		s.False(changes[0].Revoked())
	})

	s.Run("skips removed logs", func() {
		s.backend.addEvent(s.T(), s.contract, s.identity, 300, "DID/SVC", []byte("x"), big.NewInt(1), big.NewInt(0))
		s.backend.logs[300][0].Removed = true

		changes, err := s.client.AttributeChanges(context.Background(), 300)
		s.Require().NoError(err)
		s.Empty(changes)
	})
}

func (s *EthClientSuite) TestBlockTimestamp() {
	s.Run("returns the header time in UTC", func() {
		s.backend.headers[10] = &types.Header{Number: big.NewInt(10), Time: 1_700_000_000}

		ts, err := s.client.BlockTimestamp(context.Background(), 10)
		s.Require().NoError(err)
		s.Equal(time.Unix(1_700_000_000, 0).UTC(), ts)
	})

	s.Run("fails on a missing block", func() {
		_, err := s.client.BlockTimestamp(context.Background(), 11)
		var callErr *CallError
		s.Require().ErrorAs(err, &callErr)
		s.Equal(CallGetBlockTimestamp, callErr.Call)
	})
}
