package ledger

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Backend is the subset of *ethclient.Client the registry client needs.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// EthClient implements Client over an EVM JSON-RPC backend.
type EthClient struct {
	chainID  uint64
	backend  Backend
	contract common.Address
	abi      abi.ABI
	eventID  common.Hash
	timeout  time.Duration
	tracer   trace.Tracer
}

// NewEthClient binds the registry contract at contract on backend.
// A zero timeout leaves deadlines to the caller's context.
func NewEthClient(chainID uint64, backend Backend, contract common.Address, timeout time.Duration) (*EthClient, error) {
	parsed, err := ParseRegistryABI()
	if err != nil {
		return nil, fmt.Errorf("parse registry abi: %w", err)
	}
	event, ok := parsed.Events[attributeChangedEvent]
	if !ok {
		return nil, fmt.Errorf("registry abi: missing %s event", attributeChangedEvent)
	}
	return &EthClient{
		chainID:  chainID,
		backend:  backend,
		contract: contract,
		abi:      parsed,
		eventID:  event.ID,
		timeout:  timeout,
		tracer:   otel.Tracer("sdi-resolver/internal/ledger"),
	}, nil
}

// ChainID is the network this client is bound to.
func (c *EthClient) ChainID() uint64 {
	return c.chainID
}

func (c *EthClient) GetDID(ctx context.Context, identity common.Address) (IdentityRecord, error) {
	values, err := c.call(ctx, CallGetDID, "getDID", identity)
	if err != nil {
		return IdentityRecord{}, err
	}
	if len(values) != 3 {
		return IdentityRecord{}, wrapCall(c.chainID, CallGetDID, fmt.Errorf("unexpected output arity %d", len(values)))
	}
	controller, ok1 := values[0].(common.Address)
	service, ok2 := values[1].([32]byte)
	authKey, ok3 := values[2].([]byte)
	if !ok1 || !ok2 || !ok3 {
		return IdentityRecord{}, wrapCall(c.chainID, CallGetDID, fmt.Errorf("unexpected output types %T, %T, %T", values[0], values[1], values[2]))
	}
	return IdentityRecord{
		Controller:        controller,
		ServiceHash:       service,
		AuthenticationKey: authKey,
	}, nil
}

func (c *EthClient) ChangedDIDDocuments(ctx context.Context, identity common.Address) (uint64, error) {
	values, err := c.call(ctx, CallChangedDIDDocuments, "changedDidDocuments", identity)
	if err != nil {
		return 0, err
	}
	block, err := toUint64(values)
	if err != nil {
		return 0, wrapCall(c.chainID, CallChangedDIDDocuments, err)
	}
	return block, nil
}

func (c *EthClient) HasRole(ctx context.Context, role [32]byte, account common.Address) (bool, error) {
	values, err := c.call(ctx, CallHasRole, "hasRole", role, account)
	if err != nil {
		return false, err
	}
	if len(values) != 1 {
		return false, wrapCall(c.chainID, CallHasRole, fmt.Errorf("unexpected output arity %d", len(values)))
	}
	granted, ok := values[0].(bool)
	if !ok {
		return false, wrapCall(c.chainID, CallHasRole, fmt.Errorf("unexpected output type %T", values[0]))
	}
	return granted, nil
}

// attributeChangedData mirrors the non-indexed event inputs.
type attributeChangedData struct {
	Name           [32]byte
	Value          []byte
	ValidTo        *big.Int
	PreviousChange *big.Int
}

func (c *EthClient) AttributeChanges(ctx context.Context, block uint64) ([]AttributeChange, error) {
	ctx, span, cancel := c.start(ctx, CallGetPastEvents)
	defer cancel()
	defer span.End()
	span.SetAttributes(attribute.Int64("ledger.block", int64(block)))

	n := new(big.Int).SetUint64(block)
	logs, err := c.backend.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: n,
		ToBlock:   n,
		Addresses: []common.Address{c.contract},
		Topics:    [][]common.Hash{{c.eventID}},
	})
	if err != nil {
		return nil, c.fail(span, CallGetPastEvents, err)
	}

	changes := make([]AttributeChange, 0, len(logs))
	for _, lg := range logs {
		if lg.Removed || len(lg.Topics) < 2 || lg.Topics[0] != c.eventID {
			continue
		}
		var data attributeChangedData
		if err := c.abi.UnpackIntoInterface(&data, attributeChangedEvent, lg.Data); err != nil {
			return nil, c.fail(span, CallGetPastEvents, fmt.Errorf("decode log %d: %w", lg.Index, err))
		}
		previous, err := bigToUint64(data.PreviousChange)
		if err != nil {
			return nil, c.fail(span, CallGetPastEvents, fmt.Errorf("previousChange: %w", err))
		}
		changes = append(changes, AttributeChange{
			Identity:       common.BytesToAddress(lg.Topics[1].Bytes()),
			Name:           strings.TrimRight(string(data.Name[:]), "\x00"),
			Value:          data.Value,
			ValidTo:        saturateUint64(data.ValidTo),
			PreviousChange: previous,
			BlockNumber:    lg.BlockNumber,
		})
	}
	return changes, nil
}

func (c *EthClient) BlockTimestamp(ctx context.Context, block uint64) (time.Time, error) {
	ctx, span, cancel := c.start(ctx, CallGetBlockTimestamp)
	defer cancel()
	defer span.End()

	header, err := c.backend.HeaderByNumber(ctx, new(big.Int).SetUint64(block))
	if err != nil {
		return time.Time{}, c.fail(span, CallGetBlockTimestamp, err)
	}
	if header == nil {
		return time.Time{}, c.fail(span, CallGetBlockTimestamp, fmt.Errorf("block %d not found", block))
	}
	return time.Unix(int64(header.Time), 0).UTC(), nil
}

func (c *EthClient) call(ctx context.Context, kind CallKind, method string, args ...any) ([]any, error) {
	ctx, span, cancel := c.start(ctx, kind)
	defer cancel()
	defer span.End()

	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, c.fail(span, kind, fmt.Errorf("pack %s: %w", method, err))
	}
	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &c.contract, Data: data}, nil)
	if err != nil {
		return nil, c.fail(span, kind, err)
	}
	values, err := c.abi.Unpack(method, out)
	if err != nil {
		return nil, c.fail(span, kind, fmt.Errorf("unpack %s: %w", method, err))
	}
	return values, nil
}

func (c *EthClient) start(ctx context.Context, kind CallKind) (context.Context, trace.Span, context.CancelFunc) {
	ctx, span := c.tracer.Start(ctx, "ledger."+string(kind), trace.WithAttributes(
		attribute.Int64("ledger.chain_id", int64(c.chainID)),
		attribute.String("ledger.contract", c.contract.Hex()),
	))
	if c.timeout <= 0 {
		return ctx, span, func() {}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	return ctx, span, cancel
}

func (c *EthClient) fail(span trace.Span, kind CallKind, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return wrapCall(c.chainID, kind, err)
}

func toUint64(values []any) (uint64, error) {
	if len(values) != 1 {
		return 0, fmt.Errorf("unexpected output arity %d", len(values))
	}
	n, ok := values[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("unexpected output type %T", values[0])
	}
	return bigToUint64(n)
}

// saturateUint64 clamps "valid forever" style uint256 expiries.
func saturateUint64(n *big.Int) uint64 {
	if n == nil || n.Sign() < 0 {
		return 0
	}
	if !n.IsUint64() {
		return math.MaxUint64
	}
	return n.Uint64()
}

func bigToUint64(n *big.Int) (uint64, error) {
	if n == nil {
		return 0, nil
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("value %s overflows uint64", n)
	}
	return n.Uint64(), nil
}
