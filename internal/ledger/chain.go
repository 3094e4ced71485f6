package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/sync/errgroup"

	"sdi-resolver/internal/platform/config"
)

// ChainContext binds one network to its registry client. Immutable after boot.
type ChainContext struct {
	ChainID uint64
	Client  Client
}

// Registry holds one ChainContext per network. It is built once at startup and
// only read afterwards, so it needs no locking.
type Registry struct {
	chains  map[uint64]ChainContext
	ids     []uint64
	closers []func()
}

// NewRegistry builds a registry from already constructed contexts.
func NewRegistry(chains ...ChainContext) (*Registry, error) {
	r := &Registry{chains: make(map[uint64]ChainContext, len(chains))}
	for _, c := range chains {
		if err := r.register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) register(c ChainContext) error {
	if c.Client == nil {
		return fmt.Errorf("chain %d: nil client", c.ChainID)
	}
	if _, exists := r.chains[c.ChainID]; exists {
		return fmt.Errorf("chain %d already registered", c.ChainID)
	}
	r.chains[c.ChainID] = c
	r.ids = append(r.ids, c.ChainID)
	slices.Sort(r.ids)
	return nil
}

// ContextFor returns the context of chainID or an *UnsupportedChainError.
func (r *Registry) ContextFor(chainID uint64) (ChainContext, error) {
	c, ok := r.chains[chainID]
	if !ok {
		return ChainContext{}, &UnsupportedChainError{ChainID: chainID}
	}
	return c, nil
}

// ActiveChainIDs lists registered chains in ascending order.
func (r *Registry) ActiveChainIDs() []uint64 {
	return slices.Clone(r.ids)
}

// Close releases the underlying RPC connections.
func (r *Registry) Close() {
	for _, closeFn := range r.closers {
		closeFn()
	}
}

// Dialer opens an RPC backend for rpcURL. The returned close func may be nil.
type Dialer func(ctx context.Context, rpcURL string) (Backend, func(), error)

// DialEthereum dials a JSON-RPC endpoint with go-ethereum's ethclient.
func DialEthereum(ctx context.Context, rpcURL string) (Backend, func(), error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

type handshake struct {
	ctx     ChainContext
	closeFn func()
	err     error
}

// Bootstrap dials every provider concurrently, asks each node for its chain id
// and registers the resulting contexts in provider order. A provider that fails
// its handshake is logged and skipped; Bootstrap fails only when no chain is up.
func Bootstrap(ctx context.Context, providers []config.Provider, dial Dialer, callTimeout time.Duration, logger *slog.Logger) (*Registry, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("ledger bootstrap: no providers configured")
	}
	if dial == nil {
		dial = DialEthereum
	}

	results := make([]handshake, len(providers))
	var g errgroup.Group
	for i, p := range providers {
		g.Go(func() error {
			results[i] = connect(ctx, p, dial, callTimeout)
			return nil
		})
	}
	_ = g.Wait()

	r := &Registry{chains: make(map[uint64]ChainContext, len(providers))}
	for i, res := range results {
		if res.err != nil {
			logger.ErrorContext(ctx, "ledger provider handshake failed",
				"rpc_url", providers[i].RPCURL,
				"contract", providers[i].ContractAddress,
				"error", res.err,
			)
			continue
		}
		if err := r.register(res.ctx); err != nil {
			logger.ErrorContext(ctx, "ledger provider rejected",
				"rpc_url", providers[i].RPCURL,
				"chain_id", res.ctx.ChainID,
				"error", err,
			)
			if res.closeFn != nil {
				res.closeFn()
			}
			continue
		}
		if res.closeFn != nil {
			r.closers = append(r.closers, res.closeFn)
		}
		logger.InfoContext(ctx, "ledger chain registered",
			"chain_id", res.ctx.ChainID,
			"contract", providers[i].ContractAddress,
		)
	}
	if len(r.ids) == 0 {
		return nil, fmt.Errorf("ledger bootstrap: all %d providers failed", len(providers))
	}
	return r, nil
}

func connect(ctx context.Context, p config.Provider, dial Dialer, callTimeout time.Duration) handshake {
	if !common.IsHexAddress(p.ContractAddress) {
		return handshake{err: fmt.Errorf("invalid contract address %q", p.ContractAddress)}
	}
	backend, closeFn, err := dial(ctx, p.RPCURL)
	if err != nil {
		return handshake{err: fmt.Errorf("dial: %w", err)}
	}
	fail := func(err error) handshake {
		if closeFn != nil {
			closeFn()
		}
		return handshake{err: err}
	}
	id, err := backend.ChainID(ctx)
	if err != nil {
		return fail(&CallError{Call: CallChainID, Err: err})
	}
	if !id.IsUint64() {
		return fail(fmt.Errorf("chain id %s overflows uint64", id))
	}
	client, err := NewEthClient(id.Uint64(), backend, common.HexToAddress(p.ContractAddress), callTimeout)
	if err != nil {
		return fail(err)
	}
	return handshake{
		ctx:     ChainContext{ChainID: id.Uint64(), Client: client},
		closeFn: closeFn,
	}
}
