package resolver

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"sdi-resolver/internal/ledger"
	"sdi-resolver/internal/resolver/metrics"
)

// DiagnosticsKey identifies one (DID, chain) pair.
type DiagnosticsKey struct {
	DID     string
	ChainID uint64
}

// DiagnosticsEntry is a read-only copy of one key's counters.
type DiagnosticsEntry struct {
	DID     string                     `json:"did"`
	ChainID uint64                     `json:"chainId"`
	Calls   map[ledger.CallKind]uint64 `json:"calls"`
}

// Diagnostics counts ledger calls per (DID, chain) for the life of the process.
// Counters are created on first use and never reset.
type Diagnostics struct {
	mu       sync.Mutex
	counters map[DiagnosticsKey]map[ledger.CallKind]uint64
	metrics  *metrics.Metrics
}

// NewDiagnostics creates an empty collection. m may be nil.
func NewDiagnostics(m *metrics.Metrics) *Diagnostics {
	return &Diagnostics{
		counters: make(map[DiagnosticsKey]map[ledger.CallKind]uint64),
		metrics:  m,
	}
}

// Record increments the counter of kind for key.
func (d *Diagnostics) Record(key DiagnosticsKey, kind ledger.CallKind) {
	d.mu.Lock()
	calls, ok := d.counters[key]
	if !ok {
		calls = make(map[ledger.CallKind]uint64)
		d.counters[key] = calls
	}
	calls[kind]++
	d.mu.Unlock()

	d.metrics.IncrementLedgerCall(key.ChainID, string(kind))
}

// Count returns one counter, 0 when never recorded.
func (d *Diagnostics) Count(key DiagnosticsKey, kind ledger.CallKind) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counters[key][kind]
}

// Snapshot copies every counter, ordered by DID then chain.
func (d *Diagnostics) Snapshot() []DiagnosticsEntry {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]DiagnosticsEntry, 0, len(d.counters))
	for key, calls := range d.counters {
		copied := make(map[ledger.CallKind]uint64, len(calls))
		for kind, n := range calls {
			copied[kind] = n
		}
		out = append(out, DiagnosticsEntry{DID: key.DID, ChainID: key.ChainID, Calls: copied})
	}
	slices.SortFunc(out, func(a, b DiagnosticsEntry) int {
		return cmp.Or(cmp.Compare(a.DID, b.DID), cmp.Compare(a.ChainID, b.ChainID))
	})
	return out
}

// Bind returns a client that records every call against key before
// delegating to next.
func (d *Diagnostics) Bind(key DiagnosticsKey, next ledger.Client) ledger.Client {
	return &countingClient{diag: d, key: key, next: next}
}

type countingClient struct {
	diag *Diagnostics
	key  DiagnosticsKey
	next ledger.Client
}

func (c *countingClient) GetDID(ctx context.Context, identity common.Address) (ledger.IdentityRecord, error) {
	c.diag.Record(c.key, ledger.CallGetDID)
	return c.next.GetDID(ctx, identity)
}

func (c *countingClient) ChangedDIDDocuments(ctx context.Context, identity common.Address) (uint64, error) {
	c.diag.Record(c.key, ledger.CallChangedDIDDocuments)
	return c.next.ChangedDIDDocuments(ctx, identity)
}

func (c *countingClient) HasRole(ctx context.Context, role [32]byte, account common.Address) (bool, error) {
	c.diag.Record(c.key, ledger.CallHasRole)
	return c.next.HasRole(ctx, role, account)
}

func (c *countingClient) AttributeChanges(ctx context.Context, block uint64) ([]ledger.AttributeChange, error) {
	c.diag.Record(c.key, ledger.CallGetPastEvents)
	return c.next.AttributeChanges(ctx, block)
}

func (c *countingClient) BlockTimestamp(ctx context.Context, block uint64) (time.Time, error) {
	c.diag.Record(c.key, ledger.CallGetBlockTimestamp)
	return c.next.BlockTimestamp(ctx, block)
}
