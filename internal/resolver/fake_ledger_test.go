package resolver_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"sdi-resolver/internal/ledger"
)

// fakeLedger is an in-memory registry contract. Changes must be appended in
// increasing block order per identity; previousChange is linked automatically.
type fakeLedger struct {
	mu      sync.Mutex
	chainID uint64
	records map[common.Address]ledger.IdentityRecord
	heads   map[common.Address]uint64
	blocks  map[uint64][]ledger.AttributeChange
	times   map[uint64]time.Time
	roles   map[[32]byte]map[common.Address]bool
	calls   map[ledger.CallKind]int
	failOn  map[ledger.CallKind]error
}

func newFakeLedger(chainID uint64) *fakeLedger {
	return &fakeLedger{
		chainID: chainID,
		records: map[common.Address]ledger.IdentityRecord{},
		heads:   map[common.Address]uint64{},
		blocks:  map[uint64][]ledger.AttributeChange{},
		times:   map[uint64]time.Time{},
		roles:   map[[32]byte]map[common.Address]bool{},
		calls:   map[ledger.CallKind]int{},
		failOn:  map[ledger.CallKind]error{},
	}
}

func (f *fakeLedger) setRecord(identity common.Address, rec ledger.IdentityRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[identity] = rec
}

func (f *fakeLedger) grant(role [32]byte, account common.Address) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.roles[role] == nil {
		f.roles[role] = map[common.Address]bool{}
	}
	f.roles[role][account] = true
}

// change appends one attribute change mined at block and minedAt.
func (f *fakeLedger) change(identity common.Address, block uint64, minedAt time.Time, name string, value []byte, validTo uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocks[block] = append(f.blocks[block], ledger.AttributeChange{
		Identity:       identity,
		Name:           name,
		Value:          value,
		ValidTo:        validTo,
		PreviousChange: f.heads[identity],
		BlockNumber:    block,
	})
	f.heads[identity] = block
	f.times[block] = minedAt
}

func (f *fakeLedger) fail(kind ledger.CallKind, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn[kind] = err
}

func (f *fakeLedger) count(kind ledger.CallKind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[kind]
}

func (f *fakeLedger) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeLedger) enter(kind ledger.CallKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[kind]++
	if err := f.failOn[kind]; err != nil {
		return &ledger.CallError{ChainID: f.chainID, Call: kind, Err: err}
	}
	return nil
}

func (f *fakeLedger) GetDID(_ context.Context, identity common.Address) (ledger.IdentityRecord, error) {
	if err := f.enter(ledger.CallGetDID); err != nil {
		return ledger.IdentityRecord{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[identity]
	if !ok {
		rec = ledger.IdentityRecord{Controller: identity}
	}
	return rec, nil
}

func (f *fakeLedger) ChangedDIDDocuments(_ context.Context, identity common.Address) (uint64, error) {
	if err := f.enter(ledger.CallChangedDIDDocuments); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.heads[identity], nil
}

func (f *fakeLedger) HasRole(_ context.Context, role [32]byte, account common.Address) (bool, error) {
	if err := f.enter(ledger.CallHasRole); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.roles[role][account], nil
}

func (f *fakeLedger) AttributeChanges(_ context.Context, block uint64) ([]ledger.AttributeChange, error) {
	if err := f.enter(ledger.CallGetPastEvents); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ledger.AttributeChange, len(f.blocks[block]))
	copy(out, f.blocks[block])
	return out, nil
}

func (f *fakeLedger) BlockTimestamp(_ context.Context, block uint64) (time.Time, error) {
	if err := f.enter(ledger.CallGetBlockTimestamp); err != nil {
		return time.Time{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ts, ok := f.times[block]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown block %d", block)
	}
	return ts, nil
}
