// Package audit publishes one record per completed DID resolution.
package audit

import (
	"context"
	"time"
)

// Outcome classifies how a resolution ended.
type Outcome string

const (
	OutcomeResolved         Outcome = "resolved"
	OutcomeUnsupportedChain Outcome = "unsupported_chain"
	OutcomeInvalidDID       Outcome = "invalid_identifier"
	OutcomeBadRequest       Outcome = "bad_request"
	OutcomeLedgerError      Outcome = "ledger_error"
	OutcomeInternalError    Outcome = "internal_error"
)

// ResolutionEvent is transport-agnostic; the Kafka publisher serializes it as JSON.
type ResolutionEvent struct {
	DID             string        `json:"did"`
	ChainID         uint64        `json:"chainId,omitempty"`
	Historical      bool          `json:"historical"`
	Tag             string        `json:"tag,omitempty"`
	CacheHit        bool          `json:"cacheHit"`
	LastBlockNumber uint64        `json:"lastBlockNumber,omitempty"`
	Duration        time.Duration `json:"durationNs"`
	Outcome         Outcome       `json:"outcome"`
	RequestID       string        `json:"requestId,omitempty"`
	Timestamp       time.Time     `json:"timestamp"`
}

// Publisher emits resolution events. Implementations must not block the
// resolution on broker availability.
type Publisher interface {
	Emit(ctx context.Context, event ResolutionEvent) error
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Emit(context.Context, ResolutionEvent) error { return nil }
