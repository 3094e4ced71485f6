package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"sdi-resolver/internal/did"
	"sdi-resolver/internal/ledger"
	dErrors "sdi-resolver/pkg/domain-errors"
	"sdi-resolver/pkg/platform/audit"
	"sdi-resolver/pkg/requestcontext"
)

// Query is one inbound resolution request. ChainID wins over Network when
// both are set; with neither the default chain is used.
type Query struct {
	DID     string
	ChainID *uint64
	Network string
	Date    *time.Time
	Tag     string
}

// Status reports the registered chains and the ledger call counters.
type Status struct {
	ActiveChainIDs []uint64           `json:"activeChainIds"`
	Diagnostics    []DiagnosticsEntry `json:"diagnostics"`
}

// Lookup resolves q and returns the document, or only the fragment named by
// q.Tag. Failures carry a domain error code.
func (s *Service) Lookup(ctx context.Context, q Query) (json.RawMessage, error) {
	start := time.Now()
	event := audit.ResolutionEvent{
		DID:        q.DID,
		Historical: q.Date != nil,
		Tag:        q.Tag,
		RequestID:  requestcontext.RequestID(ctx),
		Timestamp:  requestcontext.Now(ctx),
	}

	body, res, err := s.lookup(ctx, q, &event)
	event.Duration = time.Since(start)
	if err != nil {
		err = toDomainError(err)
		event.Outcome = outcomeOf(err)
	} else {
		event.Outcome = audit.OutcomeResolved
		event.CacheHit = res.CacheHit
		event.LastBlockNumber = res.LastBlockNumber
	}

	s.metrics.IncrementOutcome(event.ChainID, string(event.Outcome))
	s.metrics.ObserveResolveLatency(event.Historical, event.Duration)
	if auditErr := s.auditor.Emit(ctx, event); auditErr != nil {
		s.logger.WarnContext(ctx, "resolution audit failed",
			"request_id", event.RequestID,
			"did", event.DID,
			"error", auditErr,
		)
	}
	return body, err
}

func (s *Service) lookup(ctx context.Context, q Query, event *audit.ResolutionEvent) (json.RawMessage, *Resolution, error) {
	id, err := did.Parse(q.DID)
	if err != nil {
		return nil, nil, err
	}
	event.DID = id.String()

	chainID, err := s.chainFor(q)
	if err != nil {
		return nil, nil, err
	}
	event.ChainID = chainID

	res, err := s.Resolve(ctx, id.Address(), id.String(), chainID, q.Date)
	if err != nil {
		return nil, nil, err
	}
	if q.Tag == "" {
		return res.Document, res, nil
	}

	var doc did.Document
	if err := json.Unmarshal(res.Document, &doc); err != nil {
		return nil, nil, fmt.Errorf("decode did document: %w", err)
	}
	fragment, _ := doc.Fragment(q.Tag)
	body, err := json.Marshal(fragment)
	if err != nil {
		return nil, nil, fmt.Errorf("encode fragment: %w", err)
	}
	return body, res, nil
}

func (s *Service) chainFor(q Query) (uint64, error) {
	if q.ChainID != nil {
		return *q.ChainID, nil
	}
	if q.Network != "" {
		chainID, ok := s.networks[strings.ToLower(q.Network)]
		if !ok {
			return 0, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown network %q", q.Network))
		}
		return chainID, nil
	}
	return s.defaultChainID, nil
}

// Status returns the active chains and a snapshot of the call counters.
func (s *Service) Status() Status {
	return Status{
		ActiveChainIDs: s.chains.ActiveChainIDs(),
		Diagnostics:    s.diagnostics.Snapshot(),
	}
}

func toDomainError(err error) error {
	var (
		coded       *dErrors.Error
		unsupported *ledger.UnsupportedChainError
		malformed   *did.MalformedIdentifierError
		callErr     *ledger.CallError
	)
	switch {
	case errors.As(err, &coded):
		return err
	case errors.As(err, &unsupported):
		return dErrors.Wrap(err, dErrors.CodeUnsupportedChain, unsupported.Error())
	case errors.As(err, &malformed):
		return dErrors.Wrap(err, dErrors.CodeInvalidIdentifier, malformed.Error())
	case errors.As(err, &callErr) && errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "ledger call timed out")
	case errors.As(err, &callErr), errors.Is(err, ledger.ErrInconsistentHistory):
		return dErrors.Wrap(err, dErrors.CodeLedgerUnavailable, "ledger read failed")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "resolution failed")
	}
}

func outcomeOf(err error) audit.Outcome {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeUnsupportedChain:
		return audit.OutcomeUnsupportedChain
	case dErrors.CodeInvalidIdentifier:
		return audit.OutcomeInvalidDID
	case dErrors.CodeBadRequest:
		return audit.OutcomeBadRequest
	case dErrors.CodeLedgerUnavailable, dErrors.CodeTimeout:
		return audit.OutcomeLedgerError
	default:
		return audit.OutcomeInternalError
	}
}
