package resolver

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"

	"sdi-resolver/internal/ledger"
)

// ChangeEvent is one attribute change as the builder consumes it. Expired
// events keep their name so the category ordinal is still consumed.
type ChangeEvent struct {
	Name    string
	Value   []byte
	Expired bool
	Block   uint64
}

type revocationKey struct {
	name  string
	value string
}

// Walker follows the previousChange chain of an identity from its latest
// change block back to block 0.
type Walker struct {
	now func() time.Time
}

// NewWalker returns a walker judging expiry against now. A nil clock uses
// the wall clock.
func NewWalker(now func() time.Time) *Walker {
	if now == nil {
		now = time.Now
	}
	return &Walker{now: now}
}

// Walk visits every change block of identity starting at head and returns the
// surviving events oldest first. With a non-nil cutoff, events from blocks
// mined after it are dropped; the walk itself still runs to block 0.
func (w *Walker) Walk(ctx context.Context, client ledger.Client, identity common.Address, head uint64, cutoff *time.Time) ([]ChangeEvent, error) {
	ctx, span := tracer.Start(ctx, "resolver.walk")
	defer span.End()

	now := w.now()
	revoked := make(map[revocationKey]struct{})
	var (
		collected []ChangeEvent
		visited   int
	)
	for pointer := head; pointer != 0; {
		visited++
		changes, err := client.AttributeChanges(ctx, pointer)
		if err != nil {
			return nil, err
		}
		matching := slices.DeleteFunc(changes, func(c ledger.AttributeChange) bool {
			return c.Identity != identity
		})
		if len(matching) == 0 {
			return nil, fmt.Errorf("%w: block %d holds no change for %s", ledger.ErrInconsistentHistory, pointer, identity.Hex())
		}
		next := matching[0].PreviousChange
		if next >= pointer {
			return nil, fmt.Errorf("%w: block %d points forward to %d", ledger.ErrInconsistentHistory, pointer, next)
		}

		if cutoff != nil {
			minedAt, err := client.BlockTimestamp(ctx, pointer)
			if err != nil {
				return nil, err
			}
			if minedAt.After(*cutoff) {
				pointer = next
				continue
			}
		}

		for _, change := range matching {
			key := revocationKey{name: change.Name, value: string(change.Value)}
			event := ChangeEvent{Name: change.Name, Value: change.Value, Block: pointer}
			switch {
			case change.Revoked():
				revoked[key] = struct{}{}
				continue
			case expiredAt(now, change.ValidTo):
				event.Expired = true
			default:
				if _, ok := revoked[key]; ok {
					event.Expired = true
				}
			}
			collected = append(collected, event)
		}
		pointer = next
	}

	slices.Reverse(collected)
	span.SetAttributes(
		attribute.Int("resolver.blocks_visited", visited),
		attribute.Int("resolver.events", len(collected)),
	)
	return collected, nil
}

// expiredAt compares in unsigned seconds so saturated expiries never wrap.
func expiredAt(now time.Time, validTo uint64) bool {
	secs := now.Unix()
	if secs < 0 {
		return false
	}
	return uint64(secs) > validTo
}
