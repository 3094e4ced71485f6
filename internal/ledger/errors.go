package ledger

import (
	"errors"
	"fmt"
)

// UnsupportedChainError is returned for a chain id that was never registered.
type UnsupportedChainError struct {
	ChainID uint64
}

func (e *UnsupportedChainError) Error() string {
	return fmt.Sprintf("chain %d is not supported", e.ChainID)
}

// CallError wraps any RPC or node failure. Resolutions fail fast on it; no retry
// happens at this layer.
type CallError struct {
	ChainID uint64
	Call    CallKind
	Err     error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("ledger %d [%s]: %v", e.ChainID, e.Call, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// ErrInconsistentHistory reports an attribute-change chain that does not
// strictly decrease towards block 0. It is fatal, never retryable.
var ErrInconsistentHistory = errors.New("inconsistent attribute change history")

func wrapCall(chainID uint64, call CallKind, err error) error {
	if err == nil {
		return nil
	}
	return &CallError{ChainID: chainID, Call: call, Err: err}
}
