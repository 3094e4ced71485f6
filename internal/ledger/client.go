// Package ledger is the typed read surface over the on-chain identity registry:
// one Client per configured network, held in an immutable Registry.
package ledger

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

//go:generate mockgen -source=client.go -destination=mocks/client_mock.go -package=mocks Client

// CallKind names one kind of ledger read, used for diagnostics and errors.
type CallKind string

const (
	CallGetDID              CallKind = "getDID"
	CallChangedDIDDocuments CallKind = "changedDidDocuments"
	CallHasRole             CallKind = "hasRole"
	CallGetPastEvents       CallKind = "getPastEvents"
	CallGetBlockTimestamp   CallKind = "getBlockTimestamp"
	CallChainID             CallKind = "chainId"
)

// IdentityRecord is the base identity record returned by getDID.
type IdentityRecord struct {
	Controller        common.Address
	ServiceHash       [32]byte
	AuthenticationKey []byte
}

// HasServiceHash reports whether the record carries a non-zero service hash.
func (r IdentityRecord) HasServiceHash() bool {
	return r.ServiceHash != [32]byte{}
}

// AttributeChange is one DIDAttributeChanged log entry.
type AttributeChange struct {
	Identity       common.Address
	Name           string
	Value          []byte
	ValidTo        uint64
	PreviousChange uint64
	BlockNumber    uint64
}

// Revoked reports the validTo == 0 sentinel.
func (c AttributeChange) Revoked() bool {
	return c.ValidTo == 0
}

// Client issues the registry reads for one chain.
type Client interface {
	GetDID(ctx context.Context, identity common.Address) (IdentityRecord, error)
	// ChangedDIDDocuments returns the block of the latest attribute change, 0 if none.
	ChangedDIDDocuments(ctx context.Context, identity common.Address) (uint64, error)
	HasRole(ctx context.Context, role [32]byte, account common.Address) (bool, error)
	// AttributeChanges returns every DIDAttributeChanged event in exactly that block.
	AttributeChanges(ctx context.Context, block uint64) ([]AttributeChange, error)
	BlockTimestamp(ctx context.Context, block uint64) (time.Time, error)
}
