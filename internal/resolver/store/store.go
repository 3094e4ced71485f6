// Package store persists the latest resolved document per (DID, chain)
// together with the change block it was derived from.
package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"sdi-resolver/pkg/platform/sentinel"
)

// ErrNotFound is returned when no active entry exists for a key.
var ErrNotFound = sentinel.ErrNotFound

// Key identifies one cache entry.
type Key struct {
	DID     string
	ChainID uint64
}

func (k Key) String() string {
	return strconv.FormatUint(k.ChainID, 10) + ":" + k.DID
}

// Entry is the cached document. Document holds the serialized JSON exactly as
// it is returned to callers.
type Entry struct {
	DID             string          `json:"did"`
	ChainID         uint64          `json:"chainId"`
	Document        json.RawMessage `json:"didDocument"`
	LastBlockNumber uint64          `json:"lastBlockNumber"`
	Active          bool            `json:"active"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (e *Entry) Key() Key {
	return Key{DID: e.DID, ChainID: e.ChainID}
}

// Store is the cache surface the resolver needs. Find returns ErrNotFound
// on a miss; Upsert replaces the active entry for the entry's key.
type Store interface {
	Find(ctx context.Context, key Key) (*Entry, error)
	Upsert(ctx context.Context, entry *Entry) error
}
