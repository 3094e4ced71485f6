package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sdi-resolver/pkg/requestcontext"
)

// Schema creates the entries table. Only one row per (did, chain_id) may be
// active; superseded rows can be kept inactive for auditing.
const Schema = `
CREATE TABLE IF NOT EXISTS did_entries (
	id                BIGSERIAL PRIMARY KEY,
	did               TEXT        NOT NULL,
	chain_id          BIGINT      NOT NULL,
	did_document      TEXT        NOT NULL,
	last_block_number BIGINT      NOT NULL,
	active            BOOLEAN     NOT NULL DEFAULT TRUE,
	created_at        TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS did_entries_active_key
	ON did_entries (did, chain_id) WHERE active;
`

const (
	findEntrySQL = `
SELECT did, chain_id, did_document, last_block_number, active, created_at, updated_at
FROM did_entries
WHERE did = $1 AND chain_id = $2 AND active`

	upsertEntrySQL = `
INSERT INTO did_entries (did, chain_id, did_document, last_block_number, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, TRUE, $5, $5)
ON CONFLICT (did, chain_id) WHERE active DO UPDATE SET
	did_document      = EXCLUDED.did_document,
	last_block_number = EXCLUDED.last_block_number,
	updated_at        = EXCLUDED.updated_at`
)

// PostgresStore persists entries in PostgreSQL through pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// NewPostgresStore wraps pool. A zero TTL never expires entries.
func NewPostgresStore(pool *pgxpool.Pool, ttl time.Duration) *PostgresStore {
	return &PostgresStore{pool: pool, ttl: ttl}
}

// EnsureSchema applies Schema idempotently.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure did_entries schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, key Key) (*Entry, error) {
	var (
		entry     Entry
		chainID   int64
		lastBlock int64
		document  string
	)
	err := s.pool.QueryRow(ctx, findEntrySQL, key.DID, int64(key.ChainID)).Scan(
		&entry.DID, &chainID, &document, &lastBlock, &entry.Active, &entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find did entry: %w", err)
	}
	if s.ttl > 0 && requestcontext.Now(ctx).Sub(entry.UpdatedAt) >= s.ttl {
		return nil, ErrNotFound
	}
	entry.ChainID = uint64(chainID)
	entry.LastBlockNumber = uint64(lastBlock)
	entry.Document = []byte(document)
	return &entry, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return errors.New("entry is required")
	}
	_, err := s.pool.Exec(ctx, upsertEntrySQL,
		entry.DID,
		int64(entry.ChainID),
		string(entry.Document),
		int64(entry.LastBlockNumber),
		requestcontext.Now(ctx).UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert did entry: %w", err)
	}
	return nil
}
