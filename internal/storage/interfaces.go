package storage

import (
	"context"

	"token-badge-registry/internal/domain"
)

// BadgeStore provides access to badges storage.
//
// Uniqueness of (config, mint) is enforced here, not by the on-chain record:
// the table carries a unique constraint on the pair, mirroring the at-most-one
// live badge guarantee the PDA derivation gives on chain.
type BadgeStore interface {
	// Insert adds a new badge row. Returns ErrDuplicateKey if the address
	// or the (config, mint) pair already exists.
	Insert(ctx context.Context, b *domain.Badge) error

	// GetByAddress retrieves a badge by its PDA. Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, address string) (*domain.Badge, error)

	// GetByConfigAndMint retrieves the badge for a (config, mint) pair.
	// Returns ErrNotFound if not exists.
	GetByConfigAndMint(ctx context.Context, config, mint string) (*domain.Badge, error)

	// ListByConfig retrieves all badges under a configuration scope,
	// ordered by mint ASC.
	ListByConfig(ctx context.Context, config string) ([]*domain.Badge, error)

	// ListByMint retrieves all badges certifying a mint, ordered by config ASC.
	ListByMint(ctx context.Context, mint string) ([]*domain.Badge, error)

	// ListAll retrieves every badge row, ordered by address ASC.
	ListAll(ctx context.Context) ([]*domain.Badge, error)

	// Delete removes a badge row, mirroring on-chain account closure.
	// Returns ErrNotFound if the row does not exist.
	Delete(ctx context.Context, address string) error
}

// BadgeEventStore provides access to badge_events storage (append-only).
type BadgeEventStore interface {
	// Insert adds a single lifecycle event.
	Insert(ctx context.Context, e *domain.BadgeEvent) error

	// InsertBulk adds multiple events in one batch.
	InsertBulk(ctx context.Context, events []*domain.BadgeEvent) error

	// GetByAddress retrieves all events for a badge address, ordered by timestamp ASC.
	GetByAddress(ctx context.Context, address string) ([]*domain.BadgeEvent, error)

	// GetByTimeRange retrieves events within [start, end] (inclusive, ms),
	// ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.BadgeEvent, error)
}
