package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"token-badge-registry/internal/domain"
	"token-badge-registry/internal/storage"
)

// BadgeStore implements storage.BadgeStore using PostgreSQL.
type BadgeStore struct {
	pool *Pool
}

// NewBadgeStore creates a new BadgeStore.
func NewBadgeStore(pool *Pool) *BadgeStore {
	return &BadgeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BadgeStore = (*BadgeStore)(nil)

const badgeColumns = "address, config, mint, bump, slot, observed_at, created_at"

// Insert adds a new badge row. Returns ErrDuplicateKey if the address or the
// (config, mint) pair already exists.
func (s *BadgeStore) Insert(ctx context.Context, b *domain.Badge) error {
	query := `
		INSERT INTO badges (
			address, config, mint, bump, slot, observed_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		b.Address,
		b.Config,
		b.Mint,
		int16(b.Bump),
		b.Slot,
		b.ObservedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert badge: %w", err)
	}
	return nil
}

// GetByAddress retrieves a badge by its PDA. Returns ErrNotFound if not exists.
func (s *BadgeStore) GetByAddress(ctx context.Context, address string) (*domain.Badge, error) {
	query := `
		SELECT ` + badgeColumns + `
		FROM badges
		WHERE address = $1
	`

	row := s.pool.QueryRow(ctx, query, address)
	b, err := scanBadge(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get badge by address: %w", err)
	}
	return b, nil
}

// GetByConfigAndMint retrieves the badge for a (config, mint) pair.
func (s *BadgeStore) GetByConfigAndMint(ctx context.Context, config, mint string) (*domain.Badge, error) {
	query := `
		SELECT ` + badgeColumns + `
		FROM badges
		WHERE config = $1 AND mint = $2
	`

	row := s.pool.QueryRow(ctx, query, config, mint)
	b, err := scanBadge(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get badge by config and mint: %w", err)
	}
	return b, nil
}

// ListByConfig retrieves all badges under a configuration scope.
func (s *BadgeStore) ListByConfig(ctx context.Context, config string) ([]*domain.Badge, error) {
	query := `
		SELECT ` + badgeColumns + `
		FROM badges
		WHERE config = $1
		ORDER BY mint ASC
	`

	rows, err := s.pool.Query(ctx, query, config)
	if err != nil {
		return nil, fmt.Errorf("list badges by config: %w", err)
	}
	defer rows.Close()

	return scanBadges(rows)
}

// ListByMint retrieves all badges certifying a mint.
func (s *BadgeStore) ListByMint(ctx context.Context, mint string) ([]*domain.Badge, error) {
	query := `
		SELECT ` + badgeColumns + `
		FROM badges
		WHERE mint = $1
		ORDER BY config ASC
	`

	rows, err := s.pool.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("list badges by mint: %w", err)
	}
	defer rows.Close()

	return scanBadges(rows)
}

// ListAll retrieves every badge row.
func (s *BadgeStore) ListAll(ctx context.Context) ([]*domain.Badge, error) {
	query := `
		SELECT ` + badgeColumns + `
		FROM badges
		ORDER BY address ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all badges: %w", err)
	}
	defer rows.Close()

	return scanBadges(rows)
}

// Delete removes a badge row. Returns ErrNotFound if the row does not exist.
func (s *BadgeStore) Delete(ctx context.Context, address string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM badges WHERE address = $1`, address)
	if err != nil {
		return fmt.Errorf("delete badge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanBadge scans a single row into a Badge.
func scanBadge(row pgx.Row) (*domain.Badge, error) {
	var b domain.Badge
	var bump int16

	err := row.Scan(
		&b.Address,
		&b.Config,
		&b.Mint,
		&bump,
		&b.Slot,
		&b.ObservedAt,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Bump = uint8(bump)
	return &b, nil
}

// scanBadges scans multiple rows into a slice of Badge.
func scanBadges(rows pgx.Rows) ([]*domain.Badge, error) {
	var badges []*domain.Badge

	for rows.Next() {
		var b domain.Badge
		var bump int16

		err := rows.Scan(
			&b.Address,
			&b.Config,
			&b.Mint,
			&bump,
			&b.Slot,
			&b.ObservedAt,
			&b.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan badge row: %w", err)
		}

		b.Bump = uint8(bump)
		badges = append(badges, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate badge rows: %w", err)
	}

	return badges, nil
}
