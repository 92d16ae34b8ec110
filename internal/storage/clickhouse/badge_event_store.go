package clickhouse

import (
	"context"
	"fmt"

	"token-badge-registry/internal/domain"
	"token-badge-registry/internal/storage"
)

// BadgeEventStore implements storage.BadgeEventStore using ClickHouse.
// The table is an append-only MergeTree; duplicates are not rejected, the
// history records every observation.
type BadgeEventStore struct {
	conn *Conn
}

// NewBadgeEventStore creates a new BadgeEventStore.
func NewBadgeEventStore(conn *Conn) *BadgeEventStore {
	return &BadgeEventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BadgeEventStore = (*BadgeEventStore)(nil)

// Insert adds a single lifecycle event.
func (s *BadgeEventStore) Insert(ctx context.Context, e *domain.BadgeEvent) error {
	if e == nil {
		return storage.ErrInvalidInput
	}
	return s.InsertBulk(ctx, []*domain.BadgeEvent{e})
}

// InsertBulk adds multiple events in one batch.
func (s *BadgeEventStore) InsertBulk(ctx context.Context, events []*domain.BadgeEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO badge_events (
			address, config, mint, event_type, slot, timestamp_ms
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range events {
		err = batch.Append(
			e.Address, e.Config, e.Mint,
			string(e.EventType), uint64(e.Slot), uint64(e.TimestampMs),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByAddress retrieves all events for a badge address, ordered by timestamp ASC.
func (s *BadgeEventStore) GetByAddress(ctx context.Context, address string) ([]*domain.BadgeEvent, error) {
	query := `
		SELECT address, config, mint, event_type, slot, timestamp_ms
		FROM badge_events
		WHERE address = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("query by address: %w", err)
	}
	defer rows.Close()

	return scanBadgeEvents(rows)
}

// GetByTimeRange retrieves events within [start, end] (inclusive).
func (s *BadgeEventStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.BadgeEvent, error) {
	query := `
		SELECT address, config, mint, event_type, slot, timestamp_ms
		FROM badge_events
		WHERE timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanBadgeEvents(rows)
}

// scanBadgeEvents scans multiple rows.
func scanBadgeEvents(rows chRows) ([]*domain.BadgeEvent, error) {
	var events []*domain.BadgeEvent

	for rows.Next() {
		var e domain.BadgeEvent
		var eventType string
		var slot, timestampMs uint64

		err := rows.Scan(
			&e.Address, &e.Config, &e.Mint,
			&eventType, &slot, &timestampMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan badge event row: %w", err)
		}

		e.EventType = domain.BadgeEventType(eventType)
		e.Slot = int64(slot)
		e.TimestampMs = int64(timestampMs)
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate badge event rows: %w", err)
	}

	return events, nil
}
