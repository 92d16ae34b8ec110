package memory

import (
	"context"
	"sort"
	"sync"

	"token-badge-registry/internal/domain"
	"token-badge-registry/internal/storage"
)

// BadgeEventStore is an in-memory implementation of storage.BadgeEventStore.
type BadgeEventStore struct {
	mu     sync.RWMutex
	events []*domain.BadgeEvent
}

// NewBadgeEventStore creates a new in-memory badge event store.
func NewBadgeEventStore() *BadgeEventStore {
	return &BadgeEventStore{}
}

// Verify interface compliance at compile time.
var _ storage.BadgeEventStore = (*BadgeEventStore)(nil)

// Insert adds a single lifecycle event.
func (s *BadgeEventStore) Insert(_ context.Context, e *domain.BadgeEvent) error {
	if e == nil || e.Address == "" || e.EventType == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	eventCopy := *e
	s.events = append(s.events, &eventCopy)
	return nil
}

// InsertBulk adds multiple events.
func (s *BadgeEventStore) InsertBulk(_ context.Context, events []*domain.BadgeEvent) error {
	for _, e := range events {
		if e == nil || e.Address == "" || e.EventType == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range events {
		eventCopy := *e
		s.events = append(s.events, &eventCopy)
	}
	return nil
}

// GetByAddress retrieves all events for a badge address, ordered by timestamp ASC.
func (s *BadgeEventStore) GetByAddress(_ context.Context, address string) ([]*domain.BadgeEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BadgeEvent
	for _, e := range s.events {
		if e.Address == address {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}

// GetByTimeRange retrieves events within [start, end] (inclusive).
func (s *BadgeEventStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.BadgeEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BadgeEvent
	for _, e := range s.events {
		if e.TimestampMs >= start && e.TimestampMs <= end {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}
