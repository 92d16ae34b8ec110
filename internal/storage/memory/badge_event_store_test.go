package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-badge-registry/internal/domain"
	"token-badge-registry/internal/storage"
)

func sampleEvent(address string, eventType domain.BadgeEventType, ts int64) *domain.BadgeEvent {
	return &domain.BadgeEvent{
		Address:     address,
		Config:      "cfg1",
		Mint:        "mint1",
		EventType:   eventType,
		Slot:        1000,
		TimestampMs: ts,
	}
}

func TestBadgeEventStoreInsertAndGetByAddress(t *testing.T) {
	store := NewBadgeEventStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, sampleEvent("addr1", domain.BadgeClosed, 300)))
	require.NoError(t, store.Insert(ctx, sampleEvent("addr1", domain.BadgeInitialized, 100)))
	require.NoError(t, store.Insert(ctx, sampleEvent("addr2", domain.BadgeInitialized, 200)))

	events, err := store.GetByAddress(ctx, "addr1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.BadgeInitialized, events[0].EventType)
	assert.Equal(t, domain.BadgeClosed, events[1].EventType)
}

func TestBadgeEventStoreInsertInvalidInput(t *testing.T) {
	store := NewBadgeEventStore()
	ctx := context.Background()

	assert.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, sampleEvent("", domain.BadgeInitialized, 100)), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, sampleEvent("addr1", "", 100)), storage.ErrInvalidInput)
}

func TestBadgeEventStoreInsertBulk(t *testing.T) {
	store := NewBadgeEventStore()
	ctx := context.Background()

	events := []*domain.BadgeEvent{
		sampleEvent("addr1", domain.BadgeObserved, 100),
		sampleEvent("addr1", domain.BadgeClosed, 200),
	}
	require.NoError(t, store.InsertBulk(ctx, events))

	got, err := store.GetByAddress(ctx, "addr1")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestBadgeEventStoreInsertBulkAtomicValidation(t *testing.T) {
	store := NewBadgeEventStore()
	ctx := context.Background()

	events := []*domain.BadgeEvent{
		sampleEvent("addr1", domain.BadgeObserved, 100),
		sampleEvent("", domain.BadgeObserved, 200),
	}
	assert.ErrorIs(t, store.InsertBulk(ctx, events), storage.ErrInvalidInput)

	got, err := store.GetByAddress(ctx, "addr1")
	require.NoError(t, err)
	assert.Empty(t, got, "invalid batch must not be partially applied")
}

func TestBadgeEventStoreGetByTimeRange(t *testing.T) {
	store := NewBadgeEventStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, sampleEvent("addr1", domain.BadgeInitialized, 100)))
	require.NoError(t, store.Insert(ctx, sampleEvent("addr2", domain.BadgeObserved, 200)))
	require.NoError(t, store.Insert(ctx, sampleEvent("addr3", domain.BadgeClosed, 300)))

	events, err := store.GetByTimeRange(ctx, 100, 200)
	require.NoError(t, err)
	require.Len(t, events, 2, "range bounds are inclusive")
	assert.Equal(t, int64(100), events[0].TimestampMs)
	assert.Equal(t, int64(200), events[1].TimestampMs)

	events, err = store.GetByTimeRange(ctx, 400, 500)
	require.NoError(t, err)
	assert.Empty(t, events)
}
