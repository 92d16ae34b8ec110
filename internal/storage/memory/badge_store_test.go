package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-badge-registry/internal/domain"
	"token-badge-registry/internal/storage"
)

func sampleBadge(address, config, mint string) *domain.Badge {
	return &domain.Badge{
		Address:    address,
		Config:     config,
		Mint:       mint,
		Bump:       254,
		Slot:       1000,
		ObservedAt: 1700000000000,
	}
}

func TestBadgeStoreInsertAndGet(t *testing.T) {
	store := NewBadgeStore()
	ctx := context.Background()

	badge := sampleBadge("addr1", "cfg1", "mint1")
	require.NoError(t, store.Insert(ctx, badge))

	got, err := store.GetByAddress(ctx, "addr1")
	require.NoError(t, err)
	assert.Equal(t, badge, got)

	got, err = store.GetByConfigAndMint(ctx, "cfg1", "mint1")
	require.NoError(t, err)
	assert.Equal(t, "addr1", got.Address)
}

func TestBadgeStoreInsertDuplicateAddress(t *testing.T) {
	store := NewBadgeStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, sampleBadge("addr1", "cfg1", "mint1")))

	err := store.Insert(ctx, sampleBadge("addr1", "cfg2", "mint2"))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestBadgeStoreInsertDuplicatePair(t *testing.T) {
	store := NewBadgeStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, sampleBadge("addr1", "cfg1", "mint1")))

	// Same (config, mint) under a different address must be rejected: the
	// derivation is deterministic, so one pair maps to one address.
	err := store.Insert(ctx, sampleBadge("addr2", "cfg1", "mint1"))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestBadgeStoreInsertInvalidInput(t *testing.T) {
	store := NewBadgeStore()
	ctx := context.Background()

	assert.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, sampleBadge("", "cfg1", "mint1")), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, sampleBadge("addr1", "", "mint1")), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, sampleBadge("addr1", "cfg1", "")), storage.ErrInvalidInput)
}

func TestBadgeStoreGetNotFound(t *testing.T) {
	store := NewBadgeStore()
	ctx := context.Background()

	_, err := store.GetByAddress(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.GetByConfigAndMint(ctx, "cfg1", "mint1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBadgeStoreListByConfig(t *testing.T) {
	store := NewBadgeStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, sampleBadge("addr1", "cfg1", "mintB")))
	require.NoError(t, store.Insert(ctx, sampleBadge("addr2", "cfg1", "mintA")))
	require.NoError(t, store.Insert(ctx, sampleBadge("addr3", "cfg2", "mintC")))

	badges, err := store.ListByConfig(ctx, "cfg1")
	require.NoError(t, err)
	require.Len(t, badges, 2)
	assert.Equal(t, "mintA", badges[0].Mint)
	assert.Equal(t, "mintB", badges[1].Mint)
}

func TestBadgeStoreListByMint(t *testing.T) {
	store := NewBadgeStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, sampleBadge("addr1", "cfgB", "mint1")))
	require.NoError(t, store.Insert(ctx, sampleBadge("addr2", "cfgA", "mint1")))
	require.NoError(t, store.Insert(ctx, sampleBadge("addr3", "cfgC", "mint2")))

	badges, err := store.ListByMint(ctx, "mint1")
	require.NoError(t, err)
	require.Len(t, badges, 2)
	assert.Equal(t, "cfgA", badges[0].Config)
	assert.Equal(t, "cfgB", badges[1].Config)
}

func TestBadgeStoreListAll(t *testing.T) {
	store := NewBadgeStore()
	ctx := context.Background()

	badges, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, badges)

	require.NoError(t, store.Insert(ctx, sampleBadge("addrB", "cfg1", "mint1")))
	require.NoError(t, store.Insert(ctx, sampleBadge("addrA", "cfg2", "mint2")))

	badges, err = store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, badges, 2)
	assert.Equal(t, "addrA", badges[0].Address)
	assert.Equal(t, "addrB", badges[1].Address)
}

func TestBadgeStoreDelete(t *testing.T) {
	store := NewBadgeStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, sampleBadge("addr1", "cfg1", "mint1")))
	require.NoError(t, store.Delete(ctx, "addr1"))

	_, err := store.GetByAddress(ctx, "addr1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, "addr1"), storage.ErrNotFound)

	// The pair is registrable again after deletion.
	require.NoError(t, store.Insert(ctx, sampleBadge("addr1", "cfg1", "mint1")))
}

func TestBadgeStoreCopiesOnReadAndWrite(t *testing.T) {
	store := NewBadgeStore()
	ctx := context.Background()

	badge := sampleBadge("addr1", "cfg1", "mint1")
	require.NoError(t, store.Insert(ctx, badge))

	badge.Slot = 9999
	got, err := store.GetByAddress(ctx, "addr1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got.Slot, "store must copy on insert")

	got.Slot = 8888
	again, err := store.GetByAddress(ctx, "addr1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), again.Slot, "store must copy on read")
}
