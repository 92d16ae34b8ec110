package registry

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-badge-registry/internal/domain"
	"token-badge-registry/internal/pda"
	"token-badge-registry/internal/solana"
	"token-badge-registry/internal/solana/stub"
	"token-badge-registry/internal/state"
	"token-badge-registry/internal/storage"
	"token-badge-registry/internal/storage/memory"
)

func pubkeyFill(b byte) domain.Pubkey {
	var p domain.Pubkey
	for i := range p {
		p[i] = b
	}
	return p
}

var testProgramID = pubkeyFill(0x77)

const testNowMs = int64(1700000000000)

func newTestRegistry(t *testing.T) (*Registry, *memory.BadgeStore, *memory.BadgeEventStore, *stub.RPCClient) {
	t.Helper()
	badges := memory.NewBadgeStore()
	events := memory.NewBadgeEventStore()
	rpc := stub.NewRPCClient()
	rpc.Slot = 5000

	reg := New(Options{
		BadgeStore: badges,
		EventStore: events,
		RPC:        rpc,
		ProgramID:  testProgramID,
		Now:        func() int64 { return testNowMs },
	})
	return reg, badges, events, rpc
}

// badgeAccountData builds serialized account bytes for a (config, mint) badge.
func badgeAccountData(t *testing.T, config, mint domain.Pubkey) string {
	t.Helper()
	data, err := state.NewTokenBadge(config, mint).MarshalBinary()
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(data)
}

func TestRegisterAndGet(t *testing.T) {
	reg, _, events, _ := newTestRegistry(t)
	ctx := context.Background()

	config := pubkeyFill(0x01)
	mint := pubkeyFill(0x02)

	badge, err := reg.Register(ctx, config, mint)
	require.NoError(t, err)

	wantAddr, wantBump, err := pda.DeriveTokenBadgeAddress(testProgramID, config, mint)
	require.NoError(t, err)
	assert.Equal(t, wantAddr.String(), badge.Address)
	assert.Equal(t, wantBump, badge.Bump)
	assert.Equal(t, int64(5000), badge.Slot)
	assert.Equal(t, testNowMs, badge.ObservedAt)

	got, err := reg.Get(ctx, config, mint)
	require.NoError(t, err)
	assert.Equal(t, badge.Address, got.Address)

	history, err := events.GetByAddress(ctx, badge.Address)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.BadgeInitialized, history[0].EventType)
}

func TestRegisterDuplicatePair(t *testing.T) {
	reg, _, _, _ := newTestRegistry(t)
	ctx := context.Background()

	config := pubkeyFill(0x01)
	mint := pubkeyFill(0x02)

	_, err := reg.Register(ctx, config, mint)
	require.NoError(t, err)

	_, err = reg.Register(ctx, config, mint)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestListByConfigAndMint(t *testing.T) {
	reg, _, _, _ := newTestRegistry(t)
	ctx := context.Background()

	config := pubkeyFill(0x01)
	otherConfig := pubkeyFill(0x02)
	mintA := pubkeyFill(0x0a)
	mintB := pubkeyFill(0x0b)

	_, err := reg.Register(ctx, config, mintA)
	require.NoError(t, err)
	_, err = reg.Register(ctx, config, mintB)
	require.NoError(t, err)
	_, err = reg.Register(ctx, otherConfig, mintA)
	require.NoError(t, err)

	byConfig, err := reg.ListByConfig(ctx, config)
	require.NoError(t, err)
	assert.Len(t, byConfig, 2)

	byMint, err := reg.ListByMint(ctx, mintA)
	require.NoError(t, err)
	assert.Len(t, byMint, 2)
}

func TestRemove(t *testing.T) {
	reg, badges, events, _ := newTestRegistry(t)
	ctx := context.Background()

	config := pubkeyFill(0x01)
	mint := pubkeyFill(0x02)

	badge, err := reg.Register(ctx, config, mint)
	require.NoError(t, err)

	require.NoError(t, reg.Remove(ctx, config, mint))

	_, err = badges.GetByAddress(ctx, badge.Address)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	history, err := events.GetByAddress(ctx, badge.Address)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.BadgeClosed, history[1].EventType)

	assert.ErrorIs(t, reg.Remove(ctx, config, mint), storage.ErrNotFound)
}

func TestVerifyOnChain(t *testing.T) {
	reg, _, _, rpc := newTestRegistry(t)
	ctx := context.Background()

	config := pubkeyFill(0x01)
	mint := pubkeyFill(0x02)

	address, _, err := pda.DeriveTokenBadgeAddress(testProgramID, config, mint)
	require.NoError(t, err)

	rpc.AddAccount(address.String(), &solana.AccountInfo{
		Lamports: 1461600,
		Owner:    testProgramID.String(),
		Data:     badgeAccountData(t, config, mint),
	})

	badge, err := reg.VerifyOnChain(ctx, config, mint)
	require.NoError(t, err)
	assert.Equal(t, config, badge.Config)
	assert.Equal(t, mint, badge.TokenMint)
}

func TestVerifyOnChainNotFound(t *testing.T) {
	reg, _, _, _ := newTestRegistry(t)

	_, err := reg.VerifyOnChain(context.Background(), pubkeyFill(0x01), pubkeyFill(0x02))
	assert.ErrorIs(t, err, ErrNotOnChain)
}

func TestVerifyOnChainIdentityMismatch(t *testing.T) {
	reg, _, _, rpc := newTestRegistry(t)
	ctx := context.Background()

	config := pubkeyFill(0x01)
	mint := pubkeyFill(0x02)

	address, _, err := pda.DeriveTokenBadgeAddress(testProgramID, config, mint)
	require.NoError(t, err)

	// Account exists at the right address but holds other identity fields.
	rpc.AddAccount(address.String(), &solana.AccountInfo{
		Lamports: 1461600,
		Owner:    testProgramID.String(),
		Data:     badgeAccountData(t, pubkeyFill(0x03), pubkeyFill(0x04)),
	})

	badge, err := reg.VerifyOnChain(ctx, config, mint)
	assert.ErrorIs(t, err, ErrIdentityMismatch)
	require.NotNil(t, badge)
	assert.Equal(t, pubkeyFill(0x03), badge.Config)
}
