// Package registry keeps an off-chain mirror of the program's TokenBadge
// accounts: which mints are approved under which configuration scope.
package registry

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"token-badge-registry/internal/domain"
	"token-badge-registry/internal/pda"
	"token-badge-registry/internal/solana"
	"token-badge-registry/internal/state"
	"token-badge-registry/internal/storage"
)

var (
	// ErrNotOnChain is returned when the derived badge account does not exist.
	ErrNotOnChain = errors.New("badge account not found on chain")

	// ErrIdentityMismatch is returned when on-chain identity fields differ
	// from the expected (config, mint) pair.
	ErrIdentityMismatch = errors.New("on-chain badge identity fields do not match")
)

// Registry provides badge lookups and keeps the mirror consistent with
// lifecycle events. It never submits transactions; creation and closure of
// the actual accounts happen elsewhere.
type Registry struct {
	badges    storage.BadgeStore
	events    storage.BadgeEventStore
	rpc       solana.RPCClient
	programID domain.Pubkey
	logger    *log.Logger
	now       func() int64
}

// Options configures a Registry.
type Options struct {
	BadgeStore storage.BadgeStore
	EventStore storage.BadgeEventStore
	RPC        solana.RPCClient // optional; required only for VerifyOnChain
	ProgramID  domain.Pubkey
	Logger     *log.Logger
	Now        func() int64 // ms clock, defaults to wall time
}

// New creates a Registry.
func New(opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	now := opts.Now
	if now == nil {
		now = func() int64 { return time.Now().UnixMilli() }
	}
	return &Registry{
		badges:    opts.BadgeStore,
		events:    opts.EventStore,
		rpc:       opts.RPC,
		programID: opts.ProgramID,
		logger:    logger,
		now:       now,
	}
}

// Register records that a badge was initialized for (config, mint): it builds
// the record, derives its storage address, inserts the mirror row and an
// INITIALIZED event. Returns storage.ErrDuplicateKey if the pair is already
// registered.
func (r *Registry) Register(ctx context.Context, config, mint domain.Pubkey) (*domain.Badge, error) {
	record := state.NewTokenBadge(config, mint)

	address, bump, err := pda.DeriveTokenBadgeAddress(r.programID, config, mint)
	if err != nil {
		return nil, fmt.Errorf("derive badge address: %w", err)
	}

	var slot int64
	if r.rpc != nil {
		if s, err := r.rpc.GetSlot(ctx); err == nil {
			slot = s
		}
	}

	badge := &domain.Badge{
		Address:    address.String(),
		Config:     record.Config.String(),
		Mint:       record.TokenMint.String(),
		Bump:       bump,
		Slot:       slot,
		ObservedAt: r.now(),
	}

	if err := r.badges.Insert(ctx, badge); err != nil {
		return nil, err
	}

	event := &domain.BadgeEvent{
		Address:     badge.Address,
		Config:      badge.Config,
		Mint:        badge.Mint,
		EventType:   domain.BadgeInitialized,
		Slot:        slot,
		TimestampMs: badge.ObservedAt,
	}
	if err := r.events.Insert(ctx, event); err != nil {
		return nil, fmt.Errorf("record initialized event: %w", err)
	}

	r.logger.Printf("Registered badge %s (config=%s mint=%s)", badge.Address, badge.Config, badge.Mint)
	return badge, nil
}

// Get retrieves the badge row for a (config, mint) pair.
func (r *Registry) Get(ctx context.Context, config, mint domain.Pubkey) (*domain.Badge, error) {
	return r.badges.GetByConfigAndMint(ctx, config.String(), mint.String())
}

// GetByAddress retrieves the badge row at a PDA.
func (r *Registry) GetByAddress(ctx context.Context, address string) (*domain.Badge, error) {
	return r.badges.GetByAddress(ctx, address)
}

// ListByConfig retrieves all badges under a configuration scope.
func (r *Registry) ListByConfig(ctx context.Context, config domain.Pubkey) ([]*domain.Badge, error) {
	return r.badges.ListByConfig(ctx, config.String())
}

// ListByMint retrieves all badges certifying a mint.
func (r *Registry) ListByMint(ctx context.Context, mint domain.Pubkey) ([]*domain.Badge, error) {
	return r.badges.ListByMint(ctx, mint.String())
}

// Remove mirrors external closure of the badge account: deletes the row and
// records a CLOSED event. Returns storage.ErrNotFound if no such badge.
func (r *Registry) Remove(ctx context.Context, config, mint domain.Pubkey) error {
	badge, err := r.badges.GetByConfigAndMint(ctx, config.String(), mint.String())
	if err != nil {
		return err
	}

	if err := r.badges.Delete(ctx, badge.Address); err != nil {
		return err
	}

	event := &domain.BadgeEvent{
		Address:     badge.Address,
		Config:      badge.Config,
		Mint:        badge.Mint,
		EventType:   domain.BadgeClosed,
		Slot:        badge.Slot,
		TimestampMs: r.now(),
	}
	if err := r.events.Insert(ctx, event); err != nil {
		return fmt.Errorf("record closed event: %w", err)
	}

	r.logger.Printf("Removed badge %s (config=%s mint=%s)", badge.Address, badge.Config, badge.Mint)
	return nil
}

// VerifyOnChain fetches the badge account at the derived address and checks
// that its identity fields equal (config, mint). Returns ErrNotOnChain when
// the account does not exist and ErrIdentityMismatch when it holds other
// identity values.
func (r *Registry) VerifyOnChain(ctx context.Context, config, mint domain.Pubkey) (*state.TokenBadge, error) {
	if r.rpc == nil {
		return nil, fmt.Errorf("no RPC client configured")
	}

	address, _, err := pda.DeriveTokenBadgeAddress(r.programID, config, mint)
	if err != nil {
		return nil, fmt.Errorf("derive badge address: %w", err)
	}

	info, err := r.rpc.GetAccountInfo(ctx, address.String())
	if err != nil {
		return nil, fmt.Errorf("fetch badge account: %w", err)
	}
	if info == nil {
		return nil, ErrNotOnChain
	}

	data, err := base64.StdEncoding.DecodeString(info.Data)
	if err != nil {
		return nil, fmt.Errorf("decode account data: %w", err)
	}

	badge, err := state.DecodeTokenBadge(data)
	if err != nil {
		return nil, fmt.Errorf("decode badge account %s: %w", address, err)
	}

	if badge.Config != config || badge.TokenMint != mint {
		return badge, ErrIdentityMismatch
	}

	return badge, nil
}
