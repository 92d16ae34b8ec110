package registry

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/mr-tron/base58"

	"token-badge-registry/internal/domain"
	"token-badge-registry/internal/observability"
	"token-badge-registry/internal/pda"
	"token-badge-registry/internal/solana"
	"token-badge-registry/internal/state"
	"token-badge-registry/internal/storage"
)

// Syncer reconciles the mirror against the full on-chain badge account set.
type Syncer struct {
	rpc       solana.RPCClient
	badges    storage.BadgeStore
	events    storage.BadgeEventStore
	programID domain.Pubkey
	logger    *log.Logger
	now       func() int64
}

// SyncerOptions configures a Syncer.
type SyncerOptions struct {
	RPC        solana.RPCClient
	BadgeStore storage.BadgeStore
	EventStore storage.BadgeEventStore
	ProgramID  domain.Pubkey
	Logger     *log.Logger
	Now        func() int64
}

// NewSyncer creates a Syncer.
func NewSyncer(opts SyncerOptions) *Syncer {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	now := opts.Now
	if now == nil {
		now = func() int64 { return time.Now().UnixMilli() }
	}
	return &Syncer{
		rpc:       opts.RPC,
		badges:    opts.BadgeStore,
		events:    opts.EventStore,
		programID: opts.ProgramID,
		logger:    logger,
		now:       now,
	}
}

// SyncResult summarizes one reconciliation pass.
type SyncResult struct {
	Scanned int // badge accounts returned by the node
	Added   int // rows inserted
	Removed int // rows deleted because the account is gone
	Skipped int // accounts that failed to decode or verify
}

// Run performs one full reconciliation pass: enumerate badge accounts via
// getProgramAccounts, insert rows the mirror is missing, delete rows whose
// account no longer exists on chain.
func (s *Syncer) Run(ctx context.Context) (SyncResult, error) {
	var result SyncResult
	start := time.Now()

	opts := &solana.ProgramAccountsOpts{
		DataSize: state.TokenBadgeLen,
		Memcmp: []solana.MemcmpFilter{
			{Offset: 0, Bytes: base58.Encode(state.TokenBadgeDiscriminator())},
		},
	}

	accounts, err := s.rpc.GetProgramAccounts(ctx, s.programID.String(), opts)
	if err != nil {
		observability.RecordSyncRun("error", time.Since(start).Seconds())
		return result, fmt.Errorf("enumerate badge accounts: %w", err)
	}
	result.Scanned = len(accounts)

	slot, err := s.rpc.GetSlot(ctx)
	if err != nil {
		// Slot is informational only; keep going.
		slot = 0
	}
	if slot > 0 {
		observability.UpdateHighestSlot(slot)
	}

	onChain := make(map[string]bool, len(accounts))
	for _, account := range accounts {
		address, ok := s.reconcileAccount(ctx, account, slot, &result)
		if ok {
			onChain[address] = true
		}
	}

	removed, err := s.removeClosed(ctx, onChain, slot)
	if err != nil {
		observability.RecordSyncRun("error", time.Since(start).Seconds())
		return result, err
	}
	result.Removed = removed

	observability.RecordSyncRun("success", time.Since(start).Seconds())
	s.logger.Printf("Sync complete: scanned=%d added=%d removed=%d skipped=%d",
		result.Scanned, result.Added, result.Removed, result.Skipped)
	return result, nil
}

// reconcileAccount decodes one badge account and inserts its row if missing.
// Returns the account address and whether it is a verified badge.
func (s *Syncer) reconcileAccount(ctx context.Context, account solana.KeyedAccount, slot int64, result *SyncResult) (string, bool) {
	data, err := base64.StdEncoding.DecodeString(account.Account.Data)
	if err != nil {
		s.logger.Printf("Skipping %s: bad base64: %v", account.Pubkey, err)
		observability.RecordDecodeError("base64")
		result.Skipped++
		return account.Pubkey, false
	}

	badge, err := state.DecodeTokenBadge(data)
	if err != nil {
		s.logger.Printf("Skipping %s: %v", account.Pubkey, err)
		observability.RecordDecodeError("layout")
		result.Skipped++
		return account.Pubkey, false
	}

	// The address must be the PDA for the decoded identity fields; anything
	// else is not a badge this program derived.
	derived, bump, err := pda.DeriveTokenBadgeAddress(s.programID, badge.Config, badge.TokenMint)
	if err != nil || derived.String() != account.Pubkey {
		s.logger.Printf("Skipping %s: address does not match derived badge PDA", account.Pubkey)
		observability.RecordDecodeError("address")
		result.Skipped++
		return account.Pubkey, false
	}

	row := &domain.Badge{
		Address:    account.Pubkey,
		Config:     badge.Config.String(),
		Mint:       badge.TokenMint.String(),
		Bump:       bump,
		Slot:       slot,
		ObservedAt: s.now(),
	}

	err = s.badges.Insert(ctx, row)
	switch {
	case err == nil:
		result.Added++
		observability.RecordBadgeObserved()
		event := &domain.BadgeEvent{
			Address:     row.Address,
			Config:      row.Config,
			Mint:        row.Mint,
			EventType:   domain.BadgeObserved,
			Slot:        slot,
			TimestampMs: row.ObservedAt,
		}
		if err := s.events.Insert(ctx, event); err != nil {
			s.logger.Printf("Failed to record observed event for %s: %v", row.Address, err)
		}
	case errors.Is(err, storage.ErrDuplicateKey):
		// Already mirrored.
	default:
		s.logger.Printf("Failed to insert badge %s: %v", row.Address, err)
		result.Skipped++
	}

	return account.Pubkey, true
}

// removeClosed deletes mirror rows whose account is no longer on chain and
// records a CLOSED event for each.
func (s *Syncer) removeClosed(ctx context.Context, onChain map[string]bool, slot int64) (int, error) {
	rows, err := s.badges.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list mirrored badges: %w", err)
	}

	removed := 0
	for _, row := range rows {
		if onChain[row.Address] {
			continue
		}

		if err := s.badges.Delete(ctx, row.Address); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return removed, fmt.Errorf("delete closed badge %s: %w", row.Address, err)
		}
		removed++
		observability.RecordBadgeClosed()

		event := &domain.BadgeEvent{
			Address:     row.Address,
			Config:      row.Config,
			Mint:        row.Mint,
			EventType:   domain.BadgeClosed,
			Slot:        slot,
			TimestampMs: s.now(),
		}
		if err := s.events.Insert(ctx, event); err != nil {
			s.logger.Printf("Failed to record closed event for %s: %v", row.Address, err)
		}
	}

	return removed, nil
}
