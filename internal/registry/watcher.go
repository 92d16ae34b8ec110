package registry

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log"
	"time"

	"token-badge-registry/internal/domain"
	"token-badge-registry/internal/observability"
	"token-badge-registry/internal/pda"
	"token-badge-registry/internal/solana"
	"token-badge-registry/internal/state"
	"token-badge-registry/internal/storage"
)

// Watcher keeps the mirror current in real time by consuming programSubscribe
// notifications for badge-sized accounts.
type Watcher struct {
	ws        solana.WSClient
	badges    storage.BadgeStore
	events    storage.BadgeEventStore
	programID domain.Pubkey
	logger    *log.Logger
	now       func() int64
}

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	WS         solana.WSClient
	BadgeStore storage.BadgeStore
	EventStore storage.BadgeEventStore
	ProgramID  domain.Pubkey
	Logger     *log.Logger
	Now        func() int64
}

// NewWatcher creates a Watcher.
func NewWatcher(opts WatcherOptions) *Watcher {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	now := opts.Now
	if now == nil {
		now = func() int64 { return time.Now().UnixMilli() }
	}
	return &Watcher{
		ws:        opts.WS,
		badges:    opts.BadgeStore,
		events:    opts.EventStore,
		programID: opts.ProgramID,
		logger:    logger,
		now:       now,
	}
}

// Run subscribes and processes notifications until the context is canceled
// or the subscription channel is closed.
func (w *Watcher) Run(ctx context.Context) error {
	filter := solana.ProgramFilter{DataSize: state.TokenBadgeLen}
	ch, err := w.ws.SubscribeProgram(ctx, w.programID.String(), filter)
	if err != nil {
		return err
	}

	w.logger.Printf("Watching badge accounts for program %s", w.programID)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case notif, ok := <-ch:
			if !ok {
				return nil
			}
			w.handleNotification(ctx, notif)
		}
	}
}

// handleNotification mirrors one account write. A notification with zero
// lamports means the account was closed.
func (w *Watcher) handleNotification(ctx context.Context, notif solana.AccountNotification) {
	if notif.Slot > 0 {
		observability.UpdateHighestSlot(notif.Slot)
	}

	if notif.Lamports == 0 {
		w.handleClosed(ctx, notif)
		return
	}

	data, err := base64.StdEncoding.DecodeString(notif.Data)
	if err != nil {
		w.logger.Printf("Bad base64 in notification for %s: %v", notif.Pubkey, err)
		observability.RecordDecodeError("base64")
		return
	}

	badge, err := state.DecodeTokenBadge(data)
	if err != nil {
		// The dataSize filter only matches on size; other 200-byte accounts
		// of the program land here.
		observability.RecordDecodeError("layout")
		return
	}

	derived, bump, err := pda.DeriveTokenBadgeAddress(w.programID, badge.Config, badge.TokenMint)
	if err != nil || derived.String() != notif.Pubkey {
		observability.RecordDecodeError("address")
		return
	}

	row := &domain.Badge{
		Address:    notif.Pubkey,
		Config:     badge.Config.String(),
		Mint:       badge.TokenMint.String(),
		Bump:       bump,
		Slot:       notif.Slot,
		ObservedAt: w.now(),
	}

	err = w.badges.Insert(ctx, row)
	switch {
	case err == nil:
		observability.RecordBadgeRegistered()
		event := &domain.BadgeEvent{
			Address:     row.Address,
			Config:      row.Config,
			Mint:        row.Mint,
			EventType:   domain.BadgeInitialized,
			Slot:        notif.Slot,
			TimestampMs: row.ObservedAt,
		}
		if err := w.events.Insert(ctx, event); err != nil {
			w.logger.Printf("Failed to record initialized event for %s: %v", row.Address, err)
		}
		w.logger.Printf("Badge initialized: %s (config=%s mint=%s)", row.Address, row.Config, row.Mint)
	case errors.Is(err, storage.ErrDuplicateKey):
		// Identity fields are immutable; a rewrite of a known badge carries
		// no new information.
	default:
		w.logger.Printf("Failed to insert badge %s: %v", row.Address, err)
	}
}

// handleClosed mirrors an account closure.
func (w *Watcher) handleClosed(ctx context.Context, notif solana.AccountNotification) {
	row, err := w.badges.GetByAddress(ctx, notif.Pubkey)
	if err != nil {
		// Not a badge we were mirroring.
		return
	}

	if err := w.badges.Delete(ctx, row.Address); err != nil && !errors.Is(err, storage.ErrNotFound) {
		w.logger.Printf("Failed to delete closed badge %s: %v", row.Address, err)
		return
	}
	observability.RecordBadgeClosed()

	event := &domain.BadgeEvent{
		Address:     row.Address,
		Config:      row.Config,
		Mint:        row.Mint,
		EventType:   domain.BadgeClosed,
		Slot:        notif.Slot,
		TimestampMs: w.now(),
	}
	if err := w.events.Insert(ctx, event); err != nil {
		w.logger.Printf("Failed to record closed event for %s: %v", row.Address, err)
	}
	w.logger.Printf("Badge closed: %s (config=%s mint=%s)", row.Address, row.Config, row.Mint)
}
