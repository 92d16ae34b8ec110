package domain

// Badge mirrors one on-chain TokenBadge account for off-chain lookups.
// Corresponds to badges table in PostgreSQL. Addresses are base58 strings.
type Badge struct {
	Address    string // badge PDA, PRIMARY KEY
	Config     string // configuration scope the badge belongs to
	Mint       string // asset mint the badge certifies
	Bump       uint8  // PDA bump seed
	Slot       int64  // Solana slot at which the badge was last observed
	ObservedAt int64  // Unix timestamp in milliseconds
	CreatedAt  int64  // row creation timestamp (ms)
}

// BadgeEventType classifies a badge lifecycle event.
type BadgeEventType string

// Badge lifecycle events. A badge account is created once, may be observed
// repeatedly during reconciliation, and disappears when its storage is closed.
const (
	BadgeInitialized BadgeEventType = "INITIALIZED"
	BadgeObserved    BadgeEventType = "OBSERVED"
	BadgeClosed      BadgeEventType = "CLOSED"
)

// BadgeEvent is one append-only lifecycle record.
// Corresponds to badge_events table in ClickHouse.
type BadgeEvent struct {
	Address     string
	Config      string
	Mint        string
	EventType   BadgeEventType
	Slot        int64
	TimestampMs int64
}
