package solana

import "context"

// WSClient streams account updates over a WebSocket connection.
type WSClient interface {
	// SubscribeProgram subscribes to write notifications for accounts owned
	// by programID, narrowed by filter. The channel is closed on Close.
	SubscribeProgram(ctx context.Context, programID string, filter ProgramFilter) (<-chan AccountNotification, error)

	// Close shuts the connection down and closes all subscription channels.
	Close() error
}

// ProgramFilter narrows a program subscription.
type ProgramFilter struct {
	// DataSize matches accounts of exactly this size; 0 disables the filter.
	DataSize int64
}

// AccountNotification is one account write observed via programSubscribe.
type AccountNotification struct {
	Pubkey   string
	Owner    string
	Data     string // base64 encoded
	Lamports uint64
	Slot     int64
}
