package stub

import (
	"context"
	"sync"

	"token-badge-registry/internal/solana"
)

// WSClient implements solana.WSClient for testing. Notifications pushed via
// Notify are delivered to the subscription channel.
type WSClient struct {
	mu     sync.Mutex
	ch     chan solana.AccountNotification
	closed bool
}

// NewWSClient creates a new stub WebSocket client.
func NewWSClient() *WSClient {
	return &WSClient{
		ch: make(chan solana.AccountNotification, 64),
	}
}

// Compile-time interface check.
var _ solana.WSClient = (*WSClient)(nil)

// SubscribeProgram returns the stub notification channel.
func (c *WSClient) SubscribeProgram(_ context.Context, _ string, _ solana.ProgramFilter) (<-chan solana.AccountNotification, error) {
	return c.ch, nil
}

// Notify delivers one notification to subscribers.
func (c *WSClient) Notify(n solana.AccountNotification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.ch <- n
}

// Close closes the subscription channel.
func (c *WSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.ch)
	}
	return nil
}
