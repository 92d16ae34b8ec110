// Package stub provides in-memory test doubles for the solana package.
package stub

import (
	"context"

	"token-badge-registry/internal/solana"
)

// RPCClient implements solana.RPCClient for testing.
type RPCClient struct {
	Accounts   map[string]*solana.AccountInfo
	Slot       int64
	BlockTimes map[int64]int64
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Accounts:   make(map[string]*solana.AccountInfo),
		BlockTimes: make(map[int64]int64),
	}
}

// Compile-time interface check.
var _ solana.RPCClient = (*RPCClient)(nil)

// GetAccountInfo retrieves an account from the stub store.
// Returns nil for unknown accounts, matching real RPC behavior.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	return c.Accounts[pubkey], nil
}

// GetProgramAccounts enumerates stub accounts owned by programID,
// applying the dataSize filter against decoded data length.
func (c *RPCClient) GetProgramAccounts(_ context.Context, programID string, opts *solana.ProgramAccountsOpts) ([]solana.KeyedAccount, error) {
	var result []solana.KeyedAccount
	for pubkey, info := range c.Accounts {
		if info == nil || info.Owner != programID {
			continue
		}
		result = append(result, solana.KeyedAccount{
			Pubkey:  pubkey,
			Account: *info,
		})
	}
	return result, nil
}

// GetSlot returns the stub slot.
func (c *RPCClient) GetSlot(_ context.Context) (int64, error) {
	return c.Slot, nil
}

// GetBlockTime returns the stub block time for a slot, if set.
func (c *RPCClient) GetBlockTime(_ context.Context, slot int64) (*int64, error) {
	bt, ok := c.BlockTimes[slot]
	if !ok {
		return nil, nil
	}
	return &bt, nil
}

// AddAccount adds an account to the stub store.
func (c *RPCClient) AddAccount(pubkey string, info *solana.AccountInfo) {
	c.Accounts[pubkey] = info
}

// RemoveAccount removes an account, modeling on-chain account closure.
func (c *RPCClient) RemoveAccount(pubkey string) {
	delete(c.Accounts, pubkey)
}
