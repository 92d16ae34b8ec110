package solana

import "context"

// RPCClient is the node access surface the registry needs.
type RPCClient interface {
	// GetAccountInfo retrieves account info by public key.
	// Returns nil (no error) if the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetProgramAccounts enumerates accounts owned by a program,
	// optionally narrowed by dataSize and memcmp filters.
	GetProgramAccounts(ctx context.Context, programID string, opts *ProgramAccountsOpts) ([]KeyedAccount, error)

	// GetSlot retrieves the current slot.
	GetSlot(ctx context.Context) (int64, error)

	// GetBlockTime retrieves the estimated production time of a block.
	GetBlockTime(ctx context.Context, slot int64) (*int64, error)
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Data       string `json:"data"` // base64 encoded
	Executable bool   `json:"executable"`
	RentEpoch  uint64 `json:"rentEpoch"`
}

// KeyedAccount pairs an account with its address, as returned by
// getProgramAccounts.
type KeyedAccount struct {
	Pubkey  string
	Account AccountInfo
}

// MemcmpFilter matches accounts whose data equals Bytes at Offset.
// Bytes are base58-encoded on the wire.
type MemcmpFilter struct {
	Offset int64
	Bytes  string
}

// ProgramAccountsOpts defines optional filters for getProgramAccounts.
type ProgramAccountsOpts struct {
	DataSize int64 // match accounts of exactly this size; 0 disables
	Memcmp   []MemcmpFilter
}
