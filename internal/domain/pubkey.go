package domain

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// PubkeyLen is the byte length of a Solana public key.
const PubkeyLen = 32

// ErrMalformedIdentifier is returned when raw input is not exactly 32 bytes.
// Identifiers are never truncated or padded to fit.
var ErrMalformedIdentifier = errors.New("malformed identifier: expected 32 bytes")

// Pubkey is a fixed-width Solana account identifier.
// The zero value is the all-zero key.
type Pubkey [PubkeyLen]byte

// PubkeyFromBytes builds a Pubkey from raw bytes.
// Returns ErrMalformedIdentifier unless len(b) == PubkeyLen.
func PubkeyFromBytes(b []byte) (Pubkey, error) {
	var p Pubkey
	if len(b) != PubkeyLen {
		return p, fmt.Errorf("%w, got %d", ErrMalformedIdentifier, len(b))
	}
	copy(p[:], b)
	return p, nil
}

// PubkeyFromBase58 parses a base58-encoded public key.
func PubkeyFromBase58(s string) (Pubkey, error) {
	var p Pubkey
	decoded, err := base58.Decode(s)
	if err != nil {
		return p, fmt.Errorf("decode base58 pubkey: %w", err)
	}
	if len(decoded) != PubkeyLen {
		return p, fmt.Errorf("%w, got %d", ErrMalformedIdentifier, len(decoded))
	}
	copy(p[:], decoded)
	return p, nil
}

// Bytes returns a copy of the key as a byte slice.
func (p Pubkey) Bytes() []byte {
	b := make([]byte, PubkeyLen)
	copy(b, p[:])
	return b
}

// String returns the base58 text form.
func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

// IsZero reports whether the key is the all-zero key.
func (p Pubkey) IsZero() bool {
	return p == Pubkey{}
}
