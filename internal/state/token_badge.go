// Package state defines the binary layout of on-chain account records
// owned by the AMM program.
package state

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"token-badge-registry/internal/domain"
)

// TokenBadge account layout:
//
//	[discriminator 8][config 32][token_mint 32][reserved 128]
//
// The reserved region keeps the account size stable across program upgrades.
// It is zero on creation and never interpreted.
const (
	TokenBadgeHeaderLen   = 8
	TokenBadgeReservedLen = 128
	TokenBadgeLen         = TokenBadgeHeaderLen + 2*domain.PubkeyLen + TokenBadgeReservedLen
)

var (
	// ErrInvalidAccountSize is returned when raw data is not exactly TokenBadgeLen bytes.
	ErrInvalidAccountSize = errors.New("invalid token badge account size")

	// ErrWrongDiscriminator is returned when raw data does not carry the TokenBadge tag.
	ErrWrongDiscriminator = errors.New("account discriminator mismatch")
)

// tokenBadgeDiscriminator is the Anchor account tag: sha256("account:TokenBadge")[:8].
var tokenBadgeDiscriminator = accountDiscriminator("TokenBadge")

func accountDiscriminator(name string) [TokenBadgeHeaderLen]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var d [TokenBadgeHeaderLen]byte
	copy(d[:], sum[:TokenBadgeHeaderLen])
	return d
}

// TokenBadgeDiscriminator returns the 8-byte account tag prefix.
// Used as a memcmp filter when enumerating badge accounts over RPC.
func TokenBadgeDiscriminator() []byte {
	b := make([]byte, TokenBadgeHeaderLen)
	copy(b, tokenBadgeDiscriminator[:])
	return b
}

// TokenBadge marks that a token mint is explicitly approved under a
// configuration scope. The two identity fields are immutable once the
// account is committed; any change means closing and recreating the account.
type TokenBadge struct {
	Config    domain.Pubkey
	TokenMint domain.Pubkey

	reserved [TokenBadgeReservedLen]byte
}

// NewTokenBadge builds an initialized in-memory badge record.
func NewTokenBadge(config, mint domain.Pubkey) *TokenBadge {
	b := &TokenBadge{}
	b.Initialize(config, mint)
	return b
}

// Initialize sets the identity fields, unconditionally overwriting whatever
// is there. The reserved region is left untouched. Fixed width is enforced
// by the Pubkey type, so there is no failure path; callers that re-run this
// on committed storage must be prevented upstream.
func (b *TokenBadge) Initialize(config, mint domain.Pubkey) {
	b.Config = config
	b.TokenMint = mint
}

// MarshalBinary serializes the record to exactly TokenBadgeLen bytes.
func (b *TokenBadge) MarshalBinary() ([]byte, error) {
	buf := make([]byte, TokenBadgeLen)
	copy(buf, tokenBadgeDiscriminator[:])
	copy(buf[TokenBadgeHeaderLen:], b.Config[:])
	copy(buf[TokenBadgeHeaderLen+domain.PubkeyLen:], b.TokenMint[:])
	copy(buf[TokenBadgeHeaderLen+2*domain.PubkeyLen:], b.reserved[:])
	return buf, nil
}

// UnmarshalBinary decodes a raw badge account. The reserved region is carried
// through verbatim and not validated.
func (b *TokenBadge) UnmarshalBinary(data []byte) error {
	if len(data) != TokenBadgeLen {
		return fmt.Errorf("%w: got %d, want %d", ErrInvalidAccountSize, len(data), TokenBadgeLen)
	}
	if !bytes.Equal(data[:TokenBadgeHeaderLen], tokenBadgeDiscriminator[:]) {
		return ErrWrongDiscriminator
	}

	copy(b.Config[:], data[TokenBadgeHeaderLen:])
	copy(b.TokenMint[:], data[TokenBadgeHeaderLen+domain.PubkeyLen:])
	copy(b.reserved[:], data[TokenBadgeHeaderLen+2*domain.PubkeyLen:])
	return nil
}

// DecodeTokenBadge decodes raw account data into a new TokenBadge.
func DecodeTokenBadge(data []byte) (*TokenBadge, error) {
	var b TokenBadge
	if err := b.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return &b, nil
}

// IsTokenBadgeAccount reports whether raw account data carries the
// TokenBadge tag and size, without decoding it.
func IsTokenBadgeAccount(data []byte) bool {
	return len(data) == TokenBadgeLen &&
		bytes.Equal(data[:TokenBadgeHeaderLen], tokenBadgeDiscriminator[:])
}
