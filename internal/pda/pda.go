// Package pda implements Program Derived Address computation, the
// key-derivation scheme that addresses program-owned account storage.
package pda

import (
	"crypto/sha256"
	"errors"

	"filippo.io/edwards25519"

	"token-badge-registry/internal/domain"
)

// TokenBadgeSeed is the leading seed for badge account addresses.
// Full seed list: ["token_badge", config, token_mint].
const TokenBadgeSeed = "token_badge"

// ErrNoViableBump is returned when no bump seed in [1, 255] yields an
// off-curve address. Practically unreachable for real seed inputs.
var ErrNoViableBump = errors.New("unable to find a viable program address bump")

// FindProgramAddress derives the address for the given seeds, searching bump
// seeds from 255 downward for the first hash that is off the ed25519 curve.
func FindProgramAddress(seeds [][]byte, programID domain.Pubkey) (domain.Pubkey, uint8, error) {
	for bump := byte(255); bump > 0; bump-- {
		data := make([]byte, 0, 128)
		for _, seed := range seeds {
			data = append(data, seed...)
		}
		data = append(data, bump)
		data = append(data, programID[:]...)
		data = append(data, []byte("ProgramDerivedAddress")...)

		hash := sha256.Sum256(data)

		if !isOnCurve(hash[:]) {
			addr, err := domain.PubkeyFromBytes(hash[:])
			if err != nil {
				return domain.Pubkey{}, 0, err
			}
			return addr, bump, nil
		}
	}

	return domain.Pubkey{}, 0, ErrNoViableBump
}

// DeriveTokenBadgeAddress returns the storage address for the badge of
// (config, mint) under the given program. At most one live badge account can
// exist per pair because the derivation is deterministic.
func DeriveTokenBadgeAddress(programID, config, mint domain.Pubkey) (domain.Pubkey, uint8, error) {
	seeds := [][]byte{
		[]byte(TokenBadgeSeed),
		config.Bytes(),
		mint.Bytes(),
	}
	return FindProgramAddress(seeds, programID)
}

// isOnCurve reports whether point decodes as a valid ed25519 curve point.
// Addresses on the curve would have a private key, so PDAs must be off-curve.
func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
