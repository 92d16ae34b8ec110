package pda

import (
	"testing"

	"token-badge-registry/internal/domain"
)

func pubkeyFill(b byte) domain.Pubkey {
	var p domain.Pubkey
	for i := range p {
		p[i] = b
	}
	return p
}

func TestFindProgramAddressDeterministic(t *testing.T) {
	programID := pubkeyFill(0x10)
	seeds := [][]byte{[]byte("token_badge"), pubkeyFill(0x01).Bytes(), pubkeyFill(0x02).Bytes()}

	addr1, bump1, err := FindProgramAddress(seeds, programID)
	if err != nil {
		t.Fatalf("FindProgramAddress: %v", err)
	}
	addr2, bump2, err := FindProgramAddress(seeds, programID)
	if err != nil {
		t.Fatalf("FindProgramAddress: %v", err)
	}

	if addr1 != addr2 || bump1 != bump2 {
		t.Errorf("derivation not deterministic: (%s, %d) vs (%s, %d)", addr1, bump1, addr2, bump2)
	}
	if bump1 == 0 {
		t.Error("bump = 0, want value in [1, 255]")
	}
}

func TestFindProgramAddressOffCurve(t *testing.T) {
	addr, _, err := FindProgramAddress(
		[][]byte{[]byte("token_badge"), pubkeyFill(0xaa).Bytes(), pubkeyFill(0xbb).Bytes()},
		pubkeyFill(0x10),
	)
	if err != nil {
		t.Fatalf("FindProgramAddress: %v", err)
	}
	if isOnCurve(addr.Bytes()) {
		t.Errorf("derived address %s lies on the ed25519 curve", addr)
	}
}

func TestDeriveTokenBadgeAddressDependsOnAllInputs(t *testing.T) {
	programID := pubkeyFill(0x10)
	config := pubkeyFill(0x01)
	mint := pubkeyFill(0x02)

	base, _, err := DeriveTokenBadgeAddress(programID, config, mint)
	if err != nil {
		t.Fatalf("DeriveTokenBadgeAddress: %v", err)
	}

	cases := []struct {
		name    string
		program domain.Pubkey
		config  domain.Pubkey
		mint    domain.Pubkey
	}{
		{"different program", pubkeyFill(0x11), config, mint},
		{"different config", programID, pubkeyFill(0x03), mint},
		{"different mint", programID, config, pubkeyFill(0x04)},
		{"swapped config and mint", programID, mint, config},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			addr, _, err := DeriveTokenBadgeAddress(tc.program, tc.config, tc.mint)
			if err != nil {
				t.Fatalf("DeriveTokenBadgeAddress: %v", err)
			}
			if addr == base {
				t.Errorf("address collision with base derivation: %s", addr)
			}
		})
	}
}

func TestDeriveTokenBadgeAddressMatchesGenericDerivation(t *testing.T) {
	programID := pubkeyFill(0x10)
	config := pubkeyFill(0x01)
	mint := pubkeyFill(0x02)

	fromHelper, bumpHelper, err := DeriveTokenBadgeAddress(programID, config, mint)
	if err != nil {
		t.Fatalf("DeriveTokenBadgeAddress: %v", err)
	}

	fromGeneric, bumpGeneric, err := FindProgramAddress(
		[][]byte{[]byte(TokenBadgeSeed), config.Bytes(), mint.Bytes()},
		programID,
	)
	if err != nil {
		t.Fatalf("FindProgramAddress: %v", err)
	}

	if fromHelper != fromGeneric || bumpHelper != bumpGeneric {
		t.Errorf("helper derivation (%s, %d) differs from generic (%s, %d)",
			fromHelper, bumpHelper, fromGeneric, bumpGeneric)
	}
}

func TestIsOnCurve(t *testing.T) {
	// The ed25519 base point compresses to 0x58666...6666; it must decode.
	basePoint := make([]byte, 32)
	for i := range basePoint {
		basePoint[i] = 0x66
	}
	basePoint[0] = 0x58

	if !isOnCurve(basePoint) {
		t.Error("ed25519 base point not recognized as on-curve")
	}
	if isOnCurve(make([]byte, 31)) {
		t.Error("31-byte input recognized as on-curve")
	}
}
