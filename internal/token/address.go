package token

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// ErrAddressParse is returned when a string is not a valid base58 public key.
var ErrAddressParse = errors.New("token: malformed address")

// PlaceholderAddress replaces unparsable addresses when state is restored.
var PlaceholderAddress = solana.SystemProgramID.String()

// ParseAddress validates s as a Solana public key and returns its canonical form.
func ParseAddress(s string) (string, error) {
	pk, err := solana.PublicKeyFromBase58(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrAddressParse, s, err)
	}
	return pk.String(), nil
}

// ParseAddressOrPlaceholder never fails: invalid input yields PlaceholderAddress.
func ParseAddressOrPlaceholder(s string) string {
	addr, err := ParseAddress(s)
	if err != nil {
		return PlaceholderAddress
	}
	return addr
}

// NewMintAddress generates a fresh keypair and returns its public key.
func NewMintAddress() (string, error) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return "", fmt.Errorf("generate mint keypair: %w", err)
	}
	return key.PublicKey().String(), nil
}
