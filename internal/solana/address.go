package solana

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ErrInvalidAddress is returned for strings that are not usable wallet addresses.
var ErrInvalidAddress = errors.New("invalid wallet address")

// ValidateWalletAddress checks that address is a base58 encoded 32 byte
// ed25519 public key. Program derived addresses lie off the curve and are
// rejected since they cannot belong to a borrower's signing wallet.
func ValidateWalletAddress(address string) error {
	if address == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAddress)
	}

	decoded, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(decoded) != 32 {
		return fmt.Errorf("%w: decoded length %d, want 32", ErrInvalidAddress, len(decoded))
	}
	if !isOnCurve(decoded) {
		return fmt.Errorf("%w: not an ed25519 public key", ErrInvalidAddress)
	}
	return nil
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
