package verify

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// ErrNetworkHalted trips when the health gate sees a halted network. The
// verification fails before any source is queried; callers may retry once
// the network recovers.
var ErrNetworkHalted = errors.New("network halted: refusing verification")

// ErrInvalidSignature rejects malformed caller input before any pipeline
// work happens.
var ErrInvalidSignature = errors.New("invalid transaction signature")

const signatureLen = 64

// ValidateSignature checks that a signature is well-formed base58 of the
// expected length.
func ValidateSignature(signature string) error {
	if signature == "" {
		return fmt.Errorf("%w: empty", ErrInvalidSignature)
	}
	raw, err := base58.Decode(signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if len(raw) != signatureLen {
		return fmt.Errorf("%w: decoded to %d bytes, want %d", ErrInvalidSignature, len(raw), signatureLen)
	}
	return nil
}
