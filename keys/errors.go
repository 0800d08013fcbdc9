package keys

import (
	"errors"
	"fmt"

	"github.com/onomyprotocol/deep-space/address"
)

var (
	// ErrEmptyPhrase is returned when a key is requested from an empty
	// seed phrase.
	ErrEmptyPhrase = errors.New("empty seed phrase")

	// ErrInvalidScalar is returned when 32 bytes don't encode a usable
	// private key, i.e. they are zero or not below the curve order.
	ErrInvalidScalar = errors.New("invalid private key scalar")

	// ErrBech32WrongLength is returned when a bech32 public key doesn't
	// carry exactly AminoPubKeyLen bytes.
	ErrBech32WrongLength = errors.New("bech32 public key has wrong " +
		"length")

	// ErrInvalidBech32 is returned when a string is not valid bech32.
	ErrInvalidBech32 = address.ErrInvalidBech32

	// ErrInvalidBase32 is returned when the bech32 data part can't be
	// regrouped into bytes.
	ErrInvalidBase32 = address.ErrInvalidBase32

	// ErrEmptyPrefix is returned when bech32 encoding is requested without
	// a human readable part.
	ErrEmptyPrefix = address.ErrEmptyPrefix
)

// LengthKind names the buffer a length error is about.
type LengthKind string

const (
	// KindScalar is a 32-byte private key scalar.
	KindScalar LengthKind = "private key"

	// KindPoint is a 33-byte compressed public key.
	KindPoint LengthKind = "public key"
)

// ErrWrongLength is returned when a fixed size buffer is built from input of
// the wrong length.
type ErrWrongLength struct {
	Kind     LengthKind
	Expected int
	Actual   int
}

// Error returns a human readable description of the length error.
func (e ErrWrongLength) Error() string {
	return fmt.Sprintf("%s must be %d bytes, got %d", e.Kind, e.Expected,
		e.Actual)
}
