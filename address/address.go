package address

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/onomyprotocol/deep-space/dsutils"
)

// Len is the length of an account address, the hash160 of a public key.
const Len = 20

var (
	// ErrEmptyPrefix is returned when bech32 encoding is requested without
	// a human readable part.
	ErrEmptyPrefix = errors.New("empty bech32 prefix")

	// ErrInvalidBech32 is returned when a string is not valid bech32.
	ErrInvalidBech32 = errors.New("invalid bech32 encoding")

	// ErrInvalidBase32 is returned when the bech32 data part can't be
	// regrouped into bytes.
	ErrInvalidBase32 = errors.New("invalid base32 data")
)

// ErrWrongLength is returned when an address is built from a buffer that
// isn't exactly Len bytes.
type ErrWrongLength int

// Error returns a human readable description of the length error.
func (e ErrWrongLength) Error() string {
	return fmt.Sprintf("address must be %d bytes, got %d", Len, int(e))
}

// Address is an account address together with the bech32 prefix used to
// render it. Addresses are comparable values.
type Address struct {
	bytes  [Len]byte
	prefix dsutils.Label
}

// FromBytes creates an address from its raw hash and a bech32 prefix.
func FromBytes(b [Len]byte, prefix string) (Address, error) {
	label, err := dsutils.NewLabel(prefix)
	if err != nil {
		return Address{}, err
	}

	return Address{bytes: b, prefix: label}, nil
}

// FromSlice creates an address from a slice that must be exactly Len bytes.
func FromSlice(b []byte, prefix string) (Address, error) {
	if len(b) != Len {
		return Address{}, ErrWrongLength(len(b))
	}

	var raw [Len]byte
	copy(raw[:], b)

	return FromBytes(raw, prefix)
}

// FromBech32 parses a bech32 address, keeping its human readable part as the
// prefix.
func FromBech32(s string) (Address, error) {
	hrp, data, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidBech32, err)
	}

	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidBase32, err)
	}

	return FromSlice(raw, hrp)
}

// Bytes returns a copy of the raw address hash.
func (a Address) Bytes() []byte {
	b := a.bytes
	return b[:]
}

// Prefix returns the bech32 prefix of the address.
func (a Address) Prefix() string {
	return a.prefix.String()
}

// ChangePrefix replaces the prefix of the address.
//
// NOTE: This mutates the address in place and must not run concurrently with
// any other access to the same value.
func (a *Address) ChangePrefix(prefix string) error {
	label, err := dsutils.NewLabel(prefix)
	if err != nil {
		return err
	}
	a.prefix = label

	return nil
}

// ToBech32 encodes the address with an arbitrary prefix.
func (a Address) ToBech32(prefix string) (string, error) {
	if prefix == "" {
		return "", ErrEmptyPrefix
	}

	return encodeBech32(prefix, a.bytes[:])
}

// String renders the address as bech32 using its own prefix. An address
// without a prefix is rendered as hex.
func (a Address) String() string {
	if a.prefix.IsEmpty() {
		return dsutils.BytesToHex(a.bytes[:])
	}

	// The prefix was validated on construction and the data regrouped to
	// five bits, so encoding can't fail here.
	s, err := encodeBech32(a.prefix.String(), a.bytes[:])
	if err != nil {
		return dsutils.BytesToHex(a.bytes[:])
	}

	return s
}

func encodeBech32(hrp string, data []byte) (string, error) {
	conv, err := bech32.ConvertBits(data, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidBase32, err)
	}

	return bech32.Encode(hrp, conv)
}
