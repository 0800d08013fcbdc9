package keys

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/onomyprotocol/deep-space/address"
	"github.com/onomyprotocol/deep-space/dsutils"
	"github.com/onomyprotocol/deep-space/keychain"
)

const (
	// PublicKeyLen is the length of a compressed public key.
	PublicKeyLen = 33

	// AminoPubKeyLen is the length of an amino framed public key, the
	// compressed key behind the five byte amino prefix.
	AminoPubKeyLen = len(aminoPrefix) + PublicKeyLen

	// DefaultPrefix is the label given to public keys parsed from a
	// representation that doesn't carry one.
	DefaultPrefix = "cosmospub"

	// pubSuffix is stripped from a public key label to get the matching
	// address label, e.g. cosmospub -> cosmos.
	pubSuffix = "pub"
)

// aminoPrefix is the amino type prefix of a secp256k1 public key.
var aminoPrefix = [5]byte{0xeb, 0x5a, 0xe9, 0x87, 0x21}

// PublicKey is a compressed secp256k1 public key together with the bech32
// label used to render it. Both are part of the value: two keys with the same
// point but different labels are not equal.
type PublicKey struct {
	bytes  [PublicKeyLen]byte
	prefix dsutils.Label
}

// PublicKeyFromBytes creates a public key from its compressed encoding. The
// point itself isn't validated.
func PublicKeyFromBytes(b [PublicKeyLen]byte, prefix string) (PublicKey,
	error) {

	label, err := dsutils.NewLabel(prefix)
	if err != nil {
		return PublicKey{}, err
	}

	return PublicKey{bytes: b, prefix: label}, nil
}

// PublicKeyFromSlice creates a public key from a slice that must be exactly
// PublicKeyLen bytes.
func PublicKeyFromSlice(b []byte, prefix string) (PublicKey, error) {
	if len(b) != PublicKeyLen {
		return PublicKey{}, ErrWrongLength{
			Kind:     KindPoint,
			Expected: PublicKeyLen,
			Actual:   len(b),
		}
	}

	var point [PublicKeyLen]byte
	copy(point[:], b)

	return PublicKeyFromBytes(point, prefix)
}

// PublicKeyFromBech32 parses an amino framed bech32 public key. The human
// readable part becomes the key's label.
func PublicKeyFromBech32(s string) (PublicKey, error) {
	hrp, data, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidBech32, err)
	}

	framed, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidBase32, err)
	}

	if len(framed) != AminoPubKeyLen {
		return PublicKey{}, fmt.Errorf("%w: expected %d bytes, got %d",
			ErrBech32WrongLength, AminoPubKeyLen, len(framed))
	}

	return PublicKeyFromSlice(framed[len(aminoPrefix):], hrp)
}

// publicKeyParser is one way of reading a public key from text.
type publicKeyParser func(string) fn.Result[PublicKey]

func parseBech32PublicKey(s string) fn.Result[PublicKey] {
	key, err := PublicKeyFromBech32(s)
	if err != nil {
		return fn.Err[PublicKey](err)
	}

	return fn.Ok(key)
}

func parseHexPublicKey(s string) fn.Result[PublicKey] {
	b, err := dsutils.HexToBytes(s)
	if err != nil {
		return fn.Err[PublicKey](err)
	}

	key, err := PublicKeyFromSlice(b, DefaultPrefix)
	if err != nil {
		return fn.Err[PublicKey](err)
	}

	return fn.Ok(key)
}

func parseBase64PublicKey(s string) fn.Result[PublicKey] {
	b, err := base64.RawStdEncoding.DecodeString(s)
	if err != nil {
		return fn.Err[PublicKey](fmt.Errorf("invalid base64 public "+
			"key: %w", err))
	}

	key, err := PublicKeyFromSlice(b, DefaultPrefix)
	if err != nil {
		return fn.Err[PublicKey](err)
	}

	return fn.Ok(key)
}

// publicKeyParsers are tried in order by ParsePublicKey.
var publicKeyParsers = []publicKeyParser{
	parseBech32PublicKey,
	parseHexPublicKey,
	parseBase64PublicKey,
}

// ParsePublicKey reads a public key from bech32, 33-byte hex or unpadded
// base64 text, in that order. Keys read from hex or base64 get the
// DefaultPrefix label. If nothing matches, the base64 error is returned.
func ParsePublicKey(s string) (PublicKey, error) {
	var result fn.Result[PublicKey]
	for _, parse := range publicKeyParsers {
		result = parse(s)
		if result.IsOk() {
			break
		}
	}

	return result.Unpack()
}

// Bytes returns a copy of the compressed key.
func (p PublicKey) Bytes() []byte {
	b := p.bytes
	return b[:]
}

// Prefix returns the label of the key.
func (p PublicKey) Prefix() string {
	return p.prefix.String()
}

// ChangePrefix replaces the label of the key.
//
// NOTE: This mutates the key in place and must not run concurrently with any
// other access to the same value.
func (p *PublicKey) ChangePrefix(prefix string) error {
	label, err := dsutils.NewLabel(prefix)
	if err != nil {
		return err
	}
	p.prefix = label

	return nil
}

// ToAddress returns the address of the key. The address label is the key's
// label with a trailing "pub" removed, so cosmospub turns into cosmos.
func (p PublicKey) ToAddress() (address.Address, error) {
	prefix := strings.TrimSuffix(p.prefix.String(), pubSuffix)

	return p.ToAddressWithPrefix(prefix)
}

// ToAddressWithPrefix returns the address of the key, RIPEMD160(SHA256(key)),
// labeled with prefix.
func (p PublicKey) ToAddressWithPrefix(prefix string) (address.Address,
	error) {

	return address.FromSlice(btcutil.Hash160(p.bytes[:]), prefix)
}

// AminoBytes returns the key behind the amino type prefix.
func (p PublicKey) AminoBytes() []byte {
	b := make([]byte, 0, AminoPubKeyLen)
	b = append(b, aminoPrefix[:]...)

	return append(b, p.bytes[:]...)
}

// ToBech32 renders the amino framed key as bech32 with the given human
// readable part.
func (p PublicKey) ToBech32(prefix string) (string, error) {
	if prefix == "" {
		return "", ErrEmptyPrefix
	}
	if _, err := dsutils.NewLabel(prefix); err != nil {
		return "", err
	}

	conv, err := bech32.ConvertBits(p.AminoBytes(), 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidBase32, err)
	}

	return bech32.Encode(prefix, conv)
}

// String renders the key as bech32 using its own label, or as hex if the key
// has no label.
func (p PublicKey) String() string {
	if p.prefix.IsEmpty() {
		return dsutils.BytesToHex(p.bytes[:])
	}

	s, err := p.ToBech32(p.prefix.String())
	if err != nil {
		return dsutils.BytesToHex(p.bytes[:])
	}

	return s
}

// BtcecKey parses the compressed point.
func (p PublicKey) BtcecKey() (*btcec.PublicKey, error) {
	return btcec.ParsePubKey(p.bytes[:])
}

// Verify checks a 64-byte r || s signature over digest.
func (p PublicKey) Verify(digest [32]byte, sig []byte) bool {
	pubKey, err := p.BtcecKey()
	if err != nil {
		return false
	}

	signature, err := keychain.ParseCompact(sig)
	if err != nil {
		return false
	}

	return signature.Verify(digest[:], pubKey)
}
