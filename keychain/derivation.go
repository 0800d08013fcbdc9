package keychain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

const (
	// BIP0044Purpose is the "purpose" value of the BIP0044 derivation
	// scheme. Cosmos wallets derive all account keys under this purpose
	// followed by the coin type of the chain.
	BIP0044Purpose = 44

	// CoinTypeCosmos is the SLIP-0044 coin type registered for the Cosmos
	// hub and used by most chains built on the Cosmos SDK.
	CoinTypeCosmos uint32 = 118

	// HardenedKeyStart is the index of the first hardened child. A
	// hardened step at index i is encoded as HardenedKeyStart + i.
	HardenedKeyStart uint32 = 1 << 31

	// DefaultPath is the path that nearly every Cosmos wallet uses for its
	// first key, m/44'/118'/0'/0/0.
	DefaultPath = "m/44'/118'/0'/0/0"

	// pathRoot is the literal marking the master key in a textual path.
	pathRoot = "m"

	// hardenedMarker is the suffix that marks a hardened path step.
	hardenedMarker = "'"
)

var (
	// MaxKeyRangeScan is the maximum number of keys that we'll attempt to
	// scan with if a caller knows the public key, but not the KeyLocator
	// and wishes to derive a private key.
	MaxKeyRangeScan uint32 = 10000

	// ErrKeyDerivation is the root of every key derivation failure so that
	// callers can match the whole category with errors.Is.
	ErrKeyDerivation = errors.New("key derivation failed")

	// ErrUnusableSeed is returned when the master scalar computed from a
	// seed is zero or not below the curve order.
	ErrUnusableSeed = fmt.Errorf("%w: unusable seed", ErrKeyDerivation)

	// ErrInvalidChild is returned when a child step produces a scalar
	// that is not valid for the curve. Per BIP0032 the caller should move
	// on to the next index; we never do that silently.
	ErrInvalidChild = fmt.Errorf("%w: invalid child", ErrKeyDerivation)

	// ErrCannotDerivePrivKey is returned when DerivePrivKey is unable to
	// derive a private key given only the public key and target account.
	ErrCannotDerivePrivKey = fmt.Errorf("%w: unable to derive private "+
		"key", ErrKeyDerivation)
)

// ErrInvalidPath is returned when a textual derivation path can't be parsed.
type ErrInvalidPath struct {
	// Path is the offending path text.
	Path string

	// Reason describes which rule the path broke.
	Reason string
}

// Error returns a human readable description of the path error.
func (e ErrInvalidPath) Error() string {
	return fmt.Sprintf("invalid derivation path %q: %s", e.Path, e.Reason)
}

// Is makes ErrInvalidPath part of the ErrKeyDerivation category.
func (e ErrInvalidPath) Is(target error) bool {
	return target == ErrKeyDerivation
}

// PathStep is a single step of a derivation path.
type PathStep struct {
	// Index is the child index, always below HardenedKeyStart.
	Index uint32

	// Hardened marks a hardened derivation step.
	Hardened bool
}

// ChildIndex returns the 32-bit index used on the wire, which includes the
// hardened offset.
func (p PathStep) ChildIndex() uint32 {
	if p.Hardened {
		return HardenedKeyStart + p.Index
	}

	return p.Index
}

// String renders the step as it appears in a textual path.
func (p PathStep) String() string {
	s := strconv.FormatUint(uint64(p.Index), 10)
	if p.Hardened {
		s += hardenedMarker
	}

	return s
}

// DerivationPath is an ordered list of steps below the master key.
type DerivationPath []PathStep

// String renders the path in the m/44'/118'/0'/0/0 notation.
func (d DerivationPath) String() string {
	var b strings.Builder
	b.WriteString(pathRoot)
	for _, step := range d {
		b.WriteByte('/')
		b.WriteString(step.String())
	}

	return b.String()
}

// ParsePath parses a textual derivation path. The path must start with the
// root marker "m", must not contain a backslash, and every following slash
// separated segment must be a decimal index below 2^31 optionally followed by
// a single ' marking a hardened step.
func ParsePath(path string) (DerivationPath, error) {
	if !strings.HasPrefix(path, pathRoot) {
		return nil, ErrInvalidPath{
			Path: path, Reason: "missing root marker",
		}
	}
	if strings.Contains(path, `\`) {
		return nil, ErrInvalidPath{
			Path: path, Reason: "backslash not allowed",
		}
	}

	segments := strings.Split(path, "/")
	if segments[0] != pathRoot {
		return nil, ErrInvalidPath{
			Path: path, Reason: "malformed root segment",
		}
	}

	steps := make(DerivationPath, 0, len(segments)-1)
	for _, seg := range segments[1:] {
		var step PathStep
		if strings.HasSuffix(seg, hardenedMarker) {
			step.Hardened = true
			seg = strings.TrimSuffix(seg, hardenedMarker)
		}

		index, err := strconv.ParseUint(seg, 10, 31)
		if err != nil {
			return nil, ErrInvalidPath{
				Path:   path,
				Reason: fmt.Sprintf("bad segment %q", seg),
			}
		}
		step.Index = uint32(index)

		steps = append(steps, step)
	}

	return steps, nil
}

// KeyLocator is a two-tuple that can be used to derive any key of a Cosmos
// wallet that follows BIP0044:
//
//   - m/44'/coinType'/account'/0/index
//
// The change branch is always 0 (external) as Cosmos wallets never use the
// internal branch.
type KeyLocator struct {
	// Account is the hardened BIP0044 account of the key.
	Account uint32

	// Index is the precise index of the key within the account.
	Index uint32
}

// IsEmpty returns true if a KeyLocator is "empty". This may be the case where
// we learn of a key from a remote party but don't know the precise details of
// its derivation.
func (k KeyLocator) IsEmpty() bool {
	return k.Account == 0 && k.Index == 0
}

// Path returns the full derivation path of the locator for the given coin
// type.
func (k KeyLocator) Path(coinType uint32) DerivationPath {
	return DerivationPath{
		{Index: BIP0044Purpose, Hardened: true},
		{Index: coinType, Hardened: true},
		{Index: k.Account, Hardened: true},
		{Index: 0},
		{Index: k.Index},
	}
}

// KeyDescriptor wraps a KeyLocator and also optionally includes a public key.
// Either the KeyLocator must be non-empty, or the public key pointer be
// non-nil.
type KeyDescriptor struct {
	// KeyLocator is the internal KeyLocator of the descriptor.
	KeyLocator

	// PubKey is an optional public key that fully describes a target key.
	// If this is nil, the KeyLocator MUST NOT be empty.
	PubKey *btcec.PublicKey
}

// KeyRing is the primary interface used to derive account keys from a
// wallet seed.
type KeyRing interface {
	// DeriveNextKey attempts to derive the *next* key within the
	// account specified.
	DeriveNextKey(account uint32) (KeyDescriptor, error)

	// DeriveKey attempts to derive an arbitrary key specified by the
	// passed KeyLocator.
	DeriveKey(keyLoc KeyLocator) (KeyDescriptor, error)
}

// SecretKeyRing is a ring similar to the regular KeyRing interface, but it is
// also able to derive *private keys* and sign with them.
type SecretKeyRing interface {
	KeyRing

	DigestSignerRing

	// DerivePrivKey attempts to derive the private key that corresponds to
	// the passed key descriptor. If the public key is set and the locator
	// is empty, then this method will perform an in-order scan over the
	// account, with a max of MaxKeyRangeScan keys.
	DerivePrivKey(keyDesc KeyDescriptor) (*btcec.PrivateKey, error)
}

// DigestSignerRing is an interface that abstracts away basic low-level ECDSA
// signing of 32-byte digests with keys within a key ring.
type DigestSignerRing interface {
	// SignDigest signs the given SHA256 digest with the private key
	// described by the key descriptor.
	SignDigest(keyDesc KeyDescriptor, digest [32]byte) (*ecdsa.Signature,
		error)

	// SignDigestCompact signs the given SHA256 digest with the private
	// key described by the key descriptor and returns the signature as
	// 64 bytes of r || s.
	SignDigestCompact(keyDesc KeyDescriptor, digest [32]byte) ([]byte,
		error)
}

// SingleKeyDigestSigner is an abstraction interface that hides the
// implementation of the low-level ECDSA signing operations by wrapping a
// single, specific private key.
type SingleKeyDigestSigner interface {
	// PubKey returns the public key of the wrapped private key.
	PubKey() *btcec.PublicKey

	// SignDigest signs the given SHA256 digest with the wrapped private
	// key.
	SignDigest(digest [32]byte) (*ecdsa.Signature, error)

	// SignDigestCompact signs the given SHA256 digest with the wrapped
	// private key and returns the signature as 64 bytes of r || s.
	SignDigestCompact(digest [32]byte) ([]byte, error)
}
