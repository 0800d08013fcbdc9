package keychain

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/onomyprotocol/deep-space/dsutils"
)

// SeedKeyRing is an implementation of both the KeyRing and SecretKeyRing
// interfaces backed directly by a BIP0039 seed. Every key is derived from the
// seed on demand along m/44'/coinType'/account'/0/index, so the ring holds no
// key material besides the seed itself.
type SeedKeyRing struct {
	// seed is the stretched BIP0039 seed all keys are derived from.
	seed []byte

	// coinType is the BIP0044 coin type of the chain the keys are used
	// on.
	coinType uint32

	// mu guards nextIndex.
	mu sync.Mutex

	// nextIndex tracks the next unused index of every account that
	// DeriveNextKey has handed keys out of.
	nextIndex map[uint32]uint32
}

// NewSeedKeyRing creates a new implementation of the keychain.SecretKeyRing
// interface backed by the passed seed. The seed is copied.
func NewSeedKeyRing(seed []byte, coinType uint32) *SeedKeyRing {
	return &SeedKeyRing{
		seed:      bytes.Clone(seed),
		coinType:  coinType,
		nextIndex: make(map[uint32]uint32),
	}
}

// derivePrivKey derives the private key for a locator.
func (s *SeedKeyRing) derivePrivKey(keyLoc KeyLocator) (*btcec.PrivateKey,
	error) {

	scalar, err := DeriveFromSeed(s.seed, keyLoc.Path(s.coinType))
	if err != nil {
		return nil, err
	}

	privKey, _ := btcec.PrivKeyFromBytes(scalar[:])

	return privKey, nil
}

// DeriveNextKey attempts to derive the *next* key within the account
// specified. Indexes are handed out in order starting at zero.
//
// NOTE: This is part of the keychain.KeyRing interface.
func (s *SeedKeyRing) DeriveNextKey(account uint32) (KeyDescriptor, error) {
	// Reserve the index up front so concurrent callers never receive the
	// same key. An index whose derivation fails stays consumed.
	s.mu.Lock()
	index := s.nextIndex[account]
	s.nextIndex[account] = index + 1
	s.mu.Unlock()

	return s.DeriveKey(KeyLocator{Account: account, Index: index})
}

// DeriveKey attempts to derive an arbitrary key specified by the passed
// KeyLocator.
//
// NOTE: This is part of the keychain.KeyRing interface.
func (s *SeedKeyRing) DeriveKey(keyLoc KeyLocator) (KeyDescriptor, error) {
	privKey, err := s.derivePrivKey(keyLoc)
	if err != nil {
		return KeyDescriptor{}, err
	}

	pubKey := privKey.PubKey()
	log.DebugS(context.TODO(), "Derived key",
		slog.Uint64("account", uint64(keyLoc.Account)),
		slog.Uint64("index", uint64(keyLoc.Index)),
		dsutils.LogPubKey("pubkey", pubKey.SerializeCompressed()))

	return KeyDescriptor{
		KeyLocator: keyLoc,
		PubKey:     pubKey,
	}, nil
}

// DerivePrivKey attempts to derive the private key that corresponds to the
// passed key descriptor.
//
// NOTE: This is part of the keychain.SecretKeyRing interface.
func (s *SeedKeyRing) DerivePrivKey(keyDesc KeyDescriptor) (*btcec.PrivateKey,
	error) {

	// If the public key isn't set or they have a non-empty locator, then
	// we can derive the key directly.
	if keyDesc.PubKey == nil || !keyDesc.KeyLocator.IsEmpty() {
		privKey, err := s.derivePrivKey(keyDesc.KeyLocator)
		if err != nil {
			return nil, err
		}

		if keyDesc.PubKey != nil &&
			!privKey.PubKey().IsEqual(keyDesc.PubKey) {

			return nil, fmt.Errorf("%w: public key does not "+
				"match locator", ErrCannotDerivePrivKey)
		}

		return privKey, nil
	}

	// Otherwise we only know the public key, so we'll scan the account
	// in order until we find it.
	for i := uint32(0); i < MaxKeyRangeScan; i++ {
		keyLoc := KeyLocator{Account: keyDesc.Account, Index: i}
		privKey, err := s.derivePrivKey(keyLoc)
		if err != nil {
			return nil, err
		}

		if privKey.PubKey().IsEqual(keyDesc.PubKey) {
			return privKey, nil
		}
	}

	return nil, ErrCannotDerivePrivKey
}

// SignDigest signs the given SHA256 digest with the private key described by
// the key descriptor.
//
// NOTE: This is part of the keychain.DigestSignerRing interface.
func (s *SeedKeyRing) SignDigest(keyDesc KeyDescriptor,
	digest [32]byte) (*ecdsa.Signature, error) {

	privKey, err := s.DerivePrivKey(keyDesc)
	if err != nil {
		return nil, err
	}

	signer := &PrivKeyDigestSigner{PrivKey: privKey}

	return signer.SignDigest(digest)
}

// SignDigestCompact signs the given SHA256 digest with the private key
// described by the key descriptor and returns 64 bytes of r || s.
//
// NOTE: This is part of the keychain.DigestSignerRing interface.
func (s *SeedKeyRing) SignDigestCompact(keyDesc KeyDescriptor,
	digest [32]byte) ([]byte, error) {

	privKey, err := s.DerivePrivKey(keyDesc)
	if err != nil {
		return nil, err
	}

	signer := &PrivKeyDigestSigner{PrivKey: privKey}

	return signer.SignDigestCompact(digest)
}

var _ SecretKeyRing = (*SeedKeyRing)(nil)
