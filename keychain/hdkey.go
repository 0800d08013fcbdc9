package keychain

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
)

// masterKeyHMACKey is the HMAC key that separates BIP0032 master key
// generation from any other use of HMAC-SHA512 over the seed.
var masterKeyHMACKey = []byte("Bitcoin seed")

// HDKey is a private scalar together with the chain code needed to derive
// its children.
type HDKey struct {
	// Scalar is the big endian private scalar.
	Scalar [32]byte

	// ChainCode is the extra entropy mixed into every child derivation.
	ChainCode [32]byte
}

// MasterKeyFromSeed computes the BIP0032 master key of a seed. The seed is
// usually the output of BIP0039 mnemonic stretching.
func MasterKeyFromSeed(seed []byte) (HDKey, error) {
	var master HDKey

	mac := hmac.New(sha512.New, masterKeyHMACKey)
	_, _ = mac.Write(seed)
	lr := mac.Sum(nil)

	copy(master.Scalar[:], lr[:32])
	copy(master.ChainCode[:], lr[32:])

	if _, err := scalarFromBytes(master.Scalar); err != nil {
		return HDKey{}, ErrUnusableSeed
	}

	return master, nil
}

// ChildKey derives the child of parent at index, which must be below 2^31.
// Hardened children mix in the parent scalar, regular children the parent's
// compressed public key:
//
//	I = HMAC-SHA512(c_par, 0x00 || k_par || ser32(2^31 + index))  hardened
//	I = HMAC-SHA512(c_par, ser_P(k_par * G) || ser32(index))      regular
//	k_child = I_L + k_par (mod n), c_child = I_R
func ChildKey(parent HDKey, index uint32, hardened bool) (HDKey, error) {
	if index >= HardenedKeyStart {
		return HDKey{}, fmt.Errorf("%w: index %d out of range",
			ErrInvalidChild, index)
	}

	parentScalar, err := scalarFromBytes(parent.Scalar)
	if err != nil {
		return HDKey{}, fmt.Errorf("%w: parent: %v", ErrInvalidChild,
			err)
	}

	step := PathStep{Index: index, Hardened: hardened}

	var indexBytes [4]byte
	binary.BigEndian.PutUint32(indexBytes[:], step.ChildIndex())

	mac := hmac.New(sha512.New, parent.ChainCode[:])
	if hardened {
		_, _ = mac.Write([]byte{0x00})
		_, _ = mac.Write(parent.Scalar[:])
	} else {
		pub := btcec.PrivKeyFromScalar(&parentScalar).PubKey()
		_, _ = mac.Write(pub.SerializeCompressed())
	}
	_, _ = mac.Write(indexBytes[:])
	lr := mac.Sum(nil)

	var il [32]byte
	copy(il[:], lr[:32])
	childScalar, err := scalarFromBytes(il)
	if err != nil {
		return HDKey{}, fmt.Errorf("%w: I_L at %v: %v", ErrInvalidChild,
			step, err)
	}

	childScalar.Add(&parentScalar)
	if childScalar.IsZero() {
		return HDKey{}, fmt.Errorf("%w: zero scalar at %v",
			ErrInvalidChild, step)
	}

	child := HDKey{Scalar: childScalar.Bytes()}
	copy(child.ChainCode[:], lr[32:])

	return child, nil
}

// DeriveHDKey walks path starting from the master key of seed and returns the
// key at its end, chain code included.
func DeriveHDKey(seed []byte, path DerivationPath) (HDKey, error) {
	key, err := MasterKeyFromSeed(seed)
	if err != nil {
		return HDKey{}, err
	}

	for _, step := range path {
		key, err = ChildKey(key, step.Index, step.Hardened)
		if err != nil {
			return HDKey{}, err
		}
	}

	log.Tracef("Derived key at %v", path)

	return key, nil
}

// DeriveFromSeed walks path starting from the master key of seed and returns
// the scalar at its end. Intermediate chain codes are dropped.
func DeriveFromSeed(seed []byte, path DerivationPath) ([32]byte, error) {
	key, err := DeriveHDKey(seed, path)
	if err != nil {
		return [32]byte{}, err
	}

	return key.Scalar, nil
}

// scalarFromBytes interprets b as a big endian scalar and checks that it lies
// in [1, n-1].
func scalarFromBytes(b [32]byte) (btcec.ModNScalar, error) {
	var s btcec.ModNScalar
	if overflow := s.SetBytes(&b); overflow != 0 {
		return s, fmt.Errorf("scalar not below curve order")
	}
	if s.IsZero() {
		return s, fmt.Errorf("scalar is zero")
	}

	return s, nil
}
