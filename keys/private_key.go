package keys

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cosmos/go-bip39"
	"github.com/onomyprotocol/deep-space/address"
	"github.com/onomyprotocol/deep-space/dsutils"
	"github.com/onomyprotocol/deep-space/keychain"
	"github.com/onomyprotocol/deep-space/txbuilder"
	"github.com/onomyprotocol/deep-space/txwire"
)

// PrivateKeyLen is the length of a serialized private key.
const PrivateKeyLen = 32

// nMinusOne is the curve order minus one, the modulus used to reduce secrets
// into a scalar.
var nMinusOne = new(big.Int).Sub(btcec.Params().N, big.NewInt(1))

// PrivateKey is a secp256k1 private key scalar in big endian form.
// PrivateKeys are comparable values and safe for concurrent use.
type PrivateKey struct {
	scalar [PrivateKeyLen]byte
}

// PrivateKeyFromArray wraps a raw scalar without validating it. A scalar that
// is zero or not below the curve order is only reported once the key is used.
func PrivateKeyFromArray(b [PrivateKeyLen]byte) PrivateKey {
	return PrivateKey{scalar: b}
}

// PrivateKeyFromBytes creates a private key from a 32-byte slice and checks
// that it is a valid scalar.
func PrivateKeyFromBytes(b []byte) (PrivateKey, error) {
	if len(b) != PrivateKeyLen {
		return PrivateKey{}, ErrWrongLength{
			Kind:     KindScalar,
			Expected: PrivateKeyLen,
			Actual:   len(b),
		}
	}

	var key PrivateKey
	copy(key.scalar[:], b)

	if _, err := key.btcecKey(); err != nil {
		return PrivateKey{}, err
	}

	return key, nil
}

// PrivateKeyFromSecret deterministically maps a secret of any length to a
// valid private key: the SHA256 of the secret is reduced modulo n-1 and
// incremented, so the result always lies in [1, n-1].
func PrivateKeyFromSecret(secret []byte) PrivateKey {
	digest := new(big.Int).SetBytes(chainhash.HashB(secret))
	digest.Mod(digest, nMinusOne)
	digest.Add(digest, big.NewInt(1))

	var key PrivateKey
	digest.FillBytes(key.scalar[:])

	return key
}

// PrivateKeyFromPhrase derives the key at keychain.DefaultPath from a BIP39
// seed phrase and an optional passphrase.
func PrivateKeyFromPhrase(phrase, passphrase string) (PrivateKey, error) {
	if phrase == "" {
		return PrivateKey{}, ErrEmptyPhrase
	}

	return PrivateKeyFromHDWalletPath(keychain.DefaultPath, phrase,
		passphrase)
}

// PrivateKeyFromHDWalletPath derives the key at path from a BIP39 seed
// phrase and an optional passphrase.
func PrivateKeyFromHDWalletPath(path, phrase,
	passphrase string) (PrivateKey, error) {

	derivationPath, err := keychain.ParsePath(path)
	if err != nil {
		return PrivateKey{}, err
	}

	if phrase == "" {
		return PrivateKey{}, ErrEmptyPhrase
	}

	seed, err := bip39.NewSeedWithErrorChecking(phrase, passphrase)
	if err != nil {
		return PrivateKey{}, fmt.Errorf("invalid seed phrase: %w", err)
	}

	scalar, err := keychain.DeriveFromSeed(seed, derivationPath)
	if err != nil {
		return PrivateKey{}, err
	}

	log.Debugf("Derived private key at %v", derivationPath)

	return PrivateKey{scalar: scalar}, nil
}

// ParsePrivateKey parses either a hex encoded scalar or a seed phrase. Input
// that fails to decode as hex but only holds hex digits is reported as a hex
// error rather than being retried as a phrase.
func ParsePrivateKey(s string) (PrivateKey, error) {
	b, err := dsutils.HexToBytes(s)
	switch {
	case err == nil:
		return PrivateKeyFromBytes(b)

	case dsutils.ContainsNonHexChars(strings.TrimPrefix(s, "0x")):
		return PrivateKeyFromPhrase(s, "")

	default:
		return PrivateKey{}, err
	}
}

// btcecKey validates the scalar and returns it as a btcec private key.
func (p PrivateKey) btcecKey() (*btcec.PrivateKey, error) {
	var s btcec.ModNScalar
	if overflow := s.SetBytes(&p.scalar); overflow != 0 {
		return nil, fmt.Errorf("%w: not below curve order",
			ErrInvalidScalar)
	}
	if s.IsZero() {
		return nil, fmt.Errorf("%w: zero", ErrInvalidScalar)
	}

	return btcec.PrivKeyFromScalar(&s), nil
}

// Bytes returns the raw scalar.
func (p PrivateKey) Bytes() [PrivateKeyLen]byte {
	return p.scalar
}

// Hex returns the lower case hex encoding of the scalar.
func (p PrivateKey) Hex() string {
	return dsutils.BytesToHex(p.scalar[:])
}

// String implements fmt.Stringer without revealing the scalar, so keys can
// end up in log lines by accident without leaking.
func (p PrivateKey) String() string {
	return "PrivateKey(<redacted>)"
}

// Signer returns a digest signer backed by this key.
func (p PrivateKey) Signer() (*keychain.PrivKeyDigestSigner, error) {
	privKey, err := p.btcecKey()
	if err != nil {
		return nil, err
	}

	return &keychain.PrivKeyDigestSigner{PrivKey: privKey}, nil
}

// ToPublicKey returns the compressed public key of the scalar labeled with
// prefix.
func (p PrivateKey) ToPublicKey(prefix string) (PublicKey, error) {
	privKey, err := p.btcecKey()
	if err != nil {
		return PublicKey{}, err
	}

	var point [PublicKeyLen]byte
	copy(point[:], privKey.PubKey().SerializeCompressed())

	return PublicKeyFromBytes(point, prefix)
}

// ToAddress returns the account address of the key rendered with prefix.
func (p PrivateKey) ToAddress(prefix string) (address.Address, error) {
	pubKey, err := p.ToPublicKey("")
	if err != nil {
		return address.Address{}, err
	}

	return pubKey.ToAddressWithPrefix(prefix)
}

// GetSignedTx signs msgs and returns the transaction in the structured form
// used for simulation.
func (p PrivateKey) GetSignedTx(msgs []txwire.Msg, args txbuilder.MessageArgs,
	memo string) (*txwire.Tx, error) {

	signer, err := p.Signer()
	if err != nil {
		return nil, err
	}

	return txbuilder.GetSignedTx(signer, msgs, args, memo)
}

// SignStdMsg signs msgs and returns the encoded transaction ready to be
// broadcast.
func (p PrivateKey) SignStdMsg(msgs []txwire.Msg, args txbuilder.MessageArgs,
	memo string) ([]byte, error) {

	signer, err := p.Signer()
	if err != nil {
		return nil, err
	}

	return txbuilder.SignStdMsg(signer, msgs, args, memo)
}
