package keychain

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// CompactSigLen is the length of a signature serialized as r || s.
const CompactSigLen = 64

func NewPubKeyDigestSigner(keyDesc KeyDescriptor,
	signer DigestSignerRing) *PubKeyDigestSigner {

	return &PubKeyDigestSigner{
		keyDesc:      keyDesc,
		digestSigner: signer,
	}
}

type PubKeyDigestSigner struct {
	keyDesc      KeyDescriptor
	digestSigner DigestSignerRing
}

func (p *PubKeyDigestSigner) PubKey() *btcec.PublicKey {
	return p.keyDesc.PubKey
}

func (p *PubKeyDigestSigner) SignDigest(digest [32]byte) (*ecdsa.Signature,
	error) {

	return p.digestSigner.SignDigest(p.keyDesc, digest)
}

func (p *PubKeyDigestSigner) SignDigestCompact(digest [32]byte) ([]byte,
	error) {

	return p.digestSigner.SignDigestCompact(p.keyDesc, digest)
}

type PrivKeyDigestSigner struct {
	PrivKey *btcec.PrivateKey
}

func (p *PrivKeyDigestSigner) PubKey() *btcec.PublicKey {
	return p.PrivKey.PubKey()
}

// SignDigest produces a deterministic RFC6979 signature with a low S value.
func (p *PrivKeyDigestSigner) SignDigest(digest [32]byte) (*ecdsa.Signature,
	error) {

	return ecdsa.Sign(p.PrivKey, digest[:]), nil
}

func (p *PrivKeyDigestSigner) SignDigestCompact(digest [32]byte) ([]byte,
	error) {

	sig, err := p.SignDigest(digest)
	if err != nil {
		return nil, err
	}

	return SerializeCompact(sig), nil
}

// SerializeCompact encodes sig as the 32-byte big endian r followed by the
// 32-byte big endian s. There is no DER framing and no recovery byte.
func SerializeCompact(sig *ecdsa.Signature) []byte {
	r, s := sig.R(), sig.S()
	rBytes, sBytes := r.Bytes(), s.Bytes()

	out := make([]byte, 0, CompactSigLen)
	out = append(out, rBytes[:]...)
	out = append(out, sBytes[:]...)

	return out
}

// ParseCompact is the inverse of SerializeCompact.
func ParseCompact(b []byte) (*ecdsa.Signature, error) {
	if len(b) != CompactSigLen {
		return nil, fmt.Errorf("compact signature must be %d bytes, "+
			"got %d", CompactSigLen, len(b))
	}

	var r, s btcec.ModNScalar
	if r.SetByteSlice(b[:32]) || r.IsZero() {
		return nil, fmt.Errorf("invalid signature r value")
	}
	if s.SetByteSlice(b[32:]) || s.IsZero() {
		return nil, fmt.Errorf("invalid signature s value")
	}

	return ecdsa.NewSignature(&r, &s), nil
}

var _ SingleKeyDigestSigner = (*PubKeyDigestSigner)(nil)
var _ SingleKeyDigestSigner = (*PrivKeyDigestSigner)(nil)
