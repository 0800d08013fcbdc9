package keychain

import (
	"crypto/sha256"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
)

// TestSeedKeyRingDerivation tests that the seed backed key ring hands out
// keys in order and agrees with direct derivation.
func TestSeedKeyRingDerivation(t *testing.T) {
	t.Parallel()

	keyRing := NewSeedKeyRing(testHDSeed, CoinTypeCosmos)

	const numKeys = 5
	for _, account := range []uint32{0, 1, 7} {
		for i := uint32(0); i < numKeys; i++ {
			keyDesc, err := keyRing.DeriveNextKey(account)
			require.NoError(t, err)
			require.Equal(t, account, keyDesc.Account)
			require.Equal(t, i, keyDesc.Index)

			// Deriving the same locator again must produce the
			// same public key.
			again, err := keyRing.DeriveKey(keyDesc.KeyLocator)
			require.NoError(t, err)
			require.True(t, keyDesc.PubKey.IsEqual(again.PubKey))

			scalar, err := DeriveFromSeed(
				testHDSeed, keyDesc.Path(CoinTypeCosmos),
			)
			require.NoError(t, err)
			_, pub := btcec.PrivKeyFromBytes(scalar[:])
			require.True(t, keyDesc.PubKey.IsEqual(pub))
		}
	}
}

// TestSeedKeyRingConcurrentNextKey asserts concurrent callers never receive
// the same index.
func TestSeedKeyRingConcurrentNextKey(t *testing.T) {
	t.Parallel()

	keyRing := NewSeedKeyRing(testHDSeed, CoinTypeCosmos)

	const numCallers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		indexes = make(map[uint32]struct{})
	)
	for i := 0; i < numCallers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			keyDesc, err := keyRing.DeriveNextKey(0)
			require.NoError(t, err)

			mu.Lock()
			indexes[keyDesc.Index] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, indexes, numCallers)
}

// TestSeedKeyRingDerivePrivKey tests private key derivation both from a
// locator and by scanning for a bare public key.
func TestSeedKeyRingDerivePrivKey(t *testing.T) {
	t.Parallel()

	keyRing := NewSeedKeyRing(testHDSeed, CoinTypeCosmos)

	keyDesc, err := keyRing.DeriveKey(KeyLocator{Index: 12})
	require.NoError(t, err)

	privKey, err := keyRing.DerivePrivKey(keyDesc)
	require.NoError(t, err)
	require.True(t, privKey.PubKey().IsEqual(keyDesc.PubKey))

	// Only the public key is known, the ring has to scan account zero.
	scanned, err := keyRing.DerivePrivKey(KeyDescriptor{
		PubKey: keyDesc.PubKey,
	})
	require.NoError(t, err)
	require.Equal(t, privKey.Serialize(), scanned.Serialize())

	// A public key that doesn't belong to the locator is rejected.
	other, err := keyRing.DeriveKey(KeyLocator{Account: 2, Index: 13})
	require.NoError(t, err)
	_, err = keyRing.DerivePrivKey(KeyDescriptor{
		KeyLocator: keyDesc.KeyLocator,
		PubKey:     other.PubKey,
	})
	require.ErrorIs(t, err, ErrCannotDerivePrivKey)
}

// TestDigestSigners checks that the ring backed and the private key backed
// signers produce identical, verifiable signatures.
func TestDigestSigners(t *testing.T) {
	t.Parallel()

	keyRing := NewSeedKeyRing(testHDSeed, CoinTypeCosmos)
	keyDesc, err := keyRing.DeriveKey(KeyLocator{Index: 3})
	require.NoError(t, err)
	privKey, err := keyRing.DerivePrivKey(keyDesc)
	require.NoError(t, err)

	digest := sha256.Sum256([]byte("deep space"))

	signers := []SingleKeyDigestSigner{
		NewPubKeyDigestSigner(keyDesc, keyRing),
		&PrivKeyDigestSigner{PrivKey: privKey},
	}

	var compacts [][]byte
	for _, signer := range signers {
		require.True(t, signer.PubKey().IsEqual(keyDesc.PubKey))

		sig, err := signer.SignDigest(digest)
		require.NoError(t, err)
		require.True(t, sig.Verify(digest[:], keyDesc.PubKey))

		compact, err := signer.SignDigestCompact(digest)
		require.NoError(t, err)
		require.Len(t, compact, CompactSigLen)

		parsed, err := ParseCompact(compact)
		require.NoError(t, err)
		require.True(t, parsed.IsEqual(sig))

		compacts = append(compacts, compact)
	}

	require.Equal(t, compacts[0], compacts[1])

	_, err = ParseCompact(compacts[0][:63])
	require.Error(t, err)
	_, err = ParseCompact(make([]byte, CompactSigLen))
	require.Error(t, err)
}
