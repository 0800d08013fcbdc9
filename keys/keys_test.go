package keys

import (
	"math/big"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/onomyprotocol/deep-space/dsutils"
	"github.com/onomyprotocol/deep-space/keychain"
	"github.com/onomyprotocol/deep-space/txbuilder"
	"github.com/onomyprotocol/deep-space/txwire"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const (
	testPhrase = "purse sure leg gap above pull rescue glass circle " +
		"attract erupt can sail gasp shy clarify inflict anger sketch " +
		"hobby scare mad reject where"

	testPhraseAddr   = "cosmos1t0sgxmpxafdfjd3k6kgg50kdgn4muh5t0phml6"
	testPhrasePubKey = "cosmospub1addwnpepqfn2xmm5g2uackkn62ew309n3paf0" +
		"xzhug6xshv4a4yq4algm9ksugt2dx6"

	mySecretScalar = "d0be733429432f7f00d425e1ab003412afa75d41fe280d8bb2e" +
		"b3e82fefc56b7"
	mySecretPubKey = "029651a9aac4c22b27b3019aee6df746266e1ae746ee79772a6" +
		"e5ead198ebd07c3"
	mySecretAddr   = "cosmos1nx7vqq8hsy8chwe27mcr4cmazdwus7zjl2ds0p"
	mySecretBech32 = "cosmospub1addwnpepq2t9r2d2cnpzkfanqxdwum0hgcnxuxh8g" +
		"mh8jae2de026xvwh5ruxuv5let"
)

func mustPubKey(t *testing.T, hexKey, prefix string) PublicKey {
	t.Helper()

	b, err := dsutils.HexToBytes(hexKey)
	require.NoError(t, err)

	key, err := PublicKeyFromSlice(b, prefix)
	require.NoError(t, err)

	return key
}

// TestPrivateKeyFromSecret pins the deterministic reduction of a secret.
func TestPrivateKeyFromSecret(t *testing.T) {
	t.Parallel()

	key := PrivateKeyFromSecret([]byte("mySecret"))
	require.Equal(t, mySecretScalar, key.Hex())

	pubKey, err := key.ToPublicKey(DefaultPrefix)
	require.NoError(t, err)
	require.Equal(t, mySecretPubKey, dsutils.BytesToHex(pubKey.Bytes()))
	require.Equal(t, mySecretBech32, pubKey.String())

	addr, err := pubKey.ToAddress()
	require.NoError(t, err)
	require.Equal(t, mySecretAddr, addr.String())

	addr, err = key.ToAddress("cosmos")
	require.NoError(t, err)
	require.Equal(t, mySecretAddr, addr.String())
}

// TestPrivateKeyFromSecretRange checks that every secret, including the empty
// one, maps to a scalar in [1, n-1].
func TestPrivateKeyFromSecretRange(t *testing.T) {
	t.Parallel()

	n := btcec.Params().N

	rapid.Check(t, func(t *rapid.T) {
		secret := rapid.SliceOfN(rapid.Byte(), 0, 128).Draw(
			t, "secret",
		)

		key := PrivateKeyFromSecret(secret)
		require.Equal(t, key, PrivateKeyFromSecret(secret))

		scalar := key.Bytes()
		k := new(big.Int).SetBytes(scalar[:])
		require.Positive(t, k.Sign())
		require.Negative(t, k.Cmp(n))

		_, err := key.btcecKey()
		require.NoError(t, err)
	})
}

// TestPrivateKeyHexRoundTrip asserts that valid scalars survive a trip
// through their hex encoding.
func TestPrivateKeyHexRoundTrip(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		var raw [PrivateKeyLen]byte
		copy(raw[:], rapid.SliceOfN(
			rapid.Byte(), PrivateKeyLen, PrivateKeyLen,
		).Draw(t, "scalar"))

		key := PrivateKeyFromArray(raw)
		if _, err := key.btcecKey(); err != nil {
			t.Skip("not a valid scalar")
		}

		parsed, err := ParsePrivateKey(key.Hex())
		require.NoError(t, err)
		require.Equal(t, key, parsed)

		parsed, err = ParsePrivateKey("0x" + strings.ToUpper(key.Hex()))
		require.NoError(t, err)
		require.Equal(t, key, parsed)
	})
}

// TestPrivateKeyFromPhrase derives the default key of a known mnemonic.
func TestPrivateKeyFromPhrase(t *testing.T) {
	t.Parallel()

	key, err := PrivateKeyFromPhrase(testPhrase, "")
	require.NoError(t, err)

	pubKey, err := key.ToPublicKey("cosmospub")
	require.NoError(t, err)
	require.Equal(t, testPhrasePubKey, pubKey.String())

	addr, err := pubKey.ToAddress()
	require.NoError(t, err)
	require.Equal(t, testPhraseAddr, addr.String())

	// The explicit default path yields the same key, and any other path
	// a different one.
	sameKey, err := PrivateKeyFromHDWalletPath(
		keychain.DefaultPath, testPhrase, "",
	)
	require.NoError(t, err)
	require.Equal(t, key, sameKey)

	otherKey, err := PrivateKeyFromHDWalletPath(
		"m/44'/118'/0'/0/1", testPhrase, "",
	)
	require.NoError(t, err)
	require.NotEqual(t, key, otherKey)

	// So does a passphrase.
	otherKey, err = PrivateKeyFromPhrase(testPhrase, "hunter2")
	require.NoError(t, err)
	require.NotEqual(t, key, otherKey)
}

func TestPrivateKeyFromPhraseErrors(t *testing.T) {
	t.Parallel()

	_, err := PrivateKeyFromPhrase("", "")
	require.ErrorIs(t, err, ErrEmptyPhrase)

	_, err = PrivateKeyFromPhrase("bad phrase", "")
	require.Error(t, err)

	var pathErr keychain.ErrInvalidPath
	_, err = PrivateKeyFromHDWalletPath(`m\44'/118'`, testPhrase, "")
	require.ErrorAs(t, err, &pathErr)
	require.ErrorIs(t, err, keychain.ErrKeyDerivation)

	_, err = PrivateKeyFromHDWalletPath("44'/118'/0'", testPhrase, "")
	require.ErrorAs(t, err, &pathErr)

	_, err = PrivateKeyFromHDWalletPath("m/44'/x", testPhrase, "")
	require.ErrorAs(t, err, &pathErr)
	require.Equal(t, "m/44'/x", pathErr.Path)
}

func TestParsePrivateKey(t *testing.T) {
	t.Parallel()

	phraseKey, err := PrivateKeyFromPhrase(testPhrase, "")
	require.NoError(t, err)

	key, err := ParsePrivateKey(testPhrase)
	require.NoError(t, err)
	require.Equal(t, phraseKey, key)

	key, err = ParsePrivateKey(mySecretScalar)
	require.NoError(t, err)
	require.Equal(t, PrivateKeyFromSecret([]byte("mySecret")), key)

	// Only hex digits but an odd count: the hex error is surfaced rather
	// than retrying as a phrase.
	_, err = ParsePrivateKey("abc")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrEmptyPhrase)
	require.Contains(t, err.Error(), "invalid hex")

	var lenErr ErrWrongLength
	_, err = ParsePrivateKey(mySecretScalar[2:])
	require.ErrorAs(t, err, &lenErr)
	require.Equal(t, ErrWrongLength{
		Kind: KindScalar, Expected: 32, Actual: 31,
	}, lenErr)

	// The curve order itself isn't a valid scalar.
	_, err = ParsePrivateKey(
		"fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141",
	)
	require.ErrorIs(t, err, ErrInvalidScalar)

	_, err = PrivateKeyFromBytes(make([]byte, 32))
	require.ErrorIs(t, err, ErrInvalidScalar)
}

// TestLazyScalarValidation shows that an unusable array scalar is only
// reported once the key is used.
func TestLazyScalarValidation(t *testing.T) {
	t.Parallel()

	key := PrivateKeyFromArray([PrivateKeyLen]byte{})

	_, err := key.ToPublicKey(DefaultPrefix)
	require.ErrorIs(t, err, ErrInvalidScalar)

	_, err = key.ToAddress("cosmos")
	require.ErrorIs(t, err, ErrInvalidScalar)

	_, err = key.SignStdMsg(nil, txbuilder.MessageArgs{}, "")
	require.ErrorIs(t, err, ErrInvalidScalar)

	_, err = key.GetSignedTx(nil, txbuilder.MessageArgs{}, "")
	require.ErrorIs(t, err, ErrInvalidScalar)
}

func TestPrivateKeyStringRedacted(t *testing.T) {
	t.Parallel()

	key := PrivateKeyFromSecret([]byte("mySecret"))
	require.NotContains(t, key.String(), mySecretScalar[:8])
}

// TestSignStdMsg signs a transaction through the key and verifies the
// signature with the matching public key.
func TestSignStdMsg(t *testing.T) {
	t.Parallel()

	key := PrivateKeyFromSecret([]byte("mySecret"))
	msgs := []txwire.Msg{txwire.NewMsg("/a.B", []byte{1})}
	args := txbuilder.MessageArgs{
		Sequence: 1,
		Fee: txwire.Fee{
			Amount:   []txwire.Coin{txwire.NewCoin("anom", 1)},
			GasLimit: 100000,
		},
		ChainID:       "chain",
		AccountNumber: 2,
	}

	raw, err := key.SignStdMsg(msgs, args, "memo")
	require.NoError(t, err)

	again, err := key.SignStdMsg(msgs, args, "memo")
	require.NoError(t, err)
	require.Equal(t, raw, again)

	tx, err := key.GetSignedTx(msgs, args, "memo")
	require.NoError(t, err)
	require.Equal(t, raw, tx.Encode())

	txRaw, err := txwire.DecodeTxRaw(raw)
	require.NoError(t, err)

	signDoc := &txwire.SignDoc{
		BodyBytes:     txRaw.BodyBytes,
		AuthInfoBytes: txRaw.AuthInfoBytes,
		ChainID:       args.ChainID,
		AccountNumber: args.AccountNumber,
	}
	digest := [32]byte(chainhash.HashH(signDoc.Encode()))

	pubKey, err := key.ToPublicKey(DefaultPrefix)
	require.NoError(t, err)
	require.True(t, pubKey.Verify(digest, txRaw.Signatures[0]))

	digest[0] ^= 1
	require.False(t, pubKey.Verify(digest, txRaw.Signatures[0]))
}
