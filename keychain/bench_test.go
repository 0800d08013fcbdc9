package keychain

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
)

func BenchmarkDerivePrivKey(t *testing.B) {
	keyRing := NewSeedKeyRing(testHDSeed, CoinTypeCosmos)

	var (
		privKey *btcec.PrivateKey
		err     error
	)

	keyDesc := KeyDescriptor{
		KeyLocator: KeyLocator{
			Account: 0,
			Index:   1,
		},
	}

	t.ReportAllocs()
	t.ResetTimer()

	for i := 0; i < t.N; i++ {
		privKey, err = keyRing.DerivePrivKey(keyDesc)
	}
	require.NoError(t, err)
	require.NotNil(t, privKey)
}

func BenchmarkChildKey(t *testing.B) {
	master, err := MasterKeyFromSeed(testHDSeed)
	require.NoError(t, err)

	t.ReportAllocs()
	t.ResetTimer()

	for i := 0; i < t.N; i++ {
		_, err = ChildKey(master, uint32(i%1000), i%2 == 0)
	}
	require.NoError(t, err)
}
