package txwire

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/wrapperspb"
	"pgregory.net/rapid"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()

	b, err := hex.DecodeString(s)
	require.NoError(t, err)

	return b
}

// TestMessageEncoding checks the exact bytes produced for each message type.
func TestMessageEncoding(t *testing.T) {
	t.Parallel()

	anyMsg := Any{TypeURL: "/a", Value: []byte{0x01}}

	testCases := []struct {
		name string
		msg  interface{ Encode() []byte }
		exp  string
	}{{
		name: "any",
		msg:  &anyMsg,
		exp:  "0a022f61120101",
	}, {
		name: "empty any",
		msg:  &Any{},
		exp:  "",
	}, {
		name: "tx body",
		msg: &TxBody{
			Messages:      []Any{anyMsg},
			Memo:          "m",
			TimeoutHeight: 5,
		},
		exp: "0a070a022f61120101" + "12016d" + "1805",
	}, {
		name: "tx body without memo or timeout",
		msg: &TxBody{
			Messages: []Any{anyMsg, anyMsg},
		},
		exp: "0a070a022f61120101" + "0a070a022f61120101",
	}, {
		name: "tx body extension options",
		msg: &TxBody{
			ExtensionOptions:            []Any{anyMsg},
			NonCriticalExtensionOptions: []Any{anyMsg},
		},
		exp: "fa3f070a022f61120101" + "fa7f070a022f61120101",
	}, {
		name: "fee",
		msg: &Fee{
			Amount:   []Coin{NewCoin("uatom", 100)},
			GasLimit: 200000,
		},
		exp: "0a0c0a057561746f6d1203313030" + "10c09a0c",
	}, {
		name: "fee with payer and granter",
		msg: &Fee{
			Payer:   "p",
			Granter: "g",
		},
		exp: "1a0170" + "220167",
	}, {
		name: "pubkey",
		msg:  &PubKey{Key: []byte{0x02, 0x03}},
		exp:  "0a020203",
	}, {
		name: "auth info",
		msg: &AuthInfo{
			SignerInfos: []SignerInfo{{
				PublicKey: &anyMsg,
				ModeInfo:  &ModeInfo{Single: SignModeDirect},
				Sequence:  7,
			}},
			Fee: &Fee{},
		},
		exp: "0a11" + "0a070a022f61120101" + "12040a020801" +
			"1807" + "1200",
	}, {
		name: "sign doc zero scalars",
		msg: &SignDoc{
			BodyBytes:     []byte{0xaa},
			AuthInfoBytes: []byte{0xbb},
		},
		exp: "0a01aa" + "1201bb",
	}, {
		name: "sign doc",
		msg: &SignDoc{
			BodyBytes:     []byte{0xaa},
			AuthInfoBytes: []byte{0xbb},
			ChainID:       "c",
			AccountNumber: 1,
		},
		exp: "0a01aa" + "1201bb" + "1a0163" + "2001",
	}, {
		name: "tx raw keeps empty signatures",
		msg: &TxRaw{
			BodyBytes:  []byte{0xaa},
			Signatures: [][]byte{{}, {0x01}},
		},
		exp: "0a01aa" + "1a00" + "1a0101",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.exp, hex.EncodeToString(tc.msg.Encode()))
		})
	}
}

// TestTxMatchesTxRaw asserts that the structured and the raw form of the
// same transaction encode to identical bytes.
func TestTxMatchesTxRaw(t *testing.T) {
	t.Parallel()

	body := &TxBody{
		Messages: []Any{NewMsg("/x.y.Z", []byte{1, 2, 3}).Any},
		Memo:     "memo",
	}
	pub := &PubKey{Key: bytes.Repeat([]byte{0x02}, 33)}
	authInfo := &AuthInfo{
		SignerInfos: []SignerInfo{{
			PublicKey: pub.ToAny(),
			ModeInfo:  &ModeInfo{Single: SignModeDirect},
			Sequence:  3,
		}},
		Fee: &Fee{
			Amount:   []Coin{NewCoin("stake", 1)},
			GasLimit: 100,
		},
	}
	sigs := [][]byte{bytes.Repeat([]byte{0x11}, 64)}

	tx := &Tx{Body: body, AuthInfo: authInfo, Signatures: sigs}
	raw := &TxRaw{
		BodyBytes:     body.Encode(),
		AuthInfoBytes: authInfo.Encode(),
		Signatures:    sigs,
	}
	require.Equal(t, raw.Encode(), tx.Encode())

	decoded, err := DecodeTxRaw(raw.Encode())
	require.NoError(t, err)
	require.Equal(t, raw, decoded)

	decodedAuth, err := DecodeAuthInfo(decoded.AuthInfoBytes)
	require.NoError(t, err)
	require.Equal(t, authInfo.Encode(), decodedAuth.Encode())
	require.Equal(
		t, Secp256k1PubKeyTypeURL,
		decodedAuth.SignerInfos[0].PublicKey.TypeURL,
	)
	require.Equal(t, "1stake", decodedAuth.Fee.Amount[0].String())
}

// TestTxBodyDecode checks that any body survives a decode unchanged.
func TestTxBodyDecode(t *testing.T) {
	t.Parallel()

	genAny := rapid.Custom(func(t *rapid.T) Any {
		return Any{
			TypeURL: rapid.StringMatching(`/[a-z.]{0,20}`).Draw(
				t, "url",
			),
			Value: rapid.SliceOfN(rapid.Byte(), 1, 40).Draw(
				t, "value",
			),
		}
	})

	rapid.Check(t, func(t *rapid.T) {
		body := &TxBody{
			Messages: rapid.SliceOfN(genAny, 0, 4).Draw(t, "msgs"),
			Memo:     rapid.String().Draw(t, "memo"),
			TimeoutHeight: rapid.Uint64().Draw(
				t, "timeout",
			),
			ExtensionOptions: rapid.SliceOfN(genAny, 0, 2).Draw(
				t, "ext",
			),
		}

		encoded := body.Encode()
		decoded, err := DecodeTxBody(encoded)
		require.NoError(t, err)
		require.Equal(t, encoded, decoded.Encode())
		require.Equal(t, body.Memo, decoded.Memo)
		require.Equal(t, body.TimeoutHeight, decoded.TimeoutHeight)
		require.Len(t, decoded.Messages, len(body.Messages))
	})
}

// TestDecodeErrors makes sure malformed input is rejected instead of
// silently truncated.
func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	// Length prefix larger than the remaining data.
	_, err := DecodeTxRaw(mustHex(t, "0a05aa"))
	require.Error(t, err)

	// Body bytes sent as a varint.
	_, err = DecodeTxRaw(mustHex(t, "0801"))
	require.Error(t, err)

	// Truncated tag.
	_, err = DecodeTxBody([]byte{0xfa})
	require.Error(t, err)

	// A coin amount that isn't a number.
	_, err = DecodeAuthInfo(mustHex(t, "12070a05120378797a"))
	require.Error(t, err)

	// Unknown fields are skipped.
	raw, err := DecodeTxRaw(mustHex(t, "0a01aa"+"2801"))
	require.NoError(t, err)
	require.Equal(t, []byte{0xaa}, raw.BodyBytes)
}

func TestParseCoin(t *testing.T) {
	t.Parallel()

	bigAmount, _ := new(big.Int).SetString(
		"123456789012345678901234567890", 10,
	)

	testCases := []struct {
		in     string
		amount *big.Int
		denom  string
		valid  bool
	}{
		{"50000uatom", big.NewInt(50000), "uatom", true},
		{"0stake", big.NewInt(0), "stake", true},
		{
			"1ibc/27394FB092D2ECCD56123C74F36E4C1F926001CE",
			big.NewInt(1),
			"ibc/27394FB092D2ECCD56123C74F36E4C1F926001CE",
			true,
		},
		{
			"123456789012345678901234567890anom",
			bigAmount, "anom", true,
		},
		{"uatom", nil, "", false},
		{"100", nil, "", false},
		{"-1uatom", nil, "", false},
		{"1.5uatom", nil, "", false},
		{"10 uatom", nil, "", false},
		{"1ab", nil, "", false},
		{"", nil, "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()

			coin, err := ParseCoin(tc.in)
			if !tc.valid {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.denom, coin.Denom)
			require.Zero(t, tc.amount.Cmp(coin.Amount))
			require.Equal(t, tc.in, coin.String())
		})
	}
}

func TestNewMsgFromProto(t *testing.T) {
	t.Parallel()

	msg, err := NewMsgFromProto(wrapperspb.String("hi"))
	require.NoError(t, err)
	require.Equal(t, "/google.protobuf.StringValue", msg.TypeURL)
	require.Equal(t, mustHex(t, "0a026869"), msg.Value)

	value := []byte{1, 2}
	msg = NewMsg("/a.B", value)
	value[0] = 9
	require.Equal(t, []byte{1, 2}, msg.Value)
}
