package txwire

import (
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	// Secp256k1PubKeyTypeURL identifies a secp256k1 public key packed in
	// an Any.
	Secp256k1PubKeyTypeURL = "/cosmos.crypto.secp256k1.PubKey"

	// SignModeDirect selects SIGN_MODE_DIRECT, where the signer signs the
	// SHA256 of the encoded SignDoc.
	SignModeDirect int32 = 1
)

// Field numbers of TxBody that live outside the normal range.
const (
	fieldExtensionOptions            protowire.Number = 1023
	fieldNonCriticalExtensionOptions protowire.Number = 2047
)

// TxBody holds the messages of a transaction and the data that goes along
// with them.
type TxBody struct {
	Messages      []Any
	Memo          string
	TimeoutHeight uint64

	ExtensionOptions            []Any
	NonCriticalExtensionOptions []Any
}

// Encode returns the canonical protobuf encoding of the body.
func (t *TxBody) Encode() []byte {
	return t.appendTo(nil)
}

func (t *TxBody) appendTo(b []byte) []byte {
	for i := range t.Messages {
		b = appendMessage(b, 1, &t.Messages[i])
	}
	b = appendString(b, 2, t.Memo)
	b = appendUint64(b, 3, t.TimeoutHeight)
	for i := range t.ExtensionOptions {
		b = appendMessage(b, fieldExtensionOptions,
			&t.ExtensionOptions[i])
	}
	for i := range t.NonCriticalExtensionOptions {
		b = appendMessage(b, fieldNonCriticalExtensionOptions,
			&t.NonCriticalExtensionOptions[i])
	}

	return b
}

// PubKey is a compressed secp256k1 public key.
type PubKey struct {
	Key []byte
}

// Encode returns the canonical protobuf encoding of the key.
func (p *PubKey) Encode() []byte {
	return p.appendTo(nil)
}

func (p *PubKey) appendTo(b []byte) []byte {
	return appendBytes(b, 1, p.Key)
}

// ToAny packs the key together with its type URL.
func (p *PubKey) ToAny() *Any {
	return &Any{TypeURL: Secp256k1PubKeyTypeURL, Value: p.Encode()}
}

// ModeInfo describes the signing mode of a single signer. Only the single
// signer variant is supported.
type ModeInfo struct {
	// Single is the sign mode of a single signer.
	Single int32
}

func (m *ModeInfo) appendTo(b []byte) []byte {
	single := appendUint64(nil, 1, uint64(m.Single))
	b = protowire.AppendTag(b, 1, protowire.BytesType)

	return protowire.AppendBytes(b, single)
}

// SignerInfo describes the public key, signing mode and sequence of one
// signer.
type SignerInfo struct {
	PublicKey *Any
	ModeInfo  *ModeInfo
	Sequence  uint64
}

func (s *SignerInfo) appendTo(b []byte) []byte {
	if s.PublicKey != nil {
		b = appendMessage(b, 1, s.PublicKey)
	}
	if s.ModeInfo != nil {
		b = appendMessage(b, 2, s.ModeInfo)
	}
	b = appendUint64(b, 3, s.Sequence)

	return b
}

// AuthInfo carries the signer infos and the fee of a transaction.
type AuthInfo struct {
	SignerInfos []SignerInfo
	Fee         *Fee
}

// Encode returns the canonical protobuf encoding of the auth info.
func (a *AuthInfo) Encode() []byte {
	return a.appendTo(nil)
}

func (a *AuthInfo) appendTo(b []byte) []byte {
	for i := range a.SignerInfos {
		b = appendMessage(b, 1, &a.SignerInfos[i])
	}
	if a.Fee != nil {
		b = appendMessage(b, 2, a.Fee)
	}

	return b
}

// SignDoc is the document whose SHA256 is signed in SIGN_MODE_DIRECT.
type SignDoc struct {
	BodyBytes     []byte
	AuthInfoBytes []byte
	ChainID       string
	AccountNumber uint64
}

// Encode returns the canonical protobuf encoding of the sign doc.
func (s *SignDoc) Encode() []byte {
	b := appendBytes(nil, 1, s.BodyBytes)
	b = appendBytes(b, 2, s.AuthInfoBytes)
	b = appendString(b, 3, s.ChainID)
	b = appendUint64(b, 4, s.AccountNumber)

	return b
}

// TxRaw is the minimal wire form of a signed transaction, the exact bytes
// that are broadcast.
type TxRaw struct {
	BodyBytes     []byte
	AuthInfoBytes []byte
	Signatures    [][]byte
}

// Encode returns the canonical protobuf encoding of the raw transaction.
func (t *TxRaw) Encode() []byte {
	b := appendBytes(nil, 1, t.BodyBytes)
	b = appendBytes(b, 2, t.AuthInfoBytes)
	for _, sig := range t.Signatures {
		b = appendRepeatedBytes(b, 3, sig)
	}

	return b
}

// DecodeTxRaw parses a broadcast blob back into its parts.
func DecodeTxRaw(b []byte) (*TxRaw, error) {
	var t TxRaw
	err := decodeFields(b, func(num protowire.Number, typ protowire.Type,
		b []byte) int {

		switch num {
		case 1:
			return consumeBytesField(typ, b, &t.BodyBytes)
		case 2:
			return consumeBytesField(typ, b, &t.AuthInfoBytes)
		case 3:
			var sig []byte
			n := consumeBytesField(typ, b, &sig)
			t.Signatures = append(t.Signatures, sig)
			return n
		default:
			return skipField(num, typ, b)
		}
	})
	if err != nil {
		return nil, ErrorDecodeMessage("tx raw", err)
	}

	return &t, nil
}

// Tx is the structured form of a signed transaction, as accepted by the
// simulation endpoint.
type Tx struct {
	Body       *TxBody
	AuthInfo   *AuthInfo
	Signatures [][]byte
}

// Encode returns the canonical protobuf encoding of the transaction. For a
// transaction produced by this package the result is byte identical to the
// matching TxRaw.
func (t *Tx) Encode() []byte {
	var b []byte
	if t.Body != nil {
		b = appendMessage(b, 1, t.Body)
	}
	if t.AuthInfo != nil {
		b = appendMessage(b, 2, t.AuthInfo)
	}
	for _, sig := range t.Signatures {
		b = appendRepeatedBytes(b, 3, sig)
	}

	return b
}

// DecodeTxBody parses an encoded TxBody.
func DecodeTxBody(b []byte) (*TxBody, error) {
	var t TxBody
	appendAny := func(typ protowire.Type, b []byte, dst *[]Any) int {
		var raw []byte
		n := consumeBytesField(typ, b, &raw)
		if n < 0 {
			return n
		}
		a, err := decodeAny(raw)
		if err != nil {
			return -1
		}
		*dst = append(*dst, *a)

		return n
	}

	err := decodeFields(b, func(num protowire.Number, typ protowire.Type,
		b []byte) int {

		switch num {
		case 1:
			return appendAny(typ, b, &t.Messages)
		case 2:
			var memo []byte
			n := consumeBytesField(typ, b, &memo)
			t.Memo = string(memo)
			return n
		case 3:
			if typ != protowire.VarintType {
				return -1
			}
			v, n := protowire.ConsumeVarint(b)
			t.TimeoutHeight = v
			return n
		case fieldExtensionOptions:
			return appendAny(typ, b, &t.ExtensionOptions)
		case fieldNonCriticalExtensionOptions:
			return appendAny(
				typ, b, &t.NonCriticalExtensionOptions,
			)
		default:
			return skipField(num, typ, b)
		}
	})
	if err != nil {
		return nil, ErrorDecodeMessage("tx body", err)
	}

	return &t, nil
}

// DecodeAuthInfo parses an encoded AuthInfo.
func DecodeAuthInfo(b []byte) (*AuthInfo, error) {
	var a AuthInfo
	err := decodeFields(b, func(num protowire.Number, typ protowire.Type,
		b []byte) int {

		var raw []byte
		switch num {
		case 1:
			n := consumeBytesField(typ, b, &raw)
			if n < 0 {
				return n
			}
			s, err := decodeSignerInfo(raw)
			if err != nil {
				return -1
			}
			a.SignerInfos = append(a.SignerInfos, *s)
			return n

		case 2:
			n := consumeBytesField(typ, b, &raw)
			if n < 0 {
				return n
			}
			f, err := decodeFee(raw)
			if err != nil {
				return -1
			}
			a.Fee = f
			return n

		default:
			return skipField(num, typ, b)
		}
	})
	if err != nil {
		return nil, ErrorDecodeMessage("auth info", err)
	}

	return &a, nil
}

func decodeSignerInfo(b []byte) (*SignerInfo, error) {
	var s SignerInfo
	err := decodeFields(b, func(num protowire.Number, typ protowire.Type,
		b []byte) int {

		var raw []byte
		switch num {
		case 1:
			n := consumeBytesField(typ, b, &raw)
			if n < 0 {
				return n
			}
			a, err := decodeAny(raw)
			if err != nil {
				return -1
			}
			s.PublicKey = a
			return n

		case 2:
			n := consumeBytesField(typ, b, &raw)
			if n < 0 {
				return n
			}
			m, err := decodeModeInfo(raw)
			if err != nil {
				return -1
			}
			s.ModeInfo = m
			return n

		case 3:
			if typ != protowire.VarintType {
				return -1
			}
			v, n := protowire.ConsumeVarint(b)
			s.Sequence = v
			return n

		default:
			return skipField(num, typ, b)
		}
	})
	if err != nil {
		return nil, ErrorDecodeMessage("signer info", err)
	}

	return &s, nil
}

func decodeModeInfo(b []byte) (*ModeInfo, error) {
	var m ModeInfo
	err := decodeFields(b, func(num protowire.Number, typ protowire.Type,
		b []byte) int {

		if num != 1 {
			return skipField(num, typ, b)
		}

		var single []byte
		n := consumeBytesField(typ, b, &single)
		if n < 0 {
			return n
		}

		err := decodeFields(single, func(num protowire.Number,
			typ protowire.Type, b []byte) int {

			if num != 1 || typ != protowire.VarintType {
				return skipField(num, typ, b)
			}
			v, n := protowire.ConsumeVarint(b)
			m.Single = int32(v)
			return n
		})
		if err != nil {
			return -1
		}

		return n
	})
	if err != nil {
		return nil, ErrorDecodeMessage("mode info", err)
	}

	return &m, nil
}

func decodeFee(b []byte) (*Fee, error) {
	var f Fee
	err := decodeFields(b, func(num protowire.Number, typ protowire.Type,
		b []byte) int {

		var raw []byte
		switch num {
		case 1:
			n := consumeBytesField(typ, b, &raw)
			if n < 0 {
				return n
			}
			c, err := decodeCoin(raw)
			if err != nil {
				return -1
			}
			f.Amount = append(f.Amount, c)
			return n

		case 2:
			if typ != protowire.VarintType {
				return -1
			}
			v, n := protowire.ConsumeVarint(b)
			f.GasLimit = v
			return n

		case 3, 4:
			n := consumeBytesField(typ, b, &raw)
			if num == 3 {
				f.Payer = string(raw)
			} else {
				f.Granter = string(raw)
			}
			return n

		default:
			return skipField(num, typ, b)
		}
	})
	if err != nil {
		return nil, ErrorDecodeMessage("fee", err)
	}

	return &f, nil
}
