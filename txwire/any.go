package txwire

import (
	"bytes"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
)

// Any is a protobuf message packed together with the URL of its type.
type Any struct {
	TypeURL string
	Value   []byte
}

// Encode returns the canonical protobuf encoding of the Any.
func (a *Any) Encode() []byte {
	return a.appendTo(nil)
}

func (a *Any) appendTo(b []byte) []byte {
	b = appendString(b, 1, a.TypeURL)
	b = appendBytes(b, 2, a.Value)

	return b
}

// Equal returns true if both values pack the same message.
func (a *Any) Equal(other *Any) bool {
	return a.TypeURL == other.TypeURL && bytes.Equal(a.Value, other.Value)
}

func decodeAny(b []byte) (*Any, error) {
	var (
		a       Any
		typeURL []byte
	)
	err := decodeFields(b, func(num protowire.Number, typ protowire.Type,
		b []byte) int {

		switch num {
		case 1:
			return consumeBytesField(typ, b, &typeURL)
		case 2:
			return consumeBytesField(typ, b, &a.Value)
		default:
			return skipField(num, typ, b)
		}
	})
	if err != nil {
		return nil, ErrorDecodeMessage("any", err)
	}
	a.TypeURL = string(typeURL)

	return &a, nil
}

// Msg is a transaction message. Its payload is opaque to this package: it is
// an already encoded protobuf message tagged with its type URL.
type Msg struct {
	Any
}

// NewMsg wraps an already encoded message payload.
func NewMsg(typeURL string, value []byte) Msg {
	return Msg{Any: Any{
		TypeURL: typeURL,
		Value:   append([]byte(nil), value...),
	}}
}

// NewMsgFromProto encodes m deterministically and tags it with the type URL
// the Cosmos SDK expects, "/" followed by the full message name.
func NewMsgFromProto(m proto.Message) (Msg, error) {
	value, err := proto.MarshalOptions{Deterministic: true}.Marshal(m)
	if err != nil {
		return Msg{}, err
	}

	typeURL := "/" + string(proto.MessageName(m))

	return Msg{Any: Any{TypeURL: typeURL, Value: value}}, nil
}
