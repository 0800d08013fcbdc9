package txwire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrorDecodeMessage is used when a protobuf payload can't be decoded.
func ErrorDecodeMessage(name string, err error) error {
	return fmt.Errorf("failed to decode %s, got %w", name, err)
}

// Every encoder below follows proto3 rules: scalar fields holding their zero
// value are omitted, repeated fields emit one record per element, and
// embedded messages are emitted whenever they are set. Fields are always
// written in ascending field number order, which keeps the output canonical.

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)

	return protowire.AppendString(b, s)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}

	return appendRepeatedBytes(b, num, v)
}

func appendRepeatedBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)

	return protowire.AppendBytes(b, v)
}

func appendUint64(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)

	return protowire.AppendVarint(b, v)
}

// encoder is implemented by every message of this package.
type encoder interface {
	appendTo(b []byte) []byte
}

func appendMessage(b []byte, num protowire.Number, m encoder) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)

	return protowire.AppendBytes(b, m.appendTo(nil))
}

// fieldVisitor is called for every field of a message being decoded. It
// returns the number of bytes it consumed, or a negative protowire error
// code. Fields it doesn't know must be skipped with skipField.
type fieldVisitor func(num protowire.Number, typ protowire.Type,
	b []byte) int

func decodeFields(b []byte, visit fieldVisitor) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		n = visit(num, typ, b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
	}

	return nil
}

func skipField(num protowire.Number, typ protowire.Type, b []byte) int {
	return protowire.ConsumeFieldValue(num, typ, b)
}

// consumeBytesField consumes a length delimited field into dst, copying the
// data so the result doesn't alias the input buffer.
func consumeBytesField(typ protowire.Type, b []byte, dst *[]byte) int {
	if typ != protowire.BytesType {
		return -1
	}

	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return n
	}
	*dst = append([]byte(nil), v...)

	return n
}
