package dsutils

import (
	"errors"
	"fmt"
)

// MaxLabelLen is the maximum number of bytes a Label can hold.
const MaxLabelLen = 32

var (
	// ErrLabelTooLong is returned when a label exceeds MaxLabelLen bytes.
	ErrLabelTooLong = errors.New("label too long")

	// ErrInvalidLabelChar is returned when a label contains a character
	// that can't appear in the human readable part of a bech32 string.
	ErrInvalidLabelChar = errors.New("invalid label character")
)

// Label is a short human readable prefix stored inline so that the values
// embedding it stay comparable and cheap to copy. The zero value is the
// empty label.
type Label struct {
	buf [MaxLabelLen]byte
	len uint8
}

// NewLabel validates s and returns it as a Label. Labels may be empty, and
// otherwise only carry printable lower case ASCII in the range accepted by
// bech32 for its human readable part. Upper case is rejected as bech32 would
// silently lower case it on encoding.
func NewLabel(s string) (Label, error) {
	var l Label
	if len(s) > MaxLabelLen {
		return l, fmt.Errorf("%w: %d > %d bytes", ErrLabelTooLong,
			len(s), MaxLabelLen)
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 33 || c > 126 || (c >= 'A' && c <= 'Z') {
			return l, fmt.Errorf("%w: %q at offset %d",
				ErrInvalidLabelChar, c, i)
		}
	}

	copy(l.buf[:], s)
	l.len = uint8(len(s))

	return l, nil
}

// String returns the label text.
func (l Label) String() string {
	return string(l.buf[:l.len])
}

// Len returns the number of bytes in the label.
func (l Label) Len() int {
	return int(l.len)
}

// IsEmpty returns true for the empty label.
func (l Label) IsEmpty() bool {
	return l.len == 0
}
