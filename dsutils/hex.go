package dsutils

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// HexToBytes decodes a hex string into bytes. An optional "0x" prefix is
// stripped before decoding and both upper and lower case digits are
// accepted. The digit count must be even.
func HexToBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")

	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex string %q: %w", s, err)
	}

	return b, nil
}

// BytesToHex returns the lower case hex encoding of b without any prefix.
func BytesToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// ContainsNonHexChars returns true if any character of input falls outside
// of [0-9a-fA-F].
func ContainsNonHexChars(input string) bool {
	for _, c := range input {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return true
		}
	}

	return false
}
