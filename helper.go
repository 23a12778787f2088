package iso8583

import (
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

const hexTableUpper = "0123456789ABCDEF"

// BytesToText converts raw wire bytes into ByteText, two uppercase hex
// characters per byte.
func BytesToText(src []byte) string {
	return strings.ToUpper(hex.EncodeToString(src))
}

// TextToBytes converts ByteText back into raw bytes for transport.
func TextToBytes(text string) ([]byte, error) {
	if len(text)%2 != 0 {
		return nil, errors.Wrapf(ErrInvalidByteText, "odd length %d", len(text))
	}
	out, err := hex.DecodeString(text)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidByteText, err.Error())
	}
	return out, nil
}

// NormalizeText uppercases ByteText and checks that it is made of whole hex
// pairs.
func NormalizeText(text string) (string, error) {
	if len(text)%2 != 0 {
		return "", errors.Wrapf(ErrInvalidByteText, "odd length %d", len(text))
	}
	if _, err := hex.DecodeString(text); err != nil {
		return "", errors.Wrap(ErrInvalidByteText, err.Error())
	}
	return strings.ToUpper(text), nil
}

// encodeHexUpper converts src to uppercase hex and writes it to dst.
func encodeHexUpper(dst, src []byte) {
	n := hex.Encode(dst, src)
	for i := 0; i < n; i++ {
		if dst[i] >= 'a' {
			dst[i] -= 'a' - 'A'
		}
	}
}

// hexNibble and hexPair decode single characters in the bitmap and code
// table hot paths without allocating.
func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

func hexPair(hi, lo byte) (byte, bool) {
	h, ok1 := hexNibble(hi)
	l, ok2 := hexNibble(lo)
	if !ok1 || !ok2 {
		return 0, false
	}
	return h<<4 | l, true
}

// take removes n characters from the front of *remaining.
func take(remaining *string, n int) (string, error) {
	if n < 0 || len(*remaining) < n {
		return "", errors.Wrapf(ErrInsufficientData, "need %d characters, have %d", n, len(*remaining))
	}
	out := (*remaining)[:n]
	*remaining = (*remaining)[n:]
	return out, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func pow10(n int) int {
	res := 1
	for i := 0; i < n; i++ {
		res *= 10
	}
	return res
}
