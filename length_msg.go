package iso8583

import (
	"github.com/pkg/errors"
)

// WriteLengthIndicator writes the transport length indicator (the prefix that
// tells a TCP peer how long the raw message is) to buf.
// Returns the number of bytes written.
func WriteLengthIndicator(msgLen int, buf []byte, config LengthIndicatorConfig) (int, error) {
	if config.Type == LengthIndicatorNone {
		return 0, nil
	}
	if len(buf) < config.Length {
		return 0, ErrBufferTooSmall
	}
	if msgLen < 0 {
		return 0, errors.Wrapf(ErrInvalidIndicator, "negative length %d", msgLen)
	}

	switch config.Type {
	case LengthIndicatorBinary:
		return writeBinaryLengthIndicator(msgLen, buf, config)
	case LengthIndicatorASCII:
		return writeASCIILengthIndicator(msgLen, buf, config)
	case LengthIndicatorHex:
		return writeHexLengthIndicator(msgLen, buf, config)
	default:
		return 0, errors.Wrapf(ErrInvalidIndicator, "unsupported type %d", config.Type)
	}
}

// ReadLengthIndicator reads the transport length indicator from buf.
// Returns:
// 1. The message length (e.g., 200 for "0200")
// 2. The number of bytes consumed by the indicator (e.g., 4 for "0200")
// 3. An error, if any
func ReadLengthIndicator(buf []byte, config LengthIndicatorConfig) (int, int, error) {
	if config.Type == LengthIndicatorNone {
		return len(buf), 0, nil
	}
	if len(buf) < config.Length {
		return 0, 0, errors.Wrapf(ErrIncompleteFrame, "need %d indicator bytes, have %d", config.Length, len(buf))
	}

	switch config.Type {
	case LengthIndicatorBinary:
		return readBinaryLengthIndicator(buf, config)
	case LengthIndicatorASCII:
		return readASCIILengthIndicator(buf, config)
	case LengthIndicatorHex:
		return readHexLengthIndicator(buf, config)
	default:
		return 0, 0, errors.Wrapf(ErrInvalidIndicator, "unsupported type %d", config.Type)
	}
}

// Frame returns payload preceded by its length indicator.
func Frame(payload []byte, config LengthIndicatorConfig) ([]byte, error) {
	out := make([]byte, config.Length+len(payload))
	n, err := WriteLengthIndicator(len(payload), out, config)
	if err != nil {
		return nil, err
	}
	copy(out[n:], payload)
	return out[:n+len(payload)], nil
}

// SplitFrame returns the first complete payload in buf and the total number
// of bytes it occupies, indicator included. ErrIncompleteFrame means more
// input is needed.
func SplitFrame(buf []byte, config LengthIndicatorConfig) ([]byte, int, error) {
	msgLen, n, err := ReadLengthIndicator(buf, config)
	if err != nil {
		return nil, 0, err
	}
	if len(buf)-n < msgLen {
		return nil, 0, errors.Wrapf(ErrIncompleteFrame, "need %d payload bytes, have %d", msgLen, len(buf)-n)
	}
	return buf[n : n+msgLen], n + msgLen, nil
}

// writeBinaryLengthIndicator writes binary length (2 or 4 bytes, big-endian).
func writeBinaryLengthIndicator(msgLen int, buf []byte, config LengthIndicatorConfig) (int, error) {
	switch config.Length {
	case 2:
		if msgLen > 0xFFFF {
			return 0, errors.Wrapf(ErrInvalidIndicator, "message length %d exceeds 2-byte maximum", msgLen)
		}
		buf[0] = byte(msgLen >> 8)
		buf[1] = byte(msgLen)
		return 2, nil

	case 4:
		if msgLen > 0x7FFFFFFF {
			return 0, errors.Wrapf(ErrInvalidIndicator, "message length %d exceeds 4-byte maximum", msgLen)
		}
		buf[0] = byte(msgLen >> 24)
		buf[1] = byte(msgLen >> 16)
		buf[2] = byte(msgLen >> 8)
		buf[3] = byte(msgLen)
		return 4, nil

	default:
		return 0, errors.Wrapf(ErrInvalidIndicator, "binary indicator size %d (must be 2 or 4)", config.Length)
	}
}

// readBinaryLengthIndicator reads binary length (2 or 4 bytes, big-endian).
func readBinaryLengthIndicator(buf []byte, config LengthIndicatorConfig) (int, int, error) {
	switch config.Length {
	case 2:
		return int(buf[0])<<8 | int(buf[1]), 2, nil
	case 4:
		return int(buf[0])<<24 | int(buf[1])<<16 | int(buf[2])<<8 | int(buf[3]), 4, nil
	default:
		return 0, 0, errors.Wrapf(ErrInvalidIndicator, "binary indicator size %d (must be 2 or 4)", config.Length)
	}
}

// writeASCIILengthIndicator writes a 4 digit decimal length, e.g. "0200".
func writeASCIILengthIndicator(msgLen int, buf []byte, config LengthIndicatorConfig) (int, error) {
	if config.Length != 4 {
		return 0, errors.Wrapf(ErrInvalidIndicator, "ASCII indicator must be 4 characters, got %d", config.Length)
	}
	if msgLen > 9999 {
		return 0, errors.Wrapf(ErrInvalidIndicator, "message length %d exceeds 4-digit maximum", msgLen)
	}
	buf[0] = byte('0' + (msgLen/1000)%10)
	buf[1] = byte('0' + (msgLen/100)%10)
	buf[2] = byte('0' + (msgLen/10)%10)
	buf[3] = byte('0' + msgLen%10)
	return 4, nil
}

func readASCIILengthIndicator(buf []byte, config LengthIndicatorConfig) (int, int, error) {
	if config.Length != 4 {
		return 0, 0, errors.Wrapf(ErrInvalidIndicator, "ASCII indicator must be 4 characters, got %d", config.Length)
	}
	n := 0
	for _, ch := range buf[:4] {
		if ch < '0' || ch > '9' {
			return 0, 0, errors.Wrapf(ErrInvalidIndicator, "invalid character %q in decimal length", ch)
		}
		n = n*10 + int(ch-'0')
	}
	return n, 4, nil
}

// writeHexLengthIndicator writes a 4 character hex length, e.g. "00C8" for 200.
func writeHexLengthIndicator(msgLen int, buf []byte, config LengthIndicatorConfig) (int, error) {
	if config.Length != 4 {
		return 0, errors.Wrapf(ErrInvalidIndicator, "hex indicator must be 4 characters, got %d", config.Length)
	}
	if msgLen > 0xFFFF {
		return 0, errors.Wrapf(ErrInvalidIndicator, "message length %d exceeds 4-char hex maximum", msgLen)
	}
	encodeHexUpper(buf[:4], []byte{byte(msgLen >> 8), byte(msgLen)})
	return 4, nil
}

func readHexLengthIndicator(buf []byte, config LengthIndicatorConfig) (int, int, error) {
	if config.Length != 4 {
		return 0, 0, errors.Wrapf(ErrInvalidIndicator, "hex indicator must be 4 characters, got %d", config.Length)
	}
	hi, ok1 := hexPair(buf[0], buf[1])
	lo, ok2 := hexPair(buf[2], buf[3])
	if !ok1 || !ok2 {
		return 0, 0, errors.Wrapf(ErrInvalidIndicator, "invalid hex length %q", buf[:4])
	}
	return int(hi)<<8 | int(lo), 4, nil
}
