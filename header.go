package iso8583

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// WriteLengthPrefix prepends digits bytes holding the byte count of body,
// big-endian, as ByteText. digits 0 returns body unchanged.
func WriteLengthPrefix(body string, digits int) (string, error) {
	if digits <= 0 {
		return body, nil
	}
	n := uint64(len(body) / 2)
	if digits < 8 && n >= 1<<(8*uint(digits)) {
		return "", errors.Wrapf(ErrLengthMismatch, "%d bytes do not fit a %d byte prefix", n, digits)
	}
	h := strconv.FormatUint(n, 16)
	width := digits * 2
	if len(h) > width {
		return "", errors.Wrapf(ErrLengthMismatch, "%d bytes do not fit a %d byte prefix", n, digits)
	}
	return strings.Repeat("0", width-len(h)) + strings.ToUpper(h) + body, nil
}

// ReadLengthPrefix consumes the prefix from the front of *remaining and
// checks it against the byte count of what follows.
func ReadLengthPrefix(remaining *string, digits int) (int, error) {
	if digits <= 0 {
		return len(*remaining) / 2, nil
	}
	raw, err := take(remaining, digits*2)
	if err != nil {
		return 0, errors.Wrap(ErrLengthMismatch, "message shorter than its length prefix")
	}
	declared, err := strconv.ParseUint(raw, 16, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrLengthMismatch, "length prefix %q: %v", raw, err)
	}
	if actual := uint64(len(*remaining) / 2); declared != actual {
		return 0, errors.Wrapf(ErrLengthMismatch, "prefix declares %d bytes, message has %d", declared, actual)
	}
	return int(declared), nil
}
