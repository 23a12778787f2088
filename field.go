package iso8583

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// FieldCodec converts one field value between its native text form and
// ByteText.
type FieldCodec interface {
	// Pack encodes value, length header included.
	Pack(value string, spec FieldSpec) (string, error)
	// Unpack consumes exactly this field from the front of *remaining and
	// leaves the rest untouched.
	Unpack(remaining *string, spec FieldSpec) (string, error)
}

// TextCodec handles numeric (BCD) and character fields.
type TextCodec struct {
	table *CodeTable
}

// NewTextCodec returns a codec that transcodes text and headers through table.
func NewTextCodec(table *CodeTable) *TextCodec {
	return &TextCodec{table: table}
}

func (c *TextCodec) Pack(value string, spec FieldSpec) (string, error) {
	var payload string
	if spec.Type.IsNumeric() {
		if !isDigits(value) {
			return "", errors.Wrapf(ErrInvalidValue, "non-digit in numeric value %q", value)
		}
		payload = packBCD(value, spec)
	} else {
		var err error
		if payload, err = c.packChars(value, spec); err != nil {
			return "", err
		}
	}

	if !spec.IsVariable() {
		return payload, nil
	}

	count := len([]rune(value))
	if spec.Type.IsNumeric() && !spec.DigitCount {
		count = len(payload) / 2
	}
	header, err := writeFieldHeader(c.table, count, spec.LengthDigits)
	if err != nil {
		return "", err
	}
	return header + payload, nil
}

func (c *TextCodec) Unpack(remaining *string, spec FieldSpec) (string, error) {
	if spec.Type.IsNumeric() {
		return c.unpackNumeric(remaining, spec)
	}

	count := spec.Length
	if spec.IsVariable() {
		n, err := readFieldHeader(c.table, remaining, spec.LengthDigits)
		if err != nil {
			return "", err
		}
		if n > spec.Length {
			return "", errors.Wrapf(ErrCorruptField, "header declares %d characters, maximum is %d", n, spec.Length)
		}
		count = n
	}
	raw, err := take(remaining, count*2)
	if err != nil {
		return "", err
	}
	if spec.ASCII {
		return decodeCodePoints(raw), nil
	}
	return c.table.DecodeText(raw), nil
}

func (c *TextCodec) packChars(value string, spec FieldSpec) (string, error) {
	if !spec.ASCII {
		return c.table.EncodeString(value)
	}
	out := make([]byte, 0, len(value)*2)
	pos := 0
	for _, r := range value {
		if r > 0xFF {
			return "", &CharError{Char: r, Pos: pos}
		}
		out = append(out, hexTableUpper[byte(r)>>4], hexTableUpper[byte(r)&0x0f])
		pos++
	}
	return string(out), nil
}

func (c *TextCodec) unpackNumeric(remaining *string, spec FieldSpec) (string, error) {
	if !spec.IsVariable() {
		nibbles := spec.Length + spec.Length%2
		raw, err := take(remaining, nibbles)
		if err != nil {
			return "", err
		}
		if strings.ContainsAny(raw, "Ff") {
			return "", errors.Wrapf(ErrCorruptField, "filler nibble in fixed numeric %q", raw)
		}
		if !isDigits(raw) {
			return "", errors.Wrapf(ErrCorruptField, "non-BCD nibble in %q", raw)
		}
		if nibbles > spec.Length && raw[0] != '0' {
			return "", errors.Wrapf(ErrCorruptField, "non-zero pad nibble in %q", raw)
		}
		return raw[nibbles-spec.Length:], nil
	}

	n, err := readFieldHeader(c.table, remaining, spec.LengthDigits)
	if err != nil {
		return "", err
	}
	nibbles := n * 2
	if spec.DigitCount {
		if n > spec.Length {
			return "", errors.Wrapf(ErrCorruptField, "header declares %d digits, maximum is %d", n, spec.Length)
		}
		nibbles = n + n%2
	} else if n > (spec.Length+1)/2 {
		return "", errors.Wrapf(ErrCorruptField, "header declares %d bytes, maximum is %d", n, (spec.Length+1)/2)
	}
	raw, err := take(remaining, nibbles)
	if err != nil {
		return "", err
	}
	digits := raw
	if strings.HasSuffix(digits, "F") || strings.HasSuffix(digits, "f") {
		digits = digits[:len(digits)-1]
	}
	if !isDigits(digits) {
		return "", errors.Wrapf(ErrCorruptField, "non-BCD nibble in %q", raw)
	}
	if spec.DigitCount && len(digits) != n {
		return "", errors.Wrapf(ErrCorruptField, "header declares %d digits, payload has %d", n, len(digits))
	}
	if len(digits) > spec.Length {
		return "", errors.Wrapf(ErrCorruptField, "%d digits exceed maximum %d", len(digits), spec.Length)
	}
	return digits, nil
}

// packBCD packs digits two per byte. Fixed fields are left-padded with zeros
// to their full length, odd variable values get a trailing filler nibble.
func packBCD(value string, spec FieldSpec) string {
	if !spec.IsVariable() {
		if pad := spec.Length - len(value); pad > 0 {
			value = strings.Repeat("0", pad) + value
		}
		if len(value)%2 != 0 {
			value = "0" + value
		}
		return value
	}
	if len(value)%2 != 0 {
		value += "F"
	}
	return value
}

func decodeCodePoints(raw string) string {
	out := make([]rune, 0, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		b, _ := hexPair(raw[i], raw[i+1])
		out = append(out, rune(b))
	}
	return string(out)
}

// BinaryCodec handles b fields. Values are ByteText of the raw bytes and
// lengths count bytes.
type BinaryCodec struct {
	table *CodeTable
}

// NewBinaryCodec returns a codec whose length headers go through table.
func NewBinaryCodec(table *CodeTable) *BinaryCodec {
	return &BinaryCodec{table: table}
}

func (c *BinaryCodec) Pack(value string, spec FieldSpec) (string, error) {
	payload, err := NormalizeText(value)
	if err != nil {
		return "", errors.Wrap(ErrInvalidValue, err.Error())
	}
	if !spec.IsVariable() {
		return payload, nil
	}
	header, err := writeFieldHeader(c.table, len(payload)/2, spec.LengthDigits)
	if err != nil {
		return "", err
	}
	return header + payload, nil
}

func (c *BinaryCodec) Unpack(remaining *string, spec FieldSpec) (string, error) {
	count := spec.Length
	if spec.IsVariable() {
		n, err := readFieldHeader(c.table, remaining, spec.LengthDigits)
		if err != nil {
			return "", err
		}
		if n > spec.Length {
			return "", errors.Wrapf(ErrCorruptField, "header declares %d bytes, maximum is %d", n, spec.Length)
		}
		count = n
	}
	return take(remaining, count*2)
}

// valueLength is the length the catalog limits apply to.
func valueLength(value string, spec FieldSpec) int {
	if spec.Type == FieldTypeB {
		return len(value) / 2
	}
	return len([]rune(value))
}

// writeFieldHeader renders count as digits decimal digits, each transcoded
// through the code table into one byte.
func writeFieldHeader(table *CodeTable, count, digits int) (string, error) {
	if count >= pow10(digits) {
		return "", errors.Wrapf(ErrFieldLength, "length %d does not fit a %d digit header", count, digits)
	}
	s := strconv.Itoa(count)
	s = strings.Repeat("0", digits-len(s)) + s
	return table.EncodeString(s)
}

func readFieldHeader(table *CodeTable, remaining *string, digits int) (int, error) {
	raw, err := take(remaining, digits*2)
	if err != nil {
		return 0, err
	}
	s := table.DecodeText(raw)
	if !isDigits(s) {
		return 0, errors.Wrapf(ErrCorruptField, "length header %q is not decimal", raw)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(ErrCorruptField, "length header %q: %v", raw, err)
	}
	return n, nil
}
