package iso8583

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// FieldType is the ISO 8583 type code of a data element. It selects the
// field codec and the payload sub-format.
type FieldType string

const (
	FieldTypeA   FieldType = "a"   // Alphabetic
	FieldTypeN   FieldType = "n"   // Numeric, BCD packed
	FieldTypeS   FieldType = "s"   // Special characters
	FieldTypeAN  FieldType = "an"  // Alphanumeric
	FieldTypeAS  FieldType = "as"  // Alphabetic and special
	FieldTypeNS  FieldType = "ns"  // Numeric and special
	FieldTypeANS FieldType = "ans" // Alphanumeric and special
	FieldTypeB   FieldType = "b"   // Binary
	FieldTypeZ   FieldType = "z"   // Track 2 and 3 code set
)

// IsNumeric reports whether values of this type are BCD packed.
func (ft FieldType) IsNumeric() bool {
	return ft == FieldTypeN
}

// LengthType names the common length header widths.
type LengthType int

const (
	LengthFixed   LengthType = 0
	LengthLVAR    LengthType = 1
	LengthLLVAR   LengthType = 2
	LengthLLLVAR  LengthType = 3
	LengthLLLLVAR LengthType = 4
)

// FieldSpec is what a FieldCatalog knows about one data element.
type FieldSpec struct {
	Type FieldType `json:"type" yaml:"type"`
	// Length is the exact length of fixed fields and the maximum of
	// variable ones: digits for n, characters for text, bytes for b.
	Length int `json:"max_length" yaml:"max_length"`
	// LengthDigits is the width of the length header, 0 for fixed fields.
	LengthDigits int `json:"length_digits" yaml:"length_digits"`
	// ASCII decodes text payload as raw code points instead of going
	// through the code table.
	ASCII bool `json:"ascii,omitempty" yaml:"ascii,omitempty"`
	// DigitCount makes the header of a variable n field count digits
	// instead of packed bytes.
	DigitCount  bool   `json:"digit_count,omitempty" yaml:"digit_count,omitempty"`
	Mandatory   bool   `json:"mandatory,omitempty" yaml:"mandatory,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// IsVariable reports whether the field carries a length header.
func (fs FieldSpec) IsVariable() bool {
	return fs.LengthDigits > 0
}

// ParseLengthSpec reads a catalog length string such as "6", "..19" or
// "...999". Every '.' adds one digit to the length header.
func ParseLengthSpec(s string) (length, headerDigits int, err error) {
	s = strings.TrimSpace(s)
	headerDigits = strings.Count(s, ".")
	digits := strings.TrimLeft(s, ".")
	if digits == "" || strings.Contains(digits, ".") {
		return 0, 0, errors.Errorf("invalid length spec %q", s)
	}
	length, err = strconv.Atoi(digits)
	if err != nil || length <= 0 {
		return 0, 0, errors.Errorf("invalid length spec %q", s)
	}
	return length, headerDigits, nil
}

// LengthSpec formats the length back into catalog notation.
func (fs FieldSpec) LengthSpec() string {
	return strings.Repeat(".", fs.LengthDigits) + strconv.Itoa(fs.Length)
}

// NewFieldSpec is a convenience constructor from a type code and a catalog
// length string.
func NewFieldSpec(typ FieldType, length string) (FieldSpec, error) {
	l, digits, err := ParseLengthSpec(length)
	if err != nil {
		return FieldSpec{}, err
	}
	return FieldSpec{Type: typ, Length: l, LengthDigits: digits}, nil
}

// LengthIndicatorType selects how a transport frame encodes its length.
type LengthIndicatorType int

const (
	LengthIndicatorNone LengthIndicatorType = iota
	LengthIndicatorBinary
	LengthIndicatorASCII
	LengthIndicatorHex
)

// LengthIndicatorConfig describes the transport frame prefix.
type LengthIndicatorConfig struct {
	Type   LengthIndicatorType `json:"type" yaml:"type"`
	Length int                 `json:"length" yaml:"length"`
}

// ValidationLevel controls how much of a message CompiledValidator checks.
type ValidationLevel int

const (
	ValidationNone ValidationLevel = iota
	ValidationBasic
	ValidationStrict
)

const (
	BlockBits      = 64
	BlockTextChars = 16
	MTILength      = 4

	MaxBitmapBlocks = 8
	MaxFieldNumber  = MaxBitmapBlocks * BlockBits
)

// IsReservedField reports whether n is a bitmap continuation position
// (1, 65, 129, ...), which never carries data.
func IsReservedField(n int) bool {
	return n >= 1 && (n-1)%BlockBits == 0
}

// Network management MTIs.
const (
	MTINetworkRequest  = "0800"
	MTINetworkResponse = "0810"
)
