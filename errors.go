package iso8583

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrInvalidMTI          = errors.New("invalid MTI")
	ErrUnknownField        = errors.New("unknown field")
	ErrUnknownFieldType    = errors.New("unknown field type")
	ErrReservedField       = errors.New("reserved bitmap continuation field")
	ErrFieldLength         = errors.New("invalid field length")
	ErrInvalidValue        = errors.New("invalid field value")
	ErrCorruptField        = errors.New("corrupt field")
	ErrLengthMismatch      = errors.New("message length mismatch")
	ErrTrailingData        = errors.New("trailing data after last field")
	ErrUnmappableCharacter = errors.New("unmappable character")
	ErrInvalidByteText     = errors.New("invalid byte text")
	ErrDuplicateCode       = errors.New("duplicate code table entry")
	ErrInvalidTLV          = errors.New("invalid TLV data")
	ErrValidationFailed    = errors.New("validation failed")
	ErrBufferTooSmall      = errors.New("buffer too small")
	ErrInvalidIndicator    = errors.New("invalid length indicator")
	ErrIncompleteFrame     = errors.New("incomplete frame")
	ErrInvalidSpec         = errors.New("invalid field spec")

	// ErrInvalidBitmap and ErrInsufficientData are both corrupt input, so they
	// match ErrCorruptField as well.
	ErrInvalidBitmap    = errors.Wrap(ErrCorruptField, "invalid bitmap")
	ErrInsufficientData = errors.Wrap(ErrCorruptField, "insufficient data")
)

// FieldError ties an error to the data element that caused it.
type FieldError struct {
	Field int
	Err   error
}

func (fe *FieldError) Error() string {
	return fmt.Sprintf("field %d: %v", fe.Field, fe.Err)
}

func (fe *FieldError) Unwrap() error {
	return fe.Err
}

// CharError reports a character the code table cannot represent.
type CharError struct {
	Char rune
	Pos  int
}

func (ce *CharError) Error() string {
	return fmt.Sprintf("%v: %q at position %d", ErrUnmappableCharacter, ce.Char, ce.Pos)
}

func (ce *CharError) Unwrap() error {
	return ErrUnmappableCharacter
}

// ValidationError reports the field and rule that rejected a value.
type ValidationError struct {
	Field   int
	Rule    string
	Message string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %d (%s): %s", ve.Field, ve.Rule, ve.Message)
}

func (ve *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// TLVError reports the tag of a malformed TLV entry.
type TLVError struct {
	Tag string
	Err error
}

func (te *TLVError) Error() string {
	return fmt.Sprintf("TLV tag %s: %v", te.Tag, te.Err)
}

func (te *TLVError) Unwrap() error {
	return te.Err
}

func fieldErr(field int, err error) error {
	return &FieldError{Field: field, Err: err}
}
