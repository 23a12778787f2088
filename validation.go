package iso8583

import (
	"regexp"
	"strconv"
	"sync"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/pkg/errors"
)

// ValidateSpec checks that a field definition is usable by the codecs.
func ValidateSpec(spec FieldSpec) error {
	err := validation.ValidateStruct(&spec,
		validation.Field(&spec.Type, validation.Required),
		validation.Field(&spec.Length, validation.Required, validation.Min(1)),
		validation.Field(&spec.LengthDigits, validation.Min(0), validation.Max(9)),
	)
	if err != nil {
		return errors.Wrap(ErrInvalidSpec, err.Error())
	}
	if spec.IsVariable() {
		limit := spec.Length
		if spec.Type.IsNumeric() && !spec.DigitCount {
			limit = (spec.Length + 1) / 2
		}
		if limit >= pow10(spec.LengthDigits) {
			return errors.Wrapf(ErrInvalidSpec, "max length %d does not fit a %d digit header", spec.Length, spec.LengthDigits)
		}
	}
	return nil
}

// ValidateCatalog runs ValidateSpec over every field of c.
func ValidateCatalog(c *MapCatalog) error {
	for _, n := range c.Fields() {
		spec, _ := c.Lookup(n)
		if err := ValidateSpec(spec); err != nil {
			return fieldErr(n, err)
		}
	}
	return nil
}

// ValidationRule defines the interface for a single validation rule.
type ValidationRule interface {
	Validate(value string) error
	Name() string // Returns the name of the rule (e.g., "length")
}

// CompiledValidator holds a pre-compiled set of validation rules derived
// from a catalog. It is safe for concurrent use.
type CompiledValidator struct {
	mandatoryFields map[int]bool
	fieldRules      map[int][]ValidationRule
	globalRules     []ValidationRule
	level           ValidationLevel
	mu              sync.RWMutex
}

// NewCompiledValidator creates a new, empty validator.
func NewCompiledValidator() *CompiledValidator {
	return &CompiledValidator{
		mandatoryFields: make(map[int]bool),
		fieldRules:      make(map[int][]ValidationRule),
		level:           ValidationBasic,
	}
}

// NewCatalogValidator compiles mandatory presence, length and content rules
// for every field of c.
func NewCatalogValidator(c *MapCatalog) *CompiledValidator {
	cv := NewCompiledValidator()
	for _, n := range c.Fields() {
		spec, _ := c.Lookup(n)
		if spec.Mandatory {
			cv.mandatoryFields[n] = true
		}

		rules := []ValidationRule{&LengthRule{MaxLength: spec.Length, Binary: spec.Type == FieldTypeB}}
		if !spec.IsVariable() && !spec.Type.IsNumeric() {
			rules[0].(*LengthRule).MinLength = spec.Length
		}
		switch spec.Type {
		case FieldTypeN:
			rules = append(rules, &NumericRule{})
		case FieldTypeB:
			rules = append(rules, &BinaryRule{})
		case FieldTypeZ:
			rules = append(rules, &TrackDataRule{AllowEmpty: true})
		default:
			rules = append(rules, &PrintableRule{})
		}
		cv.fieldRules[n] = rules
	}
	return cv
}

// SetLevel sets the level the packager validates with.
func (cv *CompiledValidator) SetLevel(level ValidationLevel) {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	cv.level = level
}

// Level is the level the packager validates with.
func (cv *CompiledValidator) Level() ValidationLevel {
	cv.mu.RLock()
	defer cv.mu.RUnlock()
	return cv.level
}

// AddGlobalRule adds a rule applied to all fields at ValidationStrict.
func (cv *CompiledValidator) AddGlobalRule(rule ValidationRule) {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	cv.globalRules = append(cv.globalRules, rule)
}

// AddFieldRule adds a rule for one field.
func (cv *CompiledValidator) AddFieldRule(fieldNum int, rule ValidationRule) {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	cv.fieldRules[fieldNum] = append(cv.fieldRules[fieldNum], rule)
}

// SetMandatory marks a field as required in non network-management messages.
func (cv *CompiledValidator) SetMandatory(fieldNum int, required bool) {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	if required {
		cv.mandatoryFields[fieldNum] = true
	} else {
		delete(cv.mandatoryFields, fieldNum)
	}
}

// ValidateMessage checks mandatory presence and runs field rules over every
// present field. Network management messages skip the presence check.
func (cv *CompiledValidator) ValidateMessage(msg *Message, level ValidationLevel) error {
	return cv.validateFields(msg.MTI(), msg.Fields(), level)
}

// Validate checks msg at its own validation level.
func (m *Message) Validate(cv *CompiledValidator) error {
	if cv == nil {
		return nil
	}
	return cv.ValidateMessage(m, m.GetValidationLevel())
}

func (cv *CompiledValidator) validateFields(mti string, fields map[int]string, level ValidationLevel) error {
	cv.mu.RLock()
	defer cv.mu.RUnlock()

	if level == ValidationNone {
		return nil
	}

	if mti != MTINetworkRequest && mti != MTINetworkResponse {
		for _, n := range sortedFieldSet(cv.mandatoryFields) {
			if _, ok := fields[n]; !ok {
				return &ValidationError{Field: n, Rule: "mandatory", Message: "mandatory field missing"}
			}
		}
	}

	for _, n := range sortedFields(fields) {
		if err := cv.validateField(n, fields[n], level); err != nil {
			return err
		}
	}
	return nil
}

// ValidateField validates a single value against all applicable rules.
func (cv *CompiledValidator) ValidateField(fieldNum int, value string) error {
	cv.mu.RLock()
	defer cv.mu.RUnlock()
	return cv.validateField(fieldNum, value, ValidationStrict)
}

func (cv *CompiledValidator) validateField(fieldNum int, value string, level ValidationLevel) error {
	rules, exists := cv.fieldRules[fieldNum]
	if !exists && level == ValidationStrict {
		return &ValidationError{Field: fieldNum, Rule: "defined", Message: "field not defined"}
	}
	for _, rule := range rules {
		if err := rule.Validate(value); err != nil {
			return &ValidationError{Field: fieldNum, Rule: rule.Name(), Message: err.Error()}
		}
	}
	if level < ValidationStrict {
		return nil
	}
	for _, rule := range cv.globalRules {
		if err := rule.Validate(value); err != nil {
			return &ValidationError{Field: fieldNum, Rule: rule.Name(), Message: err.Error()}
		}
	}
	return nil
}

func sortedFieldSet(set map[int]bool) []int {
	m := make(map[int]string, len(set))
	for k := range set {
		m[k] = ""
	}
	return sortedFields(m)
}

// --- Validation Rule Implementations ---

// LengthRule validates the value length: characters, or bytes for binary
// ByteText.
type LengthRule struct {
	MinLength int
	MaxLength int
	Binary    bool
}

func (r *LengthRule) Name() string {
	return "length"
}

func (r *LengthRule) Validate(value string) error {
	if r.Binary {
		n := len(value) / 2
		if n < r.MinLength || (r.MaxLength > 0 && n > r.MaxLength) {
			return errors.Errorf("length %d bytes outside %d..%d", n, r.MinLength, r.MaxLength)
		}
		return nil
	}
	return validation.Validate(value, validation.RuneLength(r.MinLength, r.MaxLength))
}

// NumericRule requires decimal digits only.
type NumericRule struct{}

func (r *NumericRule) Name() string {
	return "numeric"
}

func (r *NumericRule) Validate(value string) error {
	return validation.Validate(value, is.Digit)
}

// PrintableRule requires printable characters only.
type PrintableRule struct{}

func (r *PrintableRule) Name() string {
	return "printable"
}

func (r *PrintableRule) Validate(value string) error {
	for i, ch := range value {
		if !unicode.IsPrint(ch) {
			return errors.Errorf("non-printable character %q at %d", ch, i)
		}
	}
	return nil
}

// BinaryRule requires whole hex pairs.
type BinaryRule struct{}

func (r *BinaryRule) Name() string {
	return "binary"
}

func (r *BinaryRule) Validate(value string) error {
	_, err := NormalizeText(value)
	return err
}

// RegexRule validates the value against a regular expression.
type RegexRule struct {
	Pattern     *regexp.Regexp
	Description string
}

func (r *RegexRule) Name() string {
	return "regex"
}

func (r *RegexRule) Validate(value string) error {
	rule := validation.Match(r.Pattern)
	if r.Description != "" {
		rule = rule.Error(r.Description)
	}
	return validation.Validate(value, rule)
}

// RangeRule validates that a numeric value is within a given range.
type RangeRule struct {
	Min        int64
	Max        int64
	AllowEmpty bool
}

func (r *RangeRule) Name() string {
	return "range"
}

func (r *RangeRule) Validate(value string) error {
	if value == "" && r.AllowEmpty {
		return nil
	}
	val, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return errors.Errorf("cannot parse as integer: %v", err)
	}
	return validation.Validate(val, validation.Min(r.Min), validation.Max(r.Max))
}

// CustomRule allows defining an arbitrary validation function.
type CustomRule struct {
	ValidateFunc func(string) error
	RuleName     string
}

func (r *CustomRule) Name() string {
	return r.RuleName
}

func (r *CustomRule) Validate(value string) error {
	return r.ValidateFunc(value)
}

var trackDataPattern = regexp.MustCompile(`^[0-9]{1,19}[=D][0-9]*$`)

// TrackDataRule checks track 2 layout: PAN, separator, discretionary digits.
type TrackDataRule struct {
	AllowEmpty bool
}

func (r *TrackDataRule) Name() string {
	return "track_data"
}

func (r *TrackDataRule) Validate(value string) error {
	if value == "" && r.AllowEmpty {
		return nil
	}
	if !trackDataPattern.MatchString(value) {
		return errors.New("malformed track data")
	}
	return nil
}
