package iso8583

import (
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ExtractRule describes how to cut a named sub-value out of an unpacked
// field and check it.
type ExtractRule struct {
	Field       int    `json:"field" yaml:"field"`
	DataType    string `json:"data_type" yaml:"data_type"` // "numeric", "alpha", "alphanumeric", "alphanumeric_special", "hex"
	Length      int    `json:"length" yaml:"length"`       // Expected length
	Padding     string `json:"padding" yaml:"padding"`     // "left", "right", "none"
	PadChar     string `json:"pad_char" yaml:"pad_char"`
	Format      string `json:"format,omitempty" yaml:"format,omitempty"` // "YYYYMMDD", "YYMMDD", "MMDD", "HHMMSS", "MMDDhhmmss"
	From        int    `json:"from,omitempty" yaml:"from,omitempty"`     // 1-based, inclusive
	Until       int    `json:"until,omitempty" yaml:"until,omitempty"`   // 1-based, inclusive
	Required    bool   `json:"required" yaml:"required"`
	TrimPadding bool   `json:"trim_padding" yaml:"trim_padding"`
}

// Padding constants
const (
	PaddingLeft  = "left"
	PaddingRight = "right"
	PaddingNone  = "none"
)

// Format constants
const (
	FormatYYYYMMDD   = "YYYYMMDD"
	FormatYYMMDD     = "YYMMDD"
	FormatMMDD       = "MMDD"
	FormatHHMMSS     = "HHMMSS"
	FormatMMDDhhmmss = "MMDDhhmmss"
)

var formatLayouts = map[string]string{
	FormatYYYYMMDD:   "20060102",
	FormatYYMMDD:     "060102",
	FormatMMDD:       "0102",
	FormatHHMMSS:     "150405",
	FormatMMDDhhmmss: "0102150405",
}

// DataType constants
const (
	DataTypeNumeric             = "numeric"
	DataTypeAlpha               = "alpha"
	DataTypeAlphanumeric        = "alphanumeric"
	DataTypeAlphanumericSpecial = "alphanumeric_special"
	DataTypeHex                 = "hex"
	DataTypeAny                 = "any"
)

// ExtractResult is the outcome of one ExtractRule.
type ExtractResult struct {
	Value   string `json:"value" yaml:"value"`
	Field   int    `json:"field" yaml:"field"`
	IsValid bool   `json:"is_valid" yaml:"is_valid"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// LoadExtractRulesYAML reads a name to ExtractRule map.
func LoadExtractRulesYAML(data []byte) (map[string]ExtractRule, error) {
	var rules map[string]ExtractRule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, errors.Wrap(err, "failed to parse extract rules")
	}
	return rules, nil
}

// ParseLengthValue applies rules to msg. Every rule gets a result; the
// error joins all failures in rule name order.
func ParseLengthValue(msg *Message, rules map[string]ExtractRule) (map[string]ExtractResult, error) {
	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]ExtractResult, len(rules))
	var failures []string

	for _, name := range names {
		rule := rules[name]
		value, err := extract(msg, rule)
		if err == errFieldAbsent {
			continue
		}
		res := ExtractResult{Value: value, Field: rule.Field, IsValid: err == nil}
		if err != nil {
			res.Error = errors.Wrapf(err, "field %d (%s)", rule.Field, name).Error()
			failures = append(failures, res.Error)
		}
		results[name] = res
	}

	if len(failures) > 0 {
		return results, errors.Wrap(ErrValidationFailed, strings.Join(failures, "; "))
	}
	return results, nil
}

var errFieldAbsent = errors.New("field absent")

func extract(msg *Message, rule ExtractRule) (string, error) {
	raw, ok := msg.GetField(rule.Field)
	if !ok {
		if rule.Required {
			return "", errors.New("required but not found")
		}
		return "", errFieldAbsent
	}

	value := raw
	if rule.From > 0 || rule.Until > 0 {
		var err error
		if value, err = extractSubstring(raw, rule.From, rule.Until); err != nil {
			return "", err
		}
	}
	if rule.TrimPadding {
		value = trimPadding(value, rule.Padding, rule.PadChar)
	}
	if rule.Format != "" {
		if err := validateFormat(value, rule.Format); err != nil {
			return value, err
		}
	}
	if err := validateDataType(value, rule.DataType); err != nil {
		return value, err
	}
	if rule.Length > 0 && !rule.TrimPadding && len([]rune(value)) != rule.Length {
		return value, errors.Errorf("expected length %d, got %d", rule.Length, len([]rune(value)))
	}
	return value, nil
}

// trimPadding removes padding characters. Left justified values carry
// padding on the right and the other way around.
func trimPadding(value, padding, padChar string) string {
	if padChar == "" {
		return value
	}
	switch padding {
	case PaddingLeft:
		return strings.TrimRight(value, padChar)
	case PaddingRight:
		return strings.TrimLeft(value, padChar)
	default:
		return value
	}
}

func validateFormat(value, format string) error {
	layout, ok := formatLayouts[format]
	if !ok {
		return errors.Errorf("unknown format %q", format)
	}
	if len(value) != len(layout) {
		return errors.Errorf("invalid %s value: expected %d digits, got %d", format, len(layout), len(value))
	}
	if _, err := time.Parse(layout, value); err != nil {
		return errors.Wrapf(err, "invalid %s value", format)
	}
	return nil
}

// extractSubstring returns characters from..until, 1-based and inclusive.
func extractSubstring(value string, from, until int) (string, error) {
	if from < 1 || until < 1 {
		return "", errors.Errorf("invalid indices: from=%d, until=%d (must be >= 1)", from, until)
	}
	if from > until {
		return "", errors.Errorf("invalid range: from=%d > until=%d", from, until)
	}
	runes := []rune(value)
	if until > len(runes) {
		return "", errors.Errorf("end index %d exceeds value length %d", until, len(runes))
	}
	return string(runes[from-1 : until]), nil
}

var specialChars = " -_./@#$%&*()+=,:;!?"

func validateDataType(value, dataType string) error {
	switch dataType {
	case DataTypeAny, "":
		return nil
	case DataTypeNumeric:
		return validation.Validate(value, is.Digit)
	case DataTypeAlpha:
		return validation.Validate(value, is.Alpha)
	case DataTypeAlphanumeric:
		return validation.Validate(value, is.Alphanumeric)
	case DataTypeHex:
		return validation.Validate(value, is.Hexadecimal)
	case DataTypeAlphanumericSpecial:
		for i, r := range value {
			if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || strings.ContainsRune(specialChars, r) {
				continue
			}
			return errors.Errorf("invalid character %q at position %d", r, i)
		}
		return nil
	default:
		return errors.Errorf("unknown data type: %s", dataType)
	}
}
