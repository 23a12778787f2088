package iso8583

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FieldCatalog resolves a data element number to its definition.
type FieldCatalog interface {
	Lookup(field int) (FieldSpec, error)
}

// MapCatalog is an immutable FieldCatalog backed by a map.
type MapCatalog struct {
	fields map[int]FieldSpec
}

// NewMapCatalog copies and validates fields. Continuation positions and
// malformed definitions are rejected.
func NewMapCatalog(fields map[int]FieldSpec) (*MapCatalog, error) {
	c := &MapCatalog{fields: make(map[int]FieldSpec, len(fields))}
	for num, spec := range fields {
		if num < 1 || num > MaxFieldNumber {
			return nil, errors.Wrapf(ErrUnknownField, "field number %d out of range", num)
		}
		if IsReservedField(num) {
			return nil, fieldErr(num, ErrReservedField)
		}
		if err := ValidateSpec(spec); err != nil {
			return nil, fieldErr(num, err)
		}
		c.fields[num] = spec
	}
	return c, nil
}

// Lookup returns the spec of field, or ErrUnknownField.
func (c *MapCatalog) Lookup(field int) (FieldSpec, error) {
	spec, ok := c.fields[field]
	if !ok {
		return FieldSpec{}, fieldErr(field, ErrUnknownField)
	}
	return spec, nil
}

// Fields returns the defined field numbers in ascending order.
func (c *MapCatalog) Fields() []int {
	out := make([]int, 0, len(c.fields))
	for k := range c.fields {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// With returns a copy of the catalog with spec defined for field.
func (c *MapCatalog) With(field int, spec FieldSpec) (*MapCatalog, error) {
	fields := make(map[int]FieldSpec, len(c.fields)+1)
	for k, v := range c.fields {
		fields[k] = v
	}
	fields[field] = spec
	return NewMapCatalog(fields)
}

// catalogEntry is the file form of a FieldSpec, with the length written in
// catalog notation ("6", "..19", "...999").
type catalogEntry struct {
	Type        FieldType `json:"type" yaml:"type"`
	Length      string    `json:"length" yaml:"length"`
	ASCII       bool      `json:"ascii" yaml:"ascii"`
	DigitCount  bool      `json:"digit_count" yaml:"digit_count"`
	Mandatory   bool      `json:"mandatory" yaml:"mandatory"`
	Description string    `json:"description" yaml:"description"`
}

// LoadCatalogYAML parses a catalog of the form
//
//	"2": {type: n, length: "..19"}
//	"3": {type: n, length: "6", mandatory: true}
func LoadCatalogYAML(data []byte) (*MapCatalog, error) {
	var raw map[string]catalogEntry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "failed to parse catalog")
	}
	return buildCatalog(raw)
}

// LoadCatalogJSON is LoadCatalogYAML for JSON documents.
func LoadCatalogJSON(data []byte) (*MapCatalog, error) {
	var raw map[string]catalogEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "failed to parse catalog")
	}
	return buildCatalog(raw)
}

func buildCatalog(raw map[string]catalogEntry) (*MapCatalog, error) {
	fields := make(map[int]FieldSpec, len(raw))
	for key, e := range raw {
		num, err := strconv.Atoi(key)
		if err != nil {
			return nil, errors.Wrapf(ErrUnknownField, "field key %q is not a number", key)
		}
		length, digits, err := ParseLengthSpec(e.Length)
		if err != nil {
			return nil, fieldErr(num, errors.Wrap(ErrFieldLength, err.Error()))
		}
		fields[num] = FieldSpec{
			Type:         e.Type,
			Length:       length,
			LengthDigits: digits,
			ASCII:        e.ASCII,
			DigitCount:   e.DigitCount,
			Mandatory:    e.Mandatory,
			Description:  e.Description,
		}
	}
	return NewMapCatalog(fields)
}

// MarshalYAML renders the catalog in the same form LoadCatalogYAML reads.
func (c *MapCatalog) MarshalYAML() (interface{}, error) {
	out := make(map[string]catalogEntry, len(c.fields))
	for num, spec := range c.fields {
		out[strconv.Itoa(num)] = catalogEntry{
			Type:        spec.Type,
			Length:      spec.LengthSpec(),
			ASCII:       spec.ASCII,
			DigitCount:  spec.DigitCount,
			Mandatory:   spec.Mandatory,
			Description: spec.Description,
		}
	}
	return out, nil
}
