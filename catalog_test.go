package iso8583

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const testCatalogYAML = `
"2":  {type: n, length: "..19", description: PAN}
"3":  {type: n, length: "6", mandatory: true}
"35": {type: z, length: "..37"}
"44": {type: ans, length: "..25", ascii: true}
"55": {type: b, length: "...999"}
"62": {type: n, length: "..19", digit_count: true}
`

func TestLoadCatalogYAML(t *testing.T) {
	c, err := LoadCatalogYAML([]byte(testCatalogYAML))
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	if got := c.Fields(); !reflect.DeepEqual(got, []int{2, 3, 35, 44, 55, 62}) {
		t.Fatalf("fields %v", got)
	}

	testCases := map[int]FieldSpec{
		2:  {Type: FieldTypeN, Length: 19, LengthDigits: 2, Description: "PAN"},
		3:  {Type: FieldTypeN, Length: 6, Mandatory: true},
		44: {Type: FieldTypeANS, Length: 25, LengthDigits: 2, ASCII: true},
		55: {Type: FieldTypeB, Length: 999, LengthDigits: 3},
		62: {Type: FieldTypeN, Length: 19, LengthDigits: 2, DigitCount: true},
	}
	for n, want := range testCases {
		got, err := c.Lookup(n)
		if err != nil {
			t.Fatalf("failed to look up %d: %v", n, err)
		}
		if got != want {
			t.Fatalf("field %d: got %+v, want %+v", n, got, want)
		}
	}

	_, err = c.Lookup(4)
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestLoadCatalogJSON(t *testing.T) {
	c, err := LoadCatalogJSON([]byte(`{"3": {"type": "n", "length": "6"}, "48": {"type": "ans", "length": "...999"}}`))
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	spec, err := c.Lookup(48)
	if err != nil {
		t.Fatalf("failed to look up 48: %v", err)
	}
	if spec.Length != 999 || spec.LengthDigits != 3 || spec.LengthSpec() != "...999" {
		t.Fatalf("unexpected spec %+v", spec)
	}
}

func TestCatalogYAMLRoundTrip(t *testing.T) {
	c, err := LoadCatalogYAML([]byte(testCatalogYAML))
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		t.Fatalf("failed to marshal catalog: %v", err)
	}
	back, err := LoadCatalogYAML(data)
	if err != nil {
		t.Fatalf("failed to reload catalog: %v", err)
	}
	if !reflect.DeepEqual(back, c) {
		t.Fatalf("round trip changed catalog:\n%s", data)
	}
}

func TestCatalogErrors(t *testing.T) {
	testCases := map[string]struct {
		doc string
		err error
	}{
		"reserved field":   {doc: `"65": {type: b, length: "8"}`, err: ErrReservedField},
		"key not a number": {doc: `"x": {type: n, length: "6"}`, err: ErrUnknownField},
		"out of range":     {doc: `"600": {type: n, length: "6"}`, err: ErrUnknownField},
		"bad length":       {doc: `"3": {type: n, length: ".."}`, err: ErrFieldLength},
		"zero length":      {doc: `"3": {type: n, length: "0"}`, err: ErrFieldLength},
		"header too small": {doc: `"48": {type: ans, length: ".150"}`, err: ErrInvalidSpec},
		"missing type":     {doc: `"3": {length: "6"}`, err: ErrInvalidSpec},
	}
	for name, tc := range testCases {
		if _, err := LoadCatalogYAML([]byte(tc.doc)); !errors.Is(err, tc.err) {
			t.Fatalf("%s: expected %v, got %v", name, tc.err, err)
		}
	}
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	if err := ValidateCatalog(c); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}
	for _, n := range c.Fields() {
		if IsReservedField(n) {
			t.Fatalf("default catalog defines continuation field %d", n)
		}
	}
	spec, err := c.Lookup(44)
	if err != nil || !spec.ASCII {
		t.Fatalf("field 44 should be ASCII: %+v %v", spec, err)
	}
}

func TestMapCatalogWith(t *testing.T) {
	base := DefaultCatalog()
	ext, err := base.With(150, FieldSpec{Type: FieldTypeANS, Length: 10})
	if err != nil {
		t.Fatalf("failed to extend: %v", err)
	}
	if _, err := ext.Lookup(150); err != nil {
		t.Fatalf("extension missing: %v", err)
	}
	if _, err := base.Lookup(150); !errors.Is(err, ErrUnknownField) {
		t.Fatal("With modified the original catalog")
	}
	if _, err := base.With(129, FieldSpec{Type: FieldTypeB, Length: 8}); !errors.Is(err, ErrReservedField) {
		t.Fatalf("expected ErrReservedField, got %v", err)
	}
}

func TestParseLengthSpec(t *testing.T) {
	testCases := map[string][2]int{
		"6":      {6, 0},
		"..19":   {19, 2},
		"...999": {999, 3},
		" .9 ":   {9, 1},
	}
	for in, want := range testCases {
		length, digits, err := ParseLengthSpec(in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if length != want[0] || digits != want[1] {
			t.Fatalf("%q: got %d/%d", in, length, digits)
		}
	}
	for _, bad := range []string{"", "..", "1.2", "abc", "-3"} {
		if _, _, err := ParseLengthSpec(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}
