package iso8583

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

type packCase struct {
	mti    string
	fields map[int]string
	text   string
}

var packCases = map[string]packCase{
	"financial-request": {
		mti: "0200",
		fields: map[int]string{
			3:  "000000",
			4:  "000000001000",
			11: "123456",
			41: "TERM0001",
		},
		text: "0200" + "3020000000800000" + "000000" + "000000001000" + "123456" + "E3C5D9D4F0F0F0F1",
	},
	"network-request": {
		mti: "0800",
		fields: map[int]string{
			2:  "4111111111111111",
			70: "301",
		},
		text: "0800" + "C000000000000000" + "0400000000000000" + "F0F84111111111111111" + "0301",
	},
	"odd-pan-and-ascii": {
		mti: "0110",
		fields: map[int]string{
			2:  "12345",
			39: "00",
			44: "Hi",
		},
		text: "0110" + "4000000002100000" + "F0F312345F" + "F0F0" + "F0F24869",
	},
	"empty": {
		mti:    "0800",
		fields: map[int]string{},
		text:   "0800" + "0000000000000000",
	},
}

func newTestPackager(t *testing.T, opts ...PackagerOption) *Packager {
	t.Helper()
	p, err := NewPackager(nil, opts...)
	if err != nil {
		t.Fatalf("failed to create packager: %v", err)
	}
	return p
}

func TestPackUnpack(t *testing.T) {
	p := newTestPackager(t)
	for name, tc := range packCases {
		t.Run(name, func(t *testing.T) {
			text, err := p.PackFields(tc.mti, tc.fields)
			if err != nil {
				t.Fatalf("failed to pack: %v", err)
			}
			if text != tc.text {
				t.Fatalf("packed\n%s\nwant\n%s", text, tc.text)
			}

			msg, err := p.Unpack(text)
			if err != nil {
				t.Fatalf("failed to unpack: %v", err)
			}
			defer msg.Release()
			if msg.MTI() != tc.mti {
				t.Fatalf("MTI %s, want %s", msg.MTI(), tc.mti)
			}
			if !reflect.DeepEqual(msg.Fields(), tc.fields) {
				t.Fatalf("fields %v, want %v", msg.Fields(), tc.fields)
			}
			if msg.Raw() != text {
				t.Fatalf("raw %s, want %s", msg.Raw(), text)
			}
		})
	}
}

func TestPackMessage(t *testing.T) {
	p := newTestPackager(t)
	tc := packCases["financial-request"]

	msg := NewMessage(WithMTI(tc.mti), WithFields(tc.fields))
	defer msg.Release()

	text, err := p.Pack(msg)
	if err != nil {
		t.Fatalf("failed to pack: %v", err)
	}
	if text != tc.text {
		t.Fatalf("packed %s, want %s", text, tc.text)
	}

	raw, err := p.PackBytes(msg)
	if err != nil {
		t.Fatalf("failed to pack bytes: %v", err)
	}
	if BytesToText(raw) != tc.text {
		t.Fatalf("packed bytes %X", raw)
	}
	back, err := p.UnpackBytes(raw)
	if err != nil {
		t.Fatalf("failed to unpack bytes: %v", err)
	}
	defer back.Release()
	if !reflect.DeepEqual(back.Fields(), tc.fields) {
		t.Fatalf("fields %v", back.Fields())
	}
}

func TestUnpackLowercaseText(t *testing.T) {
	p := newTestPackager(t)
	tc := packCases["network-request"]
	lower := []byte(tc.text)
	for i, c := range lower {
		if c >= 'A' && c <= 'F' {
			lower[i] = c + ('a' - 'A')
		}
	}
	msg, err := p.Unpack(string(lower))
	if err != nil {
		t.Fatalf("failed to unpack: %v", err)
	}
	defer msg.Release()
	if !reflect.DeepEqual(msg.Fields(), tc.fields) {
		t.Fatalf("fields %v", msg.Fields())
	}
}

func TestPackRejectsReservedFieldsFirst(t *testing.T) {
	p := newTestPackager(t)
	for _, n := range []int{1, 65, 129} {
		// The MTI is invalid too; the reserved field must be reported first.
		_, err := p.PackFields("XX", map[int]string{2: "4111", n: "1"})
		if !errors.Is(err, ErrReservedField) {
			t.Fatalf("field %d: expected ErrReservedField, got %v", n, err)
		}
		var fe *FieldError
		if !errors.As(err, &fe) || fe.Field != n {
			t.Fatalf("field %d: expected FieldError, got %v", n, err)
		}
	}
}

func TestPackErrors(t *testing.T) {
	p := newTestPackager(t)
	testCases := map[string]struct {
		mti    string
		fields map[int]string
		err    error
		field  int
	}{
		"bad mti letters": {mti: "02A0", fields: map[int]string{3: "000000"}, err: ErrInvalidMTI},
		"short mti":       {mti: "020", fields: map[int]string{3: "000000"}, err: ErrInvalidMTI},
		"unknown field":   {mti: "0200", fields: map[int]string{130: "1"}, err: ErrUnknownField, field: 130},
		"out of range":    {mti: "0200", fields: map[int]string{600: "1"}, err: ErrUnknownField, field: 600},
		"numeric too long": {
			mti: "0200", fields: map[int]string{3: "1234567"}, err: ErrFieldLength, field: 3,
		},
		"fixed numeric short": {
			mti: "0200", fields: map[int]string{3: "12"}, err: ErrFieldLength, field: 3,
		},
		"fixed text short": {
			mti: "0200", fields: map[int]string{41: "SHORT"}, err: ErrFieldLength, field: 41,
		},
		"variable too long": {
			mti: "0200", fields: map[int]string{2: "41111111111111111111"}, err: ErrFieldLength, field: 2,
		},
		"numeric not digits": {
			mti: "0200", fields: map[int]string{4: "12.50"}, err: ErrInvalidValue, field: 4,
		},
		"unmappable": {
			mti: "0200", fields: map[int]string{43: "Café" + strings.Repeat(" ", 36)}, err: ErrUnmappableCharacter, field: 43,
		},
		"binary not hex": {
			mti: "0200", fields: map[int]string{52: "XYZ"}, err: ErrInvalidValue, field: 52,
		},
	}
	for name, tc := range testCases {
		_, err := p.PackFields(tc.mti, tc.fields)
		if !errors.Is(err, tc.err) {
			t.Fatalf("%s: expected %v, got %v", name, tc.err, err)
		}
		if tc.field == 0 {
			continue
		}
		var fe *FieldError
		if !errors.As(err, &fe) || fe.Field != tc.field {
			t.Fatalf("%s: expected error on field %d, got %v", name, tc.field, err)
		}
	}
}

func TestPackUnknownFieldType(t *testing.T) {
	catalog, err := NewMapCatalog(map[int]FieldSpec{3: {Type: "x", Length: 3}})
	if err != nil {
		t.Fatalf("failed to create catalog: %v", err)
	}
	p, err := NewPackager(catalog)
	if err != nil {
		t.Fatalf("failed to create packager: %v", err)
	}
	if _, err := p.PackFields("0200", map[int]string{3: "123"}); !errors.Is(err, ErrUnknownFieldType) {
		t.Fatalf("expected ErrUnknownFieldType, got %v", err)
	}
}

func TestPackBeyondSecondaryBitmap(t *testing.T) {
	catalog, err := DefaultCatalog().With(130, FieldSpec{Type: FieldTypeANS, Length: 5})
	if err != nil {
		t.Fatalf("failed to extend catalog: %v", err)
	}
	catalog, err = catalog.With(200, FieldSpec{Type: FieldTypeN, Length: 99, LengthDigits: 2})
	if err != nil {
		t.Fatalf("failed to extend catalog: %v", err)
	}
	p, err := NewPackager(catalog)
	if err != nil {
		t.Fatalf("failed to create packager: %v", err)
	}

	fields := map[int]string{3: "000000", 130: "HELLO", 200: "42"}
	text, err := p.PackFields("0200", fields)
	if err != nil {
		t.Fatalf("failed to pack: %v", err)
	}
	bitmap := "A000000000000000" + "8000000000000000" + "C000000000000000" + "0100000000000000"
	want := "0200" + bitmap + "000000" + "C8C5D3D3D6" + "F0F142"
	if text != want {
		t.Fatalf("packed\n%s\nwant\n%s", text, want)
	}

	msg, err := p.Unpack(text)
	if err != nil {
		t.Fatalf("failed to unpack: %v", err)
	}
	defer msg.Release()
	if msg.Bitmap().BlockCount() != 4 {
		t.Fatalf("%d bitmap blocks, want 4", msg.Bitmap().BlockCount())
	}
	if !reflect.DeepEqual(msg.Fields(), fields) {
		t.Fatalf("fields %v", msg.Fields())
	}
}

func TestUnpackCorruptField(t *testing.T) {
	p := newTestPackager(t)
	text := "0200" + "2000000000000000" + "00000F"
	_, err := p.Unpack(text)
	if !errors.Is(err, ErrCorruptField) {
		t.Fatalf("expected ErrCorruptField, got %v", err)
	}
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != 3 {
		t.Fatalf("expected error on field 3, got %v", err)
	}
}

func TestUnpackErrors(t *testing.T) {
	p := newTestPackager(t)
	testCases := map[string]struct {
		text string
		err  error
	}{
		"odd text":        {text: "020", err: ErrInvalidByteText},
		"not hex":         {text: "0200XX", err: ErrInvalidByteText},
		"short mti":       {text: "02", err: ErrInvalidMTI},
		"mti not digits":  {text: "0A00" + "0000000000000000", err: ErrInvalidMTI},
		"missing bitmap":  {text: "0200", err: ErrInvalidBitmap},
		"truncated field": {text: "0200" + "2000000000000000" + "0000", err: ErrInsufficientData},
		"bad header":      {text: "0200" + "4000000000000000" + "C1C1" + "1234", err: ErrCorruptField},
	}
	for name, tc := range testCases {
		if _, err := p.Unpack(tc.text); !errors.Is(err, tc.err) {
			t.Fatalf("%s: expected %v, got %v", name, tc.err, err)
		}
	}
}

func TestUnpackTrailingData(t *testing.T) {
	tc := packCases["financial-request"]
	text := tc.text + "00FF"

	strict := newTestPackager(t)
	if _, err := strict.Unpack(text); !errors.Is(err, ErrTrailingData) {
		t.Fatalf("expected ErrTrailingData, got %v", err)
	}

	lenient := newTestPackager(t, WithLenientTrailer())
	msg, err := lenient.Unpack(text)
	if err != nil {
		t.Fatalf("failed to unpack: %v", err)
	}
	defer msg.Release()
	if msg.Trailing() != "00FF" {
		t.Fatalf("trailing %q", msg.Trailing())
	}
	if !reflect.DeepEqual(msg.Fields(), tc.fields) {
		t.Fatalf("fields %v", msg.Fields())
	}
}

func TestLengthPrefix(t *testing.T) {
	p := newTestPackager(t, WithLengthPrefix(2))
	tc := packCases["financial-request"]

	msg := NewMessage(WithMTI(tc.mti), WithFields(tc.fields))
	defer msg.Release()

	text, err := p.PackFrame(msg)
	if err != nil {
		t.Fatalf("failed to pack: %v", err)
	}
	want := fmt.Sprintf("%04X", len(tc.text)/2) + tc.text
	if text != want {
		t.Fatalf("packed %s, want %s", text, want)
	}

	back, err := p.Unpack(text)
	if err != nil {
		t.Fatalf("failed to unpack: %v", err)
	}
	defer back.Release()
	if !reflect.DeepEqual(back.Fields(), tc.fields) {
		t.Fatalf("fields %v", back.Fields())
	}

	bad := fmt.Sprintf("%04X", len(tc.text)/2+1) + tc.text
	if _, err := p.Unpack(bad); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
	if _, err := p.Unpack("00"); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestASCIIFieldOverride(t *testing.T) {
	fields := map[int]string{48: "abc"}

	ebcdic := newTestPackager(t)
	text, err := ebcdic.PackFields("0200", fields)
	if err != nil {
		t.Fatalf("failed to pack: %v", err)
	}
	if want := "0200" + "0000000000010000" + "F0F0F3" + "818283"; text != want {
		t.Fatalf("packed %s, want %s", text, want)
	}

	ascii := newTestPackager(t, WithASCIIFields(48))
	text, err = ascii.PackFields("0200", fields)
	if err != nil {
		t.Fatalf("failed to pack: %v", err)
	}
	if want := "0200" + "0000000000010000" + "F0F0F3" + "616263"; text != want {
		t.Fatalf("packed %s, want %s", text, want)
	}

	msg, err := ascii.Unpack(text)
	if err != nil {
		t.Fatalf("failed to unpack: %v", err)
	}
	defer msg.Release()
	if v, _ := msg.GetField(48); v != "abc" {
		t.Fatalf("field 48 %q", v)
	}

	// The same bytes read through the code table give different text.
	other, err := ebcdic.Unpack(text)
	if err != nil {
		t.Fatalf("failed to unpack: %v", err)
	}
	defer other.Release()
	if v, _ := other.GetField(48); v == "abc" {
		t.Fatal("override leaked into a packager without it")
	}
}

func TestWithCodeTable(t *testing.T) {
	table, err := NewCodeTable([]CodeEntry{
		{Code: 0x30, Char: '0'}, {Code: 0x31, Char: '1'}, {Code: 0x32, Char: '2'},
		{Code: 0x33, Char: '3'}, {Code: 0x41, Char: 'A'}, {Code: 0x42, Char: 'B'},
	}, '?')
	if err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	p := newTestPackager(t, WithCodeTable(table))
	text, err := p.PackFields("0200", map[int]string{48: "AB"})
	if err != nil {
		t.Fatalf("failed to pack: %v", err)
	}
	if want := "0200" + "0000000000010000" + "303032" + "4142"; text != want {
		t.Fatalf("packed %s, want %s", text, want)
	}
}

func TestNewPackagerErrors(t *testing.T) {
	if _, err := NewPackager(nil, WithCodeTable(nil)); err == nil {
		t.Fatal("expected error for nil code table")
	}
	if _, err := NewPackager(nil, WithLengthPrefix(-1)); err == nil {
		t.Fatal("expected error for negative prefix")
	}
}

type upperCodec struct {
	*TextCodec
}

func (c upperCodec) Unpack(remaining *string, spec FieldSpec) (string, error) {
	v, err := c.TextCodec.Unpack(remaining, spec)
	return "<" + v + ">", err
}

func TestWithFieldCodec(t *testing.T) {
	p := newTestPackager(t, WithFieldCodec(FieldTypeANS, upperCodec{NewTextCodec(EBCDIC)}))
	text, err := p.PackFields("0200", map[int]string{39: "05"})
	if err != nil {
		t.Fatalf("failed to pack: %v", err)
	}
	msg, err := p.Unpack(text)
	if err != nil {
		t.Fatalf("failed to unpack: %v", err)
	}
	defer msg.Release()
	if v, _ := msg.GetField(39); v != "<05>" {
		t.Fatalf("field 39 %q", v)
	}
}
