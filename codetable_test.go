package iso8583

import (
	"testing"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

func TestCodeTableBijection(t *testing.T) {
	seen := make(map[rune]byte)
	for _, e := range EBCDIC.Entries() {
		if prev, ok := seen[e.Char]; ok {
			t.Fatalf("character %q mapped twice: %02X and %02X", e.Char, prev, e.Code)
		}
		seen[e.Char] = e.Code

		code, err := EBCDIC.Encode(e.Char)
		if err != nil {
			t.Fatalf("failed to encode %q: %v", e.Char, err)
		}
		if r := EBCDIC.Decode(code); r != e.Char {
			t.Fatalf("round trip of %q: got %q", e.Char, r)
		}
	}
	if EBCDIC.Len() != len(seen) {
		t.Fatalf("Len() = %d, want %d", EBCDIC.Len(), len(seen))
	}
}

func TestCodeTableMatchesCodePage037(t *testing.T) {
	for _, e := range EBCDIC.Entries() {
		if r := charmap.CodePage037.DecodeByte(e.Code); r != e.Char {
			t.Fatalf("code %02X: table has %q, CP037 has %q", e.Code, e.Char, r)
		}
	}
}

func TestCodeTableFromCharmap(t *testing.T) {
	table, err := CodeTableFromCharmap(charmap.CodePage037, DefaultPlaceholder)
	if err != nil {
		t.Fatalf("failed to build table: %v", err)
	}
	for _, e := range EBCDIC.Entries() {
		code, err := table.Encode(e.Char)
		if err != nil {
			t.Fatalf("failed to encode %q: %v", e.Char, err)
		}
		if want := BytesToText([]byte{e.Code}); code != want {
			t.Fatalf("code of %q: got %s, want %s", e.Char, code, want)
		}
	}
}

func TestCodeTableEncodeString(t *testing.T) {
	testCases := map[string]string{
		"":        "",
		"09":      "F0F9",
		"AZ az":   "C1E94081A9",
		"T=1.5$":  "E37EF14BF55B",
		"{}\\|!?": "C0D0E04F5A6F",
	}
	for in, want := range testCases {
		got, err := EBCDIC.EncodeString(in)
		if err != nil {
			t.Fatalf("failed to encode %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("encode %q: got %s, want %s", in, got, want)
		}
		if back := EBCDIC.DecodeText(got); back != in {
			t.Fatalf("decode %s: got %q, want %q", got, back, in)
		}
	}
}

func TestCodeTableUnmappable(t *testing.T) {
	_, err := EBCDIC.EncodeString("ABé")
	if !errors.Is(err, ErrUnmappableCharacter) {
		t.Fatalf("expected ErrUnmappableCharacter, got %v", err)
	}
	var ce *CharError
	if !errors.As(err, &ce) || ce.Pos != 2 || ce.Char != 'é' {
		t.Fatalf("unexpected char error %#v", ce)
	}
}

func TestCodeTableDecodePlaceholder(t *testing.T) {
	if got := EBCDIC.DecodeText("00C1FF"); got != ".A." {
		t.Fatalf("got %q", got)
	}
	if got := EBCDIC.Decode("ZZ"); got != DefaultPlaceholder {
		t.Fatalf("got %q", got)
	}
	if got := EBCDIC.DecodeText("c1c2"); got != "AB" {
		t.Fatalf("lowercase text: got %q", got)
	}
}

func TestNewCodeTableDuplicates(t *testing.T) {
	testCases := map[string][]CodeEntry{
		"duplicate code": {{Code: 0xC1, Char: 'A'}, {Code: 0xC1, Char: 'B'}},
		"duplicate char": {{Code: 0xC1, Char: 'A'}, {Code: 0xC2, Char: 'A'}},
	}
	for name, entries := range testCases {
		if _, err := NewCodeTable(entries, '?'); !errors.Is(err, ErrDuplicateCode) {
			t.Fatalf("%s: expected ErrDuplicateCode, got %v", name, err)
		}
	}
}

func TestByteTextConversion(t *testing.T) {
	raw := []byte{0x00, 0x12, 0xAB, 0xFF}
	text := BytesToText(raw)
	if text != "0012ABFF" {
		t.Fatalf("got %s", text)
	}
	back, err := TextToBytes("0012abff")
	if err != nil {
		t.Fatalf("failed to convert: %v", err)
	}
	if string(back) != string(raw) {
		t.Fatalf("got %X", back)
	}

	if got, err := NormalizeText("0012abff"); err != nil || got != "0012ABFF" {
		t.Fatalf("normalized %q, %v", got, err)
	}
	dst := make([]byte, 4)
	encodeHexUpper(dst, []byte{0xAB, 0xCD})
	if string(dst) != "ABCD" {
		t.Fatalf("encoded %s", dst)
	}

	for _, bad := range []string{"ABC", "0G"} {
		if _, err := TextToBytes(bad); !errors.Is(err, ErrInvalidByteText) {
			t.Fatalf("%q: expected ErrInvalidByteText, got %v", bad, err)
		}
		if _, err := NormalizeText(bad); !errors.Is(err, ErrInvalidByteText) {
			t.Fatalf("%q: expected ErrInvalidByteText, got %v", bad, err)
		}
	}
}
