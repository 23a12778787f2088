package iso8583

import (
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// DefaultPlaceholder is substituted when a byte has no character mapping.
const DefaultPlaceholder = '.'

// CodeEntry maps one single-byte code to its display character.
type CodeEntry struct {
	Code byte
	Char rune
}

// CodeTable is an immutable bijection between single-byte codes and
// characters. It is safe for concurrent use.
type CodeTable struct {
	toChar      [256]rune
	mapped      [256]bool
	toCode      map[rune]byte
	placeholder rune
}

// NewCodeTable builds a table from entries, rejecting duplicate codes and
// duplicate characters.
func NewCodeTable(entries []CodeEntry, placeholder rune) (*CodeTable, error) {
	t := &CodeTable{
		toCode:      make(map[rune]byte, len(entries)),
		placeholder: placeholder,
	}
	for _, e := range entries {
		if t.mapped[e.Code] {
			return nil, errors.Wrapf(ErrDuplicateCode, "code %02X maps to both %q and %q", e.Code, t.toChar[e.Code], e.Char)
		}
		if prev, ok := t.toCode[e.Char]; ok {
			return nil, errors.Wrapf(ErrDuplicateCode, "character %q maps to both %02X and %02X", e.Char, prev, e.Code)
		}
		t.toChar[e.Code] = e.Char
		t.mapped[e.Code] = true
		t.toCode[e.Char] = e.Code
	}
	return t, nil
}

// CodeTableFromCharmap builds a table from a single-byte charmap, keeping the
// printable, non-control characters only.
func CodeTableFromCharmap(cm *charmap.Charmap, placeholder rune) (*CodeTable, error) {
	entries := make([]CodeEntry, 0, 256)
	for b := 0; b < 256; b++ {
		r := cm.DecodeByte(byte(b))
		if r == '�' || r < 0x20 || (r >= 0x7F && r < 0xA0) {
			continue
		}
		entries = append(entries, CodeEntry{Code: byte(b), Char: r})
	}
	return NewCodeTable(entries, placeholder)
}

// Encode returns the two-character ByteText code of r.
func (t *CodeTable) Encode(r rune) (string, error) {
	code, ok := t.toCode[r]
	if !ok {
		return "", &CharError{Char: r, Pos: -1}
	}
	return string([]byte{hexTableUpper[code>>4], hexTableUpper[code&0x0f]}), nil
}

// Decode returns the character for a two-character ByteText code, or the
// placeholder when the code is not mapped or not hex.
func (t *CodeTable) Decode(code string) rune {
	if len(code) != 2 {
		return t.placeholder
	}
	b, ok := hexPair(code[0], code[1])
	if !ok || !t.mapped[b] {
		return t.placeholder
	}
	return t.toChar[b]
}

// EncodeString transcodes every character of s, one byte each.
func (t *CodeTable) EncodeString(s string) (string, error) {
	out := make([]byte, 0, len(s)*2)
	pos := 0
	for _, r := range s {
		code, ok := t.toCode[r]
		if !ok {
			return "", &CharError{Char: r, Pos: pos}
		}
		out = append(out, hexTableUpper[code>>4], hexTableUpper[code&0x0f])
		pos++
	}
	return string(out), nil
}

// DecodeText transcodes ByteText into characters. The output always has one
// character per input byte.
func (t *CodeTable) DecodeText(text string) string {
	out := make([]rune, 0, len(text)/2)
	for i := 0; i+1 < len(text); i += 2 {
		out = append(out, t.Decode(text[i:i+2]))
	}
	return string(out)
}

// Len returns the number of mapped codes.
func (t *CodeTable) Len() int {
	return len(t.toCode)
}

// Placeholder is the rune Decode returns for unmapped codes.
func (t *CodeTable) Placeholder() rune {
	return t.placeholder
}

// Entries returns the mapping in ascending code order.
func (t *CodeTable) Entries() []CodeEntry {
	out := make([]CodeEntry, 0, len(t.toCode))
	for b := 0; b < 256; b++ {
		if t.mapped[b] {
			out = append(out, CodeEntry{Code: byte(b), Char: t.toChar[b]})
		}
	}
	return out
}

// ebcdic037 is the printable subset of IBM code page 037 used on the wire by
// the host side.
var ebcdic037 = []CodeEntry{
	{0x40, ' '}, {0x4A, '¢'}, {0x4B, '.'}, {0x4C, '<'}, {0x4D, '('}, {0x4E, '+'}, {0x4F, '|'},
	{0x50, '&'}, {0x5A, '!'}, {0x5B, '$'}, {0x5C, '*'}, {0x5D, ')'}, {0x5E, ';'}, {0x5F, '¬'},
	{0x60, '-'}, {0x61, '/'}, {0x6A, '¦'}, {0x6B, ','}, {0x6C, '%'}, {0x6D, '_'}, {0x6E, '>'}, {0x6F, '?'},
	{0x79, '`'}, {0x7A, ':'}, {0x7B, '#'}, {0x7C, '@'}, {0x7D, '\''}, {0x7E, '='}, {0x7F, '"'},
	{0x81, 'a'}, {0x82, 'b'}, {0x83, 'c'}, {0x84, 'd'}, {0x85, 'e'}, {0x86, 'f'}, {0x87, 'g'}, {0x88, 'h'}, {0x89, 'i'},
	{0x91, 'j'}, {0x92, 'k'}, {0x93, 'l'}, {0x94, 'm'}, {0x95, 'n'}, {0x96, 'o'}, {0x97, 'p'}, {0x98, 'q'}, {0x99, 'r'},
	{0xA1, '~'}, {0xA2, 's'}, {0xA3, 't'}, {0xA4, 'u'}, {0xA5, 'v'}, {0xA6, 'w'}, {0xA7, 'x'}, {0xA8, 'y'}, {0xA9, 'z'},
	{0xC0, '{'}, {0xC1, 'A'}, {0xC2, 'B'}, {0xC3, 'C'}, {0xC4, 'D'}, {0xC5, 'E'}, {0xC6, 'F'}, {0xC7, 'G'}, {0xC8, 'H'}, {0xC9, 'I'},
	{0xD0, '}'}, {0xD1, 'J'}, {0xD2, 'K'}, {0xD3, 'L'}, {0xD4, 'M'}, {0xD5, 'N'}, {0xD6, 'O'}, {0xD7, 'P'}, {0xD8, 'Q'}, {0xD9, 'R'},
	{0xE0, '\\'}, {0xE2, 'S'}, {0xE3, 'T'}, {0xE4, 'U'}, {0xE5, 'V'}, {0xE6, 'W'}, {0xE7, 'X'}, {0xE8, 'Y'}, {0xE9, 'Z'},
	{0xF0, '0'}, {0xF1, '1'}, {0xF2, '2'}, {0xF3, '3'}, {0xF4, '4'}, {0xF5, '5'}, {0xF6, '6'}, {0xF7, '7'}, {0xF8, '8'}, {0xF9, '9'},
}

// EBCDIC is the default code table. A broken static table is a build bug, so
// it fails at package initialization.
var EBCDIC = mustCodeTable(ebcdic037, DefaultPlaceholder)

func mustCodeTable(entries []CodeEntry, placeholder rune) *CodeTable {
	t, err := NewCodeTable(entries, placeholder)
	if err != nil {
		panic(err)
	}
	return t
}
