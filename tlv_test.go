package iso8583

import (
	"reflect"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestTLVRoundTrip(t *testing.T) {
	tlvs := []TLV{
		{Tag: "9F26", Value: "1122334455667788"},
		{Tag: "82", Value: "5C00"},
		{Tag: "9F36", Value: "0001"},
		{Tag: "5F2A", Value: "0840"},
	}
	text, err := PackTLV(tlvs)
	if err != nil {
		t.Fatalf("failed to pack: %v", err)
	}
	want := "9F26081122334455667788" + "82025C00" + "9F36020001" + "5F2A020840"
	if text != want {
		t.Fatalf("packed %s, want %s", text, want)
	}

	back, err := ParseTLV(text)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if !reflect.DeepEqual(back, tlvs) {
		t.Fatalf("parsed %v", back)
	}
}

func TestTLVLongFormLength(t *testing.T) {
	value := strings.Repeat("AB", 200)
	text, err := PackTLV([]TLV{{Tag: "DF01", Value: value}})
	if err != nil {
		t.Fatalf("failed to pack: %v", err)
	}
	if !strings.HasPrefix(text, "DF0181C8") {
		t.Fatalf("expected long form length, got %s", text[:12])
	}
	back, err := ParseTLV(text)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if len(back) != 1 || back[0].Length() != 200 {
		t.Fatalf("parsed %v", back)
	}
}

func TestTLVConstructed(t *testing.T) {
	inner := "9F0206000000001000"
	tlvs, err := ParseTLV("7009" + inner)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if len(tlvs) != 1 || !tlvs[0].IsConstructed() {
		t.Fatalf("expected one constructed entry, got %v", tlvs)
	}
	children, err := tlvs[0].Children()
	if err != nil {
		t.Fatalf("failed to parse children: %v", err)
	}
	if len(children) != 1 || children[0].Tag != "9F02" {
		t.Fatalf("children %v", children)
	}
	if _, err := children[0].Children(); !errors.Is(err, ErrInvalidTLV) {
		t.Fatalf("expected ErrInvalidTLV for primitive tag, got %v", err)
	}
}

func TestTLVSkipsPadding(t *testing.T) {
	tlvs, err := ParseTLV("00" + "82025C00" + "FF")
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if len(tlvs) != 1 || tlvs[0].Tag != "82" {
		t.Fatalf("parsed %v", tlvs)
	}
}

func TestTLVErrors(t *testing.T) {
	testCases := map[string]string{
		"truncated value":  "9F2608112233",
		"missing length":   "9F26",
		"truncated tag":    "9F",
		"bad long form":    "9F2685000000000011",
		"truncated length": "9F2682",
		"odd text":         "9F2",
	}
	for name, text := range testCases {
		if _, err := ParseTLV(text); !errors.Is(err, ErrInvalidTLV) {
			t.Fatalf("%s: expected ErrInvalidTLV, got %v", name, err)
		}
	}
}

func TestStandardTLV(t *testing.T) {
	parser := NewTLVParser(TLVStandard)
	text, err := parser.Pack([]TLV{{Tag: "01", Value: "414243"}, {Tag: "02", Value: ""}})
	if err != nil {
		t.Fatalf("failed to pack: %v", err)
	}
	if text != "0103414243"+"0200" {
		t.Fatalf("packed %s", text)
	}
	back, err := parser.Parse(text)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if len(back) != 2 || back[0].Value != "414243" || back[1].Value != "" {
		t.Fatalf("parsed %v", back)
	}
	if _, err := parser.Pack([]TLV{{Tag: "9F02", Value: "00"}}); !errors.Is(err, ErrInvalidTLV) {
		t.Fatalf("expected ErrInvalidTLV for two byte tag, got %v", err)
	}
}

func TestTLVHelpers(t *testing.T) {
	tlvs := []TLV{
		{Tag: "9F26", Value: "11"},
		{Tag: "9F36", Value: "22"},
		{Tag: "82", Value: "33"},
	}
	found, ok := FindTLV(tlvs, "9f36")
	if !ok || found.Value != "22" {
		t.Fatalf("FindTLV = %v, %v", found, ok)
	}
	if _, ok := FindTLV(tlvs, "95"); ok {
		t.Fatal("found absent tag")
	}
	if got := FilterTLVsByTag(tlvs, "9F"); len(got) != 2 {
		t.Fatalf("filtered %v", got)
	}

	m := TLVToMap(tlvs)
	if m["82"] != "33" || len(m) != 3 {
		t.Fatalf("map %v", m)
	}
	back := MapToTLV(m)
	if back[0].Tag != "82" || back[2].Tag != "9F36" {
		t.Fatalf("MapToTLV order %v", back)
	}
}

func TestMessageTLV(t *testing.T) {
	msg := NewMessage(WithMTI("0200"))
	defer msg.Release()

	tlvs := []TLV{{Tag: "9F02", Value: "000000001000"}}
	if err := msg.SetTLV(55, tlvs); err != nil {
		t.Fatalf("failed to set TLV: %v", err)
	}
	got, err := msg.TLV(55)
	if err != nil {
		t.Fatalf("failed to read TLV: %v", err)
	}
	if !reflect.DeepEqual(got, tlvs) {
		t.Fatalf("got %v", got)
	}
	if _, err := msg.TLV(56); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}
