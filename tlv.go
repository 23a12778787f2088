package iso8583

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// TLVType selects the tag and length encoding.
type TLVType int

const (
	TLVStandard TLVType = iota // 1 byte tag, 1 byte length
	TLVEMV                     // BER-TLV: multi-byte tags, short or long form lengths
)

// TLV is one Tag-Length-Value entry. Tag and Value are ByteText.
type TLV struct {
	Tag   string
	Value string
}

// Length returns the value length in bytes.
func (t TLV) Length() int {
	return len(t.Value) / 2
}

// IsConstructed reports whether an EMV tag holds nested TLVs (bit 6 of the
// first tag byte).
func (t TLV) IsConstructed() bool {
	if len(t.Tag) < 2 {
		return false
	}
	b, ok := hexPair(t.Tag[0], t.Tag[1])
	return ok && b&0x20 != 0
}

// Children parses the value of a constructed tag.
func (t TLV) Children() ([]TLV, error) {
	if !t.IsConstructed() {
		return nil, &TLVError{Tag: t.Tag, Err: errors.Wrap(ErrInvalidTLV, "primitive tag")}
	}
	return ParseTLV(t.Value)
}

// TLVParser parses and packs TLV data held in binary fields such as DE 55.
// It is stateless and safe for concurrent use.
type TLVParser struct {
	tlvType TLVType
}

// NewTLVParser returns a parser for the given tag and length encoding.
func NewTLVParser(tlvType TLVType) *TLVParser {
	return &TLVParser{tlvType: tlvType}
}

// Parse reads every entry of text.
func (tp *TLVParser) Parse(text string) ([]TLV, error) {
	data, err := TextToBytes(text)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidTLV, err.Error())
	}
	switch tp.tlvType {
	case TLVStandard:
		return parseStandardTLV(data)
	case TLVEMV:
		return parseEMVTLV(data)
	default:
		return nil, errors.Wrapf(ErrInvalidTLV, "unsupported TLV type %d", tp.tlvType)
	}
}

// Pack encodes tlvs in order.
func (tp *TLVParser) Pack(tlvs []TLV) (string, error) {
	sb := getBuilder()
	defer putBuilder(sb)

	for _, t := range tlvs {
		tag, err := NormalizeText(t.Tag)
		if err != nil || tag == "" {
			return "", &TLVError{Tag: t.Tag, Err: errors.Wrap(ErrInvalidTLV, "bad tag")}
		}
		value, err := NormalizeText(t.Value)
		if err != nil {
			return "", &TLVError{Tag: t.Tag, Err: errors.Wrap(ErrInvalidTLV, err.Error())}
		}
		n := len(value) / 2

		switch tp.tlvType {
		case TLVStandard:
			if len(tag) != 2 || n > 0xFF {
				return "", &TLVError{Tag: t.Tag, Err: errors.Wrap(ErrInvalidTLV, "standard TLV needs 1 byte tag and length")}
			}
			sb.WriteString(tag)
			sb.WriteString(BytesToText([]byte{byte(n)}))
		case TLVEMV:
			sb.WriteString(tag)
			sb.WriteString(BytesToText(berLength(n)))
		default:
			return "", errors.Wrapf(ErrInvalidTLV, "unsupported TLV type %d", tp.tlvType)
		}
		sb.WriteString(value)
	}
	return sb.String(), nil
}

// ParseTLV parses EMV BER-TLV ByteText.
func ParseTLV(text string) ([]TLV, error) {
	return NewTLVParser(TLVEMV).Parse(text)
}

// PackTLV packs EMV BER-TLV ByteText.
func PackTLV(tlvs []TLV) (string, error) {
	return NewTLVParser(TLVEMV).Pack(tlvs)
}

// TLV parses the value of a binary field as EMV BER-TLV.
func (m *Message) TLV(fieldNum int) ([]TLV, error) {
	v, err := m.GetString(fieldNum)
	if err != nil {
		return nil, err
	}
	tlvs, err := ParseTLV(v)
	if err != nil {
		return nil, fieldErr(fieldNum, err)
	}
	return tlvs, nil
}

// SetTLV packs tlvs into a binary field.
func (m *Message) SetTLV(fieldNum int, tlvs []TLV) error {
	v, err := PackTLV(tlvs)
	if err != nil {
		return fieldErr(fieldNum, err)
	}
	return m.SetField(fieldNum, v)
}

func berLength(n int) []byte {
	if n < 0x80 {
		return []byte{byte(n)}
	}
	var lengthBytes []byte
	for temp := n; temp > 0; temp >>= 8 {
		lengthBytes = append([]byte{byte(temp)}, lengthBytes...)
	}
	return append([]byte{byte(0x80 | len(lengthBytes))}, lengthBytes...)
}

func parseStandardTLV(data []byte) ([]TLV, error) {
	var out []TLV
	offset := 0
	for offset < len(data) {
		if offset+2 > len(data) {
			return nil, errors.Wrapf(ErrInvalidTLV, "truncated header at offset %d", offset)
		}
		tag := data[offset : offset+1]
		length := int(data[offset+1])
		offset += 2
		if offset+length > len(data) {
			return nil, &TLVError{Tag: BytesToText(tag), Err: errors.Wrap(ErrInvalidTLV, "truncated value")}
		}
		out = append(out, TLV{Tag: BytesToText(tag), Value: BytesToText(data[offset : offset+length])})
		offset += length
	}
	return out, nil
}

func parseEMVTLV(data []byte) ([]TLV, error) {
	var out []TLV
	offset := 0
	for offset < len(data) {
		// Padding between entries.
		if data[offset] == 0x00 || data[offset] == 0xFF {
			offset++
			continue
		}

		tagStart := offset
		first := data[offset]
		offset++
		// Bits 5-1 all set: more tag bytes follow while the MSB is set.
		if first&0x1F == 0x1F {
			for offset < len(data) && data[offset]&0x80 != 0 {
				offset++
			}
			if offset >= len(data) {
				return nil, errors.Wrapf(ErrInvalidTLV, "truncated tag at offset %d", tagStart)
			}
			offset++
		}
		tag := BytesToText(data[tagStart:offset])

		if offset >= len(data) {
			return nil, &TLVError{Tag: tag, Err: errors.Wrap(ErrInvalidTLV, "missing length")}
		}
		lengthByte := data[offset]
		offset++
		length := int(lengthByte)
		if lengthByte&0x80 != 0 {
			numLengthBytes := int(lengthByte & 0x7F)
			if numLengthBytes == 0 || numLengthBytes > 4 {
				return nil, &TLVError{Tag: tag, Err: errors.Wrapf(ErrInvalidTLV, "%d length bytes", numLengthBytes)}
			}
			if offset+numLengthBytes > len(data) {
				return nil, &TLVError{Tag: tag, Err: errors.Wrap(ErrInvalidTLV, "truncated length")}
			}
			length = 0
			for i := 0; i < numLengthBytes; i++ {
				length = length<<8 | int(data[offset])
				offset++
			}
		}

		if length < 0 || offset+length > len(data) {
			return nil, &TLVError{Tag: tag, Err: errors.Wrap(ErrInvalidTLV, "truncated value")}
		}
		out = append(out, TLV{Tag: tag, Value: BytesToText(data[offset : offset+length])})
		offset += length
	}
	return out, nil
}

// FindTLV finds the first entry with the given tag.
func FindTLV(tlvs []TLV, tag string) (*TLV, bool) {
	for i := range tlvs {
		if strings.EqualFold(tlvs[i].Tag, tag) {
			return &tlvs[i], true
		}
	}
	return nil, false
}

// FilterTLVsByTag returns all entries whose tag starts with tagPrefix.
func FilterTLVsByTag(tlvs []TLV, tagPrefix string) []TLV {
	var result []TLV
	prefix := strings.ToUpper(tagPrefix)
	for _, t := range tlvs {
		if strings.HasPrefix(strings.ToUpper(t.Tag), prefix) {
			result = append(result, t)
		}
	}
	return result
}

// TLVToMap converts entries to a tag to value map. Later duplicates win.
func TLVToMap(tlvs []TLV) map[string]string {
	result := make(map[string]string, len(tlvs))
	for _, t := range tlvs {
		result[strings.ToUpper(t.Tag)] = t.Value
	}
	return result
}

// MapToTLV converts a tag to value map into entries ordered by tag.
func MapToTLV(tlvMap map[string]string) []TLV {
	tags := make([]string, 0, len(tlvMap))
	for tag := range tlvMap {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	result := make([]TLV, 0, len(tags))
	for _, tag := range tags {
		result = append(result, TLV{Tag: tag, Value: tlvMap[tag]})
	}
	return result
}
