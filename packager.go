package iso8583

import (
	"github.com/pkg/errors"
)

// Packager converts between Messages and ByteText. It is immutable after
// NewPackager and safe for concurrent use.
type Packager struct {
	catalog        FieldCatalog
	table          *CodeTable
	codecs         map[FieldType]FieldCodec
	asciiFields    map[int]bool
	lengthPrefix   int
	lenientTrailer bool
	validator      *CompiledValidator
}

var textTypes = []FieldType{
	FieldTypeN, FieldTypeA, FieldTypeS, FieldTypeAN, FieldTypeAS,
	FieldTypeNS, FieldTypeANS, FieldTypeZ,
}

// NewPackager creates a Packager over catalog. A nil catalog selects
// DefaultCatalog.
func NewPackager(catalog FieldCatalog, opts ...PackagerOption) (*Packager, error) {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	p := &Packager{
		catalog:     catalog,
		table:       EBCDIC,
		codecs:      make(map[FieldType]FieldCodec),
		asciiFields: make(map[int]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.table == nil {
		return nil, errors.New("nil code table")
	}
	if p.lengthPrefix < 0 {
		return nil, errors.Errorf("invalid length prefix %d", p.lengthPrefix)
	}

	text := NewTextCodec(p.table)
	for _, ft := range textTypes {
		if _, ok := p.codecs[ft]; !ok {
			p.codecs[ft] = text
		}
	}
	if _, ok := p.codecs[FieldTypeB]; !ok {
		p.codecs[FieldTypeB] = NewBinaryCodec(p.table)
	}
	return p, nil
}

// Catalog returns the catalog the packager resolves fields with.
func (p *Packager) Catalog() FieldCatalog {
	return p.catalog
}

// LengthPrefix returns the configured length prefix size in bytes.
func (p *Packager) LengthPrefix() int {
	return p.lengthPrefix
}

// Pack encodes m as MTI (four BCD digits), bitmap and fields. The length
// prefix is not included; see PackFrame.
func (p *Packager) Pack(m *Message) (string, error) {
	return p.PackFields(m.MTI(), m.Fields())
}

// PackFrame is Pack followed by the configured length prefix.
func (p *Packager) PackFrame(m *Message) (string, error) {
	body, err := p.Pack(m)
	if err != nil {
		return "", err
	}
	return WriteLengthPrefix(body, p.lengthPrefix)
}

// PackFields encodes a message given as an MTI and a field map.
func (p *Packager) PackFields(mti string, fields map[int]string) (string, error) {
	nums := sortedFields(fields)
	for _, n := range nums {
		if err := checkFieldNumber(n); err != nil {
			return "", err
		}
	}
	if len(mti) != MTILength || !isDigits(mti) {
		return "", errors.Wrapf(ErrInvalidMTI, "%q", mti)
	}
	if p.validator != nil {
		if err := p.validator.validateFields(mti, fields, p.validator.Level()); err != nil {
			return "", err
		}
	}

	bm, err := NewBitmap(nums)
	if err != nil {
		return "", err
	}

	sb := getBuilder()
	defer putBuilder(sb)

	sb.WriteString(mti)
	sb.WriteString(bm.Encode())

	for _, n := range nums {
		text, err := p.packField(n, fields[n])
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

func (p *Packager) packField(n int, value string) (string, error) {
	spec, codec, err := p.resolve(n)
	if err != nil {
		return "", err
	}
	if spec.Type == FieldTypeB {
		if value, err = NormalizeText(value); err != nil {
			return "", fieldErr(n, errors.Wrap(ErrInvalidValue, err.Error()))
		}
	}
	l := valueLength(value, spec)
	if l > spec.Length {
		return "", fieldErr(n, errors.Wrapf(ErrFieldLength, "length %d exceeds %d", l, spec.Length))
	}
	if !spec.IsVariable() && l != spec.Length {
		return "", fieldErr(n, errors.Wrapf(ErrFieldLength, "length %d, fixed length is %d", l, spec.Length))
	}
	text, err := codec.Pack(value, spec)
	if err != nil {
		return "", fieldErr(n, err)
	}
	return text, nil
}

// resolve looks up the spec of field n and the codec for its type.
func (p *Packager) resolve(n int) (FieldSpec, FieldCodec, error) {
	spec, err := p.catalog.Lookup(n)
	if err != nil {
		var fe *FieldError
		if errors.As(err, &fe) {
			return FieldSpec{}, nil, err
		}
		return FieldSpec{}, nil, fieldErr(n, err)
	}
	if p.asciiFields[n] {
		spec.ASCII = true
	}
	codec, ok := p.codecs[spec.Type]
	if !ok {
		return FieldSpec{}, nil, fieldErr(n, errors.Wrapf(ErrUnknownFieldType, "%q", spec.Type))
	}
	return spec, codec, nil
}

// Unpack decodes ByteText into a Message. The caller owns the result and may
// Release it.
func (p *Packager) Unpack(text string) (*Message, error) {
	text, err := NormalizeText(text)
	if err != nil {
		return nil, err
	}
	raw := text
	remaining := text

	if _, err := ReadLengthPrefix(&remaining, p.lengthPrefix); err != nil {
		return nil, err
	}

	mti, err := take(&remaining, MTILength)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidMTI, "message too short")
	}
	if !isDigits(mti) {
		return nil, errors.Wrapf(ErrInvalidMTI, "%q", mti)
	}

	bm, err := ParseBitmap(&remaining)
	if err != nil {
		return nil, err
	}

	m := NewMessage()
	m.mti = mti
	m.bitmap = bm
	m.raw = raw
	for _, n := range bm.GetPresentFields() {
		spec, codec, err := p.resolve(n)
		if err != nil {
			m.Release()
			return nil, err
		}
		v, err := codec.Unpack(&remaining, spec)
		if err != nil {
			m.Release()
			return nil, fieldErr(n, err)
		}
		m.fields[n] = v
	}

	if remaining != "" {
		if !p.lenientTrailer {
			m.Release()
			return nil, errors.Wrapf(ErrTrailingData, "%d bytes after last field", len(remaining)/2)
		}
		m.trailing = remaining
	}

	if p.validator != nil {
		if err := p.validator.ValidateMessage(m, p.validator.Level()); err != nil {
			m.Release()
			return nil, err
		}
	}
	return m, nil
}

// UnpackBytes is Unpack for raw wire bytes.
func (p *Packager) UnpackBytes(data []byte) (*Message, error) {
	return p.Unpack(BytesToText(data))
}

// PackBytes is PackFrame returning raw wire bytes.
func (p *Packager) PackBytes(m *Message) ([]byte, error) {
	text, err := p.PackFrame(m)
	if err != nil {
		return nil, err
	}
	return TextToBytes(text)
}
