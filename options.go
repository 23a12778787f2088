package iso8583

// MessageOption represents a functional option for message configuration.
// Invalid values are ignored here; use the Builder to collect errors.
type MessageOption func(*Message)

// WithMTI sets the Message Type Indicator
func WithMTI(mti string) MessageOption {
	return func(m *Message) {
		_ = m.SetMTI(mti)
	}
}

// WithField sets a field value during message creation
func WithField(fieldNum int, value string) MessageOption {
	return func(m *Message) {
		_ = m.SetField(fieldNum, value)
	}
}

// WithFields sets multiple fields during message creation
func WithFields(fields map[int]string) MessageOption {
	return func(m *Message) {
		for fieldNum, value := range fields {
			_ = m.SetField(fieldNum, value)
		}
	}
}

// WithValidationLevel sets the level Message.Validate applies.
func WithValidationLevel(level ValidationLevel) MessageOption {
	return func(m *Message) {
		m.validationLevel = level
	}
}

func WithStrictValidation() MessageOption {
	return WithValidationLevel(ValidationStrict)
}

func WithBasicValidation() MessageOption {
	return WithValidationLevel(ValidationBasic)
}

// PackagerOption represents a functional option for packager configuration
type PackagerOption func(*Packager)

// WithLengthPrefix makes Pack emit, and Unpack require, a prefix of digits
// bytes holding the byte count of the rest of the message.
func WithLengthPrefix(digits int) PackagerOption {
	return func(p *Packager) {
		p.lengthPrefix = digits
	}
}

// WithCodeTable replaces the EBCDIC table for text fields and length headers.
func WithCodeTable(t *CodeTable) PackagerOption {
	return func(p *Packager) {
		p.table = t
	}
}

// WithFieldCodec registers a codec for a field type, replacing the default.
func WithFieldCodec(ft FieldType, codec FieldCodec) PackagerOption {
	return func(p *Packager) {
		p.codecs[ft] = codec
	}
}

// WithLenientTrailer keeps text after the last field instead of failing.
func WithLenientTrailer() PackagerOption {
	return func(p *Packager) {
		p.lenientTrailer = true
	}
}

// WithASCIIFields marks fields whose text travels as plain code points,
// regardless of the catalog.
func WithASCIIFields(fieldNums ...int) PackagerOption {
	return func(p *Packager) {
		for _, n := range fieldNums {
			p.asciiFields[n] = true
		}
	}
}

// WithValidator runs v over every packed and unpacked message.
func WithValidator(v *CompiledValidator) PackagerOption {
	return func(p *Packager) {
		p.validator = v
	}
}
