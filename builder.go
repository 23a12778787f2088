package iso8583

import "sync"

var msgBuilderPool = sync.Pool{
	New: func() interface{} {
		return &Builder{
			errors: make([]error, 0, 4),
		}
	},
}

// Builder assembles a Message and collects every error on the way.
type Builder struct {
	msg    *Message
	errors []error
}

// NewBuilder takes a Builder from the pool. Release returns it.
func NewBuilder(opts ...MessageOption) *Builder {
	b := msgBuilderPool.Get().(*Builder)
	b.msg = NewMessage(opts...)
	b.errors = b.errors[:0]
	return b
}

// Release returns the builder to the pool
func (b *Builder) Release() {
	if b.msg != nil {
		b.msg.Release()
		b.msg = nil
	}
	b.errors = b.errors[:0]
	msgBuilderPool.Put(b)
}

// MTI sets the message type indicator.
func (b *Builder) MTI(mti string) *Builder {
	if err := b.msg.SetMTI(mti); err != nil {
		b.errors = append(b.errors, err)
	}
	return b
}

// Field sets one field; errors are collected until Build.
func (b *Builder) Field(fieldNum int, value string) *Builder {
	if err := b.msg.SetField(fieldNum, value); err != nil {
		b.errors = append(b.errors, err)
	}
	return b
}

// Int sets a numeric field zero-padded to width digits.
func (b *Builder) Int(fieldNum, value, width int) *Builder {
	if err := b.msg.SetFieldInt(fieldNum, value, width); err != nil {
		b.errors = append(b.errors, err)
	}
	return b
}

func (b *Builder) TLV(fieldNum int, tlvs ...TLV) *Builder {
	if err := b.msg.SetTLV(fieldNum, tlvs); err != nil {
		b.errors = append(b.errors, err)
	}
	return b
}

func (b *Builder) PAN(pan string) *Builder {
	return b.Field(2, pan)
}

func (b *Builder) ProcessingCode(code string) *Builder {
	return b.Field(3, code)
}

func (b *Builder) Amount(amount string) *Builder {
	return b.Field(4, amount)
}

func (b *Builder) STAN(stan string) *Builder {
	return b.Field(11, stan)
}

func (b *Builder) ResponseCode(code string) *Builder {
	return b.Field(39, code)
}

// Build returns the message, or the first error recorded. The builder
// should be released afterwards either way.
func (b *Builder) Build() (*Message, error) {
	if len(b.errors) > 0 {
		return nil, b.errors[0]
	}
	if b.msg.MTI() == "" {
		return nil, ErrInvalidMTI
	}
	msg := b.msg
	b.msg = nil // Transfer ownership
	return msg, nil
}

// Errors returns every error recorded so far.
func (b *Builder) Errors() []error {
	out := make([]error, len(b.errors))
	copy(out, b.errors)
	return out
}

// MustBuild is Build that panics on error.
func (b *Builder) MustBuild() *Message {
	msg, err := b.Build()
	if err != nil {
		panic(err)
	}
	return msg
}
