package iso8583

import (
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Message is one ISO 8583 message: an MTI and its data elements. Field
// values are kept in native text form (digits, characters, or ByteText for
// binary fields).
type Message struct {
	mti             string
	fields          map[int]string
	bitmap          *Bitmap // set by Unpack, rebuilt from fields otherwise
	trailing        string
	raw             string
	validationLevel ValidationLevel
	mu              sync.RWMutex
}

// NewMessage retrieves a Message from the pool and initializes it.
func NewMessage(opts ...MessageOption) *Message {
	msg := messagePool.Get().(*Message)
	msg.reset()
	for _, opt := range opts {
		opt(msg)
	}
	return msg
}

// Release returns the message to the pool for reuse.
// The message must not be used after Release is called.
func (m *Message) Release() {
	m.reset()
	messagePool.Put(m)
}

// Reset clears the message for reuse.
func (m *Message) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
}

func (m *Message) reset() {
	m.mti = ""
	m.bitmap = nil
	m.trailing = ""
	m.raw = ""
	m.validationLevel = ValidationNone
	if m.fields == nil {
		m.fields = make(map[int]string, 16)
	}
	for k := range m.fields {
		delete(m.fields, k)
	}
}

// MTI returns the Message Type Indicator.
func (m *Message) MTI() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mti
}

// SetMTI sets the Message Type Indicator. It must be exactly four digits.
func (m *Message) SetMTI(mti string) error {
	if len(mti) != MTILength || !isDigits(mti) {
		return errors.Wrapf(ErrInvalidMTI, "%q", mti)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mti = mti
	return nil
}

// SetField stores a value for a data element. Continuation positions
// (1, 65, 129, ...) are rejected.
func (m *Message) SetField(fieldNum int, value string) error {
	if err := checkFieldNumber(fieldNum); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fields[fieldNum] = value
	m.bitmap = nil
	return nil
}

// SetFieldInt stores v as decimal digits, zero-padded to width.
func (m *Message) SetFieldInt(fieldNum, v, width int) error {
	if v < 0 {
		return fieldErr(fieldNum, errors.Wrapf(ErrInvalidValue, "negative value %d", v))
	}
	s := strconv.Itoa(v)
	if pad := width - len(s); pad > 0 {
		s = strings.Repeat("0", pad) + s
	}
	return m.SetField(fieldNum, s)
}

// UnsetField removes a data element.
func (m *Message) UnsetField(fieldNum int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.fields, fieldNum)
	m.bitmap = nil
}

func checkFieldNumber(fieldNum int) error {
	if fieldNum < 1 || fieldNum > MaxFieldNumber {
		return fieldErr(fieldNum, ErrUnknownField)
	}
	if IsReservedField(fieldNum) {
		return fieldErr(fieldNum, ErrReservedField)
	}
	return nil
}

// GetField returns the value of a data element and whether it is present.
func (m *Message) GetField(fieldNum int) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.fields[fieldNum]
	return v, ok
}

// GetString is GetField with an error for absent fields.
func (m *Message) GetString(fieldNum int) (string, error) {
	v, ok := m.GetField(fieldNum)
	if !ok {
		return "", fieldErr(fieldNum, ErrUnknownField)
	}
	return v, nil
}

// GetInt parses a numeric data element.
func (m *Message) GetInt(fieldNum int) (int, error) {
	v, err := m.GetString(fieldNum)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fieldErr(fieldNum, errors.Wrap(ErrInvalidValue, err.Error()))
	}
	return n, nil
}

// HasField returns true if the field is present in the message.
func (m *Message) HasField(fieldNum int) bool {
	_, ok := m.GetField(fieldNum)
	return ok
}

// GetPresentFields returns the present field numbers in ascending order.
func (m *Message) GetPresentFields() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedFields(m.fields)
}

// Fields returns a copy of the field map.
func (m *Message) Fields() map[int]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int]string, len(m.fields))
	for k, v := range m.fields {
		out[k] = v
	}
	return out
}

// Bitmap returns the bitmap read by Unpack, or one built from the present
// fields for messages assembled in code.
func (m *Message) Bitmap() *Bitmap {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bitmap == nil {
		// fields only ever holds checked numbers
		m.bitmap, _ = NewBitmap(sortedFields(m.fields))
	}
	return m.bitmap
}

// Trailing returns the text left after the last field when the packager
// accepts trailing data.
func (m *Message) Trailing() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trailing
}

// Raw returns the ByteText this message was unpacked from.
func (m *Message) Raw() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.raw
}

// Clone creates a deep copy of the message.
func (m *Message) Clone() *Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	clone := NewMessage()
	clone.mti = m.mti
	clone.validationLevel = m.validationLevel
	clone.trailing = m.trailing
	clone.raw = m.raw
	for k, v := range m.fields {
		clone.fields[k] = v
	}
	if m.bitmap != nil {
		clone.bitmap = &Bitmap{blocks: m.bitmap.Blocks()}
	}
	return clone
}

// CreateResponse clones the message, flips the MTI (e.g. 0100 -> 0110) and
// sets the response code in field 39.
func (m *Message) CreateResponse(responseCode string) (*Message, error) {
	mti := m.MTI()
	if len(mti) != MTILength || mti[2]%2 != 0 {
		return nil, errors.Wrapf(ErrInvalidMTI, "cannot create response from %q", mti)
	}

	resMsg := m.Clone()
	resMsg.raw = ""
	resMsg.trailing = ""
	resMsg.mti = mti[:2] + string(mti[2]+1) + mti[3:]

	if err := resMsg.SetField(39, responseCode); err != nil {
		resMsg.Release()
		return nil, err
	}
	return resMsg, nil
}

// IsNMM reports whether the message is a network management message.
func (m *Message) IsNMM() bool {
	switch m.MTI() {
	case MTINetworkRequest, MTINetworkResponse:
		return true
	default:
		return false
	}
}

// SetValidationLevel sets the validation level for this message instance.
func (m *Message) SetValidationLevel(level ValidationLevel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validationLevel = level
}

// GetValidationLevel returns the current validation level.
func (m *Message) GetValidationLevel() ValidationLevel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.validationLevel
}

// Decode binds field values into out, a pointer to a struct whose fields
// carry `iso8583:"<number>"` tags. Numeric text is converted to integer
// struct fields.
//
//	type Auth struct {
//		PAN    string `iso8583:"2"`
//		Amount int64  `iso8583:"4"`
//	}
func (m *Message) Decode(out interface{}) error {
	m.mu.RLock()
	input := make(map[string]interface{}, len(m.fields)+1)
	input["mti"] = m.mti
	for k, v := range m.fields {
		input[strconv.Itoa(k)] = v
	}
	m.mu.RUnlock()

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "iso8583",
		WeaklyTypedInput: true,
		DecodeHook:       decimalHook,
		Result:           out,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	return errors.Wrap(dec.Decode(input), "failed to decode message")
}

// decimalHook parses zero-padded numeric text in base 10; the weak decoder
// would read a leading zero as an octal prefix.
func decimalHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	s := data.(string)
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if s == "" {
			return data, nil
		}
		return strconv.ParseInt(s, 10, 64)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if s == "" {
			return data, nil
		}
		return strconv.ParseUint(s, 10, 64)
	}
	return data, nil
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler. The PAN is
// masked.
func (m *Message) MarshalZerologObject(e *zerolog.Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e.Str("mti", m.mti)
	fields := zerolog.Dict()
	for _, num := range sortedFields(m.fields) {
		v := m.fields[num]
		if num == 2 {
			v = MaskPAN(v)
		}
		fields.Str(strconv.Itoa(num), v)
	}
	e.Dict("fields", fields)
	if m.trailing != "" {
		e.Str("trailing", m.trailing)
	}
}

// MaskPAN keeps the first six and last four digits.
func MaskPAN(pan string) string {
	if len(pan) <= 10 {
		return strings.Repeat("*", len(pan))
	}
	return pan[:6] + strings.Repeat("*", len(pan)-10) + pan[len(pan)-4:]
}
