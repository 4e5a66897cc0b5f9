package amf

import (
	"reflect"
	"time"

	"github.com/pkg/errors"
	"github.com/torresjeff/amf/internal/fixedwidth"
	"github.com/torresjeff/amf/internal/utf8codec"
	"go.uber.org/zap"
)

// Encoder appends AMF0 or AMF3 values to an internal buffer. Every Write method is atomic:
// when it fails, the buffer is left exactly as it was before the call.
// An Encoder is not safe for concurrent use.
type Encoder struct {
	Logger *zap.Logger

	format uint8
	buf    []byte
	// containers currently being written, used to reject cycles
	active map[Value]bool
}

// NewEncoder returns an encoder producing the given format, Version0 or Version3.
func NewEncoder(format uint8) (*Encoder, error) {
	if format != Version0 && format != Version3 {
		return nil, errors.Wrapf(ErrFormatMisuse, "unknown format %d", format)
	}
	return &Encoder{format: format}, nil
}

func (e *Encoder) Format() uint8 {
	return e.format
}

// SetFormat changes the format used by the following writes.
func (e *Encoder) SetFormat(format uint8) error {
	if format != Version0 && format != Version3 {
		return errors.Wrapf(ErrFormatMisuse, "unknown format %d", format)
	}
	e.format = format
	return nil
}

// Bytes returns the encoded output. The slice is only valid until the next write.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

func (e *Encoder) Len() int {
	return len(e.buf)
}

// Reset discards the output, keeping the format.
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

func (e *Encoder) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// atomic runs write and rolls the buffer back if it fails.
func (e *Encoder) atomic(write func() error) error {
	mark := len(e.buf)
	if err := write(); err != nil {
		e.buf = e.buf[:mark]
		return err
	}
	return nil
}

func (e *Encoder) WriteUndefined() error {
	return e.WriteValue(Undefined{})
}

func (e *Encoder) WriteNull() error {
	return e.WriteValue(Null{})
}

func (e *Encoder) WriteBoolean(b bool) error {
	return e.WriteValue(Bool(b))
}

// WriteNumber writes f. In AMF3, integral values within [MinInt, MaxInt] use the compact integer
// encoding and everything else is written as a double. AMF0 always writes a double.
func (e *Encoder) WriteNumber(f float64) error {
	return e.WriteValue(numberValue(f))
}

// WriteInt writes n as an integer, falling back to a double outside the 29 bit range.
func (e *Encoder) WriteInt(n int64) error {
	if fitsInt(n) {
		return e.WriteValue(Int(n))
	}
	return e.WriteValue(Double(n))
}

func (e *Encoder) WriteString(s string) error {
	return e.WriteValue(String(s))
}

// WriteXML writes serialized XML text. AMF3 uses the XML marker (0x0B).
func (e *Encoder) WriteXML(data string) error {
	return e.WriteValue(XMLDocument{Data: data})
}

// WriteXMLDocument writes serialized XML text with the legacy AMF3 XMLDocument marker (0x07).
// In AMF0 it is the same as WriteXML.
func (e *Encoder) WriteXMLDocument(data string) error {
	return e.WriteValue(XMLDocument{Data: data, Legacy: true})
}

func (e *Encoder) WriteDate(t time.Time) error {
	return e.WriteValue(DateOf(t))
}

// WriteArray writes a. AMF0 always produces an ECMA array; AMF3 keeps the dense part only.
func (e *Encoder) WriteArray(a *Array) error {
	if a == nil {
		return e.WriteNull()
	}
	return e.WriteValue(a)
}

// WriteStrictArray writes items as an AMF0 strict array. It does not exist in AMF3.
func (e *Encoder) WriteStrictArray(items []Value) error {
	if e.format != Version0 {
		return errors.Wrap(ErrFormatMisuse, "strict arrays are AMF0 only")
	}
	return e.atomic(func() error {
		return e.strictArray0(NewArray(items...))
	})
}

// WriteGenericObject writes o as an object: typed when o carries a class name, anonymous otherwise.
func (e *Encoder) WriteGenericObject(o *Object) error {
	if o == nil {
		return e.WriteNull()
	}
	return e.WriteValue(o)
}

// WriteByteArray writes b as an AMF3 byte array. AMF0 has no byte array type.
func (e *Encoder) WriteByteArray(b []byte) error {
	if e.format != Version3 {
		return errors.Wrap(ErrFormatMisuse, "byte arrays are AMF3 only")
	}
	return e.WriteValue(ByteArray(b))
}

// WriteValue writes v in the configured format.
func (e *Encoder) WriteValue(v Value) error {
	return e.atomic(func() error {
		return e.value(v)
	})
}

// WriteObject classifies v with the rules of ValueOf and writes the result. Values that cannot
// be classified are dropped with a warning instead of failing the write.
func (e *Encoder) WriteObject(v interface{}) error {
	c := classifier{logger: e.logger()}
	value, err := c.classify(reflect.ValueOf(v))
	if err != nil {
		if c.drop(err, "") {
			return nil
		}
		return err
	}
	return e.WriteValue(value)
}

func (e *Encoder) value(v Value) error {
	v = nilToNull(v)
	if e.format == Version3 {
		return e.value3(v)
	}
	return e.value0(v)
}

// nilToNull maps nil and nil containers to Null.
func nilToNull(v Value) Value {
	switch x := v.(type) {
	case nil:
		return Null{}
	case *Array:
		if x == nil {
			return Null{}
		}
	case *Object:
		if x == nil {
			return Null{}
		}
	case *Dictionary:
		if x == nil {
			return Null{}
		}
	case *Instance:
		if x == nil {
			return Null{}
		}
	}
	return v
}

// enter marks a container as being written and fails if it already is.
func (e *Encoder) enter(v Value) error {
	if e.active == nil {
		e.active = make(map[Value]bool)
	}
	if e.active[v] {
		return errors.Wrapf(ErrUnsupportedFeature, "cyclic %s", v.Kind())
	}
	e.active[v] = true
	return nil
}

func (e *Encoder) leave(v Value) {
	delete(e.active, v)
}

func (e *Encoder) appendUint(v uint32, width int) error {
	buf, err := fixedwidth.BigEndian.AppendUint(e.buf, v, width)
	if err != nil {
		return errors.Wrapf(ErrEncodingRange, "%v", err)
	}
	e.buf = buf
	return nil
}

func encodeUTF8(s string) ([]byte, error) {
	b, err := utf8codec.Encode(s)
	if err != nil {
		return nil, errors.Wrapf(ErrEncodingRange, "%v", err)
	}
	return b, nil
}

// shape returns the sealed member names of o and whether it takes dynamic members.
// Anonymous objects without sealed members are always dynamic.
func shape(o *Object) (sealed []string, dynamic bool) {
	if o.Traits == nil {
		return nil, true
	}
	return o.Traits.Sealed, o.Traits.Dynamic || (o.Traits.ClassName == "" && len(o.Traits.Sealed) == 0)
}

// sealedValues orders the members of o by its sealed names and returns the remaining dynamic members.
func sealedValues(o *Object) (sealed []Value, dynamic []Member, err error) {
	names, isDynamic := shape(o)
	used := make(map[string]bool, len(names))
	for _, name := range names {
		v, ok := o.Get(name)
		if !ok {
			return nil, nil, errors.Wrapf(ErrEncodingType, "missing sealed member %q of %q", name, o.ClassName())
		}
		sealed = append(sealed, v)
		used[name] = true
	}
	for _, m := range o.Members {
		if used[m.Key] {
			continue
		}
		if !isDynamic {
			return nil, nil, errors.Wrapf(ErrEncodingType, "member %q is not declared by sealed class %q", m.Key, o.ClassName())
		}
		dynamic = append(dynamic, m)
	}
	return sealed, dynamic, nil
}

// instanceObject turns a registry instance back into a sealed object.
func instanceObject(i *Instance) (*Object, error) {
	lister, ok := i.Class.(MemberLister)
	if !ok {
		return nil, errors.Wrapf(ErrEncodingType, "class %q does not list its members", i.ClassName)
	}
	members := lister.Members()
	traits := &Traits{ClassName: i.ClassName, Sealed: make([]string, 0, len(members))}
	for _, m := range members {
		traits.Sealed = append(traits.Sealed, m.Key)
	}
	return &Object{Traits: traits, Members: members}, nil
}
