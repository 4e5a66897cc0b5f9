package amf

import (
	"github.com/pkg/errors"
	"github.com/torresjeff/amf/amf3"
	"github.com/torresjeff/amf/internal/ieee754"
	"github.com/torresjeff/amf/internal/u29"
	"go.uber.org/zap"
)

// value3 writes v in AMF3. Every string, array, object, date, XML document and byte array is
// written inline; the encoder never emits references.
func (e *Encoder) value3(v Value) error {
	switch v := v.(type) {
	case Undefined:
		e.buf = append(e.buf, amf3.TypeUndefined)
	case Null:
		e.buf = append(e.buf, amf3.TypeNull)
	case Bool:
		if v {
			e.buf = append(e.buf, amf3.TypeTrue)
		} else {
			e.buf = append(e.buf, amf3.TypeFalse)
		}
	case Int:
		if !fitsInt(int64(v)) {
			e.double3(float64(v))
			return nil
		}
		e.buf = append(e.buf, amf3.TypeInteger)
		// two's complement, truncated to 29 bits
		return e.u29(uint32(v) & u29.Max)
	case Double:
		e.double3(float64(v))
	case String:
		e.buf = append(e.buf, amf3.TypeString)
		return e.string3(string(v))
	case Date:
		e.buf = append(e.buf, amf3.TypeDate, byte(amf3.FlagInline))
		e.buf = ieee754.Append(e.buf, float64(v))
	case XMLDocument:
		if v.Legacy {
			e.buf = append(e.buf, amf3.TypeXMLDoc)
		} else {
			e.buf = append(e.buf, amf3.TypeXML)
		}
		b, err := encodeUTF8(v.Data)
		if err != nil {
			return err
		}
		return e.inlineBytes3(b)
	case ByteArray:
		e.buf = append(e.buf, amf3.TypeByteArray)
		return e.inlineBytes3(v)
	case *Array:
		return e.array3(v)
	case *Object:
		return e.object3(v)
	case *Instance:
		if err := e.enter(v); err != nil {
			return err
		}
		defer e.leave(v)
		o, err := instanceObject(v)
		if err != nil {
			return err
		}
		return e.object3(o)
	case *Dictionary:
		return errors.Wrap(ErrEncodingType, "dictionaries are only written as AMFX")
	default:
		return errors.Wrapf(ErrEncodingType, "cannot encode %T", v)
	}
	return nil
}

func (e *Encoder) u29(n uint32) error {
	buf, err := u29.Append(e.buf, n)
	if err != nil {
		return errors.Wrapf(ErrEncodingRange, "%v", err)
	}
	e.buf = buf
	return nil
}

func (e *Encoder) double3(f float64) {
	e.buf = append(e.buf, amf3.TypeDouble)
	e.buf = ieee754.Append(e.buf, f)
}

// string3 writes a marker-less UTF-8-vr: the empty string is the single byte 0x01.
func (e *Encoder) string3(s string) error {
	if s == "" {
		e.buf = append(e.buf, amf3.UTF8Empty)
		return nil
	}
	b, err := encodeUTF8(s)
	if err != nil {
		return err
	}
	return e.inlineBytes3(b)
}

// inlineBytes3 writes an inline length header followed by b.
func (e *Encoder) inlineBytes3(b []byte) error {
	if len(b) > amf3.MaxLength {
		return errors.Wrapf(ErrEncodingRange, "%d bytes exceed the AMF3 length limit", len(b))
	}
	if err := e.u29(amf3.InlineHeader(uint32(len(b)))); err != nil {
		return err
	}
	e.buf = append(e.buf, b...)
	return nil
}

// array3 writes the dense part of a. The associative part is not written.
func (e *Encoder) array3(a *Array) error {
	if err := e.enter(a); err != nil {
		return err
	}
	defer e.leave(a)

	if len(a.Items) > amf3.MaxLength {
		return errors.Wrapf(ErrEncodingRange, "array of %d items", len(a.Items))
	}
	if len(a.Assoc) > 0 {
		e.logger().Debug("associative array members are not written in AMF3", zap.Int("count", len(a.Assoc)))
	}
	e.buf = append(e.buf, amf3.TypeArray)
	if err := e.u29(amf3.InlineHeader(uint32(len(a.Items)))); err != nil {
		return err
	}
	e.buf = append(e.buf, amf3.UTF8Empty)
	for _, item := range a.Items {
		if err := e.value3(nilToNull(item)); err != nil {
			return err
		}
	}
	return nil
}

// object3 writes o with inline traits. An anonymous dynamic object comes out as
// 0x0A 0x0B 0x01 followed by its members and a closing 0x01.
func (e *Encoder) object3(o *Object) error {
	if err := e.enter(o); err != nil {
		return err
	}
	defer e.leave(o)

	sealed, dynamic, err := sealedValues(o)
	if err != nil {
		return err
	}
	names, isDynamic := shape(o)
	if len(names) > int(u29.Max>>4) {
		return errors.Wrapf(ErrEncodingRange, "%d sealed members", len(names))
	}

	header := uint32(len(names))<<4 | amf3.FlagInlineTraits | amf3.FlagInline
	if isDynamic {
		header |= amf3.FlagDynamic
	}
	e.buf = append(e.buf, amf3.TypeObject)
	if err := e.u29(header); err != nil {
		return err
	}
	if err := e.string3(o.ClassName()); err != nil {
		return err
	}
	for _, name := range names {
		if err := e.string3(name); err != nil {
			return err
		}
	}
	for _, v := range sealed {
		if err := e.value3(nilToNull(v)); err != nil {
			return err
		}
	}
	if !isDynamic {
		return nil
	}
	for _, m := range dynamic {
		if m.Key == "" {
			return errors.Wrap(ErrEncodingType, "empty member name")
		}
		if err := e.string3(m.Key); err != nil {
			return err
		}
		if err := e.value3(nilToNull(m.Value)); err != nil {
			return err
		}
	}
	e.buf = append(e.buf, amf3.UTF8Empty)
	return nil
}
