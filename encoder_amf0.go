package amf

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/torresjeff/amf/amf0"
	"github.com/torresjeff/amf/internal/ieee754"
)

func (e *Encoder) value0(v Value) error {
	switch v := v.(type) {
	case Undefined:
		e.buf = append(e.buf, amf0.TypeUndefined)
	case Null:
		e.buf = append(e.buf, amf0.TypeNull)
	case Bool:
		e.buf = append(e.buf, amf0.TypeBoolean, 0)
		if v {
			e.buf[len(e.buf)-1] = 1
		}
	case Int:
		e.number0(float64(v))
	case Double:
		e.number0(float64(v))
	case String:
		return e.string0(string(v))
	case Date:
		e.buf = append(e.buf, amf0.TypeDate)
		e.buf = ieee754.Append(e.buf, float64(v))
		// time zone, always zero
		e.buf = append(e.buf, 0x00, 0x00)
	case XMLDocument:
		b, err := encodeUTF8(v.Data)
		if err != nil {
			return err
		}
		e.buf = append(e.buf, amf0.TypeXMLDocument)
		return e.utf8Body0(b, 4)
	case *Array:
		return e.ecmaArray0(v)
	case *Object:
		return e.object0(v)
	case *Instance:
		if err := e.enter(v); err != nil {
			return err
		}
		defer e.leave(v)
		o, err := instanceObject(v)
		if err != nil {
			return err
		}
		return e.object0(o)
	case ByteArray:
		return errors.Wrap(ErrEncodingType, "AMF0 has no byte array type")
	case *Dictionary:
		return errors.Wrap(ErrEncodingType, "dictionaries are only written as AMFX")
	default:
		return errors.Wrapf(ErrEncodingType, "cannot encode %T", v)
	}
	return nil
}

func (e *Encoder) number0(f float64) {
	e.buf = append(e.buf, amf0.TypeNumber)
	e.buf = ieee754.Append(e.buf, f)
}

// string0 writes a string with its marker, switching to a long string past 65535 bytes.
func (e *Encoder) string0(s string) error {
	b, err := encodeUTF8(s)
	if err != nil {
		return err
	}
	if len(b) <= amf0.MaxShortString {
		e.buf = append(e.buf, amf0.TypeString)
		return e.utf8Body0(b, 2)
	}
	e.buf = append(e.buf, amf0.TypeLongString)
	return e.utf8Body0(b, 4)
}

// key0 writes a marker-less short string: object keys, class names, packet names and URIs.
func (e *Encoder) key0(s string) error {
	b, err := encodeUTF8(s)
	if err != nil {
		return err
	}
	return e.utf8Body0(b, 2)
}

func (e *Encoder) utf8Body0(b []byte, width int) error {
	if uint64(len(b)) > amf0.MaxLongString {
		return errors.Wrapf(ErrEncodingRange, "string of %d bytes", len(b))
	}
	if err := e.appendUint(uint32(len(b)), width); err != nil {
		return err
	}
	e.buf = append(e.buf, b...)
	return nil
}

// members0 writes key/value pairs followed by the object end marker.
func (e *Encoder) members0(members []Member) error {
	for _, m := range members {
		if m.Key == "" {
			return errors.Wrap(ErrEncodingType, "empty member name")
		}
		if err := e.key0(m.Key); err != nil {
			return err
		}
		if err := e.value0(nilToNull(m.Value)); err != nil {
			return err
		}
	}
	e.buf = append(e.buf, amf0.ObjectEnd...)
	return nil
}

func (e *Encoder) object0(o *Object) error {
	if err := e.enter(o); err != nil {
		return err
	}
	defer e.leave(o)

	if name := o.ClassName(); name != "" {
		e.buf = append(e.buf, amf0.TypeTypedObject)
		if err := e.key0(name); err != nil {
			return err
		}
	} else {
		e.buf = append(e.buf, amf0.TypeObject)
	}
	return e.members0(o.Members)
}

// ecmaArray0 writes a as an associative array: dense items under their index, then the associative part.
func (e *Encoder) ecmaArray0(a *Array) error {
	if err := e.enter(a); err != nil {
		return err
	}
	defer e.leave(a)

	members := make([]Member, 0, len(a.Items)+len(a.Assoc))
	for i, item := range a.Items {
		members = append(members, Member{Key: strconv.Itoa(i), Value: item})
	}
	members = append(members, a.Assoc...)

	e.buf = append(e.buf, amf0.TypeECMAArray)
	if err := e.appendUint(uint32(len(members)), 4); err != nil {
		return err
	}
	return e.members0(members)
}

func (e *Encoder) strictArray0(a *Array) error {
	if err := e.enter(a); err != nil {
		return err
	}
	defer e.leave(a)

	if uint64(len(a.Items)) > amf0.MaxLongString {
		return errors.Wrapf(ErrEncodingRange, "array of %d items", len(a.Items))
	}
	e.buf = append(e.buf, amf0.TypeStrictArray)
	if err := e.appendUint(uint32(len(a.Items)), 4); err != nil {
		return err
	}
	for _, item := range a.Items {
		if err := e.value0(nilToNull(item)); err != nil {
			return err
		}
	}
	return nil
}
