package amf

import (
	"github.com/pkg/errors"
	"github.com/torresjeff/amf/amf3"
	"github.com/torresjeff/amf/internal/utf8codec"
)

func (d *decodeState) value3() (Value, error) {
	marker, err := d.r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch marker {
	case amf3.TypeUndefined:
		return Undefined{}, nil
	case amf3.TypeNull:
		return Null{}, nil
	case amf3.TypeFalse:
		return Bool(false), nil
	case amf3.TypeTrue:
		return Bool(true), nil
	case amf3.TypeInteger:
		n, err := d.r.U29()
		if err != nil {
			return nil, err
		}
		// sign extend from 29 bits
		if n&0x10000000 != 0 {
			return Int(int32(n) - 0x20000000), nil
		}
		return Int(n), nil
	case amf3.TypeDouble:
		f, err := d.r.Double()
		if err != nil {
			return nil, err
		}
		return Double(f), nil
	case amf3.TypeString:
		s, err := d.string3()
		if err != nil {
			return nil, err
		}
		return String(s), nil
	case amf3.TypeXMLDoc, amf3.TypeXML:
		return d.xml3(marker == amf3.TypeXMLDoc)
	case amf3.TypeDate:
		return d.date3()
	case amf3.TypeArray:
		return d.array3()
	case amf3.TypeObject:
		return d.object3()
	case amf3.TypeByteArray:
		return d.byteArray3()
	case amf3.TypeVectorInt, amf3.TypeVectorUint, amf3.TypeVectorDouble, amf3.TypeVectorObject, amf3.TypeDictionary:
		return nil, errors.Wrapf(ErrUnsupportedFeature, "AMF3 marker %#02x", marker)
	}
	return nil, errors.Wrapf(ErrDecoding, "unknown AMF3 marker %#02x", marker)
}

// header3 reads an instance header. For references it returns the table index and inline false;
// for inline values it returns the remaining bits.
//
//	U29O-ref = U29 with the low bit 0, index in the upper 28 bits
//	U29V     = U29 with the low bit 1, length or flags in the upper 28 bits
func (d *decodeState) header3() (rest uint32, inline bool, err error) {
	h, err := d.r.U29()
	if err != nil {
		return 0, false, err
	}
	return h >> 1, h&amf3.FlagInline != 0, nil
}

func (d *decodeState) reference(index uint32) (Value, error) {
	if int64(index) >= int64(len(d.objects)) {
		return nil, errors.Wrapf(ErrDecoding, "object reference %d out of %d", index, len(d.objects))
	}
	return d.objects[index], nil
}

// string3 reads a UTF-8-vr. Non-empty inline strings are added to the string table.
func (d *decodeState) string3() (string, error) {
	rest, inline, err := d.header3()
	if err != nil {
		return "", err
	}
	if !inline {
		if int64(rest) >= int64(len(d.strings)) {
			return "", errors.Wrapf(ErrDecoding, "string reference %d out of %d", rest, len(d.strings))
		}
		return d.strings[rest], nil
	}
	if rest == 0 {
		return "", nil
	}
	b, err := d.r.Next(int(rest))
	if err != nil {
		return "", err
	}
	s := utf8codec.Decode(b)
	d.strings = append(d.strings, s)
	return s, nil
}

func (d *decodeState) xml3(legacy bool) (Value, error) {
	rest, inline, err := d.header3()
	if err != nil {
		return nil, err
	}
	if !inline {
		return d.reference(rest)
	}
	b, err := d.r.Next(int(rest))
	if err != nil {
		return nil, err
	}
	v := XMLDocument{Data: utf8codec.Decode(b), Legacy: legacy}
	d.objects = append(d.objects, v)
	return v, nil
}

func (d *decodeState) date3() (Value, error) {
	rest, inline, err := d.header3()
	if err != nil {
		return nil, err
	}
	if !inline {
		return d.reference(rest)
	}
	ms, err := d.r.Double()
	if err != nil {
		return nil, err
	}
	v := Date(ms)
	d.objects = append(d.objects, v)
	return v, nil
}

func (d *decodeState) byteArray3() (Value, error) {
	rest, inline, err := d.header3()
	if err != nil {
		return nil, err
	}
	if !inline {
		return d.reference(rest)
	}
	b, err := d.r.Next(int(rest))
	if err != nil {
		return nil, err
	}
	v := ByteArray(append([]byte(nil), b...))
	d.objects = append(d.objects, v)
	return v, nil
}

// array3 reads the associative part up to an empty key, then the dense part.
func (d *decodeState) array3() (Value, error) {
	count, inline, err := d.header3()
	if err != nil {
		return nil, err
	}
	if !inline {
		return d.reference(count)
	}
	if int64(count) > int64(d.r.Len()) {
		return nil, errors.Wrapf(ErrDecoding, "array of %d items in %d bytes", count, d.r.Len())
	}
	arr := &Array{}
	d.objects = append(d.objects, arr)

	for {
		key, err := d.string3()
		if err != nil {
			return nil, err
		}
		if key == "" {
			break
		}
		v, err := d.value3()
		if err != nil {
			return nil, err
		}
		arr.Assoc = append(arr.Assoc, Member{Key: key, Value: v})
	}
	arr.Items = make([]Value, 0, count)
	for i := uint32(0); i < count; i++ {
		v, err := d.value3()
		if err != nil {
			return nil, err
		}
		arr.Items = append(arr.Items, v)
	}
	return arr, nil
}

// traits3 reads inline trait data or resolves a traits reference. flags is the object header
// without its inline bit.
func (d *decodeState) traits3(flags uint32) (*Traits, error) {
	if flags&(amf3.FlagInlineTraits>>1) == 0 {
		index := flags >> 1
		if int64(index) >= int64(len(d.traits)) {
			return nil, errors.Wrapf(ErrDecoding, "traits reference %d out of %d", index, len(d.traits))
		}
		return d.traits[index], nil
	}
	if flags&(amf3.FlagExternalizable>>1) != 0 {
		return nil, errors.WithStack(ErrExternalizable)
	}
	className, err := d.string3()
	if err != nil {
		return nil, err
	}
	count := flags >> 3
	if int64(count) > int64(d.r.Len()) {
		return nil, errors.Wrapf(ErrDecoding, "%d sealed members in %d bytes", count, d.r.Len())
	}
	t := &Traits{
		ClassName: className,
		Dynamic:   flags&(amf3.FlagDynamic>>1) != 0,
		Sealed:    make([]string, 0, count),
	}
	for i := uint32(0); i < count; i++ {
		name, err := d.string3()
		if err != nil {
			return nil, err
		}
		t.Sealed = append(t.Sealed, name)
	}
	d.traits = append(d.traits, t)
	return t, nil
}

//	U29O-ref | U29O-traits-ref | U29O-traits-ext | U29O-traits
//	sealed member values in trait order, then name/value pairs up to the empty name when dynamic
func (d *decodeState) object3() (Value, error) {
	flags, inline, err := d.header3()
	if err != nil {
		return nil, err
	}
	if !inline {
		return d.reference(flags)
	}
	t, err := d.traits3(flags)
	if err != nil {
		return nil, err
	}

	var set func(key string, v Value) error
	var obj *Object
	inst, ok := d.registry.NewInstance(t.ClassName)
	if ok {
		d.objects = append(d.objects, inst)
		set = inst.SetMember
	} else {
		obj = &Object{Traits: t}
		d.objects = append(d.objects, obj)
		set = func(key string, v Value) error {
			obj.Members = append(obj.Members, Member{Key: key, Value: v})
			return nil
		}
	}

	for _, name := range t.Sealed {
		v, err := d.value3()
		if err != nil {
			return nil, err
		}
		if err := set(name, v); err != nil {
			return nil, err
		}
	}
	if t.Dynamic {
		for {
			key, err := d.string3()
			if err != nil {
				return nil, err
			}
			if key == "" {
				break
			}
			v, err := d.value3()
			if err != nil {
				return nil, err
			}
			if err := set(key, v); err != nil {
				return nil, err
			}
		}
	}

	if inst != nil {
		return inst, nil
	}
	return d.convert(obj), nil
}
