package amf

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/torresjeff/amf/amf0"
	"github.com/torresjeff/amf/internal/utf8codec"
	"go.uber.org/zap"
)

func (d *decodeState) value0() (Value, error) {
	marker, err := d.r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch marker {
	case amf0.TypeNumber:
		f, err := d.r.Double()
		if err != nil {
			return nil, err
		}
		return Double(f), nil
	case amf0.TypeBoolean:
		b, err := d.r.ReadByte()
		if err != nil {
			return nil, err
		}
		return Bool(b != 0), nil
	case amf0.TypeString:
		s, err := d.shortString0()
		return String(s), err
	case amf0.TypeLongString:
		s, err := d.string0(4)
		return String(s), err
	case amf0.TypeXMLDocument:
		s, err := d.string0(4)
		return XMLDocument{Data: s}, err
	case amf0.TypeNull:
		return Null{}, nil
	case amf0.TypeUndefined, amf0.TypeUnsupported:
		return Undefined{}, nil
	case amf0.TypeReference:
		index, err := d.r.Uint(2)
		if err != nil {
			return nil, err
		}
		if int(index) >= len(d.complex0) {
			return nil, errors.Wrapf(ErrDecoding, "object reference %d out of %d", index, len(d.complex0))
		}
		return d.complex0[index], nil
	case amf0.TypeDate:
		ms, err := d.r.Double()
		if err != nil {
			return nil, err
		}
		// time zone, ignored
		if _, err := d.r.Next(2); err != nil {
			return nil, err
		}
		return Date(ms), nil
	case amf0.TypeObject:
		obj := NewObject()
		d.complex0 = append(d.complex0, obj)
		return obj, d.members0(func(key string, v Value) error {
			obj.Members = append(obj.Members, Member{Key: key, Value: v})
			return nil
		})
	case amf0.TypeTypedObject:
		return d.typedObject0()
	case amf0.TypeECMAArray:
		return d.ecmaArray0()
	case amf0.TypeStrictArray:
		return d.strictArray0()
	case amf0.TypeAVMPlus:
		d.logger.Debug("switching to AMF3")
		d.version = Version3
		return d.value3()
	case amf0.TypeMovieClip, amf0.TypeRecordSet:
		return nil, errors.Wrapf(ErrUnsupportedFeature, "AMF0 marker %#02x", marker)
	}
	return nil, errors.Wrapf(ErrDecoding, "unknown AMF0 marker %#02x", marker)
}

func (d *decodeState) shortString0() (string, error) {
	return d.string0(2)
}

// string0 reads a UTF-8 string prefixed by a width byte length.
func (d *decodeState) string0(width int) (string, error) {
	n, err := d.r.Uint(width)
	if err != nil {
		return "", err
	}
	b, err := d.r.Next(int(n))
	if err != nil {
		return "", err
	}
	return utf8codec.Decode(b), nil
}

// members0 reads key/value pairs up to the object end marker.
func (d *decodeState) members0(set func(key string, v Value) error) error {
	for {
		key, err := d.shortString0()
		if err != nil {
			return err
		}
		if key == "" {
			end, err := d.r.ReadByte()
			if err != nil {
				return err
			}
			if end != amf0.TypeObjectEnd {
				return errors.Wrapf(ErrDecoding, "expected object end, got %#02x", end)
			}
			return nil
		}
		v, err := d.value0()
		if err != nil {
			return err
		}
		if err := set(key, v); err != nil {
			return err
		}
	}
}

func (d *decodeState) typedObject0() (Value, error) {
	className, err := d.shortString0()
	if err != nil {
		return nil, err
	}
	if inst, ok := d.registry.NewInstance(className); ok {
		d.complex0 = append(d.complex0, inst)
		return inst, d.members0(inst.SetMember)
	}

	obj := NewTypedObject(className)
	d.complex0 = append(d.complex0, obj)
	err = d.members0(func(key string, v Value) error {
		obj.Members = append(obj.Members, Member{Key: key, Value: v})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d.convert(obj), nil
}

// ecmaArray0 reads an associative array. Leading members keyed "0", "1", ... become the dense items.
func (d *decodeState) ecmaArray0() (Value, error) {
	// the declared count is advisory, the end marker terminates the array
	count, err := d.r.Uint(4)
	if err != nil {
		return nil, err
	}
	arr := &Array{}
	d.complex0 = append(d.complex0, arr)

	var members []Member
	err = d.members0(func(key string, v Value) error {
		members = append(members, Member{Key: key, Value: v})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if int64(count) != int64(len(members)) {
		d.logger.Debug("ECMA array count mismatch", zap.Uint32("declared", count), zap.Int("read", len(members)))
	}

	dense := 0
	for dense < len(members) && members[dense].Key == strconv.Itoa(dense) {
		dense++
	}
	arr.Items = make([]Value, dense)
	for i := range arr.Items {
		arr.Items[i] = members[i].Value
	}
	if dense < len(members) {
		arr.Assoc = members[dense:]
	}
	return arr, nil
}

func (d *decodeState) strictArray0() (Value, error) {
	count, err := d.r.Uint(4)
	if err != nil {
		return nil, err
	}
	// every item takes at least one byte
	if int64(count) > int64(d.r.Len()) {
		return nil, errors.Wrapf(ErrDecoding, "strict array of %d items in %d bytes", count, d.r.Len())
	}
	arr := &Array{Items: make([]Value, 0, count)}
	d.complex0 = append(d.complex0, arr)
	for i := uint32(0); i < count; i++ {
		v, err := d.value0()
		if err != nil {
			return nil, err
		}
		arr.Items = append(arr.Items, v)
	}
	return arr, nil
}
