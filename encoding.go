package amf

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/torresjeff/amf/amf3"
	"go.uber.org/zap"
)

// Marshaler is implemented by types that convert themselves to a Value.
type Marshaler interface {
	MarshalAMF() (Value, error)
}

var (
	timeType      = reflect.TypeOf(time.Time{})
	marshalerType = reflect.TypeOf((*Marshaler)(nil)).Elem()
	valueType     = reflect.TypeOf((*Value)(nil)).Elem()
)

// ValueOf classifies a Go value once, before it is written:
// nil → Null, bool → Bool, integers → Int (Double outside the 29 bit range),
// floats → Int when integral and in range, else Double, string → String,
// time.Time → Date, []byte → ByteArray, slices and arrays → *Array,
// maps with string keys → *Object (keys sorted), structs → *Object.
// Struct fields use the `amf:"name"` tag; `amf:"-"` skips a field.
// Values of any other kind are rejected with ErrEncodingType.
func ValueOf(v interface{}) (Value, error) {
	c := classifier{}
	return c.classify(reflect.ValueOf(v))
}

// classifier drops unrecognized nested values with a warning when logger is set,
// and fails on them otherwise.
type classifier struct {
	logger *zap.Logger
}

func (c classifier) classify(rv reflect.Value) (Value, error) {
	if !rv.IsValid() {
		return Null{}, nil
	}
	if rv.Kind() == reflect.Interface {
		// elements of []Value, map[string]Value and Value fields
		if rv.IsNil() {
			return Null{}, nil
		}
		return c.classify(rv.Elem())
	}
	if rv.Type().Implements(valueType) {
		if rv.Kind() == reflect.Ptr && rv.IsNil() {
			return Null{}, nil
		}
		return rv.Interface().(Value), nil
	}
	if rv.Type().Implements(marshalerType) {
		if rv.Kind() == reflect.Ptr && rv.IsNil() {
			return Null{}, nil
		}
		return rv.Interface().(Marshaler).MarshalAMF()
	}
	if rv.Type() == timeType {
		return DateOf(rv.Interface().(time.Time)), nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if fitsInt(n) {
			return Int(n), nil
		}
		return Double(n), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n := rv.Uint()
		if n <= uint64(amf3.MaxInt) {
			return Int(n), nil
		}
		return Double(n), nil
	case reflect.Float32, reflect.Float64:
		return numberValue(rv.Float()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Ptr:
		if rv.IsNil() {
			return Null{}, nil
		}
		return c.classify(rv.Elem())
	case reflect.Slice:
		if rv.IsNil() {
			return Null{}, nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return ByteArray(rv.Bytes()), nil
		}
		return c.array(rv)
	case reflect.Array:
		return c.array(rv)
	case reflect.Map:
		if rv.IsNil() {
			return Null{}, nil
		}
		if rv.Type().Key().Kind() != reflect.String {
			return nil, errors.Wrapf(ErrEncodingType, "map key type %s", rv.Type().Key())
		}
		return c.object(rv)
	case reflect.Struct:
		return c.structObject(rv)
	}
	return nil, errors.Wrapf(ErrEncodingType, "cannot encode type %s", rv.Type())
}

func (c classifier) array(rv reflect.Value) (Value, error) {
	items := make([]Value, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item, err := c.classify(rv.Index(i))
		if err != nil {
			if !c.drop(err, fmt.Sprint("[", i, "]")) {
				return nil, err
			}
			// keep the indices of the following items
			item = Undefined{}
		}
		items = append(items, item)
	}
	return NewArray(items...), nil
}

func (c classifier) object(rv reflect.Value) (Value, error) {
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	obj := NewObject()
	for _, key := range keys {
		v, err := c.classify(rv.MapIndex(key))
		if err != nil {
			if !c.drop(err, key.String()) {
				return nil, err
			}
			continue
		}
		obj.Members = append(obj.Members, Member{Key: key.String(), Value: v})
	}
	return obj, nil
}

func (c classifier) structObject(rv reflect.Value) (Value, error) {
	obj := NewObject()
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue // unexported
		}
		name := field.Name
		if tag, ok := field.Tag.Lookup("amf"); ok {
			tag = strings.Split(tag, ",")[0]
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		v, err := c.classify(rv.Field(i))
		if err != nil {
			if !c.drop(err, name) {
				return nil, err
			}
			continue
		}
		obj.Members = append(obj.Members, Member{Key: name, Value: v})
	}
	return obj, nil
}

// drop reports whether err may be swallowed, logging the dropped path.
func (c classifier) drop(err error, path string) bool {
	if c.logger == nil || !errors.Is(err, ErrEncodingType) {
		return false
	}
	c.logger.Warn("dropping value that cannot be encoded", zap.String("path", path), zap.Error(err))
	return true
}

func fitsInt(n int64) bool {
	return n >= amf3.MinInt && n <= amf3.MaxInt
}

// numberValue applies the number rule of WriteNumber: integral values in the
// 29 bit range become Int, everything else Double. -0 stays a Double.
func numberValue(f float64) Value {
	if f == math.Trunc(f) && f >= float64(amf3.MinInt) && f <= float64(amf3.MaxInt) && !(f == 0 && math.Signbit(f)) {
		return Int(f)
	}
	return Double(f)
}
