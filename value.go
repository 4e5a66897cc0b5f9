package amf

import (
	"math"
	"reflect"
	"sort"
	"strconv"
	"time"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindInt
	KindDouble
	KindString
	KindDate
	KindArray
	KindByteArray
	KindXMLDocument
	KindObject
	KindDictionary
	KindInstance
)

var kindNames = [...]string{
	KindUndefined:   "undefined",
	KindNull:        "null",
	KindBool:        "bool",
	KindInt:         "int",
	KindDouble:      "double",
	KindString:      "string",
	KindDate:        "date",
	KindArray:       "array",
	KindByteArray:   "bytearray",
	KindXMLDocument: "xml",
	KindObject:      "object",
	KindDictionary:  "dictionary",
	KindInstance:    "instance",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is one node of the AMF value model. The set of implementations is closed:
// Undefined, Null, Bool, Int, Double, String, Date, *Array, ByteArray, XMLDocument,
// *Object, *Dictionary and *Instance.
type Value interface {
	Kind() Kind
	value()
}

type Undefined struct{}

type Null struct{}

type Bool bool

// Int is an integer. AMF3 writes it compactly when it fits in 29 signed bits.
type Int int32

type Double float64

type String string

// Date is an instant, in milliseconds since the Unix epoch.
type Date float64

// ByteArray is only produced from an explicit []byte, never from a generic array.
type ByteArray []byte

// XMLDocument is serialized XML text. Legacy selects the AMF3 XMLDocument marker (0x07) over XML (0x0B).
// AMF0 and AMFX have a single XML type, so Legacy is not written there and decodes as false.
type XMLDocument struct {
	Data   string
	Legacy bool
}

// Member is one key/value pair of an object or of the associative part of an array.
type Member struct {
	Key   string
	Value Value
}

// Array is an ordered sequence with an optional associative tail.
type Array struct {
	Items []Value
	Assoc []Member
}

// Traits describe the shape of an object. They are shared between all objects of a class
// decoded from one unit and must not be modified.
type Traits struct {
	ClassName string
	Dynamic   bool
	Sealed    []string
}

// Object is an ordered mapping of names to values. Members named in Traits.Sealed are the
// sealed members; everything else is dynamic.
type Object struct {
	Traits  *Traits
	Members []Member
}

// Entry is one key/value pair of a Dictionary.
type Entry struct {
	Key   Value
	Value Value
}

// Dictionary maps arbitrary values to values. Only AMFX carries dictionaries.
type Dictionary struct {
	Entries []Entry
}

func (Undefined) Kind() Kind { return KindUndefined }
func (Null) Kind() Kind { return KindNull }
func (Bool) Kind() Kind { return KindBool }
func (Int) Kind() Kind { return KindInt }
func (Double) Kind() Kind { return KindDouble }
func (String) Kind() Kind { return KindString }
func (Date) Kind() Kind { return KindDate }
func (*Array) Kind() Kind { return KindArray }
func (ByteArray) Kind() Kind { return KindByteArray }
func (XMLDocument) Kind() Kind { return KindXMLDocument }
func (*Object) Kind() Kind { return KindObject }
func (*Dictionary) Kind() Kind { return KindDictionary }
func (*Instance) Kind() Kind { return KindInstance }
func (Undefined) value() {}
func (Null) value() {}
func (Bool) value() {}
func (Int) value() {}
func (Double) value() {}
func (String) value() {}
func (Date) value() {}
func (*Array) value() {}
func (ByteArray) value() {}
func (XMLDocument) value() {}
func (*Object) value() {}
func (*Dictionary) value() {}
func (*Instance) value() {}

// DateOf converts t to a Date.
func DateOf(t time.Time) Date {
	return Date(t.UnixNano() / int64(time.Millisecond))
}

// Time converts d to a time.Time in UTC.
func (d Date) Time() time.Time {
	ms := float64(d)
	sec := math.Floor(ms / 1000)
	nsec := (ms - sec*1000) * float64(time.Millisecond)
	return time.Unix(int64(sec), int64(nsec)).UTC()
}

// NewArray returns a dense array holding items.
func NewArray(items ...Value) *Array {
	return &Array{Items: items}
}

// Len returns the length of the dense part.
func (a *Array) Len() int {
	return len(a.Items)
}

// Map returns a string keyed view of a: dense items under their stringified index, then the associative tail.
func (a *Array) Map() map[string]Value {
	m := make(map[string]Value, len(a.Items)+len(a.Assoc))
	for i, item := range a.Items {
		m[strconv.Itoa(i)] = item
	}
	for _, member := range a.Assoc {
		m[member.Key] = member.Value
	}
	return m
}

// NewObject returns an anonymous, dynamic object.
func NewObject(members ...Member) *Object {
	return &Object{Traits: &Traits{Dynamic: true}, Members: members}
}

// NewTypedObject returns a dynamic object tagged with className.
func NewTypedObject(className string, members ...Member) *Object {
	return &Object{Traits: &Traits{ClassName: className, Dynamic: true}, Members: members}
}

// ClassName returns the class name of o, or "" for anonymous objects.
func (o *Object) ClassName() string {
	if o.Traits == nil {
		return ""
	}
	return o.Traits.ClassName
}

// Get returns the member named key.
func (o *Object) Get(key string) (Value, bool) {
	for _, m := range o.Members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Set replaces the member named key, or appends it.
func (o *Object) Set(key string, v Value) {
	for i := range o.Members {
		if o.Members[i].Key == key {
			o.Members[i].Value = v
			return
		}
	}
	o.Members = append(o.Members, Member{Key: key, Value: v})
}

// Equal reports whether a and b are structurally equal. Object members and the associative part of
// arrays compare without regard to order, NaN equals NaN and -0 differs from +0.
func Equal(a, b Value) bool {
	return equal(a, b, map[[2]Value]bool{})
}

func equal(a, b Value, seen map[[2]Value]bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch x := a.(type) {
	case Double:
		return sameFloat(float64(x), float64(b.(Double)))
	case Date:
		return sameFloat(float64(x), float64(b.(Date)))
	case ByteArray:
		y := b.(ByteArray)
		return string(x) == string(y)
	case *Array, *Object, *Dictionary, *Instance:
		key := [2]Value{a, b}
		if seen[key] {
			return true
		}
		seen[key] = true
	default:
		return a == b
	}

	switch x := a.(type) {
	case *Array:
		y := b.(*Array)
		if len(x.Items) != len(y.Items) {
			return false
		}
		for i := range x.Items {
			if !equal(x.Items[i], y.Items[i], seen) {
				return false
			}
		}
		return equalMembers(x.Assoc, y.Assoc, seen)
	case *Object:
		y := b.(*Object)
		return x.ClassName() == y.ClassName() && equalMembers(x.Members, y.Members, seen)
	case *Dictionary:
		y := b.(*Dictionary)
		if len(x.Entries) != len(y.Entries) {
			return false
		}
		for i := range x.Entries {
			if !equal(x.Entries[i].Key, y.Entries[i].Key, seen) || !equal(x.Entries[i].Value, y.Entries[i].Value, seen) {
				return false
			}
		}
		return true
	case *Instance:
		y := b.(*Instance)
		if x.ClassName != y.ClassName {
			return false
		}
		xm, xok := x.Class.(MemberLister)
		ym, yok := y.Class.(MemberLister)
		if !xok || !yok {
			return reflect.DeepEqual(x.Class, y.Class)
		}
		return equalMembers(xm.Members(), ym.Members(), seen)
	}
	return false
}

func equalMembers(x, y []Member, seen map[[2]Value]bool) bool {
	if len(x) != len(y) {
		return false
	}
	xs := sortedMembers(x)
	ys := sortedMembers(y)
	for i := range xs {
		if xs[i].Key != ys[i].Key || !equal(xs[i].Value, ys[i].Value, seen) {
			return false
		}
	}
	return true
}

func sortedMembers(members []Member) []Member {
	out := make([]Member, len(members))
	copy(out, members)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func sameFloat(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return a == b && math.Signbit(a) == math.Signbit(b)
}
