package amf

import (
	"math"
	"testing"
	"time"
)

func TestEqual(t *testing.T) {
	cyclicA := NewArray()
	cyclicA.Items = append(cyclicA.Items, cyclicA)
	cyclicB := NewArray()
	cyclicB.Items = append(cyclicB.Items, cyclicB)

	equalTests := []struct {
		name string
		a, b Value
		out  bool
	}{
		{"nil", nil, nil, true},
		{"nilAndNull", nil, Null{}, false},
		{"intAndDouble", Int(1), Double(1), false},
		{"nan", Double(math.NaN()), Double(math.NaN()), true},
		{"signedZero", Double(0), Double(math.Copysign(0, -1)), false},
		{"bytes", ByteArray{1, 2}, ByteArray{1, 2}, true},
		{"xmlFlavour", XMLDocument{Data: "a"}, XMLDocument{Data: "a", Legacy: true}, false},
		{"memberOrder", NewObject(Member{"a", Int(1)}, Member{"b", Int(2)}), NewObject(Member{"b", Int(2)}, Member{"a", Int(1)}), true},
		{"className", NewTypedObject("X"), NewObject(), false},
		{"itemOrder", NewArray(Int(1), Int(2)), NewArray(Int(2), Int(1)), false},
		{"assoc", &Array{Assoc: []Member{{"k", Null{}}}}, NewArray(), false},
		{"cycles", cyclicA, cyclicB, true},
		{"dictionary", &Dictionary{Entries: []Entry{{Int(1), String("a")}}}, &Dictionary{Entries: []Entry{{Int(1), String("a")}}}, true},
	}
	for _, tt := range equalTests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.out {
				t.Errorf("got %v, want %v", got, tt.out)
			}
		})
	}
}

func TestDate(t *testing.T) {
	when := time.Date(2020, 9, 13, 12, 26, 40, 123e6, time.UTC)
	d := DateOf(when)
	if d != Date(1600000000123) {
		t.Errorf("got %v, want %v", d, Date(1600000000123))
	}
	if !d.Time().Equal(when) {
		t.Errorf("got %v, want %v", d.Time(), when)
	}
	if got := Date(-1).Time(); !got.Equal(time.Unix(0, -int64(time.Millisecond))) {
		t.Errorf("got %v, want %v", got, time.Unix(0, -int64(time.Millisecond)))
	}
}

func TestObject_Set(t *testing.T) {
	o := NewObject()
	o.Set("a", Int(1))
	o.Set("b", Int(2))
	o.Set("a", Int(3))
	if len(o.Members) != 2 {
		t.Fatalf("got %v members, want %v", len(o.Members), 2)
	}
	if v, _ := o.Get("a"); v != Int(3) {
		t.Errorf("got %v, want %v", v, Int(3))
	}
	if _, ok := o.Get("c"); ok {
		t.Errorf("got member c, want none")
	}
}

func TestArray_Map(t *testing.T) {
	a := &Array{Items: []Value{String("x")}, Assoc: []Member{{"k", Int(1)}}}
	m := a.Map()
	if len(m) != 2 || m["0"] != String("x") || m["k"] != Int(1) {
		t.Errorf("got %v, want map[0:x k:1]", m)
	}
}

func TestKind_String(t *testing.T) {
	if got := KindDictionary.String(); got != "dictionary" {
		t.Errorf("got %v, want %v", got, "dictionary")
	}
	if got := Kind(99).String(); got != "kind(99)" {
		t.Errorf("got %v, want %v", got, "kind(99)")
	}
}
