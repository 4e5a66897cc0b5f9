package amf

import "testing"

func TestRegistry(t *testing.T) {
	r := NewRegistry().Register("X", NewRecord)

	if _, ok := r.Factory("X"); !ok {
		t.Errorf("got no factory for X, want one")
	}
	if _, ok := r.Factory(""); ok {
		t.Errorf("got a factory for the empty alias, want none")
	}
	if _, ok := r.Converter(ArrayCollection); !ok {
		t.Errorf("got no converter for %v, want one", ArrayCollection)
	}
	for _, className := range []string{ArrayCollection, ArrayList, MXArrayCollection} {
		if !r.Collection(className) {
			t.Errorf("got %v not registered as a collection, want registered", className)
		}
	}

	var nilRegistry *Registry
	if _, ok := nilRegistry.NewInstance("X"); ok {
		t.Errorf("got an instance from a nil registry, want none")
	}
}

func TestRegistryZeroValue(t *testing.T) {
	var r Registry
	r.Register("X", NewRecord).RegisterConverter("Y", collapseSource)

	if _, ok := r.NewInstance("X"); !ok {
		t.Errorf("got no instance of X, want one")
	}
	if _, ok := r.Converter("Y"); !ok {
		t.Errorf("got no converter for Y, want one")
	}
	if _, ok := r.Converter(ArrayCollection); ok {
		t.Errorf("got a converter for %v, want none", ArrayCollection)
	}
	if r.RegisterCollection("Z"); !r.Collection("Z") || r.Collection(ArrayList) {
		t.Errorf("got collections %v, want only Z", r.collections)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	r := NewRegistry().Register("X", NewRecord)
	dec := Decoder{Registry: r}

	in := NewTypedObject("X", Member{"a", Int(1)}, Member{"b", String("b")})
	b, err := Encode(in, Version3)
	if err != nil {
		t.Fatal(err)
	}
	got, err := dec.DecodeValue(b)
	if err != nil {
		t.Fatal(err)
	}
	inst, ok := got.(*Instance)
	if !ok {
		t.Fatalf("got %T, want *Instance", got)
	}
	members := inst.Class.(MemberLister).Members()
	if len(members) != 2 || members[0].Key != "a" || members[1].Key != "b" {
		t.Errorf("got %v, want members a and b", members)
	}

	// a registered instance is written back as a sealed object of its class
	out, err := Encode(inst, Version3)
	if err != nil {
		t.Fatal(err)
	}
	again, err := dec.DecodeValue(out)
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(again, inst) {
		t.Errorf("got %#v, want %#v", again, inst)
	}
}

func TestCollapseSource(t *testing.T) {
	empty := collapseSource(NewTypedObject(ArrayCollection))
	if !Equal(empty, &Array{}) {
		t.Errorf("got %#v, want empty array", empty)
	}
}
