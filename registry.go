package amf

import "github.com/pkg/errors"

// Class is implemented by application types that typed objects are materialized into.
type Class interface {
	// SetMember assigns one decoded member. Unknown names may be ignored.
	SetMember(name string, v Value) error
}

// MemberLister is implemented by classes that can be written back out. The members are
// written in order, all of them as sealed members of the class.
type MemberLister interface {
	Members() []Member
}

// Factory returns a new, empty instance of a registered class.
type Factory func() Class

// Converter post-processes an anonymous typed object whose class has no registered Factory.
type Converter func(obj *Object) Value

// Instance is a typed object materialized through a Registry.
type Instance struct {
	ClassName string
	Class     Class
}

// Registry maps class aliases to constructors and class names to converters. It is populated
// ahead of time and only read while decoding, so one Registry may serve concurrent decoders.
type Registry struct {
	classes     map[string]Factory
	converters  map[string]Converter
	collections map[string]bool
}

// Flex list wrappers. ArrayCollection is collapsed by the default converter; all three
// carry their items as an embedded AMF3 byte array in AMFX.
const (
	ArrayCollection   = "flex.messaging.io.ArrayCollection"
	ArrayList         = "mx.collections.ArrayList"
	MXArrayCollection = "mx.collections.ArrayCollection"
)

// NewRegistry returns a registry holding the default converters and collections.
func NewRegistry() *Registry {
	r := &Registry{
		classes:     make(map[string]Factory),
		converters:  make(map[string]Converter),
		collections: make(map[string]bool),
	}
	r.RegisterConverter(ArrayCollection, collapseSource)
	for _, className := range []string{ArrayCollection, ArrayList, MXArrayCollection} {
		r.RegisterCollection(className)
	}
	return r
}

// Register binds alias to f. The zero Registry is ready for use but holds no default converters.
func (r *Registry) Register(alias string, f Factory) *Registry {
	if r.classes == nil {
		r.classes = make(map[string]Factory)
	}
	r.classes[alias] = f
	return r
}

// RegisterConverter binds className to c.
func (r *Registry) RegisterConverter(className string, c Converter) *Registry {
	if r.converters == nil {
		r.converters = make(map[string]Converter)
	}
	r.converters[className] = c
	return r
}

// RegisterCollection marks className as a list wrapper whose AMFX form holds its items
// as an AMF3 value embedded in a byte array.
func (r *Registry) RegisterCollection(className string) *Registry {
	if r.collections == nil {
		r.collections = make(map[string]bool)
	}
	r.collections[className] = true
	return r
}

// Collection reports whether className was registered with RegisterCollection.
func (r *Registry) Collection(className string) bool {
	if r == nil || className == "" {
		return false
	}
	return r.collections[className]
}

// Factory returns the constructor registered for alias.
func (r *Registry) Factory(alias string) (Factory, bool) {
	if r == nil || alias == "" {
		return nil, false
	}
	f, ok := r.classes[alias]
	return f, ok
}

// Converter returns the converter registered for className.
func (r *Registry) Converter(className string) (Converter, bool) {
	if r == nil || className == "" {
		return nil, false
	}
	c, ok := r.converters[className]
	return c, ok
}

// NewInstance creates an instance of the class registered for alias.
func (r *Registry) NewInstance(alias string) (*Instance, bool) {
	f, ok := r.Factory(alias)
	if !ok {
		return nil, false
	}
	return &Instance{ClassName: alias, Class: f()}, true
}

// SetMember forwards to the wrapped class.
func (i *Instance) SetMember(name string, v Value) error {
	if err := i.Class.SetMember(name, v); err != nil {
		return errors.Wrapf(ErrDecoding, "%s.%s: %v", i.ClassName, name, err)
	}
	return nil
}

// collapseSource replaces a list wrapper with the array in its source member.
func collapseSource(obj *Object) Value {
	if source, ok := obj.Get("source"); ok {
		return source
	}
	return &Array{}
}

// Record is a generic Class that keeps every member in arrival order.
type Record struct {
	members []Member
}

// NewRecord is a Factory for Record.
func NewRecord() Class {
	return &Record{}
}

func (r *Record) SetMember(name string, v Value) error {
	for i := range r.members {
		if r.members[i].Key == name {
			r.members[i].Value = v
			return nil
		}
	}
	r.members = append(r.members, Member{Key: name, Value: v})
	return nil
}

func (r *Record) Members() []Member {
	return r.members
}
