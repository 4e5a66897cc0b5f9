package amfx

import (
	"encoding/hex"
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/torresjeff/amf"
	"go.uber.org/zap"
)

// Decoder parses AMFX documents. The zero value decodes typed objects through a default
// registry, decodes embedded byte arrays with the AMF3 decoder and logs nothing.
type Decoder struct {
	Registry *amf.Registry
	Logger   *zap.Logger
	// ValueDecoder decodes the AMF3 stream embedded in a collection's byte array.
	ValueDecoder func(b []byte) (amf.Value, error)
}

var defaultRegistry = amf.NewRegistry()

// node is a generic element of an AMFX document.
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []node     `xml:",any"`
}

func (n *node) attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *node) child(name string) (*node, bool) {
	for i := range n.Children {
		if n.Children[i].XMLName.Local == name {
			return &n.Children[i], true
		}
	}
	return nil, false
}

func parse(text string, n *node) error {
	if err := xml.Unmarshal([]byte(text), n); err != nil {
		return errors.Wrap(amf.ErrDecoding, err.Error())
	}
	return nil
}

// ReadAmfxMessage decodes a complete AMFX document with a zero Decoder.
func ReadAmfxMessage(text string) (*Response, error) {
	var dec Decoder
	return dec.ReadAmfxMessage(text)
}

// ReadAmfxMessage decodes a complete AMFX document. The message is the first element of the body,
// Undefined when the body is empty.
func (dec *Decoder) ReadAmfxMessage(text string) (*Response, error) {
	var root node
	if err := parse(text, &root); err != nil {
		return nil, err
	}
	if root.XMLName.Local != "amfx" {
		return nil, errors.Wrapf(amf.ErrDecoding, "root element is %q, want amfx", root.XMLName.Local)
	}
	d := dec.state()
	if root.XMLName.Space != Namespace {
		d.logger.Warn("unexpected AMFX namespace", zap.String("namespace", root.XMLName.Space))
	}
	if ver, _ := root.attr("ver"); ver != Version {
		return nil, errors.Wrapf(amf.ErrDecoding, "unsupported AMFX version %q", ver)
	}
	body, ok := root.child("body")
	if !ok {
		return nil, errors.Wrap(amf.ErrDecoding, "missing body")
	}

	resp := &Response{Message: amf.Undefined{}}
	resp.TargetURI, _ = body.attr("targetURI")
	resp.ResponseURI, _ = body.attr("responseURI")
	if len(body.Children) > 0 {
		v, err := d.value(&body.Children[0])
		if err != nil {
			return nil, err
		}
		resp.Message = v
	}
	return resp, nil
}

// ReadValue decodes a single AMFX value element.
func (dec *Decoder) ReadValue(text string) (amf.Value, error) {
	var n node
	if err := parse(text, &n); err != nil {
		return nil, err
	}
	return dec.state().value(&n)
}

func (dec *Decoder) state() *decodeState {
	d := &decodeState{
		registry: defaultRegistry,
		logger:   zap.NewNop(),
	}
	if dec.Registry != nil {
		d.registry = dec.Registry
	}
	if dec.Logger != nil {
		d.logger = dec.Logger
	}
	d.decodeValue = dec.ValueDecoder
	if d.decodeValue == nil {
		binary := &amf.Decoder{Registry: d.registry, Logger: d.logger}
		d.decodeValue = binary.DecodeValue
	}
	return d
}

// decodeState holds the reference tables of one document.
type decodeState struct {
	registry    *amf.Registry
	logger      *zap.Logger
	decodeValue func(b []byte) (amf.Value, error)

	objects []amf.Value
	strings []string
	traits  [][]string
}

func (d *decodeState) value(n *node) (amf.Value, error) {
	switch n.XMLName.Local {
	case "null":
		return amf.Null{}, nil
	case "undefined":
		return amf.Undefined{}, nil
	case "true":
		return amf.Bool(true), nil
	case "false":
		return amf.Bool(false), nil
	case "string":
		s, err := d.string(n)
		if err != nil {
			return nil, err
		}
		return amf.String(s), nil
	case "int":
		i, err := strconv.ParseInt(strings.TrimSpace(n.Text), 10, 32)
		if err != nil {
			return nil, errors.Wrapf(amf.ErrDecoding, "int %q", n.Text)
		}
		return amf.Int(i), nil
	case "double":
		f, err := strconv.ParseFloat(strings.TrimSpace(n.Text), 64)
		if err != nil {
			return nil, errors.Wrapf(amf.ErrDecoding, "double %q", n.Text)
		}
		return amf.Double(f), nil
	case "date":
		f, err := strconv.ParseFloat(strings.TrimSpace(n.Text), 64)
		if err != nil {
			return nil, errors.Wrapf(amf.ErrDecoding, "date %q", n.Text)
		}
		date := amf.Date(f)
		d.objects = append(d.objects, date)
		return date, nil
	case "xml":
		return amf.XMLDocument{Data: n.Text}, nil
	case "bytearray":
		b, err := byteArray(n)
		if err != nil {
			return nil, err
		}
		return amf.ByteArray(b), nil
	case "ref":
		id, err := index(n)
		if err != nil {
			return nil, err
		}
		if id >= len(d.objects) {
			return nil, errors.Wrapf(amf.ErrDecoding, "object reference %d out of %d", id, len(d.objects))
		}
		return d.objects[id], nil
	case "array":
		return d.array(n)
	case "object":
		return d.object(n)
	case "dictionary":
		return d.dictionary(n)
	}
	return nil, errors.Wrapf(amf.ErrDecoding, "unknown element %q", n.XMLName.Local)
}

// index reads the id attribute of a reference.
func index(n *node) (int, error) {
	s, ok := n.attr("id")
	if !ok {
		return 0, errors.Wrapf(amf.ErrDecoding, "%s has no id", n.XMLName.Local)
	}
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 {
		return 0, errors.Wrapf(amf.ErrDecoding, "%s id %q", n.XMLName.Local, s)
	}
	return id, nil
}

// length reads the declared length of an array or dictionary.
func length(n *node) (int, error) {
	s, ok := n.attr("length")
	if !ok {
		return 0, errors.Wrapf(amf.ErrDecoding, "%s has no length", n.XMLName.Local)
	}
	l, err := strconv.Atoi(s)
	if err != nil || l < 0 {
		return 0, errors.Wrapf(amf.ErrDecoding, "%s length %q", n.XMLName.Local, s)
	}
	return l, nil
}

func byteArray(n *node) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimSpace(n.Text))
	if err != nil {
		return nil, errors.Wrap(amf.ErrDecoding, err.Error())
	}
	return b, nil
}

// string resolves a string reference or registers a new string, empty ones included.
func (d *decodeState) string(n *node) (string, error) {
	if _, ok := n.attr("id"); ok {
		id, err := index(n)
		if err != nil {
			return "", err
		}
		if id >= len(d.strings) {
			return "", errors.Wrapf(amf.ErrDecoding, "string reference %d out of %d", id, len(d.strings))
		}
		return d.strings[id], nil
	}
	d.strings = append(d.strings, n.Text)
	return n.Text, nil
}

func (d *decodeState) array(n *node) (amf.Value, error) {
	l, err := length(n)
	if err != nil {
		return nil, err
	}
	arr := &amf.Array{}
	d.objects = append(d.objects, arr)

	for i := range n.Children {
		c := &n.Children[i]
		if c.XMLName.Local == "item" {
			name, ok := c.attr("name")
			if !ok {
				return nil, errors.Wrap(amf.ErrDecoding, "array item has no name")
			}
			if len(c.Children) == 0 {
				return nil, errors.Wrapf(amf.ErrDecoding, "array item %q has no value", name)
			}
			v, err := d.value(&c.Children[0])
			if err != nil {
				return nil, err
			}
			arr.Assoc = append(arr.Assoc, amf.Member{Key: name, Value: v})
			continue
		}
		if len(arr.Items) == l {
			return nil, errors.Wrapf(amf.ErrDecoding, "array has more items than its length %d", l)
		}
		v, err := d.value(c)
		if err != nil {
			return nil, err
		}
		arr.Items = append(arr.Items, v)
	}
	if len(arr.Items) < l {
		return nil, errors.Wrapf(amf.ErrDecoding, "array has %d items, want %d", len(arr.Items), l)
	}
	return arr, nil
}

func (d *decodeState) dictionary(n *node) (amf.Value, error) {
	l, err := length(n)
	if err != nil {
		return nil, err
	}
	dict := &amf.Dictionary{}
	d.objects = append(d.objects, dict)

	if len(n.Children)%2 != 0 {
		return nil, errors.Wrap(amf.ErrDecoding, "dictionary key has no value")
	}
	for i := 0; i < len(n.Children); i += 2 {
		key, err := d.value(&n.Children[i])
		if err != nil {
			return nil, err
		}
		v, err := d.value(&n.Children[i+1])
		if err != nil {
			return nil, err
		}
		dict.Entries = append(dict.Entries, amf.Entry{Key: key, Value: v})
	}
	if len(dict.Entries) != l {
		return nil, errors.Wrapf(amf.ErrDecoding, "dictionary has %d entries, want %d", len(dict.Entries), l)
	}
	return dict, nil
}

func (d *decodeState) object(n *node) (amf.Value, error) {
	className, _ := n.attr("type")
	inst, ok := d.registry.NewInstance(className)
	if !ok && d.registry.Collection(className) {
		return d.collection(n, className)
	}

	t, ok := n.child("traits")
	if !ok {
		return nil, errors.Wrapf(amf.ErrDecoding, "object %q has no traits", className)
	}
	names, err := d.traitNames(t, className)
	if err != nil {
		return nil, err
	}

	var set func(key string, v amf.Value) error
	var obj *amf.Object
	if inst != nil {
		d.objects = append(d.objects, inst)
		set = inst.SetMember
	} else {
		obj = &amf.Object{Traits: &amf.Traits{ClassName: className, Sealed: names}}
		d.objects = append(d.objects, obj)
		set = func(key string, v amf.Value) error {
			obj.Members = append(obj.Members, amf.Member{Key: key, Value: v})
			return nil
		}
	}

	j := 0
	for i := range n.Children {
		c := &n.Children[i]
		if c.XMLName.Local == "traits" {
			continue
		}
		if j == len(names) {
			return nil, errors.Wrapf(amf.ErrDecoding, "object %q has more values than traits", className)
		}
		v, err := d.value(c)
		if err != nil {
			return nil, err
		}
		if err := set(names[j], v); err != nil {
			return nil, err
		}
		j++
	}
	if j < len(names) {
		return nil, errors.Wrapf(amf.ErrDecoding, "object %q has %d values for %d traits", className, j, len(names))
	}

	if inst != nil {
		return inst, nil
	}
	return d.convert(obj), nil
}

func (d *decodeState) traitNames(t *node, className string) ([]string, error) {
	if ext, _ := t.attr("externalizable"); ext == "true" {
		return nil, errors.Wrapf(amf.ErrExternalizable, "class %q", className)
	}
	if _, ok := t.attr("id"); ok {
		id, err := index(t)
		if err != nil {
			return nil, err
		}
		if id >= len(d.traits) {
			return nil, errors.Wrapf(amf.ErrDecoding, "traits reference %d out of %d", id, len(d.traits))
		}
		return d.traits[id], nil
	}

	names := make([]string, 0, len(t.Children))
	for i := range t.Children {
		v, err := d.value(&t.Children[i])
		if err != nil {
			return nil, err
		}
		name, ok := v.(amf.String)
		if !ok {
			return nil, errors.Wrapf(amf.ErrDecoding, "trait of %q is a %s", className, v.Kind())
		}
		names = append(names, string(name))
	}
	d.traits = append(d.traits, names)
	return names, nil
}

// collection replaces a list wrapper with the AMF3 value embedded in its byte array.
func (d *decodeState) collection(n *node, className string) (amf.Value, error) {
	b, ok := n.child("bytearray")
	if !ok {
		return nil, errors.Wrapf(amf.ErrDecoding, "collection %q has no bytearray", className)
	}
	data, err := byteArray(b)
	if err != nil {
		return nil, err
	}
	v, err := d.decodeValue(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "collection %q", className)
	}
	d.logger.Debug("decoded embedded collection", zap.String("class", className), zap.Int("bytes", len(data)))
	d.objects = append(d.objects, v)
	return v, nil
}

func (d *decodeState) convert(obj *amf.Object) amf.Value {
	conv, ok := d.registry.Converter(obj.ClassName())
	if !ok {
		return obj
	}
	d.logger.Debug("converting typed object", zap.String("class", obj.ClassName()))
	return conv(obj)
}
