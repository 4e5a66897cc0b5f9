// Package yamlvalue converts between YAML documents and AMF values.
//
// Plain YAML maps to the obvious values. Tags select the rest:
//
//	!undefined ""              Undefined
//	!xml "<a/>"                XML
//	!xmldocument "<a/>"        legacy XMLDocument
//	!!binary AAEC              ByteArray
//	!!timestamp 2020-01-02     Date
//	!ecma {0: a, key: b}       array with an associative part
//	!dictionary {1: x}         Dictionary
//	!com.example.Point {x: 1}  typed object
package yamlvalue

import (
	"encoding/base64"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/torresjeff/amf"
	"github.com/torresjeff/amf/amf3"
	"gopkg.in/yaml.v3"
)

const (
	TagUndefined   = "!undefined"
	TagXML         = "!xml"
	TagXMLDocument = "!xmldocument"
	TagECMA        = "!ecma"
	TagDictionary  = "!dictionary"
)

// Parse decodes the first document in data. An empty document is Null.
func Parse(data []byte) (amf.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(amf.ErrDecoding, err.Error())
	}
	if doc.Kind == 0 {
		return amf.Null{}, nil
	}
	return FromNode(&doc)
}

// Marshal encodes v as a YAML document.
func Marshal(v amf.Value) ([]byte, error) {
	n, err := ToNode(v)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(n)
}

// FromNode converts a YAML node. Anchored nodes keep their identity, so aliases decode to the same container.
func FromNode(n *yaml.Node) (amf.Value, error) {
	c := converter{seen: make(map[*yaml.Node]amf.Value)}
	return c.value(n)
}

type converter struct {
	seen map[*yaml.Node]amf.Value
}

func (c *converter) value(n *yaml.Node) (amf.Value, error) {
	if v, ok := c.seen[n]; ok {
		return v, nil
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return amf.Null{}, nil
		}
		return c.value(n.Content[0])
	case yaml.AliasNode:
		return c.value(n.Alias)
	case yaml.ScalarNode:
		return scalar(n)
	case yaml.SequenceNode:
		arr := &amf.Array{}
		c.seen[n] = arr
		for _, item := range n.Content {
			v, err := c.value(item)
			if err != nil {
				return nil, err
			}
			arr.Items = append(arr.Items, v)
		}
		return arr, nil
	case yaml.MappingNode:
		return c.mapping(n)
	}
	return nil, errors.Wrapf(amf.ErrDecoding, "line %d: unknown node kind %d", n.Line, n.Kind)
}

func (c *converter) mapping(n *yaml.Node) (amf.Value, error) {
	tag := n.ShortTag()
	if tag == TagDictionary {
		dict := &amf.Dictionary{}
		c.seen[n] = dict
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, err := c.value(n.Content[i])
			if err != nil {
				return nil, err
			}
			v, err := c.value(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			dict.Entries = append(dict.Entries, amf.Entry{Key: key, Value: v})
		}
		return dict, nil
	}

	var set func(key string, v amf.Value)
	var result amf.Value
	switch {
	case tag == TagECMA:
		arr := &amf.Array{}
		set = func(key string, v amf.Value) {
			if key == strconv.Itoa(len(arr.Items)) && len(arr.Assoc) == 0 {
				arr.Items = append(arr.Items, v)
				return
			}
			arr.Assoc = append(arr.Assoc, amf.Member{Key: key, Value: v})
		}
		result = arr
	case tag == "!!map":
		obj := amf.NewObject()
		set = func(key string, v amf.Value) { obj.Members = append(obj.Members, amf.Member{Key: key, Value: v}) }
		result = obj
	case strings.HasPrefix(tag, "!") && !strings.HasPrefix(tag, "!!"):
		obj := amf.NewTypedObject(tag[1:])
		set = func(key string, v amf.Value) { obj.Members = append(obj.Members, amf.Member{Key: key, Value: v}) }
		result = obj
	default:
		return nil, errors.Wrapf(amf.ErrDecoding, "line %d: mapping tagged %s", n.Line, tag)
	}
	c.seen[n] = result

	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i]
		if k.Kind != yaml.ScalarNode {
			return nil, errors.Wrapf(amf.ErrDecoding, "line %d: object keys must be scalars", k.Line)
		}
		v, err := c.value(n.Content[i+1])
		if err != nil {
			return nil, err
		}
		set(k.Value, v)
	}
	return result, nil
}

func scalar(n *yaml.Node) (amf.Value, error) {
	switch tag := n.ShortTag(); tag {
	case "!!null":
		return amf.Null{}, nil
	case TagUndefined:
		return amf.Undefined{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, errors.Wrap(amf.ErrDecoding, err.Error())
		}
		return amf.Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			var f float64
			if err := n.Decode(&f); err != nil {
				return nil, errors.Wrap(amf.ErrDecoding, err.Error())
			}
			return amf.Double(f), nil
		}
		if i < amf3.MinInt || i > amf3.MaxInt {
			return amf.Double(i), nil
		}
		return amf.Int(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, errors.Wrap(amf.ErrDecoding, err.Error())
		}
		return amf.Double(f), nil
	case "!!str":
		return amf.String(n.Value), nil
	case "!!binary":
		b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(n.Value), ""))
		if err != nil {
			return nil, errors.Wrapf(amf.ErrDecoding, "line %d: %v", n.Line, err)
		}
		return amf.ByteArray(b), nil
	case "!!timestamp":
		var t time.Time
		if err := n.Decode(&t); err != nil {
			return nil, errors.Wrap(amf.ErrDecoding, err.Error())
		}
		return amf.DateOf(t), nil
	case TagXML:
		return amf.XMLDocument{Data: n.Value}, nil
	case TagXMLDocument:
		return amf.XMLDocument{Data: n.Value, Legacy: true}, nil
	default:
		return nil, errors.Wrapf(amf.ErrDecoding, "line %d: scalar tagged %s", n.Line, tag)
	}
}

// ToNode converts v to a YAML node. Shared containers are written once per occurrence.
func ToNode(v amf.Value) (*yaml.Node, error) {
	b := builder{active: make(map[amf.Value]bool)}
	return b.node(v)
}

type builder struct {
	active map[amf.Value]bool
}

func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func (b *builder) node(v amf.Value) (*yaml.Node, error) {
	switch v := v.(type) {
	case nil, amf.Null:
		return scalarNode("!!null", "null"), nil
	case amf.Undefined:
		return scalarNode(TagUndefined, ""), nil
	case amf.Bool:
		return scalarNode("!!bool", strconv.FormatBool(bool(v))), nil
	case amf.Int:
		return scalarNode("!!int", strconv.FormatInt(int64(v), 10)), nil
	case amf.Double:
		return scalarNode("!!float", formatFloat(float64(v))), nil
	case amf.String:
		return scalarNode("!!str", string(v)), nil
	case amf.Date:
		return scalarNode("!!timestamp", v.Time().Format(time.RFC3339Nano)), nil
	case amf.XMLDocument:
		if v.Legacy {
			return scalarNode(TagXMLDocument, v.Data), nil
		}
		return scalarNode(TagXML, v.Data), nil
	case amf.ByteArray:
		return scalarNode("!!binary", base64.StdEncoding.EncodeToString(v)), nil
	case *amf.Array:
		return b.container(v, func() (*yaml.Node, error) { return b.array(v) })
	case *amf.Object:
		tag := "!!map"
		if v.ClassName() != "" {
			tag = "!" + v.ClassName()
		}
		return b.container(v, func() (*yaml.Node, error) { return b.members(tag, v.Members) })
	case *amf.Instance:
		lister, ok := v.Class.(amf.MemberLister)
		if !ok {
			return nil, errors.Wrapf(amf.ErrEncodingType, "class %q does not list its members", v.ClassName)
		}
		return b.container(v, func() (*yaml.Node, error) { return b.members("!"+v.ClassName, lister.Members()) })
	case *amf.Dictionary:
		return b.container(v, func() (*yaml.Node, error) { return b.dictionary(v) })
	}
	return nil, errors.Wrapf(amf.ErrEncodingType, "cannot convert %T", v)
}

func (b *builder) container(v amf.Value, build func() (*yaml.Node, error)) (*yaml.Node, error) {
	if b.active[v] {
		return nil, errors.Wrapf(amf.ErrUnsupportedFeature, "cyclic %s", v.Kind())
	}
	b.active[v] = true
	defer delete(b.active, v)
	return build()
}

func (b *builder) array(a *amf.Array) (*yaml.Node, error) {
	if len(a.Assoc) == 0 {
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range a.Items {
			c, err := b.node(item)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, c)
		}
		return n, nil
	}

	members := make([]amf.Member, 0, len(a.Items)+len(a.Assoc))
	for i, item := range a.Items {
		members = append(members, amf.Member{Key: strconv.Itoa(i), Value: item})
	}
	return b.members(TagECMA, append(members, a.Assoc...))
}

func (b *builder) members(tag string, members []amf.Member) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: tag}
	for _, m := range members {
		v, err := b.node(m.Value)
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, scalarNode("!!str", m.Key), v)
	}
	return n, nil
}

func (b *builder) dictionary(d *amf.Dictionary) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: TagDictionary}
	for _, e := range d.Entries {
		k, err := b.node(e.Key)
		if err != nil {
			return nil, err
		}
		v, err := b.node(e.Value)
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, k, v)
	}
	return n, nil
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
