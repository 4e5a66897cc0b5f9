package amfx

import (
	"encoding/hex"
	"encoding/xml"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/torresjeff/amf"
	"github.com/torresjeff/amf/amf3"
	"go.uber.org/zap"
)

// Encoder builds an AMFX body. Every value is written inline; the encoder never emits references.
// A failed write leaves the body unchanged.
type Encoder struct {
	Logger *zap.Logger

	body strings.Builder
	// containers currently being written, used to reject cycles
	active map[amf.Value]bool
}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// Body returns the text written so far.
func (e *Encoder) Body() string {
	return e.body.String()
}

func (e *Encoder) Reset() {
	e.body.Reset()
}

func (e *Encoder) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e *Encoder) WriteUndefined() {
	e.body.WriteString("<undefined/>")
}

func (e *Encoder) WriteNull() {
	e.body.WriteString("<null/>")
}

func (e *Encoder) WriteBoolean(b bool) {
	e.body.WriteString(encodeBoolean(b))
}

// WriteNumber writes f as an int when it is integral and within the AMF3 integer range,
// as a double otherwise.
func (e *Encoder) WriteNumber(f float64) {
	e.body.WriteString(encodeNumber(f))
}

func (e *Encoder) WriteInt(n int64) {
	e.body.WriteString(encodeInt(n))
}

func (e *Encoder) WriteDouble(f float64) {
	e.body.WriteString(encodeDouble(f))
}

func (e *Encoder) WriteString(s string) {
	e.body.WriteString(encodeString(s))
}

func (e *Encoder) WriteDate(t time.Time) {
	e.body.WriteString(encodeDate(amf.DateOf(t)))
}

// WriteXML writes serialized XML text inside a CDATA section.
func (e *Encoder) WriteXML(data string) {
	e.body.WriteString(encodeXML(data))
}

// WriteByteArray writes b as upper case hex digit pairs.
func (e *Encoder) WriteByteArray(b []byte) {
	e.body.WriteString(encodeByteArray(b))
}

func (e *Encoder) WriteArray(a *amf.Array) error {
	return e.WriteValue(a)
}

func (e *Encoder) WriteGenericObject(o *amf.Object) error {
	return e.WriteValue(o)
}

func (e *Encoder) WriteDictionary(d *amf.Dictionary) error {
	return e.WriteValue(d)
}

// WriteValue writes v.
func (e *Encoder) WriteValue(v amf.Value) error {
	s, err := e.EncodeValue(v)
	if err != nil {
		return err
	}
	e.body.WriteString(s)
	return nil
}

// WriteObject classifies v with amf.ValueOf and writes the result. Values that cannot be
// classified are dropped with a warning.
func (e *Encoder) WriteObject(v interface{}) error {
	value, err := amf.ValueOf(v)
	if errors.Is(err, amf.ErrEncodingType) {
		e.logger().Warn("dropping value that cannot be encoded", zap.Stringer("type", reflect.TypeOf(v)), zap.Error(err))
		return nil
	}
	if err != nil {
		return err
	}
	return e.WriteValue(value)
}

// WriteAmfxPacket writes a complete AMFX document whose body holds v.
func (e *Encoder) WriteAmfxPacket(targetURI, responseURI string, v amf.Value) error {
	s, err := e.EncodeValue(v)
	if err != nil {
		return err
	}
	e.body.WriteString(`<amfx ver="` + Version + `" xmlns="` + Namespace + `">`)
	if targetURI == "" && responseURI == "" {
		e.body.WriteString("<body>")
	} else {
		e.body.WriteString(`<body targetURI="` + escape(targetURI) + `" responseURI="` + escape(responseURI) + `">`)
	}
	e.body.WriteString(s)
	e.body.WriteString("</body></amfx>")
	return nil
}

// WriteAmfxRemotingPacket writes a complete AMFX document carrying a remoting message.
func (e *Encoder) WriteAmfxRemotingPacket(message amf.Value) error {
	return e.WriteAmfxPacket("", "", message)
}

// EncodeMessage returns the AMFX document of a remoting message.
func EncodeMessage(message amf.Marshaler) (string, error) {
	v, err := message.MarshalAMF()
	if err != nil {
		return "", err
	}
	e := NewEncoder()
	if err := e.WriteAmfxRemotingPacket(v); err != nil {
		return "", err
	}
	return e.Body(), nil
}

// EncodeValue returns the AMFX element of v without writing it.
func (e *Encoder) EncodeValue(v amf.Value) (string, error) {
	var sb strings.Builder
	if err := e.value(&sb, v); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (e *Encoder) value(sb *strings.Builder, v amf.Value) error {
	switch v := v.(type) {
	case nil, amf.Null:
		sb.WriteString("<null/>")
	case amf.Undefined:
		sb.WriteString("<undefined/>")
	case amf.Bool:
		sb.WriteString(encodeBoolean(bool(v)))
	case amf.Int:
		sb.WriteString(encodeInt(int64(v)))
	case amf.Double:
		sb.WriteString(encodeDouble(float64(v)))
	case amf.String:
		sb.WriteString(encodeString(string(v)))
	case amf.Date:
		sb.WriteString(encodeDate(v))
	case amf.XMLDocument:
		sb.WriteString(encodeXML(v.Data))
	case amf.ByteArray:
		sb.WriteString(encodeByteArray(v))
	case *amf.Array:
		if v == nil {
			sb.WriteString("<null/>")
			return nil
		}
		return e.array(sb, v)
	case *amf.Object:
		if v == nil {
			sb.WriteString("<null/>")
			return nil
		}
		return e.object(sb, v, v.ClassName(), v.Members)
	case *amf.Instance:
		if v == nil {
			sb.WriteString("<null/>")
			return nil
		}
		lister, ok := v.Class.(amf.MemberLister)
		if !ok {
			return errors.Wrapf(amf.ErrEncodingType, "class %q does not list its members", v.ClassName)
		}
		return e.object(sb, v, v.ClassName, lister.Members())
	case *amf.Dictionary:
		if v == nil {
			sb.WriteString("<null/>")
			return nil
		}
		return e.dictionary(sb, v)
	default:
		return errors.Wrapf(amf.ErrEncodingType, "cannot encode %T", v)
	}
	return nil
}

func (e *Encoder) enter(v amf.Value) error {
	if e.active == nil {
		e.active = make(map[amf.Value]bool)
	}
	if e.active[v] {
		return errors.Wrapf(amf.ErrUnsupportedFeature, "cyclic %s", v.Kind())
	}
	e.active[v] = true
	return nil
}

func (e *Encoder) leave(v amf.Value) {
	delete(e.active, v)
}

// array writes the dense items, then the associative part as named items.
func (e *Encoder) array(sb *strings.Builder, a *amf.Array) error {
	if err := e.enter(a); err != nil {
		return err
	}
	defer e.leave(a)

	sb.WriteString(`<array length="` + strconv.Itoa(len(a.Items)) + `"`)
	if len(a.Assoc) > 0 {
		sb.WriteString(` ecma="true"`)
	}
	sb.WriteString(">")
	for _, item := range a.Items {
		if err := e.value(sb, item); err != nil {
			return err
		}
	}
	for _, m := range a.Assoc {
		sb.WriteString(`<item name="` + escape(m.Key) + `">`)
		if err := e.value(sb, m.Value); err != nil {
			return err
		}
		sb.WriteString("</item>")
	}
	sb.WriteString("</array>")
	return nil
}

// object lists every member name as a trait, then the values in the same order.
func (e *Encoder) object(sb *strings.Builder, key amf.Value, className string, members []amf.Member) error {
	if err := e.enter(key); err != nil {
		return err
	}
	defer e.leave(key)

	if className != "" {
		sb.WriteString(`<object type="` + escape(className) + `">`)
	} else {
		sb.WriteString("<object>")
	}
	if len(members) == 0 {
		sb.WriteString("<traits/>")
	} else {
		sb.WriteString("<traits>")
		for _, m := range members {
			sb.WriteString(encodeString(m.Key))
		}
		sb.WriteString("</traits>")
	}
	for _, m := range members {
		if err := e.value(sb, m.Value); err != nil {
			return err
		}
	}
	sb.WriteString("</object>")
	return nil
}

func (e *Encoder) dictionary(sb *strings.Builder, d *amf.Dictionary) error {
	if err := e.enter(d); err != nil {
		return err
	}
	defer e.leave(d)

	sb.WriteString(`<dictionary length="` + strconv.Itoa(len(d.Entries)) + `">`)
	for _, entry := range d.Entries {
		if err := e.value(sb, entry.Key); err != nil {
			return err
		}
		if err := e.value(sb, entry.Value); err != nil {
			return err
		}
	}
	sb.WriteString("</dictionary>")
	return nil
}

func encodeBoolean(b bool) string {
	if b {
		return "<true/>"
	}
	return "<false/>"
}

func encodeNumber(f float64) string {
	if f == math.Trunc(f) && f >= float64(amf3.MinInt) && f <= float64(amf3.MaxInt) && !(f == 0 && math.Signbit(f)) {
		return encodeInt(int64(f))
	}
	return encodeDouble(f)
}

func encodeInt(n int64) string {
	return "<int>" + strconv.FormatInt(n, 10) + "</int>"
}

func encodeDouble(f float64) string {
	return "<double>" + formatDouble(f) + "</double>"
}

func formatDouble(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func encodeString(s string) string {
	if s == "" {
		return "<string/>"
	}
	return "<string>" + escape(s) + "</string>"
}

// encodeDate writes milliseconds without an exponent.
func encodeDate(d amf.Date) string {
	f := float64(d)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "<date>" + formatDouble(f) + "</date>"
	}
	return "<date>" + strconv.FormatFloat(f, 'f', -1, 64) + "</date>"
}

// encodeXML wraps data in CDATA, splitting any "]]>" across two sections.
func encodeXML(data string) string {
	return "<xml><![CDATA[" + strings.Replace(data, "]]>", "]]]]><![CDATA[>", -1) + "]]></xml>"
}

func encodeByteArray(b []byte) string {
	if len(b) == 0 {
		return "<bytearray/>"
	}
	return "<bytearray>" + strings.ToUpper(hex.EncodeToString(b)) + "</bytearray>"
}

// escape returns s escaped for use in text and attribute values.
func escape(s string) string {
	var sb strings.Builder
	// strings.Builder never fails to write
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}
