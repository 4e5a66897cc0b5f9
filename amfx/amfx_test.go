package amfx

import (
	"math"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/torresjeff/amf"
)

func TestRoundTrip(t *testing.T) {
	roundTripTests := []struct {
		name string
		in   amf.Value
	}{
		{"null", amf.Null{}},
		{"undefined", amf.Undefined{}},
		{"true", amf.Bool(true)},
		{"false", amf.Bool(false)},
		{"int", amf.Int(-42)},
		{"double", amf.Double(3.25)},
		{"negativeZero", amf.Double(math.Copysign(0, -1))},
		{"nan", amf.Double(math.NaN())},
		{"infinity", amf.Double(math.Inf(-1))},
		{"emptyString", amf.String("")},
		{"spacedString", amf.String("  a b  ")},
		{"escapedString", amf.String(`<a href="x">&</a>`)},
		{"date", amf.Date(1234567890123)},
		{"xml", amf.XMLDocument{Data: "<a><b/></a>"}},
		{"byteArray", amf.ByteArray{0x00, 0xAB, 0xFF}},
		{"emptyByteArray", amf.ByteArray{}},
		{"array", amf.NewArray(amf.Int(1), amf.String("a"), amf.Null{})},
		{"ecmaArray", &amf.Array{
			Items: []amf.Value{amf.Int(1)},
			Assoc: []amf.Member{{Key: "k", Value: amf.String("v")}},
		}},
		{"emptyObject", amf.NewObject()},
		{"typedObject", amf.NewTypedObject("com.example.Point",
			amf.Member{Key: "x", Value: amf.Int(1)},
			amf.Member{Key: "y", Value: amf.Double(2.5)},
		)},
		{"dictionary", &amf.Dictionary{Entries: []amf.Entry{
			{Key: amf.String("a"), Value: amf.Int(1)},
			{Key: amf.Int(2), Value: amf.NewArray()},
		}}},
	}

	for _, tt := range roundTripTests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := NewEncoder().EncodeValue(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			var dec Decoder
			got, err := dec.ReadValue(text)
			if err != nil {
				t.Fatalf("%v: %v", text, err)
			}
			if !amf.Equal(got, tt.in) {
				t.Errorf("got %#v, want %#v", got, tt.in)
			}
		})
	}
}

func TestEncoder(t *testing.T) {
	encoderTests := []struct {
		name  string
		write func(e *Encoder)
		want  string
	}{
		{"undefined", func(e *Encoder) { e.WriteUndefined() }, "<undefined/>"},
		{"emptyString", func(e *Encoder) { e.WriteString("") }, "<string/>"},
		{"escape", func(e *Encoder) { e.WriteString(`a<b&"c`) }, "<string>a&lt;b&amp;&#34;c</string>"},
		{"integralNumber", func(e *Encoder) { e.WriteNumber(7) }, "<int>7</int>"},
		{"largeNumber", func(e *Encoder) { e.WriteNumber(1 << 28) }, "<double>2.68435456e+08</double>"},
		{"fraction", func(e *Encoder) { e.WriteNumber(0.5) }, "<double>0.5</double>"},
		{"infinity", func(e *Encoder) { e.WriteDouble(math.Inf(1)) }, "<double>Infinity</double>"},
		{"date", func(e *Encoder) { e.WriteDate(time.Unix(1, 0)) }, "<date>1000</date>"},
		{"cdataSplit", func(e *Encoder) { e.WriteXML("a]]>b") }, "<xml><![CDATA[a]]]]><![CDATA[>b]]></xml>"},
		{"byteArray", func(e *Encoder) { e.WriteByteArray([]byte{0x0a, 0xbc}) }, "<bytearray>0ABC</bytearray>"},
		{"emptyByteArray", func(e *Encoder) { e.WriteByteArray(nil) }, "<bytearray/>"},
		{"ecmaArray", func(e *Encoder) {
			_ = e.WriteArray(&amf.Array{Items: []amf.Value{amf.Bool(true)}, Assoc: []amf.Member{{Key: "a&b", Value: amf.Null{}}}})
		}, `<array length="1" ecma="true"><true/><item name="a&amp;b"><null/></item></array>`},
		{"object", func(e *Encoder) {
			_ = e.WriteGenericObject(amf.NewTypedObject("A", amf.Member{Key: "n", Value: amf.Int(1)}))
		}, `<object type="A"><traits><string>n</string></traits><int>1</int></object>`},
		{"anonymousObject", func(e *Encoder) { _ = e.WriteGenericObject(amf.NewObject()) }, "<object><traits/></object>"},
		{"dictionary", func(e *Encoder) {
			_ = e.WriteDictionary(&amf.Dictionary{Entries: []amf.Entry{{Key: amf.Int(1), Value: amf.String("x")}}})
		}, `<dictionary length="1"><int>1</int><string>x</string></dictionary>`},
		{"nativeObject", func(e *Encoder) { _ = e.WriteObject(map[string]interface{}{"b": true}) },
			"<object><traits><string>b</string></traits><true/></object>"},
		{"droppedObject", func(e *Encoder) { _ = e.WriteObject(make(chan int)) }, ""},
	}

	for _, tt := range encoderTests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEncoder()
			tt.write(e)
			if got := e.Body(); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEncoderErrors(t *testing.T) {
	cyclic := amf.NewArray()
	cyclic.Items = append(cyclic.Items, cyclic)

	e := NewEncoder()
	e.WriteNull()
	if err := e.WriteValue(cyclic); !errors.Is(err, amf.ErrUnsupportedFeature) {
		t.Errorf("got %v, want %v", err, amf.ErrUnsupportedFeature)
	}
	if err := e.WriteValue(&amf.Instance{ClassName: "A", Class: silent{}}); !errors.Is(err, amf.ErrEncodingType) {
		t.Errorf("got %v, want %v", err, amf.ErrEncodingType)
	}
	if got := e.Body(); got != "<null/>" {
		t.Errorf("got %v, want %v", got, "<null/>")
	}

	shared := amf.NewObject()
	if err := e.WriteValue(amf.NewArray(shared, shared)); err != nil {
		t.Errorf("got %v, want %v", err, nil)
	}
}

// silent is a class that cannot list its members.
type silent struct{}

func (silent) SetMember(string, amf.Value) error { return nil }

func TestPacket(t *testing.T) {
	v := amf.NewArray(amf.String("x"))
	e := NewEncoder()
	if err := e.WriteAmfxPacket("Echo.echo", "/1", v); err != nil {
		t.Fatal(err)
	}
	want := `<amfx ver="3" xmlns="http://www.macromedia.com/2005/amfx"><body targetURI="Echo.echo" responseURI="/1">` +
		`<array length="1"><string>x</string></array></body></amfx>`
	if got := e.Body(); got != want {
		t.Errorf("got %v, want %v", got, want)
	}

	resp, err := ReadAmfxMessage(e.Body())
	if err != nil {
		t.Fatal(err)
	}
	if resp.TargetURI != "Echo.echo" || resp.ResponseURI != "/1" {
		t.Errorf("got %v %v, want %v %v", resp.TargetURI, resp.ResponseURI, "Echo.echo", "/1")
	}
	if !amf.Equal(resp.Message, v) {
		t.Errorf("got %#v, want %#v", resp.Message, v)
	}
}

func TestReadAmfxMessageEmptyBody(t *testing.T) {
	resp, err := ReadAmfxMessage("<amfx ver=\"3\" xmlns=\"" + Namespace + "\">\n  <body/>\n</amfx>")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Message != (amf.Undefined{}) {
		t.Errorf("got %v, want %v", resp.Message, amf.Undefined{})
	}
}

func TestReferences(t *testing.T) {
	t.Run("object", func(t *testing.T) {
		got, err := new(Decoder).ReadValue(`<array length="1"><object><traits><string>self</string></traits><ref id="0"/></object></array>`)
		if err != nil {
			t.Fatal(err)
		}
		arr := got.(*amf.Array)
		self, _ := arr.Items[0].(*amf.Object).Get("self")
		if self != arr {
			t.Errorf("got %v, want %v", self, arr)
		}
	})

	t.Run("string", func(t *testing.T) {
		d := new(Decoder).state()
		var n node
		if err := parse(`<array length="3"><string>x</string><string id="0"/><string/></array>`, &n); err != nil {
			t.Fatal(err)
		}
		got, err := d.value(&n)
		if err != nil {
			t.Fatal(err)
		}
		want := amf.NewArray(amf.String("x"), amf.String("x"), amf.String(""))
		if !amf.Equal(got, want) {
			t.Errorf("got %#v, want %#v", got, want)
		}
		if len(d.strings) != 2 {
			t.Errorf("got %v strings, want %v", len(d.strings), 2)
		}
	})

	t.Run("traits", func(t *testing.T) {
		got, err := new(Decoder).ReadValue(`<array length="2">` +
			`<object type="A"><traits><string>n</string></traits><int>1</int></object>` +
			`<object type="A"><traits id="0"/><int>2</int></object></array>`)
		if err != nil {
			t.Fatal(err)
		}
		want := amf.NewArray(
			amf.NewTypedObject("A", amf.Member{Key: "n", Value: amf.Int(1)}),
			amf.NewTypedObject("A", amf.Member{Key: "n", Value: amf.Int(2)}),
		)
		if !amf.Equal(got, want) {
			t.Errorf("got %#v, want %#v", got, want)
		}
	})

	t.Run("date", func(t *testing.T) {
		got, err := new(Decoder).ReadValue(`<array length="2"><date>5</date><ref id="1"/></array>`)
		if err != nil {
			t.Fatal(err)
		}
		want := amf.NewArray(amf.Date(5), amf.Date(5))
		if !amf.Equal(got, want) {
			t.Errorf("got %#v, want %#v", got, want)
		}
	})
}

func TestRegistry(t *testing.T) {
	dec := Decoder{Registry: amf.NewRegistry().Register("com.example.Rec", amf.NewRecord)}
	got, err := dec.ReadValue(`<object type="com.example.Rec"><traits><string>a</string></traits><string>b</string></object>`)
	if err != nil {
		t.Fatal(err)
	}
	inst, ok := got.(*amf.Instance)
	if !ok {
		t.Fatalf("got %T, want %T", got, inst)
	}
	members := inst.Class.(amf.MemberLister).Members()
	if len(members) != 1 || members[0].Key != "a" || members[0].Value != amf.String("b") {
		t.Errorf("got %v, want a=b", members)
	}

	text, err := NewEncoder().EncodeValue(inst)
	if err != nil {
		t.Fatal(err)
	}
	if want := `<object type="com.example.Rec"><traits><string>a</string></traits><string>b</string></object>`; text != want {
		t.Errorf("got %v, want %v", text, want)
	}
}

func TestLegacyXMLDocument(t *testing.T) {
	text, err := NewEncoder().EncodeValue(amf.XMLDocument{Data: "<a/>", Legacy: true})
	if err != nil {
		t.Fatal(err)
	}
	got, err := new(Decoder).ReadValue(text)
	if err != nil {
		t.Fatal(err)
	}
	if want := (amf.XMLDocument{Data: "<a/>"}); !amf.Equal(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestCollection(t *testing.T) {
	source := amf.NewArray(amf.Int(1), amf.String("a"))
	b, err := amf.Encode(source, amf.Version3)
	if err != nil {
		t.Fatal(err)
	}
	payload, err := NewEncoder().EncodeValue(amf.ByteArray(b))
	if err != nil {
		t.Fatal(err)
	}

	for _, className := range []string{ArrayCollection, ArrayList, MXArrayCollection} {
		t.Run(className, func(t *testing.T) {
			text := `<array length="2"><object type="` + className + `"><traits externalizable="true"/>` + payload +
				`</object><ref id="1"/></array>`
			got, err := new(Decoder).ReadValue(text)
			if err != nil {
				t.Fatal(err)
			}
			want := amf.NewArray(source, source)
			if !amf.Equal(got, want) {
				t.Errorf("got %#v, want %#v", got, want)
			}
		})
	}

	t.Run("registeredCollection", func(t *testing.T) {
		dec := Decoder{Registry: amf.NewRegistry().RegisterCollection("com.example.List")}
		got, err := dec.ReadValue(`<object type="com.example.List"><traits externalizable="true"/>` + payload + `</object>`)
		if err != nil {
			t.Fatal(err)
		}
		if !amf.Equal(got, source) {
			t.Errorf("got %#v, want %#v", got, source)
		}
	})

	t.Run("unregisteredCollection", func(t *testing.T) {
		dec := Decoder{Registry: new(amf.Registry)}
		_, err := dec.ReadValue(`<object type="` + ArrayList + `"><traits externalizable="true"/>` + payload + `</object>`)
		if !errors.Is(err, amf.ErrExternalizable) {
			t.Errorf("got %v, want %v", err, amf.ErrExternalizable)
		}
	})

	t.Run("customDecoder", func(t *testing.T) {
		dec := Decoder{ValueDecoder: func(b []byte) (amf.Value, error) { return amf.Int(len(b)), nil }}
		got, err := dec.ReadValue(`<object type="` + ArrayList + `"><traits externalizable="true"/><bytearray>0102</bytearray></object>`)
		if err != nil {
			t.Fatal(err)
		}
		if got != amf.Int(2) {
			t.Errorf("got %v, want %v", got, amf.Int(2))
		}
	})
}

func TestDecoderErrors(t *testing.T) {
	decoderErrorTests := []struct {
		name string
		in   string
		want error
	}{
		{"unknownElement", "<vector/>", amf.ErrDecoding},
		{"badInt", "<int>x</int>", amf.ErrDecoding},
		{"intOverflow", "<int>4294967296</int>", amf.ErrDecoding},
		{"badHex", "<bytearray>0G</bytearray>", amf.ErrDecoding},
		{"tooManyItems", `<array length="1"><null/><null/></array>`, amf.ErrDecoding},
		{"tooFewItems", `<array length="2"><null/></array>`, amf.ErrDecoding},
		{"missingLength", `<array><null/></array>`, amf.ErrDecoding},
		{"emptyItem", `<array length="0"><item name="a"/></array>`, amf.ErrDecoding},
		{"dictionaryLength", `<dictionary length="2"><int>1</int><null/></dictionary>`, amf.ErrDecoding},
		{"dictionaryOdd", `<dictionary length="1"><int>1</int></dictionary>`, amf.ErrDecoding},
		{"tooManyValues", `<object><traits><string>a</string></traits><null/><null/></object>`, amf.ErrDecoding},
		{"tooFewValues", `<object><traits><string>a</string></traits></object>`, amf.ErrDecoding},
		{"missingTraits", `<object><null/></object>`, amf.ErrDecoding},
		{"badRef", `<ref id="0"/>`, amf.ErrDecoding},
		{"badStringRef", `<string id="3"/>`, amf.ErrDecoding},
		{"badTraitsRef", `<object><traits id="0"/></object>`, amf.ErrDecoding},
		{"externalizable", `<object type="A"><traits externalizable="true"/></object>`, amf.ErrUnsupportedFeature},
		{"collectionWithoutBytes", `<object type="` + ArrayCollection + `"><traits/></object>`, amf.ErrDecoding},
		{"malformed", "<array", amf.ErrDecoding},
	}

	for _, tt := range decoderErrorTests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := new(Decoder).ReadValue(tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, %v, want %v", got, err, tt.want)
			}
		})
	}

	messageErrorTests := []struct {
		name string
		in   string
	}{
		{"version", `<amfx ver="2"><body><null/></body></amfx>`},
		{"root", `<body><null/></body>`},
		{"noBody", `<amfx ver="3"/>`},
	}
	for _, tt := range messageErrorTests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadAmfxMessage(tt.in); !errors.Is(err, amf.ErrDecoding) {
				t.Errorf("got %v, want %v", err, amf.ErrDecoding)
			}
		})
	}
}

func TestFlexUID(t *testing.T) {
	defer func(f func() time.Time) { now = f }(now)
	now = func() time.Time { return time.Unix(0, 0x112345678*int64(time.Millisecond)) }

	uid, err := GenerateFlexUID(42)
	if err != nil {
		t.Fatal(err)
	}
	pattern := regexp.MustCompile(`^0000002A-[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{4}-12345678[0-9A-F]{4}$`)
	if !pattern.MatchString(uid) {
		t.Errorf("got %v, want a match for %v", uid, pattern)
	}
	tid, err := DecodeTidFromFlexUID(uid)
	if err != nil {
		t.Fatal(err)
	}
	if tid != 42 {
		t.Errorf("got %v, want %v", tid, 42)
	}

	if _, err := NewFlexUID(); err != nil {
		t.Errorf("got %v, want %v", err, nil)
	}
	if _, err := DecodeTidFromFlexUID("XYZ"); !errors.Is(err, amf.ErrDecoding) {
		t.Errorf("got %v, want %v", err, amf.ErrDecoding)
	}
}

func TestRemotingMessage(t *testing.T) {
	m, err := NewRemotingMessage(7, "EchoService", "echo", amf.String("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if m.ClientID != strings.ToUpper(m.ClientID) {
		t.Errorf("got %v, want upper case", m.ClientID)
	}

	text, err := EncodeMessage(m)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := ReadAmfxMessage(text)
	if err != nil {
		t.Fatal(err)
	}
	if !amf.Equal(resp.Message, m.Value()) {
		t.Errorf("got %#v, want %#v", resp.Message, m.Value())
	}

	obj := resp.Message.(*amf.Object)
	if obj.ClassName() != RemotingMessageClass {
		t.Errorf("got %v, want %v", obj.ClassName(), RemotingMessageClass)
	}
	id, _ := obj.Get("messageId")
	tid, err := DecodeTidFromFlexUID(string(id.(amf.String)))
	if err != nil {
		t.Fatal(err)
	}
	if tid != 7 {
		t.Errorf("got %v, want %v", tid, 7)
	}
}
