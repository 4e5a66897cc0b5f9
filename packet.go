package amf

import (
	"github.com/pkg/errors"
	"github.com/torresjeff/amf/amf0"
	"go.uber.org/zap"
)

// Header is one packet header.
type Header struct {
	Name           string
	MustUnderstand bool
	// ByteLength is the declared length of the encoded value, amf0.UnknownLength when not given.
	ByteLength uint32
	Value      Value
}

// Message is one packet message.
type Message struct {
	TargetURI   string
	ResponseURI string
	ByteLength  uint32
	Body        Value
}

// Packet is a decoded AMF packet envelope.
type Packet struct {
	Version  uint16
	Headers  []Header
	Messages []Message
}

// Decoder parses AMF packets and values. The zero value decodes typed objects through
// a default registry and logs nothing. A Decoder holds no per-call state and may be shared.
type Decoder struct {
	Registry *Registry
	Logger   *zap.Logger
}

var defaultRegistry = NewRegistry()

func (dec *Decoder) state(b []byte, version uint8) *decodeState {
	d := &decodeState{
		r:        newReader(b),
		registry: defaultRegistry,
		logger:   zap.NewNop(),
	}
	if dec != nil && dec.Registry != nil {
		d.registry = dec.Registry
	}
	if dec != nil && dec.Logger != nil {
		d.logger = dec.Logger
	}
	d.reset(version)
	return d
}

// DecodePacket parses a packet envelope. Reference tables and the value version are reset
// before every header and every message.
func (dec *Decoder) DecodePacket(b []byte) (*Packet, error) {
	d := dec.state(b, Version0)
	version, err := d.r.Uint(2)
	if err != nil {
		return nil, err
	}
	if version != uint32(Version0) && version != uint32(Version3) {
		return nil, errors.Wrapf(ErrDecoding, "unknown packet version %d", version)
	}
	p := &Packet{Version: uint16(version)}

	count, err := d.r.Uint(2)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < count; i++ {
		d.reset(uint8(version))
		h, err := d.header()
		if err != nil {
			return nil, errors.WithMessagef(err, "header %d", i)
		}
		p.Headers = append(p.Headers, h)
	}

	count, err = d.r.Uint(2)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < count; i++ {
		d.reset(uint8(version))
		m, err := d.message()
		if err != nil {
			return nil, errors.WithMessagef(err, "message %d", i)
		}
		p.Messages = append(p.Messages, m)
	}

	if d.r.Len() > 0 {
		d.logger.Debug("trailing bytes after packet", zap.Int("count", d.r.Len()))
	}
	return p, nil
}

// DecodeValue decodes one AMF3 value.
func (dec *Decoder) DecodeValue(b []byte) (Value, error) {
	return dec.DecodeVersion(b, Version3)
}

// DecodeVersion decodes one value of the given version, Version0 or Version3.
// An AMF0 value may switch to AMF3 with the AVM+ marker.
func (dec *Decoder) DecodeVersion(b []byte, version uint8) (Value, error) {
	if version != Version0 && version != Version3 {
		return nil, errors.Wrapf(ErrFormatMisuse, "unknown format %d", version)
	}
	v, err := dec.state(b, version).value()
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (d *decodeState) header() (Header, error) {
	var h Header
	var err error
	if h.Name, err = d.shortString0(); err != nil {
		return h, err
	}
	mustUnderstand, err := d.r.ReadByte()
	if err != nil {
		return h, err
	}
	h.MustUnderstand = mustUnderstand != 0
	if h.ByteLength, err = d.r.Uint(4); err != nil {
		return h, err
	}
	h.Value, err = d.sized(h.ByteLength)
	return h, err
}

func (d *decodeState) message() (Message, error) {
	var m Message
	var err error
	if m.TargetURI, err = d.shortString0(); err != nil {
		return m, err
	}
	if m.ResponseURI, err = d.shortString0(); err != nil {
		return m, err
	}
	if m.ByteLength, err = d.r.Uint(4); err != nil {
		return m, err
	}
	m.Body, err = d.sized(m.ByteLength)
	return m, err
}

// sized decodes one value and checks it against its declared byte length.
func (d *decodeState) sized(length uint32) (Value, error) {
	start := d.r.ReadBytes()
	v, err := d.value()
	if err != nil {
		return nil, err
	}
	if consumed := d.r.ReadBytes() - start; length != amf0.UnknownLength && uint64(consumed) != uint64(length) {
		return nil, errors.Wrapf(ErrDecoding, "declared length %d, value used %d bytes", length, consumed)
	}
	return v, nil
}

// decodeState is the state of one decode call.
type decodeState struct {
	r        *reader
	registry *Registry
	logger   *zap.Logger

	// version of the values being read; the AVM+ marker switches it to Version3
	version uint8
	// AMF0 object reference table
	complex0 []Value
	// AMF3 reference tables
	strings []string
	objects []Value
	traits  []*Traits
}

// reset starts a new unit.
func (d *decodeState) reset(version uint8) {
	d.version = version
	d.complex0 = d.complex0[:0]
	d.strings = d.strings[:0]
	d.objects = d.objects[:0]
	d.traits = d.traits[:0]
}

func (d *decodeState) value() (Value, error) {
	if d.version == Version3 {
		return d.value3()
	}
	return d.value0()
}

// convert passes a typed object with no registered class through the converter
// for its class name, if any.
func (d *decodeState) convert(obj *Object) Value {
	conv, ok := d.registry.Converter(obj.ClassName())
	if !ok {
		return obj
	}
	d.logger.Debug("converting typed object", zap.String("class", obj.ClassName()))
	return conv(obj)
}
