// Package amf encodes and decodes the Action Message Format: AMF0 and AMF3 values
// and the AMF0 packet envelope of headers and messages.
package amf

const (
	Version0 uint8 = 0
	Version3 uint8 = 3
)

// Encode returns v encoded in the given version.
func Encode(v Value, version uint8) ([]byte, error) {
	e, err := NewEncoder(version)
	if err != nil {
		return nil, err
	}
	if err := e.WriteValue(v); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// Decode decodes one value of the given version with the default registry.
func Decode(b []byte, version uint8) (Value, error) {
	var d Decoder
	return d.DecodeVersion(b, version)
}

// DecodePacket decodes a packet envelope with the default registry.
func DecodePacket(b []byte) (*Packet, error) {
	var d Decoder
	return d.DecodePacket(b)
}

// DecodeValue decodes one AMF3 value with the default registry.
func DecodeValue(b []byte) (Value, error) {
	var d Decoder
	return d.DecodeValue(b)
}
