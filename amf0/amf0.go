// Package amf0 holds the AMF0 wire markers and format limits.
package amf0

const (
	TypeNumber      byte = 0x00
	TypeBoolean     byte = 0x01
	TypeString      byte = 0x02
	TypeObject      byte = 0x03
	TypeMovieClip   byte = 0x04 // reserved, not supported
	TypeNull        byte = 0x05
	TypeUndefined   byte = 0x06
	TypeReference   byte = 0x07
	TypeECMAArray   byte = 0x08
	TypeObjectEnd   byte = 0x09
	TypeStrictArray byte = 0x0A
	TypeDate        byte = 0x0B
	TypeLongString  byte = 0x0C
	TypeUnsupported byte = 0x0D
	TypeRecordSet   byte = 0x0E // reserved, not supported
	TypeXMLDocument byte = 0x0F
	TypeTypedObject byte = 0x10
	// TypeAVMPlus switches the rest of the unit to AMF3.
	TypeAVMPlus byte = 0x11
)

const (
	// MaxShortString is the longest string written with TypeString; longer ones use TypeLongString.
	MaxShortString = 0xFFFF
	// MaxLongString is the longest string or array count the 4 byte length prefix can carry.
	MaxLongString = 0xFFFFFFFF
	// UnknownLength is the byte length written for packet headers and messages.
	UnknownLength uint32 = 0xFFFFFFFF
)

// ObjectEnd terminates anonymous objects, typed objects and ECMA arrays: an empty key followed by TypeObjectEnd.
var ObjectEnd = []byte{0x00, 0x00, TypeObjectEnd}
