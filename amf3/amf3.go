// Package amf3 holds the AMF3 wire markers, header flags and format limits.
package amf3

// MaxInt and MinInt bound the integers written with TypeInteger; anything else is a double.
const MaxInt int64 = 268435455
const MinInt int64 = -268435456

// UTF8Empty is the encoded empty string, used as the class name of anonymous objects
// and as the terminator of associative and dynamic member runs.
const UTF8Empty byte = 0x01

// MaxLength is the largest string, array or byte array length an instance header can carry.
const MaxLength = 0x0FFFFFFF

const (
	TypeUndefined    byte = 0x00
	TypeNull         byte = 0x01
	TypeFalse        byte = 0x02
	TypeTrue         byte = 0x03
	TypeInteger      byte = 0x04
	TypeDouble       byte = 0x05
	TypeString       byte = 0x06
	TypeXMLDoc       byte = 0x07
	TypeDate         byte = 0x08
	TypeArray        byte = 0x09
	TypeObject       byte = 0x0A
	TypeXML          byte = 0x0B
	TypeByteArray    byte = 0x0C
	TypeVectorInt    byte = 0x0D
	TypeVectorUint   byte = 0x0E
	TypeVectorDouble byte = 0x0F
	TypeVectorObject byte = 0x10
	TypeDictionary   byte = 0x11
)

// Instance header flags. The low bit of every reference-capable header tells
// an inline value (1) from a table reference (0).
const (
	FlagInline uint32 = 0x01
	// FlagInlineTraits is set, together with FlagInline, when trait data follows the header.
	FlagInlineTraits uint32 = 0x02
	// FlagExternalizable marks objects that serialize themselves.
	FlagExternalizable uint32 = 0x04
	// FlagDynamic marks objects carrying dynamic members after the sealed ones.
	FlagDynamic uint32 = 0x08

	// AnonymousObject is the header of an object with inline traits, no sealed members and dynamic members.
	AnonymousObject byte = 0x0B
)

// InlineHeader returns the header of an inline value of the given length.
func InlineHeader(length uint32) uint32 {
	return length<<1 | FlagInline
}
