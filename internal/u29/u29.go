// Package u29 implements the AMF3 29-bit variable-length unsigned integer.
//
//	0x00000000 - 0x0000007F : 0xxxxxxx
//	0x00000080 - 0x00003FFF : 1xxxxxxx 0xxxxxxx
//	0x00004000 - 0x001FFFFF : 1xxxxxxx 1xxxxxxx 0xxxxxxx
//	0x00200000 - 0x1FFFFFFF : 1xxxxxxx 1xxxxxxx 1xxxxxxx xxxxxxxx
package u29

import "github.com/pkg/errors"

// Max is the largest value a U29 can hold.
const Max uint32 = 0x1FFFFFFF

// continuation flag carried by every byte but the last
const more = 0x80

var ErrOutOfRange = errors.New("u29: value does not fit in 29 bits")
var ErrTruncated = errors.New("u29: unexpected end of input")

// Len returns the number of bytes n occupies once encoded. n must not exceed Max.
func Len(n uint32) int {
	switch {
	case n <= 0x7F:
		return 1
	case n <= 0x3FFF:
		return 2
	case n <= 0x1FFFFF:
		return 3
	default:
		return 4
	}
}

// Append appends the encoded form of n to dst.
func Append(dst []byte, n uint32) ([]byte, error) {
	if n > Max {
		return dst, errors.Wrapf(ErrOutOfRange, "%d", n)
	}
	switch Len(n) {
	case 1:
		return append(dst, byte(n)), nil
	case 2:
		return append(dst, byte(n>>7)|more, byte(n&0x7F)), nil
	case 3:
		return append(dst, byte(n>>14)|more, byte(n>>7)&0x7F|more, byte(n&0x7F)), nil
	default:
		// a 4 byte integer uses all 8 bits of the last byte
		return append(dst, byte(n>>22)&0x7F|more, byte(n>>15)&0x7F|more, byte(n>>8)&0x7F|more, byte(n)), nil
	}
}

// Encode returns the encoded form of n.
func Encode(n uint32) ([]byte, error) {
	return Append(make([]byte, 0, 4), n)
}

// Decode reads a U29 from the start of b and returns it with the number of bytes consumed.
func Decode(b []byte) (uint32, int, error) {
	var value uint32
	for i := 0; i < 3; i++ {
		if i >= len(b) {
			return 0, i, ErrTruncated
		}
		if b[i]&more == 0 {
			return value<<7 | uint32(b[i]), i + 1, nil
		}
		value = value<<7 | uint32(b[i]&0x7F)
	}
	if len(b) < 4 {
		return 0, 3, ErrTruncated
	}
	return value<<8 | uint32(b[3]), 4, nil
}
