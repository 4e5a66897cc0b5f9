// Package utf8codec is a character-level UTF-8 codec. Decoding is permissive:
// the sequence length comes from the lead byte alone and overlong forms are accepted,
// which unicode/utf8 would reject.
package utf8codec

import "github.com/pkg/errors"

// MaxCodePoint is the largest encodable code point.
const MaxCodePoint = 0x10FFFF

var ErrInvalidCodePoint = errors.New("utf8codec: code point out of range")

// AppendRune appends the UTF-8 sequence for code point c to dst.
func AppendRune(dst []byte, c rune) ([]byte, error) {
	if c < 0 || c > MaxCodePoint {
		return dst, errors.Wrapf(ErrInvalidCodePoint, "%#x", c)
	}
	if c <= 0x7F {
		return append(dst, byte(c)), nil
	}

	var n int
	switch {
	case c <= 0x7FF:
		n = 2
	case c <= 0xFFFF:
		n = 3
	default:
		n = 4
	}

	var buf [4]byte
	marker := byte(0x80)
	for i := n - 1; i > 0; i-- {
		buf[i] = byte(c&0x3F) | 0x80
		c >>= 6
		marker = marker>>1 | 0x80
	}
	buf[0] = byte(c) | marker
	return append(dst, buf[:n]...), nil
}

// EncodeRunes returns the UTF-8 bytes of every code point in runes. Surrogate code points
// are written as three byte sequences, so DecodeRunes gives them back unchanged.
func EncodeRunes(runes []rune) ([]byte, error) {
	out := make([]byte, 0, len(runes))
	var err error
	for _, c := range runes {
		if out, err = AppendRune(out, c); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Encode returns the UTF-8 bytes of every code point in s. Invalid bytes in s are read
// as U+FFFD.
func Encode(s string) ([]byte, error) {
	return EncodeRunes([]rune(s))
}

// DecodeRunes returns the code points held in b. A sequence cut short by the end of b
// yields whatever bits were accumulated.
func DecodeRunes(b []byte) []rune {
	runes := make([]rune, 0, len(b))
	for i := 0; i < len(b); {
		c := rune(b[i])
		i++
		if c > 0x7F {
			var n int
			switch {
			case c > 0xEF:
				n, c = 4, c&0x07
			case c > 0xDF:
				n, c = 3, c&0x0F
			default:
				n, c = 2, c&0x1F
			}
			for ; n > 1 && i < len(b); n-- {
				c = c<<6 | rune(b[i]&0x3F)
				i++
			}
		}
		runes = append(runes, c)
	}
	return runes
}

// Decode returns the string held in b. Go strings cannot carry surrogate code points,
// so those become U+FFFD; use DecodeRunes to keep them.
func Decode(b []byte) string {
	return string(DecodeRunes(b))
}
