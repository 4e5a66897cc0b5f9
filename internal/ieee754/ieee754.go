// Package ieee754 packs and unpacks IEEE-754 binary64 values field by field,
// big-endian, without going through math.Float64bits.
package ieee754

import "math"

const (
	// Size is the encoded size of a double.
	Size = 8

	fractionBits = 52
	bias         = 1023
	maxExponent  = 0x7FF
)

var (
	positiveInfinity = [Size]byte{0x7F, 0xF0, 0, 0, 0, 0, 0, 0}
	negativeInfinity = [Size]byte{0xFF, 0xF0, 0, 0, 0, 0, 0, 0}
	notANumber       = [Size]byte{0xFF, 0xF8, 0, 0, 0, 0, 0, 0}
)

// Append appends the big-endian binary64 representation of v to dst.
func Append(dst []byte, v float64) []byte {
	switch {
	case math.IsNaN(v):
		return append(dst, notANumber[:]...)
	case math.IsInf(v, 1):
		return append(dst, positiveInfinity[:]...)
	case math.IsInf(v, -1):
		return append(dst, negativeInfinity[:]...)
	}

	var sign, exponent, fraction uint64
	if math.Signbit(v) {
		sign = 1
		v = -v
	}

	if v != 0 {
		// v = frac * 2^exp with frac in [0.5, 1)
		_, exp := math.Frexp(v)
		ln := exp - 1
		if ln >= 1-bias {
			// normalized
			exponent = uint64(ln + bias)
			fraction = uint64(math.Round(math.Ldexp(v, fractionBits-ln))) - 1<<fractionBits
			if fraction == 1<<fractionBits {
				// rounding carried into the hidden bit
				fraction = 0
				exponent++
			}
		} else {
			// subnormal
			fraction = uint64(math.Round(math.Ldexp(v, bias-1+fractionBits)))
			if fraction == 1<<fractionBits {
				fraction = 0
				exponent = 1
			}
		}
	}

	bits := sign<<63 | exponent<<fractionBits | fraction
	for shift := 56; shift >= 0; shift -= 8 {
		dst = append(dst, byte(bits>>uint(shift)))
	}
	return dst
}

// Encode returns the binary64 representation of v.
func Encode(v float64) [Size]byte {
	var out [Size]byte
	copy(out[:], Append(make([]byte, 0, Size), v))
	return out
}

// Float64 unpacks the first Size bytes of b. It panics if b is shorter than Size.
func Float64(b []byte) float64 {
	_ = b[Size-1] // early bounds check

	negative := b[0]&0x80 != 0
	exponent := int(b[0]&0x7F)<<4 | int(b[1]>>4)
	significand := uint64(b[1] & 0x0F)
	for _, c := range b[2:Size] {
		significand = significand<<8 | uint64(c)
	}

	var v float64
	switch exponent {
	case 0:
		// zero or subnormal, no hidden bit
		v = math.Ldexp(float64(significand), 1-bias-fractionBits)
	case maxExponent:
		if significand != 0 {
			return math.NaN()
		}
		v = math.Inf(1)
	default:
		v = math.Ldexp(float64(significand|1<<fractionBits), exponent-bias-fractionBits)
	}

	if negative {
		return -v
	}
	return v
}
