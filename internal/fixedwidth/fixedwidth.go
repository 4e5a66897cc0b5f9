// Package fixedwidth reads and writes big-endian unsigned integers one to four bytes wide.
package fixedwidth

import "github.com/pkg/errors"

var BigEndian bigEndian

var ErrWidth = errors.New("fixedwidth: width must be between 1 and 4 bytes")
var ErrOutOfRange = errors.New("fixedwidth: value does not fit in width")
var ErrShortBuffer = errors.New("fixedwidth: buffer shorter than width")

type bigEndian struct{}

// AppendUint appends v to dst using exactly width bytes.
func (bigEndian) AppendUint(dst []byte, v uint32, width int) ([]byte, error) {
	if width < 1 || width > 4 {
		return dst, errors.Wrapf(ErrWidth, "%d", width)
	}
	if width < 4 && v >= 1<<(8*uint(width)) {
		return dst, errors.Wrapf(ErrOutOfRange, "%d in %d bytes", v, width)
	}
	for shift := 8 * (width - 1); shift >= 0; shift -= 8 {
		dst = append(dst, byte(v>>uint(shift)))
	}
	return dst, nil
}

// Uint reads a width byte integer from the start of b.
func (bigEndian) Uint(b []byte, width int) (uint32, error) {
	if width < 1 || width > 4 {
		return 0, errors.Wrapf(ErrWidth, "%d", width)
	}
	if len(b) < width {
		return 0, errors.Wrapf(ErrShortBuffer, "need %d, have %d", width, len(b))
	}
	var v uint32
	for _, c := range b[:width] {
		v = v<<8 | uint32(c)
	}
	return v, nil
}
