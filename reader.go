package amf

import (
	"github.com/pkg/errors"
	"github.com/torresjeff/amf/internal/fixedwidth"
	"github.com/torresjeff/amf/internal/ieee754"
	"github.com/torresjeff/amf/internal/u29"
)

// reader is a cursor over one input buffer. It counts the bytes consumed so far,
// which is how declared byte lengths in packets are checked.
type reader struct {
	b []byte
	n int
}

func newReader(b []byte) *reader {
	return &reader{b: b}
}

// ReadByte returns the next byte.
func (r *reader) ReadByte() (byte, error) {
	if r.n >= len(r.b) {
		return 0, errors.Wrap(ErrDecoding, "unexpected end of input")
	}
	c := r.b[r.n]
	r.n++
	return c, nil
}

// Next returns the next n bytes. The slice aliases the input.
func (r *reader) Next(n int) ([]byte, error) {
	if n < 0 || n > r.Len() {
		return nil, errors.Wrapf(ErrDecoding, "need %d bytes, have %d", n, r.Len())
	}
	p := r.b[r.n : r.n+n]
	r.n += n
	return p, nil
}

// ReadBytes returns the number of bytes consumed since the reader was created.
func (r *reader) ReadBytes() int {
	return r.n
}

// Len returns the number of unread bytes.
func (r *reader) Len() int {
	return len(r.b) - r.n
}

// Uint reads a big-endian integer of width bytes.
func (r *reader) Uint(width int) (uint32, error) {
	p, err := r.Next(width)
	if err != nil {
		return 0, err
	}
	v, err := fixedwidth.BigEndian.Uint(p, width)
	if err != nil {
		return 0, errors.Wrapf(ErrDecoding, "%v", err)
	}
	return v, nil
}

// U29 reads an AMF3 variable-length integer.
func (r *reader) U29() (uint32, error) {
	v, n, err := u29.Decode(r.b[r.n:])
	if err != nil {
		return 0, errors.Wrapf(ErrDecoding, "%v", err)
	}
	r.n += n
	return v, nil
}

// Double reads an 8 byte IEEE-754 double.
func (r *reader) Double() (float64, error) {
	p, err := r.Next(ieee754.Size)
	if err != nil {
		return 0, err
	}
	return ieee754.Float64(p), nil
}
