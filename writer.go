package amf

import (
	"io"

	"github.com/pkg/errors"
	"github.com/torresjeff/amf/amf0"
	"github.com/torresjeff/amf/config"
)

// Flusher is implemented by buffered writers such as *bufio.Writer.
type Flusher interface {
	Flush() error
}

// WriteTo writes the encoded output to w, flushing w when it is a Flusher.
// The output is kept; call Reset to start over.
func (e *Encoder) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(e.buf)
	if err != nil {
		return int64(n), errors.Wrap(err, "write encoded output")
	}
	if f, ok := w.(Flusher); ok {
		if err := f.Flush(); err != nil {
			return int64(n), errors.Wrap(err, "flush encoded output")
		}
	}
	return int64(n), nil
}

// WritePacket writes an AMF0 packet envelope: config.PacketVersion, the headers, then the messages.
// Declared byte lengths are written as amf0.UnknownLength.
func (e *Encoder) WritePacket(headers []Header, messages []Message) error {
	if e.format != Version0 {
		return errors.Wrap(ErrFormatMisuse, "packets are written in AMF0")
	}
	if len(headers) > 0xFFFF || len(messages) > 0xFFFF {
		return errors.Wrapf(ErrEncodingRange, "%d headers, %d messages", len(headers), len(messages))
	}
	return e.atomic(func() error {
		if err := e.appendUint(uint32(config.PacketVersion), 2); err != nil {
			return err
		}
		if err := e.appendUint(uint32(len(headers)), 2); err != nil {
			return err
		}
		for _, h := range headers {
			if err := e.header(h); err != nil {
				return err
			}
		}
		if err := e.appendUint(uint32(len(messages)), 2); err != nil {
			return err
		}
		for _, m := range messages {
			if err := e.message(m); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteHeader writes one packet header.
func (e *Encoder) WriteHeader(h Header) error {
	if e.format != Version0 {
		return errors.Wrap(ErrFormatMisuse, "packet headers are written in AMF0")
	}
	return e.atomic(func() error {
		return e.header(h)
	})
}

// WriteMessage writes one packet message. The body must be an *Array; it is written as a strict array.
func (e *Encoder) WriteMessage(m Message) error {
	if e.format != Version0 {
		return errors.Wrap(ErrFormatMisuse, "packet messages are written in AMF0")
	}
	return e.atomic(func() error {
		return e.message(m)
	})
}

func (e *Encoder) header(h Header) error {
	if err := e.key0(h.Name); err != nil {
		return err
	}
	if h.MustUnderstand {
		e.buf = append(e.buf, 1)
	} else {
		e.buf = append(e.buf, 0)
	}
	if err := e.appendUint(amf0.UnknownLength, 4); err != nil {
		return err
	}
	return e.value0(nilToNull(h.Value))
}

func (e *Encoder) message(m Message) error {
	body, ok := nilToNull(m.Body).(*Array)
	if !ok {
		return errors.Wrapf(ErrEncodingType, "message body is %s, want array", nilToNull(m.Body).Kind())
	}
	if err := e.key0(m.TargetURI); err != nil {
		return err
	}
	if err := e.key0(m.ResponseURI); err != nil {
		return err
	}
	if err := e.appendUint(amf0.UnknownLength, 4); err != nil {
		return err
	}
	return e.strictArray0(body)
}
