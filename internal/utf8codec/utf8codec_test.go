package utf8codec

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
)

func TestAppendRune(t *testing.T) {
	tests := []struct {
		in  rune
		out []byte
	}{
		{'A', []byte{0x41}},
		{0x7F, []byte{0x7F}},
		{0x80, []byte{0xC2, 0x80}},
		{0x7FF, []byte{0xDF, 0xBF}},
		{0x800, []byte{0xE0, 0xA0, 0x80}},
		{0x20AC, []byte{0xE2, 0x82, 0xAC}},
		{0xFFFF, []byte{0xEF, 0xBF, 0xBF}},
		{0x1F600, []byte{0xF0, 0x9F, 0x98, 0x80}},
		{0x10FFFF, []byte{0xF4, 0x8F, 0xBF, 0xBF}},
	}
	for _, tt := range tests {
		got, err := AppendRune(nil, tt.in)
		if err != nil {
			t.Fatalf("AppendRune(%#x) returned error: %v", tt.in, err)
		}
		if !bytes.Equal(got, tt.out) {
			t.Errorf("AppendRune(%#x): got %x, want %x", tt.in, got, tt.out)
		}
	}
}

func TestAppendRuneOutOfRange(t *testing.T) {
	if _, err := AppendRune(nil, 0x110000); !errors.Is(err, ErrInvalidCodePoint) {
		t.Errorf("got %v, want %v", err, ErrInvalidCodePoint)
	}
}

func TestEncodeDecode(t *testing.T) {
	for _, s := range []string{"", "hello", "héllo wörld", "日本語", "emoji 😀 mix", "\x00control"} {
		enc, err := Encode(s)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(enc, []byte(s)) {
			t.Errorf("Encode(%q): got %x, want %x", s, enc, []byte(s))
		}
		if got := Decode(enc); got != s {
			t.Errorf("Decode(Encode(%q)): got %q", s, got)
		}
	}
}

func TestDecodeIsPermissive(t *testing.T) {
	// overlong two byte encoding of '/'
	if got := Decode([]byte{0xC0, 0xAF}); got != "/" {
		t.Errorf("got %q, want %q", got, "/")
	}
	// truncated sequence at the end of input
	runes := DecodeRunes([]byte{'a', 0xE2, 0x82})
	if len(runes) != 2 || runes[0] != 'a' {
		t.Errorf("got %v", runes)
	}
}

func TestSurrogateRunes(t *testing.T) {
	enc := []byte{0xED, 0xA0, 0xBD}
	runes := DecodeRunes(enc)
	if len(runes) != 1 || runes[0] != 0xD83D {
		t.Fatalf("got %U, want [U+D83D]", runes)
	}
	got, err := EncodeRunes(runes)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, enc) {
		t.Errorf("got %x, want %x", got, enc)
	}
	if s := Decode(enc); s != "\uFFFD" {
		t.Errorf("got %q, want %q", s, "\uFFFD")
	}
}

func TestEncodeInvalidString(t *testing.T) {
	got, err := Encode("a\xffb")
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{'a', 0xEF, 0xBF, 0xBD, 'b'}; !bytes.Equal(got, want) {
		t.Errorf("got %x, want %x", got, want)
	}
}
