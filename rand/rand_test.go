package rand

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestHexDigits(t *testing.T) {
	for _, n := range []int{0, 1, 4, 12} {
		s, err := HexDigits(n)
		if err != nil {
			t.Fatal(err)
		}
		if len(s) != n {
			t.Errorf("got %v digits, want %v", len(s), n)
		}
		if strings.Trim(s, hexDigits) != "" {
			t.Errorf("got %q, want upper case hex digits", s)
		}
	}
}

func TestGenerateUuid(t *testing.T) {
	id := GenerateUpperUuid()
	if id != strings.ToUpper(id) {
		t.Errorf("got %v, want upper case", id)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("got %v, want %v", err, nil)
	}
	if _, err := uuid.Parse(GenerateUuid()); err != nil {
		t.Errorf("got %v, want %v", err, nil)
	}
}

func TestGenerateCryptoSafeRandomDataN(t *testing.T) {
	b, err := GenerateCryptoSafeRandomDataN(16)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 16 {
		t.Errorf("got %v bytes, want %v", len(b), 16)
	}
	if _, err := Uint32(); err != nil {
		t.Errorf("got %v, want %v", err, nil)
	}
}
