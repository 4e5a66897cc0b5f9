package rand

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"strings"

	"github.com/google/uuid"
)

const hexDigits = "0123456789ABCDEF"

// GenerateCryptoSafeRandomDataN returns a slice of bytes of length n, filled with cryptographically-safe random data.
func GenerateCryptoSafeRandomDataN(n int) ([]byte, error) {
	b := make([]byte, n)
	if err := GenerateCryptoSafeRandomData(b); err != nil {
		return nil, err
	}
	return b, nil
}

// GenerateCryptoSafeRandomData fills b with cryptographically-safe random data.
func GenerateCryptoSafeRandomData(b []byte) error {
	_, err := cryptoRand.Read(b)
	return err
}

// GenerateUuid returns a UUID in string format (including hyphens).
func GenerateUuid() string {
	return uuid.NewString()
}

// GenerateUpperUuid returns a UUID in upper case, the form Flex uses for client ids.
func GenerateUpperUuid() string {
	return strings.ToUpper(GenerateUuid())
}

// Uint32 returns a random 32 bit integer.
func Uint32() (uint32, error) {
	var b [4]byte
	if err := GenerateCryptoSafeRandomData(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

// HexDigits returns n random upper case hexadecimal digits.
func HexDigits(n int) (string, error) {
	b, err := GenerateCryptoSafeRandomDataN(n)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.Grow(n)
	for _, c := range b {
		sb.WriteByte(hexDigits[c&0x0F])
	}
	return sb.String(), nil
}
