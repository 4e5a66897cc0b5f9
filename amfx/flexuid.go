package amfx

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/torresjeff/amf"
	"github.com/torresjeff/amf/rand"
)

var now = time.Now

// GenerateFlexUID returns a Flex message id of the form TTTTTTTT-XXXX-XXXX-XXXX-YYYYYYYYXXXX, where
// T is tid in hex, X a random hex digit and Y the low 32 bits of the current Unix time in milliseconds.
func GenerateFlexUID(tid uint32) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%08X", tid)
	for i := 0; i < 3; i++ {
		group, err := rand.HexDigits(4)
		if err != nil {
			return "", err
		}
		sb.WriteString("-" + group)
	}
	ms := now().UnixNano() / int64(time.Millisecond)
	fmt.Fprintf(&sb, "-%08X", uint32(ms))
	tail, err := rand.HexDigits(4)
	if err != nil {
		return "", err
	}
	sb.WriteString(tail)
	return sb.String(), nil
}

// NewFlexUID returns a Flex message id for a random transaction id.
func NewFlexUID() (string, error) {
	tid, err := rand.Uint32()
	if err != nil {
		return "", err
	}
	return GenerateFlexUID(tid)
}

// DecodeTidFromFlexUID returns the transaction id carried in the first eight digits of uid.
func DecodeTidFromFlexUID(uid string) (uint32, error) {
	if len(uid) < 8 {
		return 0, errors.Wrapf(amf.ErrDecoding, "flex uid %q is too short", uid)
	}
	tid, err := strconv.ParseUint(uid[:8], 16, 32)
	if err != nil {
		return 0, errors.Wrapf(amf.ErrDecoding, "flex uid %q", uid)
	}
	return uint32(tid), nil
}
