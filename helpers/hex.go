package helpers

import (
	"encoding/hex"
	"strings"
)

// MustHex decodes hex ignoring spaces, for test fixtures like "deadbeef 0004 0001".
func MustHex(s string) []byte {
	b, err := hex.DecodeString(strings.Replace(s, " ", "", -1))
	if err != nil {
		panic(err)
	}
	return b
}

// FormatHex groups bytes by 4 for log readability.
func FormatHex(b []byte) string {
	h := hex.EncodeToString(b)
	ss := make([]string, 0, len(h)/8+1)
	for len(h) > 8 {
		ss = append(ss, h[:8])
		h = h[8:]
	}
	ss = append(ss, h)
	return strings.Join(ss, " ")
}
