package scalar

import (
	"encoding/base64"
	"strconv"
	"strings"
)

// EncodeSelection joins indices with "," and base64-encodes the result
// (standard alphabet, padded).  An empty input yields "".
func EncodeSelection(indices []int) string {
	if len(indices) == 0 {
		return ""
	}
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = strconv.Itoa(idx)
	}
	return base64.StdEncoding.EncodeToString([]byte(strings.Join(parts, ",")))
}

// DecodeSelection reverses EncodeSelection.  It never fails: undecodable
// input yields an empty slice, and tokens that are not non-negative integers
// are dropped.  Duplicates are preserved.
func DecodeSelection(s string) []int {
	out := []int{}
	s = strings.TrimSpace(s)
	if s == "" {
		return out
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		// unpadded payloads are accepted like the browser's atob does
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
		if err != nil {
			return out
		}
	}
	for _, tok := range strings.Split(string(raw), ",") {
		n, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil || n < 0 {
			continue
		}
		out = append(out, n)
	}
	return out
}
