package decode

import (
	"strconv"
	"strings"
)

// ParseTimestamp parses seconds as a float. The bool is true when the value
// could not be parsed and 0.0 was used instead.
func ParseTimestamp(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, true
	}
	return v, false
}

// ParseID parses an arbitration identifier. Values with a 0x prefix or any
// hex letter are base 16, everything else is base 10. Failures yield 0.
func ParseID(s string) (uint32, bool) {
	v, ok := parseUint(s, 32, true)
	if !ok {
		return 0, true
	}
	return uint32(v), false
}

// ParseLength parses a declared payload length. A hex letter selects base 16,
// otherwise base 10; a 0x prefix is not accepted. The bool is true when the
// value was unusable.
func ParseLength(s string) (int, bool) {
	v, ok := parseUint(s, 16, false)
	if !ok {
		return 0, true
	}
	return int(v), false
}

// ParseFlag reports whether a flag cell is set. Only the literal "1" counts.
func ParseFlag(s string) bool {
	return s == "1"
}

// ParseHexPayload splits a whitespace separated byte string such as
// "39 0E 00". Tokens that are not a hex byte become 0x00 and are counted in
// the second return value.
func ParseHexPayload(s string) ([]byte, int) {
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return nil, 0
	}
	out := make([]byte, 0, len(tokens))
	bad := 0
	for _, tok := range tokens {
		v, err := strconv.ParseUint(tok, 16, 8)
		if err != nil {
			bad++
			v = 0
		}
		out = append(out, byte(v))
	}
	return out, bad
}

// ParseByte parses one payload cell in the given base.
func ParseByte(s string, base int) (byte, bool) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), base, 8)
	if err != nil {
		return 0, true
	}
	return byte(v), false
}

func parseUint(s string, bits int, prefixed bool) (uint64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	base := 10
	switch {
	case prefixed && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")):
		s = s[2:]
		base = 16
	case hasHexLetter(s):
		base = 16
	}
	v, err := strconv.ParseUint(s, base, bits)
	if err != nil {
		return 0, false
	}
	return v, true
}

func hasHexLetter(s string) bool {
	return strings.ContainsAny(s, "ABCDEFabcdef")
}
