package shared

import (
	"encoding/json"
	"strings"
)

// DecodeEscapes turns literal escape sequences in client supplied text (for example `\u00e9` or `\n`)
// into the characters they denote, using JSON string escape rules.
//
// Bare double quotes are escaped before decoding. Values without a backslash, or that fail to
// decode, are returned unchanged.
func DecodeEscapes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	quoted := `"` + escapeBareQuotes(s) + `"`
	var decoded string
	if err := json.Unmarshal([]byte(quoted), &decoded); err != nil {
		return s
	}
	return decoded
}

// escapeBareQuotes prefixes every `"` that is not already escaped with a backslash.
func escapeBareQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)

	backslashes := 0
	for _, r := range s {
		switch r {
		case '\\':
			backslashes++
		case '"':
			if backslashes%2 == 0 {
				b.WriteByte('\\')
			}
			backslashes = 0
		default:
			backslashes = 0
		}
		b.WriteRune(r)
	}
	return b.String()
}

// DecodeAllEscapes applies [DecodeEscapes] to every element, returning a new slice.
func DecodeAllEscapes(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = DecodeEscapes(v)
	}
	return out
}
