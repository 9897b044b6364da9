// Package jsonx decodes JSON out of possibly markdown-fenced model output.
package jsonx

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// Clean removes markdown code-fence markers and newlines so that a fenced
// single-line JSON object survives a plain json.Unmarshal.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.ReplaceAll(s, "\n", "")
	return strings.TrimSpace(s)
}

// CleanKeepNewlines removes the fence markers but preserves newlines, for
// payloads where string values may legitimately span lines.
func CleanKeepNewlines(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// Unmarshal cleans raw and decodes it into v. The error is a value to branch
// on, not a fault: every caller has a documented default for malformed output.
func Unmarshal(raw string, v any) error {
	if err := json.Unmarshal([]byte(Clean(raw)), v); err != nil {
		return eris.Wrap(err, "jsonx: decode model output")
	}
	return nil
}

// UnmarshalKeepNewlines is Unmarshal with CleanKeepNewlines semantics.
func UnmarshalKeepNewlines(raw string, v any) error {
	if err := json.Unmarshal([]byte(CleanKeepNewlines(raw)), v); err != nil {
		return eris.Wrap(err, "jsonx: decode model output")
	}
	return nil
}

// CoerceBool interprets a decoded JSON value as a boolean. Accepts native
// booleans, the strings "true"/"yes"/"1" (case-insensitive) and any number
// (non-zero is true). The second return is false when the value has no
// boolean interpretation.
func CoerceBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "1":
			return true, true
		case "false", "no", "0":
			return false, true
		}
		return false, false
	case float64:
		return x != 0, true
	default:
		return false, false
	}
}
