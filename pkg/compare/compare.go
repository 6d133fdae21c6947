// Package compare implements the tolerant equality used when matching decoded
// message fields against operator-supplied values.
package compare

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

var (
	truthy = map[string]bool{"true": true, "1": true, "yes": true, "sim": true}
	falsy  = map[string]bool{"false": true, "0": true, "no": true, "nao": true}
)

// Equals reports whether a and b denote the same value. It never fails:
// anything ambiguous compares as not equal.
//
// Resolution order: nil handling, case-insensitive text, numeric value,
// boolean keyword.
func Equals(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	sa := strings.TrimSpace(Stringify(a))
	sb := strings.TrimSpace(Stringify(b))

	if strings.EqualFold(sa, sb) {
		return true
	}

	if na, ok := parseNumber(sa); ok {
		if nb, ok := parseNumber(sb); ok {
			return na == nb
		}
	}

	if ba, ok := parseBool(sa); ok {
		if bb, ok := parseBool(sb); ok {
			return ba == bb
		}
	}

	return false
}

// Stringify renders a decoded JSON value the way it reads in a message body.
// nil renders as the empty string.
func Stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case []byte:
		return string(val)
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}

func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

// parseBool accepts exact keywords only; "Yes" or "TRUE" are not keywords.
func parseBool(s string) (bool, bool) {
	switch {
	case truthy[s]:
		return true, true
	case falsy[s]:
		return false, true
	default:
		return false, false
	}
}
