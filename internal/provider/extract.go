package provider

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ExtractInt normalizes an identifier from various API response formats.
//
// The NHL feeds return flat numbers, but ids occasionally arrive as strings
// or as nested objects like {"id": 16}. This handles all of them.
//
// Returns ok=false if the value is missing or not a whole number.
func ExtractInt(val interface{}) (int, bool) {
	if val == nil {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), true
		}
		return 0, false
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, true
		}
		return 0, false
	case map[string]interface{}:
		if inner, exists := v["id"]; exists && inner != nil {
			return ExtractInt(inner)
		}
		return 0, false
	default:
		return 0, false
	}
}

// IntPtr extracts val and returns a pointer to it, or nil if not extractable.
func IntPtr(val interface{}) *int {
	n, ok := ExtractInt(val)
	if !ok {
		return nil
	}
	return &n
}
