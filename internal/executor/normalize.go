package executor

import (
	"strconv"
)

// Id fields providers are expected to send as integers but sometimes encode
// as strings. The normalizer repairs these defensively rather than rejecting
// the call; non-parseable values are left untouched and fail later with a
// scoped tool error.
var idFields = []string{"object_id", "shape_id"}

var idArrayFields = []string{"object_ids"}

// NormalizeInput coerces string-typed id fields and id-array elements to
// integers when parseable. Pure and total: the input map is modified in
// place and always returned.
func NormalizeInput(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}

	for _, field := range idFields {
		if s, ok := input[field].(string); ok {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				input[field] = n
			}
		}
	}

	for _, field := range idArrayFields {
		arr, ok := input[field].([]any)
		if !ok {
			continue
		}
		for i, v := range arr {
			if s, ok := v.(string); ok {
				if n, err := strconv.ParseInt(s, 10, 64); err == nil {
					arr[i] = n
				}
			}
		}
	}

	return input
}

// asInt64 converts the numeric encodings that survive JSON decoding and
// normalization into an int64 id.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// asFloat64 converts a numeric input value to float64.
func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// idList extracts an id slice from a normalized object_ids value.
func idList(v any) []int64 {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]int64, 0, len(arr))
	for _, e := range arr {
		if id, ok := asInt64(e); ok {
			out = append(out, id)
		}
	}
	return out
}
