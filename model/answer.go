package model

import (
	"encoding/json"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Answers maps question ids to respondent values. Values are strings or
// numbers for single-valued types, string slices for checkbox, and
// label-keyed maps for rating-multi and matrix. Both native Go values and
// their encoding/json decodings ([]any, map[string]any, float64) are accepted.
type Answers map[string]any

// Clone copies the map and any slice or map values so the copy can be
// mutated independently.
func (a Answers) Clone() Answers {
	if a == nil {
		return Answers{}
	}
	c := make(Answers, len(a))
	for k, v := range a {
		c[k] = cloneValue(v)
	}
	return c
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case []string:
		return slices.Clone(v)
	case []any:
		return slices.Clone(v)
	case map[string]any:
		return maps.Clone(v)
	case map[string]string:
		return maps.Clone(v)
	case map[string]float64:
		return maps.Clone(v)
	case map[string]int:
		return maps.Clone(v)
	}
	return v
}

// IsEmpty reports whether v counts as "not answered": nil, the empty string,
// an empty slice or a record without keys.
func IsEmpty(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	case map[string]string:
		return len(v) == 0
	case map[string]float64:
		return len(v) == 0
	case map[string]int:
		return len(v) == 0
	}
	return false
}

// AsStrings returns the elements of a multi-valued answer.
func AsStrings(v any) ([]string, bool) {
	switch v := v.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := AsString(e)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// AsString renders a scalar answer as the string used for option matching.
func AsString(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	}
	if f, ok := asFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}

// AsNumber reads a numeric answer; numeric strings are accepted.
func AsNumber(v any) (float64, bool) {
	switch v := v.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return asFloat(v)
}

func asFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
