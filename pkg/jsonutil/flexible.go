package jsonutil

import (
	"encoding/json"
	"fmt"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling cases where
// LLMs return numbers or booleans instead of strings. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	// Try string first
	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	// Try number
	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	// Try boolean
	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	// Fallback: return raw string representation
	return string(raw)
}

// FlexibleStringSlice converts a json.RawMessage to a []string, handling the
// cases where LLMs return a bare string, a number, or a mixed-type array
// where a string array was requested. Returns nil for null/empty.
func FlexibleStringSlice(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	// Try a proper string array first
	var strs []string
	if err := json.Unmarshal(raw, &strs); err == nil {
		return strs
	}

	// Try an array of arbitrary values (numbers, nested nulls)
	var vals []json.RawMessage
	if err := json.Unmarshal(raw, &vals); err == nil {
		out := make([]string, 0, len(vals))
		for _, v := range vals {
			if s := FlexibleStringValue(v); s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	// Bare scalar: wrap it
	if s := FlexibleStringValue(raw); s != "" {
		return []string{s}
	}

	return nil
}
