package device

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// present mirrors how the dashboard reads optional fields: missing, null,
// empty strings, zero and false all count as absent.
func present(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case float64:
		return t != 0
	}
	return true
}

func firstValue(fields map[string]interface{}, keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := fields[k]; ok && present(v) {
			return v, true
		}
	}
	return nil, false
}

func firstString(fields map[string]interface{}, fallback string, keys ...string) string {
	v, ok := firstValue(fields, keys...)
	if !ok {
		return fallback
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// firstInt returns the first present key holding a number or numeric string.
func firstInt(fields map[string]interface{}, keys ...string) (int, bool) {
	for _, k := range keys {
		v, ok := fields[k]
		if !ok || !present(v) {
			continue
		}
		if n, ok := toInt(v); ok {
			return n, true
		}
	}
	return 0, false
}

func toInt(v interface{}) (int, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return int(f), true
	case float64:
		return int(t), true
	case int:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return int(f), true
	}
	return 0, false
}
