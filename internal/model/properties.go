package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Property helpers for the open properties/metadata maps. Values arrive from
// JSON, YAML or HCL, so numbers may be float64, int or json.Number.

// GetStringProperty extracts a string property, converting scalars.
func GetStringProperty(props map[string]any, key string) (string, bool) {
	val, ok := props[key]
	if !ok || val == nil {
		return "", false
	}

	switch v := val.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

// FormatValue renders an arbitrary property value for labels.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}
