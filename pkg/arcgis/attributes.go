package arcgis

import (
	"encoding/json"
	"strconv"
	"strings"
)

// AttributeString returns attrs[field] as a trimmed string. An exact key match
// wins; otherwise the first case-insensitive match is used. Numbers keep their
// literal form (no exponent). Missing, null, and blank values report false.
func AttributeString(attrs map[string]any, field string) (string, bool) {
	if attrs == nil {
		return "", false
	}
	v, ok := attrs[field]
	if !ok {
		for k, candidate := range attrs {
			if strings.EqualFold(k, field) {
				v, ok = candidate, true
				break
			}
		}
	}
	if !ok {
		return "", false
	}
	s, ok := Stringify(v)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Stringify formats scalar JSON values as strings.
func Stringify(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}
