package assess

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is one S3 bucket, IAM role or EC2 instance as found in the snapshot.
// There is no schema: absent keys read as empty/false.
type Record map[string]any

// Truthy reports whether the value stored under key is set to something other
// than a JSON zero value (null, false, 0, "", [] or {}).
func (r Record) Truthy(key string) bool {
	v, ok := r[key]
	if !ok {
		return false
	}
	return truthy(v)
}

// String renders the value under key as text. Absent and null values give "";
// numbers are printed in plain decimal form and other values as JSON.
func (r Record) String(key string) string {
	switch t := r[key].(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		if b, err := json.Marshal(t); err == nil {
			return string(b)
		}
		return fmt.Sprint(t)
	}
}

// Strings returns the string elements of the list stored under key.
// A missing key yields nil; null or a non-list value is an error.
// Non-string elements are skipped.
func (r Record) Strings(key string) ([]string, error) {
	v, ok := r[key]
	if !ok {
		return nil, nil
	}
	if v == nil {
		return nil, fmt.Errorf("%q must be a list, got null", key)
	}

	var out []string
	switch list := v.(type) {
	case []any:
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	case []string:
		out = append(out, list...)
	default:
		return nil, fmt.Errorf("%q must be a list, got %T", key, v)
	}
	return out, nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// records extracts the list stored under key in the snapshot document.
// A missing key or an empty object is an empty list; null is an error.
func records(doc map[string]any, key string) ([]Record, error) {
	v, ok := doc[key]
	if !ok {
		return nil, nil
	}

	switch list := v.(type) {
	case nil:
		return nil, fmt.Errorf("%s: expected a list, got null", key)
	case map[string]any:
		if len(list) == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: expected a list, got an object", key)
	case []Record:
		return list, nil
	case []map[string]any:
		out := make([]Record, len(list))
		for i, m := range list {
			out[i] = m
		}
		return out, nil
	case []any:
		out := make([]Record, 0, len(list))
		for i, item := range list {
			switch m := item.(type) {
			case map[string]any:
				out = append(out, m)
			case Record:
				out = append(out, m)
			default:
				return nil, fmt.Errorf("%s[%d]: expected an object, got %T", key, i, item)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s: expected a list, got %T", key, v)
	}
}
