// Package config holds the key/value model shared by the config stores.
// Keys are dotted paths such as "rag.min_similarity"; values are whatever a
// TOML decoder or an environment variable produced, coerced on read.
package config

import (
	"maps"
	"strconv"
	"strings"
)

// Values is a flat dotted-key view of a configuration document.
type Values map[string]any

// String returns v[key] when it is a string.
func (v Values) String(key string) string {
	s, _ := v[key].(string)
	return s
}

// Int accepts the integer types decoders produce plus numeric strings.
func (v Values) Int(key string) int {
	switch x := v[key].(type) {
	case int:
		return x
	case int64:
		return int(x)
	case float64:
		return int(x)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// Float widens integers and parses numeric strings.
func (v Values) Float(key string) float64 {
	switch x := v[key].(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// Bool accepts booleans and strconv.ParseBool spellings.
func (v Values) Bool(key string) bool {
	switch x := v[key].(type) {
	case bool:
		return x
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		return err == nil && b
	}
	return false
}

// Strings accepts string arrays and comma-separated strings. Non-string
// array items are dropped.
func (v Values) Strings(key string) []string {
	switch x := v[key].(type) {
	case []string:
		return x
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(x, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return nil
}

// Flatten turns nested tables into dotted keys: {"rag": {"recent_days": 7}}
// becomes {"rag.recent_days": 7}.
func Flatten(doc map[string]any) Values {
	out := make(Values)
	flattenInto(out, "", doc)
	return out
}

func flattenInto(out Values, prefix string, doc map[string]any) {
	for k, val := range doc {
		if prefix != "" {
			k = prefix + "." + k
		}
		if table, ok := val.(map[string]any); ok {
			flattenInto(out, k, table)
			continue
		}
		out[k] = val
	}
}

// Nest is the inverse of Flatten, ready for a TOML or YAML encoder.
func (v Values) Nest() map[string]any {
	root := make(map[string]any)
	for key, val := range v {
		parts := strings.Split(key, ".")
		node := root
		for _, p := range parts[:len(parts)-1] {
			child, ok := node[p].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[p] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = val
	}
	return root
}

// Clone returns a shallow copy.
func (v Values) Clone() Values {
	if v == nil {
		return make(Values)
	}
	return maps.Clone(v)
}

// EnvName maps a key to its override variable: with prefix "RANKPULSE_",
// "report.target_hour" becomes RANKPULSE_REPORT_TARGET_HOUR.
func EnvName(prefix, key string) string {
	return prefix + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}
