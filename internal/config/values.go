package config

import (
	"fmt"
	"strings"
	"time"
)

// Int reads a numeric services.yaml value. YAML numbers arrive as int, but
// quoted values are accepted too.
func Int(cfg map[string]interface{}, key string, def int) int {
	switch t := cfg[key].(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		var parsed int
		if _, err := fmt.Sscanf(t, "%d", &parsed); err == nil {
			return parsed
		}
	}
	return def
}

func String(cfg map[string]interface{}, key, def string) string {
	if s, ok := cfg[key].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	return def
}

func Bool(cfg map[string]interface{}, key string, def bool) bool {
	switch t := cfg[key].(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "1":
			return true
		case "false", "no", "0":
			return false
		}
	}
	return def
}

// Duration accepts Go duration strings ("90s", "1h") or a bare number in
// the given unit.
func Duration(cfg map[string]interface{}, key string, unit, def time.Duration) time.Duration {
	if s, ok := cfg[key].(string); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d
		}
	}
	if n := Int(cfg, key, -1); n >= 0 {
		return time.Duration(n) * unit
	}
	return def
}
