package usecases

import (
	"errors"
	"time"
)

var errInvalidTriggerParams = errors.New("missing or invalid trigger parameters")

// Trigger parameters arrive as generic JSON maps, so numbers may be float64
// and times may be RFC3339 strings. A missing parameter silently yields the
// zero value; action handlers log-and-skip rather than crash the sweep.

func paramString(params map[string]interface{}, key string) string {
	if params == nil {
		return ""
	}
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func paramInt64(params map[string]interface{}, key string) int64 {
	if params == nil {
		return 0
	}
	switch v := params[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func paramFloat(params map[string]interface{}, key string) (float64, bool) {
	if params == nil {
		return 0, false
	}
	switch v := params[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

func paramTime(params map[string]interface{}, key string) (time.Time, bool) {
	if params == nil {
		return time.Time{}, false
	}
	switch v := params[key].(type) {
	case time.Time:
		return v, true
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}
