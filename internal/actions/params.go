package actions

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are accepted for date parameters, most specific first.
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

func stringParam(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingParam, key)
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64, int, json.Number:
		s = fmt.Sprint(t)
	default:
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidParam, key)
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingParam, key)
	}
	return s, nil
}

// maxFloatID is the largest integer a JSON number carries exactly.
const maxFloatID = 1 << 53

func idParam(params map[string]any, key string) (uint, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: %s", ErrMissingParam, key)
	}
	switch t := v.(type) {
	case float64:
		if t <= 0 || t > maxFloatID || t != math.Trunc(t) {
			return 0, fmt.Errorf("%w: %s = %v", ErrInvalidParam, key, t)
		}
		return uint(t), nil
	case int:
		if t <= 0 {
			return 0, fmt.Errorf("%w: %s = %d", ErrInvalidParam, key, t)
		}
		return uint(t), nil
	case json.Number:
		return parseID(key, t.String())
	case string:
		if strings.TrimSpace(t) == "" {
			return 0, fmt.Errorf("%w: %s", ErrMissingParam, key)
		}
		return parseID(key, t)
	default:
		return 0, fmt.Errorf("%w: %s has type %T", ErrInvalidParam, key, v)
	}
}

func parseID(key, s string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: %s = %q", ErrInvalidParam, key, s)
	}
	return uint(n), nil
}

// dateParam parses key as a date in loc. A missing or empty value yields
// fallback.
func dateParam(params map[string]any, key string, loc *time.Location, fallback time.Time) (time.Time, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return fallback, nil
	}
	s, isString := v.(string)
	if !isString {
		return time.Time{}, fmt.Errorf("%w: %s must be a date string", ErrInvalidParam, key)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, nil
	}
	return parseDate(key, s, loc)
}

func requiredDateParam(params map[string]any, key string, loc *time.Location) (time.Time, error) {
	s, err := stringParam(params, key)
	if err != nil {
		return time.Time{}, err
	}
	return parseDate(key, strings.TrimSpace(s), loc)
}

func parseDate(key, s string, loc *time.Location) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s = %q is not a date", ErrInvalidParam, key, s)
}
