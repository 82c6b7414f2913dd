package convert

import (
	"strings"
	"time"
)

// ExtractDate returns the YYYY-MM-DD part of a timestamp that may carry a
// time after 'T' or a space. An empty input is absent.
func ExtractDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if i := strings.IndexAny(s, "T "); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return "", false
	}
	return s, true
}

// ExtractDateValue is ExtractDate for a local catalog value, which may be a
// time.Time or a string.
func ExtractDateValue(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case time.Time:
		if t.IsZero() {
			return "", false
		}
		return t.Format(time.DateOnly), true
	case *time.Time:
		if t == nil {
			return "", false
		}
		return ExtractDateValue(*t)
	}
	return ExtractDate(FormatValue(v))
}
