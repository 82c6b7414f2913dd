package convert

import (
	"fmt"
	"math"
	"strconv"
	"time"
	"unicode/utf8"
)

const reviewDisplayLength = 50

// FormatValue renders a catalog value as the canonical string used for
// comparisons. nil is "", floats drop trailing zeros.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *string:
		if t == nil {
			return ""
		}
		return *t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}

// FormatPercent renders a percentage with a "%" suffix.
func FormatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64) + "%"
}

// OrEmpty returns s, or EmptyValue when s is "".
func OrEmpty(s string) string {
	if s == "" {
		return EmptyValue
	}
	return s
}

// YesNo renders a boolean for change displays.
func YesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// TruncateReview shortens review text for display, keeping the first 50
// characters and adding "...". Empty text renders as EmptyValue.
func TruncateReview(s string) string {
	if s == "" {
		return EmptyValue
	}
	if utf8.RuneCountInString(s) <= reviewDisplayLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:reviewDisplayLength]) + "..."
}

// RoundTenth rounds to one decimal place.
func RoundTenth(f float64) float64 {
	return math.Round(f*10) / 10
}
