// Package convert translates values between the remote service's value space
// and the local catalog's: rating scales, dates, status vocabularies and
// column datatypes.
package convert

import (
	"strconv"
	"strings"
)

// BuiltinRatingColumn is the local catalog's own rating field. It stores
// ratings on a 0-10 scale.
const BuiltinRatingColumn = "rating"

// Placeholders used in change displays.
const (
	NoRating     = "(no rating)"
	EmptyValue   = "(empty)"
	NotInLibrary = "(not in library)"
)

// ColumnMeta describes a local catalog column.
type ColumnMeta struct {
	Name     string `yaml:"name" json:"name"`
	Datatype string `yaml:"datatype" json:"datatype"`
}

// IsScaledRating reports whether column stores ratings on the 0-10 scale.
// Custom columns are only scaled when their metadata says "rating"; missing
// metadata means raw 0-5 values.
func IsScaledRating(column string, meta *ColumnMeta) bool {
	if column == BuiltinRatingColumn {
		return true
	}
	return meta != nil && meta.Datatype == "rating"
}

// RatingToLocal converts a 0-5 remote rating to the string stored in column.
func RatingToLocal(r float64, column string, meta *ColumnMeta) string {
	if IsScaledRating(column, meta) {
		return strconv.Itoa(int(r * 2))
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// RatingFromLocal converts a local rating value back to the 0-5 scale.
// nil and "" yield nil.
func RatingFromLocal(v any, column string, meta *ColumnMeta) (*float64, error) {
	if isAbsent(v) {
		return nil, nil
	}
	f, err := ToFloat(v)
	if err != nil {
		return nil, err
	}
	if IsScaledRating(column, meta) {
		f /= 2.0
	}
	return &f, nil
}

// FormatStars renders a 0-5 rating as five glyph positions. A nil rating
// renders as NoRating; 0.0 renders as five empty stars.
func FormatStars(r *float64) string {
	if r == nil {
		return NoRating
	}

	rating := *r
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}

	full := int(rating)
	half := rating-float64(full) >= 0.5
	empty := 5 - full
	if half {
		empty--
	}

	var sb strings.Builder
	sb.WriteString(strings.Repeat("★", full))
	if half {
		sb.WriteString("½")
	}
	sb.WriteString(strings.Repeat("☆", empty))
	return sb.String()
}
