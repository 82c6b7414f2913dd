// Package reconcile computes field-level differences between the local
// catalog and the remote library, and turns accepted differences into
// writes.
package reconcile

// Field is one of the synced metadata categories.
type Field int

const (
	FieldStatus Field = iota
	FieldRating
	FieldProgress
	FieldProgressPercent
	FieldDateStarted
	FieldDateRead
	FieldIsRead
	FieldReview
)

// Fields lists every field in comparison order.
var Fields = []Field{
	FieldStatus,
	FieldRating,
	FieldProgress,
	FieldProgressPercent,
	FieldDateStarted,
	FieldDateRead,
	FieldIsRead,
	FieldReview,
}

var fieldNames = map[Field]string{
	FieldStatus:          "status",
	FieldRating:          "rating",
	FieldProgress:        "progress",
	FieldProgressPercent: "progress_percent",
	FieldDateStarted:     "date_started",
	FieldDateRead:        "date_read",
	FieldIsRead:          "is_read",
	FieldReview:          "review",
}

var fieldDisplayNames = map[Field]string{
	FieldStatus:          "Reading Status",
	FieldRating:          "Rating",
	FieldProgress:        "Progress (pages)",
	FieldProgressPercent: "Progress (%)",
	FieldDateStarted:     "Date Started",
	FieldDateRead:        "Date Read",
	FieldIsRead:          "Is Read",
	FieldReview:          "Review",
}

// String returns the configuration name of the field, e.g. "progress_percent".
func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return "unknown"
}

// DisplayName returns the human readable field name.
func (f Field) DisplayName() string {
	if name, ok := fieldDisplayNames[f]; ok {
		return name
	}
	return f.String()
}

// ParseField looks a field up by its configuration name.
func ParseField(name string) (Field, bool) {
	for f, n := range fieldNames {
		if n == name {
			return f, true
		}
	}
	return 0, false
}
