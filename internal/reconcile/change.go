package reconcile

import (
	"strings"

	"github.com/lepinkainen/shelfsync/internal/hardcover"
)

// SyncChange is a difference to write from the remote library into the
// local catalog.
type SyncChange struct {
	LocalID    int
	LocalTitle string
	BookID     int
	Field      Field
	Column     string
	OldValue   string
	NewValue   string
	// RawValue is what gets written when it differs from the display value.
	RawValue *string
	Apply    bool
}

// APIValue is the value to write into the local column.
func (c SyncChange) APIValue() string {
	if c.RawValue != nil {
		return *c.RawValue
	}
	return c.NewValue
}

// DisplayField returns the human readable field name.
func (c SyncChange) DisplayField() string {
	return c.Field.DisplayName()
}

// SyncToChange is a difference to send from the local catalog to the remote
// library. UserBookID is nil when the book is not in the library yet.
type SyncToChange struct {
	LocalID    int
	LocalTitle string
	BookID     int
	UserBookID *int
	Field      Field
	OldValue   string
	NewValue   string
	// APIValue is typed for the remote payload: hardcover.StatusID, float64
	// rating, int pages, float64 progress (0-1) or a date/review string.
	APIValue any
	Apply    bool
}

// DisplayField returns the human readable field name.
func (c SyncToChange) DisplayField() string {
	return c.Field.DisplayName()
}

// SyncToResult is the outcome of a local to remote diff.
type SyncToResult struct {
	Changes []SyncToChange
	// Entries caches the fetched library entry per remote book id. A nil
	// value means the book is not in the library.
	Entries          map[int]*hardcover.UserBook
	LinkedCount      int
	NotLinkedCount   int
	APIErrors        int
	BooksWithChanges int
}

// NewBookAction describes a remote library entry with no local record.
type NewBookAction struct {
	BookID      int
	Slug        string
	Title       string
	Authors     []string
	ISBN        string
	ReleaseDate string
	Entry       *hardcover.UserBook
	Apply       bool
}

// AuthorString joins the authors, or "Unknown" when there are none.
func (a NewBookAction) AuthorString() string {
	if len(a.Authors) == 0 {
		return "Unknown"
	}
	return strings.Join(a.Authors, ", ")
}

// Selectable is implemented by every change type.
type Selectable interface {
	SyncChange | SyncToChange | NewBookAction
}

// CountSelected returns how many items have Apply set.
func CountSelected[T Selectable](items []T) int {
	n := 0
	for _, item := range items {
		if applied(item) {
			n++
		}
	}
	return n
}

func applied[T Selectable](item T) bool {
	switch v := any(item).(type) {
	case SyncChange:
		return v.Apply
	case SyncToChange:
		return v.Apply
	case NewBookAction:
		return v.Apply
	}
	return false
}
