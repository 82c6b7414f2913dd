package reconcile

import (
	"fmt"

	"github.com/lepinkainen/shelfsync/internal/convert"
	"github.com/lepinkainen/shelfsync/internal/hardcover"
)

// LocalWrite is one coerced value to store in the local catalog.
type LocalWrite struct {
	LocalID int
	Column  string
	Field   Field
	Value   any
}

// PlanLocalWrites coerces the accepted changes to their column datatypes.
// Columns without metadata take the value as text, except the built-in
// rating column. A value that does not fit its column is an error.
func PlanLocalWrites(changes []SyncChange, columnMeta func(column string) *convert.ColumnMeta) ([]LocalWrite, error) {
	var writes []LocalWrite
	for _, c := range changes {
		if !c.Apply {
			continue
		}

		datatype := columnDatatype(c.Column, columnMeta)
		value, err := convert.Coerce(c.APIValue(), datatype)
		if err != nil {
			return nil, fmt.Errorf("%s of %q: %w", c.Field, c.LocalTitle, err)
		}

		writes = append(writes, LocalWrite{
			LocalID: c.LocalID,
			Column:  c.Column,
			Field:   c.Field,
			Value:   value,
		})
	}
	return writes, nil
}

func columnDatatype(column string, columnMeta func(string) *convert.ColumnMeta) string {
	if columnMeta != nil {
		if meta := columnMeta(column); meta != nil && meta.Datatype != "" {
			return meta.Datatype
		}
	}
	if column == convert.BuiltinRatingColumn {
		return convert.DatatypeRating
	}
	return convert.DatatypeText
}

// RemoteUpdate groups the accepted changes of one book into the two remote
// payloads: the library entry and its latest reading session.
type RemoteUpdate struct {
	LocalID    int
	LocalTitle string
	BookID     int
	// UserBookID is nil when the book has to be added to the library first.
	UserBookID *int
	// ReadID is the latest reading session to update; nil inserts a new one.
	ReadID   *int
	UserBook hardcover.UserBookUpdate
	Read     hardcover.ReadUpdate
}

// Create reports whether the book must be added to the library.
func (u RemoteUpdate) Create() bool {
	return u.UserBookID == nil
}

// PlanRemoteUpdates groups accepted changes per book, in first-seen order.
// Books that are not in the library get the Want to Read status unless the
// changes set one.
func PlanRemoteUpdates(changes []SyncToChange, entries map[int]*hardcover.UserBook) ([]RemoteUpdate, error) {
	var order []int
	byBook := make(map[int]*RemoteUpdate)

	for _, c := range changes {
		if !c.Apply {
			continue
		}

		u, ok := byBook[c.BookID]
		if !ok {
			u = &RemoteUpdate{LocalID: c.LocalID, LocalTitle: c.LocalTitle, BookID: c.BookID, UserBookID: c.UserBookID}
			if ub := entries[c.BookID]; ub != nil {
				id := ub.ID
				u.UserBookID = &id
				if read := ub.LatestRead(); read != nil {
					readID := read.ID
					u.ReadID = &readID
				}
			}
			byBook[c.BookID] = u
			order = append(order, c.BookID)
		}

		if err := u.add(c); err != nil {
			return nil, err
		}
	}

	updates := make([]RemoteUpdate, 0, len(order))
	for _, bookID := range order {
		u := byBook[bookID]
		if u.Create() && u.UserBook.StatusID == nil {
			status := hardcover.StatusWantToRead
			u.UserBook.StatusID = &status
		}
		updates = append(updates, *u)
	}
	return updates, nil
}

func (u *RemoteUpdate) add(c SyncToChange) error {
	bad := func() error {
		return fmt.Errorf("%s of %q: unexpected value %v (%T)", c.Field, c.LocalTitle, c.APIValue, c.APIValue)
	}

	switch c.Field {
	case FieldStatus:
		v, ok := c.APIValue.(hardcover.StatusID)
		if !ok {
			return bad()
		}
		u.UserBook.StatusID = &v
	case FieldRating:
		v, ok := c.APIValue.(float64)
		if !ok {
			return bad()
		}
		u.UserBook.Rating = &v
	case FieldReview:
		v, ok := c.APIValue.(string)
		if !ok {
			return bad()
		}
		u.UserBook.Review = &v
	case FieldProgress:
		v, ok := c.APIValue.(int)
		if !ok {
			return bad()
		}
		u.Read.ProgressPages = &v
	case FieldProgressPercent:
		v, ok := c.APIValue.(float64)
		if !ok {
			return bad()
		}
		u.Read.Progress = &v
	case FieldDateStarted:
		v, ok := c.APIValue.(string)
		if !ok {
			return bad()
		}
		u.Read.StartedAt = &v
	case FieldDateRead:
		v, ok := c.APIValue.(string)
		if !ok {
			return bad()
		}
		u.Read.FinishedAt = &v
	default:
		return fmt.Errorf("%s cannot be sent to the remote library", c.Field)
	}
	return nil
}
