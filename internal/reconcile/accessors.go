package reconcile

import (
	"context"

	"github.com/lepinkainen/shelfsync/internal/convert"
	"github.com/lepinkainen/shelfsync/internal/hardcover"
	"github.com/lepinkainen/shelfsync/internal/identity"
)

// LocalReader reads the local catalog.
type LocalReader interface {
	// Value returns the current value of column for a record, nil when unset.
	Value(id int, column string) (any, error)
	Title(id int) string
	Identifiers(id int) (map[string]string, error)
	// ColumnMetadata returns nil for unknown columns.
	ColumnMetadata(column string) *convert.ColumnMeta
}

// BookResolver resolves a stored link to a remote book. Unknown books
// resolve to (nil, nil).
type BookResolver interface {
	ResolveBook(ctx context.Context, link identity.Link) (*hardcover.Book, error)
}

// EntryFetcher fetches the current library entry for a remote book, or
// (nil, nil) when the book is not in the library.
type EntryFetcher interface {
	UserBook(ctx context.Context, bookID int) (*hardcover.UserBook, error)
}

// ProgressFunc is called once per processed record.
type ProgressFunc func(done, total int)

func report(fn ProgressFunc, done, total int) {
	if fn != nil {
		fn(done, total)
	}
}
