package reconcile

import (
	"context"
	"fmt"

	"github.com/lepinkainen/shelfsync/internal/config"
	"github.com/lepinkainen/shelfsync/internal/convert"
	"github.com/lepinkainen/shelfsync/internal/hardcover"
	"github.com/lepinkainen/shelfsync/internal/identity"
)

func ptr[T any](v T) *T { return &v }

type fakeCatalog struct {
	titles      map[int]string
	values      map[int]map[string]any
	identifiers map[int]map[string]string
	meta        map[string]*convert.ColumnMeta
	reads       int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		titles:      map[int]string{},
		values:      map[int]map[string]any{},
		identifiers: map[int]map[string]string{},
		meta:        map[string]*convert.ColumnMeta{},
	}
}

func (f *fakeCatalog) add(id int, title string, values map[string]any) {
	f.titles[id] = title
	if values == nil {
		values = map[string]any{}
	}
	f.values[id] = values
}

func (f *fakeCatalog) Value(id int, column string) (any, error) {
	f.reads++
	return f.values[id][column], nil
}

func (f *fakeCatalog) Title(id int) string {
	return f.titles[id]
}

func (f *fakeCatalog) Identifiers(id int) (map[string]string, error) {
	return f.identifiers[id], nil
}

func (f *fakeCatalog) ColumnMetadata(column string) *convert.ColumnMeta {
	return f.meta[column]
}

func (f *fakeCatalog) SetValue(id int, column string, value any) error {
	if f.values[id] == nil {
		f.values[id] = map[string]any{}
	}
	f.values[id][column] = value
	return nil
}

type fakeResolver struct {
	books map[string]*hardcover.Book
	err   error
}

// ResolveBook looks books up by the link's display form: the slug when
// there is one, the id otherwise.
func (r *fakeResolver) ResolveBook(_ context.Context, link identity.Link) (*hardcover.Book, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.books[link.String()], nil
}

type fakeFetcher struct {
	entries map[int]*hardcover.UserBook
	errs    map[int]error
}

func (f *fakeFetcher) UserBook(_ context.Context, bookID int) (*hardcover.UserBook, error) {
	if err := f.errs[bookID]; err != nil {
		return nil, err
	}
	return f.entries[bookID], nil
}

// fullConfig maps every field to a column of the same name with a # prefix,
// except rating which uses the built-in column.
func fullConfig() config.Sync {
	cfg := config.DefaultSync()
	cfg.StatusColumn = "#status"
	cfg.RatingColumn = "rating"
	cfg.ProgressColumn = "#pages"
	cfg.ProgressPercentColumn = "#percent"
	cfg.DateStartedColumn = "#started"
	cfg.DateReadColumn = "#finished"
	cfg.IsReadColumn = "#read"
	cfg.ReviewColumn = "#review"
	return cfg
}

func fullMeta() map[string]*convert.ColumnMeta {
	return map[string]*convert.ColumnMeta{
		"#status":   {Name: "#status", Datatype: "text"},
		"#pages":    {Name: "#pages", Datatype: "int"},
		"#percent":  {Name: "#percent", Datatype: "float"},
		"#started":  {Name: "#started", Datatype: "datetime"},
		"#finished": {Name: "#finished", Datatype: "datetime"},
		"#read":     {Name: "#read", Datatype: "bool"},
		"#review":   {Name: "#review", Datatype: "comments"},
	}
}

func entry(id, bookID int, slug string) hardcover.UserBook {
	return hardcover.UserBook{
		ID:     id,
		BookID: bookID,
		Book:   &hardcover.Book{ID: bookID, Title: fmt.Sprintf("Book %d", bookID), Slug: slug},
	}
}

func fieldsOf(changes []SyncChange) []Field {
	out := make([]Field, len(changes))
	for i, c := range changes {
		out[i] = c.Field
	}
	return out
}
