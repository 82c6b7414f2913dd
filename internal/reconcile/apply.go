package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/lepinkainen/shelfsync/internal/errors"
	"github.com/lepinkainen/shelfsync/internal/hardcover"
	"github.com/lepinkainen/shelfsync/internal/identity"
)

// LocalWriter stores values in the local catalog.
type LocalWriter interface {
	SetValue(id int, column string, value any) error
}

// LocalCreator adds records to the local catalog.
type LocalCreator interface {
	AddBook(title string, authors []string, isbn, releaseDate string) (int, error)
	SetIdentifier(id int, key, value string) error
}

// RemoteWriter sends payloads to the remote library.
type RemoteWriter interface {
	AddUserBook(ctx context.Context, bookID int, update hardcover.UserBookUpdate) (int, error)
	UpdateUserBook(ctx context.Context, userBookID int, update hardcover.UserBookUpdate) error
	InsertRead(ctx context.Context, userBookID int, update hardcover.ReadUpdate) (int, error)
	UpdateRead(ctx context.Context, readID int, update hardcover.ReadUpdate) error
}

// ApplyResult counts what an apply pass did.
type ApplyResult struct {
	Applied int
	Failed  int
	Errors  []error
	// AppliedBooks lists the remote book ids that were updated.
	AppliedBooks []int
}

// ApplyLocal stores every write. The first failure stops the pass.
func ApplyLocal(w LocalWriter, writes []LocalWrite) (ApplyResult, error) {
	var res ApplyResult
	for _, wr := range writes {
		if err := w.SetValue(wr.LocalID, wr.Column, wr.Value); err != nil {
			return res, fmt.Errorf("write %s of record %d: %w", wr.Column, wr.LocalID, err)
		}
		res.Applied++
	}
	return res, nil
}

// ApplyRemote sends each update. A failing book is counted and skipped;
// authentication and rate-limit errors stop the pass.
func ApplyRemote(ctx context.Context, w RemoteWriter, updates []RemoteUpdate) (ApplyResult, error) {
	var res ApplyResult
	for _, u := range updates {
		if err := applyOne(ctx, w, u); err != nil {
			if apperrors.IsAuthenticationError(err) || apperrors.IsRateLimitError(err) {
				return res, err
			}
			slog.Warn("Failed to update remote library", "title", u.LocalTitle, "book_id", u.BookID, "error", err)
			res.Failed++
			res.Errors = append(res.Errors, fmt.Errorf("%s: %w", u.LocalTitle, err))
			continue
		}
		res.Applied++
		res.AppliedBooks = append(res.AppliedBooks, u.BookID)
	}
	return res, nil
}

func applyOne(ctx context.Context, w RemoteWriter, u RemoteUpdate) error {
	var userBookID int
	switch {
	case u.Create():
		id, err := w.AddUserBook(ctx, u.BookID, u.UserBook)
		if err != nil {
			return fmt.Errorf("add to library: %w", err)
		}
		userBookID = id
	default:
		userBookID = *u.UserBookID
		if !u.UserBook.Empty() {
			if err := w.UpdateUserBook(ctx, userBookID, u.UserBook); err != nil {
				return fmt.Errorf("update library entry: %w", err)
			}
		}
	}

	if u.Read.Empty() {
		return nil
	}
	if u.ReadID != nil {
		if err := w.UpdateRead(ctx, *u.ReadID, u.Read); err != nil {
			return fmt.Errorf("update reading session: %w", err)
		}
		return nil
	}
	if _, err := w.InsertRead(ctx, userBookID, u.Read); err != nil {
		return fmt.Errorf("start reading session: %w", err)
	}
	return nil
}

// ApplyNewBooks creates a local record for each accepted action and links
// it by book id and slug. It returns the ids of the created records.
func ApplyNewBooks(c LocalCreator, actions []NewBookAction) ([]int, error) {
	var created []int
	for _, a := range actions {
		if !a.Apply {
			continue
		}
		id, err := c.AddBook(a.Title, a.Authors, a.ISBN, a.ReleaseDate)
		if err != nil {
			return created, fmt.Errorf("create %q: %w", a.Title, err)
		}
		edition := 0
		if a.Entry != nil && a.Entry.EditionID != nil {
			edition = *a.Entry.EditionID
		}
		set := func(key, value string) error { return c.SetIdentifier(id, key, value) }
		if err := identity.Store(set, identity.Link{BookID: a.BookID, Slug: a.Slug}, edition); err != nil {
			return created, fmt.Errorf("link %q: %w", a.Title, err)
		}
		created = append(created, id)
	}
	return created, nil
}
