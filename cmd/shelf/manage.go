package shelf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lepinkainen/shelfsync/internal/config"
	"github.com/lepinkainen/shelfsync/internal/convert"
	"github.com/lepinkainen/shelfsync/internal/hardcover"
	"github.com/lepinkainen/shelfsync/internal/identity"
	"github.com/lepinkainen/shelfsync/internal/reconcile"
	"github.com/lepinkainen/shelfsync/internal/report"
	"github.com/lepinkainen/shelfsync/internal/tui"
)

var errNoBooks = errors.New("at least one catalog book id is required (provide via --book-id)")

// linkedBook is a catalog record, its stored link and, once resolved, the
// remote library entry.
type linkedBook struct {
	localID int
	title   string
	link    identity.Link
	bookID  int
	entry   *hardcover.UserBook
	apply   bool
}

// linkedBooks reads the stored links of ids. Records without one are
// counted and left out.
func (s *session) linkedBooks(ids []int, counts *report.Counts) ([]linkedBook, error) {
	if len(ids) == 0 {
		return nil, errNoBooks
	}

	var books []linkedBook
	for _, id := range ids {
		book, err := s.catalog.Book(id)
		if err != nil {
			return nil, err
		}
		identifiers, err := s.catalog.Identifiers(id)
		if err != nil {
			return nil, err
		}
		link, ok := identity.LinkOf(identifiers)
		if !ok {
			slog.Warn("Book is not linked to Hardcover", "record", id, "title", book.Title)
			counts.NotLinked++
			continue
		}
		counts.Linked++
		books = append(books, linkedBook{localID: id, title: book.Title, link: link, bookID: link.BookID, apply: true})
	}
	return books, nil
}

// resolveEntries fills in the remote book id and library entry of every
// book. Books the service no longer knows are dropped.
func (s *session) resolveEntries(ctx context.Context, books []linkedBook, counts *report.Counts) ([]linkedBook, error) {
	var out []linkedBook
	for _, b := range books {
		if b.bookID == 0 {
			book, err := s.resolver.ResolveBook(ctx, b.link)
			if err != nil {
				return nil, err
			}
			if book == nil {
				slog.Warn("Linked book not found on Hardcover", "title", b.title, "link", b.link.String())
				counts.NotLinked++
				continue
			}
			b.bookID = book.ID
		}

		entry, err := s.library.UserBook(ctx, b.bookID)
		if err != nil {
			return nil, fmt.Errorf("library entry of %q: %w", b.title, err)
		}
		b.entry = entry
		out = append(out, b)
	}
	return out, nil
}

func setLinkedApply(b *linkedBook, apply bool) { b.apply = apply }

// UnlinkOptions configures an unlink run.
type UnlinkOptions struct {
	BookIDs []int
	Yes     bool
	Report  bool
}

func unlinkRow(b linkedBook) tui.Row {
	return tui.Row{Title: b.title, Field: "link", Old: b.link.String(), New: "(not linked)", Apply: b.apply}
}

// Unlink removes the stored remote link of the given records. Nothing on
// the remote side changes.
func Unlink(_ context.Context, opts UnlinkOptions) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	rep := report.New(report.DirectionUnlink)
	rep.DryRun = config.DryRun

	books, err := s.linkedBooks(opts.BookIDs, &rep.Counts)
	if err != nil {
		return err
	}
	if err := review("Books to unlink", books, opts.Yes, unlinkRow, setLinkedApply); err != nil {
		return err
	}

	var unlinkErr error
	for _, b := range books {
		done := false
		if b.apply && !config.DryRun && unlinkErr == nil {
			set := func(key, value string) error { return s.catalog.SetIdentifier(b.localID, key, value) }
			if unlinkErr = identity.Clear(set); unlinkErr == nil {
				done = true
			} else {
				unlinkErr = fmt.Errorf("unlink %q: %w", b.title, unlinkErr)
			}
		}
		row := unlinkRow(b)
		rep.Add(report.Entry{Title: row.Title, Field: row.Field, Old: row.Old, New: row.New, Applied: done})
	}
	rep.AddError(unlinkErr)
	writeReport(rep, opts.Report)

	if unlinkErr != nil {
		return unlinkErr
	}
	slog.Info("Unlink complete", "unlinked", rep.Counts.Applied)
	return nil
}

// RemoveOptions configures a remove-from-library run.
type RemoveOptions struct {
	BookIDs []int
	Yes     bool
	Report  bool
}

func statusText(ub *hardcover.UserBook) string {
	if label := convert.StatusLabel(ub.Status()); label != "" {
		return label
	}
	return convert.EmptyValue
}

func removeRow(b linkedBook) tui.Row {
	return tui.Row{Title: b.title, Field: "library", Old: statusText(b.entry), New: "(removed)", Apply: b.apply}
}

// Remove deletes the remote library entry of the given records. The local
// records and their links stay.
func Remove(ctx context.Context, opts RemoveOptions) error {
	if err := requireToken(); err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	rep := report.New(report.DirectionRemove)
	rep.DryRun = config.DryRun

	books, err := s.linkedBooks(opts.BookIDs, &rep.Counts)
	if err != nil {
		return err
	}
	books, err = s.resolveEntries(ctx, books, &rep.Counts)
	if err != nil {
		return err
	}

	var inLibrary []linkedBook
	for _, b := range books {
		if b.entry == nil {
			slog.Info("Book is not in the Hardcover library", "title", b.title)
			continue
		}
		inLibrary = append(inLibrary, b)
	}

	if err := review("Books to remove from Hardcover", inLibrary, opts.Yes, removeRow, setLinkedApply); err != nil {
		return err
	}

	var removeErr error
	for _, b := range inLibrary {
		done := false
		if b.apply && removeErr == nil {
			if removeErr = s.client.RemoveUserBook(ctx, b.entry.ID); removeErr == nil {
				done = !config.DryRun
			} else {
				removeErr = fmt.Errorf("remove %q: %w", b.title, removeErr)
			}
			s.library.Forget(b.bookID)
		}
		row := removeRow(b)
		rep.Add(report.Entry{Title: row.Title, Field: row.Field, Old: row.Old, New: row.New, Applied: done})
	}
	rep.AddError(removeErr)
	writeReport(rep, opts.Report)

	if removeErr != nil {
		return removeErr
	}
	slog.Info("Remove complete", "removed", rep.Counts.Applied, "dry_run", config.DryRun)
	return nil
}

// StatusOptions configures a set-status run.
type StatusOptions struct {
	BookIDs []int
	Status  hardcover.StatusID
	Yes     bool
	Report  bool
}

// SetStatus sets the reading status of the given records on both sides.
// Books missing from the remote library are added with that status.
func SetStatus(ctx context.Context, opts StatusOptions) error {
	if !opts.Status.Valid() {
		return fmt.Errorf("invalid status id %d (valid ids are 1-6)", opts.Status)
	}
	if err := requireToken(); err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	rep := report.New(report.DirectionStatus)
	rep.DryRun = config.DryRun

	books, err := s.linkedBooks(opts.BookIDs, &rep.Counts)
	if err != nil {
		return err
	}
	books, err = s.resolveEntries(ctx, books, &rep.Counts)
	if err != nil {
		return err
	}

	label := convert.StatusLabel(opts.Status)
	var pending []linkedBook
	for _, b := range books {
		if b.entry != nil && b.entry.Status() == opts.Status {
			slog.Info("Status already set", "title", b.title, "status", label)
			continue
		}
		pending = append(pending, b)
	}

	row := func(b linkedBook) tui.Row {
		old := "(not in library)"
		if b.entry != nil {
			old = statusText(b.entry)
		}
		return tui.Row{Title: b.title, Field: "status", Old: old, New: label, Apply: b.apply}
	}
	if err := review("Status changes", pending, opts.Yes, row, setLinkedApply); err != nil {
		return err
	}

	status := opts.Status
	update := hardcover.UserBookUpdate{StatusID: &status}
	var statusErr error
	var local []reconcile.SyncChange
	for _, b := range pending {
		done := false
		if b.apply && statusErr == nil {
			if b.entry == nil {
				_, statusErr = s.client.AddUserBook(ctx, b.bookID, update)
			} else {
				statusErr = s.client.UpdateUserBook(ctx, b.entry.ID, update)
			}
			s.library.Forget(b.bookID)
			if statusErr != nil {
				statusErr = fmt.Errorf("set status of %q: %w", b.title, statusErr)
			} else {
				done = !config.DryRun
				if s.sync.StatusColumn != "" {
					local = append(local, reconcile.SyncChange{
						LocalID: b.localID, LocalTitle: b.title, BookID: b.bookID,
						Field: reconcile.FieldStatus, Column: s.sync.StatusColumn,
						NewValue: statusLabelFor(status, s.sync.StatusMappings), Apply: true,
					})
				}
			}
		}
		r := row(b)
		rep.Add(report.Entry{Title: r.Title, Field: r.Field, Old: r.Old, New: r.New, Applied: done})
	}
	rep.AddError(statusErr)

	if _, err := applySyncFrom(s, local); err != nil {
		rep.AddError(err)
		statusErr = errors.Join(statusErr, err)
	}
	writeReport(rep, opts.Report)

	if statusErr != nil {
		return statusErr
	}
	slog.Info("Status update complete", "updated", rep.Counts.Applied, "status", label, "dry_run", config.DryRun)
	return nil
}

func statusLabelFor(status hardcover.StatusID, mappings map[string]string) string {
	label, _ := convert.StatusFromRemote(status, mappings)
	return label
}
