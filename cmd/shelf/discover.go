package shelf

import (
	"context"
	"log/slog"

	"github.com/lepinkainen/shelfsync/internal/config"
	"github.com/lepinkainen/shelfsync/internal/convert"
	"github.com/lepinkainen/shelfsync/internal/hardcover"
	"github.com/lepinkainen/shelfsync/internal/reconcile"
	"github.com/lepinkainen/shelfsync/internal/report"
	"github.com/lepinkainen/shelfsync/internal/tui"
)

// DiscoverOptions configures a new-book discovery run.
type DiscoverOptions struct {
	Snapshot string
	// Statuses overrides sync.sync_statuses.
	Statuses []int
	// Apply creates the accepted records. Without it the run only lists them.
	Apply  bool
	Yes    bool
	Report bool
}

func newBookRow(a reconcile.NewBookAction) tui.Row {
	status := "?"
	if a.Entry != nil {
		status = convert.StatusLabel(a.Entry.Status())
	}
	return tui.Row{Title: a.Title, Field: "by " + a.AuthorString(), Old: "(not in catalog)", New: status, Apply: a.Apply}
}

func setNewBookApply(a *reconcile.NewBookAction, apply bool) { a.Apply = apply }

// Discover lists remote library entries with no local record and, with
// Apply, creates and fills a record for each accepted one.
func Discover(ctx context.Context, opts DiscoverOptions) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	entries, err := s.remoteLibrary(ctx, opts.Snapshot)
	if err != nil {
		return err
	}
	idmap, err := s.identityMap()
	if err != nil {
		return err
	}

	statuses := opts.Statuses
	if len(statuses) == 0 {
		statuses = s.sync.SyncStatuses
	}
	actions := reconcile.FindNewBooks(entries, idmap, statuses)
	slog.Info("Found books missing from the catalog", "count", len(actions))

	rep := report.New(report.DirectionDiscover)
	rep.DryRun = config.DryRun || !opts.Apply

	if !opts.Apply || config.DryRun {
		for _, a := range actions {
			slog.Info("Missing book", "title", a.Title, "authors", a.AuthorString(), "slug", a.Slug, "isbn", a.ISBN)
			row := newBookRow(a)
			rep.Add(report.Entry{Title: row.Title, Field: row.Field, Old: row.Old, New: row.New})
		}
		writeReport(rep, opts.Report)
		return nil
	}

	if err := review("Books to add", actions, opts.Yes, newBookRow, setNewBookApply); err != nil {
		return err
	}

	created, applyErr := reconcile.ApplyNewBooks(s.catalog, actions)
	rep.AddError(applyErr)

	n := 0
	for _, a := range actions {
		done := false
		if a.Apply {
			done = n < len(created)
			n++
		}
		row := newBookRow(a)
		rep.Add(report.Entry{Title: row.Title, Field: row.Field, Old: row.Old, New: row.New, Applied: done})
	}

	if applyErr == nil && len(created) > 0 {
		applyErr = fillNewRecords(s, actions)
		rep.AddError(applyErr)
	}
	writeReport(rep, opts.Report)

	if applyErr != nil {
		return applyErr
	}
	slog.Info("Discovery complete", "created", len(created))
	return nil
}

// fillNewRecords copies the reading state of freshly linked entries into
// their new records without a second review.
func fillNewRecords(s *session, actions []reconcile.NewBookAction) error {
	var entries []hardcover.UserBook
	for _, a := range actions {
		if a.Apply && a.Entry != nil {
			entries = append(entries, *a.Entry)
		}
	}

	idmap, err := s.identityMap()
	if err != nil {
		return err
	}
	changes, err := reconcile.FindSyncFromChanges(entries, idmap, s.catalog, s.sync, nil)
	if err != nil {
		return err
	}
	applied, err := applySyncFrom(s, changes)
	if err != nil {
		return err
	}
	slog.Debug("Filled new records", "books", len(entries), "values", applied)
	return nil
}
