package shelf

import (
	"context"
	"log/slog"
	"slices"

	"github.com/lepinkainen/shelfsync/internal/config"
	"github.com/lepinkainen/shelfsync/internal/reconcile"
	"github.com/lepinkainen/shelfsync/internal/report"
	"github.com/lepinkainen/shelfsync/internal/tui"
)

// SyncToOptions configures a local to remote run.
type SyncToOptions struct {
	// BookIDs limits the run to these local records. Empty means all.
	BookIDs []int
	Yes     bool
	Report  bool
}

func syncToChangeRow(c reconcile.SyncToChange) tui.Row {
	return tui.Row{Title: c.LocalTitle, Field: c.DisplayField(), Old: c.OldValue, New: c.NewValue, Apply: c.Apply}
}

func setSyncToChangeApply(c *reconcile.SyncToChange, apply bool) { c.Apply = apply }

// SyncTo sends local reading state to the remote library.
func SyncTo(ctx context.Context, opts SyncToOptions) error {
	if err := requireToken(); err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ids := opts.BookIDs
	if len(ids) == 0 {
		if ids, err = s.catalog.BookIDs(); err != nil {
			return err
		}
	}
	s.warnUnmapped()

	result, err := reconcile.FindSyncToChanges(ctx, ids, s.catalog, s.resolver, s.library, s.sync, logProgress("Comparing local books"))
	if err != nil {
		return err
	}
	slog.Info("Compared local books",
		"linked", result.LinkedCount,
		"not_linked", result.NotLinkedCount,
		"api_errors", result.APIErrors,
		"books_with_changes", result.BooksWithChanges,
		"changes", len(result.Changes),
	)

	if err := review("Changes to Hardcover", result.Changes, opts.Yes, syncToChangeRow, setSyncToChangeApply); err != nil {
		return err
	}

	rep := report.New(report.DirectionTo)
	rep.DryRun = config.DryRun
	rep.Counts.Linked = result.LinkedCount
	rep.Counts.NotLinked = result.NotLinkedCount
	rep.Counts.APIErrors = result.APIErrors

	updates, err := reconcile.PlanRemoteUpdates(result.Changes, result.Entries)
	if err != nil {
		return err
	}
	res, applyErr := reconcile.ApplyRemote(ctx, s.client, updates)
	for _, u := range updates {
		s.library.Forget(u.BookID)
	}
	for _, e := range res.Errors {
		rep.AddError(e)
	}
	rep.AddError(applyErr)

	for _, c := range result.Changes {
		done := c.Apply && !config.DryRun && slices.Contains(res.AppliedBooks, c.BookID)
		rep.Add(report.Entry{Title: c.LocalTitle, Field: c.DisplayField(), Old: c.OldValue, New: c.NewValue, Applied: done})
	}
	writeReport(rep, opts.Report)

	if applyErr != nil {
		return applyErr
	}
	slog.Info("Sync to Hardcover complete", "books_updated", res.Applied, "books_failed", res.Failed, "dry_run", config.DryRun)
	return nil
}
