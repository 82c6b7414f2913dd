package shelf

import (
	"context"
	"log/slog"

	"github.com/lepinkainen/shelfsync/internal/config"
	"github.com/lepinkainen/shelfsync/internal/reconcile"
	"github.com/lepinkainen/shelfsync/internal/report"
	"github.com/lepinkainen/shelfsync/internal/tui"
)

// SyncFromOptions configures a remote to local run.
type SyncFromOptions struct {
	// Snapshot reads the remote library from a file instead of the service.
	Snapshot string
	Yes      bool
	Report   bool
}

func syncChangeRow(c reconcile.SyncChange) tui.Row {
	return tui.Row{Title: c.LocalTitle, Field: c.DisplayField(), Old: c.OldValue, New: c.NewValue, Apply: c.Apply}
}

func setSyncChangeApply(c *reconcile.SyncChange, apply bool) { c.Apply = apply }

// SyncFrom copies reading state from the remote library into linked local
// records.
func SyncFrom(ctx context.Context, opts SyncFromOptions) error {
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
	s.warnUnmapped()

	changes, err := reconcile.FindSyncFromChanges(entries, idmap, s.catalog, s.sync, logProgress("Comparing library entries"))
	if err != nil {
		return err
	}
	slog.Info("Compared library", "entries", len(entries), "linked", idmap.Len(), "changes", len(changes))

	if err := review("Changes from Hardcover", changes, opts.Yes, syncChangeRow, setSyncChangeApply); err != nil {
		return err
	}

	rep := report.New(report.DirectionFrom)
	rep.DryRun = config.DryRun
	applied, applyErr := applySyncFrom(s, changes)
	rep.AddError(applyErr)

	n := 0
	for _, c := range changes {
		done := false
		if c.Apply {
			done = n < applied
			n++
		}
		rep.Add(report.Entry{Title: c.LocalTitle, Field: c.DisplayField(), Old: c.OldValue, New: c.NewValue, Applied: done})
	}
	writeReport(rep, opts.Report)

	if applyErr != nil {
		return applyErr
	}
	slog.Info("Sync from Hardcover complete", "applied", applied, "skipped", len(changes)-applied, "dry_run", config.DryRun)
	return nil
}

// applySyncFrom stores the accepted changes and returns how many were
// written, in change order.
func applySyncFrom(s *session, changes []reconcile.SyncChange) (int, error) {
	writes, err := reconcile.PlanLocalWrites(changes, s.catalog.ColumnMetadata)
	if err != nil {
		return 0, err
	}
	if config.DryRun {
		for _, w := range writes {
			slog.Info("Dry run: skipping local write", "record", w.LocalID, "column", w.Column, "value", w.Value)
		}
		return 0, nil
	}
	res, err := reconcile.ApplyLocal(s.catalog, writes)
	return res.Applied, err
}
