package reconcile

import (
	"fmt"
	"log/slog"

	"github.com/lepinkainen/shelfsync/internal/config"
	"github.com/lepinkainen/shelfsync/internal/convert"
	"github.com/lepinkainen/shelfsync/internal/hardcover"
	"github.com/lepinkainen/shelfsync/internal/identity"
)

// FindSyncFromChanges compares each remote library entry against its linked
// local record. Entries keep their input order and fields are compared in
// Fields order. Entries without a local record are skipped. A local value
// that cannot be read as its field's type aborts the diff.
func FindSyncFromChanges(entries []hardcover.UserBook, idmap *identity.Map, reader LocalReader, cfg config.Sync, onProgress ProgressFunc) ([]SyncChange, error) {
	var changes []SyncChange

	for i := range entries {
		ub := &entries[i]
		report(onProgress, i+1, len(entries))

		localID, ok := idmap.LocalForEntry(ub)
		if !ok {
			slog.Debug("Skipping unlinked entry", "book_id", ub.BookID, "slug", ub.Slug())
			continue
		}
		title := reader.Title(localID)

		for _, field := range Fields {
			column := cfg.Column(field.String())
			r, ok := fromRules[field]
			if column == "" || !ok || !r.gated(cfg) {
				continue
			}

			e := &env{cfg: cfg, column: column, meta: reader.ColumnMetadata(column)}
			read := func() (any, error) { return reader.Value(localID, column) }

			d, changed, err := r.fromRemote(e, ub, read)
			if err != nil {
				return nil, fmt.Errorf("%s of %q (record %d): %w", field, title, localID, err)
			}
			if !changed {
				continue
			}

			change := SyncChange{
				LocalID:    localID,
				LocalTitle: title,
				BookID:     ub.BookID,
				Field:      field,
				Column:     column,
				OldValue:   d.old,
				NewValue:   d.new,
				Apply:      true,
			}
			if d.raw {
				raw := convert.FormatValue(d.value)
				change.RawValue = &raw
			}
			changes = append(changes, change)
		}
	}

	return changes, nil
}
