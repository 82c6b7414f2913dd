package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lepinkainen/shelfsync/internal/config"
	apperrors "github.com/lepinkainen/shelfsync/internal/errors"
	"github.com/lepinkainen/shelfsync/internal/hardcover"
	"github.com/lepinkainen/shelfsync/internal/identity"
)

// FindSyncToChanges compares local records against their remote library
// entries. Records without a stored link, or whose link does not resolve,
// count as not linked. A failed entry fetch counts as an API
// error and the record is compared as if it were not in the library.
// Authentication failures and unreadable local values abort the diff.
func FindSyncToChanges(ctx context.Context, bookIDs []int, reader LocalReader, resolver BookResolver, fetcher EntryFetcher, cfg config.Sync, onProgress ProgressFunc) (*SyncToResult, error) {
	result := &SyncToResult{Entries: make(map[int]*hardcover.UserBook)}

	for i, localID := range bookIDs {
		report(onProgress, i+1, len(bookIDs))

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		identifiers, err := reader.Identifiers(localID)
		if err != nil {
			return nil, fmt.Errorf("read identifiers of record %d: %w", localID, err)
		}
		link, ok := identity.LinkOf(identifiers)
		if !ok {
			result.NotLinkedCount++
			continue
		}

		book, err := resolver.ResolveBook(ctx, link)
		if err != nil {
			if apperrors.IsAuthenticationError(err) {
				return nil, err
			}
			slog.Debug("Failed to resolve link", "record", localID, "link", link.String(), "error", err)
			result.APIErrors++
			result.NotLinkedCount++
			continue
		}
		if book == nil {
			result.NotLinkedCount++
			continue
		}
		result.LinkedCount++

		ub, err := fetcher.UserBook(ctx, book.ID)
		if err != nil {
			if apperrors.IsAuthenticationError(err) {
				return nil, err
			}
			slog.Debug("Failed to fetch library entry", "record", localID, "book_id", book.ID, "error", err)
			result.APIErrors++
			ub = nil
		}
		result.Entries[book.ID] = ub

		changes, err := diffToRemote(localID, reader, book.ID, ub, cfg)
		if err != nil {
			return nil, err
		}
		if len(changes) > 0 {
			result.BooksWithChanges++
			result.Changes = append(result.Changes, changes...)
		}
	}

	return result, nil
}

func diffToRemote(localID int, reader LocalReader, bookID int, ub *hardcover.UserBook, cfg config.Sync) ([]SyncToChange, error) {
	var userBookID *int
	if ub != nil {
		id := ub.ID
		userBookID = &id
	}

	title := reader.Title(localID)
	var changes []SyncToChange

	for _, field := range Fields {
		column := cfg.Column(field.String())
		r, ok := toRules[field]
		if column == "" || !ok || !r.gated(cfg) {
			continue
		}

		cur, err := reader.Value(localID, column)
		if err != nil {
			return nil, fmt.Errorf("read %s of record %d: %w", column, localID, err)
		}

		e := &env{cfg: cfg, column: column, meta: reader.ColumnMetadata(column)}
		d, changed, err := r.toRemote(e, ub, cur)
		if err != nil {
			return nil, fmt.Errorf("%s of %q (record %d): %w", field, title, localID, err)
		}
		if !changed {
			continue
		}

		changes = append(changes, SyncToChange{
			LocalID:    localID,
			LocalTitle: title,
			BookID:     bookID,
			UserBookID: userBookID,
			Field:      field,
			OldValue:   d.old,
			NewValue:   d.new,
			APIValue:   d.value,
			Apply:      true,
		})
	}

	return changes, nil
}
