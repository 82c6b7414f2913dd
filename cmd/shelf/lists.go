package shelf

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lepinkainen/shelfsync/internal/config"
	"github.com/lepinkainen/shelfsync/internal/hardcover"
	"github.com/lepinkainen/shelfsync/internal/report"
)

// ListsOptions configures a list membership run. With ListID zero the run
// only shows lists; Add and Remove pick the change.
type ListsOptions struct {
	BookIDs []int
	ListID  int
	Add     bool
	Remove  bool
	Report  bool
}

// Lists shows the user's lists and, for the given records, which lists
// they are in. With Add or Remove it changes the membership of the given
// records in ListID instead.
func Lists(ctx context.Context, opts ListsOptions) error {
	if opts.Add && opts.Remove {
		return fmt.Errorf("choose either add or remove")
	}
	if (opts.Add || opts.Remove) && opts.ListID <= 0 {
		return fmt.Errorf("a list id is required (provide via --list)")
	}
	if err := requireToken(); err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if !opts.Add && !opts.Remove {
		return showLists(ctx, s, opts.BookIDs)
	}
	return changeLists(ctx, s, opts)
}

func showLists(ctx context.Context, s *session, bookIDs []int) error {
	lists, err := s.client.Lists(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch lists: %w", err)
	}
	for _, l := range lists {
		slog.Info("List", "id", l.ID, "name", l.Name, "books", l.BooksCount)
	}
	if len(bookIDs) == 0 {
		return nil
	}

	var counts report.Counts
	books, err := s.linkedBooks(bookIDs, &counts)
	if err != nil {
		return err
	}
	books, err = s.resolveEntries(ctx, books, &counts)
	if err != nil {
		return err
	}
	for _, b := range books {
		memberships, err := s.client.BookLists(ctx, b.bookID)
		if err != nil {
			return fmt.Errorf("lists of %q: %w", b.title, err)
		}
		names := make([]string, len(memberships))
		for i, m := range memberships {
			names[i] = m.Name()
		}
		slog.Info("List membership", "title", b.title, "lists", strings.Join(names, ", "))
	}
	return nil
}

func changeLists(ctx context.Context, s *session, opts ListsOptions) error {
	rep := report.New(report.DirectionLists)
	rep.DryRun = config.DryRun

	books, err := s.linkedBooks(opts.BookIDs, &rep.Counts)
	if err != nil {
		return err
	}
	books, err = s.resolveEntries(ctx, books, &rep.Counts)
	if err != nil {
		return err
	}

	var listErr error
	for _, b := range books {
		if listErr != nil {
			break
		}
		memberships, err := s.client.BookLists(ctx, b.bookID)
		if err != nil {
			listErr = fmt.Errorf("lists of %q: %w", b.title, err)
			break
		}
		member := membership(memberships, opts.ListID)
		field := fmt.Sprintf("list %d", opts.ListID)
		if member != nil {
			field = member.Name()
		}

		entry := report.Entry{Title: b.title, Field: field}
		switch {
		case opts.Add && member != nil, opts.Remove && member == nil:
			slog.Info("List membership already as requested", "title", b.title, "list", field)
			continue
		case opts.Add:
			entry.Old, entry.New = "(not in list)", "(in list)"
			_, listErr = s.client.AddBookToList(ctx, opts.ListID, b.bookID)
		default:
			entry.Old, entry.New = "(in list)", "(not in list)"
			listErr = s.client.RemoveBookFromList(ctx, member.ID)
		}
		if listErr != nil {
			listErr = fmt.Errorf("%s %q: %w", field, b.title, listErr)
		}
		entry.Applied = listErr == nil && !config.DryRun
		rep.Add(entry)
	}
	rep.AddError(listErr)
	writeReport(rep, opts.Report)

	if listErr != nil {
		return listErr
	}
	slog.Info("List update complete", "list", opts.ListID, "changed", rep.Counts.Applied, "dry_run", config.DryRun)
	return nil
}

func membership(memberships []hardcover.ListBook, listID int) *hardcover.ListBook {
	for i := range memberships {
		if memberships[i].ListID == listID {
			return &memberships[i]
		}
	}
	return nil
}
