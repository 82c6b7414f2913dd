package shelf

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/lepinkainen/shelfsync/internal/config"
	apperrors "github.com/lepinkainen/shelfsync/internal/errors"
	"github.com/lepinkainen/shelfsync/internal/hardcover"
	"github.com/lepinkainen/shelfsync/internal/identity"
	"github.com/lepinkainen/shelfsync/internal/report"
	"github.com/lepinkainen/shelfsync/internal/tui"
)

// LinkOptions configures a linking run.
type LinkOptions struct {
	Yes    bool
	Report bool
}

// linkCandidate is an unlinked record whose ISBN matched a remote book.
type linkCandidate struct {
	localID int
	title   string
	isbn    string
	book    *hardcover.Book
	apply   bool
}

func (c linkCandidate) link() identity.Link {
	return identity.Link{BookID: c.book.ID, Slug: c.book.Slug}
}

func (c linkCandidate) editionID() int {
	if len(c.book.Editions) > 0 {
		return c.book.Editions[0].ID
	}
	return 0
}

func linkRow(c linkCandidate) tui.Row {
	return tui.Row{Title: c.title, Field: "ISBN " + c.isbn, Old: "(not linked)", New: c.link().String(), Apply: c.apply}
}

func setLinkApply(c *linkCandidate, apply bool) { c.apply = apply }

// Link stores a remote book identifier on every unlinked record whose ISBN
// matches exactly one remote edition.
func Link(ctx context.Context, opts LinkOptions) error {
	if err := requireToken(); err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	rep := report.New(report.DirectionLink)
	rep.DryRun = config.DryRun

	candidates, err := findLinks(ctx, s, &rep.Counts)
	if err != nil {
		return err
	}
	slog.Info("Matched unlinked books", "matched", len(candidates), "not_linked", rep.Counts.NotLinked, "api_errors", rep.Counts.APIErrors)

	if err := review("Books to link", candidates, opts.Yes, linkRow, setLinkApply); err != nil {
		return err
	}

	var linkErr error
	for _, c := range candidates {
		done := false
		if c.apply && !config.DryRun && linkErr == nil {
			if linkErr = storeLink(s, c); linkErr == nil {
				done = true
			}
		}
		row := linkRow(c)
		rep.Add(report.Entry{Title: row.Title, Field: row.Field, Old: row.Old, New: row.New, Applied: done})
	}
	rep.AddError(linkErr)
	writeReport(rep, opts.Report)

	if linkErr != nil {
		return linkErr
	}
	slog.Info("Linking complete", "linked", rep.Counts.Applied)
	return nil
}

// isbnLookups is how many ISBN lookups run at once. The client's rate
// limiter still paces the requests themselves.
const isbnLookups = 4

// findLinks looks up the ISBN of every record that has no stored remote
// link yet.
func findLinks(ctx context.Context, s *session, counts *report.Counts) ([]linkCandidate, error) {
	ids, err := s.catalog.BookIDs()
	if err != nil {
		return nil, err
	}

	var pending []linkCandidate
	for _, id := range ids {
		identifiers, err := s.catalog.Identifiers(id)
		if err != nil {
			return nil, err
		}
		if _, ok := identity.LinkOf(identifiers); ok {
			counts.Linked++
			continue
		}

		book, err := s.catalog.Book(id)
		if err != nil {
			return nil, err
		}
		if book.ISBN == "" {
			counts.NotLinked++
			continue
		}
		pending = append(pending, linkCandidate{localID: id, title: book.Title, isbn: book.ISBN, apply: true})
	}

	failed := make([]bool, len(pending))
	progress := logProgress("Matching ISBNs")
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(isbnLookups)
	for i := range pending {
		c := &pending[i]
		g.Go(func() error {
			defer func() { progress(int(done.Add(1)), len(pending)) }()

			match, isbn, err := s.resolver.MatchISBN(gctx, []string{c.isbn})
			if err != nil {
				if apperrors.IsAuthenticationError(err) || apperrors.IsRateLimitError(err) {
					return err
				}
				slog.Debug("ISBN lookup failed", "record", c.localID, "isbn", c.isbn, "error", err)
				failed[i] = true
				return nil
			}
			if match != nil {
				c.book, c.isbn = match, isbn
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var candidates []linkCandidate
	for i, c := range pending {
		if failed[i] {
			counts.APIErrors++
		}
		if c.book == nil {
			counts.NotLinked++
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

func storeLink(s *session, c linkCandidate) error {
	set := func(key, value string) error {
		return s.catalog.SetIdentifier(c.localID, key, value)
	}
	if err := identity.Store(set, c.link(), c.editionID()); err != nil {
		return fmt.Errorf("link %q: %w", c.title, err)
	}
	return nil
}
