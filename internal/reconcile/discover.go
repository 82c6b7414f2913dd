package reconcile

import (
	"slices"

	"github.com/lepinkainen/shelfsync/internal/hardcover"
	"github.com/lepinkainen/shelfsync/internal/identity"
)

// FindNewBooks returns remote library entries with no local record. Entries
// without a slug are skipped. A non-empty statuses list keeps only entries
// with one of those status ids.
func FindNewBooks(entries []hardcover.UserBook, idmap *identity.Map, statuses []int) []NewBookAction {
	var actions []NewBookAction

	for i := range entries {
		ub := &entries[i]
		if ub.Book == nil || ub.Book.Slug == "" {
			continue
		}
		if _, linked := idmap.LocalForEntry(ub); linked {
			continue
		}
		if len(statuses) > 0 && !slices.Contains(statuses, int(ub.Status())) {
			continue
		}

		actions = append(actions, NewBookAction{
			BookID:      ub.BookID,
			Slug:        ub.Book.Slug,
			Title:       ub.Book.Title,
			Authors:     ub.Book.AuthorNames(),
			ISBN:        preferredISBN(ub),
			ReleaseDate: ub.Book.ReleaseDate,
			Entry:       ub,
			Apply:       true,
		})
	}

	return actions
}

// preferredISBN picks the user's own edition first, ISBN-13 before ISBN-10.
// Otherwise it takes the first book edition carrying any ISBN.
func preferredISBN(ub *hardcover.UserBook) string {
	if ed := ub.Edition; ed != nil {
		if ed.ISBN13 != "" {
			return ed.ISBN13
		}
		if ed.ISBN10 != "" {
			return ed.ISBN10
		}
	}
	for _, ed := range ub.Book.Editions {
		if ed.ISBN13 != "" {
			return ed.ISBN13
		}
		if ed.ISBN10 != "" {
			return ed.ISBN10
		}
	}
	return ""
}
