// Package hardcover models the remote book-cataloging service and provides
// a small GraphQL client for it.
package hardcover

import (
	"fmt"
	"strings"
)

// StatusID is one of the six reading states the remote service knows about.
type StatusID int

const (
	StatusWantToRead       StatusID = 1
	StatusCurrentlyReading StatusID = 2
	StatusRead             StatusID = 3
	StatusPaused           StatusID = 4
	StatusDidNotFinish     StatusID = 5
	StatusIgnored          StatusID = 6
)

// Valid reports whether s is one of the defined statuses.
func (s StatusID) Valid() bool {
	return s >= StatusWantToRead && s <= StatusIgnored
}

// CleanISBN removes dashes and spaces from an ISBN.
func CleanISBN(isbn string) string {
	isbn = strings.ReplaceAll(isbn, "-", "")
	return strings.ReplaceAll(isbn, " ", "")
}

// User is the authenticated account.
type User struct {
	ID         int    `json:"id"`
	Username   string `json:"username"`
	Name       string `json:"name,omitempty"`
	BooksCount int    `json:"books_count"`
	Image      string `json:"image,omitempty"`
}

// Author is a book contributor.
type Author struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Contribution wraps an author the way the API nests it.
type Contribution struct {
	Author *Author `json:"author"`
}

// Edition is one published edition of a book.
type Edition struct {
	ID     int    `json:"id"`
	ISBN13 string `json:"isbn_13,omitempty"`
	ISBN10 string `json:"isbn_10,omitempty"`
	Title  string `json:"title,omitempty"`
	Pages  int    `json:"pages,omitempty"`
}

// Book is a work on the remote service. Slug is the cross-system join key.
type Book struct {
	ID            int            `json:"id"`
	Title         string         `json:"title"`
	Slug          string         `json:"slug,omitempty"`
	ReleaseDate   string         `json:"release_date,omitempty"`
	Contributions []Contribution `json:"contributions,omitempty"`
	Editions      []Edition      `json:"editions,omitempty"`
}

// Authors returns the contributing authors, skipping empty contributions.
func (b *Book) Authors() []Author {
	if b == nil {
		return nil
	}
	authors := make([]Author, 0, len(b.Contributions))
	for _, c := range b.Contributions {
		if c.Author != nil {
			authors = append(authors, *c.Author)
		}
	}
	return authors
}

// AuthorNames returns the names of the contributing authors.
func (b *Book) AuthorNames() []string {
	authors := b.Authors()
	if len(authors) == 0 {
		return nil
	}
	names := make([]string, len(authors))
	for i, a := range authors {
		names[i] = a.Name
	}
	return names
}

// UserBookRead is one reading session. A book can be read several times.
type UserBookRead struct {
	ID            int      `json:"id"`
	StartedAt     *string  `json:"started_at,omitempty"`
	FinishedAt    *string  `json:"finished_at,omitempty"`
	PausedAt      *string  `json:"paused_at,omitempty"`
	Progress      *float64 `json:"progress,omitempty"` // 0.0-1.0
	ProgressPages *int     `json:"progress_pages,omitempty"`
	EditionID     *int     `json:"edition_id,omitempty"`
}

// ProgressPercent returns the session progress in the 0-100 range.
func (r *UserBookRead) ProgressPercent() *float64 {
	if r == nil || r.Progress == nil {
		return nil
	}
	pct := *r.Progress * 100
	return &pct
}

// UserBook is one (user, book) relationship in the remote library.
// Reads are ordered most recent first.
type UserBook struct {
	ID        int            `json:"id"`
	BookID    int            `json:"book_id"`
	EditionID *int           `json:"edition_id,omitempty"`
	StatusID  *StatusID      `json:"status_id,omitempty"`
	Rating    *float64       `json:"rating,omitempty"`
	Review    *string        `json:"review_raw,omitempty"`
	CreatedAt string         `json:"created_at,omitempty"`
	UpdatedAt string         `json:"updated_at,omitempty"`
	Book      *Book          `json:"book,omitempty"`
	Edition   *Edition       `json:"edition,omitempty"`
	Reads     []UserBookRead `json:"user_book_reads,omitempty"`
}

// Validate checks the invariants the service guarantees for an entry.
func (ub *UserBook) Validate() error {
	if ub.Rating != nil && (*ub.Rating < 0 || *ub.Rating > 5) {
		return fmt.Errorf("user book %d: rating %.2f outside 0-5", ub.ID, *ub.Rating)
	}
	if ub.StatusID != nil && !ub.StatusID.Valid() {
		return fmt.Errorf("user book %d: unknown status id %d", ub.ID, *ub.StatusID)
	}
	return nil
}

// Slug returns the slug of the attached book, or "" when it is unknown.
func (ub *UserBook) Slug() string {
	if ub.Book == nil {
		return ""
	}
	return ub.Book.Slug
}

// Status returns the status id, or 0 when none is set.
func (ub *UserBook) Status() StatusID {
	if ub == nil || ub.StatusID == nil {
		return 0
	}
	return *ub.StatusID
}

// LatestRead returns the most recent reading session.
func (ub *UserBook) LatestRead() *UserBookRead {
	if ub == nil || len(ub.Reads) == 0 {
		return nil
	}
	return &ub.Reads[0]
}

// LatestStartedAt is the start timestamp of the most recent read.
func (ub *UserBook) LatestStartedAt() *string {
	if read := ub.LatestRead(); read != nil {
		return read.StartedAt
	}
	return nil
}

// LatestFinishedAt is the finish timestamp of the most recent read.
func (ub *UserBook) LatestFinishedAt() *string {
	if read := ub.LatestRead(); read != nil {
		return read.FinishedAt
	}
	return nil
}

// CurrentProgressPages is the page progress of the most recent read.
func (ub *UserBook) CurrentProgressPages() *int {
	if read := ub.LatestRead(); read != nil {
		return read.ProgressPages
	}
	return nil
}

// CurrentProgress is the 0-1 progress of the most recent read.
func (ub *UserBook) CurrentProgress() *float64 {
	if read := ub.LatestRead(); read != nil {
		return read.Progress
	}
	return nil
}

// CurrentProgressPercent is the 0-100 progress of the most recent read.
func (ub *UserBook) CurrentProgressPercent() *float64 {
	return ub.LatestRead().ProgressPercent()
}

// List is a user-curated list of books.
type List struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
	BooksCount  int    `json:"books_count"`
}

// ListBook is one book's membership in a list. ID is what removal needs.
type ListBook struct {
	ID     int   `json:"id"`
	ListID int   `json:"list_id"`
	List   *List `json:"list,omitempty"`
}

// Name returns the list name, or the list id when the list is not attached.
func (lb ListBook) Name() string {
	if lb.List != nil && lb.List.Name != "" {
		return lb.List.Name
	}
	return fmt.Sprintf("list %d", lb.ListID)
}
