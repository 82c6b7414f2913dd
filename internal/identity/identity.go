// Package identity links local catalog records to remote books.
package identity

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lepinkainen/shelfsync/internal/hardcover"
)

// Identifier keys stored per local record. KeyBook holds the numeric
// remote book id and KeySlug the book's slug. Slugs can be all digits, so
// a slug is never stored under KeyBook.
const (
	KeyBook    = "hardcover"
	KeySlug    = "hardcover-slug"
	KeyEdition = "hardcover-edition"
)

// ParseBookID parses a stored identifier as a numeric remote book id.
// Slugs and malformed values are not ids.
func ParseBookID(identifier string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(identifier))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ParseEditionID returns the edition id stored under KeyEdition.
func ParseEditionID(identifiers map[string]string) (int, bool) {
	return ParseBookID(identifiers[KeyEdition])
}

// Link is the remote book a local record points at. Either part may be
// missing.
type Link struct {
	BookID int
	Slug   string
}

// Valid reports whether the link names a remote book at all.
func (l Link) Valid() bool {
	return l.BookID > 0 || l.Slug != ""
}

// String is the display form: the slug when known, the book id otherwise.
func (l Link) String() string {
	if l.Slug != "" {
		return l.Slug
	}
	if l.BookID > 0 {
		return strconv.Itoa(l.BookID)
	}
	return ""
}

// LinkOf reads the link stored in a record's identifiers. A numeric
// KeyBook value is the book id; any other value there is taken as a slug,
// which is how hand-entered links look. KeySlug wins over such a value.
func LinkOf(identifiers map[string]string) (Link, bool) {
	var link Link
	stored := strings.TrimSpace(identifiers[KeyBook])
	if id, ok := ParseBookID(stored); ok {
		link.BookID = id
	} else {
		link.Slug = stored
	}
	if slug := strings.TrimSpace(identifiers[KeySlug]); slug != "" {
		link.Slug = slug
	}
	return link, link.Valid()
}

// ParseLink reads a single stored identifier the way LinkOf reads KeyBook.
func ParseLink(identifier string) (Link, bool) {
	return LinkOf(map[string]string{KeyBook: identifier})
}

// SetFunc stores one identifier of a record. An empty value removes it.
type SetFunc func(key, value string) error

// Store writes link and the edition id. A zero edition clears any edition
// stored before.
func Store(set SetFunc, link Link, editionID int) error {
	book, slug := link.Slug, ""
	if link.BookID > 0 {
		book, slug = strconv.Itoa(link.BookID), link.Slug
	}
	if err := set(KeyBook, book); err != nil {
		return err
	}
	if err := set(KeySlug, slug); err != nil {
		return err
	}

	edition := ""
	if editionID > 0 {
		edition = strconv.Itoa(editionID)
	}
	return set(KeyEdition, edition)
}

// Clear removes every stored link identifier.
func Clear(set SetFunc) error {
	for _, key := range []string{KeyBook, KeySlug, KeyEdition} {
		if err := set(key, ""); err != nil {
			return err
		}
	}
	return nil
}

// Map is the bidirectional correspondence between local record ids and
// remote books. Records may be linked by slug, by numeric book id or both.
type Map struct {
	bySlug   map[string]int
	byBookID map[int]int
	byLocal  map[int]Link
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{
		bySlug:   make(map[string]int),
		byBookID: make(map[int]int),
		byLocal:  make(map[int]Link),
	}
}

// AddLink links localID to a remote book. Invalid links are ignored.
func (m *Map) AddLink(link Link, localID int) {
	if !link.Valid() {
		return
	}
	if link.Slug != "" {
		m.bySlug[link.Slug] = localID
	}
	if link.BookID > 0 {
		m.byBookID[link.BookID] = localID
	}
	m.byLocal[localID] = link
}

// Add links localID to a single identifier, read as by ParseLink.
func (m *Map) Add(identifier string, localID int) {
	if link, ok := ParseLink(identifier); ok {
		m.AddLink(link, localID)
	}
}

// Build reads the stored link of every local record. Records without one
// are left out.
func Build(ids []int, identifiers func(id int) (map[string]string, error)) (*Map, error) {
	m := NewMap()
	for _, id := range ids {
		stored, err := identifiers(id)
		if err != nil {
			return nil, fmt.Errorf("read identifiers of record %d: %w", id, err)
		}
		if link, ok := LinkOf(stored); ok {
			m.AddLink(link, id)
		}
	}
	return m, nil
}

// Local returns the local record linked to slug.
func (m *Map) Local(slug string) (int, bool) {
	if slug == "" {
		return 0, false
	}
	id, ok := m.bySlug[slug]
	return id, ok
}

// LocalForBook returns the local record linked to a remote book, by slug
// first and by numeric id second.
func (m *Map) LocalForBook(bookID int, slug string) (int, bool) {
	if id, ok := m.Local(slug); ok {
		return id, true
	}
	id, ok := m.byBookID[bookID]
	return id, ok
}

// LocalForEntry is LocalForBook for a library entry.
func (m *Map) LocalForEntry(ub *hardcover.UserBook) (int, bool) {
	return m.LocalForBook(ub.BookID, ub.Slug())
}

// Link returns the stored link of a local record.
func (m *Map) Link(localID int) (Link, bool) {
	l, ok := m.byLocal[localID]
	return l, ok
}

// Len is the number of linked local records.
func (m *Map) Len() int {
	return len(m.byLocal)
}
