package reconcile

import (
	"testing"

	"github.com/lepinkainen/shelfsync/internal/hardcover"
	"github.com/lepinkainen/shelfsync/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindNewBooks(t *testing.T) {
	linked := entry(1, 10, "linked")
	linked.StatusID = ptr(hardcover.StatusRead)

	linkedByID := entry(2, 20, "renamed-slug")
	linkedByID.StatusID = ptr(hardcover.StatusRead)

	noSlug := entry(3, 30, "")

	fresh := entry(4, 40, "fresh")
	fresh.StatusID = ptr(hardcover.StatusWantToRead)
	fresh.EditionID = ptr(400)
	fresh.Book.Title = "Fresh"
	fresh.Book.ReleaseDate = "2021-05-04"
	fresh.Book.Contributions = []hardcover.Contribution{
		{Author: &hardcover.Author{Name: "Ann Leckie"}},
		{},
		{Author: &hardcover.Author{Name: "Someone Else"}},
	}

	reading := entry(5, 50, "reading")
	reading.StatusID = ptr(hardcover.StatusCurrentlyReading)

	idmap := identity.NewMap()
	idmap.Add("linked", 100)
	idmap.Add("20", 200)

	entries := []hardcover.UserBook{linked, linkedByID, noSlug, fresh, reading}

	actions := FindNewBooks(entries, idmap, nil)
	require.Len(t, actions, 2)

	a := actions[0]
	assert.Equal(t, 40, a.BookID)
	assert.Equal(t, "fresh", a.Slug)
	assert.Equal(t, "Fresh", a.Title)
	assert.Equal(t, "2021-05-04", a.ReleaseDate)
	assert.Equal(t, "Ann Leckie, Someone Else", a.AuthorString())
	assert.True(t, a.Apply)
	require.NotNil(t, a.Entry)
	assert.Equal(t, 4, a.Entry.ID)

	assert.Equal(t, "reading", actions[1].Slug)
	assert.Equal(t, "Unknown", actions[1].AuthorString())

	filtered := FindNewBooks(entries, idmap, []int{int(hardcover.StatusCurrentlyReading)})
	require.Len(t, filtered, 1)
	assert.Equal(t, "reading", filtered[0].Slug)

	assert.Empty(t, FindNewBooks(entries, idmap, []int{int(hardcover.StatusDidNotFinish)}))
}

func TestPreferredISBN(t *testing.T) {
	tests := []struct {
		name     string
		edition  *hardcover.Edition
		editions []hardcover.Edition
		want     string
	}{
		{
			name:     "own edition isbn13",
			edition:  &hardcover.Edition{ISBN13: "9780316246620", ISBN10: "0316246620"},
			editions: []hardcover.Edition{{ISBN13: "9780000000001"}},
			want:     "9780316246620",
		},
		{
			name:     "own edition isbn10 beats book editions",
			edition:  &hardcover.Edition{ISBN10: "0316246620"},
			editions: []hardcover.Edition{{ISBN13: "9780000000001"}},
			want:     "0316246620",
		},
		{
			name:     "first book edition with any isbn",
			edition:  &hardcover.Edition{},
			editions: []hardcover.Edition{{}, {ISBN10: "0000000002"}, {ISBN13: "9780000000003"}},
			want:     "0000000002",
		},
		{
			name:     "book edition prefers its isbn13",
			editions: []hardcover.Edition{{ISBN13: "9780000000004", ISBN10: "0000000004"}},
			want:     "9780000000004",
		},
		{
			name: "none",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ub := entry(1, 10, "x")
			ub.Edition = tt.edition
			ub.Book.Editions = tt.editions
			assert.Equal(t, tt.want, preferredISBN(&ub))

			actions := FindNewBooks([]hardcover.UserBook{ub}, identity.NewMap(), nil)
			require.Len(t, actions, 1)
			assert.Equal(t, tt.want, actions[0].ISBN)
		})
	}
}
