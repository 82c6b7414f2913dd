package hardcover

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lepinkainen/shelfsync/internal/cache"
	"github.com/lepinkainen/shelfsync/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFetcher struct {
	entries map[int]*UserBook
	calls   map[int]int
	err     error
}

func (f *countingFetcher) UserBook(_ context.Context, bookID int) (*UserBook, error) {
	if f.calls == nil {
		f.calls = make(map[int]int)
	}
	f.calls[bookID]++
	if f.err != nil {
		return nil, f.err
	}
	return f.entries[bookID], nil
}

func openEntryCache(t *testing.T) *cache.CacheDB {
	t.Helper()
	env := testutil.NewTestEnv(t)
	c, err := cache.Open(env.Path("cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCachedLibraryReusesEntriesAndMisses(t *testing.T) {
	status := StatusRead
	fetcher := &countingFetcher{entries: map[int]*UserBook{
		1: {ID: 10, BookID: 1, StatusID: &status},
	}}
	lib := NewCachedLibrary(fetcher, openEntryCache(t), time.Hour)
	ctx := context.Background()

	for range 2 {
		ub, err := lib.UserBook(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, ub)
		assert.Equal(t, 10, ub.ID)
		assert.Equal(t, StatusRead, *ub.StatusID)

		missing, err := lib.UserBook(ctx, 2)
		require.NoError(t, err)
		assert.Nil(t, missing)
	}

	assert.Equal(t, 1, fetcher.calls[1])
	assert.Equal(t, 1, fetcher.calls[2], "books outside the library are cached too")
}

func TestCachedLibraryForgetRefetches(t *testing.T) {
	fetcher := &countingFetcher{entries: map[int]*UserBook{1: {ID: 10, BookID: 1}}}
	lib := NewCachedLibrary(fetcher, openEntryCache(t), 0)
	ctx := context.Background()

	_, err := lib.UserBook(ctx, 1)
	require.NoError(t, err)

	fetcher.entries[1] = &UserBook{ID: 11, BookID: 1}
	lib.Forget(1)

	ub, err := lib.UserBook(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 11, ub.ID)
	assert.Equal(t, 2, fetcher.calls[1])
}

func TestCachedLibraryRememberWarmsCache(t *testing.T) {
	fetcher := &countingFetcher{}
	lib := NewCachedLibrary(fetcher, openEntryCache(t), time.Hour)

	lib.Remember([]UserBook{{ID: 20, BookID: 2}, {ID: 30, BookID: 3}})

	ub, err := lib.UserBook(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, ub)
	assert.Equal(t, 30, ub.ID)
	assert.Zero(t, fetcher.calls[3])
}

func TestCachedLibraryDoesNotCacheErrors(t *testing.T) {
	fetcher := &countingFetcher{err: errors.New("boom")}
	lib := NewCachedLibrary(fetcher, openEntryCache(t), time.Hour)
	ctx := context.Background()

	_, err := lib.UserBook(ctx, 1)
	require.Error(t, err)

	fetcher.err = nil
	fetcher.entries = map[int]*UserBook{1: {ID: 10, BookID: 1}}
	ub, err := lib.UserBook(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, ub.ID)
}

func TestCachedLibraryWithoutCache(t *testing.T) {
	fetcher := &countingFetcher{entries: map[int]*UserBook{1: {ID: 10, BookID: 1}}}
	lib := NewCachedLibrary(fetcher, nil, time.Hour)

	lib.Remember([]UserBook{{ID: 10, BookID: 1}})
	lib.Forget(1)
	for range 2 {
		_, err := lib.UserBook(context.Background(), 1)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, fetcher.calls[1])
}

func TestNewCachedLibraryCapsTTL(t *testing.T) {
	assert.Equal(t, EntryCacheTTL, NewCachedLibrary(nil, nil, 24*time.Hour).ttl)
	assert.Equal(t, time.Minute, NewCachedLibrary(nil, nil, time.Minute).ttl)
}
