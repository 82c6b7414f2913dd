package hardcover

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/lepinkainen/shelfsync/internal/cache"
)

// EntryCacheTTL caps how long a library entry is reused. Entries change
// whenever the user edits them on the website, so they go stale much
// sooner than book metadata.
const EntryCacheTTL = 15 * time.Minute

// entryFetcher is the part of Client a CachedLibrary reads through.
type entryFetcher interface {
	UserBook(ctx context.Context, bookID int) (*UserBook, error)
}

type cachedEntry struct {
	Entry   *UserBook `json:"entry,omitempty"`
	Missing bool      `json:"missing"`
}

// CachedLibrary serves library entries from the user_book cache table and
// falls back to the service on a miss. Writers call Forget for every book
// they touched.
type CachedLibrary struct {
	client entryFetcher
	cache  *cache.CacheDB
	ttl    time.Duration
}

// NewCachedLibrary wraps client. A nil cache disables caching.
func NewCachedLibrary(client entryFetcher, c *cache.CacheDB, ttl time.Duration) *CachedLibrary {
	if ttl <= 0 || ttl > EntryCacheTTL {
		ttl = EntryCacheTTL
	}
	return &CachedLibrary{client: client, cache: c, ttl: ttl}
}

func entryKey(bookID int) string {
	return "book:" + strconv.Itoa(bookID)
}

// UserBook returns the library entry for bookID, or (nil, nil) when the
// book is not in the library.
func (l *CachedLibrary) UserBook(ctx context.Context, bookID int) (*UserBook, error) {
	result, fromCache, err := cache.GetOrFetch(l.cache, cache.UserBookTable, entryKey(bookID), l.ttl,
		func() (cachedEntry, error) {
			ub, err := l.client.UserBook(ctx, bookID)
			if err != nil {
				return cachedEntry{}, err
			}
			return cachedEntry{Entry: ub, Missing: ub == nil}, nil
		}, nil)
	if err != nil {
		return nil, err
	}
	slog.Debug("Fetched library entry", "book_id", bookID, "cached", fromCache, "in_library", !result.Missing)
	return result.Entry, nil
}

// Remember stores entries fetched in bulk so later lookups skip the service.
func (l *CachedLibrary) Remember(entries []UserBook) {
	if l.cache == nil {
		return
	}
	for i := range entries {
		data, err := json.Marshal(cachedEntry{Entry: &entries[i]})
		if err != nil {
			slog.Warn("Failed to marshal library entry", "book_id", entries[i].BookID, "error", err)
			continue
		}
		if err := l.cache.Set(cache.UserBookTable, entryKey(entries[i].BookID), string(data), 0); err != nil {
			slog.Warn("Failed to cache library entry", "book_id", entries[i].BookID, "error", err)
			return
		}
	}
}

// Forget drops the cached entries of bookIDs.
func (l *CachedLibrary) Forget(bookIDs ...int) {
	if l.cache == nil || len(bookIDs) == 0 {
		return
	}
	keys := make([]string, len(bookIDs))
	for i, id := range bookIDs {
		keys[i] = entryKey(id)
	}
	if err := l.cache.Delete(cache.UserBookTable, keys...); err != nil {
		slog.Warn("Failed to drop cached library entries", "error", err)
	}
}
