package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lepinkainen/shelfsync/internal/cache"
	"github.com/lepinkainen/shelfsync/internal/hardcover"
)

// BookSource looks books up on the remote service.
type BookSource interface {
	BookByID(ctx context.Context, id int) (*hardcover.Book, error)
	BookBySlug(ctx context.Context, slug string) (*hardcover.Book, error)
	BookByISBN(ctx context.Context, isbn string) (*hardcover.Book, error)
}

type cachedBook struct {
	Book     *hardcover.Book `json:"book"`
	NotFound bool            `json:"not_found"`
}

// Resolver turns stored identifiers and ISBNs into remote books. Lookups go
// through the injected cache; concurrent lookups of the same key share one
// request.
type Resolver struct {
	source BookSource
	cache  *cache.CacheDB
	ttl    time.Duration
	group  singleflight.Group
}

// NewResolver creates a Resolver. A nil cache disables caching and a
// non-positive ttl means cache.DefaultCacheTTL.
func NewResolver(source BookSource, c *cache.CacheDB, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = cache.DefaultCacheTTL
	}
	return &Resolver{source: source, cache: c, ttl: ttl}
}

// ResolveBook resolves a stored link: by book id when one is stored, by
// slug otherwise. An unknown book is (nil, nil).
func (r *Resolver) ResolveBook(ctx context.Context, link Link) (*hardcover.Book, error) {
	switch {
	case link.BookID > 0:
		id := link.BookID
		return r.lookup(cache.BookTable, "id:"+strconv.Itoa(id), func() (*hardcover.Book, error) {
			return r.source.BookByID(ctx, id)
		})
	case link.Slug != "":
		slug := link.Slug
		return r.lookup(cache.BookTable, "slug:"+slug, func() (*hardcover.Book, error) {
			return r.source.BookBySlug(ctx, slug)
		})
	}
	return nil, nil
}

// BookByISBN resolves one ISBN. An unknown ISBN is (nil, nil).
func (r *Resolver) BookByISBN(ctx context.Context, isbn string) (*hardcover.Book, error) {
	isbn = hardcover.CleanISBN(isbn)
	if isbn == "" {
		return nil, nil
	}
	return r.lookup(cache.ISBNTable, isbn, func() (*hardcover.Book, error) {
		return r.source.BookByISBN(ctx, isbn)
	})
}

// MatchISBN returns the first book any of isbns resolves to, with the ISBN
// that matched. Only exact matches are tried.
func (r *Resolver) MatchISBN(ctx context.Context, isbns []string) (*hardcover.Book, string, error) {
	for _, isbn := range isbns {
		book, err := r.BookByISBN(ctx, isbn)
		if err != nil {
			return nil, "", err
		}
		if book != nil {
			return book, hardcover.CleanISBN(isbn), nil
		}
	}
	return nil, "", nil
}

func (r *Resolver) lookup(table, key string, fetch func() (*hardcover.Book, error)) (*hardcover.Book, error) {
	v, err, shared := r.group.Do(table+"|"+key, func() (any, error) {
		result, fromCache, err := cache.GetOrFetch(r.cache, table, key, r.ttl,
			func() (cachedBook, error) {
				book, err := fetch()
				if err != nil {
					return cachedBook{}, err
				}
				return cachedBook{Book: book, NotFound: book == nil}, nil
			},
			cache.SelectNegativeCacheTTL(func(c cachedBook) bool { return c.NotFound }),
		)
		if err != nil {
			return nil, err
		}
		slog.Debug("Resolved book", "table", table, "key", key, "cached", fromCache, "found", !result.NotFound)
		return result.Book, nil
	})
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", key, err)
	}
	if shared {
		slog.Debug("Shared in-flight lookup", "key", key)
	}
	book, _ := v.(*hardcover.Book)
	return book, nil
}
