package cache

// All cache tables use "cache_key" as the primary key column. ttl_seconds
// of 0 means the entry has no TTL of its own.

// ISBNCacheSchema caches ISBN to remote book lookups.
const ISBNCacheSchema = `
CREATE TABLE IF NOT EXISTS isbn_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	ttl_seconds INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_isbn_cached_at ON isbn_cache(cached_at);
`

// BookCacheSchema caches remote books keyed by id or slug.
const BookCacheSchema = `
CREATE TABLE IF NOT EXISTS book_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	ttl_seconds INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_book_cached_at ON book_cache(cached_at);
`

// UserBookCacheSchema caches library entries keyed by remote book id.
// Entries are dropped whenever the book is written.
const UserBookCacheSchema = `
CREATE TABLE IF NOT EXISTS user_book_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	ttl_seconds INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_user_book_cached_at ON user_book_cache(cached_at);
`

// Table names.
const (
	ISBNTable     = "isbn_cache"
	BookTable     = "book_cache"
	UserBookTable = "user_book_cache"
)

// CacheTables lists every cache table.
var CacheTables = []string{ISBNTable, BookTable, UserBookTable}

// AllCacheSchemas contains all cache table schemas for easy initialization
var AllCacheSchemas = []string{
	ISBNCacheSchema,
	BookCacheSchema,
	UserBookCacheSchema,
}

// ValidCacheTableNames is the whitelist of allowed cache table names
// Used to prevent SQL injection when interpolating table names
var ValidCacheTableNames = map[string]bool{
	ISBNTable:     true,
	BookTable:     true,
	UserBookTable: true,
}
