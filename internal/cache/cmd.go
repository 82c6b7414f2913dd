package cache

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

var validSources = []string{"isbn", "book", "user_book", "all"}

// InvalidateCacheCmd represents the cache invalidate subcommand
type InvalidateCacheCmd struct {
	Source string `arg:"" help:"Cache source to invalidate: isbn, book, user_book, all" required:""`
}

func (i *InvalidateCacheCmd) Run() error {
	if !slices.Contains(validSources, i.Source) {
		return fmt.Errorf("invalid cache source '%s'; valid sources are: %s", i.Source, strings.Join(validSources, ", "))
	}

	dbPath := viper.GetString("cache.dbfile")
	slog.Info("Invalidating cache", "source", i.Source, "database", dbPath)

	cacheDB, err := Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}
	defer func() { _ = cacheDB.Close() }()

	return invalidate(cacheDB, i.Source)
}

func invalidate(c *CacheDB, source string) error {
	tables := []string{source + "_cache"}
	if source == "all" {
		tables = CacheTables
	}

	for _, table := range tables {
		rowsDeleted, err := c.InvalidateSource(table)
		if err != nil {
			return fmt.Errorf("failed to invalidate cache: %w", err)
		}
		slog.Info("Cache invalidated", "table", table, "rows_deleted", rowsDeleted)
	}
	return nil
}
