// Package shelf implements the sync, discover, link and snapshot commands.
package shelf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/lepinkainen/shelfsync/internal/cache"
	"github.com/lepinkainen/shelfsync/internal/config"
	"github.com/lepinkainen/shelfsync/internal/hardcover"
	"github.com/lepinkainen/shelfsync/internal/identity"
	"github.com/lepinkainen/shelfsync/internal/library"
	"github.com/lepinkainen/shelfsync/internal/report"
	"github.com/lepinkainen/shelfsync/internal/tui"
)

var errMissingToken = errors.New("hardcover API token is required (provide via hardcover.token in config or HARDCOVER_API_TOKEN)")

// reviewRows shows the interactive review list. Replaced in tests.
var reviewRows = tui.Review

// session holds the collaborators of one command run.
type session struct {
	catalog  *library.Catalog
	cache    *cache.CacheDB
	client   *hardcover.Client
	library  *hardcover.CachedLibrary
	resolver *identity.Resolver
	sync     config.Sync
}

func openSession() (*session, error) {
	syncCfg, err := config.LoadSync(nil)
	if err != nil {
		return nil, err
	}

	catalog, err := library.Open(viper.GetString("library.dbfile"))
	if err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}

	cacheDB, err := cache.Open(viper.GetString("cache.dbfile"))
	if err != nil {
		_ = catalog.Close()
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	ttl := viper.GetDuration("cache.ttl")
	if _, err := cacheDB.Prune(ttl); err != nil {
		slog.Warn("Failed to prune cache", "error", err)
	}

	client := newClient()
	return &session{
		catalog:  catalog,
		cache:    cacheDB,
		client:   client,
		library:  hardcover.NewCachedLibrary(client, cacheDB, ttl),
		resolver: identity.NewResolver(client, cacheDB, ttl),
		sync:     syncCfg,
	}, nil
}

func newClient() *hardcover.Client {
	opts := []hardcover.Option{hardcover.WithDryRun(config.DryRun)}
	if url := viper.GetString("hardcover.url"); url != "" {
		opts = append(opts, hardcover.WithURL(url))
	}
	return hardcover.NewClient(config.APIToken, opts...)
}

func (s *session) Close() {
	if err := s.catalog.Close(); err != nil {
		slog.Warn("Failed to close library", "error", err)
	}
	if err := s.cache.Close(); err != nil {
		slog.Warn("Failed to close cache", "error", err)
	}
}

func requireToken() error {
	if config.APIToken == "" {
		return errMissingToken
	}
	return nil
}

// remoteLibrary returns the library entries from a snapshot file, or from
// the service when path is empty.
func (s *session) remoteLibrary(ctx context.Context, path string) ([]hardcover.UserBook, error) {
	if path != "" {
		snap, err := hardcover.LoadSnapshot(path)
		if err != nil {
			return nil, err
		}
		slog.Info("Loaded snapshot", "path", path, "entries", len(snap.UserBooks), "fetched_at", snap.FetchedAt)
		return snap.UserBooks, nil
	}

	if err := requireToken(); err != nil {
		return nil, err
	}
	snap, err := hardcover.FetchSnapshot(ctx, s.client, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch library: %w", err)
	}
	slog.Info("Fetched library", "entries", len(snap.UserBooks))
	s.library.Remember(snap.UserBooks)
	return snap.UserBooks, nil
}

func (s *session) identityMap() (*identity.Map, error) {
	ids, err := s.catalog.BookIDs()
	if err != nil {
		return nil, err
	}
	return identity.Build(ids, s.catalog.Identifiers)
}

func (s *session) warnUnmapped() {
	if unmapped := s.sync.UnmappedColumns(); len(unmapped) > 0 {
		slog.Debug("Fields without a local column are skipped", "fields", unmapped)
	}
}

func logProgress(what string) func(done, total int) {
	return func(done, total int) {
		if done%50 == 0 || done == total {
			slog.Debug(what, "done", done, "total", total)
		}
	}
}

// review lets the user toggle items. With yes set every item is kept as
// proposed.
func review[T any](heading string, items []T, yes bool, toRow func(T) tui.Row, setApply func(*T, bool)) error {
	if yes || len(items) == 0 {
		return nil
	}

	rows := make([]tui.Row, len(items))
	for i, item := range items {
		rows[i] = toRow(item)
	}

	reviewed, err := reviewRows(heading, rows)
	if err != nil {
		return err
	}
	if len(reviewed) != len(items) {
		return fmt.Errorf("review returned %d rows for %d changes", len(reviewed), len(items))
	}
	for i := range items {
		setApply(&items[i], reviewed[i].Apply)
	}
	return nil
}

func writeReport(rep *report.Report, enabled bool) {
	if !enabled {
		return
	}
	path, err := rep.Write(viper.GetString("report.dir"), config.OverwriteFiles)
	if err != nil {
		slog.Error("Failed to write report", "error", err)
		return
	}
	slog.Info("Wrote report", "path", path)
}
