package cmd

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/kong"
	"github.com/spf13/viper"

	"github.com/lepinkainen/shelfsync/cmd/shelf"
	"github.com/lepinkainen/shelfsync/internal/config"
	"github.com/lepinkainen/shelfsync/internal/hardcover"
)

func resetCmdState(t *testing.T) {
	origOverwrite := config.OverwriteFiles
	origDryRun := config.DryRun

	t.Cleanup(func() {
		config.OverwriteFiles = origOverwrite
		config.DryRun = origDryRun
		runSyncFrom = shelf.SyncFrom
		runSyncTo = shelf.SyncTo
		runDiscover = shelf.Discover
		runLink = shelf.Link
		runSnapshot = shelf.Snapshot
		runUnlink = shelf.Unlink
		runRemove = shelf.Remove
		runStatus = shelf.SetStatus
		runLists = shelf.Lists
		viper.Reset()
	})

	viper.Reset()
}

func parseCLI(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()

	originalArgs := os.Args
	os.Args = append([]string{"shelfsync"}, args...)
	t.Cleanup(func() { os.Args = originalArgs })

	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("shelfsync"),
		kong.Description("Synchronize reading state between a local book catalog and Hardcover."),
		kong.UsageOnError(),
		kong.BindTo(context.Background(), (*context.Context)(nil)),
		kong.Exit(func(code int) {
			t.Fatalf("unexpected Kong exit %d", code)
		}),
	)

	return cli, ctx
}

func TestUpdateGlobalConfig(t *testing.T) {
	resetCmdState(t)

	cli := &CLI{
		Overwrite:   true,
		DryRun:      true,
		LibraryDB:   "/tmp/library.db",
		CacheDBFile: "/tmp/cache.db",
		CacheTTL:    "12h",
	}

	updateGlobalConfig(cli)

	assert.True(t, config.OverwriteFiles)
	assert.True(t, config.DryRun)
	assert.Equal(t, "/tmp/library.db", viper.GetString("library.dbfile"))
	assert.Equal(t, "/tmp/cache.db", viper.GetString("cache.dbfile"))
	assert.Equal(t, "12h", viper.GetString("cache.ttl"))
}

func TestUpdateGlobalConfigKeepsConfiguredPaths(t *testing.T) {
	resetCmdState(t)

	viper.Set("library.dbfile", "/configured/library.db")
	viper.Set("cache.ttl", "48h")

	updateGlobalConfig(&CLI{})

	assert.False(t, config.OverwriteFiles)
	assert.False(t, config.DryRun)
	assert.Equal(t, "/configured/library.db", viper.GetString("library.dbfile"))
	assert.Equal(t, "48h", viper.GetString("cache.ttl"))
}

func TestSyncFromCommandParsing(t *testing.T) {
	resetCmdState(t)

	var got shelf.SyncFromOptions
	runSyncFrom = func(_ context.Context, opts shelf.SyncFromOptions) error {
		got = opts
		return nil
	}

	cli, ctx := parseCLI(t, "--dry-run", "sync", "from", "-s", "snap.json", "--yes", "--report")
	updateGlobalConfig(cli)
	assert.NoError(t, ctx.Run())

	assert.Equal(t, shelf.SyncFromOptions{Snapshot: "snap.json", Yes: true, Report: true}, got)
	assert.True(t, config.DryRun)
}

func TestSyncToCommandParsing(t *testing.T) {
	resetCmdState(t)

	var got shelf.SyncToOptions
	runSyncTo = func(_ context.Context, opts shelf.SyncToOptions) error {
		got = opts
		return nil
	}

	_, ctx := parseCLI(t, "sync", "to", "--book-id", "3", "--book-id", "9")
	assert.NoError(t, ctx.Run())

	assert.Equal(t, []int{3, 9}, got.BookIDs)
	assert.False(t, got.Yes)
	assert.False(t, got.Report)
}

func TestDiscoverCommandParsing(t *testing.T) {
	resetCmdState(t)

	var got shelf.DiscoverOptions
	runDiscover = func(_ context.Context, opts shelf.DiscoverOptions) error {
		got = opts
		return nil
	}

	_, ctx := parseCLI(t, "discover", "--status", "1", "--status", "3", "--apply", "-y")
	assert.NoError(t, ctx.Run())

	assert.Equal(t, []int{1, 3}, got.Statuses)
	assert.True(t, got.Apply)
	assert.True(t, got.Yes)
}

func TestDiscoverRejectsUnknownStatus(t *testing.T) {
	resetCmdState(t)

	called := false
	runDiscover = func(context.Context, shelf.DiscoverOptions) error {
		called = true
		return nil
	}

	_, ctx := parseCLI(t, "discover", "--status", "9")
	err := ctx.Run()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status id 9")
	assert.False(t, called)
}

func TestLinkAndSnapshotCommands(t *testing.T) {
	resetCmdState(t)

	var linked shelf.LinkOptions
	runLink = func(_ context.Context, opts shelf.LinkOptions) error {
		linked = opts
		return nil
	}
	var output string
	runSnapshot = func(_ context.Context, path string) error {
		output = path
		return nil
	}

	_, ctx := parseCLI(t, "link", "--report")
	assert.NoError(t, ctx.Run())
	assert.True(t, linked.Report)

	_, ctx = parseCLI(t, "snapshot")
	assert.NoError(t, ctx.Run())
	assert.Equal(t, "hardcover.json", output)

	_, ctx = parseCLI(t, "snapshot", "-o", "/tmp/library.json")
	assert.NoError(t, ctx.Run())
	assert.Equal(t, "/tmp/library.json", output)
}

func TestUnlinkAndRemoveCommandParsing(t *testing.T) {
	resetCmdState(t)

	var unlinked shelf.UnlinkOptions
	runUnlink = func(_ context.Context, opts shelf.UnlinkOptions) error {
		unlinked = opts
		return nil
	}
	var removed shelf.RemoveOptions
	runRemove = func(_ context.Context, opts shelf.RemoveOptions) error {
		removed = opts
		return nil
	}

	_, ctx := parseCLI(t, "unlink", "--book-id", "4", "-y")
	assert.NoError(t, ctx.Run())
	assert.Equal(t, shelf.UnlinkOptions{BookIDs: []int{4}, Yes: true}, unlinked)

	_, ctx = parseCLI(t, "remove", "--book-id", "5", "--book-id", "6", "--report")
	assert.NoError(t, ctx.Run())
	assert.Equal(t, shelf.RemoveOptions{BookIDs: []int{5, 6}, Report: true}, removed)
}

func TestStatusCommandParsing(t *testing.T) {
	resetCmdState(t)

	var got shelf.StatusOptions
	calls := 0
	runStatus = func(_ context.Context, opts shelf.StatusOptions) error {
		got = opts
		calls++
		return nil
	}

	_, ctx := parseCLI(t, "status", "--book-id", "2", "--status", "3", "-y")
	assert.NoError(t, ctx.Run())
	assert.Equal(t, shelf.StatusOptions{BookIDs: []int{2}, Status: hardcover.StatusRead, Yes: true}, got)

	_, ctx = parseCLI(t, "status", "--book-id", "2", "--status", "0")
	err := ctx.Run()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status id 0")
	assert.Equal(t, 1, calls)
}

func TestListsCommandParsing(t *testing.T) {
	resetCmdState(t)

	var got []shelf.ListsOptions
	runLists = func(_ context.Context, opts shelf.ListsOptions) error {
		got = append(got, opts)
		return nil
	}

	_, ctx := parseCLI(t, "lists")
	assert.NoError(t, ctx.Run())
	_, ctx = parseCLI(t, "lists", "show", "--book-id", "1")
	assert.NoError(t, ctx.Run())
	_, ctx = parseCLI(t, "lists", "add", "--list", "12", "--book-id", "1")
	assert.NoError(t, ctx.Run())
	_, ctx = parseCLI(t, "lists", "remove", "--list", "12", "--book-id", "1", "--report")
	assert.NoError(t, ctx.Run())

	assert.Equal(t, []shelf.ListsOptions{
		{},
		{BookIDs: []int{1}},
		{BookIDs: []int{1}, ListID: 12, Add: true},
		{BookIDs: []int{1}, ListID: 12, Remove: true, Report: true},
	}, got)
}

func TestCacheInvalidateCommandParsing(t *testing.T) {
	resetCmdState(t)

	cli, _ := parseCLI(t, "cache", "invalidate", "isbn")
	assert.Equal(t, "isbn", cli.Cache.Invalidate.Source)
}

func TestCLIDefaultFlags(t *testing.T) {
	resetCmdState(t)

	cli, _ := parseCLI(t, "link")

	assert.False(t, cli.Verbose)
	assert.False(t, cli.Overwrite)
	assert.False(t, cli.DryRun)
	assert.Equal(t, "", cli.LibraryDB)
	assert.Equal(t, "", cli.CacheDBFile)
	assert.Equal(t, "", cli.CacheTTL)
}

func TestCLIFlagsOverrideDefaults(t *testing.T) {
	resetCmdState(t)

	cli, _ := parseCLI(t,
		"-v",
		"--overwrite",
		"--library-db", "/custom/library.db",
		"--cache-db-file", "/custom/cache.db",
		"--cache-ttl", "1h",
		"link")

	assert.True(t, cli.Verbose)
	assert.True(t, cli.Overwrite)
	assert.Equal(t, "/custom/library.db", cli.LibraryDB)
	assert.Equal(t, "/custom/cache.db", cli.CacheDBFile)
	assert.Equal(t, "1h", cli.CacheTTL)
}

func TestInitLoggingLevels(t *testing.T) {
	orig := slog.Default()
	t.Cleanup(func() { slog.SetDefault(orig) })

	initLogging(false)
	assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))

	initLogging(true)
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
}
