package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/lepinkainen/shelfsync/cmd/shelf"
	"github.com/lepinkainen/shelfsync/internal/cache"
	"github.com/lepinkainen/shelfsync/internal/config"
	apperrors "github.com/lepinkainen/shelfsync/internal/errors"
	"github.com/lepinkainen/shelfsync/internal/hardcover"
)

var (
	runSyncFrom = shelf.SyncFrom
	runSyncTo   = shelf.SyncTo
	runDiscover = shelf.Discover
	runLink     = shelf.Link
	runSnapshot = shelf.Snapshot
	runUnlink   = shelf.Unlink
	runRemove   = shelf.Remove
	runStatus   = shelf.SetStatus
	runLists    = shelf.Lists
)

// CLI represents the complete command structure for the shelfsync application
type CLI struct {
	// Global flags
	Verbose   bool `short:"v" help:"Enable debug logging"`
	Overwrite bool `help:"Overwrite existing report and snapshot files"`
	DryRun    bool `help:"Show what would change without writing to the catalog or Hardcover"`

	LibraryDB   string `help:"Path to the local catalog SQLite database (default from library.dbfile)"`
	CacheDBFile string `help:"Path to cache SQLite database file (default from cache.dbfile)"`
	CacheTTL    string `help:"Cache time-to-live duration, e.g. 24h (default from cache.ttl)"`

	Sync     SyncCmd     `cmd:"" help:"Synchronize reading state with Hardcover"`
	Discover DiscoverCmd `cmd:"" help:"Find Hardcover library books missing from the catalog"`
	Link     LinkCmd     `cmd:"" help:"Link catalog books to Hardcover books by ISBN"`
	Unlink   UnlinkCmd   `cmd:"" help:"Forget the Hardcover link of catalog books"`
	Remove   RemoveCmd   `cmd:"" help:"Remove catalog books from the Hardcover library"`
	Status   StatusCmd   `cmd:"" help:"Set the reading status of catalog books on both sides"`
	Lists    ListsCmd    `cmd:"" help:"Show and change Hardcover list membership"`
	Snapshot SnapshotCmd `cmd:"" help:"Save the Hardcover library to a JSON snapshot"`
	Cache    CacheCmd    `cmd:"" help:"Manage the lookup cache"`
}

// SyncCmd groups the two sync directions
type SyncCmd struct {
	From SyncFromCmd `cmd:"" help:"Copy reading state from Hardcover into the catalog"`
	To   SyncToCmd   `cmd:"" help:"Send reading state from the catalog to Hardcover"`
}

// SyncFromCmd represents the sync from command
type SyncFromCmd struct {
	Snapshot string `short:"s" help:"Read the Hardcover library from a snapshot file"`
	Yes      bool   `short:"y" help:"Apply every change without the review screen"`
	Report   bool   `help:"Write a markdown report of the run"`
}

// SyncToCmd represents the sync to command
type SyncToCmd struct {
	BookID []int `name:"book-id" help:"Only sync these catalog book ids (repeatable)"`
	Yes    bool  `short:"y" help:"Apply every change without the review screen"`
	Report bool  `help:"Write a markdown report of the run"`
}

// DiscoverCmd represents the discover command
type DiscoverCmd struct {
	Snapshot string `short:"s" help:"Read the Hardcover library from a snapshot file"`
	Status   []int  `help:"Only consider these status ids (repeatable, default from sync.sync_statuses)"`
	Apply    bool   `help:"Create catalog records for the accepted books"`
	Yes      bool   `short:"y" help:"Accept every book without the review screen"`
	Report   bool   `help:"Write a markdown report of the run"`
}

// LinkCmd represents the link command
type LinkCmd struct {
	Yes    bool `short:"y" help:"Store every match without the review screen"`
	Report bool `help:"Write a markdown report of the run"`
}

// UnlinkCmd represents the unlink command
type UnlinkCmd struct {
	BookID []int `name:"book-id" required:"" help:"Catalog book ids to unlink (repeatable)"`
	Yes    bool  `short:"y" help:"Unlink every book without the review screen"`
	Report bool  `help:"Write a markdown report of the run"`
}

// RemoveCmd represents the remove command
type RemoveCmd struct {
	BookID []int `name:"book-id" required:"" help:"Catalog book ids to remove from Hardcover (repeatable)"`
	Yes    bool  `short:"y" help:"Remove every book without the review screen"`
	Report bool  `help:"Write a markdown report of the run"`
}

// StatusCmd represents the status command
type StatusCmd struct {
	BookID []int `name:"book-id" required:"" help:"Catalog book ids to update (repeatable)"`
	Status int   `required:"" help:"Status id: 1 want to read, 2 reading, 3 read, 4 paused, 5 did not finish, 6 ignored"`
	Yes    bool  `short:"y" help:"Apply every change without the review screen"`
	Report bool  `help:"Write a markdown report of the run"`
}

// ListsCmd groups the list commands
type ListsCmd struct {
	Show   ListsShowCmd   `cmd:"" default:"withargs" help:"Show lists and the lists of catalog books"`
	Add    ListsAddCmd    `cmd:"" help:"Add catalog books to a list"`
	Remove ListsRemoveCmd `cmd:"" help:"Remove catalog books from a list"`
}

// ListsShowCmd represents the lists show command
type ListsShowCmd struct {
	BookID []int `name:"book-id" help:"Also show the lists of these catalog book ids (repeatable)"`
}

// ListsAddCmd represents the lists add command
type ListsAddCmd struct {
	List   int   `required:"" help:"Hardcover list id"`
	BookID []int `name:"book-id" required:"" help:"Catalog book ids to add (repeatable)"`
	Report bool  `help:"Write a markdown report of the run"`
}

// ListsRemoveCmd represents the lists remove command
type ListsRemoveCmd struct {
	List   int   `required:"" help:"Hardcover list id"`
	BookID []int `name:"book-id" required:"" help:"Catalog book ids to remove (repeatable)"`
	Report bool  `help:"Write a markdown report of the run"`
}

// SnapshotCmd represents the snapshot command
type SnapshotCmd struct {
	Output string `short:"o" help:"Path of the snapshot file" default:"hardcover.json"`
}

// CacheCmd groups the cache maintenance commands
type CacheCmd struct {
	Invalidate cache.InvalidateCacheCmd `cmd:"" help:"Drop cached lookups for a source"`
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging(false)
	initConfig()

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Create CLI instance
	var cli CLI

	// Parse command line with Kong
	ctx := kong.Parse(&cli,
		kong.Name("shelfsync"),
		kong.Description("Synchronize reading state between a local book catalog and Hardcover."),
		kong.UsageOnError(),
		kong.BindTo(runCtx, (*context.Context)(nil)),
	)

	if cli.Verbose {
		initLogging(true)
	}

	// Update global config based on parsed flags
	updateGlobalConfig(&cli)

	// Execute the selected command
	if err := ctx.Run(); err != nil {
		if apperrors.IsStopProcessingError(err) {
			slog.Info("Stopped, nothing was applied", "reason", err)
			return
		}
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetDefault("library.dbfile", "./library.db")
	viper.SetDefault("cache.dbfile", "./cache.db")
	viper.SetDefault("cache.ttl", "24h")
	viper.SetDefault("hardcover.url", hardcover.DefaultURL)
	viper.SetDefault("report.dir", "./reports/")
	viper.SetDefault("OverwriteFiles", false)
	config.SetSyncDefaults(viper.GetViper())

	// .env.local overrides .env
	for _, envFile := range []string{".env.local", ".env"} {
		if err := godotenv.Load(envFile); err == nil {
			slog.Debug("Loaded environment file", "file", envFile)
		}
	}

	// Enable environment variable support
	viper.AutomaticEnv()
	if err := viper.BindEnv("hardcover.token", "HARDCOVER_API_TOKEN"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Info("Config file not found, writing default config file...")
			if err := viper.SafeWriteConfig(); err != nil {
				slog.Error("Error writing config file", "error", err)
			}
			os.Exit(0)
		} else {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
	}

	// Initialize global config
	config.InitConfig()
}

func updateGlobalConfig(cli *CLI) {
	// Update config based on CLI flags
	config.SetOverwriteFiles(cli.Overwrite)
	config.DryRun = cli.DryRun

	// Paths only override the config file when given
	if cli.LibraryDB != "" {
		viper.Set("library.dbfile", cli.LibraryDB)
	}
	if cli.CacheDBFile != "" {
		viper.Set("cache.dbfile", cli.CacheDBFile)
	}
	if cli.CacheTTL != "" {
		viper.Set("cache.ttl", cli.CacheTTL)
	}
}

// Run methods for each command

func (s *SyncFromCmd) Run(ctx context.Context) error {
	return runSyncFrom(ctx, shelf.SyncFromOptions{
		Snapshot: s.Snapshot,
		Yes:      s.Yes,
		Report:   s.Report,
	})
}

func (s *SyncToCmd) Run(ctx context.Context) error {
	return runSyncTo(ctx, shelf.SyncToOptions{
		BookIDs: s.BookID,
		Yes:     s.Yes,
		Report:  s.Report,
	})
}

func (d *DiscoverCmd) Run(ctx context.Context) error {
	for _, status := range d.Status {
		if !hardcover.StatusID(status).Valid() {
			return fmt.Errorf("invalid status id %d (valid ids are 1-6)", status)
		}
	}

	return runDiscover(ctx, shelf.DiscoverOptions{
		Snapshot: d.Snapshot,
		Statuses: d.Status,
		Apply:    d.Apply,
		Yes:      d.Yes,
		Report:   d.Report,
	})
}

func (l *LinkCmd) Run(ctx context.Context) error {
	return runLink(ctx, shelf.LinkOptions{Yes: l.Yes, Report: l.Report})
}

func (u *UnlinkCmd) Run(ctx context.Context) error {
	return runUnlink(ctx, shelf.UnlinkOptions{BookIDs: u.BookID, Yes: u.Yes, Report: u.Report})
}

func (r *RemoveCmd) Run(ctx context.Context) error {
	return runRemove(ctx, shelf.RemoveOptions{BookIDs: r.BookID, Yes: r.Yes, Report: r.Report})
}

func (s *StatusCmd) Run(ctx context.Context) error {
	if !hardcover.StatusID(s.Status).Valid() {
		return fmt.Errorf("invalid status id %d (valid ids are 1-6)", s.Status)
	}
	return runStatus(ctx, shelf.StatusOptions{
		BookIDs: s.BookID,
		Status:  hardcover.StatusID(s.Status),
		Yes:     s.Yes,
		Report:  s.Report,
	})
}

func (l *ListsShowCmd) Run(ctx context.Context) error {
	return runLists(ctx, shelf.ListsOptions{BookIDs: l.BookID})
}

func (l *ListsAddCmd) Run(ctx context.Context) error {
	return runLists(ctx, shelf.ListsOptions{BookIDs: l.BookID, ListID: l.List, Add: true, Report: l.Report})
}

func (l *ListsRemoveCmd) Run(ctx context.Context) error {
	return runLists(ctx, shelf.ListsOptions{BookIDs: l.BookID, ListID: l.List, Remove: true, Report: l.Report})
}

func (s *SnapshotCmd) Run(ctx context.Context) error {
	if s.Output == "" {
		return fmt.Errorf("output file is required (provide via --output flag)")
	}
	return runSnapshot(ctx, s.Output)
}

func initLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	// Create a human-readable handler for logging
	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: level,
	})

	// Set the default logger
	slog.SetDefault(slog.New(handler))
}
