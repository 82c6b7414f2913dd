package shelf

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lepinkainen/shelfsync/internal/config"
	"github.com/lepinkainen/shelfsync/internal/hardcover"
)

// Snapshot writes the whole remote library to a JSON file that sync from
// and discover can read back.
func Snapshot(ctx context.Context, output string) error {
	if err := requireToken(); err != nil {
		return err
	}

	snap, err := hardcover.FetchSnapshot(ctx, newClient(), 0)
	if err != nil {
		return fmt.Errorf("failed to fetch library: %w", err)
	}

	written, err := hardcover.SaveSnapshot(output, snap, config.OverwriteFiles)
	if err != nil {
		return err
	}
	if !written {
		slog.Warn("Snapshot exists, use --overwrite to replace it", "path", output)
		return nil
	}
	slog.Info("Wrote snapshot", "path", output, "entries", len(snap.UserBooks))
	return nil
}
