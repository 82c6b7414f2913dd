package hardcover

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lepinkainen/shelfsync/internal/fileutil"
)

const defaultPageSize = 100

// Snapshot is a point-in-time copy of the remote library.
type Snapshot struct {
	FetchedAt time.Time  `json:"fetched_at"`
	User      *User      `json:"user,omitempty"`
	UserBooks []UserBook `json:"user_books"`
}

// FetchSnapshot pages through the whole remote library.
func FetchSnapshot(ctx context.Context, client *Client, pageSize int) (*Snapshot, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	user, err := client.Me(ctx)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{FetchedAt: time.Now().UTC(), User: user}
	for offset := 0; ; offset += pageSize {
		page, err := client.UserBooks(ctx, pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("fetch library page at offset %d: %w", offset, err)
		}
		for i := range page {
			if err := page[i].Validate(); err != nil {
				slog.Warn("Skipping invalid library entry", "error", err)
				continue
			}
			snap.UserBooks = append(snap.UserBooks, page[i])
		}
		slog.Debug("Fetched library page", "offset", offset, "count", len(page))
		if len(page) < pageSize {
			break
		}
	}

	return snap, nil
}

// LoadSnapshot reads a snapshot written by SaveSnapshot.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	for i := range snap.UserBooks {
		if err := snap.UserBooks[i].Validate(); err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", path, err)
		}
	}
	return &snap, nil
}

// SaveSnapshot writes snap as indented JSON. It returns false when the file
// exists and overwrite is off.
func SaveSnapshot(path string, snap *Snapshot, overwrite bool) (bool, error) {
	return fileutil.WriteJSONFile(snap, path, overwrite)
}
