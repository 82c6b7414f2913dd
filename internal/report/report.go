// Package report writes a markdown summary of a sync run.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lepinkainen/shelfsync/internal/fileutil"
)

// Direction names what a run synchronized.
type Direction string

const (
	DirectionFrom     Direction = "from-hardcover"
	DirectionTo       Direction = "to-hardcover"
	DirectionDiscover Direction = "discover"
	DirectionLink     Direction = "link"
	DirectionUnlink   Direction = "unlink"
	DirectionRemove   Direction = "remove"
	DirectionStatus   Direction = "status"
	DirectionLists    Direction = "lists"
)

// Entry is one proposed change and whether it was applied.
type Entry struct {
	Title   string
	Field   string
	Old     string
	New     string
	Applied bool
}

// Counts are the run totals written to the frontmatter.
type Counts struct {
	Proposed  int
	Applied   int
	Failed    int
	Linked    int
	NotLinked int
	APIErrors int
}

// Report collects the outcome of one run.
type Report struct {
	RunID       uuid.UUID
	Direction   Direction
	GeneratedAt time.Time
	DryRun      bool
	Counts      Counts
	Entries     []Entry
	Errors      []string
}

// New starts a report for a run in the given direction.
func New(direction Direction) *Report {
	return &Report{
		RunID:       uuid.New(),
		Direction:   direction,
		GeneratedAt: time.Now().UTC(),
	}
}

// Add records a proposed change.
func (r *Report) Add(e Entry) {
	r.Entries = append(r.Entries, e)
	r.Counts.Proposed++
	if e.Applied {
		r.Counts.Applied++
	}
}

// AddError records a failure message.
func (r *Report) AddError(err error) {
	if err == nil {
		return
	}
	r.Errors = append(r.Errors, err.Error())
	r.Counts.Failed++
}

// Name is the report's file name without extension.
func (r *Report) Name() string {
	return fmt.Sprintf("shelfsync %s %s", r.Direction, r.GeneratedAt.Format("2006-01-02 150405"))
}

// Document renders the report.
func (r *Report) Document() *Document {
	fm := NewFrontmatter()
	fm.Set("run_id", r.RunID.String())
	fm.Set("direction", string(r.Direction))
	fm.Set("generated_at", r.GeneratedAt.Format(time.RFC3339))
	fm.Set("dry_run", r.DryRun)
	fm.Set("proposed", r.Counts.Proposed)
	fm.Set("applied", r.Counts.Applied)
	fm.Set("failed", r.Counts.Failed)
	switch r.Direction {
	case DirectionTo, DirectionLink, DirectionRemove, DirectionStatus, DirectionLists:
		fm.Set("linked", r.Counts.Linked)
		fm.Set("not_linked", r.Counts.NotLinked)
		fm.Set("api_errors", r.Counts.APIErrors)
	}
	fm.Set("tags", []string{"shelfsync", string(r.Direction)})

	mb := fileutil.NewMarkdownBuilder().
		AddHeading(1, "Sync "+string(r.Direction)).
		AddBulletList(
			"Proposed: "+strconv.Itoa(r.Counts.Proposed),
			"Applied: "+strconv.Itoa(r.Counts.Applied),
			failedLine(r.Counts.Failed),
		)

	if len(r.Entries) == 0 {
		mb.AddParagraph("No changes.")
	} else {
		rows := make([][]string, len(r.Entries))
		for i, e := range r.Entries {
			mark := ""
			if e.Applied {
				mark = "x"
			}
			rows[i] = []string{mark, e.Title, e.Field, e.Old, e.New}
		}
		mb.AddTable([]string{"Applied", "Book", "Field", "Old", "New"}, rows)
	}

	if len(r.Errors) > 0 {
		mb.AddCallout("warning", "Errors", strings.Join(r.Errors, "\n"))
	}

	return &Document{Frontmatter: fm, Body: mb.Build()}
}

func failedLine(n int) string {
	if n == 0 {
		return ""
	}
	return "Failed: " + strconv.Itoa(n)
}

// Write stores the report as markdown under dir and returns its path.
func (r *Report) Write(dir string, overwrite bool) (string, error) {
	content, err := r.Document().Bytes()
	if err != nil {
		return "", err
	}
	path := fileutil.GetMarkdownFilePath(r.Name(), dir)
	if err := fileutil.WriteMarkdownFile(path, string(content), overwrite); err != nil {
		return "", err
	}
	return path, nil
}
