package convert

import (
	"maps"
	"slices"
	"strconv"

	"github.com/lepinkainen/shelfsync/internal/hardcover"
)

var statusLabels = map[hardcover.StatusID]string{
	hardcover.StatusWantToRead:       "Want to Read",
	hardcover.StatusCurrentlyReading: "Currently Reading",
	hardcover.StatusRead:             "Read",
	hardcover.StatusPaused:           "Paused",
	hardcover.StatusDidNotFinish:     "Did Not Finish",
	hardcover.StatusIgnored:          "Ignored",
}

// StatusLabel returns the canonical English label, or "" for unknown ids.
func StatusLabel(id hardcover.StatusID) string {
	return statusLabels[id]
}

// StatusFromRemote maps a remote status id to the local label. User
// mappings (keyed by the id as a string) win over canonical labels.
func StatusFromRemote(id hardcover.StatusID, mappings map[string]string) (string, bool) {
	if mapped := mappings[strconv.Itoa(int(id))]; mapped != "" {
		return mapped, true
	}
	label, ok := statusLabels[id]
	return label, ok
}

// StatusToRemote maps a local label back to a remote status id. Only exact
// matches count. When several ids map to the same label the lowest wins.
func StatusToRemote(label string, mappings map[string]string) (hardcover.StatusID, bool) {
	if label == "" {
		return 0, false
	}
	for _, key := range slices.Sorted(maps.Keys(mappings)) {
		if mappings[key] != label {
			continue
		}
		id, err := strconv.Atoi(key)
		if err != nil || !hardcover.StatusID(id).Valid() {
			continue
		}
		return hardcover.StatusID(id), true
	}
	for id, canonical := range statusLabels {
		if canonical == label {
			return id, true
		}
	}
	return 0, false
}
