package config

import (
	"fmt"
	"sort"

	"github.com/spf13/viper"
)

// Sync holds the field mapping and toggles for a sync run. Empty column
// names mean the field is not mapped.
type Sync struct {
	StatusColumn          string `mapstructure:"status_column"`
	RatingColumn          string `mapstructure:"rating_column"`
	ProgressColumn        string `mapstructure:"progress_column"`
	ProgressPercentColumn string `mapstructure:"progress_percent_column"`
	DateStartedColumn     string `mapstructure:"date_started_column"`
	DateReadColumn        string `mapstructure:"date_read_column"`
	IsReadColumn          string `mapstructure:"is_read_column"`
	ReviewColumn          string `mapstructure:"review_column"`

	// StatusMappings maps a remote status id ("1".."6") to a local label.
	StatusMappings map[string]string `mapstructure:"status_mappings"`
	// SyncStatuses limits discovery to these status ids. Empty means all.
	SyncStatuses []int `mapstructure:"sync_statuses"`

	SyncRating   bool `mapstructure:"sync_rating"`
	SyncProgress bool `mapstructure:"sync_progress"`
	SyncDates    bool `mapstructure:"sync_dates"`
	SyncReview   bool `mapstructure:"sync_review"`
}

// DefaultSync has nothing mapped and every toggle on.
func DefaultSync() Sync {
	return Sync{
		StatusMappings: map[string]string{},
		SyncRating:     true,
		SyncProgress:   true,
		SyncDates:      true,
		SyncReview:     true,
	}
}

// SetSyncDefaults registers the sync.* defaults on v.
func SetSyncDefaults(v *viper.Viper) {
	d := DefaultSync()
	v.SetDefault("sync.sync_rating", d.SyncRating)
	v.SetDefault("sync.sync_progress", d.SyncProgress)
	v.SetDefault("sync.sync_dates", d.SyncDates)
	v.SetDefault("sync.sync_review", d.SyncReview)
}

// LoadSync reads the sync block from v. A nil v reads the global viper.
func LoadSync(v *viper.Viper) (Sync, error) {
	if v == nil {
		v = viper.GetViper()
	}
	SetSyncDefaults(v)

	s := DefaultSync()
	if err := v.UnmarshalKey("sync", &s); err != nil {
		return Sync{}, fmt.Errorf("failed to parse sync configuration: %w", err)
	}
	if s.StatusMappings == nil {
		s.StatusMappings = map[string]string{}
	}
	return s, nil
}

// Column returns the local column mapped to a sync field name, or "".
func (s Sync) Column(field string) string {
	switch field {
	case "status":
		return s.StatusColumn
	case "rating":
		return s.RatingColumn
	case "progress":
		return s.ProgressColumn
	case "progress_percent":
		return s.ProgressPercentColumn
	case "date_started":
		return s.DateStartedColumn
	case "date_read":
		return s.DateReadColumn
	case "is_read":
		return s.IsReadColumn
	case "review":
		return s.ReviewColumn
	}
	return ""
}

// SyncFields lists the sync field names in comparison order.
var SyncFields = []string{
	"status", "rating", "progress", "progress_percent",
	"date_started", "date_read", "is_read", "review",
}

// UnmappedColumns returns the sync fields that have no local column.
func (s Sync) UnmappedColumns() []string {
	var out []string
	for _, field := range SyncFields {
		if s.Column(field) == "" {
			out = append(out, field)
		}
	}
	return out
}

// MappedColumns returns the distinct local columns in use, sorted.
func (s Sync) MappedColumns() []string {
	seen := map[string]bool{}
	for _, field := range SyncFields {
		if col := s.Column(field); col != "" {
			seen[col] = true
		}
	}
	out := make([]string, 0, len(seen))
	for col := range seen {
		out = append(out, col)
	}
	sort.Strings(out)
	return out
}
