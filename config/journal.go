package config

import (
	"fmt"
	"slices"

	"github.com/kilianp07/leafdash/core/factory"
	"github.com/kilianp07/leafdash/core/journal"
)

// JournalConfig defines settings for snapshot journal storage and rotation.
type JournalConfig struct {
	// Backend selects the store type: "none", "jsonl", "rotating" or "sqlite".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *JournalConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "none"
	}
	if c.Path == "" {
		c.Path = "journal.jsonl"
	}
	if c.Backend == "rotating" && c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 50
	}
}

// Validate checks mandatory fields.
func (c JournalConfig) Validate() error {
	if !slices.Contains(journal.Backends(), c.Backend) {
		return fmt.Errorf("journal: unknown backend %s", c.Backend)
	}
	if c.Backend != "none" && c.Path == "" {
		return fmt.Errorf("journal: path is required")
	}
	return nil
}

// Module converts the section into a journal factory configuration.
func (c JournalConfig) Module() factory.ModuleConfig {
	return factory.ModuleConfig{Type: c.Backend, Conf: map[string]any{
		"path":         c.Path,
		"max_size_mb":  c.MaxSizeMB,
		"max_backups":  c.MaxBackups,
		"max_age_days": c.MaxAgeDays,
	}}
}
