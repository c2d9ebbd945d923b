package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid marks every configuration failure.
var ErrInvalid = errors.New("invalid configuration")

// ConfigurationError names the offending key.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("config: %s", e.Reason)
	}
	return fmt.Sprintf("config: %s: %s", e.Key, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalid
}

func invalid(key, reason string) error {
	return &ConfigurationError{Key: key, Reason: reason}
}

var dedupModes = map[string]bool{
	"review":     true,
	"auto-merge": true,
	"auto_merge": true,
	"automerge":  true,
}

// Validate checks everything a run needs before any network or file work.
// It returns the first problem found.
func (c Config) Validate() error {
	if len(c.Repos) == 0 {
		return invalid("repos", "at least one repository is required")
	}
	for _, repo := range c.Repos {
		if strings.TrimSpace(repo.Name) == "" || strings.TrimSpace(repo.Adapter) == "" {
			return invalid("repos", fmt.Sprintf("entry %q needs a name and an adapter key", repo.Name))
		}
	}

	if len(c.Terms) == 0 {
		return invalid("terms", "at least one search term is required")
	}
	for i, term := range c.Terms {
		if strings.TrimSpace(term) == "" {
			return invalid("terms", fmt.Sprintf("term %d is blank", i))
		}
	}

	if c.MaxPages <= 0 {
		return invalid("max_pages", "must be a positive integer")
	}
	if c.Pause < 0 {
		return invalid("pause", "must not be negative")
	}

	files := map[string]string{
		"files.raw_results":      c.Files.RawResults,
		"files.filtered_results": c.Files.FilteredResults,
		"files.new_records":      c.Files.NewRecords,
		"files.catalog":          c.Files.Catalog,
	}
	for _, key := range []string{"files.raw_results", "files.filtered_results", "files.new_records", "files.catalog"} {
		if strings.TrimSpace(files[key]) == "" {
			return invalid(key, "path is required")
		}
	}

	if !dedupModes[strings.ToLower(strings.TrimSpace(c.Deduplication.Mode))] {
		return invalid("deduplication.mode", fmt.Sprintf("unknown mode %q (want review or auto-merge)", c.Deduplication.Mode))
	}

	if c.Acquisition.Parallelism < 1 {
		return invalid("acquisition.parallelism", "must be at least 1")
	}

	for i, adapter := range c.Adapters {
		if adapter.Key == "" || adapter.URL == "" {
			return invalid("adapters", fmt.Sprintf("entry %d needs key and url", i))
		}
	}

	if c.Schedule.Interval < 0 {
		return invalid("schedule.interval", "must not be negative")
	}
	return nil
}
