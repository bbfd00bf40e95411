package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for values the daemon cannot run with.
// All reported problems are joined so operators see everything at once.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir must not be empty")
	}

	if c.Recovery.MaxAttempts < 1 {
		problems = append(problems, "recovery.max_attempts must be at least 1")
	}
	if c.Recovery.BatchSize < 1 {
		problems = append(problems, "recovery.batch_size must be at least 1")
	}
	if c.Recovery.IntervalSeconds < 1 {
		problems = append(problems, "recovery.interval_seconds must be at least 1")
	}
	if c.Recovery.BackoffBaseMinutes < 1 {
		problems = append(problems, "recovery.backoff_base_minutes must be at least 1")
	}
	if c.Recovery.BackoffMaxMinutes < c.Recovery.BackoffBaseMinutes {
		problems = append(problems, "recovery.backoff_max_minutes must not be below the base window")
	}
	if c.Recovery.StaleAfterMinutes < 1 {
		problems = append(problems, "recovery.stale_after_minutes must be at least 1")
	}

	if c.Enrichment.BaseURL == "" {
		problems = append(problems, "enrichment.base_url must not be empty")
	}
	if c.Enrichment.Model == "" {
		problems = append(problems, "enrichment.model must not be empty")
	}
	if c.Enrichment.TimeoutSeconds < 1 {
		problems = append(problems, "enrichment.timeout_seconds must be at least 1")
	}

	if c.Search.BaseURL == "" {
		problems = append(problems, "search.base_url must not be empty")
	}
	if c.Search.IndexName == "" {
		problems = append(problems, "search.index_name must not be empty")
	}
	if c.Search.TimeoutSeconds < 1 {
		problems = append(problems, "search.timeout_seconds must be at least 1")
	}

	switch c.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not supported (console, json)", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q is not supported (debug, info, warn, error)", c.Logging.Level))
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New("invalid configuration: " + strings.Join(problems, "; "))
}
