package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/DavidStojani/pdf-management-sub000/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithEnrichmentEndpoint points the enrichment client at a test server.
func WithEnrichmentEndpoint(baseURL string) ConfigOption {
	return func(c *config.Config) {
		c.Enrichment.BaseURL = baseURL
	}
}

// WithSearchEndpoint points the search client at a test server.
func WithSearchEndpoint(baseURL string) ConfigOption {
	return func(c *config.Config) {
		c.Search.BaseURL = baseURL
	}
}

// WithRecoveryInterval overrides the sweep interval on the test config.
func WithRecoveryInterval(seconds int) ConfigOption {
	return func(c *config.Config) {
		c.Recovery.IntervalSeconds = seconds
	}
}
