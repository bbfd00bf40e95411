package config

const (
	defaultDataDir            = "~/.local/share/pdfd/data"
	defaultLogDir             = "~/.local/share/pdfd/logs"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultStageWorkers       = 2
	defaultEventBuffer        = 64
	defaultRecoveryEnabled    = true
	defaultMaxAttempts        = 5
	defaultBatchSize          = 50
	defaultIntervalSeconds    = 900
	defaultBackoffBaseMinutes = 15
	defaultBackoffMaxMinutes  = 360
	defaultStaleAfterMinutes  = 30
	defaultOllamaBaseURL      = "http://localhost:11434"
	defaultOllamaModel        = "mistral"
	defaultOllamaTimeout      = 60
	defaultSearchBaseURL      = "http://localhost:9200"
	defaultSearchIndexName    = "documents"
	defaultSearchTimeout      = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Workflow: Workflow{
			OCRWorkers:        defaultStageWorkers,
			EnrichmentWorkers: defaultStageWorkers,
			IndexingWorkers:   defaultStageWorkers,
			EventBuffer:       defaultEventBuffer,
		},
		Recovery: Recovery{
			Enabled:            defaultRecoveryEnabled,
			MaxAttempts:        defaultMaxAttempts,
			BatchSize:          defaultBatchSize,
			IntervalSeconds:    defaultIntervalSeconds,
			BackoffBaseMinutes: defaultBackoffBaseMinutes,
			BackoffMaxMinutes:  defaultBackoffMaxMinutes,
			StaleAfterMinutes:  defaultStaleAfterMinutes,
		},
		Enrichment: Enrichment{
			BaseURL:        defaultOllamaBaseURL,
			Model:          defaultOllamaModel,
			TimeoutSeconds: defaultOllamaTimeout,
		},
		Search: Search{
			BaseURL:        defaultSearchBaseURL,
			IndexName:      defaultSearchIndexName,
			TimeoutSeconds: defaultSearchTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
