package constants

import "time"

// Centralized default values for timeouts, intervals, and related settings.
// These provide sane defaults; environment/config may override where supported.

const (
	// Database
	DBReadTimeoutDefault  = 8 * time.Second
	DBWriteTimeoutDefault = 6 * time.Second

	// Geocoder cascade steps
	GeocoderOperationTimeout  = 10 * time.Second
	GeocoderOpenFor           = 30 * time.Second
	GeocoderRequestTimeout    = 12 * time.Second
	GeocoderSlowCallThreshold = 1500 * time.Millisecond

	// Generic fallback extractor (LLM)
	ExtractorDefaultAPITimeout = 60 * time.Second
	ExtractorOperationTimeout  = 50 * time.Second
	ExtractorOpenFor           = 45 * time.Second
	ExtractorSlowCallThreshold = 20 * time.Second

	// Health
	HealthTimeoutDefault = 30 * time.Second

	// Scan orchestrator
	ScanBudgetDefault      = 5 * time.Minute
	ScanRetryDelayDefault  = 5 * time.Second
	ScanJobTimeoutDefault  = 90 * time.Second
	ScanConcurrencyDefault = 1
	HTTPRatePerHostDefault = 4 // requests/second per upstream host

	// Config watcher
	ConfigWatcherIntervalDefault = 2 * time.Second

	// App shutdown
	GracefulShutdownTimeoutDefault = 10 * time.Second

	// Scan audit trail SQL operations
	EventsSQLTimeoutDefault = 5 * time.Second

	// Monitoring
	MonitoringIntervalDefault = 5 * time.Second

	// Scheduler
	DailyScanScheduleDefault = "06:00"
)
