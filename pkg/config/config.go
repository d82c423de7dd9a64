package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"eventscout/internal/constants"
)

// Config is the environment-driven configuration for the whole process
// (SPEC_FULL.md §6). HomePostcode and ScanConcurrency are hot-reloadable
// through Watcher; everything else takes effect on the next process start.
type Config struct {
	HomePostcode string

	ScanSchedule        string
	ScanConcurrency     int
	ScanTimeoutSeconds  int
	HTTPRatePerHost     float64

	LogLevel  string
	LogFormat string

	GeocoderPrimaryURL  string
	GeocoderFallbackURL string
	GenericGeocoderURL  string // Google Maps API key for the step-5 fallback

	GenericExtractorURL   string
	GenericExtractorModel string
	OpenAIAPIKey          string

	DBDSN          string
	DBMaxOpenConns int
	DBMaxIdleConns int

	ShutdownGraceSeconds       int
	ConfigWatchIntervalSeconds int

	AdminAddr string
}

// Load reads Config from the environment, applying the defaults from
// SPEC_FULL.md §6.
func Load() *Config {
	scanConcurrency, _ := strconv.Atoi(getEnv("SCAN_CONCURRENCY", strconv.Itoa(constants.ScanConcurrencyDefault)))
	scanTimeoutSec, _ := strconv.Atoi(getEnv("SCAN_TIMEOUT_SECONDS", strconv.Itoa(int(constants.ScanBudgetDefault.Seconds()))))
	httpRatePerHost, _ := strconv.ParseFloat(getEnv("HTTP_RATE_PER_HOST", strconv.Itoa(constants.HTTPRatePerHostDefault)), 64)

	dbMaxOpenConns, _ := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "25"))
	dbMaxIdleConns, _ := strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "5"))

	shutdownGraceSec, _ := strconv.Atoi(getEnv("SHUTDOWN_GRACE_SECONDS", strconv.Itoa(int(constants.GracefulShutdownTimeoutDefault.Seconds()))))
	watchIntervalSec, _ := strconv.Atoi(getEnv("CONFIG_WATCH_INTERVAL_SECONDS", strconv.Itoa(int(constants.ConfigWatcherIntervalDefault.Seconds()))))

	return &Config{
		HomePostcode: getEnv("HOME_POSTCODE", ""),

		ScanSchedule:       getEnv("SCAN_SCHEDULE", constants.DailyScanScheduleDefault),
		ScanConcurrency:    scanConcurrency,
		ScanTimeoutSeconds: scanTimeoutSec,
		HTTPRatePerHost:    httpRatePerHost,

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		GeocoderPrimaryURL:  getEnv("GEOCODER_PRIMARY_URL", ""),
		GeocoderFallbackURL: getEnv("GEOCODER_FALLBACK_URL", ""),
		GenericGeocoderURL:  getEnv("GENERIC_GEOCODER_URL", ""),

		GenericExtractorURL:   getEnv("GENERIC_EXTRACTOR_URL", ""),
		GenericExtractorModel: getEnv("GENERIC_EXTRACTOR_MODEL", "gpt-4o-mini"),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),

		DBDSN:          getEnv("DB_DSN", ""),
		DBMaxOpenConns: dbMaxOpenConns,
		DBMaxIdleConns: dbMaxIdleConns,

		ShutdownGraceSeconds:       shutdownGraceSec,
		ConfigWatchIntervalSeconds: watchIntervalSec,

		AdminAddr: getEnv("ADMIN_ADDR", ":8091"),
	}
}

// ScanTimeout is ScanTimeoutSeconds as a time.Duration.
func (c *Config) ScanTimeout() time.Duration {
	return time.Duration(c.ScanTimeoutSeconds) * time.Second
}

// ShutdownGrace is ShutdownGraceSeconds as a time.Duration.
func (c *Config) ShutdownGrace() time.Duration {
	return time.Duration(c.ShutdownGraceSeconds) * time.Second
}

// ConfigWatchInterval is ConfigWatchIntervalSeconds as a time.Duration.
func (c *Config) ConfigWatchInterval() time.Duration {
	return time.Duration(c.ConfigWatchIntervalSeconds) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
