package config

import (
	"fmt"
	"strconv"
	"strings"

	errs "eventscout/pkg/errors"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s=%q: %s", e.Field, e.Value, e.Message)
}

// ConfigValidator accumulates validation errors so Validate can report all
// of them at once instead of failing on the first.
type ConfigValidator struct {
	errors []ValidationError
}

func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{errors: make([]ValidationError, 0)}
}

func (cv *ConfigValidator) AddError(field, value, message string) {
	cv.errors = append(cv.errors, ValidationError{Field: field, Value: value, Message: message})
}

func (cv *ConfigValidator) HasErrors() bool {
	return len(cv.errors) > 0
}

func (cv *ConfigValidator) GetErrors() []ValidationError {
	return cv.errors
}

func (cv *ConfigValidator) GetErrorsAsString() string {
	var errorStrings []string
	for _, err := range cv.errors {
		errorStrings = append(errorStrings, err.Error())
	}
	return strings.Join(errorStrings, "\n")
}

// Validate validates the entire configuration.
func (c *Config) Validate() error {
	v := NewConfigValidator()

	c.validateRequired(v)
	c.validateFormats(v)
	c.validateRanges(v)

	if v.HasErrors() {
		return errs.NewValidation("cfg.Validate", v.GetErrorsAsString(), nil)
	}
	return nil
}

func (c *Config) validateRequired(v *ConfigValidator) {
	if c.DBDSN == "" {
		v.AddError("DB_DSN", c.DBDSN, "required")
	}
	if c.HomePostcode == "" {
		v.AddError("HOME_POSTCODE", c.HomePostcode, "required")
	}
}

func (c *Config) validateFormats(v *ConfigValidator) {
	if c.ScanSchedule != "" {
		if _, err := parseHHMM(c.ScanSchedule); err != nil {
			v.AddError("SCAN_SCHEDULE", c.ScanSchedule, "want HH:MM local time")
		}
	}
	validLogLevels := []string{"trace", "debug", "info", "warn", "error", "fatal"}
	if c.LogLevel != "" && !contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		v.AddError("LOG_LEVEL", c.LogLevel, "bad log level")
	}
	if c.LogFormat != "" && c.LogFormat != "json" && c.LogFormat != "text" {
		v.AddError("LOG_FORMAT", c.LogFormat, "bad log format")
	}
	if c.AdminAddr != "" {
		parts := strings.Split(c.AdminAddr, ":")
		if len(parts) < 2 {
			v.AddError("ADMIN_ADDR", c.AdminAddr, "want host:port")
		} else if port, err := strconv.Atoi(parts[len(parts)-1]); err != nil || port < 1 || port > 65535 {
			v.AddError("ADMIN_ADDR", c.AdminAddr, "bad port (1-65535)")
		}
	}
}

func (c *Config) validateRanges(v *ConfigValidator) {
	if c.ScanConcurrency < 1 || c.ScanConcurrency > 64 {
		v.AddError("SCAN_CONCURRENCY", strconv.Itoa(c.ScanConcurrency), "out of range (1-64)")
	}
	if c.ScanTimeoutSeconds < 1 {
		v.AddError("SCAN_TIMEOUT_SECONDS", strconv.Itoa(c.ScanTimeoutSeconds), "must be positive")
	}
	if c.HTTPRatePerHost <= 0 {
		v.AddError("HTTP_RATE_PER_HOST", strconv.FormatFloat(c.HTTPRatePerHost, 'f', -1, 64), "must be positive")
	}
	if c.DBMaxOpenConns < 1 || c.DBMaxOpenConns > 1000 {
		v.AddError("DB_MAX_OPEN_CONNS", strconv.Itoa(c.DBMaxOpenConns), "out of range (1-1000)")
	}
	if c.DBMaxIdleConns < 0 || c.DBMaxIdleConns > c.DBMaxOpenConns {
		v.AddError("DB_MAX_IDLE_CONNS", strconv.Itoa(c.DBMaxIdleConns), "must be 0..max_open")
	}
	if c.ShutdownGraceSeconds < 0 {
		v.AddError("SHUTDOWN_GRACE_SECONDS", strconv.Itoa(c.ShutdownGraceSeconds), "must be non-negative")
	}
	if c.ConfigWatchIntervalSeconds < 1 {
		v.AddError("CONFIG_WATCH_INTERVAL_SECONDS", strconv.Itoa(c.ConfigWatchIntervalSeconds), "must be positive")
	}
}

func parseHHMM(hhmm string) (struct{ Hour, Minute int }, error) {
	var out struct{ Hour, Minute int }
	parts := strings.Split(hhmm, ":")
	if len(parts) != 2 {
		return out, fmt.Errorf("want HH:MM")
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return out, fmt.Errorf("bad hour")
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return out, fmt.Errorf("bad minute")
	}
	out.Hour, out.Minute = h, m
	return out, nil
}

// GetConfigSummary returns a summary of the configuration, masking secrets.
func (c *Config) GetConfigSummary() map[string]interface{} {
	return map[string]interface{}{
		"home_postcode":      c.HomePostcode,
		"scan_schedule":      c.ScanSchedule,
		"scan_concurrency":   c.ScanConcurrency,
		"scan_timeout_secs":  c.ScanTimeoutSeconds,
		"http_rate_per_host": c.HTTPRatePerHost,
		"log_level":          c.LogLevel,
		"log_format":         c.LogFormat,
		"openai_api_key":     maskString(c.OpenAIAPIKey, 6),
		"db_dsn":             maskString(c.DBDSN, 10),
		"db_max_open_conns":  c.DBMaxOpenConns,
		"db_max_idle_conns":  c.DBMaxIdleConns,
		"admin_addr":         c.AdminAddr,
	}
}

func maskString(s string, keepFirst int) string {
	if s == "" {
		return ""
	}
	if len(s) <= keepFirst {
		return strings.Repeat("*", len(s))
	}
	return s[:keepFirst] + strings.Repeat("*", len(s)-keepFirst)
}
