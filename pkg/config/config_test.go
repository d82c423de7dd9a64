package config

import "testing"

func TestValidateRequiresDBDSNAndHomePostcode(t *testing.T) {
	cfg := &Config{
		ScanSchedule:               "06:00",
		ScanConcurrency:            1,
		ScanTimeoutSeconds:         300,
		HTTPRatePerHost:            4,
		LogLevel:                   "info",
		LogFormat:                  "json",
		DBMaxOpenConns:             25,
		DBMaxIdleConns:             5,
		ShutdownGraceSeconds:       10,
		ConfigWatchIntervalSeconds: 2,
		AdminAddr:                  ":8091",
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for missing DB_DSN and HOME_POSTCODE")
	}
}

func TestValidatePassesWithRequiredFields(t *testing.T) {
	cfg := &Config{
		HomePostcode:               "SW1A 1AA",
		DBDSN:                      "user:pass@tcp(localhost:3306)/eventscout",
		ScanSchedule:               "06:00",
		ScanConcurrency:            1,
		ScanTimeoutSeconds:         300,
		HTTPRatePerHost:            4,
		LogLevel:                   "info",
		LogFormat:                  "json",
		DBMaxOpenConns:             25,
		DBMaxIdleConns:             5,
		ShutdownGraceSeconds:       10,
		ConfigWatchIntervalSeconds: 2,
		AdminAddr:                  ":8091",
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidateRejectsBadScanSchedule(t *testing.T) {
	cfg := &Config{
		HomePostcode:               "SW1A 1AA",
		DBDSN:                      "user:pass@tcp(localhost:3306)/eventscout",
		ScanSchedule:               "25:99",
		ScanConcurrency:            1,
		ScanTimeoutSeconds:         300,
		HTTPRatePerHost:            4,
		LogLevel:                   "info",
		LogFormat:                  "json",
		DBMaxOpenConns:             25,
		DBMaxIdleConns:             5,
		ShutdownGraceSeconds:       10,
		ConfigWatchIntervalSeconds: 2,
		AdminAddr:                  ":8091",
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for malformed SCAN_SCHEDULE")
	}
}

func TestValidateRejectsOutOfRangeConcurrency(t *testing.T) {
	cfg := &Config{
		HomePostcode:               "SW1A 1AA",
		DBDSN:                      "user:pass@tcp(localhost:3306)/eventscout",
		ScanSchedule:               "06:00",
		ScanConcurrency:            0,
		ScanTimeoutSeconds:         300,
		HTTPRatePerHost:            4,
		LogLevel:                   "info",
		LogFormat:                  "json",
		DBMaxOpenConns:             25,
		DBMaxIdleConns:             5,
		ShutdownGraceSeconds:       10,
		ConfigWatchIntervalSeconds: 2,
		AdminAddr:                  ":8091",
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for SCAN_CONCURRENCY of 0")
	}
}
