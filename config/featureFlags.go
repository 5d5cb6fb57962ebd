package config

import (
	"os"
	"strings"
)

func envBool(name string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	return v == "1" || v == "true" || v == "yes" || v == "y" || v == "on"
}

// SkipMigrations disables AutoMigrate on startup. AutoMigrate can run DDL
// that blocks tables; run migrations as a separate job instead.
//
// Set via env:
// - SKIP_MIGRATIONS=true
func SkipMigrations() bool {
	return envBool("SKIP_MIGRATIONS")
}

// ReportCacheEnabled turns on redis caching of dashboard aggregates.
//
// Set via env:
// - ENABLE_REPORT_CACHE=true
func ReportCacheEnabled() bool {
	return envBool("ENABLE_REPORT_CACHE")
}

// SummaryEnabled turns on the external text-summary collaborator. Disabled
// by default so a missing API key never breaks the dashboard.
//
// Set via env:
// - ENABLE_SUMMARY=true
func SummaryEnabled() bool {
	return envBool("ENABLE_SUMMARY")
}
