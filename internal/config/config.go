package config

import "time"

const (
	DefaultTimeZone = "Africa/Accra"

	// Bulk fee import limits
	MaxUploadBytes   = 10 << 20
	MaxImportRows    = 500
	EncodingSampleSz = 64 << 10
	DefaultStaging   = "./storage/imports"

	// Staging sweeper
	DefaultSweepSchedule = "*/15 * * * *"
	DefaultSweepMaxAge   = time.Hour

	// Sessions
	DefaultSessionTimeout = 30 * time.Minute
	SessionCleanerPeriod  = 5 * time.Minute

	// Ports
	DefaultFeesPort    = 6305
	DefaultGatewayPort = 8305
)

// AllowedImportExtensions are the upload extensions accepted by intake.
var AllowedImportExtensions = []string{"csv", "xlsx", "xls"}
