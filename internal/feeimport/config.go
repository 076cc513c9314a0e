package feeimport

import (
	"strings"

	"QuickBill305/internal/config"
)

// Config holds the limits and policies of the import pipeline.
type Config struct {
	StagingDir        string
	MaxUploadBytes    int64
	MaxRows           int
	AllowedExtensions []string
	// AcceptValidRows switches validation from all-or-nothing to partial
	// acceptance: valid rows go to preview, failing rows are only reported.
	AcceptValidRows bool
}

func DefaultConfig() Config {
	return Config{
		StagingDir:        config.DefaultStaging,
		MaxUploadBytes:    config.MaxUploadBytes,
		MaxRows:           config.MaxImportRows,
		AllowedExtensions: append([]string(nil), config.AllowedImportExtensions...),
	}
}

// ConfigFromMap reads the fees service block of services.yaml on top of the
// defaults.
func ConfigFromMap(cfg map[string]interface{}) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	c.StagingDir = config.String(cfg, "staging_dir", c.StagingDir)
	if v := config.Int(cfg, "max_upload_mb", 0); v > 0 {
		c.MaxUploadBytes = int64(v) << 20
	}
	if v := config.Int(cfg, "max_rows", 0); v > 0 {
		c.MaxRows = v
	}
	c.AcceptValidRows = config.Bool(cfg, "accept_valid_rows", c.AcceptValidRows)
	return c
}

func (c Config) extensionAllowed(ext string) bool {
	for _, e := range c.AllowedExtensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}
