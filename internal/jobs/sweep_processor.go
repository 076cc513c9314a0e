package jobs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"QuickBill305/internal/config"
	"QuickBill305/internal/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// stagedPrefix matches both staged uploads and transcoded copies.
const stagedPrefix = "import-"

// SweepConfig holds configuration for the staging sweeper
type SweepConfig struct {
	Schedule string
	Dir      string
	MaxAge   time.Duration
	TimeZone string
}

// NewDefaultSweepConfig creates a new SweepConfig with default values
func NewDefaultSweepConfig() *SweepConfig {
	return &SweepConfig{
		Schedule: config.DefaultSweepSchedule,
		Dir:      config.DefaultStaging,
		MaxAge:   config.DefaultSweepMaxAge,
		TimeZone: config.DefaultTimeZone,
	}
}

// RunSweepScheduler starts the cron job that clears stale staging files.
// The caller stops the returned scheduler.
func RunSweepScheduler(cfg *SweepConfig) (*cron.Cron, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = config.DefaultSweepSchedule
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = config.DefaultSweepMaxAge
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = config.DefaultTimeZone
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cfg.Schedule, func() {
		removed, err := SweepStagingDir(cfg.Dir, cfg.MaxAge, time.Now())
		if err != nil {
			logger.L().Error("staging sweep failed", zap.String("dir", cfg.Dir), zap.Error(err))
			return
		}
		if removed > 0 {
			logger.L().Info("staging sweep", zap.String("dir", cfg.Dir), zap.Int("removed", removed))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("unable to schedule staging sweeper: %v", err)
	}

	c.Start()
	logger.GlobalLogger.LogAudit("staging sweeper scheduled",
		zap.String("schedule", cfg.Schedule), zap.Duration("max_age", cfg.MaxAge))
	return c, nil
}

// SweepStagingDir removes staged import files last modified before
// now-maxAge. Other files and subdirectories are left alone. A missing
// directory is not an error.
func SweepStagingDir(dir string, maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	cutoff := now.Add(-maxAge)
	removed := 0
	var errs []error
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), stagedPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// removed by its own request in the meantime
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
