package jobs

import (
	"time"

	"QuickBill305/internal/config"
	"QuickBill305/internal/logger"
	"QuickBill305/internal/serviceiface"

	"github.com/robfig/cron/v3"
)

// SweeperService runs the staging sweeper on its cron schedule.
type SweeperService struct {
	config map[string]interface{}
	cron   *cron.Cron
}

func NewSweeperService(cfg map[string]interface{}) serviceiface.Service {
	return &SweeperService{config: cfg}
}

func (s *SweeperService) Name() string {
	return "sweeper"
}

func (s *SweeperService) Start() error {
	cfg := NewDefaultSweepConfig()
	cfg.Schedule = config.String(s.config, "schedule", cfg.Schedule)
	cfg.Dir = config.String(s.config, "staging_dir", cfg.Dir)
	cfg.MaxAge = config.Duration(s.config, "max_age", time.Second, cfg.MaxAge)
	cfg.TimeZone = config.String(s.config, "time_zone", cfg.TimeZone)

	c, err := RunSweepScheduler(cfg)
	if err != nil {
		return err
	}
	s.cron = c
	return nil
}

func (s *SweeperService) Stop() error {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logger.L().Info("staging sweeper stopped")
	}
	return nil
}
