package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/supto/pharmacy-buddy/internal/config"
	"github.com/supto/pharmacy-buddy/internal/service/reporting"
)

// Scheduler manages scheduled tasks: the nightly activity snapshot and the
// recurring low-stock sweep.
type Scheduler struct {
	cron         *cron.Cron
	reportingSvc *reporting.Service
	cfg          config.ReportingConfig
	logger       *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.ReportingConfig, reportingSvc *reporting.Service, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, falling back to local", zap.String("timezone", cfg.Timezone), zap.Error(err))
		location = time.Local
	}

	return &Scheduler{
		cron:         cron.New(cron.WithLocation(location)),
		reportingSvc: reportingSvc,
		cfg:          cfg,
		logger:       logger,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler",
		zap.String("dailySchedule", s.cfg.DailyCronSchedule),
		zap.String("lowStockSchedule", s.cfg.LowStockCronSchedule))

	if _, err := s.cron.AddFunc(s.cfg.DailyCronSchedule, s.snapshotYesterday); err != nil {
		s.logger.Error("failed to schedule daily report", zap.Error(err))
	}
	if _, err := s.cron.AddFunc(s.cfg.LowStockCronSchedule, s.sweepLowStock); err != nil {
		s.logger.Error("failed to schedule low stock sweep", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) snapshotYesterday() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	day := time.Now().UTC().AddDate(0, 0, -1)
	report, err := s.reportingSvc.SnapshotDay(ctx, day)
	if err != nil {
		s.logger.Error("failed to snapshot daily report", zap.Error(err))
		return
	}

	s.logger.Info("daily report stored",
		zap.Time("date", report.Date),
		zap.Int64("sales", report.SalesCount),
		zap.Float64("revenue", report.Revenue))
}

func (s *Scheduler) sweepLowStock() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := s.reportingSvc.LowStockSweep(ctx); err != nil {
		s.logger.Error("failed low stock sweep", zap.Error(err))
	}
}
