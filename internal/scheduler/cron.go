package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is a scheduled unit of work
type Job func(ctx context.Context) error

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron          *cron.Cron
	refreshStats  Job
	warmCatalog   Job
	statsSchedule string
	warmEvery     time.Duration
	logger        *logrus.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a new scheduler. Overlapping runs of the same job are skipped.
func NewScheduler(refreshStats, warmCatalog Job, statsSchedule string, warmEvery time.Duration, logger *logrus.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:          cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger)))),
		refreshStats:  refreshStats,
		warmCatalog:   warmCatalog,
		statsSchedule: statsSchedule,
		warmEvery:     warmEvery,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	_, err := s.cron.AddFunc(s.statsSchedule, func() {
		s.runStatsRefresh()
	})
	if err != nil {
		return fmt.Errorf("failed to add statistics job: %w", err)
	}

	if s.warmEvery > 0 {
		_, err = s.cron.AddFunc(fmt.Sprintf("@every %s", s.warmEvery), func() {
			s.runCatalogWarm()
		})
		if err != nil {
			return fmt.Errorf("failed to add catalog job: %w", err)
		}
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")

	// Fill the catalog and the dashboard right away
	go func() {
		s.runCatalogWarm()
		s.runStatsRefresh()
	}()

	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	<-s.cron.Stop().Done()
}

// runStatsRefresh executes the dashboard statistics job
func (s *Scheduler) runStatsRefresh() {
	s.logger.Info("Running scheduled statistics refresh")

	if err := s.refreshStats(s.ctx); err != nil {
		s.logger.WithError(err).Error("Statistics job failed")
	} else {
		s.logger.Info("Statistics job completed successfully")
	}
}

// runCatalogWarm executes the catalog warming job
func (s *Scheduler) runCatalogWarm() {
	s.logger.Debug("Warming movie catalog")

	if err := s.warmCatalog(s.ctx); err != nil {
		s.logger.WithError(err).Warn("Catalog warm failed")
	}
}
