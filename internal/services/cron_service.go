package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/clubpulse/lead-conversion-backend/internal/config"
	"github.com/clubpulse/lead-conversion-backend/internal/database"
	"github.com/clubpulse/lead-conversion-backend/internal/metrics"
	"github.com/clubpulse/lead-conversion-backend/internal/models"
)

// SnapshotSaver persists the whole store to a file
type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, path string) error
}

// CronService manages scheduled background jobs
type CronService struct {
	cron    *cron.Cron
	cfg     config.CronConfig
	store   database.Store
	reports *ReportService
	logger  logrus.FieldLogger
	now     func() time.Time

	saver        SnapshotSaver
	snapshotPath string
}

// NewCronService creates a new CronService. Specs use the standard
// five-field format and are evaluated in UTC.
func NewCronService(cfg config.CronConfig, store database.Store, reports *ReportService, logger logrus.FieldLogger) *CronService {
	return &CronService{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		cfg:     cfg,
		store:   store,
		reports: reports,
		logger:  logger,
		now:     time.Now,
	}
}

// WithSnapshots enables periodic snapshot files for the memory store
func (s *CronService) WithSnapshots(saver SnapshotSaver, path string) *CronService {
	s.saver = saver
	s.snapshotPath = path
	return s
}

type cronJob struct {
	name string
	spec string
	fn   func()
}

// Start schedules all jobs and starts the scheduler
func (s *CronService) Start() error {
	s.logger.Info("Starting cron service...")

	jobs := []cronJob{
		{"revenue refresh", s.cfg.RevenueRefreshSpec, s.refreshRevenueJob},
		{"subscription expiry", s.cfg.ExpirySpec, s.expireSubscriptionsJob},
	}
	if s.saver != nil && s.snapshotPath != "" {
		jobs = append(jobs, cronJob{"snapshot save", s.cfg.SnapshotSpec, s.saveSnapshotJob})
	}

	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.spec, job.fn); err != nil {
			return fmt.Errorf("failed to schedule %s job: %w", job.name, err)
		}
		s.logger.WithFields(logrus.Fields{"job": job.name, "spec": job.spec}).Info("Scheduled job")
	}

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	s.logger.Info("Stopping cron service...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

func (s *CronService) jobContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Minute)
}

// refreshRevenueJob recomputes cached club revenue from active subscriptions
func (s *CronService) refreshRevenueJob() {
	ctx, cancel := s.jobContext()
	defer cancel()
	start := time.Now()

	changed, err := s.RefreshRevenue(ctx)
	if err != nil {
		s.logger.WithError(err).Error("[CRON] Revenue refresh failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"clubs_changed": changed,
		"duration_ms":   time.Since(start).Milliseconds(),
	}).Info("[CRON] Revenue refreshed")
}

// expireSubscriptionsJob deactivates subscriptions past their end date
func (s *CronService) expireSubscriptionsJob() {
	ctx, cancel := s.jobContext()
	defer cancel()

	n, err := s.ExpireSubscriptions(ctx)
	if err != nil {
		s.logger.WithError(err).Error("[CRON] Subscription expiry failed")
		return
	}
	s.logger.WithField("expired", n).Info("[CRON] Subscriptions expired")
}

func (s *CronService) saveSnapshotJob() {
	ctx, cancel := s.jobContext()
	defer cancel()

	if err := s.saver.SaveSnapshot(ctx, s.snapshotPath); err != nil {
		s.logger.WithError(err).Error("[CRON] Snapshot save failed")
		return
	}
	s.logger.WithField("path", s.snapshotPath).Debug("[CRON] Snapshot saved")
}

// RefreshRevenue runs the revenue refresh immediately
func (s *CronService) RefreshRevenue(ctx context.Context) (int, error) {
	return s.reports.RefreshClubRevenue(ctx)
}

// ExpireSubscriptions runs the expiry job immediately. A subscription ending
// today is no longer active today.
func (s *CronService) ExpireSubscriptions(ctx context.Context) (int, error) {
	n, err := s.store.ExpireSubscriptions(ctx, models.DateOf(s.now()))
	if err != nil {
		return 0, err
	}
	metrics.RecordSubscriptionsExpired(n)
	return n, nil
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
