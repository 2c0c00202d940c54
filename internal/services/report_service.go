package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/clubpulse/lead-conversion-backend/internal/database"
	"github.com/clubpulse/lead-conversion-backend/internal/kpi"
	"github.com/clubpulse/lead-conversion-backend/internal/metrics"
	"github.com/clubpulse/lead-conversion-backend/internal/models"
)

// ReportService answers KPI queries. Every call works on its own consistent
// snapshot of the store.
type ReportService struct {
	store  database.Store
	metric kpi.RateMetric
	logger logrus.FieldLogger
}

// NewReportService creates a new ReportService
func NewReportService(store database.Store, metric kpi.RateMetric, logger logrus.FieldLogger) *ReportService {
	return &ReportService{store: store, metric: metric, logger: logger}
}

func (s *ReportService) aggregator(ctx context.Context) (*kpi.Aggregator, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	agg := kpi.NewAggregator(snap, s.metric)
	orphans := agg.Orphans()
	metrics.SetOrphanedReferences(len(orphans))
	if len(orphans) > 0 {
		s.logger.WithField("orphans", len(orphans)).Debug("Snapshot has unresolved references")
	}
	return agg, nil
}

// ConversionRate answers NotFound for an unknown staff id so the API can
// return 404; the aggregator itself reports a zero rate for it.
func (s *ReportService) ConversionRate(ctx context.Context, staffID string, window models.Window) (*models.ConversionRateReport, error) {
	agg, err := s.aggregator(ctx)
	if err != nil {
		return nil, err
	}
	if !agg.HasStaff(staffID) {
		return nil, &models.NotFoundError{Entity: "staff", ID: staffID}
	}
	return agg.ConversionRate(staffID, window), nil
}

func (s *ReportService) RevenueByStaffMonth(ctx context.Context, window models.Window) (*models.RevenueReport, error) {
	agg, err := s.aggregator(ctx)
	if err != nil {
		return nil, err
	}
	return agg.RevenueByStaffMonth(window), nil
}

func (s *ReportService) TimeToConvert(ctx context.Context, leadID string) (*models.TimeToConvertReport, error) {
	agg, err := s.aggregator(ctx)
	if err != nil {
		return nil, err
	}
	return agg.TimeToConvert(leadID)
}

func (s *ReportService) ClubTargetProgress(ctx context.Context, clubID string, month models.Month) (*models.TargetProgressReport, error) {
	agg, err := s.aggregator(ctx)
	if err != nil {
		return nil, err
	}
	return agg.ClubTargetProgress(clubID, month)
}

func (s *ReportService) StaffSummary(ctx context.Context, staffID string) (*models.StaffSummary, error) {
	agg, err := s.aggregator(ctx)
	if err != nil {
		return nil, err
	}
	return agg.StaffSummary(staffID)
}

func (s *ReportService) ClubRevenue(ctx context.Context, clubID string) (*models.ClubRevenueReport, error) {
	agg, err := s.aggregator(ctx)
	if err != nil {
		return nil, err
	}
	return agg.ClubRevenue(clubID)
}

// Orphans lists every unresolved reference in the current data
func (s *ReportService) Orphans(ctx context.Context) ([]models.OrphanedReference, error) {
	agg, err := s.aggregator(ctx)
	if err != nil {
		return nil, err
	}
	return agg.Orphans(), nil
}

// RefreshClubRevenue recomputes every club's cached revenue from active
// subscriptions and writes the ones that changed. Returns how many changed.
func (s *ReportService) RefreshClubRevenue(ctx context.Context) (int, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	revenues := kpi.NewAggregator(snap, s.metric).ClubRevenues()

	changed := 0
	for clubID, revenue := range revenues {
		if snap.Clubs[clubID].Revenue.Equal(revenue) {
			continue
		}
		if err := s.store.SetClubRevenue(ctx, clubID, revenue); err != nil {
			return changed, fmt.Errorf("failed to refresh revenue of club %s: %w", clubID, err)
		}
		changed++
	}
	return changed, nil
}
