package kpi

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/clubpulse/lead-conversion-backend/internal/models"
)

// RateMetric selects which leads form the conversion-rate denominator
type RateMetric string

const (
	// RateByCreation counts leads created in the window; the numerator is
	// the subset that also converted in the window.
	RateByCreation RateMetric = "creation"
	// RateByActivity counts leads created or converted in the window
	RateByActivity RateMetric = "activity"
)

// ParseRateMetric parses a rate metric name; empty means creation
func ParseRateMetric(s string) (RateMetric, error) {
	switch RateMetric(strings.ToLower(strings.TrimSpace(s))) {
	case RateByCreation, "":
		return RateByCreation, nil
	case RateByActivity:
		return RateByActivity, nil
	default:
		return "", fmt.Errorf("unknown KPI rate metric %q (expected creation or activity)", s)
	}
}

var hundred = decimal.NewFromInt(100)

// Aggregator computes derived metrics over a snapshot. It never mutates the
// snapshot. References that do not resolve exclude the referring record
// from every aggregate and are reported as orphans.
type Aggregator struct {
	snap   *models.Snapshot
	metric RateMetric

	leads   map[string]models.Lead
	subs    []models.Subscription
	subsOf  map[string][]models.Subscription
	orphans []models.OrphanedReference
}

// NewAggregator creates a new Aggregator over snap
func NewAggregator(snap *models.Snapshot, metric RateMetric) *Aggregator {
	if metric == "" {
		metric = RateByCreation
	}
	a := &Aggregator{
		snap:   snap,
		metric: metric,
		leads:  make(map[string]models.Lead, len(snap.Leads)),
		subsOf: make(map[string][]models.Subscription),
	}
	a.index()
	return a
}

// index separates resolvable records from orphans, in id order so the
// diagnostics are stable
func (a *Aggregator) index() {
	for _, id := range sortedKeys(a.snap.Leads) {
		l := a.snap.Leads[id]
		ok := true
		if l.StaffID != nil {
			if _, found := a.snap.Staff[*l.StaffID]; !found {
				a.orphan("lead", l.ID, "staff_id", *l.StaffID)
				ok = false
			}
		}
		if l.ClubID != nil {
			if _, found := a.snap.Clubs[*l.ClubID]; !found {
				a.orphan("lead", l.ID, "club_id", *l.ClubID)
				ok = false
			}
		}
		if ok {
			a.leads[l.ID] = l
		}
	}

	for _, id := range sortedKeys(a.snap.Subscriptions) {
		s := a.snap.Subscriptions[id]
		ok := true
		if _, found := a.snap.Leads[s.LeadID]; !found {
			a.orphan("subscription", s.ID, "lead_id", s.LeadID)
			ok = false
		}
		if _, found := a.snap.SubscriptionTypes[s.TypeID]; !found {
			a.orphan("subscription", s.ID, "type_id", s.TypeID)
			ok = false
		}
		// A subscription of an excluded lead is excluded with it
		if _, kept := a.leads[s.LeadID]; ok && kept {
			a.subs = append(a.subs, s)
			a.subsOf[s.LeadID] = append(a.subsOf[s.LeadID], s)
		}
	}
}

func (a *Aggregator) orphan(entity, id, field, missing string) {
	a.orphans = append(a.orphans, models.OrphanedReference{
		Entity: entity, EntityID: id, Field: field, MissingID: missing,
	})
}

// Orphans returns every unresolved reference found in the snapshot
func (a *Aggregator) Orphans() []models.OrphanedReference {
	out := make([]models.OrphanedReference, len(a.orphans))
	copy(out, a.orphans)
	return out
}

// HasStaff reports whether staffID resolves in the snapshot
func (a *Aggregator) HasStaff(staffID string) bool {
	_, ok := a.snap.Staff[staffID]
	return ok
}

// ConversionRate returns the percentage of the staff member's leads that
// converted inside window, rounded to two decimals. It never fails: zero
// leads, including an unknown staff id, yields 0.
func (a *Aggregator) ConversionRate(staffID string, window models.Window) *models.ConversionRateReport {
	report := &models.ConversionRateReport{
		StaffID: staffID,
		Window:  window,
		Metric:  string(a.metric),
		Orphans: a.Orphans(),
	}

	for _, l := range a.leads {
		if l.StaffID == nil || *l.StaffID != staffID {
			continue
		}
		created := window.Contains(l.CreationDate)
		converted := l.IsConverted() && window.ContainsPtr(l.ConversionDate)

		switch a.metric {
		case RateByActivity:
			if created || converted {
				report.Leads++
			}
			if converted {
				report.Converted++
			}
		default:
			if created {
				report.Leads++
				if converted {
					report.Converted++
				}
			}
		}
	}

	report.Rate = percentage(report.Converted, report.Leads)
	return report
}

type staffMonth struct {
	staffID string
	month   models.Month
}

// RevenueByStaffMonth attributes subscription revenue to the staff member
// and month of each lead's conversion. Only leads converted inside window
// count. Rows are ordered by month desc, revenue desc, staff id asc.
func (a *Aggregator) RevenueByStaffMonth(window models.Window) *models.RevenueReport {
	rows := make(map[staffMonth]*models.StaffMonthRevenue)

	for _, l := range a.leads {
		if !l.IsConverted() || l.StaffID == nil || !window.ContainsPtr(l.ConversionDate) {
			continue
		}
		key := staffMonth{staffID: *l.StaffID, month: models.MonthOf(*l.ConversionDate)}
		row, ok := rows[key]
		if !ok {
			staff := a.snap.Staff[key.staffID]
			row = &models.StaffMonthRevenue{
				StaffID:   key.staffID,
				StaffName: staff.FullName(),
				Month:     key.month,
				Revenue:   decimal.Zero,
			}
			rows[key] = row
		}
		row.Conversions++
		for _, s := range a.subsOf[l.ID] {
			row.Revenue = row.Revenue.Add(s.ActualPrice)
		}
	}

	out := make([]models.StaffMonthRevenue, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[j].Month.Before(out[i].Month)
		}
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].StaffID < out[j].StaffID
	})

	return &models.RevenueReport{Window: window, Rows: out, Orphans: a.Orphans()}
}

// TimeToConvert returns the whole days between creation and conversion
func (a *Aggregator) TimeToConvert(leadID string) (*models.TimeToConvertReport, error) {
	l, ok := a.snap.Leads[leadID]
	if !ok {
		return nil, &models.NotFoundError{Entity: "lead", ID: leadID}
	}
	if !l.IsConverted() || l.ConversionDate == nil {
		return nil, &models.NotConvertedError{LeadID: leadID, Status: l.Status}
	}
	return &models.TimeToConvertReport{
		LeadID:         leadID,
		CreationDate:   l.CreationDate,
		ConversionDate: *l.ConversionDate,
		Days:           models.DaysBetween(l.CreationDate, *l.ConversionDate),
		Orphans:        a.orphansOf(leadID),
	}, nil
}

// ClubTargetProgress returns conversions of the club's leads in month divided
// by the monthly target. It may exceed 1. A zero target yields 0.
func (a *Aggregator) ClubTargetProgress(clubID string, month models.Month) (*models.TargetProgressReport, error) {
	club, ok := a.snap.Clubs[clubID]
	if !ok {
		return nil, &models.NotFoundError{Entity: "club", ID: clubID}
	}

	window := month.Window()
	report := &models.TargetProgressReport{
		ClubID:        clubID,
		Month:         month,
		MonthlyTarget: club.MonthlyTarget,
		Orphans:       a.Orphans(),
	}
	for _, l := range a.leads {
		if l.ClubID != nil && *l.ClubID == clubID && l.IsConverted() && window.ContainsPtr(l.ConversionDate) {
			report.Converted++
		}
	}
	if club.MonthlyTarget > 0 {
		report.Progress = float64(report.Converted) / float64(club.MonthlyTarget)
	}
	return report, nil
}

// StaffSummary returns all-time lead, conversion and revenue figures
func (a *Aggregator) StaffSummary(staffID string) (*models.StaffSummary, error) {
	staff, ok := a.snap.Staff[staffID]
	if !ok {
		return nil, &models.NotFoundError{Entity: "staff", ID: staffID}
	}

	summary := &models.StaffSummary{
		StaffID:   staffID,
		StaffName: staff.FullName(),
		Revenue:   decimal.Zero,
		Orphans:   a.Orphans(),
	}
	for _, l := range a.leads {
		if l.StaffID == nil || *l.StaffID != staffID {
			continue
		}
		summary.TotalLeads++
		if !l.IsConverted() {
			continue
		}
		summary.ConvertedLeads++
		for _, s := range a.subsOf[l.ID] {
			summary.Revenue = summary.Revenue.Add(s.ActualPrice)
		}
	}
	summary.ConversionRate = percentage(summary.ConvertedLeads, summary.TotalLeads)
	return summary, nil
}

// ClubRevenue sums active subscriptions of the club's leads
func (a *Aggregator) ClubRevenue(clubID string) (*models.ClubRevenueReport, error) {
	if _, ok := a.snap.Clubs[clubID]; !ok {
		return nil, &models.NotFoundError{Entity: "club", ID: clubID}
	}

	report := &models.ClubRevenueReport{ClubID: clubID, Revenue: decimal.Zero, Orphans: a.Orphans()}
	for _, s := range a.subs {
		if !s.Active {
			continue
		}
		l := a.leads[s.LeadID]
		if l.ClubID == nil || *l.ClubID != clubID {
			continue
		}
		report.ActiveSubscriptions++
		report.Revenue = report.Revenue.Add(s.ActualPrice)
	}
	return report, nil
}

// ClubRevenues computes ClubRevenue for every club in the snapshot
func (a *Aggregator) ClubRevenues() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(a.snap.Clubs))
	for id := range a.snap.Clubs {
		out[id] = decimal.Zero
	}
	for _, s := range a.subs {
		if !s.Active {
			continue
		}
		l := a.leads[s.LeadID]
		if l.ClubID == nil {
			continue
		}
		out[*l.ClubID] = out[*l.ClubID].Add(s.ActualPrice)
	}
	return out
}

// orphansOf returns diagnostics raised by the lead or its subscriptions
func (a *Aggregator) orphansOf(leadID string) []models.OrphanedReference {
	out := []models.OrphanedReference{}
	for _, o := range a.orphans {
		if o.Entity == "lead" && o.EntityID == leadID {
			out = append(out, o)
			continue
		}
		if o.Entity == "subscription" {
			if s, ok := a.snap.Subscriptions[o.EntityID]; ok && s.LeadID == leadID {
				out = append(out, o)
			}
		}
	}
	return out
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	rate := decimal.NewFromInt(int64(part)).Mul(hundred).Div(decimal.NewFromInt(int64(total))).Round(2)
	f, _ := rate.Float64()
	return f
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
