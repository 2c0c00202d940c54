package kpi

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubpulse/lead-conversion-backend/internal/models"
)

const (
	staffA = "00000000-0000-0000-0000-00000000000a"
	staffB = "00000000-0000-0000-0000-00000000000b"
	clubID = "00000000-0000-0000-0000-0000000000c1"
	planID = "00000000-0000-0000-0000-0000000000d1"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ref(s string) *string { return &s }

type fixture struct {
	snap *models.Snapshot
}

func newFixture() *fixture {
	snap := models.NewSnapshot()
	snap.AddStaff(models.Staff{ID: staffA, FirstName: "Alex", LastName: "Ames", Role: models.RoleSales})
	snap.AddStaff(models.Staff{ID: staffB, FirstName: "Blair", LastName: "Boyd", Role: models.RoleTrainer})
	snap.AddClub(models.Club{ID: clubID, Name: "Downtown", MonthlyTarget: 4})
	snap.AddSubscriptionType(models.SubscriptionType{ID: planID, Name: "Monthly", BasePrice: decimal.NewFromInt(50), DurationDays: 30})
	return &fixture{snap: snap}
}

func (f *fixture) lead(id, staffID string, created time.Time, converted *time.Time) {
	l := models.Lead{
		ID:           id,
		FirstName:    "Lead",
		LastName:     id,
		Status:       models.StatusContacted,
		CreationDate: created,
		ClubID:       ref(clubID),
	}
	if staffID != "" {
		l.StaffID = ref(staffID)
	}
	if converted != nil {
		l.Status = models.StatusConverted
		l.ConversionDate = converted
	}
	f.snap.AddLead(l)
}

func (f *fixture) sub(id, leadID, typeID string, price string, active bool) {
	f.snap.AddSubscription(models.Subscription{
		ID:          id,
		LeadID:      leadID,
		TypeID:      typeID,
		ActualPrice: decimal.RequireFromString(price),
		StartDate:   day(2024, time.March, 1),
		EndDate:     day(2024, time.March, 31),
		Active:      active,
	})
}

func ptr(t time.Time) *time.Time { return &t }

func TestParseRateMetric(t *testing.T) {
	m, err := ParseRateMetric("")
	require.NoError(t, err)
	assert.Equal(t, RateByCreation, m)

	m, err = ParseRateMetric("ACTIVITY")
	require.NoError(t, err)
	assert.Equal(t, RateByActivity, m)

	_, err = ParseRateMetric("vibes")
	assert.Error(t, err)
}

func TestRevenueByStaffMonth_MarchFixture(t *testing.T) {
	f := newFixture()
	f.lead("lead-1", staffA, day(2024, time.February, 20), ptr(day(2024, time.March, 5)))
	f.lead("lead-2", staffA, day(2024, time.March, 1), ptr(day(2024, time.March, 18)))
	f.sub("sub-1", "lead-1", planID, "50.0", true)
	f.sub("sub-2", "lead-2", planID, "75.0", true)

	report := NewAggregator(f.snap, RateByCreation).RevenueByStaffMonth(models.Window{})

	require.Len(t, report.Rows, 1)
	row := report.Rows[0]
	assert.Equal(t, staffA, row.StaffID)
	assert.Equal(t, "Alex Ames", row.StaffName)
	assert.Equal(t, models.Month{Year: 2024, Month: time.March}, row.Month)
	assert.Equal(t, 2, row.Conversions)
	assert.True(t, decimal.RequireFromString("125.0").Equal(row.Revenue), "got %s", row.Revenue)
	assert.Empty(t, report.Orphans)
}

func TestRevenueByStaffMonth_Ordering(t *testing.T) {
	f := newFixture()
	f.lead("lead-1", staffA, day(2024, time.January, 2), ptr(day(2024, time.February, 3)))
	f.lead("lead-2", staffB, day(2024, time.January, 2), ptr(day(2024, time.March, 3)))
	f.lead("lead-3", staffA, day(2024, time.January, 2), ptr(day(2024, time.March, 9)))
	f.lead("lead-4", staffB, day(2024, time.January, 2), ptr(day(2024, time.February, 9)))
	f.sub("sub-1", "lead-1", planID, "40", true)
	f.sub("sub-2", "lead-2", planID, "90", true)
	f.sub("sub-3", "lead-3", planID, "60", true)
	f.sub("sub-4", "lead-4", planID, "40", true)

	rows := NewAggregator(f.snap, RateByCreation).RevenueByStaffMonth(models.Window{}).Rows

	require.Len(t, rows, 4)
	assert.Equal(t, []string{staffB, staffA, staffA, staffB}, []string{rows[0].StaffID, rows[1].StaffID, rows[2].StaffID, rows[3].StaffID})
	assert.Equal(t, time.March, rows[0].Month.Month)
	assert.Equal(t, time.March, rows[1].Month.Month)
	assert.Equal(t, time.February, rows[2].Month.Month)
}

func TestRevenueByStaffMonth_WindowFiltersConversions(t *testing.T) {
	f := newFixture()
	f.lead("lead-1", staffA, day(2024, time.January, 2), ptr(day(2024, time.February, 3)))
	f.lead("lead-2", staffA, day(2024, time.January, 2), ptr(day(2024, time.March, 3)))
	f.sub("sub-1", "lead-1", planID, "40", true)
	f.sub("sub-2", "lead-2", planID, "90", true)

	rows := NewAggregator(f.snap, RateByCreation).
		RevenueByStaffMonth(models.Month{Year: 2024, Month: time.March}.Window()).Rows

	require.Len(t, rows, 1)
	assert.True(t, decimal.NewFromInt(90).Equal(rows[0].Revenue))
}

func TestRevenueByStaffMonth_OrphanedSubscriptionExcluded(t *testing.T) {
	f := newFixture()
	f.lead("lead-1", staffA, day(2024, time.March, 1), ptr(day(2024, time.March, 5)))
	f.sub("sub-1", "lead-1", planID, "50", true)
	f.sub("sub-ghost", "missing-lead", planID, "999", true)
	f.sub("sub-bad-plan", "lead-1", "missing-plan", "500", true)

	report := NewAggregator(f.snap, RateByCreation).RevenueByStaffMonth(models.Window{})

	require.Len(t, report.Rows, 1)
	assert.True(t, decimal.NewFromInt(50).Equal(report.Rows[0].Revenue))
	assert.Equal(t, []models.OrphanedReference{
		{Entity: "subscription", EntityID: "sub-bad-plan", Field: "type_id", MissingID: "missing-plan"},
		{Entity: "subscription", EntityID: "sub-ghost", Field: "lead_id", MissingID: "missing-lead"},
	}, report.Orphans)
}

func TestConversionRate(t *testing.T) {
	f := newFixture()
	march := models.Month{Year: 2024, Month: time.March}.Window()
	f.lead("lead-1", staffA, day(2024, time.March, 1), ptr(day(2024, time.March, 10)))
	f.lead("lead-2", staffA, day(2024, time.March, 2), nil)
	f.lead("lead-3", staffA, day(2024, time.March, 3), nil)
	f.lead("lead-4", staffA, day(2024, time.February, 3), ptr(day(2024, time.March, 4)))
	f.lead("lead-5", staffB, day(2024, time.March, 3), ptr(day(2024, time.March, 4)))

	t.Run("creation metric", func(t *testing.T) {
		report := NewAggregator(f.snap, RateByCreation).ConversionRate(staffA, march)
		assert.Equal(t, 3, report.Leads)
		assert.Equal(t, 1, report.Converted)
		assert.Equal(t, 33.33, report.Rate)
	})

	t.Run("activity metric", func(t *testing.T) {
		report := NewAggregator(f.snap, RateByActivity).ConversionRate(staffA, march)
		assert.Equal(t, 4, report.Leads)
		assert.Equal(t, 2, report.Converted)
		assert.Equal(t, 50.0, report.Rate)
	})

	t.Run("no leads", func(t *testing.T) {
		report := NewAggregator(f.snap, RateByCreation).ConversionRate(staffB, models.Month{Year: 2023, Month: time.May}.Window())
		assert.Equal(t, 0, report.Leads)
		assert.Equal(t, 0.0, report.Rate)
	})

	t.Run("unknown staff", func(t *testing.T) {
		report := NewAggregator(f.snap, RateByCreation).ConversionRate("nobody", march)
		require.NotNil(t, report)
		assert.Equal(t, 0, report.Leads)
		assert.Equal(t, 0.0, report.Rate)
		assert.Empty(t, report.Orphans)
	})

	t.Run("empty snapshot", func(t *testing.T) {
		report := NewAggregator(models.NewSnapshot(), RateByCreation).ConversionRate("nobody", models.Window{})
		require.NotNil(t, report)
		assert.Equal(t, 0.0, report.Rate)
	})
}

func TestConversionRate_Bounded(t *testing.T) {
	f := newFixture()
	// Converted in window but created before it: numerator must stay within denominator
	f.lead("lead-1", staffA, day(2023, time.December, 1), ptr(day(2024, time.March, 2)))
	f.lead("lead-2", staffA, day(2023, time.December, 1), ptr(day(2024, time.March, 3)))
	march := models.Month{Year: 2024, Month: time.March}.Window()

	for _, metric := range []RateMetric{RateByCreation, RateByActivity} {
		report := NewAggregator(f.snap, metric).ConversionRate(staffA, march)
		assert.GreaterOrEqual(t, report.Rate, 0.0)
		assert.LessOrEqual(t, report.Rate, 100.0)
	}
}

func TestConversionRate_OrphanedLeadExcluded(t *testing.T) {
	f := newFixture()
	f.lead("lead-1", staffA, day(2024, time.March, 1), nil)
	l := f.snap.Leads["lead-1"]
	l.ClubID = ref("gone-club")
	f.snap.Leads["lead-1"] = l

	report := NewAggregator(f.snap, RateByCreation).ConversionRate(staffA, models.Window{})
	assert.Equal(t, 0, report.Leads)
	assert.Equal(t, []models.OrphanedReference{
		{Entity: "lead", EntityID: "lead-1", Field: "club_id", MissingID: "gone-club"},
	}, report.Orphans)
}

func TestConversionRate_UnknownStaffReportsOrphans(t *testing.T) {
	f := newFixture()
	f.lead("lead-1", "ghost", day(2024, time.March, 1), ptr(day(2024, time.March, 5)))

	agg := NewAggregator(f.snap, RateByCreation)
	assert.False(t, agg.HasStaff("ghost"))
	assert.True(t, agg.HasStaff(staffA))

	report := agg.ConversionRate("ghost", models.Window{})
	require.NotNil(t, report)
	assert.Equal(t, "ghost", report.StaffID)
	assert.Equal(t, 0.0, report.Rate)
	assert.Equal(t, []models.OrphanedReference{
		{Entity: "lead", EntityID: "lead-1", Field: "staff_id", MissingID: "ghost"},
	}, report.Orphans)
}

func TestTimeToConvert(t *testing.T) {
	f := newFixture()
	f.lead("lead-1", staffA, day(2024, time.January, 1), ptr(day(2024, time.January, 15)))
	f.lead("lead-2", staffA, day(2024, time.January, 1), nil)
	l := f.snap.Leads["lead-2"]
	l.Status = models.StatusNew
	f.snap.Leads["lead-2"] = l

	agg := NewAggregator(f.snap, RateByCreation)

	report, err := agg.TimeToConvert("lead-1")
	require.NoError(t, err)
	assert.Equal(t, 14, report.Days)

	_, err = agg.TimeToConvert("lead-2")
	var nc *models.NotConvertedError
	require.ErrorAs(t, err, &nc)
	assert.Equal(t, models.StatusNew, nc.Status)

	_, err = agg.TimeToConvert("missing")
	assert.True(t, models.IsNotFound(err))
}

func TestClubTargetProgress(t *testing.T) {
	f := newFixture()
	march := models.Month{Year: 2024, Month: time.March}
	for i, d := range []int{2, 9, 16, 23, 30} {
		f.lead("lead-"+string(rune('a'+i)), staffA, day(2024, time.February, 1), ptr(day(2024, time.March, d)))
	}
	f.lead("lead-april", staffA, day(2024, time.February, 1), ptr(day(2024, time.April, 1)))

	report, err := NewAggregator(f.snap, RateByCreation).ClubTargetProgress(clubID, march)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Converted)
	assert.Equal(t, 1.25, report.Progress)

	club := f.snap.Clubs[clubID]
	club.MonthlyTarget = 0
	f.snap.Clubs[clubID] = club
	report, err = NewAggregator(f.snap, RateByCreation).ClubTargetProgress(clubID, march)
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.Progress)

	_, err = NewAggregator(f.snap, RateByCreation).ClubTargetProgress("missing", march)
	assert.True(t, models.IsNotFound(err))
}

func TestStaffSummary(t *testing.T) {
	f := newFixture()
	f.lead("lead-1", staffA, day(2024, time.January, 1), ptr(day(2024, time.January, 5)))
	f.lead("lead-2", staffA, day(2024, time.January, 1), nil)
	f.lead("lead-3", staffA, day(2024, time.January, 1), nil)
	f.sub("sub-1", "lead-1", planID, "49.99", true)
	f.sub("sub-old", "lead-1", planID, "10.01", false)

	summary, err := NewAggregator(f.snap, RateByCreation).StaffSummary(staffA)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalLeads)
	assert.Equal(t, 1, summary.ConvertedLeads)
	assert.Equal(t, 33.33, summary.ConversionRate)
	assert.True(t, decimal.NewFromInt(60).Equal(summary.Revenue))

	empty, err := NewAggregator(f.snap, RateByCreation).StaffSummary(staffB)
	require.NoError(t, err)
	assert.Equal(t, 0.0, empty.ConversionRate)
}

func TestClubRevenue_CountsActiveOnly(t *testing.T) {
	f := newFixture()
	f.lead("lead-1", staffA, day(2024, time.January, 1), ptr(day(2024, time.January, 5)))
	f.sub("sub-1", "lead-1", planID, "49.99", true)
	f.sub("sub-old", "lead-1", planID, "10.01", false)

	agg := NewAggregator(f.snap, RateByCreation)
	report, err := agg.ClubRevenue(clubID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ActiveSubscriptions)
	assert.True(t, decimal.RequireFromString("49.99").Equal(report.Revenue))
	assert.True(t, decimal.RequireFromString("49.99").Equal(agg.ClubRevenues()[clubID]))
}

func TestAggregatorDoesNotMutateSnapshot(t *testing.T) {
	f := newFixture()
	f.lead("lead-1", staffA, day(2024, time.January, 1), ptr(day(2024, time.January, 5)))
	f.sub("sub-1", "lead-1", planID, "20", true)
	before := f.snap.Clone()

	agg := NewAggregator(f.snap, RateByActivity)
	agg.RevenueByStaffMonth(models.Window{})
	_, _ = agg.StaffSummary(staffA)
	_, _ = agg.ClubRevenue(clubID)

	assert.Equal(t, before, f.snap)
}
