package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.March, 10, 14, 30, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	names := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		names = append(names, f.Field)
	}
	return names
}

func TestCreateLeadInput_Defaults(t *testing.T) {
	lead, err := CreateLeadInput{FirstName: " Ada ", LastName: "Lovelace"}.Build(fixedNow)
	require.NoError(t, err)

	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, "Ada", lead.FirstName)
	assert.Equal(t, StatusNew, lead.Status)
	assert.Equal(t, SourceWalkIn, lead.Source)
	assert.Equal(t, FitnessBeginner, lead.FitnessLevel)
	assert.Equal(t, time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), lead.CreationDate)
	assert.Equal(t, fixedNow, lead.LastUpdated)
	assert.Nil(t, lead.ConversionDate)
	assert.Nil(t, lead.LastContact)
	assert.NotNil(t, lead.FitnessGoals)
}

func TestCreateLeadInput_ParsesEnumsLoosely(t *testing.T) {
	lead, err := CreateLeadInput{
		FirstName:    "Grace",
		LastName:     "Hopper",
		Source:       strPtr("Social Media"),
		FitnessLevel: strPtr("ADVANCED"),
		Gender:       strPtr("female"),
		CreationDate: strPtr("2024-01-01"),
		Phone:        "+44 20 7946 0958",
	}.Build(fixedNow)
	require.NoError(t, err)

	assert.Equal(t, SourceSocialMedia, lead.Source)
	assert.Equal(t, FitnessAdvanced, lead.FitnessLevel)
	assert.Equal(t, GenderFemale, lead.Gender)
	assert.Equal(t, "+442079460958", lead.Phone)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), lead.CreationDate)
}

func TestCreateLeadInput_CollectsEveryFieldError(t *testing.T) {
	_, err := CreateLeadInput{
		LastName: "Nobody",
		Email:    "not-an-email",
		Gender:   strPtr("robot"),
		Source:   strPtr("carrier pigeon"),
		StaffID:  strPtr("staff-1"),
	}.Build(fixedNow)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	names := fieldNames(t, err)
	assert.ElementsMatch(t, []string{"gender", "source", "staff_id", "first_name", "email"}, names)
}

func TestCreateLeadInput_RejectsMalformedPhone(t *testing.T) {
	_, err := CreateLeadInput{FirstName: "A", LastName: "B", Phone: "call me"}.Build(fixedNow)
	assert.Equal(t, []string{"phone"}, fieldNames(t, err))
}

func TestUpdateLeadInput_KeepsLifecycleFields(t *testing.T) {
	lead, err := CreateLeadInput{FirstName: "Ada", LastName: "Lovelace"}.Build(fixedNow)
	require.NoError(t, err)
	lead.Status = StatusContacted

	later := fixedNow.Add(2 * time.Hour)
	updated, err := UpdateLeadInput{Notes: strPtr("prefers mornings"), StaffID: strPtr("")}.ApplyTo(*lead, later)
	require.NoError(t, err)

	assert.Equal(t, StatusContacted, updated.Status)
	assert.Nil(t, updated.ConversionDate)
	assert.Equal(t, later, updated.LastUpdated)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, "prefers mornings", *updated.Notes)
	assert.Nil(t, lead.Notes, "original must be untouched")
}

func TestUpdateLeadInput_FailureLeavesLeadUnchanged(t *testing.T) {
	lead, err := CreateLeadInput{FirstName: "Ada", LastName: "Lovelace"}.Build(fixedNow)
	require.NoError(t, err)

	got, err := UpdateLeadInput{FirstName: strPtr(""), Gender: strPtr("x")}.ApplyTo(*lead, fixedNow.Add(time.Hour))
	assert.ElementsMatch(t, []string{"first_name", "gender"}, fieldNames(t, err))
	assert.Equal(t, *lead, got)
}

func TestLead_ValidateConversionDatePairing(t *testing.T) {
	lead, err := CreateLeadInput{FirstName: "Ada", LastName: "Lovelace"}.Build(fixedNow)
	require.NoError(t, err)

	lead.Status = StatusConverted
	assert.Equal(t, []string{"conversion_date"}, fieldNames(t, lead.Validate()))

	day := DateOf(fixedNow)
	lead.ConversionDate = &day
	assert.NoError(t, lead.Validate())

	lead.Status = StatusLost
	assert.Equal(t, []string{"conversion_date"}, fieldNames(t, lead.Validate()))
}

func TestLead_ValidateConversionNotBeforeCreation(t *testing.T) {
	lead, err := CreateLeadInput{FirstName: "Ada", LastName: "Lovelace", CreationDate: strPtr("2024-03-05")}.Build(fixedNow)
	require.NoError(t, err)
	lead.Status = StatusConverted

	before := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	lead.ConversionDate = &before
	assert.Equal(t, []string{"conversion_date"}, fieldNames(t, lead.Validate()))

	sameDay := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	lead.ConversionDate = &sameDay
	assert.NoError(t, lead.Validate())
}

func TestCreateSubscriptionInput_DefaultsFromPlan(t *testing.T) {
	plan, err := CreateSubscriptionTypeInput{
		Name:         "Monthly",
		BasePrice:    ptrDecimal(decimal.RequireFromString("49.99")),
		DurationDays: 30,
	}.Build(fixedNow)
	require.NoError(t, err)

	sub, err := CreateSubscriptionInput{
		TypeID:    plan.ID,
		LeadID:    "8d3c2f57-5d4b-4c51-9a0e-1b7a3a2f9c11",
		StartDate: strPtr("2024-03-01"),
	}.Build(plan, fixedNow)
	require.NoError(t, err)

	assert.True(t, sub.ActualPrice.Equal(decimal.RequireFromString("49.99")))
	assert.Equal(t, time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC), sub.EndDate)
	assert.True(t, sub.Active)
}

func TestCreateSubscriptionInput_EndMustFollowStart(t *testing.T) {
	_, err := CreateSubscriptionInput{
		TypeID:    "0b7f8e0c-8d1e-4a8e-b0f4-5c1d2a3b4c5d",
		LeadID:    "8d3c2f57-5d4b-4c51-9a0e-1b7a3a2f9c11",
		StartDate: strPtr("2024-03-01"),
		EndDate:   strPtr("2024-03-01"),
	}.Build(nil, fixedNow)
	assert.Equal(t, []string{"end_date"}, fieldNames(t, err))
}

func TestCreateSubscriptionInput_RequiredFields(t *testing.T) {
	_, err := CreateSubscriptionInput{Visits: -1}.Build(nil, fixedNow)
	assert.ElementsMatch(t, []string{"type_id", "lead_id", "start_date", "end_date", "visits"}, fieldNames(t, err))
}

func TestCreateSubscriptionTypeInput_DurationMustBePositive(t *testing.T) {
	_, err := CreateSubscriptionTypeInput{
		Name:      "Broken",
		BasePrice: ptrDecimal(decimal.NewFromInt(-1)),
	}.Build(fixedNow)
	assert.ElementsMatch(t, []string{"base_price", "duration_days"}, fieldNames(t, err))
}

func TestCreateClubInput_Validation(t *testing.T) {
	club, err := CreateClubInput{Name: "Downtown", Capacity: 200, MonthlyTarget: 20}.Build(fixedNow)
	require.NoError(t, err)
	assert.True(t, club.Revenue.IsZero())

	_, err = CreateClubInput{Capacity: -5, MonthlyTarget: -1}.Build(fixedNow)
	assert.ElementsMatch(t, []string{"name", "capacity", "monthly_target"}, fieldNames(t, err))
}

func TestCreateStaffInput_RoleDefaultsToOther(t *testing.T) {
	staff, err := CreateStaffInput{FirstName: "Sam", LastName: "Lee"}.Build(fixedNow)
	require.NoError(t, err)
	assert.Equal(t, RoleOther, staff.Role)

	_, err = CreateStaffInput{FirstName: "Sam", LastName: "Lee", Role: strPtr("janitor")}.Build(fixedNow)
	assert.Equal(t, []string{"role"}, fieldNames(t, err))
}

func TestSnapshot_CloneIsIndependent(t *testing.T) {
	lead, err := CreateLeadInput{FirstName: "Ada", LastName: "Lovelace", FitnessGoals: []string{"strength"}}.Build(fixedNow)
	require.NoError(t, err)

	snap := NewSnapshot()
	snap.AddLead(*lead)
	clone := snap.Clone()

	l := clone.Leads[lead.ID]
	l.FitnessGoals[0] = "cardio"
	l.FirstName = "Changed"
	clone.Leads[lead.ID] = l

	assert.Equal(t, "strength", snap.Leads[lead.ID].FitnessGoals[0])
	assert.Equal(t, "Ada", snap.Leads[lead.ID].FirstName)
}

func TestWindowContainsIsHalfOpen(t *testing.T) {
	march := Month{Year: 2024, Month: time.March}.Window()

	assert.True(t, march.Contains(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, march.Contains(time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)))
	assert.False(t, march.Contains(time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, Window{}.Contains(time.Time{}))
	assert.False(t, march.ContainsPtr(nil))
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 14, DaysBetween(a, b))
	assert.Equal(t, 0, DaysBetween(a, a))
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2024-03")
	require.NoError(t, err)
	assert.Equal(t, Month{Year: 2024, Month: time.March}, m)
	assert.Equal(t, "2024-03", m.String())

	_, err = ParseMonth("March")
	assert.Error(t, err)
}

func TestParseLeadStatus(t *testing.T) {
	for _, s := range LeadStatuses() {
		parsed, err := ParseLeadStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseLeadStatus("won")
	assert.Error(t, err)
	assert.True(t, StatusConverted.IsTerminal())
	assert.True(t, StatusLost.IsTerminal())
	assert.False(t, StatusTrial.IsTerminal())
}

func ptrDecimal(d decimal.Decimal) *decimal.Decimal { return &d }
