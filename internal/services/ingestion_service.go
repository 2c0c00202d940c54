package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/clubpulse/lead-conversion-backend/internal/database"
	"github.com/clubpulse/lead-conversion-backend/internal/lifecycle"
	"github.com/clubpulse/lead-conversion-backend/internal/metrics"
	"github.com/clubpulse/lead-conversion-backend/internal/models"
)

// Row kinds, in import order
const (
	KindClub             = "club"
	KindSubscriptionType = "subscription_type"
	KindStaff            = "staff"
	KindLead             = "lead"
	KindSubscription     = "subscription"
)

// Batch holds loosely typed records fetched from another system. Rows may
// carry their own UUIDs so later rows can reference earlier ones.
type Batch struct {
	Clubs             []map[string]any `json:"clubs" yaml:"clubs"`
	SubscriptionTypes []map[string]any `json:"subscription_types" yaml:"subscription_types"`
	Staff             []map[string]any `json:"staff" yaml:"staff"`
	Leads             []map[string]any `json:"leads" yaml:"leads"`
	Subscriptions     []map[string]any `json:"subscriptions" yaml:"subscriptions"`
}

// Size returns the total number of rows
func (b *Batch) Size() int {
	return len(b.Clubs) + len(b.SubscriptionTypes) + len(b.Staff) + len(b.Leads) + len(b.Subscriptions)
}

// RowError reports one rejected row
type RowError struct {
	Kind    string `json:"kind"`
	Index   int    `json:"index"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// ImportResult summarizes an ingestion run
type ImportResult struct {
	Imported map[string]int `json:"imported"`
	Errors   []RowError     `json:"errors"`
}

// IngestionService turns loosely typed rows into validated entities. A bad
// row is reported and skipped; the rest of the batch still loads.
type IngestionService struct {
	entities *EntityService
	logger   logrus.FieldLogger
	now      func() time.Time
}

// NewIngestionService creates a new IngestionService
func NewIngestionService(entities *EntityService, logger logrus.FieldLogger) *IngestionService {
	return &IngestionService{entities: entities, logger: logger, now: time.Now}
}

type rowImporter func(ctx context.Context, raw map[string]any) error

// importMachine replays a recorded conversion: the lead is stored as
// contacted and converted from there with its subscription
var importMachine = lifecycle.NewMachine(lifecycle.ModeMinimal)

// importRun tracks subscription rows across one Import call. A converted
// lead takes its subscription row with it; that row is not imported again.
type importRun struct {
	subscriptions []map[string]any
	byLead        map[string][]int
	paired        map[int]bool
}

func newImportRun(rows []map[string]any) *importRun {
	run := &importRun{subscriptions: rows, byLead: map[string][]int{}, paired: map[int]bool{}}
	for i, raw := range rows {
		if leadID := strings.TrimSpace(newRow(KindSubscription, raw).str("lead_id")); leadID != "" {
			run.byLead[leadID] = append(run.byLead[leadID], i)
		}
	}
	return run
}

// Import loads batch in dependency order: clubs, subscription types, staff,
// leads, subscriptions. It only returns an error when ctx is done.
func (s *IngestionService) Import(ctx context.Context, batch *Batch) (*ImportResult, error) {
	result := &ImportResult{Imported: map[string]int{}, Errors: []RowError{}}
	run := newImportRun(batch.Subscriptions)

	steps := []struct {
		kind string
		rows []map[string]any
		fn   rowImporter
	}{
		{KindClub, batch.Clubs, s.importClub},
		{KindSubscriptionType, batch.SubscriptionTypes, s.importSubscriptionType},
		{KindStaff, batch.Staff, s.importStaff},
		{KindLead, batch.Leads, func(ctx context.Context, raw map[string]any) error {
			return s.importLead(ctx, raw, run)
		}},
		{KindSubscription, batch.Subscriptions, s.importSubscription},
	}

	for _, step := range steps {
		for i, raw := range step.rows {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			if step.kind == KindSubscription && run.paired[i] {
				// Stored together with its lead's conversion
				metrics.RecordIngestedRow(step.kind, true)
				result.Imported[step.kind]++
				continue
			}
			err := step.fn(ctx, raw)
			metrics.RecordIngestedRow(step.kind, err == nil)
			if err != nil {
				result.Errors = append(result.Errors, RowError{Kind: step.kind, Index: i, Message: err.Error(), Err: err})
				s.logger.WithFields(logrus.Fields{
					"kind":  step.kind,
					"index": i,
				}).WithError(err).Warn("Rejected ingestion row")
				continue
			}
			result.Imported[step.kind]++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"rows":     batch.Size(),
		"imported": result.Imported,
		"rejected": len(result.Errors),
	}).Info("Ingestion finished")
	return result, nil
}

// pick returns the first of keys present in the row, so that column names
// used by older exports (lead_id, converted_date) are accepted
func (r *row) pick(keys ...string) string {
	for _, k := range keys {
		if _, ok := r.lookup(k); ok {
			return k
		}
	}
	return keys[0]
}

func (s *IngestionService) importClub(ctx context.Context, raw map[string]any) error {
	r := newRow(KindClub, raw)
	in := &models.CreateClubInput{
		ID:              r.str(r.pick("id", "club_id")),
		Name:            r.str(r.pick("name", "club_name")),
		Address:         r.address(),
		Capacity:        r.integer("capacity"),
		OperatingHours:  r.str("operating_hours"),
		EstablishedDate: r.date("established_date"),
		MonthlyTarget:   r.integer("monthly_target"),
	}
	club, err := in.Build(s.now())
	if err := r.finish(err); err != nil {
		return err
	}
	return s.entities.store.CreateClub(ctx, club)
}

func (s *IngestionService) importSubscriptionType(ctx context.Context, raw map[string]any) error {
	r := newRow(KindSubscriptionType, raw)
	in := &models.CreateSubscriptionTypeInput{
		ID:           r.str(r.pick("id", "type_id", "subscription_type_id")),
		Name:         r.str("name"),
		Description:  r.str("description"),
		BasePrice:    r.money(r.pick("base_price", "price")),
		DurationDays: r.integer(r.pick("duration_days", "duration")),
	}
	st, err := in.Build(s.now())
	if err := r.finish(err); err != nil {
		return err
	}
	return s.entities.store.CreateSubscriptionType(ctx, st)
}

func (s *IngestionService) importStaff(ctx context.Context, raw map[string]any) error {
	r := newRow(KindStaff, raw)
	in := &models.CreateStaffInput{
		ID:        r.str(r.pick("id", "staff_id")),
		FirstName: r.str("first_name"),
		LastName:  r.str("last_name"),
		Role:      r.strPtr("role"),
		HireDate:  r.date("hire_date"),
		Email:     r.str("email"),
		Phone:     r.str("phone"),
		ClubID:    r.strPtr("club_id"),
	}
	if err := r.finish(nil); err != nil {
		return err
	}
	_, err := s.entities.CreateStaff(ctx, in)
	return err
}

// importLead also restores the recorded status, so leads converted in the
// source system arrive converted with their original dates. A converted lead
// is only accepted together with an active subscription row for it in the
// same batch.
func (s *IngestionService) importLead(ctx context.Context, raw map[string]any, run *importRun) error {
	r := newRow(KindLead, raw)
	in := &models.CreateLeadInput{
		ID:                r.str(r.pick("id", "lead_id")),
		FirstName:         r.str("first_name"),
		LastName:          r.str("last_name"),
		Email:             r.str("email"),
		Phone:             r.str("phone"),
		Address:           r.address(),
		DateOfBirth:       r.date("date_of_birth"),
		Gender:            r.strPtr("gender"),
		Employment:        r.strPtr("employment"),
		FitnessLevel:      r.strPtr("fitness_level"),
		FitnessGoals:      r.list("fitness_goals"),
		FitnessExperience: r.str("fitness_experience"),
		FitnessFrequency:  r.intPtr("fitness_frequency"),
		Source:            r.strPtr("source"),
		Notes:             r.strPtr("notes"),
		CreationDate:      r.date("creation_date"),
		StaffID:           r.strPtr("staff_id"),
		ClubID:            r.strPtr("club_id"),
	}
	status := r.strPtr("status")
	conversion := r.date(r.pick("conversion_date", "converted_date"))
	lastContact := r.date("last_contact")

	lead, err := in.Build(s.now())
	if err == nil {
		err = restoreLeadState(lead, status, conversion, lastContact)
	}
	if err := r.finish(err); err != nil {
		return err
	}
	if lead.IsConverted() {
		return s.importConvertedLead(ctx, lead, run)
	}
	_, err = s.entities.insertLead(ctx, lead)
	return err
}

// importConvertedLead stores lead as contacted and then converts it through
// the lifecycle machine in one unit with its subscription. Everything that
// can be checked up front is checked before the lead is written.
func (s *IngestionService) importConvertedLead(ctx context.Context, lead *models.Lead, run *importRun) error {
	sub, index, err := s.pairSubscription(ctx, lead.ID, run)
	if err != nil {
		return err
	}

	convertedOn := lead.ConversionDate
	lead.Status = models.StatusContacted
	lead.ConversionDate = nil

	machine := importMachine.WithClock(s.now)
	convert := func(current models.Lead, subs []models.Subscription) (models.Lead, error) {
		current.ConversionDate = convertedOn
		candidates := append(append([]models.Subscription{}, subs...), *sub)
		return machine.Apply(current, lifecycle.Request{To: models.StatusConverted, Subscriptions: candidates})
	}
	if _, err := convert(lead.Clone(), nil); err != nil {
		return err
	}

	if _, err := s.entities.insertLead(ctx, lead); err != nil {
		return err
	}
	_, err = s.entities.store.ApplyLeadChange(ctx, lead.ID, func(current models.Lead, subs []models.Subscription) (database.LeadChange, error) {
		next, err := convert(current, subs)
		if err != nil {
			return database.LeadChange{}, err
		}
		return database.LeadChange{Lead: &next, Insert: sub}, nil
	})
	if err != nil {
		return err
	}

	run.paired[index] = true
	s.logger.WithFields(logrus.Fields{
		"lead_id":         lead.ID,
		"subscription_id": sub.ID,
	}).Debug("Imported lead converted with its subscription")
	return nil
}

// pairSubscription returns the first subscription row for leadID that builds
// cleanly and is active
func (s *IngestionService) pairSubscription(ctx context.Context, leadID string, run *importRun) (*models.Subscription, int, error) {
	for _, i := range run.byLead[leadID] {
		if run.paired[i] {
			continue
		}
		r := newRow(KindSubscription, run.subscriptions[i])
		in := subscriptionInput(r)
		if r.finish(nil) != nil {
			continue
		}
		sub, err := s.entities.BuildSubscription(ctx, in)
		if err != nil || !sub.Active {
			continue
		}
		return sub, i, nil
	}
	verr := models.NewValidationError(KindLead)
	verr.Add("status", "converted lead needs an active subscription row in the same batch")
	return nil, 0, verr
}

func restoreLeadState(lead *models.Lead, status, conversion, lastContact *string) error {
	verr := models.NewValidationError(KindLead)
	if status != nil && strings.TrimSpace(*status) != "" {
		parsed, err := models.ParseLeadStatus(*status)
		if err != nil {
			verr.Add("status", err.Error())
		} else {
			lead.Status = parsed
		}
	}
	for _, d := range []struct {
		raw *string
		dst **time.Time
	}{
		{conversion, &lead.ConversionDate},
		{lastContact, &lead.LastContact},
	} {
		if d.raw == nil || *d.raw == "" {
			continue
		}
		// Already normalized to YYYY-MM-DD by the row
		t, err := models.ParseDate(*d.raw)
		if err != nil {
			continue
		}
		*d.dst = &t
	}
	if verr.HasErrors() {
		return verr
	}
	return lead.Validate()
}

func (s *IngestionService) importSubscription(ctx context.Context, raw map[string]any) error {
	r := newRow(KindSubscription, raw)
	in := subscriptionInput(r)
	if err := r.finish(nil); err != nil {
		return err
	}
	_, err := s.entities.CreateSubscription(ctx, in)
	return err
}

func subscriptionInput(r *row) *models.CreateSubscriptionInput {
	in := &models.CreateSubscriptionInput{
		ID:            r.str(r.pick("id", "subscription_id")),
		TypeID:        r.str(r.pick("type_id", "subscription_type_id")),
		LeadID:        r.str("lead_id"),
		ActualPrice:   r.money(r.pick("actual_price", "price")),
		StartDate:     r.date("start_date"),
		EndDate:       r.date("end_date"),
		LastVisit:     r.date("last_visit"),
		Visits:        r.integer("visits"),
		PaymentStatus: r.str("payment_status"),
		BillingCycle:  r.str("billing_cycle"),
		Active:        r.boolPtr("active"),
	}
	if auto := r.boolPtr("auto_renewal"); auto != nil {
		in.AutoRenewal = *auto
	}
	return in
}
