package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/clubpulse/lead-conversion-backend/internal/database"
	"github.com/clubpulse/lead-conversion-backend/internal/models"
)

// EntityService handles create/read/update of clubs, staff, subscription
// types, leads and subscriptions. Lead status is never changed here.
type EntityService struct {
	store  database.Store
	logger logrus.FieldLogger
	now    func() time.Time
}

// NewEntityService creates a new EntityService
func NewEntityService(store database.Store, logger logrus.FieldLogger) *EntityService {
	return &EntityService{store: store, logger: logger, now: time.Now}
}

// refCheck is one weak reference that must resolve before a write
type refCheck struct {
	field  string
	id     *string
	lookup func(ctx context.Context, id string) error
}

// resolveRefs reports every reference that does not resolve as a field error
// of entity. Nil or empty ids are skipped.
func resolveRefs(ctx context.Context, entity string, checks ...refCheck) error {
	verr := models.NewValidationError(entity)
	for _, c := range checks {
		if c.id == nil || strings.TrimSpace(*c.id) == "" {
			continue
		}
		if err := c.lookup(ctx, strings.TrimSpace(*c.id)); err != nil {
			if models.IsNotFound(err) {
				verr.Add(c.field, fmt.Sprintf("references unknown %s %s", strings.TrimSuffix(c.field, "_id"), *c.id))
				continue
			}
			return err
		}
	}
	return verr.OrNil()
}

func (s *EntityService) staffRef(id *string) refCheck {
	return refCheck{field: "staff_id", id: id, lookup: func(ctx context.Context, id string) error {
		_, err := s.store.GetStaff(ctx, id)
		return err
	}}
}

func (s *EntityService) clubRef(id *string) refCheck {
	return refCheck{field: "club_id", id: id, lookup: func(ctx context.Context, id string) error {
		_, err := s.store.GetClub(ctx, id)
		return err
	}}
}

// Clubs

func (s *EntityService) CreateClub(ctx context.Context, input *models.CreateClubInput) (*models.Club, error) {
	club, err := input.Build(s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateClub(ctx, club); err != nil {
		return nil, err
	}
	s.logger.WithField("club_id", club.ID).Info("Club created")
	return club, nil
}

func (s *EntityService) GetClub(ctx context.Context, id string) (*models.Club, error) {
	return s.store.GetClub(ctx, id)
}

func (s *EntityService) ListClubs(ctx context.Context) ([]models.Club, error) {
	return s.store.ListClubs(ctx)
}

func (s *EntityService) UpdateClub(ctx context.Context, id string, input *models.UpdateClubInput) (*models.Club, error) {
	current, err := s.store.GetClub(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := input.ApplyTo(*current, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateClub(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Staff

func (s *EntityService) CreateStaff(ctx context.Context, input *models.CreateStaffInput) (*models.Staff, error) {
	staff, err := input.Build(s.now())
	if err != nil {
		return nil, err
	}
	if err := resolveRefs(ctx, "staff", s.clubRef(staff.ClubID)); err != nil {
		return nil, err
	}
	if err := s.store.CreateStaff(ctx, staff); err != nil {
		return nil, err
	}
	s.logger.WithField("staff_id", staff.ID).Info("Staff member created")
	return staff, nil
}

func (s *EntityService) GetStaff(ctx context.Context, id string) (*models.Staff, error) {
	return s.store.GetStaff(ctx, id)
}

func (s *EntityService) ListStaff(ctx context.Context) ([]models.Staff, error) {
	return s.store.ListStaff(ctx)
}

func (s *EntityService) UpdateStaff(ctx context.Context, id string, input *models.UpdateStaffInput) (*models.Staff, error) {
	current, err := s.store.GetStaff(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := input.ApplyTo(*current, s.now())
	if err != nil {
		return nil, err
	}
	if err := resolveRefs(ctx, "staff", s.clubRef(input.ClubID)); err != nil {
		return nil, err
	}
	if err := s.store.UpdateStaff(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Subscription types

func (s *EntityService) CreateSubscriptionType(ctx context.Context, input *models.CreateSubscriptionTypeInput) (*models.SubscriptionType, error) {
	st, err := input.Build(s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateSubscriptionType(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *EntityService) GetSubscriptionType(ctx context.Context, id string) (*models.SubscriptionType, error) {
	return s.store.GetSubscriptionType(ctx, id)
}

func (s *EntityService) ListSubscriptionTypes(ctx context.Context) ([]models.SubscriptionType, error) {
	return s.store.ListSubscriptionTypes(ctx)
}

func (s *EntityService) UpdateSubscriptionType(ctx context.Context, id string, input *models.UpdateSubscriptionTypeInput) (*models.SubscriptionType, error) {
	current, err := s.store.GetSubscriptionType(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := input.ApplyTo(*current, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateSubscriptionType(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Leads

// CreateLead registers a new lead in status new
func (s *EntityService) CreateLead(ctx context.Context, input *models.CreateLeadInput) (*models.Lead, error) {
	lead, err := input.Build(s.now())
	if err != nil {
		return nil, err
	}
	return s.insertLead(ctx, lead)
}

func (s *EntityService) insertLead(ctx context.Context, lead *models.Lead) (*models.Lead, error) {
	if err := resolveRefs(ctx, "lead", s.staffRef(lead.StaffID), s.clubRef(lead.ClubID)); err != nil {
		return nil, err
	}
	if err := s.store.CreateLead(ctx, lead); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"lead_id": lead.ID,
		"source":  lead.Source,
		"status":  lead.Status,
	}).Info("Lead created")
	return lead, nil
}

func (s *EntityService) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	return s.store.GetLead(ctx, id)
}

func (s *EntityService) ListLeads(ctx context.Context, filter database.LeadFilter) ([]models.Lead, error) {
	return s.store.ListLeads(ctx, filter)
}

// UpdateLead changes profile fields and refreshes last_updated. It runs as a
// locked unit so a concurrent transition is never overwritten.
func (s *EntityService) UpdateLead(ctx context.Context, id string, input *models.UpdateLeadInput) (*models.Lead, error) {
	// References are checked before taking the lead lock
	if err := resolveRefs(ctx, "lead", s.staffRef(input.StaffID), s.clubRef(input.ClubID)); err != nil {
		return nil, err
	}
	return s.store.ApplyLeadChange(ctx, id, func(current models.Lead, _ []models.Subscription) (database.LeadChange, error) {
		updated, err := input.ApplyTo(current, s.now())
		if err != nil {
			return database.LeadChange{}, err
		}
		return database.LeadChange{Lead: &updated}, nil
	})
}

// Subscriptions

// plan resolves a subscription type for a new subscription. A missing type
// is reported as a field error, not NotFound.
func (s *EntityService) plan(ctx context.Context, typeID string) (*models.SubscriptionType, error) {
	typeID = strings.TrimSpace(typeID)
	if typeID == "" {
		return nil, nil
	}
	plan, err := s.store.GetSubscriptionType(ctx, typeID)
	if err != nil {
		if models.IsNotFound(err) {
			verr := models.NewValidationError("subscription")
			verr.Add("type_id", fmt.Sprintf("references unknown subscription type %s", typeID))
			return nil, verr
		}
		return nil, err
	}
	return plan, nil
}

// BuildSubscription validates a subscription input against its plan without
// storing it
func (s *EntityService) BuildSubscription(ctx context.Context, input *models.CreateSubscriptionInput) (*models.Subscription, error) {
	plan, err := s.plan(ctx, input.TypeID)
	if err != nil {
		return nil, err
	}
	return input.Build(plan, s.now())
}

// CreateSubscription adds a subscription to an already converted lead.
// New members are signed up through a conversion transition instead.
func (s *EntityService) CreateSubscription(ctx context.Context, input *models.CreateSubscriptionInput) (*models.Subscription, error) {
	sub, err := s.BuildSubscription(ctx, input)
	if err != nil {
		return nil, err
	}

	_, err = s.store.ApplyLeadChange(ctx, sub.LeadID, func(current models.Lead, _ []models.Subscription) (database.LeadChange, error) {
		if !current.IsConverted() {
			return database.LeadChange{}, &models.NotConvertedError{LeadID: current.ID, Status: current.Status}
		}
		return database.LeadChange{Insert: sub}, nil
	})
	if err != nil {
		if models.IsNotFound(err) {
			verr := models.NewValidationError("subscription")
			verr.Add("lead_id", fmt.Sprintf("references unknown lead %s", sub.LeadID))
			return nil, verr
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"subscription_id": sub.ID,
		"lead_id":         sub.LeadID,
		"type_id":         sub.TypeID,
	}).Info("Subscription created")
	return sub, nil
}

func (s *EntityService) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	return s.store.GetSubscription(ctx, id)
}

func (s *EntityService) ListSubscriptions(ctx context.Context, filter database.SubscriptionFilter) ([]models.Subscription, error) {
	return s.store.ListSubscriptions(ctx, filter)
}

// UpdateSubscription runs under the owning lead's lock so the one-active
// rule is checked against a stable set
func (s *EntityService) UpdateSubscription(ctx context.Context, id string, input *models.UpdateSubscriptionInput) (*models.Subscription, error) {
	existing, err := s.store.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}

	var updated models.Subscription
	_, err = s.store.ApplyLeadChange(ctx, existing.LeadID, func(_ models.Lead, subs []models.Subscription) (database.LeadChange, error) {
		var current *models.Subscription
		for i := range subs {
			if subs[i].ID == id {
				current = &subs[i]
				break
			}
		}
		if current == nil {
			return database.LeadChange{}, &models.NotFoundError{Entity: "subscription", ID: id}
		}
		updated, err = input.ApplyTo(*current, s.now())
		if err != nil {
			return database.LeadChange{}, err
		}
		return database.LeadChange{Update: &updated}, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
