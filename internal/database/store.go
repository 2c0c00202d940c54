package database

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clubpulse/lead-conversion-backend/internal/models"
)

// LeadFilter narrows ListLeads; empty fields match everything
type LeadFilter struct {
	Status  models.LeadStatus
	StaffID string
	ClubID  string
}

// SubscriptionFilter narrows ListSubscriptions
type SubscriptionFilter struct {
	LeadID     string
	ActiveOnly bool
}

// LeadChange is the outcome of a read-modify-write on one lead.
// Nil fields are left alone.
type LeadChange struct {
	Lead   *models.Lead
	Insert *models.Subscription
	Update *models.Subscription
}

// LeadChangeFunc computes a change from the lead's current state and its
// subscriptions. Returning an error aborts the unit with nothing written.
type LeadChangeFunc func(current models.Lead, subs []models.Subscription) (LeadChange, error)

// Store is the single logical store of a club group
type Store interface {
	CreateClub(ctx context.Context, club *models.Club) error
	GetClub(ctx context.Context, id string) (*models.Club, error)
	UpdateClub(ctx context.Context, club *models.Club) error
	ListClubs(ctx context.Context) ([]models.Club, error)
	SetClubRevenue(ctx context.Context, clubID string, revenue decimal.Decimal) error

	CreateStaff(ctx context.Context, staff *models.Staff) error
	GetStaff(ctx context.Context, id string) (*models.Staff, error)
	UpdateStaff(ctx context.Context, staff *models.Staff) error
	ListStaff(ctx context.Context) ([]models.Staff, error)

	CreateSubscriptionType(ctx context.Context, st *models.SubscriptionType) error
	GetSubscriptionType(ctx context.Context, id string) (*models.SubscriptionType, error)
	UpdateSubscriptionType(ctx context.Context, st *models.SubscriptionType) error
	ListSubscriptionTypes(ctx context.Context) ([]models.SubscriptionType, error)

	CreateLead(ctx context.Context, lead *models.Lead) error
	GetLead(ctx context.Context, id string) (*models.Lead, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]models.Lead, error)
	// ApplyLeadChange runs fn with the lead locked against concurrent changes
	// and writes its result atomically.
	ApplyLeadChange(ctx context.Context, leadID string, fn LeadChangeFunc) (*models.Lead, error)

	GetSubscription(ctx context.Context, id string) (*models.Subscription, error)
	ListSubscriptions(ctx context.Context, filter SubscriptionFilter) ([]models.Subscription, error)
	// ExpireSubscriptions deactivates active subscriptions whose end_date is
	// on or before asOf and returns how many changed.
	ExpireSubscriptions(ctx context.Context, asOf time.Time) (int, error)

	// Snapshot returns a consistent deep copy of every entity
	Snapshot(ctx context.Context) (*models.Snapshot, error)

	Ping(ctx context.Context) error
	Close() error
}

// activeConflict reports a second active subscription for the same lead
func activeConflict(subs []models.Subscription, candidate *models.Subscription) bool {
	if candidate == nil || !candidate.Active {
		return false
	}
	for _, s := range subs {
		if s.Active && s.ID != candidate.ID && s.LeadID == candidate.LeadID {
			return true
		}
	}
	return false
}

func duplicateID(entity string) error {
	verr := models.NewValidationError(entity)
	verr.Add("id", "already exists")
	return verr
}

func oneActiveViolation() error {
	verr := models.NewValidationError("subscription")
	verr.Add("active", "lead already has an active subscription")
	return verr
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
