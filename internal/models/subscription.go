package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Subscription represents a paid membership held by a converted lead
type Subscription struct {
	ID            string          `json:"id" db:"id" validate:"required,uuid"`
	TypeID        string          `json:"type_id" db:"type_id" validate:"required,uuid"`
	LeadID        string          `json:"lead_id" db:"lead_id" validate:"required,uuid"`
	ActualPrice   decimal.Decimal `json:"actual_price" db:"actual_price" validate:"gte=0"`
	StartDate     time.Time       `json:"start_date" db:"start_date" validate:"required"`
	EndDate       time.Time       `json:"end_date" db:"end_date" validate:"required"`
	LastVisit     *time.Time      `json:"last_visit,omitempty" db:"last_visit"`
	Visits        int             `json:"visits" db:"visits" validate:"gte=0"`
	PaymentStatus string          `json:"payment_status,omitempty" db:"payment_status" validate:"max=50"`
	BillingCycle  string          `json:"billing_cycle,omitempty" db:"billing_cycle" validate:"max=50"`
	AutoRenewal   bool            `json:"auto_renewal" db:"auto_renewal"`
	Active        bool            `json:"active" db:"active"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// Validate checks field constraints and that the period is not empty
func (s *Subscription) Validate() error {
	verr := validateStruct("subscription", s)
	if !s.StartDate.IsZero() && !s.EndDate.IsZero() && !s.EndDate.After(s.StartDate) {
		verr.Add("end_date", "must be after start_date")
	}
	return verr.OrNil()
}

// Clone returns a deep copy
func (s Subscription) Clone() Subscription {
	c := s
	c.LastVisit = cloneTime(s.LastVisit)
	return c
}

// CreateSubscriptionInput represents the request to add a subscription.
// actual_price defaults to the plan's base price and end_date to
// start_date plus the plan's duration.
type CreateSubscriptionInput struct {
	ID            string           `json:"id,omitempty"`
	TypeID        string           `json:"type_id"`
	LeadID        string           `json:"lead_id"`
	ActualPrice   *decimal.Decimal `json:"actual_price,omitempty"`
	StartDate     *string          `json:"start_date,omitempty"`
	EndDate       *string          `json:"end_date,omitempty"`
	LastVisit     *string          `json:"last_visit,omitempty"`
	Visits        int              `json:"visits"`
	PaymentStatus string           `json:"payment_status,omitempty"`
	BillingCycle  string           `json:"billing_cycle,omitempty"`
	AutoRenewal   bool             `json:"auto_renewal"`
	Active        *bool            `json:"active,omitempty"`
}

// Build validates the input against its plan. plan may be nil when the
// type reference did not resolve; the caller reports that separately.
func (in CreateSubscriptionInput) Build(plan *SubscriptionType, now time.Time) (*Subscription, error) {
	p := newInputParser("subscription")
	sub := &Subscription{
		ID:            p.id("id", in.ID),
		TypeID:        p.requiredRef("type_id", in.TypeID),
		LeadID:        p.requiredRef("lead_id", in.LeadID),
		StartDate:     p.requiredDate("start_date", in.StartDate),
		LastVisit:     p.date("last_visit", in.LastVisit),
		Visits:        in.Visits,
		PaymentStatus: strings.TrimSpace(in.PaymentStatus),
		BillingCycle:  strings.TrimSpace(in.BillingCycle),
		AutoRenewal:   in.AutoRenewal,
		Active:        true,
		CreatedAt:     now.UTC(),
		UpdatedAt:     now.UTC(),
	}
	if in.Active != nil {
		sub.Active = *in.Active
	}

	switch {
	case in.ActualPrice != nil:
		sub.ActualPrice = *in.ActualPrice
	case plan != nil:
		sub.ActualPrice = plan.BasePrice
	default:
		sub.ActualPrice = decimal.Zero
	}

	if end := p.date("end_date", in.EndDate); end != nil {
		sub.EndDate = *end
	} else if in.EndDate == nil || strings.TrimSpace(*in.EndDate) == "" {
		if plan != nil && !sub.StartDate.IsZero() {
			sub.EndDate = sub.StartDate.AddDate(0, 0, plan.DurationDays)
		} else {
			p.verr.Add("end_date", "is required")
		}
	}

	if err := p.finish(sub.Validate()); err != nil {
		return nil, err
	}
	return sub, nil
}

// UpdateSubscriptionInput represents a partial subscription update.
// type_id and lead_id are fixed at creation.
type UpdateSubscriptionInput struct {
	ActualPrice   *decimal.Decimal `json:"actual_price,omitempty"`
	StartDate     *string          `json:"start_date,omitempty"`
	EndDate       *string          `json:"end_date,omitempty"`
	LastVisit     *string          `json:"last_visit,omitempty"`
	Visits        *int             `json:"visits,omitempty"`
	PaymentStatus *string          `json:"payment_status,omitempty"`
	BillingCycle  *string          `json:"billing_cycle,omitempty"`
	AutoRenewal   *bool            `json:"auto_renewal,omitempty"`
	Active        *bool            `json:"active,omitempty"`
}

// ApplyTo returns an updated copy of sub
func (in UpdateSubscriptionInput) ApplyTo(sub Subscription, now time.Time) (Subscription, error) {
	p := newInputParser("subscription")
	out := sub.Clone()
	if in.ActualPrice != nil {
		out.ActualPrice = *in.ActualPrice
	}
	if in.StartDate != nil {
		out.StartDate = p.requiredDate("start_date", in.StartDate)
	}
	if in.EndDate != nil {
		out.EndDate = p.requiredDate("end_date", in.EndDate)
	}
	if in.LastVisit != nil {
		out.LastVisit = p.date("last_visit", in.LastVisit)
	}
	if in.Visits != nil {
		out.Visits = *in.Visits
	}
	if in.PaymentStatus != nil {
		out.PaymentStatus = strings.TrimSpace(*in.PaymentStatus)
	}
	if in.BillingCycle != nil {
		out.BillingCycle = strings.TrimSpace(*in.BillingCycle)
	}
	if in.AutoRenewal != nil {
		out.AutoRenewal = *in.AutoRenewal
	}
	if in.Active != nil {
		out.Active = *in.Active
	}
	out.UpdatedAt = now.UTC()
	if err := p.finish(out.Validate()); err != nil {
		return sub, err
	}
	return out, nil
}
