package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionType represents a membership plan
type SubscriptionType struct {
	ID           string          `json:"id" db:"id" validate:"required,uuid"`
	Name         string          `json:"name" db:"name" validate:"required,max=200"`
	Description  string          `json:"description,omitempty" db:"description" validate:"max=2000"`
	BasePrice    decimal.Decimal `json:"base_price" db:"base_price" validate:"gte=0"`
	DurationDays int             `json:"duration_days" db:"duration_days" validate:"gt=0"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// Validate checks field constraints
func (t *SubscriptionType) Validate() error {
	return validateStruct("subscription_type", t).OrNil()
}

// CreateSubscriptionTypeInput represents the request to add a membership plan
type CreateSubscriptionTypeInput struct {
	ID           string           `json:"id,omitempty"`
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	BasePrice    *decimal.Decimal `json:"base_price,omitempty"`
	DurationDays int              `json:"duration_days"`
}

// Build validates the input and returns a new subscription type
func (in CreateSubscriptionTypeInput) Build(now time.Time) (*SubscriptionType, error) {
	p := newInputParser("subscription_type")
	st := &SubscriptionType{
		ID:           p.id("id", in.ID),
		Name:         strings.TrimSpace(in.Name),
		Description:  strings.TrimSpace(in.Description),
		BasePrice:    decimal.Zero,
		DurationDays: in.DurationDays,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}
	if in.BasePrice != nil {
		st.BasePrice = *in.BasePrice
	}
	if err := p.finish(st.Validate()); err != nil {
		return nil, err
	}
	return st, nil
}

// UpdateSubscriptionTypeInput represents a partial plan update
type UpdateSubscriptionTypeInput struct {
	Name         *string          `json:"name,omitempty"`
	Description  *string          `json:"description,omitempty"`
	BasePrice    *decimal.Decimal `json:"base_price,omitempty"`
	DurationDays *int             `json:"duration_days,omitempty"`
}

// ApplyTo returns an updated copy of st
func (in UpdateSubscriptionTypeInput) ApplyTo(st SubscriptionType, now time.Time) (SubscriptionType, error) {
	out := st
	if in.Name != nil {
		out.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		out.Description = strings.TrimSpace(*in.Description)
	}
	if in.BasePrice != nil {
		out.BasePrice = *in.BasePrice
	}
	if in.DurationDays != nil {
		out.DurationDays = *in.DurationDays
	}
	out.UpdatedAt = now.UTC()
	if err := out.Validate(); err != nil {
		return st, err
	}
	return out, nil
}
