package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Club represents a gym location
type Club struct {
	ID              string          `json:"id" validate:"required,uuid"`
	Name            string          `json:"name" validate:"required,max=200"`
	Address         Address         `json:"address"`
	Capacity        int             `json:"capacity" validate:"gte=0"`
	OperatingHours  string          `json:"operating_hours,omitempty" validate:"max=200"`
	EstablishedDate *time.Time      `json:"established_date,omitempty"`
	MonthlyTarget   int             `json:"monthly_target" validate:"gte=0"`
	Revenue         decimal.Decimal `json:"revenue"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Validate checks field constraints
func (c *Club) Validate() error {
	return validateStruct("club", c).OrNil()
}

// Clone returns a deep copy
func (c Club) Clone() Club {
	out := c
	out.EstablishedDate = cloneTime(c.EstablishedDate)
	return out
}

// CreateClubInput represents the request to add a club
type CreateClubInput struct {
	ID              string  `json:"id,omitempty"`
	Name            string  `json:"name"`
	Address         Address `json:"address"`
	Capacity        int     `json:"capacity"`
	OperatingHours  string  `json:"operating_hours,omitempty"`
	EstablishedDate *string `json:"established_date,omitempty"`
	MonthlyTarget   int     `json:"monthly_target"`
}

// Build validates the input and returns a new club with zero cached revenue
func (in CreateClubInput) Build(now time.Time) (*Club, error) {
	p := newInputParser("club")
	club := &Club{
		ID:              p.id("id", in.ID),
		Name:            strings.TrimSpace(in.Name),
		Address:         in.Address,
		Capacity:        in.Capacity,
		OperatingHours:  strings.TrimSpace(in.OperatingHours),
		EstablishedDate: p.date("established_date", in.EstablishedDate),
		MonthlyTarget:   in.MonthlyTarget,
		Revenue:         decimal.Zero,
		CreatedAt:       now.UTC(),
		UpdatedAt:       now.UTC(),
	}
	if err := p.finish(club.Validate()); err != nil {
		return nil, err
	}
	return club, nil
}

// UpdateClubInput represents a partial club update.
// Revenue is a derived cache and is not writable here.
type UpdateClubInput struct {
	Name            *string  `json:"name,omitempty"`
	Address         *Address `json:"address,omitempty"`
	Capacity        *int     `json:"capacity,omitempty"`
	OperatingHours  *string  `json:"operating_hours,omitempty"`
	EstablishedDate *string  `json:"established_date,omitempty"`
	MonthlyTarget   *int     `json:"monthly_target,omitempty"`
}

// ApplyTo returns an updated copy of club
func (in UpdateClubInput) ApplyTo(club Club, now time.Time) (Club, error) {
	p := newInputParser("club")
	out := club.Clone()
	if in.Name != nil {
		out.Name = strings.TrimSpace(*in.Name)
	}
	if in.Address != nil {
		out.Address = *in.Address
	}
	if in.Capacity != nil {
		out.Capacity = *in.Capacity
	}
	if in.OperatingHours != nil {
		out.OperatingHours = strings.TrimSpace(*in.OperatingHours)
	}
	if in.EstablishedDate != nil {
		out.EstablishedDate = p.date("established_date", in.EstablishedDate)
	}
	if in.MonthlyTarget != nil {
		out.MonthlyTarget = *in.MonthlyTarget
	}
	out.UpdatedAt = now.UTC()
	if err := p.finish(out.Validate()); err != nil {
		return club, err
	}
	return out, nil
}
