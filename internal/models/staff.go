package models

import (
	"strings"
	"time"
)

// Staff represents a club employee who owns leads
type Staff struct {
	ID        string     `json:"id" db:"id" validate:"required,uuid"`
	FirstName string     `json:"first_name" db:"first_name" validate:"required,max=100"`
	LastName  string     `json:"last_name" db:"last_name" validate:"required,max=100"`
	Role      StaffRole  `json:"role" db:"role" validate:"oneof=trainer sales manager other"`
	HireDate  *time.Time `json:"hire_date,omitempty" db:"hire_date"`
	Email     string     `json:"email,omitempty" db:"email" validate:"omitempty,email,max=254"`
	Phone     string     `json:"phone,omitempty" db:"phone" validate:"omitempty,phone"`
	ClubID    *string    `json:"club_id,omitempty" db:"club_id" validate:"omitempty,uuid"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// FullName returns "First Last"
func (s *Staff) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Validate checks field constraints
func (s *Staff) Validate() error {
	return validateStruct("staff", s).OrNil()
}

// Clone returns a deep copy
func (s Staff) Clone() Staff {
	c := s
	c.HireDate = cloneTime(s.HireDate)
	c.ClubID = cloneString(s.ClubID)
	return c
}

// CreateStaffInput represents the request to add a staff member
type CreateStaffInput struct {
	ID        string  `json:"id,omitempty"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Role      *string `json:"role,omitempty"`
	HireDate  *string `json:"hire_date,omitempty"`
	Email     string  `json:"email,omitempty"`
	Phone     string  `json:"phone,omitempty"`
	ClubID    *string `json:"club_id,omitempty"`
}

// Build validates the input and returns a new staff member; role defaults to other
func (in CreateStaffInput) Build(now time.Time) (*Staff, error) {
	p := newInputParser("staff")
	staff := &Staff{
		ID:        p.id("id", in.ID),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Role:      p.role(in.Role, RoleOther),
		HireDate:  p.date("hire_date", in.HireDate),
		Email:     strings.TrimSpace(in.Email),
		Phone:     NormalizePhone(strings.TrimSpace(in.Phone)),
		ClubID:    p.ref("club_id", in.ClubID),
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	if err := p.finish(staff.Validate()); err != nil {
		return nil, err
	}
	return staff, nil
}

// UpdateStaffInput represents a partial staff update; an empty club_id clears it
type UpdateStaffInput struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Role      *string `json:"role,omitempty"`
	HireDate  *string `json:"hire_date,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	ClubID    *string `json:"club_id,omitempty"`
}

// ApplyTo returns an updated copy of staff
func (in UpdateStaffInput) ApplyTo(staff Staff, now time.Time) (Staff, error) {
	p := newInputParser("staff")
	out := staff.Clone()
	if in.FirstName != nil {
		out.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		out.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Role != nil {
		out.Role = p.role(in.Role, out.Role)
	}
	if in.HireDate != nil {
		out.HireDate = p.date("hire_date", in.HireDate)
	}
	if in.Email != nil {
		out.Email = strings.TrimSpace(*in.Email)
	}
	if in.Phone != nil {
		out.Phone = NormalizePhone(strings.TrimSpace(*in.Phone))
	}
	if in.ClubID != nil {
		out.ClubID = p.ref("club_id", in.ClubID)
	}
	out.UpdatedAt = now.UTC()
	if err := p.finish(out.Validate()); err != nil {
		return staff, err
	}
	return out, nil
}
