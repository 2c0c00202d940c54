package models

import (
	"strings"
	"time"
)

// Lead represents a prospective gym member
type Lead struct {
	ID                string       `json:"id" validate:"required,uuid"`
	FirstName         string       `json:"first_name" validate:"required,max=100"`
	LastName          string       `json:"last_name" validate:"required,max=100"`
	Email             string       `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Phone             string       `json:"phone,omitempty" validate:"omitempty,phone"`
	Address           Address      `json:"address"`
	DateOfBirth       *time.Time   `json:"date_of_birth,omitempty"`
	Gender            Gender       `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
	Employment        Employment   `json:"employment,omitempty" validate:"omitempty,oneof=working student unemployed"`
	FitnessLevel      FitnessLevel `json:"fitness_level" validate:"oneof=beginner intermediate advanced"`
	FitnessGoals      StringList   `json:"fitness_goals"`
	FitnessExperience string       `json:"fitness_experience,omitempty" validate:"max=1000"`
	FitnessFrequency  *int         `json:"fitness_frequency,omitempty" validate:"omitempty,gte=0"`
	Source            LeadSource   `json:"source" validate:"oneof=website friend referral walk_in social_media advertisement other"`
	Notes             *string      `json:"notes,omitempty" validate:"omitempty,max=4000"`
	Status            LeadStatus   `json:"status" validate:"oneof=new contacted interested trial negotiating converted lost"`
	CreationDate      time.Time    `json:"creation_date" validate:"required"`
	LastContact       *time.Time   `json:"last_contact,omitempty"`
	LastUpdated       time.Time    `json:"last_updated"`
	ConversionDate    *time.Time   `json:"conversion_date,omitempty"`
	StaffID           *string      `json:"staff_id,omitempty" validate:"omitempty,uuid"`
	ClubID            *string      `json:"club_id,omitempty" validate:"omitempty,uuid"`
}

// FullName returns "First Last"
func (l *Lead) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// IsConverted reports whether the lead reached the converted state
func (l *Lead) IsConverted() bool {
	return l.Status == StatusConverted
}

// Validate checks field constraints and the conversion_date/status pairing
func (l *Lead) Validate() error {
	verr := validateStruct("lead", l)
	if l.Status == StatusConverted && l.ConversionDate == nil {
		verr.Add("conversion_date", "is required when status is converted")
	}
	if l.Status != StatusConverted && l.ConversionDate != nil {
		verr.Add("conversion_date", "must be empty unless status is converted")
	}
	if l.ConversionDate != nil && l.ConversionDate.Before(l.CreationDate) {
		verr.Add("conversion_date", "must not be before creation_date")
	}
	return verr.OrNil()
}

// Clone returns a deep copy
func (l Lead) Clone() Lead {
	c := l
	c.DateOfBirth = cloneTime(l.DateOfBirth)
	c.FitnessGoals = l.FitnessGoals.Clone()
	c.FitnessFrequency = cloneInt(l.FitnessFrequency)
	c.Notes = cloneString(l.Notes)
	c.LastContact = cloneTime(l.LastContact)
	c.ConversionDate = cloneTime(l.ConversionDate)
	c.StaffID = cloneString(l.StaffID)
	c.ClubID = cloneString(l.ClubID)
	return c
}

// CreateLeadInput represents the request to register a new lead.
// ID is optional; ingestion uses it to link rows within one batch.
type CreateLeadInput struct {
	ID                string   `json:"id,omitempty"`
	FirstName         string   `json:"first_name"`
	LastName          string   `json:"last_name"`
	Email             string   `json:"email,omitempty"`
	Phone             string   `json:"phone,omitempty"`
	Address           Address  `json:"address"`
	DateOfBirth       *string  `json:"date_of_birth,omitempty"`
	Gender            *string  `json:"gender,omitempty"`
	Employment        *string  `json:"employment,omitempty"`
	FitnessLevel      *string  `json:"fitness_level,omitempty"`
	FitnessGoals      []string `json:"fitness_goals,omitempty"`
	FitnessExperience string   `json:"fitness_experience,omitempty"`
	FitnessFrequency  *int     `json:"fitness_frequency,omitempty"`
	Source            *string  `json:"source,omitempty"`
	Notes             *string  `json:"notes,omitempty"`
	CreationDate      *string  `json:"creation_date,omitempty"`
	StaffID           *string  `json:"staff_id,omitempty"`
	ClubID            *string  `json:"club_id,omitempty"`
}

// Build validates the input and returns a new lead in status new.
// Missing source and fitness level default to walk_in and beginner;
// missing creation_date defaults to the calendar day of now.
func (in CreateLeadInput) Build(now time.Time) (*Lead, error) {
	p := newInputParser("lead")

	lead := &Lead{
		ID:                p.id("id", in.ID),
		FirstName:         strings.TrimSpace(in.FirstName),
		LastName:          strings.TrimSpace(in.LastName),
		Email:             strings.TrimSpace(in.Email),
		Phone:             NormalizePhone(strings.TrimSpace(in.Phone)),
		Address:           in.Address,
		DateOfBirth:       p.date("date_of_birth", in.DateOfBirth),
		Gender:            p.gender(in.Gender),
		Employment:        p.employment(in.Employment),
		FitnessLevel:      p.fitnessLevel(in.FitnessLevel, FitnessBeginner),
		FitnessGoals:      StringList(in.FitnessGoals).Clone(),
		FitnessExperience: strings.TrimSpace(in.FitnessExperience),
		FitnessFrequency:  cloneInt(in.FitnessFrequency),
		Source:            p.source(in.Source, SourceWalkIn),
		Notes:             trimmedPtr(in.Notes),
		Status:            StatusNew,
		CreationDate:      DateOf(now),
		LastUpdated:       now.UTC(),
		StaffID:           p.ref("staff_id", in.StaffID),
		ClubID:            p.ref("club_id", in.ClubID),
	}
	if created := p.date("creation_date", in.CreationDate); created != nil {
		lead.CreationDate = *created
	}
	if lead.FitnessGoals == nil {
		lead.FitnessGoals = StringList{}
	}

	if err := p.finish(lead.Validate()); err != nil {
		return nil, err
	}
	return lead, nil
}

// UpdateLeadInput represents a partial update of a lead's profile fields.
// Status and conversion_date are owned by the lifecycle and cannot be set here.
// An empty staff_id or club_id clears the reference.
type UpdateLeadInput struct {
	FirstName         *string  `json:"first_name,omitempty"`
	LastName          *string  `json:"last_name,omitempty"`
	Email             *string  `json:"email,omitempty"`
	Phone             *string  `json:"phone,omitempty"`
	Address           *Address `json:"address,omitempty"`
	DateOfBirth       *string  `json:"date_of_birth,omitempty"`
	Gender            *string  `json:"gender,omitempty"`
	Employment        *string  `json:"employment,omitempty"`
	FitnessLevel      *string  `json:"fitness_level,omitempty"`
	FitnessGoals      []string `json:"fitness_goals,omitempty"`
	FitnessExperience *string  `json:"fitness_experience,omitempty"`
	FitnessFrequency  *int     `json:"fitness_frequency,omitempty"`
	Source            *string  `json:"source,omitempty"`
	Notes             *string  `json:"notes,omitempty"`
	StaffID           *string  `json:"staff_id,omitempty"`
	ClubID            *string  `json:"club_id,omitempty"`
}

// ApplyTo returns an updated copy of lead; lead itself is left untouched
func (in UpdateLeadInput) ApplyTo(lead Lead, now time.Time) (Lead, error) {
	p := newInputParser("lead")
	out := lead.Clone()

	if in.FirstName != nil {
		out.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		out.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Email != nil {
		out.Email = strings.TrimSpace(*in.Email)
	}
	if in.Phone != nil {
		out.Phone = NormalizePhone(strings.TrimSpace(*in.Phone))
	}
	if in.Address != nil {
		out.Address = *in.Address
	}
	if in.DateOfBirth != nil {
		out.DateOfBirth = p.date("date_of_birth", in.DateOfBirth)
	}
	if in.Gender != nil {
		out.Gender = p.gender(in.Gender)
	}
	if in.Employment != nil {
		out.Employment = p.employment(in.Employment)
	}
	if in.FitnessLevel != nil {
		out.FitnessLevel = p.fitnessLevel(in.FitnessLevel, out.FitnessLevel)
	}
	if in.FitnessGoals != nil {
		out.FitnessGoals = StringList(in.FitnessGoals).Clone()
	}
	if in.FitnessExperience != nil {
		out.FitnessExperience = strings.TrimSpace(*in.FitnessExperience)
	}
	if in.FitnessFrequency != nil {
		out.FitnessFrequency = cloneInt(in.FitnessFrequency)
	}
	if in.Source != nil {
		out.Source = p.source(in.Source, out.Source)
	}
	if in.Notes != nil {
		out.Notes = trimmedPtr(in.Notes)
	}
	if in.StaffID != nil {
		out.StaffID = p.ref("staff_id", in.StaffID)
	}
	if in.ClubID != nil {
		out.ClubID = p.ref("club_id", in.ClubID)
	}

	out.LastUpdated = now.UTC()
	if err := p.finish(out.Validate()); err != nil {
		return lead, err
	}
	return out, nil
}
