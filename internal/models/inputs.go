package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// inputParser accumulates field errors while converting request DTO values
type inputParser struct {
	verr *ValidationError
}

func newInputParser(entity string) *inputParser {
	return &inputParser{verr: NewValidationError(entity)}
}

func (p *inputParser) id(field, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.New().String()
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		p.verr.Add(field, "must be a valid UUID")
		return ""
	}
	return parsed.String()
}

// ref parses an optional weak reference; empty means unset
func (p *inputParser) ref(field string, raw *string) *string {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	parsed, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		p.verr.Add(field, "must be a valid UUID")
		return nil
	}
	s := parsed.String()
	return &s
}

func (p *inputParser) requiredRef(field, raw string) string {
	if strings.TrimSpace(raw) == "" {
		p.verr.Add(field, "is required")
		return ""
	}
	ref := p.ref(field, &raw)
	if ref == nil {
		return ""
	}
	return *ref
}

func (p *inputParser) date(field string, raw *string) *time.Time {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	t, err := ParseDate(strings.TrimSpace(*raw))
	if err != nil {
		p.verr.Add(field, "must be a valid date (YYYY-MM-DD)")
		return nil
	}
	return &t
}

func (p *inputParser) requiredDate(field string, raw *string) time.Time {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		p.verr.Add(field, "is required")
		return time.Time{}
	}
	t := p.date(field, raw)
	if t == nil {
		return time.Time{}
	}
	return *t
}

func (p *inputParser) gender(raw *string) Gender {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return ""
	}
	g, err := ParseGender(*raw)
	if err != nil {
		p.verr.Add("gender", "must be one of: male female other")
	}
	return g
}

func (p *inputParser) employment(raw *string) Employment {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return ""
	}
	e, err := ParseEmployment(*raw)
	if err != nil {
		p.verr.Add("employment", "must be one of: working student unemployed")
	}
	return e
}

func (p *inputParser) fitnessLevel(raw *string, fallback FitnessLevel) FitnessLevel {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return fallback
	}
	f, err := ParseFitnessLevel(*raw)
	if err != nil {
		p.verr.Add("fitness_level", "must be one of: beginner intermediate advanced")
	}
	return f
}

func (p *inputParser) source(raw *string, fallback LeadSource) LeadSource {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return fallback
	}
	s, err := ParseLeadSource(*raw)
	if err != nil {
		p.verr.Add("source", "must be one of: website friend referral walk_in social_media advertisement other")
	}
	return s
}

func (p *inputParser) role(raw *string, fallback StaffRole) StaffRole {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return fallback
	}
	r, err := ParseStaffRole(*raw)
	if err != nil {
		p.verr.Add("role", "must be one of: trainer sales manager other")
	}
	return r
}

// finish merges struct validation errors into the parse errors. A field
// already reported while parsing is not reported a second time.
func (p *inputParser) finish(err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		seen := make(map[string]bool, len(p.verr.Fields))
		for _, f := range p.verr.Fields {
			seen[f.Field] = true
		}
		for _, f := range ve.Fields {
			if !seen[f.Field] {
				p.verr.Add(f.Field, f.Message)
			}
		}
	} else if err != nil {
		return err
	}
	return p.verr.OrNil()
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}
