package models

import (
	"errors"
	"fmt"
	"strings"
)

// FieldError describes a single invalid field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError is returned when a record cannot be constructed or updated.
// It carries every offending field, not just the first.
type ValidationError struct {
	Entity string       `json:"entity"`
	Fields []FieldError `json:"fields"`
}

// NewValidationError creates an empty ValidationError for entity
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{Entity: entity}
}

// Add appends a field error
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Merge appends all field errors of other
func (e *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	e.Fields = append(e.Fields, other.Fields...)
}

// HasErrors reports whether any field error was recorded
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// OrNil returns e when it holds field errors, nil otherwise
func (e *ValidationError) OrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Error())
	}
	return fmt.Sprintf("invalid %s: %s", e.Entity, strings.Join(parts, "; "))
}

// InvalidTransitionError is returned for an illegal lifecycle move
type InvalidTransitionError struct {
	LeadID string     `json:"lead_id"`
	From   LeadStatus `json:"from"`
	To     LeadStatus `json:"to"`
	Reason string     `json:"reason"`
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s for lead %s: %s", e.From, e.To, e.LeadID, e.Reason)
}

// NotConvertedError is returned when a conversion metric is requested for an unconverted lead
type NotConvertedError struct {
	LeadID string     `json:"lead_id"`
	Status LeadStatus `json:"status"`
}

func (e *NotConvertedError) Error() string {
	return fmt.Sprintf("lead %s is not converted (status %s)", e.LeadID, e.Status)
}

// NotFoundError is returned when an entity id does not resolve
type NotFoundError struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// IsValidationError reports whether err wraps a *ValidationError
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsInvalidTransition reports whether err wraps an *InvalidTransitionError
func IsInvalidTransition(err error) bool {
	var target *InvalidTransitionError
	return errors.As(err, &target)
}

// IsNotConverted reports whether err wraps a *NotConvertedError
func IsNotConverted(err error) bool {
	var target *NotConvertedError
	return errors.As(err, &target)
}

// IsNotFound reports whether err wraps a *NotFoundError
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// OrphanedReference records a foreign key that does not resolve in a snapshot.
// It is a diagnostic, never returned as an error.
type OrphanedReference struct {
	Entity    string `json:"entity"`
	EntityID  string `json:"entity_id"`
	Field     string `json:"field"`
	MissingID string `json:"missing_id"`
}

func (o OrphanedReference) String() string {
	return fmt.Sprintf("%s %s: %s=%s does not resolve", o.Entity, o.EntityID, o.Field, o.MissingID)
}
