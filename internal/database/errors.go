package database

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/clubpulse/lead-conversion-backend/internal/models"
)

const (
	pqUniqueViolation      = "23505"
	pqInvalidTextRepresent = "22P02"
	pqCheckViolation       = "23514"

	oneActiveIndex = "subscriptions_one_active_per_lead"
)

// missingRow reports a lookup that matched nothing, including an id that
// is not even a UUID
func missingRow(err error) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqInvalidTextRepresent
}

// constraintError turns constraint violations into validation errors
func constraintError(entity string, err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		if pqErr.Constraint == oneActiveIndex {
			return oneActiveViolation()
		}
		return duplicateID(entity)
	case pqCheckViolation:
		verr := models.NewValidationError(entity)
		verr.Add(pqErr.Constraint, "violates check constraint")
		return verr
	}
	return nil
}

func nullDate(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	d := models.DateOf(nt.Time)
	return &d
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func normalizeDatePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := models.DateOf(*t)
	return &d
}
