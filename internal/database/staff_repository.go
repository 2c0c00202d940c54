package database

import (
	"context"
	"fmt"

	"github.com/clubpulse/lead-conversion-backend/internal/models"
)

const staffColumns = `id, first_name, last_name, role, hire_date, email, phone, club_id, created_at, updated_at`

// StaffRepository handles staff database operations
type StaffRepository struct {
	db Queryer
}

// NewStaffRepository creates a new staff repository
func NewStaffRepository(db Queryer) *StaffRepository {
	return &StaffRepository{db: db}
}

// Create inserts a new staff member
func (r *StaffRepository) Create(ctx context.Context, s *models.Staff) error {
	query := `
		INSERT INTO staff (` + staffColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.FirstName, s.LastName, s.Role, s.HireDate,
		s.Email, s.Phone, s.ClubID, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if cerr := constraintError("staff", err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("failed to create staff: %w", err)
	}
	return nil
}

// GetByID retrieves a staff member by ID
func (r *StaffRepository) GetByID(ctx context.Context, id string) (*models.Staff, error) {
	var s models.Staff
	query := `SELECT ` + staffColumns + ` FROM staff WHERE id = $1`
	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		if missingRow(err) {
			return nil, &models.NotFoundError{Entity: "staff", ID: id}
		}
		return nil, fmt.Errorf("failed to get staff: %w", err)
	}
	s.HireDate = normalizeDatePtr(s.HireDate)
	return &s, nil
}

// Update overwrites a staff member's editable fields
func (r *StaffRepository) Update(ctx context.Context, s *models.Staff) error {
	query := `
		UPDATE staff SET
			first_name = $2, last_name = $3, role = $4, hire_date = $5,
			email = $6, phone = $7, club_id = $8, updated_at = $9
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		s.ID, s.FirstName, s.LastName, s.Role, s.HireDate,
		s.Email, s.Phone, s.ClubID, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update staff: %w", err)
	}
	return requireOneRow(result, "staff", s.ID)
}

// List returns every staff member ordered by name
func (r *StaffRepository) List(ctx context.Context) ([]models.Staff, error) {
	staff := make([]models.Staff, 0)
	query := `SELECT ` + staffColumns + ` FROM staff ORDER BY last_name, first_name`
	if err := r.db.SelectContext(ctx, &staff, query); err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	for i := range staff {
		staff[i].HireDate = normalizeDatePtr(staff[i].HireDate)
	}
	return staff, nil
}
