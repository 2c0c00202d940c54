package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/clubpulse/lead-conversion-backend/internal/models"
)

const leadColumns = `id, first_name, last_name, email, phone,
	street, city, postal_code, country, date_of_birth,
	gender, employment, fitness_level, fitness_goals, fitness_experience, fitness_frequency,
	source, notes, status, creation_date, last_contact, last_updated, conversion_date,
	staff_id, club_id`

// LeadRepository handles lead database operations
type LeadRepository struct {
	db Queryer
}

// NewLeadRepository creates a new lead repository
func NewLeadRepository(db Queryer) *LeadRepository {
	return &LeadRepository{db: db}
}

func scanLead(row rowScanner) (*models.Lead, error) {
	var (
		l              models.Lead
		dateOfBirth    sql.NullTime
		frequency      sql.NullInt64
		notes          sql.NullString
		lastContact    sql.NullTime
		conversionDate sql.NullTime
		staffID        sql.NullString
		clubID         sql.NullString
	)
	err := row.Scan(
		&l.ID, &l.FirstName, &l.LastName, &l.Email, &l.Phone,
		&l.Address.Street, &l.Address.City, &l.Address.PostalCode, &l.Address.Country, &dateOfBirth,
		&l.Gender, &l.Employment, &l.FitnessLevel, &l.FitnessGoals, &l.FitnessExperience, &frequency,
		&l.Source, &notes, &l.Status, &l.CreationDate, &lastContact, &l.LastUpdated, &conversionDate,
		&staffID, &clubID,
	)
	if err != nil {
		return nil, err
	}

	l.CreationDate = models.DateOf(l.CreationDate)
	l.LastUpdated = l.LastUpdated.UTC()
	l.DateOfBirth = nullDate(dateOfBirth)
	l.LastContact = nullDate(lastContact)
	l.ConversionDate = nullDate(conversionDate)
	l.Notes = nullString(notes)
	l.StaffID = nullString(staffID)
	l.ClubID = nullString(clubID)
	if frequency.Valid {
		f := int(frequency.Int64)
		l.FitnessFrequency = &f
	}
	if l.FitnessGoals == nil {
		l.FitnessGoals = models.StringList{}
	}
	return &l, nil
}

func leadArgs(l *models.Lead) []interface{} {
	return []interface{}{
		l.ID, l.FirstName, l.LastName, l.Email, l.Phone,
		l.Address.Street, l.Address.City, l.Address.PostalCode, l.Address.Country, l.DateOfBirth,
		l.Gender, l.Employment, l.FitnessLevel, l.FitnessGoals, l.FitnessExperience, l.FitnessFrequency,
		l.Source, l.Notes, l.Status, l.CreationDate, l.LastContact, l.LastUpdated, l.ConversionDate,
		l.StaffID, l.ClubID,
	}
}

// Create inserts a new lead
func (r *LeadRepository) Create(ctx context.Context, l *models.Lead) error {
	query := `
		INSERT INTO leads (` + leadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
	`
	if _, err := r.db.ExecContext(ctx, query, leadArgs(l)...); err != nil {
		if cerr := constraintError("lead", err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("failed to create lead: %w", err)
	}
	return nil
}

// GetByID retrieves a lead by ID
func (r *LeadRepository) GetByID(ctx context.Context, id string) (*models.Lead, error) {
	return r.get(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
}

// GetForUpdate retrieves a lead and locks its row until the transaction ends
func (r *LeadRepository) GetForUpdate(ctx context.Context, id string) (*models.Lead, error) {
	return r.get(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1 FOR UPDATE`, id)
}

func (r *LeadRepository) get(ctx context.Context, query, id string) (*models.Lead, error) {
	l, err := scanLead(r.db.QueryRowxContext(ctx, query, id))
	if err != nil {
		if missingRow(err) {
			return nil, &models.NotFoundError{Entity: "lead", ID: id}
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return l, nil
}

// Update overwrites every column of the lead
func (r *LeadRepository) Update(ctx context.Context, l *models.Lead) error {
	query := `
		UPDATE leads SET
			first_name = $2, last_name = $3, email = $4, phone = $5,
			street = $6, city = $7, postal_code = $8, country = $9, date_of_birth = $10,
			gender = $11, employment = $12, fitness_level = $13, fitness_goals = $14,
			fitness_experience = $15, fitness_frequency = $16, source = $17, notes = $18,
			status = $19, creation_date = $20, last_contact = $21, last_updated = $22,
			conversion_date = $23, staff_id = $24, club_id = $25
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, leadArgs(l)...)
	if err != nil {
		if cerr := constraintError("lead", err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("failed to update lead: %w", err)
	}
	return requireOneRow(result, "lead", l.ID)
}

// List returns leads matching filter, newest first
func (r *LeadRepository) List(ctx context.Context, filter LeadFilter) ([]models.Lead, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.StaffID != "" {
		args = append(args, filter.StaffID)
		conditions = append(conditions, fmt.Sprintf("staff_id = $%d", len(args)))
	}
	if filter.ClubID != "" {
		args = append(args, filter.ClubID)
		conditions = append(conditions, fmt.Sprintf("club_id = $%d", len(args)))
	}

	query := `SELECT ` + leadColumns + ` FROM leads`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY creation_date DESC, id`

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	leads := make([]models.Lead, 0)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, nil
}
