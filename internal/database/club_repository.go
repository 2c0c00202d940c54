package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clubpulse/lead-conversion-backend/internal/models"
)

const clubColumns = `id, name, street, city, postal_code, country, capacity, operating_hours,
	established_date, monthly_target, revenue, created_at, updated_at`

// ClubRepository handles club database operations
type ClubRepository struct {
	db Queryer
}

// NewClubRepository creates a new club repository
func NewClubRepository(db Queryer) *ClubRepository {
	return &ClubRepository{db: db}
}

func scanClub(row rowScanner) (*models.Club, error) {
	var c models.Club
	var established sql.NullTime
	err := row.Scan(
		&c.ID, &c.Name,
		&c.Address.Street, &c.Address.City, &c.Address.PostalCode, &c.Address.Country,
		&c.Capacity, &c.OperatingHours, &established, &c.MonthlyTarget, &c.Revenue,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.EstablishedDate = nullDate(established)
	return &c, nil
}

// Create inserts a new club
func (r *ClubRepository) Create(ctx context.Context, c *models.Club) error {
	query := `
		INSERT INTO clubs (` + clubColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Name,
		c.Address.Street, c.Address.City, c.Address.PostalCode, c.Address.Country,
		c.Capacity, c.OperatingHours, c.EstablishedDate, c.MonthlyTarget, c.Revenue,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if cerr := constraintError("club", err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("failed to create club: %w", err)
	}
	return nil
}

// GetByID retrieves a club by ID
func (r *ClubRepository) GetByID(ctx context.Context, id string) (*models.Club, error) {
	query := `SELECT ` + clubColumns + ` FROM clubs WHERE id = $1`
	c, err := scanClub(r.db.QueryRowxContext(ctx, query, id))
	if err != nil {
		if missingRow(err) {
			return nil, &models.NotFoundError{Entity: "club", ID: id}
		}
		return nil, fmt.Errorf("failed to get club: %w", err)
	}
	return c, nil
}

// Update overwrites a club's editable fields
func (r *ClubRepository) Update(ctx context.Context, c *models.Club) error {
	query := `
		UPDATE clubs SET
			name = $2, street = $3, city = $4, postal_code = $5, country = $6,
			capacity = $7, operating_hours = $8, established_date = $9,
			monthly_target = $10, updated_at = $11
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		c.ID, c.Name,
		c.Address.Street, c.Address.City, c.Address.PostalCode, c.Address.Country,
		c.Capacity, c.OperatingHours, c.EstablishedDate, c.MonthlyTarget, c.UpdatedAt,
	)
	if err != nil {
		if cerr := constraintError("club", err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("failed to update club: %w", err)
	}
	return requireOneRow(result, "club", c.ID)
}

// SetRevenue replaces the cached revenue figure
func (r *ClubRepository) SetRevenue(ctx context.Context, id string, revenue decimal.Decimal, now time.Time) error {
	query := `UPDATE clubs SET revenue = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, revenue, now)
	if err != nil {
		return fmt.Errorf("failed to update club revenue: %w", err)
	}
	return requireOneRow(result, "club", id)
}

// List returns every club ordered by name
func (r *ClubRepository) List(ctx context.Context) ([]models.Club, error) {
	query := `SELECT ` + clubColumns + ` FROM clubs ORDER BY name`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list clubs: %w", err)
	}
	defer rows.Close()

	clubs := make([]models.Club, 0)
	for rows.Next() {
		c, err := scanClub(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan club: %w", err)
		}
		clubs = append(clubs, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list clubs: %w", err)
	}
	return clubs, nil
}

func requireOneRow(result sql.Result, entity, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return &models.NotFoundError{Entity: entity, ID: id}
	}
	return nil
}
