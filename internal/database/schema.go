package database

import (
	"context"
	"fmt"
	"strings"
)

// References between tables are weak: rows may point at ids that do not
// exist, and the KPI layer reports those as orphans. No foreign keys.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS clubs (
		id               UUID PRIMARY KEY,
		name             TEXT NOT NULL,
		street           TEXT NOT NULL DEFAULT '',
		city             TEXT NOT NULL DEFAULT '',
		postal_code      TEXT NOT NULL DEFAULT '',
		country          TEXT NOT NULL DEFAULT '',
		capacity         INTEGER NOT NULL DEFAULT 0 CHECK (capacity >= 0),
		operating_hours  TEXT NOT NULL DEFAULT '',
		established_date DATE,
		monthly_target   INTEGER NOT NULL DEFAULT 0 CHECK (monthly_target >= 0),
		revenue          NUMERIC(14,2) NOT NULL DEFAULT 0,
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS staff (
		id         UUID PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name  TEXT NOT NULL,
		role       TEXT NOT NULL,
		hire_date  DATE,
		email      TEXT NOT NULL DEFAULT '',
		phone      TEXT NOT NULL DEFAULT '',
		club_id    UUID,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS subscription_types (
		id            UUID PRIMARY KEY,
		name          TEXT NOT NULL,
		description   TEXT NOT NULL DEFAULT '',
		base_price    NUMERIC(12,2) NOT NULL CHECK (base_price >= 0),
		duration_days INTEGER NOT NULL CHECK (duration_days > 0),
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS leads (
		id                 UUID PRIMARY KEY,
		first_name         TEXT NOT NULL,
		last_name          TEXT NOT NULL,
		email              TEXT NOT NULL DEFAULT '',
		phone              TEXT NOT NULL DEFAULT '',
		street             TEXT NOT NULL DEFAULT '',
		city               TEXT NOT NULL DEFAULT '',
		postal_code        TEXT NOT NULL DEFAULT '',
		country            TEXT NOT NULL DEFAULT '',
		date_of_birth      DATE,
		gender             TEXT NOT NULL DEFAULT '',
		employment         TEXT NOT NULL DEFAULT '',
		fitness_level      TEXT NOT NULL,
		fitness_goals      TEXT[] NOT NULL DEFAULT '{}',
		fitness_experience TEXT NOT NULL DEFAULT '',
		fitness_frequency  INTEGER CHECK (fitness_frequency >= 0),
		source             TEXT NOT NULL,
		notes              TEXT,
		status             TEXT NOT NULL,
		creation_date      DATE NOT NULL,
		last_contact       DATE,
		last_updated       TIMESTAMPTZ NOT NULL,
		conversion_date    DATE,
		staff_id           UUID,
		club_id            UUID,
		CHECK ((status = 'converted') = (conversion_date IS NOT NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS leads_staff_id_idx ON leads (staff_id)`,
	`CREATE INDEX IF NOT EXISTS leads_club_id_idx ON leads (club_id)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		id             UUID PRIMARY KEY,
		type_id        UUID NOT NULL,
		lead_id        UUID NOT NULL,
		actual_price   NUMERIC(12,2) NOT NULL CHECK (actual_price >= 0),
		start_date     DATE NOT NULL,
		end_date       DATE NOT NULL,
		last_visit     DATE,
		visits         INTEGER NOT NULL DEFAULT 0 CHECK (visits >= 0),
		payment_status TEXT NOT NULL DEFAULT '',
		billing_cycle  TEXT NOT NULL DEFAULT '',
		auto_renewal   BOOLEAN NOT NULL DEFAULT FALSE,
		active         BOOLEAN NOT NULL DEFAULT TRUE,
		created_at     TIMESTAMPTZ NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL,
		CHECK (end_date > start_date)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS subscriptions_one_active_per_lead ON subscriptions (lead_id) WHERE active`,
}

// EnsureSchema creates every table and index that does not exist yet
func EnsureSchema(ctx context.Context, db Queryer) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Tables lists every table in dependency order, referenced tables first
var Tables = []string{"clubs", "staff", "subscription_types", "leads", "subscriptions"}

// ClearAll truncates every table. Used by the maintenance tooling only.
func ClearAll(ctx context.Context, db Queryer) error {
	stmt := "TRUNCATE TABLE " + strings.Join(Tables, ", ") + " CASCADE"
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}
