package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/clubpulse/lead-conversion-backend/internal/models"
)

// PostgresStore implements Store on PostgreSQL
type PostgresStore struct {
	db     *sqlx.DB
	logger *logrus.Logger
	now    func() time.Time

	clubs         *ClubRepository
	staff         *StaffRepository
	types         *SubscriptionTypeRepository
	leads         *LeadRepository
	subscriptions *SubscriptionRepository
}

// NewPostgresStore creates a new PostgresStore on an open connection pool
func NewPostgresStore(db *sqlx.DB, logger *logrus.Logger) *PostgresStore {
	return &PostgresStore{
		db:            db,
		logger:        logger,
		now:           time.Now,
		clubs:         NewClubRepository(db),
		staff:         NewStaffRepository(db),
		types:         NewSubscriptionTypeRepository(db),
		leads:         NewLeadRepository(db),
		subscriptions: NewSubscriptionRepository(db),
	}
}

// withTx runs fn in a transaction, committing on success
func (s *PostgresStore) withTx(ctx context.Context, opts *sql.TxOptions, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.WithError(rbErr).Warn("Failed to roll back transaction")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateClub(ctx context.Context, club *models.Club) error {
	return s.clubs.Create(ctx, club)
}

func (s *PostgresStore) GetClub(ctx context.Context, id string) (*models.Club, error) {
	return s.clubs.GetByID(ctx, id)
}

func (s *PostgresStore) UpdateClub(ctx context.Context, club *models.Club) error {
	return s.clubs.Update(ctx, club)
}

func (s *PostgresStore) ListClubs(ctx context.Context) ([]models.Club, error) {
	return s.clubs.List(ctx)
}

func (s *PostgresStore) SetClubRevenue(ctx context.Context, clubID string, revenue decimal.Decimal) error {
	return s.clubs.SetRevenue(ctx, clubID, revenue, s.now().UTC())
}

func (s *PostgresStore) CreateStaff(ctx context.Context, staff *models.Staff) error {
	return s.staff.Create(ctx, staff)
}

func (s *PostgresStore) GetStaff(ctx context.Context, id string) (*models.Staff, error) {
	return s.staff.GetByID(ctx, id)
}

func (s *PostgresStore) UpdateStaff(ctx context.Context, staff *models.Staff) error {
	return s.staff.Update(ctx, staff)
}

func (s *PostgresStore) ListStaff(ctx context.Context) ([]models.Staff, error) {
	return s.staff.List(ctx)
}

func (s *PostgresStore) CreateSubscriptionType(ctx context.Context, st *models.SubscriptionType) error {
	return s.types.Create(ctx, st)
}

func (s *PostgresStore) GetSubscriptionType(ctx context.Context, id string) (*models.SubscriptionType, error) {
	return s.types.GetByID(ctx, id)
}

func (s *PostgresStore) UpdateSubscriptionType(ctx context.Context, st *models.SubscriptionType) error {
	return s.types.Update(ctx, st)
}

func (s *PostgresStore) ListSubscriptionTypes(ctx context.Context) ([]models.SubscriptionType, error) {
	return s.types.List(ctx)
}

func (s *PostgresStore) CreateLead(ctx context.Context, lead *models.Lead) error {
	return s.leads.Create(ctx, lead)
}

func (s *PostgresStore) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	return s.leads.GetByID(ctx, id)
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]models.Lead, error) {
	return s.leads.List(ctx, filter)
}

// ApplyLeadChange locks the lead row with SELECT ... FOR UPDATE and writes
// the lead and subscription changes in the same transaction
func (s *PostgresStore) ApplyLeadChange(ctx context.Context, leadID string, fn LeadChangeFunc) (*models.Lead, error) {
	var out *models.Lead
	err := s.withTx(ctx, nil, func(tx *sqlx.Tx) error {
		leads := NewLeadRepository(tx)
		subsRepo := NewSubscriptionRepository(tx)

		current, err := leads.GetForUpdate(ctx, leadID)
		if err != nil {
			return err
		}
		subs, err := subsRepo.List(ctx, SubscriptionFilter{LeadID: leadID})
		if err != nil {
			return err
		}

		change, err := fn(current.Clone(), subs)
		if err != nil {
			return err
		}
		known := make(map[string]bool, len(subs))
		for _, sub := range subs {
			known[sub.ID] = true
		}
		// An insert colliding with another lead's subscription id is caught by the primary key
		if err := checkChange(leadID, change, subs, func(id string) bool { return known[id] }); err != nil {
			return err
		}

		if change.Lead != nil {
			if err := leads.Update(ctx, change.Lead); err != nil {
				return err
			}
		}
		if change.Update != nil {
			if err := subsRepo.Update(ctx, change.Update); err != nil {
				return err
			}
		}
		if change.Insert != nil {
			if err := subsRepo.Create(ctx, change.Insert); err != nil {
				return err
			}
		}

		out = current
		if change.Lead != nil {
			updated := change.Lead.Clone()
			out = &updated
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	return s.subscriptions.GetByID(ctx, id)
}

func (s *PostgresStore) ListSubscriptions(ctx context.Context, filter SubscriptionFilter) ([]models.Subscription, error) {
	return s.subscriptions.List(ctx, filter)
}

func (s *PostgresStore) ExpireSubscriptions(ctx context.Context, asOf time.Time) (int, error) {
	return s.subscriptions.Expire(ctx, asOf, s.now().UTC())
}

// Snapshot reads every table inside one read-only REPEATABLE READ transaction
func (s *PostgresStore) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	snap := models.NewSnapshot()
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

	err := s.withTx(ctx, opts, func(tx *sqlx.Tx) error {
		clubs, err := NewClubRepository(tx).List(ctx)
		if err != nil {
			return err
		}
		staff, err := NewStaffRepository(tx).List(ctx)
		if err != nil {
			return err
		}
		types, err := NewSubscriptionTypeRepository(tx).List(ctx)
		if err != nil {
			return err
		}
		leads, err := NewLeadRepository(tx).List(ctx, LeadFilter{})
		if err != nil {
			return err
		}
		subs, err := NewSubscriptionRepository(tx).List(ctx, SubscriptionFilter{})
		if err != nil {
			return err
		}

		for _, c := range clubs {
			snap.Clubs[c.ID] = c
		}
		for _, st := range staff {
			snap.Staff[st.ID] = st
		}
		for _, t := range types {
			snap.SubscriptionTypes[t.ID] = t
		}
		for _, l := range leads {
			snap.Leads[l.ID] = l
		}
		for _, sub := range subs {
			snap.Subscriptions[sub.ID] = sub
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to take snapshot: %w", err)
	}
	snap.TakenAt = s.now().UTC()
	return snap, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
