package database

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubpulse/lead-conversion-backend/internal/config"
	"github.com/clubpulse/lead-conversion-backend/internal/models"
)

const (
	testLeadID = "6f9b1a2c-3d4e-4f50-8a6b-7c8d9e0f1a2b"
	testPlanID = "1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d"
	testClubID = "9e8d7c6b-5a49-4382-a1b0-c9d8e7f6a5b4"
)

func testDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedLead() *models.Lead {
	club := testClubID
	return &models.Lead{
		ID:           testLeadID,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Status:       models.StatusContacted,
		Source:       models.SourceReferral,
		FitnessLevel: models.FitnessBeginner,
		FitnessGoals: models.StringList{"strength", "mobility"},
		CreationDate: testDay(2024, time.January, 1),
		LastUpdated:  time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC),
		ClubID:       &club,
	}
}

func seedSub(id string, active bool) *models.Subscription {
	return &models.Subscription{
		ID:          id,
		TypeID:      testPlanID,
		LeadID:      testLeadID,
		ActualPrice: decimal.RequireFromString("49.99"),
		StartDate:   testDay(2024, time.January, 15),
		EndDate:     testDay(2024, time.February, 14),
		Active:      active,
	}
}

func TestMemoryStore_CreateAndGetReturnCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.CreateLead(ctx, seedLead()))

	got, err := store.GetLead(ctx, testLeadID)
	require.NoError(t, err)
	got.FitnessGoals[0] = "changed"
	got.FirstName = "Changed"

	again, err := store.GetLead(ctx, testLeadID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", again.FirstName)
	assert.Equal(t, "strength", again.FitnessGoals[0])

	err = store.CreateLead(ctx, seedLead())
	assert.True(t, models.IsValidationError(err))

	_, err = store.GetLead(ctx, "missing")
	assert.True(t, models.IsNotFound(err))
}

func TestMemoryStore_CreateDoesNotAliasCaller(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	lead := seedLead()
	require.NoError(t, store.CreateLead(ctx, lead))
	lead.FitnessGoals[0] = "changed"
	*lead.ClubID = "changed"

	got, err := store.GetLead(ctx, testLeadID)
	require.NoError(t, err)
	assert.Equal(t, "strength", got.FitnessGoals[0])
	assert.Equal(t, testClubID, *got.ClubID)

	hired := testDay(2023, time.June, 1)
	staff := &models.Staff{ID: "staff-1", FirstName: "Sam", LastName: "Reed", Role: models.RoleSales, HireDate: &hired}
	require.NoError(t, store.CreateStaff(ctx, staff))
	*staff.HireDate = testDay(2020, time.January, 1)

	gotStaff, err := store.GetStaff(ctx, "staff-1")
	require.NoError(t, err)
	assert.Equal(t, testDay(2023, time.June, 1), *gotStaff.HireDate)

	opened := testDay(2019, time.March, 1)
	club := &models.Club{ID: testClubID, Name: "Downtown", EstablishedDate: &opened}
	require.NoError(t, store.CreateClub(ctx, club))
	*club.EstablishedDate = testDay(2000, time.January, 1)

	gotClub, err := store.GetClub(ctx, testClubID)
	require.NoError(t, err)
	assert.Equal(t, testDay(2019, time.March, 1), *gotClub.EstablishedDate)
}

func TestMemoryStore_ApplyLeadChange(t *testing.T) {
	ctx := context.Background()

	t.Run("writes lead and subscription together", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.CreateLead(ctx, seedLead()))

		out, err := store.ApplyLeadChange(ctx, testLeadID, func(current models.Lead, subs []models.Subscription) (LeadChange, error) {
			assert.Empty(t, subs)
			current.Status = models.StatusConverted
			day := testDay(2024, time.January, 15)
			current.ConversionDate = &day
			return LeadChange{Lead: &current, Insert: seedSub("sub-1", true)}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, models.StatusConverted, out.Status)

		subs, err := store.ListSubscriptions(ctx, SubscriptionFilter{LeadID: testLeadID})
		require.NoError(t, err)
		assert.Len(t, subs, 1)
	})

	t.Run("callback error writes nothing", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.CreateLead(ctx, seedLead()))

		boom := errors.New("boom")
		_, err := store.ApplyLeadChange(ctx, testLeadID, func(current models.Lead, _ []models.Subscription) (LeadChange, error) {
			return LeadChange{}, boom
		})
		assert.ErrorIs(t, err, boom)

		lead, err := store.GetLead(ctx, testLeadID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusContacted, lead.Status)
	})

	t.Run("second active subscription is rejected atomically", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.CreateLead(ctx, seedLead()))
		_, err := store.ApplyLeadChange(ctx, testLeadID, func(models.Lead, []models.Subscription) (LeadChange, error) {
			return LeadChange{Insert: seedSub("sub-1", true)}, nil
		})
		require.NoError(t, err)

		_, err = store.ApplyLeadChange(ctx, testLeadID, func(current models.Lead, _ []models.Subscription) (LeadChange, error) {
			current.Notes = strRef("should not persist")
			return LeadChange{Lead: &current, Insert: seedSub("sub-2", true)}, nil
		})
		assert.True(t, models.IsValidationError(err))

		lead, err := store.GetLead(ctx, testLeadID)
		require.NoError(t, err)
		assert.Nil(t, lead.Notes)

		// inactive history is fine
		_, err = store.ApplyLeadChange(ctx, testLeadID, func(models.Lead, []models.Subscription) (LeadChange, error) {
			return LeadChange{Insert: seedSub("sub-old", false)}, nil
		})
		assert.NoError(t, err)
	})

	t.Run("missing lead", func(t *testing.T) {
		store := NewMemoryStore()
		_, err := store.ApplyLeadChange(ctx, "missing", func(models.Lead, []models.Subscription) (LeadChange, error) {
			t.Fatal("callback must not run")
			return LeadChange{}, nil
		})
		assert.True(t, models.IsNotFound(err))
	})
}

func TestMemoryStore_ApplyLeadChangeSerializes(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	lead := seedLead()
	freq := 0
	lead.FitnessFrequency = &freq
	require.NoError(t, store.CreateLead(ctx, lead))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.ApplyLeadChange(ctx, testLeadID, func(current models.Lead, _ []models.Subscription) (LeadChange, error) {
				n := *current.FitnessFrequency + 1
				current.FitnessFrequency = &n
				return LeadChange{Lead: &current}, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.GetLead(ctx, testLeadID)
	require.NoError(t, err)
	assert.Equal(t, 50, *got.FitnessFrequency)
}

func TestMemoryStore_ExpireSubscriptions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.CreateLead(ctx, seedLead()))
	_, err := store.ApplyLeadChange(ctx, testLeadID, func(models.Lead, []models.Subscription) (LeadChange, error) {
		return LeadChange{Insert: seedSub("sub-1", true)}, nil
	})
	require.NoError(t, err)

	n, err := store.ExpireSubscriptions(ctx, testDay(2024, time.February, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = store.ExpireSubscriptions(ctx, testDay(2024, time.February, 14))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	active, err := store.ListSubscriptions(ctx, SubscriptionFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestMemoryStore_SnapshotRoundTripThroughFile(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.CreateClub(ctx, &models.Club{
		ID: testClubID, Name: "Downtown", Capacity: 120, MonthlyTarget: 8,
		Revenue: decimal.RequireFromString("1234.50"),
	}))
	require.NoError(t, store.CreateSubscriptionType(ctx, &models.SubscriptionType{
		ID: testPlanID, Name: "Monthly", BasePrice: decimal.RequireFromString("49.99"), DurationDays: 30,
	}))
	require.NoError(t, store.CreateLead(ctx, seedLead()))
	_, err := store.ApplyLeadChange(ctx, testLeadID, func(models.Lead, []models.Subscription) (LeadChange, error) {
		return LeadChange{Insert: seedSub("sub-1", true)}, nil
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "store.cbor")
	require.NoError(t, store.SaveSnapshot(ctx, path))

	loaded, err := LoadMemoryStore(path)
	require.NoError(t, err)

	lead, err := loaded.GetLead(ctx, testLeadID)
	require.NoError(t, err)
	assert.Equal(t, []string{"strength", "mobility"}, []string(lead.FitnessGoals))
	assert.True(t, lead.CreationDate.Equal(testDay(2024, time.January, 1)))
	require.NotNil(t, lead.ClubID)
	assert.Equal(t, testClubID, *lead.ClubID)

	club, err := loaded.GetClub(ctx, testClubID)
	require.NoError(t, err)
	assert.True(t, club.Revenue.Equal(decimal.RequireFromString("1234.50")))

	sub, err := loaded.GetSubscription(ctx, "sub-1")
	require.NoError(t, err)
	assert.True(t, sub.ActualPrice.Equal(decimal.RequireFromString("49.99")))
	assert.True(t, sub.Active)
}

func TestLoadMemoryStore_MissingFileIsEmpty(t *testing.T) {
	store, err := LoadMemoryStore(filepath.Join(t.TempDir(), "absent.cbor"))
	require.NoError(t, err)

	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Leads)
}

func strRef(s string) *string { return &s }

func TestOpen(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	ctx := context.Background()

	t.Run("Memory without snapshot", func(t *testing.T) {
		store, err := Open(ctx, config.DatabaseConfig{Driver: "memory"}, logger)
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, store)
	})

	t.Run("Memory with missing snapshot file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "absent.cbor")
		store, err := Open(ctx, config.DatabaseConfig{Driver: "memory", SnapshotPath: path}, logger)
		require.NoError(t, err)
		clubs, err := store.ListClubs(ctx)
		require.NoError(t, err)
		assert.Empty(t, clubs)
	})

	t.Run("Postgres without URL", func(t *testing.T) {
		_, err := Open(ctx, config.DatabaseConfig{Driver: "postgres"}, logger)
		assert.Error(t, err)
	})

	t.Run("Unknown driver", func(t *testing.T) {
		_, err := Open(ctx, config.DatabaseConfig{Driver: "mongo"}, logger)
		assert.Error(t, err)
	})
}
