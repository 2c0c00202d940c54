package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubpulse/lead-conversion-backend/internal/database"
	"github.com/clubpulse/lead-conversion-backend/internal/events"
	"github.com/clubpulse/lead-conversion-backend/internal/lifecycle"
	"github.com/clubpulse/lead-conversion-backend/internal/models"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.LeadTransitioned
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.LeadTransitioned) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []events.LeadTransitioned {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.LeadTransitioned, len(p.events))
	copy(out, p.events)
	return out
}

func setupLifecycleService(t *testing.T, mode lifecycle.Mode) (*LifecycleService, *EntityService, *recordingPublisher, fixture) {
	t.Helper()
	entities, store := setupEntityService(t)
	fx := seedFixture(t, entities)
	publisher := &recordingPublisher{}
	machine := lifecycle.NewMachine(mode).WithClock(func() time.Time { return testNow })
	svc := NewLifecycleService(store, entities, machine, publisher, quietLogger())
	return svc, entities, publisher, fx
}

func TestLifecycleService_Contact(t *testing.T) {
	svc, _, publisher, fx := setupLifecycleService(t, lifecycle.ModeMinimal)

	result, err := svc.Transition(context.Background(), fx.lead.ID, &TransitionInput{Status: "contacted"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusContacted, result.Lead.Status)
	require.NotNil(t, result.Lead.LastContact)
	assert.Equal(t, models.DateOf(testNow), *result.Lead.LastContact)
	assert.Nil(t, result.Subscription)

	published := publisher.published()
	require.Len(t, published, 1)
	assert.Equal(t, "lead.contacted", published[0].RoutingKey())
	assert.Equal(t, models.StatusNew, published[0].From)
}

func TestLifecycleService_ConvertWithSubscription(t *testing.T) {
	svc, entities, publisher, fx := setupLifecycleService(t, lifecycle.ModeMinimal)
	ctx := context.Background()

	_, err := svc.Transition(ctx, fx.lead.ID, &TransitionInput{Status: "contacted"})
	require.NoError(t, err)

	result, err := svc.Transition(ctx, fx.lead.ID, &TransitionInput{
		Status: "converted",
		Subscription: &models.CreateSubscriptionInput{
			TypeID:    fx.plan.ID,
			StartDate: strPtr("2024-01-15"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusConverted, result.Lead.Status)
	require.NotNil(t, result.Lead.ConversionDate)
	assert.Equal(t, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), *result.Lead.ConversionDate)

	require.NotNil(t, result.Subscription)
	assert.Equal(t, fx.lead.ID, result.Subscription.LeadID)
	assert.Equal(t, "49.99", result.Subscription.ActualPrice.StringFixed(2))
	assert.Equal(t, time.Date(2024, time.February, 14, 0, 0, 0, 0, time.UTC), result.Subscription.EndDate)

	subs, err := entities.ListSubscriptions(ctx, database.SubscriptionFilter{LeadID: fx.lead.ID})
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	published := publisher.published()
	require.Len(t, published, 2)
	require.NotNil(t, published[1].SubscriptionID)
	assert.Equal(t, result.Subscription.ID, *published[1].SubscriptionID)

	t.Run("Converted is terminal", func(t *testing.T) {
		_, err := svc.Transition(ctx, fx.lead.ID, &TransitionInput{Status: "lost"})
		assert.True(t, models.IsInvalidTransition(err))

		lead, err := entities.GetLead(ctx, fx.lead.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusConverted, lead.Status)
	})

	t.Run("Subscription added after conversion", func(t *testing.T) {
		_, err := entities.CreateSubscription(ctx, &models.CreateSubscriptionInput{
			TypeID:    fx.plan.ID,
			LeadID:    fx.lead.ID,
			StartDate: strPtr("2024-02-14"),
		})
		assert.True(t, models.IsValidationError(err), "second active subscription must be rejected")

		inactive := false
		sub, err := entities.CreateSubscription(ctx, &models.CreateSubscriptionInput{
			TypeID:    fx.plan.ID,
			LeadID:    fx.lead.ID,
			StartDate: strPtr("2023-12-01"),
			Active:    &inactive,
		})
		require.NoError(t, err)
		assert.False(t, sub.Active)
	})
}

func TestLifecycleService_ConvertWithoutSubscription(t *testing.T) {
	svc, entities, publisher, fx := setupLifecycleService(t, lifecycle.ModeMinimal)
	ctx := context.Background()

	_, err := svc.Transition(ctx, fx.lead.ID, &TransitionInput{Status: "contacted"})
	require.NoError(t, err)

	_, err = svc.Transition(ctx, fx.lead.ID, &TransitionInput{Status: "converted"})
	require.Error(t, err)

	var terr *models.InvalidTransitionError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, models.StatusContacted, terr.From)

	lead, err := entities.GetLead(ctx, fx.lead.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusContacted, lead.Status)
	assert.Nil(t, lead.ConversionDate)
	assert.Len(t, publisher.published(), 1)
}

func TestLifecycleService_RejectedInput(t *testing.T) {
	svc, _, publisher, fx := setupLifecycleService(t, lifecycle.ModeMinimal)
	ctx := context.Background()

	tests := []struct {
		name  string
		input *TransitionInput
	}{
		{"Unknown status", &TransitionInput{Status: "hibernating"}},
		{"Subscription without conversion", &TransitionInput{
			Status:       "contacted",
			Subscription: &models.CreateSubscriptionInput{TypeID: fx.plan.ID, StartDate: strPtr("2024-01-15")},
		}},
		{"Subscription for another lead", &TransitionInput{
			Status: "converted",
			Subscription: &models.CreateSubscriptionInput{
				TypeID:    fx.plan.ID,
				LeadID:    "00000000-0000-4000-8000-000000000009",
				StartDate: strPtr("2024-01-15"),
			},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Transition(ctx, fx.lead.ID, tt.input)
			assert.True(t, models.IsValidationError(err))
		})
	}
	assert.Empty(t, publisher.published())
}

func TestLifecycleService_ReservedStatusInMinimalMode(t *testing.T) {
	svc, _, _, fx := setupLifecycleService(t, lifecycle.ModeMinimal)

	_, err := svc.Transition(context.Background(), fx.lead.ID, &TransitionInput{Status: "interested"})
	assert.True(t, models.IsInvalidTransition(err))
}

func TestLifecycleService_AllowedTransitions(t *testing.T) {
	svc, _, _, fx := setupLifecycleService(t, lifecycle.ModeExtended)
	ctx := context.Background()

	_, err := svc.Transition(ctx, fx.lead.ID, &TransitionInput{Status: "contacted"})
	require.NoError(t, err)

	allowed, err := svc.AllowedTransitions(ctx, fx.lead.ID)
	require.NoError(t, err)
	assert.Contains(t, allowed, models.StatusInterested)
	assert.Contains(t, allowed, models.StatusLost)
	assert.NotContains(t, allowed, models.StatusConverted)
}

func TestLifecycleService_PublishFailureKeepsTransition(t *testing.T) {
	svc, entities, publisher, fx := setupLifecycleService(t, lifecycle.ModeMinimal)
	publisher.err = errors.New("broker down")
	ctx := context.Background()

	result, err := svc.Transition(ctx, fx.lead.ID, &TransitionInput{Status: "lost"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusLost, result.Lead.Status)

	lead, err := entities.GetLead(ctx, fx.lead.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusLost, lead.Status)
}

func TestLifecycleService_ConcurrentConversions(t *testing.T) {
	svc, entities, _, fx := setupLifecycleService(t, lifecycle.ModeMinimal)
	ctx := context.Background()

	_, err := svc.Transition(ctx, fx.lead.ID, &TransitionInput{Status: "contacted"})
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Transition(ctx, fx.lead.ID, &TransitionInput{
				Status:       "converted",
				Subscription: &models.CreateSubscriptionInput{TypeID: fx.plan.ID, StartDate: strPtr("2024-01-15")},
			})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	subs, err := entities.ListSubscriptions(ctx, database.SubscriptionFilter{LeadID: fx.lead.ID})
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}
