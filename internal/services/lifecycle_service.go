package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/clubpulse/lead-conversion-backend/internal/database"
	"github.com/clubpulse/lead-conversion-backend/internal/events"
	"github.com/clubpulse/lead-conversion-backend/internal/lifecycle"
	"github.com/clubpulse/lead-conversion-backend/internal/metrics"
	"github.com/clubpulse/lead-conversion-backend/internal/models"
)

// TransitionInput represents a request to move a lead to a new status.
// Subscription is only accepted together with status converted and is
// created in the same unit as the conversion.
type TransitionInput struct {
	Status       string                          `json:"status"`
	Subscription *models.CreateSubscriptionInput `json:"subscription,omitempty"`
}

// TransitionResult is the lead after the transition plus any subscription
// created with it
type TransitionResult struct {
	Lead         *models.Lead         `json:"lead"`
	Subscription *models.Subscription `json:"subscription,omitempty"`
}

// LifecycleService applies status transitions atomically against the store
type LifecycleService struct {
	store     database.Store
	entities  *EntityService
	machine   *lifecycle.Machine
	publisher events.Publisher
	logger    logrus.FieldLogger
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(
	store database.Store,
	entities *EntityService,
	machine *lifecycle.Machine,
	publisher events.Publisher,
	logger logrus.FieldLogger,
) *LifecycleService {
	return &LifecycleService{
		store:     store,
		entities:  entities,
		machine:   machine,
		publisher: publisher,
		logger:    logger,
	}
}

// AllowedTransitions lists the statuses the lead can move to next
func (s *LifecycleService) AllowedTransitions(ctx context.Context, leadID string) ([]models.LeadStatus, error) {
	lead, err := s.store.GetLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	return s.machine.Allowed(lead.Status), nil
}

// Transition moves the lead to input.Status. On any error nothing is
// written and the lead keeps its previous status.
func (s *LifecycleService) Transition(ctx context.Context, leadID string, input *TransitionInput) (*TransitionResult, error) {
	to, err := models.ParseLeadStatus(input.Status)
	if err != nil {
		verr := models.NewValidationError("transition")
		verr.Add("status", err.Error())
		return nil, verr
	}

	sub, err := s.pendingSubscription(ctx, leadID, to, input.Subscription)
	if err != nil {
		return nil, err
	}

	from := models.LeadStatus("")
	updated, err := s.store.ApplyLeadChange(ctx, leadID, func(current models.Lead, subs []models.Subscription) (database.LeadChange, error) {
		from = current.Status
		candidates := subs
		if sub != nil {
			candidates = append(append([]models.Subscription{}, subs...), *sub)
		}
		next, err := s.machine.Apply(current, lifecycle.Request{To: to, Subscriptions: candidates})
		if err != nil {
			return database.LeadChange{}, err
		}
		return database.LeadChange{Lead: &next, Insert: sub}, nil
	})
	if err != nil {
		outcome := metrics.OutcomeFailed
		if models.IsInvalidTransition(err) || models.IsValidationError(err) {
			outcome = metrics.OutcomeRejected
		}
		metrics.RecordTransition(string(from), string(to), outcome)
		return nil, err
	}

	metrics.RecordTransition(string(from), string(to), metrics.OutcomeApplied)
	if sub != nil {
		metrics.RecordSubscriptionCreated()
	}

	logger := s.logger.WithFields(logrus.Fields{
		"lead_id": leadID,
		"from":    from,
		"to":      to,
	})
	logger.Info("Lead transitioned")

	event := events.LeadTransitioned{
		LeadID:     leadID,
		From:       from,
		To:         to,
		StaffID:    updated.StaffID,
		ClubID:     updated.ClubID,
		OccurredAt: updated.LastUpdated,
	}
	if sub != nil {
		event.SubscriptionID = &sub.ID
	}
	if err := s.publish(ctx, event); err != nil {
		logger.WithError(err).Warn("Failed to publish transition event")
	}

	return &TransitionResult{Lead: updated, Subscription: sub}, nil
}

// pendingSubscription validates a subscription supplied with a transition
func (s *LifecycleService) pendingSubscription(ctx context.Context, leadID string, to models.LeadStatus, input *models.CreateSubscriptionInput) (*models.Subscription, error) {
	if input == nil {
		return nil, nil
	}
	if to != models.StatusConverted {
		verr := models.NewValidationError("transition")
		verr.Add("subscription", fmt.Sprintf("only accepted when converting, not with status %s", to))
		return nil, verr
	}

	in := *input
	switch strings.TrimSpace(in.LeadID) {
	case "":
		in.LeadID = leadID
	case leadID:
	default:
		verr := models.NewValidationError("subscription")
		verr.Add("lead_id", "must match the converting lead")
		return nil, verr
	}
	return s.entities.BuildSubscription(ctx, &in)
}

func (s *LifecycleService) publish(ctx context.Context, event events.LeadTransitioned) error {
	if s.publisher == nil {
		return nil
	}
	// The request may already be finished; the event should still go out
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return s.publisher.Publish(pubCtx, event)
}
