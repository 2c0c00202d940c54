package events

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubpulse/lead-conversion-backend/internal/models"
)

func TestLeadTransitioned_RoutingKey(t *testing.T) {
	e := LeadTransitioned{LeadID: "l1", From: models.StatusContacted, To: models.StatusConverted}
	assert.Equal(t, "lead.converted", e.RoutingKey())
}

func TestLogPublisher_Publish(t *testing.T) {
	logger, hook := test.NewNullLogger()
	p := NewLogPublisher(logger)

	sub := "sub-1"
	err := p.Publish(context.Background(), LeadTransitioned{
		LeadID:         "l1",
		From:           models.StatusContacted,
		To:             models.StatusConverted,
		SubscriptionID: &sub,
		OccurredAt:     time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "lead.converted", entry.Data["event"])
	assert.Equal(t, "sub-1", entry.Data["subscription_id"])
	assert.NoError(t, p.Close())
}
