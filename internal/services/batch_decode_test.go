package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubpulse/lead-conversion-backend/internal/database"
)

const yamlBatch = `
clubs:
  - id: 11111111-1111-4111-8111-111111111111
    name: Riverside
    capacity: 150
    monthly_target: 10
    address:
      city: Leeds
subscription_types:
  - id: 22222222-2222-4222-8222-222222222222
    name: Annual
    base_price: 399.00
    duration_days: 365
leads:
  - id: 44444444-4444-4444-8444-444444444444
    first_name: Ada
    last_name: Lovelace
    status: converted
    creation_date: 2024-03-01
    conversion_date: 2024-03-10
    club_id: 11111111-1111-4111-8111-111111111111
    fitness_goals: [strength, endurance]
subscriptions:
  - lead_id: 44444444-4444-4444-8444-444444444444
    type_id: 22222222-2222-4222-8222-222222222222
    start_date: 2024-03-10
`

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"rows.json", FormatJSON, false},
		{"rows.YAML", FormatYAML, false},
		{"/tmp/rows.yml", FormatYAML, false},
		{"rows.csv", "", true},
		{"rows", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeBatch(t *testing.T) {
	t.Run("JSON keeps numbers exact", func(t *testing.T) {
		batch, err := DecodeBatch(strings.NewReader(`{"subscription_types":[{"name":"Annual","price":399.10,"duration_days":365}]}`), FormatJSON)
		require.NoError(t, err)
		require.Len(t, batch.SubscriptionTypes, 1)
		assert.Equal(t, json.Number("399.10"), batch.SubscriptionTypes[0]["price"])
	})

	t.Run("Malformed JSON", func(t *testing.T) {
		_, err := DecodeBatch(strings.NewReader(`{"clubs": [`), FormatJSON)
		assert.Error(t, err)
	})

	t.Run("Empty YAML", func(t *testing.T) {
		batch, err := DecodeBatch(strings.NewReader(""), FormatYAML)
		require.NoError(t, err)
		assert.Zero(t, batch.Size())
	})

	t.Run("Unknown format", func(t *testing.T) {
		_, err := DecodeBatch(strings.NewReader("{}"), "csv")
		assert.Error(t, err)
	})
}

func TestDecodeBatch_YAMLImports(t *testing.T) {
	batch, err := DecodeBatch(strings.NewReader(yamlBatch), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, 4, batch.Size())

	entities, _ := setupEntityService(t)
	result, err := NewIngestionService(entities, quietLogger()).Import(context.Background(), batch)
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 1, result.Imported[KindSubscription])

	subs, err := entities.ListSubscriptions(context.Background(), database.SubscriptionFilter{LeadID: "44444444-4444-4444-8444-444444444444"})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "399.00", subs[0].ActualPrice.StringFixed(2))
}
