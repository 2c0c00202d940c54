package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("LIFECYCLE_MODE", "")
	t.Setenv("KPI_RATE_METRIC", "")
	t.Setenv("INGEST_MAX_ROWS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "minimal", cfg.Lifecycle.Mode)
	assert.Equal(t, "creation", cfg.KPI.RateMetric)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 10000, cfg.Server.MaxIngestRows)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/leads?sslmode=disable")
	t.Setenv("LIFECYCLE_MODE", "extended")
	t.Setenv("KPI_RATE_METRIC", "activity")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("DATABASE_MAX_CONNECTIONS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "extended", cfg.Lifecycle.Mode)
	assert.Equal(t, "activity", cfg.KPI.RateMetric)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 10, cfg.Database.MaxConnections)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database:  DatabaseConfig{Driver: "memory"},
			Lifecycle: LifecycleConfig{Mode: "minimal"},
			KPI:       KPIConfig{RateMetric: "creation"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"postgres without url", func(c *Config) { c.Database.Driver = "postgres" }, "DATABASE_URL"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "sqlite" }, "DATABASE_DRIVER"},
		{"unknown mode", func(c *Config) { c.Lifecycle.Mode = "chaotic" }, "LIFECYCLE_MODE"},
		{"unknown metric", func(c *Config) { c.KPI.RateMetric = "vibes" }, "KPI_RATE_METRIC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
