package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		opts, _, err := parseFlags(nil)
		require.NoError(t, err)
		assert.Empty(t, opts.databaseURL)
		assert.False(t, opts.yes)
		assert.False(t, opts.help)
	})

	t.Run("Long flags", func(t *testing.T) {
		opts, _, err := parseFlags([]string{"--database-url", "postgres://localhost/leads", "--yes"})
		require.NoError(t, err)
		assert.Equal(t, "postgres://localhost/leads", opts.databaseURL)
		assert.True(t, opts.yes)
	})

	t.Run("Shorthand", func(t *testing.T) {
		opts, _, err := parseFlags([]string{"-y", "--database-url=postgres://db/leads"})
		require.NoError(t, err)
		assert.Equal(t, "postgres://db/leads", opts.databaseURL)
		assert.True(t, opts.yes)
	})

	t.Run("Help", func(t *testing.T) {
		opts, _, err := parseFlags([]string{"--help"})
		require.NoError(t, err)
		assert.True(t, opts.help)
	})

	t.Run("Unknown flag", func(t *testing.T) {
		_, _, err := parseFlags([]string{"--force"})
		assert.Error(t, err)
	})
}
