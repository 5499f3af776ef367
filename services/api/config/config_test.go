package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, 10, cfg.DefaultLimit)
		assert.Equal(t, 100, cfg.GeoJSONLimit)
		assert.Equal(t, ":8080", cfg.ListenAddr())
	})

	t.Run("missing DATABASE_URL", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")

		_, err := Load()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "DATABASE_URL")
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("PORT", "9090")
		t.Setenv("API_DEFAULT_LIMIT", "25")
		t.Setenv("GEOJSON_EXPORT_LIMIT", "500")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Port)
		assert.Equal(t, 25, cfg.DefaultLimit)
		assert.Equal(t, 500, cfg.GeoJSONLimit)
	})

	t.Run("invalid PORT", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("PORT", "eighty")

		_, err := Load()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid PORT")
	})
}
