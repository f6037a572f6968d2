package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, BackendMongo, cfg.Database.Backend)
	assert.Equal(t, "fittrack", cfg.Database.Name)
	assert.Equal(t, time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 3*time.Second, cfg.FoodData.Timeout)
	assert.Equal(t, 6*time.Hour, cfg.FoodData.CacheTTL)
	assert.Equal(t, 16, cfg.FoodData.CacheSizeMB)
	assert.False(t, cfg.S3.Enabled())
	assert.True(t, cfg.Log.Stdout)
	assert.Equal(t, DefaultTrackedMetrics, cfg.Nutrition.TrackedMetrics)

	field, desc := cfg.Nutrition.SortOrder()
	assert.Equal(t, "loggedAt", field)
	assert.True(t, desc)

	loc, err := cfg.Nutrition.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
database:
  backend: memory
jwt:
  secret: from-file
  expiration: 30m
s3:
  bucket_name: meals
nutrition:
  timezone: Europe/Berlin
  tracked_metrics: [calories, protein]
  sort: foodName_asc
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("SERVER_ADDRESS", ":9090")
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "from-env", cfg.JWT.Secret, "env wins over the file")
	assert.Equal(t, 30*time.Minute, cfg.JWT.Expiration)
	assert.Equal(t, BackendMemory, cfg.Database.Backend)
	assert.True(t, cfg.S3.Enabled())
	assert.Equal(t, []string{"calories", "protein"}, cfg.Nutrition.TrackedMetrics)

	field, desc := cfg.Nutrition.SortOrder()
	assert.Equal(t, "foodName", field)
	assert.False(t, desc)

	loc, err := cfg.Nutrition.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Run("backend", func(t *testing.T) {
		t.Setenv("DATABASE_BACKEND", "sqlite")
		_, err := LoadConfig(t.TempDir())
		assert.ErrorContains(t, err, "database.backend")
	})
	t.Run("timezone", func(t *testing.T) {
		t.Setenv("NUTRITION_TIMEZONE", "Mars/Olympus_Mons")
		_, err := LoadConfig(t.TempDir())
		assert.ErrorContains(t, err, "nutrition.timezone")
	})
	t.Run("malformed file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0o600))
		_, err := LoadConfig(dir)
		assert.Error(t, err)
	})
}
