package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/pkg/timetable"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 1, cfg.Jobs.Workers)
	assert.Equal(t, time.Second, cfg.Jobs.RetryDelay)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "./exports", cfg.Export.Dir)
	assert.Equal(t, 24*time.Hour, cfg.Export.TTL)
	assert.False(t, cfg.Export.CSVBOM)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	v.Set("CACHE_TTL", "not-a-duration")
	v.Set("TIMETABLE_TIME_SLOTS", " 08:00-08:45 ")

	cfg := fromViper(v)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "08:00-08:45", cfg.Timetable.TimeSlots)
}

func TestTimetableCatalogDefault(t *testing.T) {
	catalog, err := TimetableConfig{}.Catalog()
	require.NoError(t, err)
	assert.Equal(t, timetable.DefaultCatalog(), catalog)
}

func TestTimetableCatalogFromEnvString(t *testing.T) {
	catalog, err := TimetableConfig{TimeSlots: "07:30-08:10,08:15-08:55"}.Catalog()
	require.NoError(t, err)
	assert.Len(t, catalog, 2)

	_, err = TimetableConfig{TimeSlots: "08:15-08:55,07:30-08:10"}.Catalog()
	assert.ErrorIs(t, err, timetable.ErrInvalidCatalog)
}

func TestTimetableCatalogFileWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("plan:\n  start: \"07:00\"\n  lectures: 3\n  lecture_minutes: 45\n  gap_minutes: 0\n"), 0o600))

	catalog, err := TimetableConfig{CatalogFile: path, TimeSlots: "08:00-08:45"}.Catalog()
	require.NoError(t, err)
	require.Len(t, catalog, 3)
	assert.Equal(t, "08:30", catalog[2].StartTime)
}
