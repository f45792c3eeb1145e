package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deva-0608/dataslide/internal/dataset"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	c, err := LoadWithEnv(filepath.Join(t.TempDir(), "missing.yaml"), "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".dataslide", "storage"), c.StorageRoot)
	assert.Equal(t, 5*time.Second, c.PollInterval())
	assert.Equal(t, 1, c.MaxAttempts)
	assert.Equal(t, 30*time.Second, c.RetryBackoff())
	assert.Equal(t, 50, c.MaxCategories)
	assert.Equal(t, []int{2, 2, 1}, []int{c.TopNumerical, c.TopCategorical, c.TopDatetime})
	assert.Equal(t, 10, c.DatetimeSampleSize)
	assert.Equal(t, 1.0, c.DatetimeRequiredSuccess)
	assert.Equal(t, dataset.DefaultNAValues, c.NAValues)
	assert.True(t, c.RenderCharts)
	assert.False(t, c.ExclusiveClaim)
	assert.Equal(t, ":8000", c.ListenAddr)
	assert.Equal(t, "info", c.LogLevel)
	assert.NoError(t, c.Validate())
}

func TestLoadFileThenEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage_root: /srv/data\nmax_attempts: 3\npoll_interval_sec: 2\nna_values: [\"-\", \"?\"]\n"), 0o644))
	t.Setenv("DATASLIDE_POLL_INTERVAL_SEC", "9")

	c, err := LoadWithEnv(path, "")
	require.NoError(t, err)
	assert.Equal(t, "/srv/data", c.StorageRoot)
	assert.Equal(t, 3, c.MaxAttempts)
	assert.Equal(t, 9, c.PollIntervalSec, "env beats file")
	assert.Equal(t, []string{"-", "?"}, c.NAValues)
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DATASLIDE_MAX_ATTEMPTS", "4")
	t.Cleanup(func() { _ = os.Unsetenv("DATASLIDE_LISTEN_ADDR") })
	env := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(env, []byte("DATASLIDE_LISTEN_ADDR=:9999\nDATASLIDE_MAX_ATTEMPTS=7\n"), 0o644))

	c, err := LoadWithEnv(filepath.Join(t.TempDir(), "none.yaml"), env)
	require.NoError(t, err)
	assert.Equal(t, ":9999", c.ListenAddr)
	assert.Equal(t, 4, c.MaxAttempts, "process env wins over .env")
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c, err := LoadWithEnv(path, "")
	require.NoError(t, err)
	require.NoError(t, c.Set("max_attempts", "3"))
	require.NoError(t, c.Set("watch_uploads", "true"))
	require.NoError(t, c.Set("na_values", "NA, -"))
	require.NoError(t, Save(c, path))

	got, err := LoadWithEnv(path, "")
	require.NoError(t, err)
	assert.Equal(t, c, got)
	assert.Equal(t, []string{"NA", "-"}, got.NAValues)
}

func TestSet(t *testing.T) {
	var c Global
	require.NoError(t, c.Set("datetime_required_success", "0.8"))
	assert.Equal(t, 0.8, c.DatetimeRequiredSuccess)
	require.NoError(t, c.Set("log_level", "DEBUG"))
	assert.Equal(t, "debug", c.LogLevel)

	for key, val := range map[string]string{
		"max_attempts":              "0",
		"poll_interval_sec":         "soon",
		"max_categories":            "1",
		"datetime_required_success": "1.5",
		"exclusive_claim":           "maybe",
		"log_level":                 "loud",
		"api_key":                   "x",
	} {
		assert.Error(t, c.Set(key, val), key)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	base, err := LoadWithEnv(filepath.Join(t.TempDir(), "none.yaml"), "")
	require.NoError(t, err)

	cases := map[string]func(*Global){
		"poll":     func(c *Global) { c.PollIntervalSec = 0 },
		"attempts": func(c *Global) { c.MaxAttempts = 0 },
		"backoff":  func(c *Global) { c.RetryBackoffSec = -1 },
		"cats":     func(c *Global) { c.MaxCategories = 1 },
		"top":      func(c *Global) { c.TopDatetime = -1 },
		"sample":   func(c *Global) { c.DatetimeSampleSize = 0 },
		"success":  func(c *Global) { c.DatetimeRequiredSuccess = 0 },
		"root":     func(c *Global) { c.StorageRoot = "" },
	}
	for name, mutate := range cases {
		c := *base
		mutate(&c)
		assert.Error(t, c.Validate(), name)
	}
}
