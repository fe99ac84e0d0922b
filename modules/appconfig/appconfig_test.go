package appconfig

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewsvc/core/view/domain"
	"viewsvc/modules/middleware/ratelimit"
	rl "viewsvc/modules/ratelimit"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, rl.AlgorithmFixedWindow, cfg.RateLimit.Algorithm)
	assert.Equal(t, ratelimit.MemoryStore, cfg.RateLimit.Store)
	assert.Equal(t, domain.Options{}, cfg.View)
	assert.True(t, cfg.Otel.Disabled)
}

func TestLoad_ViewFromEnv(t *testing.T) {
	t.Setenv("VIEW_ROOT_PATH", "/srv/app")
	t.Setenv("VIEW_VIEW_PATH", "app")
	t.Setenv("VIEW_NAME", "home")
	t.Setenv("VIEW_DATA", `{"title":"Home"}`)
	t.Setenv("VIEW_LIMIT_MAX", "10")
	t.Setenv("VIEW_LIMIT_WINDOW_MS", "30000")
	t.Setenv("VIEW_LOAD_TIMEOUT", "2s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/app", cfg.View.RootPath)
	assert.Equal(t, "app", cfg.View.ViewPath)
	assert.Equal(t, "home", cfg.View.View)
	assert.Equal(t, domain.Data{"title": "Home"}, cfg.View.Data)
	assert.Equal(t, domain.LimitPolicy{Max: 10, WindowMs: 30000}, cfg.View.Limit)
	assert.Equal(t, 2*time.Second, cfg.View.LoadTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoad_DataMustBeObject(t *testing.T) {
	t.Setenv("VIEW_DATA", `"just a string"`)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_OptionsFileUnderEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"clientPath": "dist",
		"index": "app.html",
		"redirect": "/oops",
		"data": {"from": "file"},
		"limit": {"max": 5}
	}`), 0o600))
	t.Setenv("VIEW_OPTIONS_FILE", path)
	t.Setenv("VIEW_REDIRECT", "/maintenance")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dist", cfg.View.ClientPath)
	assert.Equal(t, "app.html", cfg.View.Index)
	assert.Equal(t, "/maintenance", cfg.View.Redirect)
	assert.Equal(t, domain.Data{"from": "file"}, cfg.View.Data)
	assert.Equal(t, int64(5), cfg.View.Limit.Max)
}

func TestLoad_OptionsFileErrors(t *testing.T) {
	dir := t.TempDir()
	badType := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badType, []byte(`{"clientPath": 7}`), 0o600))

	for name, path := range map[string]string{
		"wrong type": badType,
		"missing":    filepath.Join(dir, "nope.json"),
	} {
		t.Run(name, func(t *testing.T) {
			t.Setenv("VIEW_OPTIONS_FILE", path)

			_, err := Load()
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	for name, vars := range map[string]map[string]string{
		"unknown store":        {"RATE_LIMIT_STORE": "memcached"},
		"unknown key strategy": {"RATE_LIMIT_KEY_STRATEGY": "cookie"},
		"blank host":           {"SERVER_HOST": " "},
	} {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
