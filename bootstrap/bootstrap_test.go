package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acrossfc/adapters/jsonfile"
	mem "acrossfc/adapters/memory"
	"acrossfc/config"
)

func TestBuildAppMemory(t *testing.T) {
	cfg, err := config.ProfileDefaults("testing")
	require.NoError(t, err)
	cfg.Metrics.Enabled = true

	app, cleanup, err := BuildApp(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	assert.IsType(t, &mem.Store{}, app.Store)
	assert.Equal(t, cfg.Server.Address, app.Server.Addr)
	assert.Equal(t, "6_4", string(app.Service.Tier()))

	rec := httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, app.Stats)
	rec = httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/categories", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"categories":[]`)
}

func TestBuildAppUnknownTier(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.FC.Tier = "1_0"
	_, _, err := BuildApp(context.Background(), cfg)
	require.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.json")
	s, cleanup, err := OpenStore(context.Background(), config.StorageConfig{Adapter: "file", File: config.FileConfig{Path: path}})
	require.NoError(t, err)
	defer cleanup()
	assert.IsType(t, &jsonfile.Store{}, s)

	_, _, err = OpenStore(context.Background(), config.StorageConfig{Adapter: "mongo"})
	require.Error(t, err)
}

func TestSetupLoggingFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "acrossfc.log")
	logger, closer := SetupLogging(config.LoggingConfig{
		Level:      "warn",
		Format:     "text",
		Output:     "file",
		File:       config.LogFileConfig{Path: path, MaxSizeMB: 1},
		Attributes: map[string]string{"service": "acrossfc"},
	})
	logger.Info("hidden")
	logger.Warn("shown", "member", 1)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=shown")
	assert.Contains(t, string(data), "service=acrossfc")
	assert.NotContains(t, string(data), "hidden")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, slog.LevelError, ParseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("verbose"))
}
