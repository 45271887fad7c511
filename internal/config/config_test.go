package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "MODEL_PATH", "DETECTOR_BACKEND", "CONF_THRESHOLD", "HISTORY_DB", "SESSION_TTL", "MAX_PIXELS", "LOGS_ALLOW_REMOTE"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, filepath.Join("models", "best.onnx"), cfg.ModelPath)
	assert.Equal(t, BackendOpenCV, cfg.Backend)
	assert.InDelta(t, 0.25, cfg.ConfThreshold, 1e-6)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Empty(t, cfg.HistoryDB)
	assert.Equal(t, int64(50_000_000), cfg.MaxPixels)
	assert.False(t, cfg.LogsAllowRemote)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MODEL_PATH", "/srv/models/cars.onnx")
	t.Setenv("DETECTOR_BACKEND", BackendONNXRuntime)
	t.Setenv("CONF_THRESHOLD", "0.4")
	t.Setenv("MAX_UPLOAD_MB", "5")
	t.Setenv("SESSION_TTL", "90s")
	t.Setenv("MAX_PIXELS", "1000000")
	t.Setenv("LOGS_ALLOW_REMOTE", "true")

	cfg := Load()

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "/srv/models/cars.onnx", cfg.ModelPath)
	assert.Equal(t, BackendONNXRuntime, cfg.Backend)
	assert.InDelta(t, 0.4, cfg.ConfThreshold, 1e-6)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 90*time.Second, cfg.SessionTTL)
	assert.Equal(t, int64(1_000_000), cfg.MaxPixels)
	assert.True(t, cfg.LogsAllowRemote)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("PORT", "eighty")
	t.Setenv("IOU_THRESHOLD", "high")
	t.Setenv("SESSION_TTL", "soon")
	t.Setenv("LOGS_ALLOW_REMOTE", "sometimes")

	cfg := Load()

	assert.False(t, cfg.LogsAllowRemote)
	assert.Equal(t, 8080, cfg.Port)
	assert.InDelta(t, 0.7, cfg.IouThreshold, 1e-6)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
}
