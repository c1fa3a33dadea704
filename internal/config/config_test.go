package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TajGordon/rcj-nats-sub000/internal/vision"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vision.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"camera": {"device": 2, "width": 1280, "height": 960, "fps": 60},
		"detection": {"mirror": {"method": "contour", "min_radius": 100,
			"max_radius": 300, "hough_dp": 1.2, "hough_param1": 100,
			"hough_param2": 30, "canny_low": 50, "canny_high": 150,
			"detection_interval": 30, "fallback_radius": 200,
			"fallback_center": {"x": 640, "y": 480}}},
		"stream": {"addr": ":9090"}
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Camera.Device)
	assert.Equal(t, 1280, cfg.Camera.Width)
	assert.Equal(t, ":9090", cfg.Stream.Addr)
	assert.Equal(t, vision.MirrorContour, cfg.Detection.Mirror.Method)

	// Untouched sections keep their defaults.
	assert.Equal(t, Default().Bus, cfg.Bus)
	assert.Equal(t, Default().Detection.Ball, cfg.Detection.Ball)
	require.NoError(t, cfg.Validate())
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("VISIOND_NATS_URL", "nats://robot:4222")
	t.Setenv("VISIOND_STREAM_ADDR", ":7000")
	t.Setenv("VISIOND_CAMERA_DEVICE", "3")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "nats://robot:4222", cfg.Bus.URL)
	assert.Equal(t, ":7000", cfg.Stream.Addr)
	assert.Equal(t, 3, cfg.Camera.Device)
}

func TestApplyEnvRejectsBadDevice(t *testing.T) {
	t.Setenv("VISIOND_CAMERA_DEVICE", "front")

	cfg := Default()
	assert.Error(t, cfg.ApplyEnv())
}

func TestValidateCatchesBadDetection(t *testing.T) {
	cfg := Default()
	cfg.Detection.Mirror.MinRadius = 0
	assert.Error(t, cfg.Validate())
}
