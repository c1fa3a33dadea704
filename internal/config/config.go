// Package config loads the vision daemon's configuration: a JSON file
// merged over built-in defaults, with a few operational settings
// overridable through the environment for quick changes at the field table.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/TajGordon/rcj-nats-sub000/internal/bus"
	"github.com/TajGordon/rcj-nats-sub000/internal/camera"
	"github.com/TajGordon/rcj-nats-sub000/internal/stream"
	"github.com/TajGordon/rcj-nats-sub000/internal/telemetry"
	"github.com/TajGordon/rcj-nats-sub000/internal/vision"
)

// CameraConfig selects the capture device and format.
type CameraConfig struct {
	Device int     `json:"device"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	FPS    float64 `json:"fps"`
}

// CaptureOptions converts to the camera package's option struct.
func (c CameraConfig) CaptureOptions() camera.CaptureOptions {
	return camera.CaptureOptions{Device: c.Device, Width: c.Width, Height: c.Height, FPS: c.FPS}
}

// TelemetryConfig sets the stats reporting cadence, in seconds so the JSON
// stays human-editable.
type TelemetryConfig struct {
	ReportSeconds float64 `json:"report_seconds"`
}

// MonitorConfig converts to the telemetry package's config.
func (c TelemetryConfig) MonitorConfig() telemetry.Config {
	return telemetry.Config{ReportInterval: time.Duration(c.ReportSeconds * float64(time.Second))}
}

// Config is the full daemon configuration tree.
type Config struct {
	Camera    CameraConfig           `json:"camera"`
	Detection vision.DetectionConfig `json:"detection"`
	Stream    stream.Config          `json:"stream"`
	Bus       bus.Config             `json:"bus"`
	Telemetry TelemetryConfig        `json:"telemetry"`
}

// Default returns the competition-robot configuration.
func Default() Config {
	return Config{
		Camera:    CameraConfig{Device: 0, Width: 640, Height: 480, FPS: 30},
		Detection: vision.DefaultDetectionConfig(),
		Stream:    stream.Config{Addr: ":8080", PreviewWidth: 640, Quality: 80},
		Bus:       bus.DefaultConfig(),
		Telemetry: TelemetryConfig{ReportSeconds: 5},
	}
}

// Load reads a JSON config file over the defaults. An empty path or a
// missing file yields the defaults unchanged; any present file must parse.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides operational settings from the environment. Detection
// tuning is deliberately file-only; only deployment knobs move this way.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("VISIOND_NATS_URL"); v != "" {
		c.Bus.URL = v
	}
	if v := os.Getenv("VISIOND_STREAM_ADDR"); v != "" {
		c.Stream.Addr = v
	}
	if v := os.Getenv("VISIOND_CAMERA_DEVICE"); v != "" {
		device, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("VISIOND_CAMERA_DEVICE: %w", err)
		}
		c.Camera.Device = device
	}
	return nil
}

// Validate checks every construction-time invariant in the tree.
func (c Config) Validate() error {
	if c.Camera.Device < 0 {
		return fmt.Errorf("camera device %d invalid", c.Camera.Device)
	}
	if c.Stream.Addr == "" {
		return fmt.Errorf("stream addr empty")
	}
	if c.Telemetry.ReportSeconds < 0 {
		return fmt.Errorf("telemetry report_seconds negative")
	}
	if err := c.Detection.Validate(); err != nil {
		return fmt.Errorf("detection: %w", err)
	}
	return nil
}
