package camera

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gocv.io/x/gocv"

	"github.com/TajGordon/rcj-nats-sub000/internal/vision"
)

// CaptureOptions selects and configures the camera device. Zero width,
// height or FPS leave the driver defaults in place.
type CaptureOptions struct {
	Device int
	Width  int
	Height int
	FPS    float64
}

// Capture reads frames from a V4L2 camera device.
type Capture struct {
	cap    *gocv.VideoCapture
	buf    gocv.Mat
	seq    uint64
	log    *slog.Logger
	closed bool
}

// OpenCapture opens the camera device and applies the requested format.
func OpenCapture(opts CaptureOptions, log *slog.Logger) (*Capture, error) {
	cap, err := gocv.OpenVideoCapture(opts.Device)
	if err != nil {
		return nil, fmt.Errorf("opening camera %d: %w", opts.Device, err)
	}
	if opts.Width > 0 {
		cap.Set(gocv.VideoCaptureFrameWidth, float64(opts.Width))
	}
	if opts.Height > 0 {
		cap.Set(gocv.VideoCaptureFrameHeight, float64(opts.Height))
	}
	if opts.FPS > 0 {
		cap.Set(gocv.VideoCaptureFPS, opts.FPS)
	}

	log.Info("camera opened",
		slog.Int("device", opts.Device),
		slog.Int("width", int(cap.Get(gocv.VideoCaptureFrameWidth))),
		slog.Int("height", int(cap.Get(gocv.VideoCaptureFrameHeight))),
		slog.Float64("fps", cap.Get(gocv.VideoCaptureFPS)))

	return &Capture{cap: cap, buf: gocv.NewMat(), log: log}, nil
}

// Next reads the next frame. Empty grabs are retried; a failed read means
// the device is gone and is returned as an error.
func (c *Capture) Next(ctx context.Context) (vision.Frame, error) {
	for {
		select {
		case <-ctx.Done():
			return vision.Frame{}, ctx.Err()
		default:
		}
		if c.closed {
			return vision.Frame{}, ErrClosed
		}
		if ok := c.cap.Read(&c.buf); !ok {
			return vision.Frame{}, fmt.Errorf("camera %w", ErrClosed)
		}
		if c.buf.Empty() {
			continue
		}
		c.seq++
		return vision.Frame{Mat: c.buf.Clone(), Seq: c.seq, CapturedAt: time.Now()}, nil
	}
}

// Close releases the device and the read buffer.
func (c *Capture) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.buf.Close()
	return c.cap.Close()
}
