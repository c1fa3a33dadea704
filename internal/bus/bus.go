// Package bus connects the vision daemon to the robot's NATS bus. Detection
// bundles go out once per frame; a small control surface comes back in, so
// the strategy process can force a mirror redetect after repositioning the
// robot.
package bus

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/TajGordon/rcj-nats-sub000/internal/vision"
)

// Config names the NATS endpoint and subjects.
type Config struct {
	URL string `json:"url"`

	// Subject carries one JSON DetectionBundle per processed frame.
	Subject string `json:"subject"`

	// ControlSubject is the prefix for inbound commands; the daemon
	// listens on "<prefix>.redetect".
	ControlSubject string `json:"control_subject"`
}

// DefaultConfig points at a local NATS server with the robot's standard
// subjects.
func DefaultConfig() Config {
	return Config{
		URL:            nats.DefaultURL,
		Subject:        "vision.detections",
		ControlSubject: "vision.control",
	}
}

// Conn is an established bus connection.
type Conn struct {
	nc  *nats.Conn
	cfg Config
	log *slog.Logger
	sub *nats.Subscription
}

// Connect dials the bus. Reconnects are unbounded: matches go on even when
// the bus hiccups, and detections resume as soon as it is back.
func Connect(cfg Config, log *slog.Logger) (*Conn, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("visiond"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("bus disconnected", slog.Any("error", err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("bus reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to bus at %s: %w", cfg.URL, err)
	}
	log.Info("bus connected", slog.String("url", cfg.URL), slog.String("subject", cfg.Subject))
	return &Conn{nc: nc, cfg: cfg, log: log}, nil
}

// PublishBundle sends one detection bundle. Publishing is fire-and-forget;
// the client buffers during short outages.
func (c *Conn) PublishBundle(b vision.DetectionBundle) error {
	data, err := marshalBundle(b)
	if err != nil {
		return err
	}
	if err := c.nc.Publish(c.cfg.Subject, data); err != nil {
		return fmt.Errorf("publishing bundle: %w", err)
	}
	return nil
}

// OnRedetect invokes fn for every redetect command. The handler runs on the
// NATS delivery goroutine; fn must be safe to call from there.
func (c *Conn) OnRedetect(fn func()) error {
	subject := c.cfg.ControlSubject + ".redetect"
	sub, err := c.nc.Subscribe(subject, func(_ *nats.Msg) {
		c.log.Info("redetect requested over bus")
		fn()
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", subject, err)
	}
	c.sub = sub
	return nil
}

// Close drains the connection, flushing buffered publishes.
func (c *Conn) Close() {
	if c.sub != nil {
		c.sub.Unsubscribe()
	}
	c.nc.Drain()
}

func marshalBundle(b vision.DetectionBundle) ([]byte, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encoding bundle: %w", err)
	}
	return data, nil
}
