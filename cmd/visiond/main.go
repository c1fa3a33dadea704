// Command visiond is the robot's vision daemon: it reads camera frames,
// runs the detection pipeline, publishes detection bundles on the NATS bus
// and serves an annotated MJPEG debug stream.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/TajGordon/rcj-nats-sub000/internal/bus"
	"github.com/TajGordon/rcj-nats-sub000/internal/camera"
	"github.com/TajGordon/rcj-nats-sub000/internal/config"
	"github.com/TajGordon/rcj-nats-sub000/internal/overlay"
	"github.com/TajGordon/rcj-nats-sub000/internal/stream"
	"github.com/TajGordon/rcj-nats-sub000/internal/telemetry"
	"github.com/TajGordon/rcj-nats-sub000/internal/version"
	"github.com/TajGordon/rcj-nats-sub000/internal/vision"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config file (defaults apply if missing)")
	stillPath := flag.String("still", "", "Replay a still image instead of opening the camera")
	noBus := flag.Bool("no-bus", false, "Run without the NATS bus (bench mode)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn or error")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("visiond", version.String())
		return
	}

	if err := run(*configPath, *stillPath, *noBus, *logLevel); err != nil {
		fmt.Fprintln(os.Stderr, "visiond:", err)
		os.Exit(1)
	}
}

func run(configPath, stillPath string, noBus bool, logLevel string) error {
	log := newLogger(logLevel)
	log.Info("visiond starting", slog.String("version", version.String()))

	// A .env next to the binary carries per-robot operational settings.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn("could not load .env", slog.Any("error", err))
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	pipe, err := vision.NewPipeline(cfg.Detection)
	if err != nil {
		return err
	}
	defer pipe.Close()

	src, err := openSource(cfg, stillPath, log)
	if err != nil {
		return err
	}
	defer src.Close()

	// Redetect requests arrive on a NATS goroutine; the capture loop picks
	// the flag up at the next frame since the pipeline is single-threaded.
	var redetect atomic.Bool

	var conn *bus.Conn
	if noBus {
		log.Info("bus disabled, running standalone")
	} else {
		conn, err = bus.Connect(cfg.Bus, log)
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := conn.OnRedetect(func() { redetect.Store(true) }); err != nil {
			return err
		}
	}

	server := stream.NewServer(cfg.Stream, log)
	server.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	renderer := overlay.NewRenderer(cfg.Detection, overlay.DefaultOptions())
	monitor := telemetry.NewMonitor(cfg.Telemetry.MonitorConfig(), log)
	defer monitor.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("entering capture loop")
	for {
		frame, err := src.Next(ctx)
		if err != nil {
			switch {
			case errors.Is(err, context.Canceled):
				log.Info("shutting down")
				return nil
			case errors.Is(err, io.EOF):
				log.Info("source exhausted")
				return nil
			default:
				return fmt.Errorf("reading frame: %w", err)
			}
		}

		if redetect.Swap(false) {
			pipe.Redetect()
		}

		start := time.Now()
		bundle := pipe.Process(frame, vision.AllDetections())
		monitor.Observe(time.Since(start))

		if conn != nil {
			if err := conn.PublishBundle(bundle); err != nil {
				log.Warn("publish failed", slog.Any("error", err))
			}
		}

		publishPreview(server, renderer, frame, bundle, pipe, log)
		frame.Close()
	}
}

func publishPreview(server *stream.Server, renderer *overlay.Renderer,
	frame vision.Frame, bundle vision.DetectionBundle, pipe *vision.Pipeline, log *slog.Logger) {

	canvas := renderer.Render(frame.Mat, bundle, pipe)
	defer canvas.Close()

	img, err := canvas.ToImage()
	if err != nil {
		log.Warn("preview conversion failed", slog.Any("error", err))
		return
	}
	if err := server.Publish(img); err != nil {
		log.Warn("preview publish failed", slog.Any("error", err))
	}
}

func openSource(cfg config.Config, stillPath string, log *slog.Logger) (camera.Source, error) {
	if stillPath != "" {
		log.Info("replaying still image", slog.String("path", stillPath))
		return camera.OpenStill(stillPath, true)
	}
	return camera.OpenCapture(cfg.Camera.CaptureOptions(), log)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
