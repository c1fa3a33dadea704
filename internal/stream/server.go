// Package stream serves the annotated camera feed over HTTP so the robot
// can be watched from a laptop during matches. One MJPEG endpoint streams
// continuously; a snapshot endpoint returns the latest frame for quick
// checks and scripts.
package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
)

// Config controls the HTTP listener and the preview encoding.
type Config struct {
	Addr string `json:"addr"`

	// PreviewWidth downscales published frames to this width before
	// encoding. Zero publishes at native size.
	PreviewWidth int `json:"preview_width"`

	// Quality is the JPEG quality, 1-100. Zero means 80.
	Quality int `json:"quality"`
}

type snapshot struct {
	jpeg []byte
	seq  uint64
}

// Server is the debug video server. Publish may be called from the capture
// loop while handlers stream concurrently; the latest frame is swapped in
// atomically and slow clients only ever skip frames, never block capture.
type Server struct {
	cfg    Config
	log    *slog.Logger
	latest atomic.Pointer[snapshot]
	seq    atomic.Uint64
	srv    *http.Server
}

// NewServer builds the server; Start brings up the listener.
func NewServer(cfg Config, log *slog.Logger) *Server {
	if cfg.Quality <= 0 {
		cfg.Quality = 80
	}
	s := &Server{cfg: cfg, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/stream", s.handleStream)
	mux.HandleFunc("/snapshot.jpg", s.handleSnapshot)
	s.srv = &http.Server{Addr: cfg.Addr, Handler: mux}
	return s
}

// Publish encodes and swaps in a new frame for the stream.
func (s *Server) Publish(img image.Image) error {
	if s.cfg.PreviewWidth > 0 && img.Bounds().Dx() > s.cfg.PreviewWidth {
		img = imaging.Resize(img, s.cfg.PreviewWidth, 0, imaging.Linear)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.cfg.Quality}); err != nil {
		return fmt.Errorf("encoding preview frame: %w", err)
	}
	s.latest.Store(&snapshot{jpeg: buf.Bytes(), seq: s.seq.Add(1)})
	return nil
}

// Start brings up the listener in the background.
func (s *Server) Start() {
	go func() {
		s.log.Info("stream server listening", slog.String("addr", s.cfg.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("stream server failed", slog.Any("error", err))
		}
	}()
}

// Shutdown stops the listener, waiting for handlers up to the ctx deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<!doctype html>
<title>robot vision</title>
<body style="margin:0;background:#111;color:#eee;font-family:monospace">
<p style="margin:4px">vision debug stream</p>
<img src="/stream" style="max-width:100%">
</body>`)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	snap := s.latest.Load()
	if snap == nil {
		http.Error(w, "no frame yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(snap.jpeg)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ticker := time.NewTicker(40 * time.Millisecond)
	defer ticker.Stop()

	var lastSeq uint64
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		snap := s.latest.Load()
		if snap == nil || snap.seq == lastSeq {
			continue
		}
		lastSeq = snap.seq

		if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(snap.jpeg)); err != nil {
			return
		}
		if _, err := w.Write(snap.jpeg); err != nil {
			return
		}
		if _, err := fmt.Fprint(w, "\r\n"); err != nil {
			return
		}
		flusher.Flush()
	}
}
