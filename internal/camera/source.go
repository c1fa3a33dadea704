// Package camera provides frame sources for the vision pipeline: the live
// robot camera and a still-image replay source for bench work. Sources hand
// out owned frames; the caller closes each frame after processing it.
package camera

import (
	"context"
	"errors"

	"github.com/TajGordon/rcj-nats-sub000/internal/vision"
)

// ErrClosed is returned by Next after a source has been closed.
var ErrClosed = errors.New("camera: source closed")

// Source produces frames in capture order. Implementations are not safe for
// concurrent Next calls; the acquisition loop is single-threaded.
type Source interface {
	// Next blocks until a frame is available or ctx is done. The caller
	// owns the returned frame and must close it.
	Next(ctx context.Context) (vision.Frame, error)
	Close() error
}
