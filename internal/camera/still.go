package camera

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"time"

	"gocv.io/x/gocv"

	_ "golang.org/x/image/tiff"

	"github.com/TajGordon/rcj-nats-sub000/internal/vision"
)

// Still replays a single image as a frame source. With looping enabled it
// serves the image forever, which is handy for running the full daemon
// against a captured field photo; otherwise it serves the image once and
// then reports io.EOF.
type Still struct {
	mat    gocv.Mat
	seq    uint64
	loop   bool
	served bool
	closed bool
}

// OpenStill loads an image file (PNG, JPEG or TIFF) as a replay source.
func OpenStill(path string, loop bool) (*Still, error) {
	mat, err := LoadMat(path)
	if err != nil {
		return nil, err
	}
	return &Still{mat: mat, loop: loop}, nil
}

// NewStillFromMat wraps a copy of the given Mat as a replay source.
func NewStillFromMat(mat gocv.Mat, loop bool) *Still {
	return &Still{mat: mat.Clone(), loop: loop}
}

// Next returns a copy of the still image, or io.EOF once a non-looping
// source is exhausted.
func (s *Still) Next(ctx context.Context) (vision.Frame, error) {
	select {
	case <-ctx.Done():
		return vision.Frame{}, ctx.Err()
	default:
	}
	if s.closed {
		return vision.Frame{}, ErrClosed
	}
	if s.served && !s.loop {
		return vision.Frame{}, io.EOF
	}
	s.served = true
	s.seq++
	return vision.Frame{Mat: s.mat.Clone(), Seq: s.seq, CapturedAt: time.Now()}, nil
}

// Close releases the source image.
func (s *Still) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.mat.Close()
	return nil
}

// LoadMat reads an image file into a BGR Mat.
func LoadMat(path string) (gocv.Mat, error) {
	file, err := os.Open(path)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("opening image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	return matFromImage(img), nil
}

// matFromImage converts a Go image.Image to an 8-bit BGR Mat.
func matFromImage(srcImg image.Image) gocv.Mat {
	bounds := srcImg.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := srcImg.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// 16-bit samples down to 8-bit, BGR order for OpenCV.
			mat.SetUCharAt(y, x*3+0, uint8(b>>8))
			mat.SetUCharAt(y, x*3+1, uint8(g>>8))
			mat.SetUCharAt(y, x*3+2, uint8(r>>8))
		}
	}
	return mat
}
