package vision

import (
	"fmt"
	"time"

	"gocv.io/x/gocv"
)

// Frame is one camera frame plus its acquisition metadata. The Mat is an
// 8-bit 3-channel BGR image owned by the frame; Close releases it. Frames
// must be built by a frame source or FrameFromBytes, never as zero values.
type Frame struct {
	Mat        gocv.Mat
	Seq        uint64
	CapturedAt time.Time
}

// FrameFromBytes wraps a raw BGR24 buffer (row-major, height*width*3 bytes)
// in a Frame. An empty buffer produces an empty frame, which the pipeline
// treats as a no-op rather than an error.
func FrameFromBytes(data []byte, width, height int, seq uint64, capturedAt time.Time) (Frame, error) {
	if len(data) == 0 {
		return Frame{Mat: gocv.NewMat(), Seq: seq, CapturedAt: capturedAt}, nil
	}
	if want := width * height * 3; len(data) != want {
		return Frame{}, fmt.Errorf("frame buffer is %d bytes, want %d for %dx%d bgr24",
			len(data), want, width, height)
	}
	mat, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC3, data)
	if err != nil {
		return Frame{}, fmt.Errorf("wrapping frame buffer: %w", err)
	}
	return Frame{Mat: mat, Seq: seq, CapturedAt: capturedAt}, nil
}

// Empty reports whether the frame carries no pixels.
func (f Frame) Empty() bool {
	return f.Mat.Empty()
}

// Close releases the underlying image buffer.
func (f Frame) Close() {
	f.Mat.Close()
}
