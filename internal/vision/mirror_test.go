package vision

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	"gocv.io/x/gocv"

	"github.com/TajGordon/rcj-nats-sub000/pkg/geometry"
)

func TestMirrorTrackerHoughDetectsCircle(t *testing.T) {
	frame := newTestFrame(t, 640, 480)
	drawDisk(&frame, 320, 240, 150, mirrorWhite)

	cfg := testConfig(640, 480).Mirror
	cfg.Method = MirrorHough
	tr := newMirrorTracker(cfg)
	defer tr.Close()

	tr.Update(frame)

	c, ok := tr.Circle()
	require.True(t, ok)
	require.InDelta(t, 320, c.Center.X, 5)
	require.InDelta(t, 240, c.Center.Y, 5)
	require.InDelta(t, 150, c.Radius, 5)
}

func TestMirrorTrackerContourDetectsCircle(t *testing.T) {
	frame := newTestFrame(t, 640, 480)
	drawDisk(&frame, 320, 240, 150, mirrorWhite)

	cfg := testConfig(640, 480).Mirror
	cfg.Method = MirrorContour
	tr := newMirrorTracker(cfg)
	defer tr.Close()

	tr.Update(frame)

	require.True(t, tr.Detected())
	c, _ := tr.Circle()
	require.InDelta(t, 320, c.Center.X, 2)
	require.InDelta(t, 240, c.Center.Y, 2)
	require.InDelta(t, 150, c.Radius, 2)

	// Crop is the circle's bounding box clamped to the frame, and the
	// local center is the circle center shifted by the crop origin.
	crop := tr.CropRect()
	require.Equal(t, c.Bounds(), crop)
	require.Equal(t, c.Center.X-crop.Min.X, tr.LocalCenter().X)
	require.Equal(t, c.Center.Y-crop.Min.Y, tr.LocalCenter().Y)
}

func TestMirrorTrackerClampsCropToFrame(t *testing.T) {
	// Circle partially off the left edge: bounding box must clamp and the
	// local center must shift accordingly.
	frame := newTestFrame(t, 640, 480)
	drawDisk(&frame, 90, 240, 120, mirrorWhite)

	cfg := testConfig(640, 480).Mirror
	cfg.Method = MirrorContour
	tr := newMirrorTracker(cfg)
	defer tr.Close()

	tr.Update(frame)

	require.True(t, tr.Detected())
	crop := tr.CropRect()
	require.Equal(t, 0, crop.Min.X)
	require.GreaterOrEqual(t, crop.Min.Y, 0)

	c, _ := tr.Circle()
	require.Equal(t, c.Center.X, tr.LocalCenter().X) // crop.Min.X == 0
}

func TestMirrorTrackerRejectsLowCircularity(t *testing.T) {
	// A 2.5:1 rectangle scores about 0.64, under the 0.7 circularity gate.
	frame := newTestFrame(t, 640, 480)
	drawBox(&frame, 170, 180, 300, 120, mirrorWhite)

	cfg := testConfig(640, 480).Mirror
	cfg.Method = MirrorContour
	tr := newMirrorTracker(cfg)
	defer tr.Close()

	tr.Update(frame)

	require.False(t, tr.Detected())
}

func TestMirrorTrackerPersistsAcrossFailures(t *testing.T) {
	good := newTestFrame(t, 640, 480)
	drawDisk(&good, 320, 240, 150, mirrorWhite)
	dark := newTestFrame(t, 640, 480)

	cfg := testConfig(640, 480).Mirror
	cfg.Method = MirrorContour
	cfg.DetectionInterval = 1 // attempt on every frame
	tr := newMirrorTracker(cfg)
	defer tr.Close()

	tr.Update(good)
	adopted, ok := tr.Circle()
	require.True(t, ok)
	crop := tr.CropRect()
	local := tr.LocalCenter()

	// Losing the mirror must never discard the track.
	for i := 0; i < 5; i++ {
		tr.Update(dark)
		c, ok := tr.Circle()
		require.True(t, ok)
		require.Equal(t, adopted, c)
		require.Equal(t, crop, tr.CropRect())
		require.Equal(t, local, tr.LocalCenter())
	}
}

func TestMirrorTrackerFallbackBeforeFirstDetection(t *testing.T) {
	dark := newTestFrame(t, 640, 480)

	cfg := testConfig(640, 480).Mirror
	cfg.Method = MirrorContour
	tr := newMirrorTracker(cfg)
	defer tr.Close()

	tr.Update(dark)

	// The fallback region feeds crop and center but never counts as a
	// detection.
	require.False(t, tr.Detected())
	_, ok := tr.Circle()
	require.False(t, ok)
	require.Equal(t, image.Rect(0, 0, 640, 480), tr.CropRect())
	require.Equal(t, cfg.FallbackCenter, tr.LocalCenter())
}

func TestMirrorTrackerDetectionInterval(t *testing.T) {
	first := newTestFrame(t, 640, 480)
	drawDisk(&first, 320, 240, 150, mirrorWhite)
	moved := newTestFrame(t, 640, 480)
	drawDisk(&moved, 220, 240, 120, mirrorWhite)

	cfg := testConfig(640, 480).Mirror
	cfg.Method = MirrorContour
	cfg.DetectionInterval = 30
	tr := newMirrorTracker(cfg)
	defer tr.Close()

	tr.Update(first)
	c, _ := tr.Circle()
	require.InDelta(t, 320, c.Center.X, 2)

	// The moved mirror is ignored until the interval elapses.
	for i := 0; i < 29; i++ {
		tr.Update(moved)
		c, _ = tr.Circle()
		require.InDelta(t, 320, c.Center.X, 2)
	}

	tr.Update(moved)
	c, _ = tr.Circle()
	require.InDelta(t, 220, c.Center.X, 2)
	require.InDelta(t, 120, c.Radius, 2)
}

func TestMirrorTrackerReset(t *testing.T) {
	frame := newTestFrame(t, 640, 480)
	drawDisk(&frame, 320, 240, 150, mirrorWhite)
	moved := newTestFrame(t, 640, 480)
	drawDisk(&moved, 220, 240, 120, mirrorWhite)

	cfg := testConfig(640, 480).Mirror
	cfg.Method = MirrorContour
	cfg.DetectionInterval = 1000
	tr := newMirrorTracker(cfg)
	defer tr.Close()

	tr.Update(frame)
	require.True(t, tr.Detected())

	tr.Update(moved)
	c, _ := tr.Circle()
	require.InDelta(t, 320, c.Center.X, 2) // interval far from elapsed

	tr.Reset()
	require.False(t, tr.Detected())

	tr.Update(moved)
	c, ok := tr.Circle()
	require.True(t, ok)
	require.InDelta(t, 220, c.Center.X, 2)
}

func TestMirrorTrackerCropBeforeUpdate(t *testing.T) {
	frame := newTestFrame(t, 320, 240)
	tr := newMirrorTracker(testConfig(320, 240).Mirror)
	defer tr.Close()

	cropped := tr.Crop(frame)
	defer cropped.Close()
	require.Equal(t, 320, cropped.Cols())
	require.Equal(t, 240, cropped.Rows())
}

func TestMirrorTrackerCropUsesBoundingBox(t *testing.T) {
	frame := newTestFrame(t, 640, 480)
	drawDisk(&frame, 320, 240, 150, mirrorWhite)

	cfg := testConfig(640, 480).Mirror
	cfg.Method = MirrorContour
	tr := newMirrorTracker(cfg)
	defer tr.Close()

	tr.Update(frame)
	c, _ := tr.Circle()

	cropped := tr.Crop(frame)
	defer cropped.Close()
	require.Equal(t, c.Bounds().Dx(), cropped.Cols())
	require.Equal(t, c.Bounds().Dy(), cropped.Rows())
}

func TestMirrorTrackerApplyMask(t *testing.T) {
	frame := newTestFrame(t, 640, 480)
	drawDisk(&frame, 320, 240, 150, mirrorWhite)

	cfg := testConfig(640, 480).Mirror
	cfg.Method = MirrorContour
	tr := newMirrorTracker(cfg)
	defer tr.Close()
	tr.Update(frame)

	gray := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(90, 90, 90, 0),
		480, 640, gocv.MatTypeCV8UC3)
	defer gray.Close()

	masked := tr.ApplyMask(gray)
	defer masked.Close()

	require.Equal(t, uint8(90), masked.GetUCharAt(240, 320*3))   // inside
	require.Equal(t, uint8(0), masked.GetUCharAt(10, 10*3))      // outside
	require.Equal(t, uint8(0), masked.GetUCharAt(470, 630*3+1))  // far corner
	require.Equal(t, uint8(90), masked.GetUCharAt(240, 200*3+2)) // inside, left of center
}

func TestMirrorTrackerApplyMaskBeforeUpdate(t *testing.T) {
	tr := newMirrorTracker(testConfig(100, 100).Mirror)
	defer tr.Close()

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(7, 7, 7, 0),
		100, 100, gocv.MatTypeCV8UC3)
	defer img.Close()

	out := tr.ApplyMask(img)
	defer out.Close()
	require.Equal(t, uint8(7), out.GetUCharAt(50, 50*3))
}

func TestMirrorTrackerIgnoresEmptyFrame(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()

	tr := newMirrorTracker(testConfig(100, 100).Mirror)
	defer tr.Close()

	tr.Update(empty)
	require.False(t, tr.Detected())
	require.Equal(t, geometry.PointInt{}, tr.LocalCenter())
}
