package vision

import (
	"image"
	"image/color"
	"testing"

	"gocv.io/x/gocv"

	"github.com/TajGordon/rcj-nats-sub000/pkg/colorutil"
	"github.com/TajGordon/rcj-nats-sub000/pkg/geometry"
)

// newTestFrame returns a black BGR frame, closed when the test ends.
func newTestFrame(t *testing.T, width, height int) gocv.Mat {
	t.Helper()
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0),
		height, width, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { m.Close() })
	return m
}

func drawDisk(m *gocv.Mat, x, y, r int, c color.RGBA) {
	gocv.Circle(m, image.Point{X: x, Y: y}, r, c, -1)
}

// drawBox fills exactly the pixel columns x..x+w-1 and rows y..y+h-1.
// OpenCV rectangles include both corners, hence the -1.
func drawBox(m *gocv.Mat, x, y, w, h int, c color.RGBA) {
	gocv.Rectangle(m, image.Rect(x, y, x+w-1, y+h-1), c, -1)
}

// toHSV converts a BGR frame for feeding classifiers directly.
func toHSV(t *testing.T, bgr gocv.Mat) gocv.Mat {
	t.Helper()
	hsv := gocv.NewMat()
	gocv.CvtColor(bgr, &hsv, gocv.ColorBGRToHSV)
	t.Cleanup(func() { hsv.Close() })
	return hsv
}

// testConfig is tuned for small synthetic frames: wide color bands matching
// the colorutil palette, permissive goal gates, and a fallback circle at the
// frame center.
func testConfig(width, height int) DetectionConfig {
	cfg := DefaultDetectionConfig()
	cfg.Ball.MaxArea = 50000
	cfg.BlueGoal.MinArea = 100
	cfg.BlueGoal.MaxArea = 100000
	cfg.YellowGoal.MinArea = 100
	cfg.YellowGoal.MaxArea = 100000
	cfg.GoalAspectMin = 1
	cfg.GoalAspectMax = 3
	cfg.GoalMinWidth = 20
	cfg.GoalMinHeight = 10
	cfg.Mirror.MinRadius = 80
	cfg.Mirror.MaxRadius = 200
	cfg.Mirror.DetectionInterval = 1
	cfg.Mirror.FallbackRadius = height / 2
	cfg.Mirror.FallbackCenter = geometry.PointInt{X: width / 2, Y: height / 2}
	return cfg
}

var (
	mirrorWhite = colorutil.White
	ballOrange  = colorutil.Orange
	goalBlue    = colorutil.Blue
	goalYellow  = colorutil.Yellow
)
