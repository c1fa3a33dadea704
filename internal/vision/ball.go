package vision

import (
	"math"

	"gocv.io/x/gocv"

	"github.com/TajGordon/rcj-nats-sub000/pkg/geometry"
)

// classifyBall finds the ball in the cropped HSV image. The largest orange
// blob below the configured area ceiling is fitted with a minimum enclosing
// circle; fits under 2 px radius are single-pixel noise and rejected. There
// is deliberately no minimum area bound, so a distant ball a few pixels wide
// still registers.
func classifyBall(hsv gocv.Mat, center geometry.PointInt, cfg DetectionConfig) BallDetection {
	mask := segmentColor(hsv, cfg.Ball)
	defer mask.Close()

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	idx, _, ok := largestContourWithin(contours, 0, cfg.Ball.MaxArea)
	if !ok {
		return BallDetection{}
	}

	x, y, r := gocv.MinEnclosingCircle(contours.At(idx))
	if float64(r) < minBallRadius {
		return BallDetection{}
	}

	area := math.Pi * float64(r) * float64(r)
	hErr, vErr := normalizedErrors(float64(x), float64(y), center)

	isClose := area >= cfg.ProximityThreshold
	isCentered := math.Abs(hErr) <= cfg.AngleTolerance

	return BallDetection{
		Detected:               true,
		CenterX:                int(x + 0.5),
		CenterY:                int(y + 0.5),
		Radius:                 int(r + 0.5),
		Area:                   area,
		HorizontalError:        hErr,
		VerticalError:          vErr,
		IsClose:                isClose,
		IsCenteredHorizontally: isCentered,
		IsCloseAndCentered:     isClose && isCentered,
	}
}
