package vision

import (
	"math"

	"gocv.io/x/gocv"

	"github.com/TajGordon/rcj-nats-sub000/pkg/geometry"
)

// classifyGoal finds one goal in the cropped HSV image. Goals are wide flat
// walls, so candidates are filtered by a two-sided area bound, a minimum
// bounding-box size, and an inclusive aspect ratio band before the center is
// mapped to normalized errors.
func classifyGoal(hsv gocv.Mat, center geometry.PointInt, band HSVRange, cfg DetectionConfig) GoalDetection {
	mask := segmentColor(hsv, band)
	defer mask.Close()

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	idx, area, ok := largestContourWithin(contours, band.MinArea, band.MaxArea)
	if !ok {
		return GoalDetection{}
	}

	box := gocv.BoundingRect(contours.At(idx))
	w, h := box.Dx(), box.Dy()
	if w < cfg.GoalMinWidth || h < cfg.GoalMinHeight {
		return GoalDetection{}
	}

	aspect := 0.0
	if h != 0 {
		aspect = float64(w) / float64(h)
	}
	if aspect < cfg.GoalAspectMin || aspect > cfg.GoalAspectMax {
		return GoalDetection{}
	}

	cx := float64(box.Min.X) + float64(w)/2
	cy := float64(box.Min.Y) + float64(h)/2
	hErr, vErr := normalizedErrors(cx, cy, center)

	return GoalDetection{
		Detected:               true,
		CenterX:                int(cx + 0.5),
		CenterY:                int(cy + 0.5),
		Width:                  w,
		Height:                 h,
		Area:                   area,
		HorizontalError:        hErr,
		VerticalError:          vErr,
		IsCenteredHorizontally: math.Abs(hErr) <= cfg.GoalCenterTolerance,
	}
}
