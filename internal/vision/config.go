package vision

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/TajGordon/rcj-nats-sub000/pkg/geometry"
)

// Fixed classifier constants. These are deliberately not configurable: the
// 2 px floor rejects single-pixel noise regardless of tuning, and the
// circularity gate below 0.7 starts accepting straight field lines.
const (
	minBallRadius        = 2.0
	circularityThreshold = 0.7
)

// HSVRange is an inclusive color band in OpenCV HSV space (H 0-180, S and V
// 0-255) plus contour area limits in square pixels. An area bound <= 0 is
// disabled.
type HSVRange struct {
	Lower   [3]int  `json:"lower"`
	Upper   [3]int  `json:"upper"`
	MinArea float64 `json:"min_area"`
	MaxArea float64 `json:"max_area"`
}

func (r HSVRange) lowerScalar() gocv.Scalar {
	return gocv.NewScalar(float64(r.Lower[0]), float64(r.Lower[1]), float64(r.Lower[2]), 0)
}

func (r HSVRange) upperScalar() gocv.Scalar {
	return gocv.NewScalar(float64(r.Upper[0]), float64(r.Upper[1]), float64(r.Upper[2]), 0)
}

func (r HSVRange) validate(name string) error {
	for i := 0; i < 3; i++ {
		if r.Lower[i] < 0 || r.Upper[i] > 255 || r.Lower[i] > r.Upper[i] {
			return fmt.Errorf("%s channel %d: %w", name, i, ErrInvalidHSVRange)
		}
	}
	if r.MinArea < 0 || r.MaxArea < 0 {
		return fmt.Errorf("%s: %w", name, ErrInvalidAreaBounds)
	}
	if r.MinArea > 0 && r.MaxArea > 0 && r.MinArea > r.MaxArea {
		return fmt.Errorf("%s: %w", name, ErrInvalidAreaBounds)
	}
	return nil
}

// MirrorConfig controls the mirror tracker.
type MirrorConfig struct {
	Method MirrorMethod `json:"method"`

	// MinRadius and MaxRadius bound accepted mirror circles, in pixels.
	// A circle is only checked against them at detection time; once
	// adopted it persists unchecked.
	MinRadius int `json:"min_radius"`
	MaxRadius int `json:"max_radius"`

	// Hough transform parameters. The minimum distance between circle
	// centers is always half the frame height: there is exactly one
	// mirror in view.
	HoughDP     float64 `json:"hough_dp"`
	HoughParam1 float64 `json:"hough_param1"`
	HoughParam2 float64 `json:"hough_param2"`

	// Canny thresholds for the contour method.
	CannyLow  float64 `json:"canny_low"`
	CannyHigh float64 `json:"canny_high"`

	// DetectionInterval is the number of frames between detection
	// attempts once the mirror has been found. The mirror barely moves
	// relative to the camera, so re-detecting every frame is wasted work.
	DetectionInterval int `json:"detection_interval"`

	// FallbackRadius and FallbackCenter describe the region assumed
	// before the first successful detection.
	FallbackRadius int               `json:"fallback_radius"`
	FallbackCenter geometry.PointInt `json:"fallback_center"`
}

func (c MirrorConfig) validate() error {
	if c.Method != MirrorHough && c.Method != MirrorContour {
		return fmt.Errorf("%w: %d", ErrUnknownMirrorMethod, int(c.Method))
	}
	if c.MinRadius <= 0 || c.MaxRadius < c.MinRadius {
		return fmt.Errorf("%w: min %d max %d", ErrInvalidRadiusBounds, c.MinRadius, c.MaxRadius)
	}
	if c.HoughDP <= 0 || c.HoughParam1 <= 0 || c.HoughParam2 <= 0 {
		return ErrInvalidHoughParams
	}
	if c.CannyLow < 0 || c.CannyHigh < c.CannyLow {
		return ErrInvalidCannyParams
	}
	if c.DetectionInterval < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidInterval, c.DetectionInterval)
	}
	// A zero fallback center would divide by zero in the error mapping.
	if c.FallbackRadius <= 0 || c.FallbackCenter.X <= 0 || c.FallbackCenter.Y <= 0 {
		return fmt.Errorf("%w: radius %d center (%d,%d)", ErrInvalidFallback,
			c.FallbackRadius, c.FallbackCenter.X, c.FallbackCenter.Y)
	}
	return nil
}

// DetectionConfig aggregates every tunable detection parameter. It is
// immutable after pipeline construction; retuning means building a new
// pipeline.
type DetectionConfig struct {
	Ball       HSVRange `json:"ball"`
	BlueGoal   HSVRange `json:"blue_goal"`
	YellowGoal HSVRange `json:"yellow_goal"`

	// ProximityThreshold is the enclosing-circle area, in square pixels,
	// at or above which the ball counts as close.
	ProximityThreshold float64 `json:"proximity_threshold"`

	// AngleTolerance is compared directly against the absolute normalized
	// horizontal error. The historical default of 15 therefore accepts
	// any ball inside the mirror as horizontally centered; keep the
	// comparison literal rather than converting to degrees.
	AngleTolerance float64 `json:"angle_tolerance"`

	// GoalCenterTolerance is the centering gate for goals, in the same
	// normalized units.
	GoalCenterTolerance float64 `json:"goal_center_tolerance"`

	// GoalAspectMin and GoalAspectMax bound the accepted width/height
	// ratio of a goal bounding box, inclusive on both ends.
	GoalAspectMin float64 `json:"goal_aspect_min"`
	GoalAspectMax float64 `json:"goal_aspect_max"`

	// GoalMinWidth and GoalMinHeight reject goal boxes smaller than this.
	GoalMinWidth  int `json:"goal_min_width"`
	GoalMinHeight int `json:"goal_min_height"`

	Mirror MirrorConfig `json:"mirror"`
}

// DefaultDetectionConfig returns the tuning used on the competition robot
// with a 640x480 camera. Color bands are for the standard orange ball and
// blue/yellow goal walls under field lighting.
func DefaultDetectionConfig() DetectionConfig {
	return DetectionConfig{
		Ball: HSVRange{
			Lower:   [3]int{0, 180, 170},
			Upper:   [3]int{50, 255, 255},
			MaxArea: 50000,
		},
		BlueGoal: HSVRange{
			Lower:   [3]int{100, 150, 50},
			Upper:   [3]int{140, 255, 255},
			MinArea: 500,
			MaxArea: 100000,
		},
		YellowGoal: HSVRange{
			Lower:   [3]int{20, 100, 100},
			Upper:   [3]int{35, 255, 255},
			MinArea: 500,
			MaxArea: 100000,
		},
		ProximityThreshold:  3000,
		AngleTolerance:      15,
		GoalCenterTolerance: 0.2,
		GoalAspectMin:       1.0,
		GoalAspectMax:       5.0,
		GoalMinWidth:        20,
		GoalMinHeight:       10,
		Mirror: MirrorConfig{
			Method:            MirrorHough,
			MinRadius:         100,
			MaxRadius:         300,
			HoughDP:           1.2,
			HoughParam1:       100,
			HoughParam2:       30,
			CannyLow:          50,
			CannyHigh:         150,
			DetectionInterval: 30,
			FallbackRadius:    200,
			FallbackCenter:    geometry.PointInt{X: 320, Y: 240},
		},
	}
}

// WithMirrorMethod returns a copy of the config using the given mirror
// detection method.
func (c DetectionConfig) WithMirrorMethod(m MirrorMethod) DetectionConfig {
	c.Mirror.Method = m
	return c
}

// Validate checks every construction-time invariant. Violations that would
// otherwise surface per-frame (such as a zero fallback center dividing by
// zero in the error mapping) fail here instead.
func (c DetectionConfig) Validate() error {
	if err := c.Ball.validate("ball"); err != nil {
		return err
	}
	if err := c.BlueGoal.validate("blue goal"); err != nil {
		return err
	}
	if err := c.YellowGoal.validate("yellow goal"); err != nil {
		return err
	}
	if c.ProximityThreshold < 0 || c.AngleTolerance < 0 || c.GoalCenterTolerance < 0 {
		return ErrInvalidTolerance
	}
	if c.GoalAspectMin < 0 || c.GoalAspectMax < c.GoalAspectMin {
		return fmt.Errorf("%w: [%g, %g]", ErrInvalidAspectBand, c.GoalAspectMin, c.GoalAspectMax)
	}
	if c.GoalMinWidth < 0 || c.GoalMinHeight < 0 {
		return fmt.Errorf("%w: min size %dx%d", ErrInvalidAspectBand, c.GoalMinWidth, c.GoalMinHeight)
	}
	return c.Mirror.validate()
}
