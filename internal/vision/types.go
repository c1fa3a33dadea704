// Package vision implements the detection pipeline for an omnidirectional
// soccer robot. The camera looks up into a convex mirror, so every frame is
// first reduced to the mirror's circular region, then segmented by color to
// find the ball and the two goals. Positions are reported as normalized
// offsets from the mirror center so downstream motion control does not depend
// on the camera resolution.
package vision

import (
	"fmt"
	"time"

	"github.com/TajGordon/rcj-nats-sub000/pkg/geometry"
)

// MirrorMethod selects the algorithm used to locate the mirror circle.
type MirrorMethod int

const (
	// MirrorHough runs a Hough circle transform on the blurred grayscale frame.
	MirrorHough MirrorMethod = iota
	// MirrorContour scores Canny edge contours by circularity.
	MirrorContour
)

// String returns the config-file name of the method.
func (m MirrorMethod) String() string {
	switch m {
	case MirrorHough:
		return "hough"
	case MirrorContour:
		return "contour"
	default:
		return "unknown"
	}
}

// ParseMirrorMethod parses a method name as it appears in config files.
func ParseMirrorMethod(s string) (MirrorMethod, error) {
	switch s {
	case "hough":
		return MirrorHough, nil
	case "contour":
		return MirrorContour, nil
	default:
		return MirrorHough, fmt.Errorf("%w: %q", ErrUnknownMirrorMethod, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m MirrorMethod) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MirrorMethod) UnmarshalText(text []byte) error {
	parsed, err := ParseMirrorMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Detections selects which classifiers run for a frame.
type Detections struct {
	Ball       bool `json:"ball"`
	BlueGoal   bool `json:"blue_goal"`
	YellowGoal bool `json:"yellow_goal"`
}

// AllDetections requests every classifier.
func AllDetections() Detections {
	return Detections{Ball: true, BlueGoal: true, YellowGoal: true}
}

func (d Detections) any() bool {
	return d.Ball || d.BlueGoal || d.YellowGoal
}

// BallDetection is the ball classifier result for one frame. Pixel
// coordinates are local to the mirror crop. Errors are offsets from the
// mirror center normalized by the center coordinates, negative left/up,
// roughly in [-1, 1] for points inside the mirror. All fields besides
// Detected are zero when Detected is false.
type BallDetection struct {
	Detected bool    `json:"detected"`
	CenterX  int     `json:"center_x"`
	CenterY  int     `json:"center_y"`
	Radius   int     `json:"radius"`
	Area     float64 `json:"area"`

	HorizontalError float64 `json:"horizontal_error"`
	VerticalError   float64 `json:"vertical_error"`

	IsClose                bool `json:"is_close"`
	IsCenteredHorizontally bool `json:"is_centered_horizontally"`
	IsCloseAndCentered     bool `json:"is_close_and_centered"`
}

// GoalDetection is a goal classifier result for one frame. Coordinates
// follow the same conventions as BallDetection; Width and Height are the
// bounding box of the goal blob, Area its contour area.
type GoalDetection struct {
	Detected bool    `json:"detected"`
	CenterX  int     `json:"center_x"`
	CenterY  int     `json:"center_y"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Area     float64 `json:"area"`

	HorizontalError float64 `json:"horizontal_error"`
	VerticalError   float64 `json:"vertical_error"`

	IsCenteredHorizontally bool `json:"is_centered_horizontally"`
}

// DetectionBundle is the complete result of processing one frame, in the
// shape published on the bus. FrameSeq and CapturedAt come from the caller.
type DetectionBundle struct {
	FrameSeq   uint64    `json:"frame_seq"`
	CapturedAt time.Time `json:"captured_at"`

	Ball       BallDetection `json:"ball"`
	BlueGoal   GoalDetection `json:"blue_goal"`
	YellowGoal GoalDetection `json:"yellow_goal"`

	// MirrorDetected reports whether the tracker holds a real detection.
	// When false the classifiers ran against the configured fallback
	// region and MirrorCenter/MirrorRadius are unset.
	MirrorDetected bool               `json:"mirror_detected"`
	MirrorCenter   *geometry.PointInt `json:"mirror_center,omitempty"`
	MirrorRadius   int                `json:"mirror_radius,omitempty"`
}
