package vision

import "errors"

// Configuration errors returned by DetectionConfig.Validate. Per-frame
// conditions (lost mirror, empty masks, degenerate contours) are never
// surfaced as errors; they degrade to "not detected".
var (
	ErrInvalidHSVRange     = errors.New("hsv bounds out of order or outside 0..255")
	ErrInvalidAreaBounds   = errors.New("contour area bounds invalid")
	ErrInvalidRadiusBounds = errors.New("mirror radius bounds invalid")
	ErrInvalidHoughParams  = errors.New("hough parameters must be positive")
	ErrInvalidCannyParams  = errors.New("canny thresholds invalid")
	ErrInvalidInterval     = errors.New("detection interval must be at least 1")
	ErrInvalidFallback     = errors.New("fallback circle invalid")
	ErrInvalidTolerance    = errors.New("tolerance must be non-negative")
	ErrInvalidAspectBand   = errors.New("goal aspect ratio band invalid")
	ErrUnknownMirrorMethod = errors.New("unknown mirror detection method")
)
