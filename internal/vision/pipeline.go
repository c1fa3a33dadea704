package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Pipeline runs mirror tracking and the requested classifiers over frames.
// Each Process call is synchronous and runs to completion; the caller owns
// timing and may skip frames. A pipeline must not be shared across
// goroutines without external serialization: the tracker mutates in place.
//
// The config is fixed at construction. Retuning means building a new
// pipeline, not mutating a shared one.
type Pipeline struct {
	cfg     DetectionConfig
	tracker *MirrorTracker
}

// NewPipeline validates the config and builds a pipeline around it.
func NewPipeline(cfg DetectionConfig) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("detection config: %w", err)
	}
	return &Pipeline{cfg: cfg, tracker: newMirrorTracker(cfg.Mirror)}, nil
}

// Config returns the pipeline's immutable configuration.
func (p *Pipeline) Config() DetectionConfig {
	return p.cfg
}

// Process runs one frame through the pipeline. An empty frame is a valid
// no-op returning an all-false bundle. The tracker updates exactly once per
// call regardless of how many classifiers run; the crop and HSV conversion
// are shared between them. Per-frame detection failures are reported through
// the Detected flags, never as errors.
func (p *Pipeline) Process(frame Frame, requested Detections) DetectionBundle {
	bundle := DetectionBundle{FrameSeq: frame.Seq, CapturedAt: frame.CapturedAt}
	if frame.Empty() {
		return bundle
	}

	p.tracker.Update(frame.Mat)
	if c, ok := p.tracker.Circle(); ok {
		bundle.MirrorDetected = true
		center := c.Center
		bundle.MirrorCenter = &center
		bundle.MirrorRadius = c.Radius
	}

	if !requested.any() {
		return bundle
	}

	cropped := p.tracker.Crop(frame.Mat)
	defer cropped.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(cropped, &hsv, gocv.ColorBGRToHSV)

	center := p.tracker.LocalCenter()
	if requested.Ball {
		bundle.Ball = classifyBall(hsv, center, p.cfg)
	}
	if requested.BlueGoal {
		bundle.BlueGoal = classifyGoal(hsv, center, p.cfg.BlueGoal, p.cfg)
	}
	if requested.YellowGoal {
		bundle.YellowGoal = classifyGoal(hsv, center, p.cfg.YellowGoal, p.cfg)
	}
	return bundle
}

// Crop exposes the tracker's crop for callers that render or record the
// active region. The caller closes the returned Mat.
func (p *Pipeline) Crop(img gocv.Mat) gocv.Mat {
	return p.tracker.Crop(img)
}

// ApplyMask exposes the tracker's circular mask for overlay rendering. The
// caller closes the returned Mat.
func (p *Pipeline) ApplyMask(img gocv.Mat) gocv.Mat {
	return p.tracker.ApplyMask(img)
}

// CropRect returns the tracker's crop rectangle in full-frame coordinates,
// for mapping crop-local detections back onto the original image.
func (p *Pipeline) CropRect() image.Rectangle {
	return p.tracker.CropRect()
}

// Redetect forces a mirror detection attempt on the next frame, discarding
// the current track. Useful after the robot is moved or the camera bumped.
func (p *Pipeline) Redetect() {
	p.tracker.Reset()
}

// Close releases pipeline-owned image buffers.
func (p *Pipeline) Close() {
	p.tracker.Close()
}
