// Package overlay draws pipeline detections onto camera frames for the
// debug stream and for offline inspection of captured field photos.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gocv.io/x/gocv"

	"github.com/TajGordon/rcj-nats-sub000/internal/vision"
	"github.com/TajGordon/rcj-nats-sub000/pkg/colorutil"
)

// Options configures which annotations get drawn.
type Options struct {
	DrawMirror bool
	DrawCrop   bool
	DrawBall   bool
	DrawGoals  bool
	DrawLegend bool

	// MaskOutside zeroes pixels outside the mirror circle before drawing,
	// matching what the classifiers effectively see.
	MaskOutside bool

	LineWidth int
}

// DefaultOptions draws everything with thin lines and no masking.
func DefaultOptions() Options {
	return Options{
		DrawMirror: true,
		DrawCrop:   true,
		DrawBall:   true,
		DrawGoals:  true,
		DrawLegend: true,
		LineWidth:  2,
	}
}

// Renderer draws detection bundles over frames.
type Renderer struct {
	cfg  vision.DetectionConfig
	opts Options
}

// NewRenderer builds a renderer for the given detection config.
func NewRenderer(cfg vision.DetectionConfig, opts Options) *Renderer {
	return &Renderer{cfg: cfg, opts: opts}
}

// Render returns a new annotated copy of frame. The pipeline supplies the
// crop and mask geometry so crop-local detection coordinates can be mapped
// back onto the full frame. The caller closes the returned Mat.
func (r *Renderer) Render(frame gocv.Mat, bundle vision.DetectionBundle, pipe *vision.Pipeline) gocv.Mat {
	var canvas gocv.Mat
	if r.opts.MaskOutside {
		canvas = pipe.ApplyMask(frame)
	} else {
		canvas = frame.Clone()
	}

	crop := pipe.CropRect()
	origin := crop.Min

	if r.opts.DrawCrop && !crop.Empty() {
		gocv.Rectangle(&canvas, crop, colorutil.Green, 1)
	}
	if r.opts.DrawMirror && bundle.MirrorDetected {
		center := bundle.MirrorCenter.ToImage()
		gocv.Circle(&canvas, center, bundle.MirrorRadius, colorutil.Green, r.opts.LineWidth)
		drawCross(&canvas, center, 8, colorutil.Magenta)
	}
	if r.opts.DrawBall && bundle.Ball.Detected {
		r.drawBall(&canvas, bundle, origin)
	}
	if r.opts.DrawGoals {
		if bundle.BlueGoal.Detected {
			drawGoal(&canvas, bundle.BlueGoal, origin, "blue", colorutil.Blue, r.opts.LineWidth)
		}
		if bundle.YellowGoal.Detected {
			drawGoal(&canvas, bundle.YellowGoal, origin, "yellow", colorutil.Yellow, r.opts.LineWidth)
		}
	}
	if r.opts.DrawLegend {
		r.drawLegend(&canvas)
	}
	return canvas
}

func (r *Renderer) drawBall(canvas *gocv.Mat, bundle vision.DetectionBundle, origin image.Point) {
	ball := bundle.Ball
	center := image.Point{X: origin.X + ball.CenterX, Y: origin.Y + ball.CenterY}
	gocv.Circle(canvas, center, ball.Radius, colorutil.Orange, r.opts.LineWidth)

	if bundle.MirrorDetected {
		gocv.Line(canvas, bundle.MirrorCenter.ToImage(), center, colorutil.Orange, 1)
	}

	label := fmt.Sprintf("ball h%+.2f v%+.2f", ball.HorizontalError, ball.VerticalError)
	if ball.IsCloseAndCentered {
		label += " LOCK"
	}
	gocv.PutText(canvas, label,
		image.Point{X: center.X + ball.Radius + 4, Y: center.Y},
		gocv.FontHersheyPlain, 1.0, colorutil.Orange, 1)
}

func drawGoal(canvas *gocv.Mat, goal vision.GoalDetection, origin image.Point, name string, c color.RGBA, width int) {
	box := image.Rect(
		origin.X+goal.CenterX-goal.Width/2,
		origin.Y+goal.CenterY-goal.Height/2,
		origin.X+goal.CenterX+goal.Width/2,
		origin.Y+goal.CenterY+goal.Height/2,
	)
	gocv.Rectangle(canvas, box, c, width)
	gocv.PutText(canvas, fmt.Sprintf("%s h%+.2f", name, goal.HorizontalError),
		image.Point{X: box.Min.X, Y: box.Min.Y - 4},
		gocv.FontHersheyPlain, 1.0, c, 1)
}

// drawLegend paints one swatch per configured color band so a misconfigured
// range is visible at a glance in the stream.
func (r *Renderer) drawLegend(canvas *gocv.Mat) {
	entries := []struct {
		name string
		band vision.HSVRange
	}{
		{"ball", r.cfg.Ball},
		{"blue goal", r.cfg.BlueGoal},
		{"yellow goal", r.cfg.YellowGoal},
	}

	y := 18
	for _, e := range entries {
		gocv.Rectangle(canvas, image.Rect(8, y-10, 24, y+2), swatchColor(e.band), -1)
		gocv.PutText(canvas, e.name, image.Point{X: 30, Y: y},
			gocv.FontHersheyPlain, 1.0, colorutil.White, 1)
		y += 18
	}
}

// swatchColor renders a band's midpoint back to RGB. OpenCV stores hue
// halved, go-colorful wants degrees, hence the doubling.
func swatchColor(band vision.HSVRange) color.RGBA {
	h := float64(band.Lower[0]+band.Upper[0]) // (lo+hi)/2, then *2 for degrees
	s := float64(band.Lower[1]+band.Upper[1]) / 2 / 255
	v := float64(band.Lower[2]+band.Upper[2]) / 2 / 255
	cr, cg, cb := colorful.Hsv(h, s, v).RGB255()
	return color.RGBA{R: cr, G: cg, B: cb, A: 255}
}

func drawCross(m *gocv.Mat, p image.Point, arm int, c color.RGBA) {
	gocv.Line(m, image.Point{X: p.X - arm, Y: p.Y}, image.Point{X: p.X + arm, Y: p.Y}, c, 1)
	gocv.Line(m, image.Point{X: p.X, Y: p.Y - arm}, image.Point{X: p.X, Y: p.Y + arm}, c, 1)
}
