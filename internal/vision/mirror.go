package vision

import (
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/TajGordon/rcj-nats-sub000/pkg/colorutil"
	"github.com/TajGordon/rcj-nats-sub000/pkg/geometry"
)

// MirrorTracker maintains a best-effort estimate of the mirror's circular
// region and its derived crop rectangle and mask. It is the only stateful
// part of the pipeline. Detection runs every DetectionInterval frames; a
// failed attempt keeps the previous estimate, so a single missed detection
// never discards a good track. Before the first success the tracker serves
// the configured fallback circle with a full-frame crop.
//
// Not safe for concurrent use; the owning pipeline serializes access.
type MirrorTracker struct {
	cfg MirrorConfig

	// circle is nil until the first successful detection. The fallback
	// region feeds cropRect, localCenter and mask but never circle.
	circle      *geometry.Circle
	cropRect    image.Rectangle
	localCenter geometry.PointInt

	mask      gocv.Mat
	maskReady bool

	sinceDetect int
}

func newMirrorTracker(cfg MirrorConfig) *MirrorTracker {
	return &MirrorTracker{cfg: cfg}
}

// Update advances the tracker by one frame, re-detecting when due. The
// frame must be the full uncropped camera image: detecting inside a
// previous crop can permanently lose the mirror once a bad crop is adopted.
func (t *MirrorTracker) Update(frame gocv.Mat) {
	if frame.Empty() {
		return
	}
	t.sinceDetect++
	if t.circle != nil && t.sinceDetect < t.cfg.DetectionInterval {
		return
	}
	t.sinceDetect = 0

	if c, ok := t.detect(frame); ok {
		t.adopt(frame, c)
		return
	}
	if t.circle == nil {
		t.adoptFallback(frame)
	}
}

// Detected reports whether the tracker holds a real detection rather than
// the fallback region.
func (t *MirrorTracker) Detected() bool {
	return t.circle != nil
}

// Circle returns the last successfully detected mirror circle.
func (t *MirrorTracker) Circle() (geometry.Circle, bool) {
	if t.circle == nil {
		return geometry.Circle{}, false
	}
	return *t.circle, true
}

// CropRect returns the current crop rectangle in full-frame coordinates.
// Zero until the first Update.
func (t *MirrorTracker) CropRect() image.Rectangle {
	return t.cropRect
}

// LocalCenter returns the mirror center in crop-local coordinates.
func (t *MirrorTracker) LocalCenter() geometry.PointInt {
	return t.localCenter
}

// Crop returns the view of img selected by the current crop rectangle. The
// caller closes the returned Mat; it shares storage with img. Before any
// Update the full image is returned.
func (t *MirrorTracker) Crop(img gocv.Mat) gocv.Mat {
	full := image.Rect(0, 0, img.Cols(), img.Rows())
	r := t.cropRect.Intersect(full)
	if r.Empty() {
		r = full
	}
	return img.Region(r)
}

// ApplyMask returns a copy of img with pixels outside the mirror circle
// zeroed, in full-frame coordinates. The caller closes the result. Before
// any Update a plain copy is returned.
func (t *MirrorTracker) ApplyMask(img gocv.Mat) gocv.Mat {
	if !t.maskReady || t.mask.Rows() != img.Rows() || t.mask.Cols() != img.Cols() {
		return img.Clone()
	}
	out := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0),
		img.Rows(), img.Cols(), img.Type())
	img.CopyToWithMask(&out, t.mask)
	return out
}

// Reset discards the tracked circle and forces a detection attempt on the
// next Update.
func (t *MirrorTracker) Reset() {
	t.circle = nil
	t.sinceDetect = t.cfg.DetectionInterval
}

// Close releases the tracker's mask buffer.
func (t *MirrorTracker) Close() {
	if t.maskReady {
		t.mask.Close()
		t.maskReady = false
	}
}

func (t *MirrorTracker) detect(frame gocv.Mat) (geometry.Circle, bool) {
	switch t.cfg.Method {
	case MirrorContour:
		return t.detectContour(frame)
	default:
		return t.detectHough(frame)
	}
}

func (t *MirrorTracker) detectHough(frame gocv.Mat) (geometry.Circle, bool) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: 9, Y: 9}, 2, 2, gocv.BorderDefault)

	circles := gocv.NewMat()
	defer circles.Close()

	// One mirror in view, so candidate centers closer than half the frame
	// height are duplicates.
	minDist := float64(gray.Rows()) / 2
	gocv.HoughCirclesWithParams(blurred, &circles, gocv.HoughGradient,
		t.cfg.HoughDP, minDist,
		t.cfg.HoughParam1, t.cfg.HoughParam2,
		t.cfg.MinRadius, t.cfg.MaxRadius)

	if circles.Empty() || circles.Cols() == 0 {
		return geometry.Circle{}, false
	}

	// Largest radius wins: smaller concentric candidates are reflections
	// of the robot body inside the mirror.
	best := geometry.Circle{}
	for i := 0; i < circles.Cols(); i++ {
		cx := circles.GetFloatAt(0, i*3)
		cy := circles.GetFloatAt(0, i*3+1)
		r := circles.GetFloatAt(0, i*3+2)
		if int(r+0.5) > best.Radius {
			best = geometry.NewCircle(int(cx+0.5), int(cy+0.5), int(r+0.5))
		}
	}
	if best.Radius == 0 {
		return geometry.Circle{}, false
	}
	return best, true
}

func (t *MirrorTracker) detectContour(frame gocv.Mat) (geometry.Circle, bool) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, float32(t.cfg.CannyLow), float32(t.cfg.CannyHigh))

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	minArea := math.Pi * float64(t.cfg.MinRadius) * float64(t.cfg.MinRadius)
	maxArea := math.Pi * float64(t.cfg.MaxRadius) * float64(t.cfg.MaxRadius)

	bestIdx := -1
	bestCircularity := circularityThreshold
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area < minArea || area > maxArea {
			continue
		}
		perimeter := gocv.ArcLength(contours.At(i), true)
		if perimeter <= 0 {
			continue
		}
		circularity := 4 * math.Pi * area / (perimeter * perimeter)
		if circularity > bestCircularity {
			bestCircularity = circularity
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return geometry.Circle{}, false
	}

	x, y, r := gocv.MinEnclosingCircle(contours.At(bestIdx))
	radius := int(r + 0.5)
	if radius < t.cfg.MinRadius || radius > t.cfg.MaxRadius {
		return geometry.Circle{}, false
	}
	return geometry.NewCircle(int(x+0.5), int(y+0.5), radius), true
}

// adopt installs a freshly detected circle and rebuilds the derived state.
func (t *MirrorTracker) adopt(frame gocv.Mat, c geometry.Circle) {
	t.circle = &c
	t.cropRect = c.Bounds().Intersect(image.Rect(0, 0, frame.Cols(), frame.Rows()))
	t.localCenter = geometry.PointInt{
		X: c.Center.X - t.cropRect.Min.X,
		Y: c.Center.Y - t.cropRect.Min.Y,
	}
	t.rebuildMask(frame, c)
}

// adoptFallback serves the configured static circle when nothing has ever
// been detected. The crop stays full-frame so a later detection attempt
// still sees the whole image, and circle stays nil so callers can tell the
// difference.
func (t *MirrorTracker) adoptFallback(frame gocv.Mat) {
	c := geometry.Circle{Center: t.cfg.FallbackCenter, Radius: t.cfg.FallbackRadius}
	t.cropRect = image.Rect(0, 0, frame.Cols(), frame.Rows())
	t.localCenter = c.Center
	t.rebuildMask(frame, c)
}

func (t *MirrorTracker) rebuildMask(frame gocv.Mat, c geometry.Circle) {
	if t.maskReady {
		t.mask.Close()
	}
	t.mask = gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0),
		frame.Rows(), frame.Cols(), gocv.MatTypeCV8UC1)
	gocv.Circle(&t.mask, c.Center.ToImage(), c.Radius, colorutil.White, -1)
	t.maskReady = true
}
