package vision

import "gocv.io/x/gocv"

// segmentColor thresholds an HSV image against an inclusive color band and
// returns the binary mask. Pure function of its inputs; the caller owns the
// returned Mat.
func segmentColor(hsv gocv.Mat, band HSVRange) gocv.Mat {
	mask := gocv.NewMat()
	gocv.InRangeWithScalar(hsv, band.lowerScalar(), band.upperScalar(), &mask)
	return mask
}
