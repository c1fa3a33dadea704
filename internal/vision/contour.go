package vision

import "gocv.io/x/gocv"

// largestContourWithin returns the index and area of the largest contour
// whose area lies within [minArea, maxArea]. A bound <= 0 is disabled. The
// ball classifier passes an upper bound only (it gates on fitted radius
// instead of a minimum area); the goal classifiers pass both.
func largestContourWithin(contours gocv.PointsVector, minArea, maxArea float64) (int, float64, bool) {
	bestIdx := -1
	bestArea := 0.0
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if minArea > 0 && area < minArea {
			continue
		}
		if maxArea > 0 && area > maxArea {
			continue
		}
		if bestIdx < 0 || area > bestArea {
			bestIdx = i
			bestArea = area
		}
	}
	return bestIdx, bestArea, bestIdx >= 0
}
