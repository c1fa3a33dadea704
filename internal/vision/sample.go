package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// SampleHSV averages the HSV channels over a rectangular region of a BGR
// frame. It is an offline tuning aid: point it at the ball or a goal wall in
// a captured frame and feed the result to RangeFromSample.
func SampleHSV(frame gocv.Mat, region image.Rectangle) (avgH, avgS, avgV float64, err error) {
	if frame.Empty() {
		return 0, 0, 0, fmt.Errorf("empty image")
	}

	r := region.Intersect(image.Rect(0, 0, frame.Cols(), frame.Rows()))
	if r.Empty() {
		return 0, 0, 0, fmt.Errorf("region %v outside %dx%d frame", region, frame.Cols(), frame.Rows())
	}

	roi := frame.Region(r)
	defer roi.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(roi, &hsv, gocv.ColorBGRToHSV)

	var totalH, totalS, totalV float64
	var count int
	for y := 0; y < hsv.Rows(); y++ {
		for x := 0; x < hsv.Cols(); x++ {
			totalH += float64(hsv.GetUCharAt(y, x*3+0))
			totalS += float64(hsv.GetUCharAt(y, x*3+1))
			totalV += float64(hsv.GetUCharAt(y, x*3+2))
			count++
		}
	}
	if count == 0 {
		return 0, 0, 0, fmt.Errorf("no pixels sampled")
	}

	return totalH / float64(count), totalS / float64(count), totalV / float64(count), nil
}

// RangeFromSample builds an HSVRange around sampled channel averages. The
// hue tolerance is a quarter of the given one since OpenCV hue only spans
// 0-180. Area bounds are left disabled for the caller to fill in.
func RangeFromSample(avgH, avgS, avgV, tolerance float64) HSVRange {
	hTol := tolerance / 4
	return HSVRange{
		Lower: [3]int{
			clamp(int(avgH-hTol), 0, 180),
			clamp(int(avgS-tolerance), 0, 255),
			clamp(int(avgV-tolerance), 0, 255),
		},
		Upper: [3]int{
			clamp(int(avgH+hTol), 0, 180),
			clamp(int(avgS+tolerance), 0, 255),
			clamp(int(avgV+tolerance), 0, 255),
		},
	}
}

func clamp(v, minVal, maxVal int) int {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
