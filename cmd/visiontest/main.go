// Command visiontest runs the detection pipeline on a still image and
// prints the results, for tuning color ranges and mirror parameters away
// from the robot.
package main

import (
	"flag"
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"github.com/TajGordon/rcj-nats-sub000/internal/camera"
	"github.com/TajGordon/rcj-nats-sub000/internal/config"
	"github.com/TajGordon/rcj-nats-sub000/internal/overlay"
	"github.com/TajGordon/rcj-nats-sub000/internal/vision"
)

func main() {
	imagePath := flag.String("image", "", "Path to field image (TIFF, PNG, or JPEG)")
	configPath := flag.String("config", "", "Path to JSON config file")
	method := flag.String("method", "", "Mirror method override: hough or contour")
	outPath := flag.String("out", "", "Write annotated image to this path")
	sample := flag.String("sample", "", "Sample HSV in region x,y,w,h and suggest a range")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: visiontest -image <path> [-config file] [-method hough|contour] [-out annotated.png] [-sample x,y,w,h]")
		os.Exit(1)
	}

	if err := run(*imagePath, *configPath, *method, *outPath, *sample); err != nil {
		fmt.Fprintln(os.Stderr, "visiontest:", err)
		os.Exit(1)
	}
}

func run(imagePath, configPath, method, outPath, sample string) error {
	mat, err := camera.LoadMat(imagePath)
	if err != nil {
		return err
	}
	defer mat.Close()
	fmt.Printf("Loaded image: %dx%d pixels\n", mat.Cols(), mat.Rows())

	if sample != "" {
		return sampleRegion(mat, sample)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if method != "" {
		m, err := vision.ParseMirrorMethod(method)
		if err != nil {
			return err
		}
		cfg.Detection = cfg.Detection.WithMirrorMethod(m)
	}

	det := cfg.Detection
	fmt.Printf("\nDetection parameters:\n")
	fmt.Printf("  Mirror method: %s (radius %d-%d px, interval %d)\n",
		det.Mirror.Method, det.Mirror.MinRadius, det.Mirror.MaxRadius, det.Mirror.DetectionInterval)
	fmt.Printf("  Ball HSV: %v - %v (max area %.0f)\n", det.Ball.Lower, det.Ball.Upper, det.Ball.MaxArea)
	fmt.Printf("  Blue goal HSV: %v - %v (area %.0f-%.0f)\n",
		det.BlueGoal.Lower, det.BlueGoal.Upper, det.BlueGoal.MinArea, det.BlueGoal.MaxArea)
	fmt.Printf("  Yellow goal HSV: %v - %v (area %.0f-%.0f)\n",
		det.YellowGoal.Lower, det.YellowGoal.Upper, det.YellowGoal.MinArea, det.YellowGoal.MaxArea)
	fmt.Printf("  Proximity threshold: %.0f px^2, angle tolerance %.2f\n",
		det.ProximityThreshold, det.AngleTolerance)

	pipe, err := vision.NewPipeline(det)
	if err != nil {
		return err
	}
	defer pipe.Close()

	frame := vision.Frame{Mat: mat, Seq: 1}
	bundle := pipe.Process(frame, vision.AllDetections())

	fmt.Printf("\nMirror: ")
	if bundle.MirrorDetected {
		fmt.Printf("detected at (%d,%d) radius %d\n",
			bundle.MirrorCenter.X, bundle.MirrorCenter.Y, bundle.MirrorRadius)
	} else {
		fmt.Printf("not detected, using fallback region\n")
	}

	fmt.Printf("\n%-12s %-9s %8s %8s %8s %10s %8s %8s %s\n",
		"Object", "Detected", "X", "Y", "Size", "Area", "HErr", "VErr", "Flags")
	printBall(bundle.Ball)
	printGoal("blue goal", bundle.BlueGoal)
	printGoal("yellow goal", bundle.YellowGoal)

	if outPath != "" {
		renderer := overlay.NewRenderer(det, overlay.DefaultOptions())
		canvas := renderer.Render(mat, bundle, pipe)
		defer canvas.Close()
		if ok := gocv.IMWrite(outPath, canvas); !ok {
			return fmt.Errorf("writing %s failed", outPath)
		}
		fmt.Printf("\nAnnotated image written to %s\n", outPath)
	}
	return nil
}

func printBall(b vision.BallDetection) {
	if !b.Detected {
		fmt.Printf("%-12s %-9s\n", "ball", "no")
		return
	}
	flags := ""
	if b.IsClose {
		flags += " close"
	}
	if b.IsCenteredHorizontally {
		flags += " centered"
	}
	fmt.Printf("%-12s %-9s %8d %8d %8d %10.1f %+8.3f %+8.3f%s\n",
		"ball", "yes", b.CenterX, b.CenterY, b.Radius, b.Area,
		b.HorizontalError, b.VerticalError, flags)
}

func printGoal(name string, g vision.GoalDetection) {
	if !g.Detected {
		fmt.Printf("%-12s %-9s\n", name, "no")
		return
	}
	flags := ""
	if g.IsCenteredHorizontally {
		flags += " centered"
	}
	fmt.Printf("%-12s %-9s %8d %8d %dx%d %10.1f %+8.3f %+8.3f%s\n",
		name, "yes", g.CenterX, g.CenterY, g.Width, g.Height, g.Area,
		g.HorizontalError, g.VerticalError, flags)
}

// sampleRegion averages HSV over a region and prints a suggested range,
// the usual starting point when re-tuning colors for a new venue.
func sampleRegion(mat gocv.Mat, spec string) error {
	var x, y, w, h int
	if _, err := fmt.Sscanf(spec, "%d,%d,%d,%d", &x, &y, &w, &h); err != nil {
		return fmt.Errorf("bad -sample region %q (want x,y,w,h): %w", spec, err)
	}

	avgH, avgS, avgV, err := vision.SampleHSV(mat, image.Rect(x, y, x+w, y+h))
	if err != nil {
		return err
	}
	fmt.Printf("Region %d,%d %dx%d average HSV: %.1f %.1f %.1f\n", x, y, w, h, avgH, avgS, avgV)

	band := vision.RangeFromSample(avgH, avgS, avgV, 40)
	fmt.Printf("Suggested range: %v - %v\n", band.Lower, band.Upper)
	return nil
}
