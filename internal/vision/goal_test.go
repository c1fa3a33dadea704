package vision

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TajGordon/rcj-nats-sub000/pkg/geometry"
)

func TestClassifyGoalDetectsBox(t *testing.T) {
	frame := newTestFrame(t, 300, 300)
	drawBox(&frame, 100, 100, 60, 20, goalBlue)
	hsv := toHSV(t, frame)

	cfg := testConfig(300, 300)
	got := classifyGoal(hsv, geometry.PointInt{X: 150, Y: 150}, cfg.BlueGoal, cfg)

	require.True(t, got.Detected)
	require.Equal(t, 60, got.Width)
	require.Equal(t, 20, got.Height)
	require.InDelta(t, 130, got.CenterX, 1)
	require.InDelta(t, 110, got.CenterY, 1)
	require.InDelta(t, 59*19, got.Area, 60) // contour area, not w*h
	require.Negative(t, got.HorizontalError)
	require.Negative(t, got.VerticalError)
}

func TestClassifyGoalAspectBandInclusive(t *testing.T) {
	center := geometry.PointInt{X: 150, Y: 150}

	cases := []struct {
		name string
		w, h int
		want bool
	}{
		{"aspect exactly at upper bound", 60, 20, true},  // 3.0
		{"aspect one above upper bound", 80, 20, false},  // 4.0
		{"aspect exactly at lower bound", 20, 20, true},  // 1.0
		{"aspect below lower bound", 20, 40, false},      // 0.5
		{"aspect inside the band", 45, 20, true},         // 2.25
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			frame := newTestFrame(t, 300, 300)
			drawBox(&frame, 100, 100, tc.w, tc.h, goalYellow)
			hsv := toHSV(t, frame)

			cfg := testConfig(300, 300)
			cfg.GoalAspectMin = 1
			cfg.GoalAspectMax = 3

			got := classifyGoal(hsv, center, cfg.YellowGoal, cfg)
			require.Equal(t, tc.want, got.Detected)
		})
	}
}

func TestClassifyGoalMinimumSize(t *testing.T) {
	frame := newTestFrame(t, 300, 300)
	drawBox(&frame, 100, 100, 15, 15, goalBlue) // under the 20 px width floor
	hsv := toHSV(t, frame)

	cfg := testConfig(300, 300)
	got := classifyGoal(hsv, geometry.PointInt{X: 150, Y: 150}, cfg.BlueGoal, cfg)
	require.False(t, got.Detected)
}

func TestClassifyGoalTwoSidedAreaBound(t *testing.T) {
	center := geometry.PointInt{X: 150, Y: 150}
	cfg := testConfig(300, 300)
	cfg.BlueGoal.MinArea = 2000
	cfg.BlueGoal.MaxArea = 5000

	small := newTestFrame(t, 300, 300)
	drawBox(&small, 100, 100, 40, 20, goalBlue) // ~741 px²
	got := classifyGoal(toHSV(t, small), center, cfg.BlueGoal, cfg)
	require.False(t, got.Detected)

	big := newTestFrame(t, 300, 300)
	drawBox(&big, 50, 50, 200, 100, goalBlue) // ~19,700 px²
	got = classifyGoal(toHSV(t, big), center, cfg.BlueGoal, cfg)
	require.False(t, got.Detected)

	fits := newTestFrame(t, 300, 300)
	drawBox(&fits, 100, 100, 90, 30, goalBlue) // ~2,581 px²
	got = classifyGoal(toHSV(t, fits), center, cfg.BlueGoal, cfg)
	require.True(t, got.Detected)
}

func TestClassifyGoalCentering(t *testing.T) {
	center := geometry.PointInt{X: 150, Y: 150}
	cfg := testConfig(300, 300)
	cfg.GoalCenterTolerance = 0.05

	centered := newTestFrame(t, 300, 300)
	drawBox(&centered, 120, 140, 60, 20, goalBlue) // box center (150, 150)
	got := classifyGoal(toHSV(t, centered), center, cfg.BlueGoal, cfg)
	require.True(t, got.Detected)
	require.InDelta(t, 0, got.HorizontalError, 0.02)
	require.True(t, got.IsCenteredHorizontally)

	offset := newTestFrame(t, 300, 300)
	drawBox(&offset, 200, 140, 60, 20, goalBlue)
	got = classifyGoal(toHSV(t, offset), center, cfg.BlueGoal, cfg)
	require.True(t, got.Detected)
	require.Positive(t, got.HorizontalError)
	require.False(t, got.IsCenteredHorizontally)
}

func TestClassifyGoalColorSeparation(t *testing.T) {
	// A yellow wall must not satisfy the blue band and vice versa.
	frame := newTestFrame(t, 300, 300)
	drawBox(&frame, 100, 100, 60, 20, goalYellow)
	hsv := toHSV(t, frame)

	cfg := testConfig(300, 300)
	center := geometry.PointInt{X: 150, Y: 150}

	require.False(t, classifyGoal(hsv, center, cfg.BlueGoal, cfg).Detected)
	require.True(t, classifyGoal(hsv, center, cfg.YellowGoal, cfg).Detected)
}
