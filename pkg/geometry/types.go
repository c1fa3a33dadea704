// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"image"
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint2D creates a new Point2D.
func NewPoint2D(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Add returns the sum of two points.
func (p Point2D) Add(other Point2D) Point2D {
	return Point2D{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the difference of two points.
func (p Point2D) Sub(other Point2D) Point2D {
	return Point2D{X: p.X - other.X, Y: p.Y - other.Y}
}

// Scale returns the point scaled by a factor.
func (p Point2D) Scale(factor float64) Point2D {
	return Point2D{X: p.X * factor, Y: p.Y * factor}
}

// PointInt represents a 2D point with integer coordinates.
type PointInt struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ToFloat converts to Point2D.
func (p PointInt) ToFloat() Point2D {
	return Point2D{X: float64(p.X), Y: float64(p.Y)}
}

// ToImage converts to the standard library image.Point.
func (p PointInt) ToImage() image.Point {
	return image.Point{X: p.X, Y: p.Y}
}

// Circle is a circle with integer center and radius, in pixel coordinates.
type Circle struct {
	Center PointInt `json:"center"`
	Radius int      `json:"radius"`
}

// NewCircle creates a new Circle.
func NewCircle(x, y, radius int) Circle {
	return Circle{Center: PointInt{X: x, Y: y}, Radius: radius}
}

// Bounds returns the axis-aligned bounding square of the circle.
func (c Circle) Bounds() image.Rectangle {
	return image.Rect(c.Center.X-c.Radius, c.Center.Y-c.Radius,
		c.Center.X+c.Radius, c.Center.Y+c.Radius)
}

// Contains returns true if the point lies inside or on the circle.
func (c Circle) Contains(p PointInt) bool {
	dx := float64(p.X - c.Center.X)
	dy := float64(p.Y - c.Center.Y)
	return dx*dx+dy*dy <= float64(c.Radius)*float64(c.Radius)
}

// Area returns the circle's area in square pixels.
func (c Circle) Area() float64 {
	return math.Pi * float64(c.Radius) * float64(c.Radius)
}
