package viewport

import "math"

// Point is a position in either screen or document space.
type Point struct {
	X float64
	Y float64
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Dist returns the Euclidean distance between two points.
func Dist(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Midpoint returns the centroid of two points.
func Midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// Size is a width/height pair. Viewport sizes are in screen pixels,
// content sizes in document units.
type Size struct {
	W float64
	H float64
}

// IsEmpty reports whether either dimension is zero or negative.
func (s Size) IsEmpty() bool {
	return s.W <= 0 || s.H <= 0
}

// Rect represents an axis-aligned bounding box.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Size returns the rect's dimensions.
func (r Rect) Size() Size {
	return Size{W: r.Width, H: r.Height}
}

// IsEmpty checks if the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Inset grows the rect by d on every side (shrinks it for negative d).
func (r Rect) Inset(d float64) Rect {
	return Rect{
		X:      r.X - d,
		Y:      r.Y - d,
		Width:  r.Width + 2*d,
		Height: r.Height + 2*d,
	}
}

// Center returns the center point of the rect.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}
