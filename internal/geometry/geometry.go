// Package geometry holds the rectangle and point types shared by the
// registry, the navigator and the element adapters.
package geometry

import "math"

// Point is a position in viewport coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an element's bounding box in viewport coordinates, laid out like
// a DOMRect.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the center point of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Collapsed reports whether the rectangle has no width. Removed or hidden
// elements report a collapsed rect.
func (r Rect) Collapsed() bool {
	return r.Width == 0
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Scale multiplies each axis of p by the given factors.
func (p Point) Scale(sx, sy float64) Point {
	return Point{X: p.X * sx, Y: p.Y * sy}
}
