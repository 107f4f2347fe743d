package geometry

import (
	"fmt"
	"math"
)

// Bounds is an axis-aligned box with Min <= Max on both axes.
type Bounds struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// NewBounds builds bounds from the two corners.
func NewBounds(minX, minY, maxX, maxY float64) Bounds {
	return Bounds{Min: Pt(minX, minY), Max: Pt(maxX, maxY)}
}

// SnapToBounds clamps each coordinate of p independently into the box.
func (b Bounds) SnapToBounds(p Point) Point {
	return Point{
		X: math.Max(math.Min(p.X, b.Max.X), b.Min.X),
		Y: math.Max(math.Min(p.Y, b.Max.Y), b.Min.Y),
	}
}

// Range returns the extent of the box per axis.
func (b Bounds) Range() Point {
	return b.Max.Sub(b.Min)
}

// Contains reports whether p lies inside the box, edges included.
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// Area returns the area of the box.
func (b Bounds) Area() float64 {
	r := b.Range()
	return r.X * r.Y
}

// Validate reports an error if the box has non-finite corners, an extent
// that overflows, or a non-positive extent on either axis.
func (b Bounds) Validate() error {
	if !b.Min.IsFinite() || !b.Max.IsFinite() {
		return fmt.Errorf("bounds corners must be finite, got min=%v max=%v", b.Min, b.Max)
	}
	r := b.Range()
	if !r.IsFinite() {
		return fmt.Errorf("bounds range must be finite, got %v", r)
	}
	if r.X <= 0 || r.Y <= 0 {
		return fmt.Errorf("bounds range must be positive on both axes, got %v", r)
	}
	return nil
}
