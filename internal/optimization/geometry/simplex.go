package geometry

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Simplex is a triangle. The vertex order carries no meaning until the
// simplex is sorted against its Values.
type Simplex struct {
	P1, P2, P3 Point
}

// Values holds the objective values at P1, P2 and P3 of a Simplex.
type Values struct {
	V1, V2, V3 float64
}

// Bounds returns the tightest box containing the three vertices.
func (s Simplex) Bounds() Bounds {
	xs := []float64{s.P1.X, s.P2.X, s.P3.X}
	ys := []float64{s.P1.Y, s.P2.Y, s.P3.Y}
	return Bounds{
		Min: Pt(floats.Min(xs), floats.Min(ys)),
		Max: Pt(floats.Max(xs), floats.Max(ys)),
	}
}

// Area returns the unsigned area of the triangle using the shoelace formula.
func (s Simplex) Area() float64 {
	return math.Abs((s.P1.X-s.P3.X)*(s.P2.Y-s.P3.Y)-(s.P2.X-s.P3.X)*(s.P1.Y-s.P3.Y)) / 2
}

// Slice returns the values in vertex order.
func (v Values) Slice() []float64 {
	return []float64{v.V1, v.V2, v.V3}
}

// Sort orders the simplex and its values together, ascending by value.
// Ties keep their original order, so sorting twice equals sorting once.
func Sort(s Simplex, v Values) (Simplex, Values) {
	type vertex struct {
		p Point
		v float64
	}
	vs := []vertex{{s.P1, v.V1}, {s.P2, v.V2}, {s.P3, v.V3}}
	sort.SliceStable(vs, func(i, j int) bool { return vs[i].v < vs[j].v })

	return Simplex{P1: vs[0].p, P2: vs[1].p, P3: vs[2].p},
		Values{V1: vs[0].v, V2: vs[1].v, V3: vs[2].v}
}
