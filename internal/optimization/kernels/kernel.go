package kernels

import (
	"fmt"
	"math"
)

// DefaultLengthParam is the Gaussian length parameter used for restart
// density estimates.
const DefaultLengthParam = 0.01

// Kernel represents a kernel function evaluated between two points
type Kernel interface {
	// Eval computes the kernel value between two points x1 and x2
	Eval(x1, x2 []float64) float64
}

// DensityKernel is a normalized Gaussian whose per-axis distances are
// measured relative to the search domain's range.
//
//	k(x1, x2) = exp(-|(x1-x2)/range|² / (2·l)) / (2π·l·Π range)
type DensityKernel struct {
	// Length parameter (larger = wider bumps)
	lengthParam float64
	// Per-axis scale, usually the domain range
	scale []float64
	// Cached normalization 2π·l·Π scale
	norm float64
}

// NewDensityKernel creates a density kernel with the given length parameter
// and per-axis scale.
func NewDensityKernel(lengthParam float64, scale ...float64) *DensityKernel {
	if lengthParam <= 0 {
		panic(fmt.Sprintf("lengthParam must be positive, got %v", lengthParam))
	}
	if len(scale) == 0 {
		panic("at least one scale is required")
	}
	for _, s := range scale {
		if s <= 0 {
			panic(fmt.Sprintf("scale must be positive, got %v", scale))
		}
	}
	k := &DensityKernel{
		lengthParam: lengthParam,
		scale:       append([]float64(nil), scale...),
	}
	k.normalize()
	return k
}

func (k *DensityKernel) normalize() {
	k.norm = 2 * math.Pi * k.lengthParam
	for _, s := range k.scale {
		k.norm *= s
	}
}

// Eval computes the density contribution at x1 of a bump centred at x2
func (k *DensityKernel) Eval(x1, x2 []float64) float64 {
	sumSq := 0.0
	for i := range x1 {
		r := (x1[i] - x2[i]) / k.scale[i]
		sumSq += r * r
	}
	return math.Exp(-sumSq/(2*k.lengthParam)) / k.norm
}

// Sum returns Σ k(x, c) over all centres.
func Sum(k Kernel, x []float64, centres [][]float64) float64 {
	total := 0.0
	for _, c := range centres {
		total += k.Eval(x, c)
	}
	return total
}
