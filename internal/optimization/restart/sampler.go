// Package restart picks starting points for new simplex restarts, favouring
// regions that earlier restarts have not visited.
package restart

import (
	"math"
	"math/rand"

	"github.com/copyleftdev/prospector/internal/optimization"
	"github.com/copyleftdev/prospector/internal/optimization/geometry"
	"github.com/copyleftdev/prospector/internal/optimization/kernels"
)

// Sampler draws restart points by minimizing a sum-of-Gaussians density
// over previously visited points.
type Sampler struct {
	bounds     geometry.Bounds
	candidates int
	kernel     kernels.Kernel
	rng        *rand.Rand
}

// NewSampler creates a sampler over bounds that scores randomPoints+1
// uniform candidates per restart. bounds must have a positive range.
func NewSampler(bounds geometry.Bounds, randomPoints int, rng *rand.Rand) *Sampler {
	r := bounds.Range()
	return &Sampler{
		bounds:     bounds,
		candidates: randomPoints + 1,
		kernel:     kernels.NewDensityKernel(kernels.DefaultLengthParam, r.X, r.Y),
		rng:        rng,
	}
}

// Next returns the least crowded of the drawn candidates given the restarts
// recorded so far. With no history every candidate scores zero and the
// first one drawn wins.
func (s *Sampler) Next(history []optimization.RestartRecord) geometry.Point {
	visited := optimization.VisitedPoints(history)

	best := geometry.Point{}
	bestDensity := math.Inf(1)
	for i := 0; i < s.candidates; i++ {
		candidate := s.uniform()
		density := s.Density(candidate, visited)
		if density < bestDensity {
			bestDensity = density
			best = candidate
		}
	}
	return best
}

// Density returns the restart density at p for the given visited points.
func (s *Sampler) Density(p geometry.Point, visited []geometry.Point) float64 {
	centres := make([][]float64, len(visited))
	for i, v := range visited {
		centres[i] = v.Slice()
	}
	return kernels.Sum(s.kernel, p.Slice(), centres)
}

func (s *Sampler) uniform() geometry.Point {
	r := s.bounds.Range()
	return geometry.Pt(
		s.bounds.Min.X+r.X*s.rng.Float64(),
		s.bounds.Min.Y+r.Y*s.rng.Float64(),
	)
}
