package restart

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/prospector/internal/optimization"
	"github.com/copyleftdev/prospector/internal/optimization/geometry"
)

var domain = geometry.NewBounds(-0.5, -0.5, 511.5, 511.5)

func TestNextWithoutHistoryPicksFirstCandidate(t *testing.T) {
	const seed = 42

	s := NewSampler(domain, 5, rand.New(rand.NewSource(seed)))
	got := s.Next(nil)

	// Replay the first uniform draw from the same seed.
	rng := rand.New(rand.NewSource(seed))
	want := geometry.Pt(-0.5+512*rng.Float64(), -0.5+512*rng.Float64())

	assert.Equal(t, want, got)
}

func TestNextConsumesAllCandidates(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	s := NewSampler(domain, 5, rng)
	s.Next(nil)

	// 6 candidates x 2 coordinates.
	replay := rand.New(rand.NewSource(3))
	for i := 0; i < 12; i++ {
		replay.Float64()
	}
	assert.Equal(t, replay.Float64(), rng.Float64())
}

func TestNextStaysInBounds(t *testing.T) {
	s := NewSampler(domain, 5, rand.New(rand.NewSource(1)))
	var history []optimization.RestartRecord
	for i := 0; i < 50; i++ {
		p := s.Next(history)
		require.True(t, domain.Contains(p), "restart point %v outside %v", p, domain)
		history = append(history, optimization.RestartRecord{InitialPoint: p, BestPoint: p})
	}
}

func TestNextAvoidsVisitedRegion(t *testing.T) {
	// Crowd the lower-left quadrant with visited points.
	var history []optimization.RestartRecord
	for x := 0.0; x < 256; x += 32 {
		for y := 0.0; y < 256; y += 32 {
			history = append(history, optimization.RestartRecord{
				InitialPoint: geometry.Pt(x, y),
				BestPoint:    geometry.Pt(x+8, y+8),
			})
		}
	}

	s := NewSampler(domain, 50, rand.New(rand.NewSource(9)))
	inCrowd := 0
	for i := 0; i < 100; i++ {
		p := s.Next(history)
		if p.X < 240 && p.Y < 240 {
			inCrowd++
		}
	}
	assert.Less(t, inCrowd, 10, "sampler kept choosing the crowded quadrant")
}

func TestDensity(t *testing.T) {
	s := NewSampler(domain, 1, rand.New(rand.NewSource(1)))

	assert.Equal(t, 0.0, s.Density(geometry.Pt(10, 10), nil))

	near := s.Density(geometry.Pt(10, 10), []geometry.Point{geometry.Pt(12, 12)})
	far := s.Density(geometry.Pt(400, 400), []geometry.Point{geometry.Pt(12, 12)})
	assert.Greater(t, near, far)
}

func TestNextPicksLowestDensityCandidate(t *testing.T) {
	const seed = 9
	history := []optimization.RestartRecord{
		{InitialPoint: geometry.Pt(100, 100), BestPoint: geometry.Pt(120, 90)},
		{InitialPoint: geometry.Pt(400, 380), BestPoint: geometry.Pt(410, 400)},
	}

	s := NewSampler(domain, 5, rand.New(rand.NewSource(seed)))
	got := s.Next(history)

	// Replay the six candidates and score them the same way.
	replay := rand.New(rand.NewSource(seed))
	visited := optimization.VisitedPoints(history)
	var want geometry.Point
	for i := 0; i < 6; i++ {
		c := geometry.Pt(-0.5+512*replay.Float64(), -0.5+512*replay.Float64())
		if i == 0 || s.Density(c, visited) < s.Density(want, visited) {
			want = c
		}
	}
	assert.Equal(t, want, got)
}
