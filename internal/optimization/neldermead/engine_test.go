package neldermead

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/prospector/internal/optimization"
	"github.com/copyleftdev/prospector/internal/optimization/budget"
	"github.com/copyleftdev/prospector/internal/optimization/geometry"
)

func newTestEngine(f optimization.ObjectiveFunction, bounds geometry.Bounds, maxEvals int) (*engine, *budget.Evaluator) {
	eval := budget.NewEvaluator(f, maxEvals)
	return newEngine(optimization.DefaultConfig(), bounds, eval), eval
}

func TestInitialSimplex(t *testing.T) {
	bounds := geometry.NewBounds(0, 0, 100, 100)
	a := 10.0
	p := a * (math.Sqrt(3) + 1) / (2 * math.Sqrt(2))
	q := a * (math.Sqrt(3) - 1) / (2 * math.Sqrt(2))

	s := InitialSimplex(geometry.Pt(50, 50), a, bounds)
	assert.Equal(t, geometry.Pt(50, 50), s.P1)
	assert.InDelta(t, 50+p, s.P2.X, 1e-12)
	assert.InDelta(t, 50+q, s.P2.Y, 1e-12)
	assert.InDelta(t, 50+q, s.P3.X, 1e-12)
	assert.InDelta(t, 50+p, s.P3.Y, 1e-12)

	// All three sides have length a.
	assert.InDelta(t, a, s.P1.Dist(s.P2), 1e-9)
	assert.InDelta(t, a, s.P1.Dist(s.P3), 1e-9)
	assert.InDelta(t, a, s.P2.Dist(s.P3), 1e-9)

	corner := InitialSimplex(geometry.Pt(99, 99), a, bounds)
	assert.True(t, bounds.Contains(corner.P2))
	assert.True(t, bounds.Contains(corner.P3))
	assert.Equal(t, 100.0, corner.P2.X)
	assert.Equal(t, 100.0, corner.P3.Y)
}

func TestStepExpansion(t *testing.T) {
	f := func(p geometry.Point) float64 { return p.X }
	e, eval := newTestEngine(f, geometry.NewBounds(0, 0, 100, 100), 100)

	s := geometry.Simplex{P1: geometry.Pt(10, 0), P2: geometry.Pt(12, 5), P3: geometry.Pt(20, 0)}
	v := geometry.Values{V1: 10, V2: 12, V3: 20}
	var stale [3]bool

	require.True(t, e.step(&s, &v, &stale))

	// Reflection (2, 5) beats the best, expansion (-7, 7.5) is clamped to (0, 7.5).
	assert.Equal(t, geometry.Pt(0, 7.5), s.P3)
	assert.Equal(t, 0.0, v.V3)
	assert.Equal(t, 2, eval.Count())
	assert.Equal(t, [3]bool{}, stale)
}

func TestStepReflection(t *testing.T) {
	f := func(p geometry.Point) float64 { return (p.X - 12) * (p.X - 12) }
	e, eval := newTestEngine(f, geometry.NewBounds(0, 0, 100, 100), 100)

	s := geometry.Simplex{P1: geometry.Pt(12, 0), P2: geometry.Pt(15, 10), P3: geometry.Pt(16, 0)}
	v := geometry.Values{V1: 0, V2: 9, V3: 16}
	var stale [3]bool

	require.True(t, e.step(&s, &v, &stale))

	assert.Equal(t, geometry.Pt(11, 10), s.P3)
	assert.Equal(t, 1.0, v.V3)
	assert.Equal(t, 1, eval.Count())
}

func TestStepContraction(t *testing.T) {
	f := func(p geometry.Point) float64 { return p.Y * p.Y }
	e, eval := newTestEngine(f, geometry.NewBounds(-100, -100, 100, 100), 100)

	s := geometry.Simplex{P1: geometry.Pt(0, 0), P2: geometry.Pt(10, 1), P3: geometry.Pt(5, -2)}
	v := geometry.Values{V1: 0, V2: 1, V3: 4}
	var stale [3]bool

	require.True(t, e.step(&s, &v, &stale))

	// Reflection (5, 3) is worse than the worst, contraction (5, -0.75) is accepted.
	assert.Equal(t, geometry.Pt(5, -0.75), s.P3)
	assert.Equal(t, 0.5625, v.V3)
	assert.Equal(t, 2, eval.Count())
	assert.Equal(t, [3]bool{}, stale)
}

func TestStepShrinkKeepsProvisionalReflection(t *testing.T) {
	f := func(p geometry.Point) float64 { return p.Y * p.Y }
	e, eval := newTestEngine(f, geometry.NewBounds(-100, -100, 100, 100), 100)

	s := geometry.Simplex{P1: geometry.Pt(0, 0), P2: geometry.Pt(10, 1), P3: geometry.Pt(5, 3)}
	v := geometry.Values{V1: 0, V2: 1, V3: 9}
	var stale [3]bool

	require.True(t, e.step(&s, &v, &stale))

	// Reflection (5, -2) replaced the worst before the contraction (5, 1.75)
	// was rejected, so the shrink pulls the reflection towards the best.
	assert.Equal(t, geometry.Pt(0, 0), s.P1)
	assert.Equal(t, geometry.Pt(5, 0.5), s.P2)
	assert.Equal(t, geometry.Pt(2.5, -1), s.P3)
	assert.Equal(t, [3]bool{false, true, true}, stale)
	assert.Equal(t, 2, eval.Count())
}

func TestStepBudgetExhausted(t *testing.T) {
	f := func(p geometry.Point) float64 { return p.X }
	e, _ := newTestEngine(f, geometry.NewBounds(0, 0, 100, 100), 1)

	s := geometry.Simplex{P1: geometry.Pt(10, 0), P2: geometry.Pt(12, 5), P3: geometry.Pt(20, 0)}
	v := geometry.Values{V1: 10, V2: 12, V3: 20}
	var stale [3]bool

	// The reflection uses the only evaluation, the expansion is refused.
	assert.False(t, e.step(&s, &v, &stale))
	assert.Equal(t, geometry.Pt(2, 5), e.best)
	assert.Equal(t, 2.0, e.bestValue)
}

func TestConvergedOrder(t *testing.T) {
	bounds := geometry.NewBounds(0, 0, 100, 100)
	e, _ := newTestEngine(func(geometry.Point) float64 { return 0 }, bounds, 10)

	tiny := geometry.Simplex{P1: geometry.Pt(1, 1), P2: geometry.Pt(1.01, 1), P3: geometry.Pt(1, 1.01)}

	// Flat values win over every other test.
	reason, done := e.converged(tiny, geometry.Values{V1: 3, V2: 3, V3: 3})
	require.True(t, done)
	assert.Equal(t, optimization.StopFlat, reason)

	reason, done = e.converged(tiny, geometry.Values{V1: 1, V2: 2, V3: 3})
	require.True(t, done)
	assert.Equal(t, optimization.StopSmall, reason)

	sliver := geometry.Simplex{P1: geometry.Pt(0, 0), P2: geometry.Pt(50, 0), P3: geometry.Pt(25, 0.01)}
	reason, done = e.converged(sliver, geometry.Values{V1: 1, V2: 2, V3: 3})
	require.True(t, done)
	assert.Equal(t, optimization.StopDegenerate, reason)

	wide := geometry.Simplex{P1: geometry.Pt(0, 0), P2: geometry.Pt(50, 0), P3: geometry.Pt(0, 50)}
	_, done = e.converged(wide, geometry.Values{V1: 1, V2: 2, V3: 3})
	assert.False(t, done)
}

func TestRunRefreshesStaleVertices(t *testing.T) {
	calls := 0
	f := func(p geometry.Point) float64 {
		calls++
		return p.X*p.X + p.Y*p.Y
	}
	e, eval := newTestEngine(f, geometry.NewBounds(-100, -100, 100, 100), 1000)

	rec, ok := e.run(InitialSimplex(geometry.Pt(40, -30), 10, geometry.NewBounds(-100, -100, 100, 100)))
	require.True(t, ok)
	assert.Equal(t, geometry.Pt(40, -30), rec.InitialPoint)
	assert.Equal(t, 2500.0, rec.ValueAtInitialPoint)
	assert.Less(t, rec.ValueAtBestPoint, rec.ValueAtInitialPoint)
	assert.Equal(t, calls, eval.Count())
	assert.NotEqual(t, optimization.StopBudget, rec.StopReason)
}

func TestRunWithoutBudget(t *testing.T) {
	e, _ := newTestEngine(func(geometry.Point) float64 { return 1 }, geometry.NewBounds(0, 0, 10, 10), 0)

	_, ok := e.run(InitialSimplex(geometry.Pt(1, 1), 1, geometry.NewBounds(0, 0, 10, 10)))
	assert.False(t, ok)
}
