package neldermead

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/copyleftdev/prospector/internal/optimization"
	"github.com/copyleftdev/prospector/internal/optimization/budget"
	"github.com/copyleftdev/prospector/internal/optimization/geometry"
)

var (
	sqrt2 = math.Sqrt(2)
	sqrt3 = math.Sqrt(3)
)

// InitialSimplex builds the fixed-size triangle with vertex p1 and size a,
// clamping the two new vertices into bounds.
func InitialSimplex(p1 geometry.Point, a float64, bounds geometry.Bounds) geometry.Simplex {
	p := a * (sqrt3 + 1) / (2 * sqrt2)
	q := a * (sqrt3 - 1) / (2 * sqrt2)

	return geometry.Simplex{
		P1: p1,
		P2: bounds.SnapToBounds(geometry.Pt(p1.X+p, p1.Y+q)),
		P3: bounds.SnapToBounds(geometry.Pt(p1.X+q, p1.Y+p)),
	}
}

// engine runs the simplex iterations of a single restart.
type engine struct {
	cfg    optimization.Config
	bounds geometry.Bounds
	span   geometry.Point
	eval   *budget.Evaluator

	// best evaluation seen during this restart
	best      geometry.Point
	bestValue float64
	initial   float64
	evaluated int
}

func newEngine(cfg optimization.Config, bounds geometry.Bounds, eval *budget.Evaluator) *engine {
	return &engine{
		cfg:    cfg,
		bounds: bounds,
		span:   bounds.Range(),
		eval:   eval,
	}
}

// evaluate spends one unit of budget and tracks the best value seen.
func (e *engine) evaluate(p geometry.Point) (float64, bool) {
	v, ok := e.eval.Evaluate(p)
	if !ok {
		return 0, false
	}
	if e.evaluated == 0 {
		e.initial = v
	}
	if e.evaluated == 0 || v < e.bestValue {
		e.best, e.bestValue = p, v
	}
	e.evaluated++
	return v, true
}

// run iterates from the initial simplex until a convergence test fires,
// the iteration cap is hit or the budget runs out. The record is only
// valid when ok is true, i.e. at least one vertex was evaluated.
func (e *engine) run(start geometry.Simplex) (rec optimization.RestartRecord, ok bool) {
	simplex := start
	var values geometry.Values
	stale := [3]bool{true, true, true}

	reason := optimization.StopIterations
	iterations := 0
	for iterations < e.cfg.MaxIterationsPerRestart {
		iterations++

		if !e.refresh(&simplex, &values, &stale) {
			reason = optimization.StopBudget
			break
		}
		simplex, values = geometry.Sort(simplex, values)

		if r, done := e.converged(simplex, values); done {
			reason = r
			break
		}

		if !e.step(&simplex, &values, &stale) {
			reason = optimization.StopBudget
			break
		}
	}

	if e.evaluated == 0 {
		return optimization.RestartRecord{}, false
	}
	return optimization.RestartRecord{
		InitialPoint:        start.P1,
		ValueAtInitialPoint: e.initial,
		BestPoint:           e.best,
		ValueAtBestPoint:    e.bestValue,
		Iterations:          iterations,
		StopReason:          reason,
	}, true
}

// refresh evaluates vertices whose values are stale, in vertex order.
func (e *engine) refresh(s *geometry.Simplex, v *geometry.Values, stale *[3]bool) bool {
	vertices := [3]*geometry.Point{&s.P1, &s.P2, &s.P3}
	values := [3]*float64{&v.V1, &v.V2, &v.V3}
	for i := range vertices {
		if !stale[i] {
			continue
		}
		val, ok := e.evaluate(*vertices[i])
		if !ok {
			return false
		}
		*values[i] = val
		stale[i] = false
	}
	return true
}

// converged applies the flatness, small simplex and degeneracy tests in
// that order to a sorted simplex.
func (e *engine) converged(s geometry.Simplex, v geometry.Values) (optimization.StopReason, bool) {
	if _, sd := stat.PopMeanStdDev(v.Slice(), nil); sd < e.cfg.Epsilon {
		return optimization.StopFlat, true
	}

	extent := s.Bounds().Range()
	if math.Max(extent.X/e.span.X, extent.Y/e.span.Y) < e.cfg.Sigma {
		return optimization.StopSmall, true
	}

	if s.Area() < e.cfg.DegenerateArea {
		return optimization.StopDegenerate, true
	}
	return "", false
}

// step performs one reflect/expand/contract/shrink move on a sorted
// simplex. It returns false if the budget ran out mid-step.
func (e *engine) step(s *geometry.Simplex, v *geometry.Values, stale *[3]bool) bool {
	best, worst := s.P1, s.P3
	centroid := s.P1.Add(s.P2).Div(2)

	reflection := e.bounds.SnapToBounds(centroid.Add(centroid.Sub(worst).Scale(e.cfg.Alpha)))
	fr, ok := e.evaluate(reflection)
	if !ok {
		return false
	}

	switch {
	case fr < v.V1:
		expansion := e.bounds.SnapToBounds(centroid.Add(reflection.Sub(centroid).Scale(e.cfg.Gamma)))
		fe, ok := e.evaluate(expansion)
		if !ok {
			return false
		}
		if fe < fr {
			s.P3, v.V3 = expansion, fe
		} else {
			s.P3, v.V3 = reflection, fr
		}

	case fr <= v.V2:
		s.P3, v.V3 = reflection, fr

	default:
		// Phase one: a reflection that beats the worst vertex replaces it
		// and stays even if the contraction below is rejected.
		if fr < v.V3 {
			s.P3, v.V3 = reflection, fr
		}

		// Phase two: contract towards the original worst vertex, unclamped.
		contraction := centroid.Add(worst.Sub(centroid).Scale(e.cfg.Beta))
		fc, ok := e.evaluate(contraction)
		if !ok {
			return false
		}
		if fc <= v.V2 {
			s.P3, v.V3 = contraction, fc
			return true
		}

		// Shrink towards the best vertex; the moved vertices are
		// re-evaluated on the next iteration.
		s.P2 = s.P2.Add(best).Div(2)
		s.P3 = s.P3.Add(best).Div(2)
		stale[1], stale[2] = true, true
	}
	return true
}
