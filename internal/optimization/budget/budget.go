// Package budget caps how many times an objective function may be called
// during one optimization run.
package budget

import (
	"github.com/copyleftdev/prospector/internal/optimization"
	"github.com/copyleftdev/prospector/internal/optimization/geometry"
)

// Evaluator owns the evaluation counter for a single run. It is shared by
// every restart so the cap is global. Not safe for concurrent use.
type Evaluator struct {
	objective optimization.ObjectiveFunction
	maxEvals  int
	count     int
	onEval    func(p geometry.Point, value float64)
}

// NewEvaluator wraps objective with a cap of maxEvals calls.
func NewEvaluator(objective optimization.ObjectiveFunction, maxEvals int) *Evaluator {
	return &Evaluator{
		objective: objective,
		maxEvals:  maxEvals,
	}
}

// OnEvaluate registers a hook run after every successful evaluation.
func (e *Evaluator) OnEvaluate(fn func(p geometry.Point, value float64)) {
	e.onEval = fn
}

// Evaluate calls the objective at p. It returns ok=false, without calling
// the objective, once maxEvals calls have been made.
func (e *Evaluator) Evaluate(p geometry.Point) (value float64, ok bool) {
	if e.count >= e.maxEvals {
		return 0, false
	}
	e.count++
	value = e.objective(p)
	if e.onEval != nil {
		e.onEval(p, value)
	}
	return value, true
}

// Count returns the number of evaluations performed.
func (e *Evaluator) Count() int {
	return e.count
}

// Remaining returns how many evaluations are left.
func (e *Evaluator) Remaining() int {
	return e.maxEvals - e.count
}

// Exhausted reports whether the next Evaluate would be refused.
func (e *Evaluator) Exhausted() bool {
	return e.count >= e.maxEvals
}
