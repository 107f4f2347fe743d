package optimization

import (
	"github.com/copyleftdev/prospector/internal/optimization/geometry"
)

// Optimizer defines the interface for bounded two-dimensional minimizers
type Optimizer interface {
	// Minimize searches bounds for low values of objective
	Minimize(objective ObjectiveFunction, bounds geometry.Bounds) (*Result, error)
}

// ObjectiveFunction is the caller-supplied function being minimized
type ObjectiveFunction func(geometry.Point) float64

// Config contains the tunables of a probabilistic-restart Nelder-Mead run
type Config struct {
	// Maximum number of restarts
	MaxRestarts int `json:"max_restarts"`

	// Global cap on objective evaluations across all restarts
	MaxEvals int `json:"max_evals"`

	// Random candidates drawn per restart in addition to the first one
	RandomPointsPerRestart int `json:"random_points_per_restart"`

	// Maximum simplex iterations per restart
	MaxIterationsPerRestart int `json:"max_iterations_per_restart"`

	// Reflection coefficient
	Alpha float64 `json:"alpha"`

	// Contraction coefficient
	Beta float64 `json:"beta"`

	// Expansion coefficient
	Gamma float64 `json:"gamma"`

	// Flatness threshold on the standard deviation of vertex values
	Epsilon float64 `json:"epsilon"`

	// Small simplex threshold as a fraction of the domain range
	Sigma float64 `json:"sigma"`

	// Absolute area below which a simplex counts as degenerate
	DegenerateArea float64 `json:"degenerate_area"`

	// Random seed; zero seeds from the clock
	RandomSeed int64 `json:"random_seed"`
}

// DefaultConfig returns the classical Nelder-Mead coefficients and
// generous budgets.
func DefaultConfig() Config {
	return Config{
		MaxRestarts:             15,
		MaxEvals:                2500,
		RandomPointsPerRestart:  5,
		MaxIterationsPerRestart: 250,
		Alpha:                   1,
		Beta:                    0.5,
		Gamma:                   2,
		Epsilon:                 1e-9,
		Sigma:                   5e-4,
		DegenerateArea:          2,
	}
}

// Validate rejects configurations that would make the search meaningless.
func (c Config) Validate() error {
	const op = "Config.Validate"

	switch {
	case c.MaxRestarts < 1:
		return invalidConfig(op, "max restarts must be positive, got %d", c.MaxRestarts)
	case c.MaxEvals < 1:
		return invalidConfig(op, "max evals must be positive, got %d", c.MaxEvals)
	case c.RandomPointsPerRestart < 1:
		return invalidConfig(op, "random points per restart must be positive, got %d", c.RandomPointsPerRestart)
	case c.MaxIterationsPerRestart < 1:
		return invalidConfig(op, "max iterations per restart must be positive, got %d", c.MaxIterationsPerRestart)
	case !(c.Alpha > 0):
		return invalidConfig(op, "alpha must be positive, got %v", c.Alpha)
	case !(c.Beta > 0):
		return invalidConfig(op, "beta must be positive, got %v", c.Beta)
	case !(c.Gamma > 0):
		return invalidConfig(op, "gamma must be positive, got %v", c.Gamma)
	case !(c.Epsilon > 0):
		return invalidConfig(op, "epsilon must be positive, got %v", c.Epsilon)
	case !(c.Sigma > 0):
		return invalidConfig(op, "sigma must be positive, got %v", c.Sigma)
	case !(c.DegenerateArea > 0):
		return invalidConfig(op, "degenerate area must be positive, got %v", c.DegenerateArea)
	}
	return nil
}

// StopReason records why a restart ended
type StopReason string

const (
	StopFlat       StopReason = "flat"
	StopSmall      StopReason = "small"
	StopDegenerate StopReason = "degenerate"
	StopIterations StopReason = "iterations"
	StopBudget     StopReason = "budget"
)

// RestartRecord is the outcome of one restart
type RestartRecord struct {
	InitialPoint        geometry.Point `json:"initial_point"`
	ValueAtInitialPoint float64        `json:"value_at_initial_point"`
	BestPoint           geometry.Point `json:"best_point"`
	ValueAtBestPoint    float64        `json:"value_at_best_point"`
	Iterations          int            `json:"iterations"`
	StopReason          StopReason     `json:"stop_reason"`
}

// Result contains every restart of a run in restart order
type Result struct {
	Restarts    []RestartRecord `json:"restarts"`
	Evaluations int             `json:"evaluations"`
}

// Best returns the restart with the lowest ValueAtBestPoint, or false when
// no restart was recorded.
func (r *Result) Best() (RestartRecord, bool) {
	if r == nil || len(r.Restarts) == 0 {
		return RestartRecord{}, false
	}
	best := r.Restarts[0]
	for _, rec := range r.Restarts[1:] {
		if rec.ValueAtBestPoint < best.ValueAtBestPoint {
			best = rec
		}
	}
	return best, true
}

// VisitedPoints returns the initial and best point of every restart.
func (r *Result) VisitedPoints() []geometry.Point {
	if r == nil {
		return nil
	}
	return VisitedPoints(r.Restarts)
}

// VisitedPoints flattens records into their best and initial points.
func VisitedPoints(records []RestartRecord) []geometry.Point {
	points := make([]geometry.Point, 0, 2*len(records))
	for _, rec := range records {
		points = append(points, rec.BestPoint, rec.InitialPoint)
	}
	return points
}
