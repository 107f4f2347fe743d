// Package neldermead implements a globalized Nelder-Mead minimizer for
// bounded two-dimensional domains. Each run performs several simplex
// searches whose starting points are chosen away from earlier ones, all
// sharing one evaluation budget.
package neldermead

import (
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/copyleftdev/prospector/internal/optimization"
	"github.com/copyleftdev/prospector/internal/optimization/budget"
	"github.com/copyleftdev/prospector/internal/optimization/geometry"
	"github.com/copyleftdev/prospector/internal/optimization/restart"
)

// Observer receives progress notifications from a run.
type Observer interface {
	ObserveEvaluation(value float64)
	ObserveRestart(rec optimization.RestartRecord)
	ObserveRun(result *optimization.Result)
}

// Option configures an Optimizer
type Option func(*Optimizer)

// WithLogger sets the logger used for restart diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(o *Optimizer) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver attaches an observer to every run
func WithObserver(obs Observer) Option {
	return func(o *Optimizer) {
		o.observer = obs
	}
}

// WithRand makes the optimizer draw from rng instead of seeding its own
func WithRand(rng *rand.Rand) Option {
	return func(o *Optimizer) {
		o.rng = rng
	}
}

// Optimizer implements probabilistic-restart Nelder-Mead
type Optimizer struct {
	// Configuration
	config optimization.Config

	// Logger for structured logging
	logger *zap.Logger

	// Optional progress observer
	observer Observer

	// Random number generator, shared by the sampler and simplex sizing
	rng *rand.Rand
}

var _ optimization.Optimizer = (*Optimizer)(nil)

// NewOptimizer creates a new Optimizer, rejecting invalid configurations
func NewOptimizer(config optimization.Config, opts ...Option) (*Optimizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	o := &Optimizer{
		config: config,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.rng == nil {
		seed := config.RandomSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		o.rng = rand.New(rand.NewSource(seed))
	}
	o.logger = o.logger.Named("nelder_mead")

	return o, nil
}

// Config returns the optimizer's configuration
func (o *Optimizer) Config() optimization.Config {
	return o.config
}

// Minimize runs restarts until either MaxRestarts restarts have completed
// or MaxEvals evaluations have been spent. Running out of evaluations is
// the normal way for a run to end and is not reported as an error; the
// returned Result holds every restart that evaluated at least one point.
func (o *Optimizer) Minimize(objective optimization.ObjectiveFunction, bounds geometry.Bounds) (*optimization.Result, error) {
	const op = "Optimizer.Minimize"

	if objective == nil {
		return nil, optimization.WrapErrorf(optimization.ErrNilObjective, "cannot minimize").WithOperation(op)
	}
	if err := optimization.ValidateBounds(bounds); err != nil {
		return nil, err
	}

	eval := budget.NewEvaluator(objective, o.config.MaxEvals)
	if o.observer != nil {
		eval.OnEvaluate(func(_ geometry.Point, v float64) { o.observer.ObserveEvaluation(v) })
	}
	sampler := restart.NewSampler(bounds, o.config.RandomPointsPerRestart, o.rng)

	span := bounds.Range()
	minSpan := math.Min(span.X, span.Y)

	result := &optimization.Result{
		Restarts: make([]optimization.RestartRecord, 0, o.config.MaxRestarts),
	}

	for i := 1; i <= o.config.MaxRestarts; i++ {
		if eval.Exhausted() {
			break
		}

		initial := sampler.Next(result.Restarts)
		a := (0.02 + 0.08*o.rng.Float64()) * minSpan
		simplex := InitialSimplex(initial, a, bounds)

		o.logger.Debug("restart started",
			zap.Int("restart", i),
			zap.Stringer("initial_point", initial),
			zap.Float64("simplex_size", a),
			zap.Int("evals_remaining", eval.Remaining()))

		rec, ok := newEngine(o.config, bounds, eval).run(simplex)
		if !ok {
			break
		}
		result.Restarts = append(result.Restarts, rec)
		if o.observer != nil {
			o.observer.ObserveRestart(rec)
		}

		o.logger.Debug("restart finished",
			zap.Int("restart", i),
			zap.String("reason", string(rec.StopReason)),
			zap.Int("iterations", rec.Iterations),
			zap.Stringer("best_point", rec.BestPoint),
			zap.Float64("best_value", rec.ValueAtBestPoint))

		if rec.StopReason == optimization.StopBudget {
			break
		}
	}

	result.Evaluations = eval.Count()
	if o.observer != nil {
		o.observer.ObserveRun(result)
	}

	fields := []zap.Field{
		zap.Int("restarts", len(result.Restarts)),
		zap.Int("evaluations", result.Evaluations),
	}
	if best, ok := result.Best(); ok {
		fields = append(fields, zap.Stringer("best_point", best.BestPoint), zap.Float64("best_value", best.ValueAtBestPoint))
	}
	o.logger.Info("minimization finished", fields...)

	return result, nil
}
