package prospect

import (
	"math"

	"go.uber.org/zap"

	"github.com/copyleftdev/prospector/internal/optimization"
	"github.com/copyleftdev/prospector/internal/optimization/geometry"
	"github.com/copyleftdev/prospector/internal/optimization/neldermead"
)

// ToCoord rounds p half-up to the nearest cell and clamps it onto a
// size x size map.
func ToCoord(p geometry.Point, size int) Coord {
	return Coord{X: roundClamp(p.X, size), Y: roundClamp(p.Y, size)}
}

func roundClamp(v float64, size int) int {
	i := int(math.Floor(v + 0.5))
	if i < 0 {
		return 0
	}
	if i >= size {
		return size - 1
	}
	return i
}

// Objective turns probe into a function the optimizer can minimize.
// Repeated cells are answered from the probe history instead of spending
// another query, and values are negated because the game maximizes.
func Objective(probe Probe, size int) optimization.ObjectiveFunction {
	return func(p geometry.Point) float64 {
		c := ToCoord(p, size)
		if v, ok := probe.History()[c]; ok {
			return -float64(v)
		}
		return -float64(probe.Query(c))
	}
}

// Bounds returns the continuous search domain for a size x size map. It is
// offset by half a cell so every cell gets an equal share after rounding.
func Bounds(size int) geometry.Bounds {
	return geometry.NewBounds(-0.5, -0.5, float64(size)-0.5, float64(size)-0.5)
}

// BotConfig returns optimizer settings for a single game episode. The
// restart and iteration caps are generous so that the query budget is
// what normally ends the search.
func BotConfig(size, queryBudget int) optimization.Config {
	cfg := optimization.DefaultConfig()
	cfg.MaxRestarts = 100
	cfg.MaxEvals = queryBudget
	cfg.RandomPointsPerRestart = 5
	cfg.MaxIterationsPerRestart = 15
	cfg.Epsilon = 1
	cfg.Sigma = 10 / float64(size)
	return cfg
}

// Prospector plays episodes with the probabilistic-restart optimizer.
type Prospector struct {
	size    int
	config  optimization.Config
	options []neldermead.Option
	logger  *zap.Logger
}

// NewProspector creates a prospector for size x size plots. Options are
// passed through to the optimizer of every episode.
func NewProspector(size int, config optimization.Config, logger *zap.Logger, opts ...neldermead.Option) *Prospector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prospector{
		size:    size,
		config:  config,
		options: append([]neldermead.Option{neldermead.WithLogger(logger)}, opts...),
		logger:  logger.Named("prospector"),
	}
}

// Outcome summarizes one episode.
type Outcome struct {
	Best     Coord                `json:"best"`
	Value    int                  `json:"value"`
	Queries  int                  `json:"queries"`
	Restarts int                  `json:"restarts"`
	Result   *optimization.Result `json:"result"`
}

// Prospect searches the plot behind probe and reports the best cell queried.
func (p *Prospector) Prospect(probe Probe) (*Outcome, error) {
	opt, err := neldermead.NewOptimizer(p.config, p.options...)
	if err != nil {
		return nil, err
	}

	before := probe.QueriesRemaining()
	res, err := opt.Minimize(Objective(probe, p.size), Bounds(p.size))
	if err != nil {
		return nil, err
	}

	best, value, _ := BestQueried(probe)
	out := &Outcome{
		Best:     best,
		Value:    value,
		Queries:  before - probe.QueriesRemaining(),
		Restarts: len(res.Restarts),
		Result:   res,
	}

	p.logger.Debug("episode finished",
		zap.Stringer("best", best),
		zap.Int("value", value),
		zap.Int("queries", out.Queries),
		zap.Int("restarts", out.Restarts))

	return out, nil
}
