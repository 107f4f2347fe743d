package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/copyleftdev/prospector/internal/optimization"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Optimizer struct {
		MaxRestarts             int     `env:"OPT_MAX_RESTARTS" envDefault:"15"`
		MaxEvals                int     `env:"OPT_MAX_EVALS" envDefault:"2500"`
		RandomPointsPerRestart  int     `env:"OPT_RANDOM_POINTS" envDefault:"5"`
		MaxIterationsPerRestart int     `env:"OPT_MAX_ITERATIONS" envDefault:"250"`
		Alpha                   float64 `env:"OPT_ALPHA" envDefault:"1"`
		Beta                    float64 `env:"OPT_BETA" envDefault:"0.5"`
		Gamma                   float64 `env:"OPT_GAMMA" envDefault:"2"`
		Epsilon                 float64 `env:"OPT_EPSILON" envDefault:"1e-9"`
		Sigma                   float64 `env:"OPT_SIGMA" envDefault:"5e-4"`
		DegenerateArea          float64 `env:"OPT_DEGENERATE_AREA" envDefault:"2"`
		Seed                    int64   `env:"OPT_SEED" envDefault:"0"`
		MaxConcurrentRuns       int     `env:"OPT_MAX_CONCURRENT_RUNS" envDefault:"10"`
	}
	// Ceilings applied to every run, including per-request overrides.
	// Zero disables a ceiling.
	Limits struct {
		MaxRestarts             int `env:"LIMIT_MAX_RESTARTS" envDefault:"1000"`
		MaxEvals                int `env:"LIMIT_MAX_EVALS" envDefault:"100000"`
		RandomPointsPerRestart  int `env:"LIMIT_RANDOM_POINTS" envDefault:"100"`
		MaxIterationsPerRestart int `env:"LIMIT_MAX_ITERATIONS" envDefault:"10000"`
	}
	Game struct {
		MapSize     int `env:"GAME_MAP_SIZE" envDefault:"512"`
		QueryBudget int `env:"GAME_QUERY_BUDGET" envDefault:"100"`
		Peaks       int `env:"GAME_PEAKS" envDefault:"6"`
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	// Parse environment variables
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Set default logging level based on environment
	if cfg.Environment == "development" && cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.OptimizerConfig().Validate(); err != nil {
		return nil, fmt.Errorf("optimizer settings: %w", err)
	}
	if cfg.Game.MapSize < 2 || cfg.Game.QueryBudget < 1 || cfg.Game.Peaks < 1 {
		return nil, fmt.Errorf("game settings must be positive, got map size %d, query budget %d, peaks %d",
			cfg.Game.MapSize, cfg.Game.QueryBudget, cfg.Game.Peaks)
	}
	l := cfg.Limits
	if l.MaxRestarts < 0 || l.MaxEvals < 0 || l.RandomPointsPerRestart < 0 || l.MaxIterationsPerRestart < 0 {
		return nil, fmt.Errorf("run limits must not be negative, got %+v", l)
	}
	if cfg.Optimizer.MaxConcurrentRuns < 1 {
		return nil, fmt.Errorf("max concurrent runs must be positive, got %d", cfg.Optimizer.MaxConcurrentRuns)
	}

	return cfg, nil
}

// OptimizerConfig returns the optimizer defaults described by the environment
func (c *Config) OptimizerConfig() optimization.Config {
	o := c.Optimizer
	return optimization.Config{
		MaxRestarts:             o.MaxRestarts,
		MaxEvals:                o.MaxEvals,
		RandomPointsPerRestart:  o.RandomPointsPerRestart,
		MaxIterationsPerRestart: o.MaxIterationsPerRestart,
		Alpha:                   o.Alpha,
		Beta:                    o.Beta,
		Gamma:                   o.Gamma,
		Epsilon:                 o.Epsilon,
		Sigma:                   o.Sigma,
		DegenerateArea:          o.DegenerateArea,
		RandomSeed:              o.Seed,
	}
}

// ClampRun caps the budget-related fields of o at the configured limits.
func (c *Config) ClampRun(o optimization.Config) optimization.Config {
	o.MaxRestarts = clamp(o.MaxRestarts, c.Limits.MaxRestarts)
	o.MaxEvals = clamp(o.MaxEvals, c.Limits.MaxEvals)
	o.RandomPointsPerRestart = clamp(o.RandomPointsPerRestart, c.Limits.RandomPointsPerRestart)
	o.MaxIterationsPerRestart = clamp(o.MaxIterationsPerRestart, c.Limits.MaxIterationsPerRestart)
	return o
}

func clamp(v, limit int) int {
	if limit > 0 && v > limit {
		return limit
	}
	return v
}
