package server

import (
	"encoding/json"
	"math/rand"
	"time"

	apperrors "github.com/copyleftdev/prospector/internal/errors"
	"github.com/copyleftdev/prospector/internal/optimization"
	"github.com/copyleftdev/prospector/internal/optimization/geometry"
	"github.com/copyleftdev/prospector/internal/prospect"
)

// Named objectives a client can ask the service to minimize.
const (
	ObjectiveBowl  = "bowl"
	ObjectiveFlat  = "flat"
	ObjectiveField = "field"
)

// OptimizeRequest starts a run.
//
// Bounds are given per axis as [[minX, maxX], [minY, maxY]]. The field
// objective plays a generated game plot and ignores Bounds and Target.
// Config is merged over the server defaults, so only the fields to change
// need to be sent. Budgets above the server limits are capped.
type OptimizeRequest struct {
	Objective string          `json:"objective"`
	Bounds    [][]float64     `json:"bounds,omitempty"`
	Target    []float64       `json:"target,omitempty"`
	Config    json.RawMessage `json:"config,omitempty"`
	Seed      int64           `json:"seed,omitempty"`
}

// job is a validated request ready to run.
type job struct {
	objective optimization.ObjectiveFunction
	bounds    geometry.Bounds
	config    optimization.Config

	// Set for the field objective only
	plot  *prospect.Plot
	field *prospect.Field
	size  int
}

func parseBounds(raw [][]float64) (geometry.Bounds, error) {
	if len(raw) != 2 || len(raw[0]) != 2 || len(raw[1]) != 2 {
		return geometry.Bounds{}, apperrors.BadRequest("invalid bounds format, expected [[minX, maxX], [minY, maxY]]")
	}
	b := geometry.NewBounds(raw[0][0], raw[1][0], raw[0][1], raw[1][1])
	if err := optimization.ValidateBounds(b); err != nil {
		return geometry.Bounds{}, err
	}
	return b, nil
}

// buildJob resolves req against the server defaults.
func (s *Server) buildJob(req OptimizeRequest) (*job, error) {
	j := &job{config: s.cfg.OptimizerConfig()}

	switch req.Objective {
	case ObjectiveBowl, ObjectiveFlat:
		b, err := parseBounds(req.Bounds)
		if err != nil {
			return nil, err
		}
		j.bounds = b

		if req.Objective == ObjectiveFlat {
			j.objective = func(geometry.Point) float64 { return 0 }
			break
		}

		target := b.Min.Add(b.Range().Scale(0.5))
		if len(req.Target) > 0 {
			if len(req.Target) != 2 {
				return nil, apperrors.BadRequest("target must be [x, y]")
			}
			target = geometry.Pt(req.Target[0], req.Target[1])
		}
		j.objective = func(p geometry.Point) float64 {
			d := p.Sub(target)
			return d.X*d.X + d.Y*d.Y
		}

	case ObjectiveField:
		seed := req.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		j.size = s.cfg.Game.MapSize
		j.field = prospect.GenerateField(rand.New(rand.NewSource(seed)), j.size, s.cfg.Game.Peaks)
		j.plot = prospect.NewPlot(j.field, s.cfg.Game.QueryBudget)
		j.bounds = prospect.Bounds(j.size)
		j.config = prospect.BotConfig(j.size, s.cfg.Game.QueryBudget)
		j.objective = prospect.Objective(j.plot, j.size)

	case "":
		return nil, apperrors.BadRequest("objective is required")
	default:
		return nil, apperrors.BadRequest("unknown objective %q, expected one of %s, %s, %s",
			req.Objective, ObjectiveBowl, ObjectiveFlat, ObjectiveField)
	}

	if req.Seed != 0 {
		j.config.RandomSeed = req.Seed
	}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &j.config); err != nil {
			return nil, apperrors.BadRequest("invalid config: %v", err)
		}
	}
	j.config = s.cfg.ClampRun(j.config)
	if err := j.config.Validate(); err != nil {
		return nil, err
	}
	return j, nil
}
