package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/copyleftdev/prospector/internal/config"
	apperrors "github.com/copyleftdev/prospector/internal/errors"
	"github.com/copyleftdev/prospector/internal/logging"
	"github.com/copyleftdev/prospector/internal/metrics"
	"github.com/copyleftdev/prospector/internal/optimization"
	"github.com/copyleftdev/prospector/internal/optimization/neldermead"
	"github.com/copyleftdev/prospector/internal/prospect"
)

// Logger defines the logging interface used by the server
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// Run states
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// OptimizationState tracks one run. Counters are updated by the run's
// goroutine while handlers read them; everything else is guarded by the
// server's mutex.
type OptimizationState struct {
	ID        string
	Objective string
	Status    string
	StartTime time.Time
	EndTime   *time.Time
	Config    optimization.Config
	Result    *optimization.Result
	Game      *GameSummary
	Err       error

	evaluations atomic.Int64
	restarts    atomic.Int64
	cancel      chan struct{}
}

// Option configures a Server
type Option func(*Server)

// WithMetrics reports every run to c.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) {
		s.metrics = c
	}
}

// Server implements the HTTP and JSON-RPC API for optimization runs.
// Runs execute in their own goroutines; at most
// cfg.Optimizer.MaxConcurrentRuns run at once and the rest wait as pending.
type Server struct {
	cfg     *config.Config
	logger  Logger
	metrics *metrics.Collector

	// Optimization state management
	optimizations   map[string]*OptimizationState
	optimizationsMu sync.RWMutex
	closed          bool

	seq  atomic.Uint64
	sem  chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

// NewServer creates a new server instance with the given config and logger
func NewServer(cfg *config.Config, logger Logger, opts ...Option) *Server {
	limit := cfg.Optimizer.MaxConcurrentRuns
	if limit < 1 {
		limit = 1
	}
	s := &Server{
		cfg:           cfg,
		logger:        logger,
		optimizations: make(map[string]*OptimizationState),
		sem:           make(chan struct{}, limit),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) RegisterRoutes(r chi.Router) {
	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/optimize", s.handleOptimize)
		r.Get("/status/{id}", s.handleStatus)
		r.Delete("/optimization/{id}", s.handleCancel)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// StartResponse acknowledges a new run.
type StartResponse struct {
	ID     string `json:"optimization_id"`
	Status string `json:"status"`
}

// GameSummary reports a field run in game terms.
type GameSummary struct {
	Best       prospect.Coord `json:"best"`
	Value      int            `json:"value"`
	Queries    int            `json:"queries"`
	FieldMax   int            `json:"field_max"`
	FieldMaxAt prospect.Coord `json:"field_max_at"`
}

// StatusResponse describes a run.
type StatusResponse struct {
	ID          string                      `json:"optimization_id"`
	Objective   string                      `json:"objective"`
	Status      string                      `json:"status"`
	Progress    float64                     `json:"progress"`
	Evaluations int64                       `json:"evaluations"`
	Restarts    int64                       `json:"restarts"`
	StartTime   string                      `json:"start_time"`
	EndTime     string                      `json:"end_time,omitempty"`
	Config      optimization.Config         `json:"config"`
	Best        *optimization.RestartRecord `json:"best,omitempty"`
	Result      *optimization.Result        `json:"result,omitempty"`
	Game        *GameSummary                `json:"game,omitempty"`
	Error       string                      `json:"error,omitempty"`
}

// Start validates req and schedules the run.
func (s *Server) Start(req OptimizeRequest) (*StartResponse, error) {
	j, err := s.buildJob(req)
	if err != nil {
		return nil, err
	}

	id := fmt.Sprintf("opt_%d_%d", time.Now().UnixNano(), s.seq.Add(1))
	state := &OptimizationState{
		ID:        id,
		Objective: req.Objective,
		Status:    StatusPending,
		StartTime: time.Now(),
		Config:    j.config,
		cancel:    make(chan struct{}),
	}

	s.optimizationsMu.Lock()
	if s.closed {
		s.optimizationsMu.Unlock()
		return nil, apperrors.New("server is shutting down").WithStatus(http.StatusServiceUnavailable)
	}
	s.optimizations[id] = state
	s.wg.Add(1)
	s.optimizationsMu.Unlock()

	s.logger.Info("Optimization scheduled", map[string]interface{}{
		"optimization_id": id,
		"objective":       req.Objective,
		"max_evals":       j.config.MaxEvals,
	})

	go s.runOptimization(state, j)

	return &StartResponse{ID: id, Status: StatusPending}, nil
}

// Status reports the current state of run id.
func (s *Server) Status(id string) (*StatusResponse, error) {
	s.optimizationsMu.RLock()
	defer s.optimizationsMu.RUnlock()

	state, exists := s.optimizations[id]
	if !exists {
		return nil, apperrors.NotFound("optimization %s not found", id)
	}

	resp := &StatusResponse{
		ID:          state.ID,
		Objective:   state.Objective,
		Status:      state.Status,
		Evaluations: state.evaluations.Load(),
		Restarts:    state.restarts.Load(),
		StartTime:   state.StartTime.Format(time.RFC3339),
		Config:      state.Config,
		Result:      state.Result,
	}
	if state.Config.MaxEvals > 0 {
		resp.Progress = float64(resp.Evaluations) / float64(state.Config.MaxEvals)
	}
	if state.Status == StatusCompleted {
		resp.Progress = 1
	}
	if state.EndTime != nil {
		resp.EndTime = state.EndTime.Format(time.RFC3339)
	}
	if state.Err != nil {
		resp.Error = state.Err.Error()
	}
	if best, ok := state.Result.Best(); ok {
		resp.Best = &best
	}
	resp.Game = state.Game
	return resp, nil
}

// Cancel withdraws a run that has not started yet. Running simplex searches
// cannot be interrupted and end on their own budget.
func (s *Server) Cancel(id string) error {
	s.optimizationsMu.Lock()
	defer s.optimizationsMu.Unlock()

	state, exists := s.optimizations[id]
	if !exists {
		return apperrors.NotFound("optimization %s not found", id)
	}
	if state.Status != StatusPending {
		return apperrors.Errorf("cannot cancel optimization with status: %s", state.Status).WithStatus(http.StatusConflict)
	}

	close(state.cancel)
	state.Status = StatusCancelled
	now := time.Now()
	state.EndTime = &now

	s.logger.Info("Optimization cancelled", map[string]interface{}{
		"optimization_id": id,
	})
	return nil
}

// runOptimization waits for a free slot and then executes j.
func (s *Server) runOptimization(state *OptimizationState, j *job) {
	defer s.wg.Done()

	select {
	case s.sem <- struct{}{}:
	case <-state.cancel:
		return
	case <-s.done:
		s.finish(state, StatusCancelled, nil, nil, apperrors.New("server shutting down"))
		return
	}
	defer func() { <-s.sem }()

	s.optimizationsMu.Lock()
	if state.Status != StatusPending {
		s.optimizationsMu.Unlock()
		return
	}
	state.Status = StatusRunning
	s.optimizationsMu.Unlock()

	runLogger := s.logger.WithFields(map[string]interface{}{"optimization_id": state.ID})
	opts := []neldermead.Option{neldermead.WithObserver(&runObserver{state: state, next: s.metrics})}

	var (
		result  *optimization.Result
		outcome *prospect.Outcome
		err     error
	)
	if j.plot != nil {
		outcome, err = prospect.NewProspector(j.size, j.config, logging.NewZapLogger(runLogger), opts...).Prospect(j.plot)
		if outcome != nil {
			result = outcome.Result
		}
	} else {
		opts = append(opts, neldermead.WithLogger(logging.NewZapLogger(runLogger)))
		var opt *neldermead.Optimizer
		if opt, err = neldermead.NewOptimizer(j.config, opts...); err == nil {
			result, err = opt.Minimize(j.objective, j.bounds)
		}
	}

	if err != nil {
		runLogger.Error("Optimization failed", map[string]interface{}{"error": err.Error()})
		s.finish(state, StatusFailed, nil, nil, err)
		return
	}

	var game *GameSummary
	if outcome != nil {
		at, peak := j.field.Max()
		game = &GameSummary{
			Best:       outcome.Best,
			Value:      outcome.Value,
			Queries:    outcome.Queries,
			FieldMax:   peak,
			FieldMaxAt: at,
		}
	}
	s.finish(state, StatusCompleted, result, game, nil)

	fields := map[string]interface{}{
		"restarts":    len(result.Restarts),
		"evaluations": result.Evaluations,
	}
	if best, ok := result.Best(); ok {
		fields["best_value"] = best.ValueAtBestPoint
		fields["best_point"] = best.BestPoint.String()
	}
	runLogger.Info("Optimization completed", fields)
}

func (s *Server) finish(state *OptimizationState, status string, result *optimization.Result, game *GameSummary, err error) {
	s.optimizationsMu.Lock()
	defer s.optimizationsMu.Unlock()

	state.Status = status
	state.Result = result
	state.Game = game
	state.Err = err
	now := time.Now()
	state.EndTime = &now
}

// runObserver feeds run progress into the state and the shared metrics.
type runObserver struct {
	state *OptimizationState
	next  *metrics.Collector
}

func (o *runObserver) ObserveEvaluation(v float64) {
	o.state.evaluations.Add(1)
	if o.next != nil {
		o.next.ObserveEvaluation(v)
	}
}

func (o *runObserver) ObserveRestart(rec optimization.RestartRecord) {
	o.state.restarts.Add(1)
	if o.next != nil {
		o.next.ObserveRestart(rec)
	}
}

func (o *runObserver) ObserveRun(result *optimization.Result) {
	if o.next != nil {
		o.next.ObserveRun(result)
	}
}

// Close stops accepting runs, cancels pending ones and waits for running
// ones to finish.
func (s *Server) Close() error {
	s.optimizationsMu.Lock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	s.optimizationsMu.Unlock()

	s.wg.Wait()
	return nil
}

// handleOptimize handles POST /api/v1/optimize
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteJSON(w, apperrors.BadRequest("Invalid request body: %v", err))
		return
	}

	result, err := s.Start(req)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(result)
}

// handleStatus handles GET /api/v1/status/{id}
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	result, err := s.Status(chi.URLParam(r, "id"))
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(result)
}

// handleCancel handles DELETE /api/v1/optimization/{id}
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.Cancel(chi.URLParam(r, "id")); err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": StatusCancelled})
}
