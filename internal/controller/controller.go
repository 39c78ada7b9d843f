// ============================================================================
// Drone Dispatch Planner - pipeline coordinator
// ============================================================================
//
// Package: internal/controller
// File: controller.go
// Purpose: Runs one planning request end to end
//
// Pipeline:
//   1. Resolve the request against the configuration (strategy, builder, seed)
//   2. Build the initial schedule (greedy, random or naive builder)
//   3. Improve it with the requested strategy
//   4. Record the run (metrics, bounded history, log line)
//
// Every random decision of a run is drawn from one source seeded with the
// request seed, so the same request on the same problem yields the same
// schedule.
//
// Concurrency:
//   - Run may be called from several goroutines; each run owns its random
//     source and working copies
//   - sync.Mutex only guards the run history
//
// ============================================================================

package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ChuLiYu/drone-dispatch/internal/builder"
	"github.com/ChuLiYu/drone-dispatch/internal/config"
	"github.com/ChuLiYu/drone-dispatch/internal/report"
	"github.com/ChuLiYu/drone-dispatch/internal/search"
	"github.com/ChuLiYu/drone-dispatch/internal/solution"
	"github.com/ChuLiYu/drone-dispatch/pkg/types"
)

var log = slog.Default()

// ErrInvalidRequest is returned for unknown strategy or builder names.
var ErrInvalidRequest = errors.New("invalid request")

// ============================================================================
// Data structures
// ============================================================================

// Recorder receives search progress and finished runs.
// *metrics.Collector implements it.
type Recorder interface {
	search.Observer
	RecordRun(strategy string, elapsed time.Duration, err error)
}

// Request selects how a problem is planned. Empty fields take the
// configured values; Seed is only used when HasSeed is set.
type Request struct {
	Strategy string
	Builder  string
	Seed     int64
	HasSeed  bool
	Source   string // problem file, informational
}

// Result is a finished run.
type Result struct {
	RunID     string
	Request   Request // resolved request
	Schedule  *solution.Chromosome
	Build     builder.Report
	Search    search.Result
	Elapsed   time.Duration
	CreatedAt time.Time
}

// Summary converts r into its persisted form.
func (r *Result) Summary() report.Summary {
	s := report.Summary{
		RunID:        r.RunID,
		Problem:      r.Request.Source,
		Strategy:     r.Request.Strategy,
		Builder:      r.Request.Builder,
		Seed:         r.Request.Seed,
		DeadEnd:      r.Build.DeadEnd,
		Iterations:   r.Search.Iterations,
		Accepted:     r.Search.Accepted,
		Improvements: r.Search.Improvements,
		ElapsedMs:    r.Elapsed.Milliseconds(),
		CreatedAt:    r.CreatedAt,
	}
	s.Describe(r.Schedule)
	return s
}

// Planner turns problems into schedules.
type Planner struct {
	cfg      *config.Config
	recorder Recorder

	mu      sync.Mutex
	history []report.Summary // newest last, at most cfg.Server.History
}

// NewPlanner creates a planner. A nil recorder disables metrics.
func NewPlanner(cfg *config.Config, recorder Recorder) *Planner {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Planner{cfg: cfg, recorder: recorder}
}

// Config returns the planner configuration.
func (p *Planner) Config() *config.Config {
	return p.cfg
}

// ============================================================================
// Core methods
// ============================================================================

// Run plans problem according to req.
func (p *Planner) Run(ctx context.Context, problem *types.Problem, req Request) (*Result, error) {
	started := time.Now()

	req, err := p.resolve(req)
	if err != nil {
		return nil, err
	}
	if err := problem.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	res, err := p.run(ctx, problem, req)
	elapsed := time.Since(started)
	if p.recorder != nil {
		p.recorder.RecordRun(req.Strategy, elapsed, err)
	}
	if err != nil {
		log.Error("Run failed", "strategy", req.Strategy, "builder", req.Builder, "seed", req.Seed, "error", err)
		return nil, err
	}

	res.Elapsed = elapsed
	p.remember(res.Summary())

	log.Info("Run finished",
		"run_id", res.RunID,
		"strategy", req.Strategy,
		"builder", req.Builder,
		"seed", req.Seed,
		"fitness", res.Schedule.Fitness(),
		"penalty", res.Schedule.Penalty,
		"elapsed", elapsed)
	return res, nil
}

func (p *Planner) resolve(req Request) (Request, error) {
	if req.Strategy == "" {
		req.Strategy = p.cfg.Search.Strategy
	}
	if req.Builder == "" {
		req.Builder = p.cfg.Search.Builder
	}
	if !req.HasSeed {
		req.Seed = p.cfg.Search.Seed
		req.HasSeed = true
	}

	if !slices.Contains(search.Strategies, req.Strategy) {
		return req, fmt.Errorf("%w: unknown strategy %q", ErrInvalidRequest, req.Strategy)
	}
	if !slices.Contains(config.Builders, req.Builder) {
		return req, fmt.Errorf("%w: unknown builder %q", ErrInvalidRequest, req.Builder)
	}
	return req, nil
}

func (p *Planner) run(ctx context.Context, problem *types.Problem, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}

	rng := rand.New(rand.NewSource(req.Seed))
	var observer search.Observer
	if p.recorder != nil {
		observer = p.recorder
	}
	searcher := search.New(rng, observer)

	res := &Result{
		RunID:     uuid.NewString(),
		Request:   req,
		CreatedAt: time.Now().UTC(),
	}

	if req.Strategy == search.StrategyGenetic {
		out, err := searcher.Genetic(ctx, problem, search.GeneticOptions{
			Generations:   p.cfg.Genetic.Generations,
			Population:    p.cfg.Genetic.Population,
			Tournament:    p.cfg.Genetic.Tournament,
			CrossoverRate: p.cfg.Genetic.CrossoverRate,
			MutationRate:  p.cfg.Genetic.MutationRate,
			Workers:       p.cfg.Worker.WorkerCount,
		})
		if err != nil {
			return nil, fmt.Errorf("run: %w", err)
		}
		res.Search = out
		res.Schedule = out.Best
		return res, nil
	}

	start := p.build(problem, req.Builder, rng, &res.Build)
	log.Debug("Initial schedule built",
		"builder", req.Builder,
		"genes", start.Len(),
		"fitness", start.Fitness(),
		"dead_end", res.Build.DeadEnd)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}

	cooling, err := search.CoolingByName(p.cfg.Annealing.Cooling)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	annealing := search.AnnealingOptions{
		Iterations:  p.cfg.Annealing.Iterations,
		InitialTemp: p.cfg.Annealing.InitialTemp,
		Cooling:     cooling,
		Restarts:    p.cfg.Annealing.Restarts,
	}

	switch req.Strategy {
	case search.StrategyHill:
		res.Search = searcher.HillClimbing(start, search.HillClimbingOptions{Iterations: p.cfg.HillClimbing.Iterations})
	case search.StrategyAnnealing:
		res.Search = searcher.Annealing(start, annealing)
	case search.StrategyIterated:
		res.Search = searcher.IteratedAnnealing(start, annealing)
	default:
		best := start.Clean()
		res.Search = search.Result{Best: best, Fitness: best.Fitness()}
	}
	res.Schedule = res.Search.Best
	return res, nil
}

func (p *Planner) build(problem *types.Problem, name string, rng *rand.Rand, rep *builder.Report) *solution.Chromosome {
	if name == "naive" {
		c := builder.Naive(problem)
		c.Evaluate()
		return c
	}
	c, r := builder.Greedy(problem, policyOf(name), rng)
	*rep = r
	return c
}

// policyOf maps a builder name to its shipment policy. The genetic
// strategy does not consult it: generation zero is always randomized.
func policyOf(name string) builder.Policy {
	if name == "random" {
		return builder.OneShipment
	}
	return builder.BestOf
}

// ============================================================================
// History
// ============================================================================

func (p *Planner) remember(s report.Summary) {
	limit := p.cfg.Server.History
	if limit <= 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.history = append(p.history, s)
	if over := len(p.history) - limit; over > 0 {
		p.history = slices.Delete(p.history, 0, over)
	}
}

// Runs returns up to limit of the most recent run summaries, newest first.
// A non-positive limit returns all of them.
func (p *Planner) Runs(limit int) []report.Summary {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]report.Summary, 0, n)
	for i := len(p.history) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, p.history[i])
	}
	return out
}
