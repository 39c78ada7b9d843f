// ============================================================================
// Drone Dispatch Search Engine
// ============================================================================
//
// Package: internal/search
// File: search.go
// Purpose: Improves schedules with local and population based metaheuristics
//
// Strategies:
//   hill-climbing       keep the mutated schedule when it is no worse
//   annealing           random walk with temperature controlled acceptance,
//                       best schedule tracked on the side
//   iterated-annealing  several annealing runs chained through their best
//   genetic             tournament selection, drone-assignment crossover,
//                       mutation, refill from the previous generation
//
// Randomness:
//   A Searcher owns one *rand.Rand seeded by the caller. Every random
//   decision of every strategy is drawn from it, so a run is reproducible
//   from its seed. Parallel population construction derives per-task seeds
//   from the same source.
//
// Transactions:
//   Candidates are always mutated clones. Rejecting a move is simply
//   dropping the clone.
//
// ============================================================================

package search

import (
	"math/rand"

	"github.com/ChuLiYu/drone-dispatch/internal/solution"
)

// Strategy names accepted by the planner.
const (
	StrategyGreedy    = "greedy"
	StrategyHill      = "hill-climbing"
	StrategyAnnealing = "annealing"
	StrategyIterated  = "iterated-annealing"
	StrategyGenetic   = "genetic"
)

// Strategies lists every strategy name.
var Strategies = []string{StrategyGreedy, StrategyHill, StrategyAnnealing, StrategyIterated, StrategyGenetic}

// Result is the outcome of a search run.
type Result struct {
	Best         *solution.Chromosome // cleaned best schedule
	Fitness      float64              // fitness of Best
	Iterations   int                  // mutation steps or generations executed
	Accepted     int                  // moves accepted as the new current state
	Improvements int                  // times the best schedule changed
	Trace        []float64            // fitness of the tracked state after each step
}

// Searcher runs strategies with a shared random source and observer.
type Searcher struct {
	rng      *rand.Rand
	observer Observer
}

// New creates a Searcher. A nil observer disables reporting.
func New(rng *rand.Rand, observer Observer) *Searcher {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Searcher{rng: rng, observer: observer}
}

func finish(r *Result, best *solution.Chromosome) Result {
	r.Best = best.Clean()
	r.Fitness = r.Best.Fitness()
	return *r
}
