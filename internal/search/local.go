package search

import (
	"math"

	"github.com/ChuLiYu/drone-dispatch/internal/solution"
)

// HillClimbingOptions configures HillClimbing.
type HillClimbingOptions struct {
	Iterations int
}

// AnnealingOptions configures Annealing and IteratedAnnealing.
type AnnealingOptions struct {
	Iterations  int     // steps per run
	InitialTemp float64 // t0 handed to Cooling
	Cooling     Cooling // defaults to Exponential
	Restarts    int     // chained runs, IteratedAnnealing only
}

// HillClimbing mutates the current schedule Iterations times and keeps the
// mutant whenever it is no worse. The tracked fitness never decreases.
func (s *Searcher) HillClimbing(start *solution.Chromosome, opts HillClimbingOptions) Result {
	current := start.Clone()
	current.Evaluate()

	res := Result{Trace: make([]float64, 0, opts.Iterations+1)}
	res.Trace = append(res.Trace, current.Fitness())

	for i := 0; i < opts.Iterations; i++ {
		candidate, _, _ := current.Mutate(s.rng)

		accepted := solution.NoWorse(candidate, current)
		if accepted {
			if candidate.Fitness() > current.Fitness() {
				res.Improvements++
				s.observer.OnImprovement(StrategyHill, i, candidate.Fitness())
			}
			current = candidate
			res.Accepted++
		}

		res.Iterations++
		res.Trace = append(res.Trace, current.Fitness())
		s.observer.OnStep(StrategyHill, i, current.Fitness(), accepted)
	}

	return finish(&res, current)
}

// Annealing runs simulated annealing from start.
//
// The best schedule is tracked separately from the walk. A candidate
// becomes the new current state when its fitness is positive and either
// diff < 0 or a uniform draw falls below exp(-diff/t), with
// diff = candidate - current. Degrading moves are therefore always taken
// while improving ones are taken with a probability that vanishes as the
// temperature drops.
func (s *Searcher) Annealing(start *solution.Chromosome, opts AnnealingOptions) Result {
	return s.anneal(StrategyAnnealing, start, opts, 0)
}

// IteratedAnnealing chains Restarts annealing runs, each starting from the
// best schedule of the previous run with the temperature reset to t0.
func (s *Searcher) IteratedAnnealing(start *solution.Chromosome, opts AnnealingOptions) Result {
	runs := max(opts.Restarts, 1)

	var total Result
	best := start.Clone()
	best.Evaluate()
	total.Trace = append(total.Trace, best.Fitness())

	for r := 0; r < runs; r++ {
		res := s.anneal(StrategyIterated, best, opts, r*opts.Iterations)
		total.Iterations += res.Iterations
		total.Accepted += res.Accepted
		total.Trace = append(total.Trace, res.Trace[1:]...)
		if solution.Prefer(res.Best, best) {
			best = res.Best
			total.Improvements += res.Improvements
		}
	}

	return finish(&total, best)
}

func (s *Searcher) anneal(strategy string, start *solution.Chromosome, opts AnnealingOptions, offset int) Result {
	cooling := opts.Cooling
	if cooling == nil {
		cooling = Exponential
	}

	current := start.Clone()
	current.Evaluate()
	best := current

	res := Result{Trace: make([]float64, 0, opts.Iterations+1)}
	res.Trace = append(res.Trace, best.Fitness())

	for step := 0; step < opts.Iterations; step++ {
		candidate, _, _ := current.Mutate(s.rng)

		if solution.Prefer(candidate, best) {
			best = candidate
			res.Improvements++
			s.observer.OnImprovement(strategy, offset+step, best.Fitness())
		}

		diff := candidate.Fitness() - current.Fitness()
		t := cooling(opts.InitialTemp, step, opts.Iterations)
		accepted := candidate.Fitness() > 0 && accept(diff, t, s.rng.Float64())
		if accepted {
			current = candidate
			res.Accepted++
		}

		res.Iterations++
		res.Trace = append(res.Trace, best.Fitness())
		s.observer.OnStep(strategy, offset+step, current.Fitness(), accepted)
	}

	return finish(&res, best)
}

// metropolis returns exp(-diff/t). Overflow saturates to +Inf, and a
// non-positive temperature is treated as the limit t -> 0+.
func metropolis(diff, t float64) float64 {
	if t <= 0 {
		if diff <= 0 {
			return math.Inf(1)
		}
		return 0
	}
	p := math.Exp(-diff / t)
	if math.IsNaN(p) {
		return math.Inf(1)
	}
	return p
}

// accept decides a move given the uniform draw u in [0, 1).
func accept(diff, t, u float64) bool {
	return diff < 0 || u < metropolis(diff, t)
}
