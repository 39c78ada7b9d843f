package search

import (
	"context"
	"fmt"

	"github.com/ChuLiYu/drone-dispatch/internal/builder"
	"github.com/ChuLiYu/drone-dispatch/internal/solution"
	"github.com/ChuLiYu/drone-dispatch/pkg/types"
)

// GeneticOptions configures Genetic.
type GeneticOptions struct {
	Generations   int
	Population    int
	Tournament    int     // k of the k-way tournament, defaults to 3
	CrossoverRate float64 // probability a parent pair is recombined
	MutationRate  float64 // probability a child is mutated
	Workers       int     // parallel builders for generation zero
}

// Genetic evolves a population built from p. Generation zero always uses
// the randomized one-shipment policy so its members differ.
//
// Each generation selects Population parents by tournament, pairs them
// (i, i+1), the last one wrapping to the first when the count is odd, and
// produces children by crossover and mutation. Children with non-positive
// fitness are discarded and the generation is refilled by sampling the
// previous one with replacement. The best schedule is only recorded while
// admissible; if none ever was, the preferred member of the final
// population is returned.
func (s *Searcher) Genetic(ctx context.Context, p *types.Problem, opts GeneticOptions) (Result, error) {
	if opts.Tournament <= 0 {
		opts.Tournament = 3
	}

	population, err := s.BuildPopulation(ctx, p, opts.Population, opts.Workers, builder.OneShipment)
	if err != nil {
		return Result{}, fmt.Errorf("genetic: %w", err)
	}

	var (
		res  Result
		best *solution.Chromosome
	)
	track := func(gen int) {
		for _, ind := range population {
			if ind.Admissible() && (best == nil || ind.Fitness() > best.Fitness()) {
				best = ind
				res.Improvements++
				s.observer.OnImprovement(StrategyGenetic, gen, best.Fitness())
			}
		}
	}

	for gen := 0; gen < opts.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("genetic: generation %d: %w", gen, err)
		}

		for _, ind := range population {
			ind.Evaluate()
		}
		track(gen)

		population = s.nextGeneration(population, opts, &res)

		res.Iterations++
		res.Trace = append(res.Trace, fittest(population).Fitness())
		s.observer.OnStep(StrategyGenetic, gen, res.Trace[len(res.Trace)-1], true)
	}

	for _, ind := range population {
		ind.Evaluate()
	}
	track(opts.Generations)

	if best == nil {
		best = fittest(population)
	}
	return finish(&res, best), nil
}

func (s *Searcher) nextGeneration(population []*solution.Chromosome, opts GeneticOptions, res *Result) []*solution.Chromosome {
	n := len(population)

	parents := make([]*solution.Chromosome, n)
	for i := range parents {
		parents[i] = s.tournament(population, opts.Tournament)
	}

	children := make([]*solution.Chromosome, 0, n+1)
	for i := 0; i < n; i += 2 {
		c1, c2 := parents[i].Clone(), parents[(i+1)%n].Clone()
		if s.rng.Float64() < opts.CrossoverRate {
			s.crossover(c1, c2)
		}
		for _, c := range []*solution.Chromosome{c1, c2} {
			if s.rng.Float64() < opts.MutationRate {
				c, _, _ = c.Mutate(s.rng)
			} else {
				c.Evaluate()
			}
			if c.Fitness() > 0 {
				children = append(children, c)
				res.Accepted++
			}
		}
	}

	if len(children) > n {
		children = children[:n]
	}
	for len(children) < n {
		children = append(children, population[s.rng.Intn(n)])
	}
	return children
}

// tournament returns the fittest of k uniformly drawn individuals.
func (s *Searcher) tournament(population []*solution.Chromosome, k int) *solution.Chromosome {
	winner := population[s.rng.Intn(len(population))]
	for i := 1; i < k; i++ {
		challenger := population[s.rng.Intn(len(population))]
		if challenger.Fitness() > winner.Fitness() {
			winner = challenger
		}
	}
	return winner
}

// crossover swaps the drone assignments of two equally long windows taken
// at random offsets of a and b. Gene contents stay where they are.
func (s *Searcher) crossover(a, b *solution.Chromosome) {
	shortest := min(a.Len(), b.Len())
	if shortest < 2 {
		return
	}

	length := 1 + s.rng.Intn(shortest-1)
	offA := s.rng.Intn(a.Len() - length + 1)
	offB := s.rng.Intn(b.Len() - length + 1)
	for i := 0; i < length; i++ {
		ga, gb := &a.Genes[offA+i], &b.Genes[offB+i]
		ga.Drone, gb.Drone = gb.Drone, ga.Drone
	}
	a.Evaluate()
	b.Evaluate()
}

// fittest returns the preferred member of population.
func fittest(population []*solution.Chromosome) *solution.Chromosome {
	var best *solution.Chromosome
	for _, ind := range population {
		if solution.Prefer(ind, best) {
			best = ind
		}
	}
	return best
}
