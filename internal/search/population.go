package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ChuLiYu/drone-dispatch/internal/builder"
	"github.com/ChuLiYu/drone-dispatch/internal/solution"
	"github.com/ChuLiYu/drone-dispatch/internal/worker"
	"github.com/ChuLiYu/drone-dispatch/pkg/types"
)

// BuildPopulation constructs size independent schedules on a worker pool.
// Task seeds are drawn from the searcher's random source before dispatch
// and results are ordered by task, so the population only depends on that
// source. Cancelling ctx abandons the builds that are still outstanding.
// The observer is told the population size, how many schedules differ
// and how many builds hit a dead end.
func (s *Searcher) BuildPopulation(ctx context.Context, p *types.Problem, size, workers int, policy builder.Policy) ([]*solution.Chromosome, error) {
	if size <= 0 {
		return nil, fmt.Errorf("build population: size must be positive, got %d", size)
	}
	workers = min(max(workers, 1), size)
	started := time.Now()

	pool := worker.NewPool(size)
	if err := pool.Start(workers); err != nil {
		return nil, fmt.Errorf("build population: %w", err)
	}
	defer pool.Stop()

	for i := 0; i < size; i++ {
		task := worker.Task{ID: i, Seed: s.rng.Int63(), Problem: p, Policy: policy}
		if err := pool.Submit(task); err != nil {
			return nil, fmt.Errorf("build population: submit %d: %w", i, err)
		}
	}

	results := make([]worker.Result, 0, size)
	for len(results) < size {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("build population: %w", err)
		}
		r, err := pool.ReceiveResultContext(ctx)
		if err != nil {
			return nil, fmt.Errorf("build population: %w", err)
		}
		if r.Err != nil {
			return nil, fmt.Errorf("build population: %w", r.Err)
		}
		results = append(results, r)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].TaskID < results[j].TaskID })

	population := make([]*solution.Chromosome, size)
	distinct := make(map[string]struct{}, size)
	deadEnds := 0
	for i, r := range results {
		population[i] = r.Chromosome
		distinct[strings.Join(r.Chromosome.Commands(), "\n")] = struct{}{}
		if r.Report.DeadEnd {
			deadEnds++
		}
	}
	s.observer.OnPopulation(size, len(distinct), deadEnds, time.Since(started))
	return population, nil
}
