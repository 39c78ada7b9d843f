package main

// ============================================================================
// Responsibilities:
// 1. Walk through the planner on small hand-built problems
// 2. Show a feasible greedy build and a dead-end build side by side
// 3. Compare every strategy on the same problem and seed
// ============================================================================

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ChuLiYu/drone-dispatch/internal/builder"
	"github.com/ChuLiYu/drone-dispatch/internal/config"
	"github.com/ChuLiYu/drone-dispatch/internal/controller"
	"github.com/ChuLiYu/drone-dispatch/internal/parser"
	"github.com/ChuLiYu/drone-dispatch/internal/search"
	"github.com/ChuLiYu/drone-dispatch/pkg/types"
)

// singleOrder is one drone, a warehouse at the depot with three units of a
// unit-weight product and an order three cells away asking for all of them.
func singleOrder(turns int) *types.Problem {
	return &types.Problem{
		Rows: 10, Cols: 10, Drones: 1, Turns: turns, Payload: 5,
		Products:   []types.Product{{ID: 0, Weight: 1}},
		Warehouses: []*types.Spot{types.NewWarehouse(0, types.Point{X: 0, Y: 0}, map[int]int{0: 3})},
		Orders:     []*types.Spot{types.NewOrder(0, types.Point{X: 0, Y: 3}, map[int]int{0: 3})},
	}
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/demo/main.go <scenarios|compare> [problem.in]")
		os.Exit(1)
	}

	switch mode := os.Args[1]; mode {
	case "scenarios":
		scenarios()
	case "compare":
		path := "internal/parser/testdata/example.in"
		if len(os.Args) > 2 {
			path = os.Args[2]
		}
		compare(path)
	default:
		log.Fatalf("Unknown mode %q", mode)
	}
}

func scenarios() {
	for _, turns := range []int{10, 1} {
		p := singleOrder(turns)
		c, rep := builder.Greedy(p, builder.BestOf, nil)

		fmt.Printf("\n📦 Single order, turn limit %d\n", turns)
		fmt.Printf("  Shipments: %d, completed orders: %d, dead end: %v\n", rep.Shipments, rep.CompletedOrders, rep.DeadEnd)
		fmt.Printf("  Score: %.2f, penalty: %d, fitness: %.2f\n", c.Score, c.Penalty, c.Fitness())
		for drone, path := range c.Drones {
			fmt.Printf("  Drone %d: %d genes, %d turns\n", drone, len(path.Genes), path.Turns)
		}
		for _, line := range c.Commands() {
			fmt.Printf("    %s\n", line)
		}
	}
}

func compare(path string) {
	problem, err := parser.ParseFile(path)
	if err != nil {
		log.Fatalf("Failed to load problem: %v", err)
	}

	cfg := config.Default()
	cfg.Genetic.Generations = 20
	planner := controller.NewPlanner(cfg, nil)

	fmt.Printf("\n📊 %s: %d orders, %d drones, %d turns\n\n", path, len(problem.Orders), problem.Drones, problem.Turns)
	fmt.Printf("  %-20s %10s %8s %8s %10s\n", "strategy", "fitness", "penalty", "orders", "elapsed")
	for _, strategy := range search.Strategies {
		res, err := planner.Run(context.Background(), problem, controller.Request{Strategy: strategy, Seed: 1, HasSeed: true})
		if err != nil {
			log.Fatalf("Run %s failed: %v", strategy, err)
		}
		res.Schedule.Evaluate()
		fmt.Printf("  %-20s %10.2f %8d %8d %10s\n",
			strategy,
			res.Schedule.Fitness(),
			res.Schedule.Penalty,
			res.Schedule.CompletedOrders(),
			res.Elapsed.Round(time.Microsecond))
	}
}
