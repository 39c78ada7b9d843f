package builder

import (
	"math/rand"
	"testing"

	"github.com/ChuLiYu/drone-dispatch/internal/parser"
	"github.com/ChuLiYu/drone-dispatch/internal/solution"
	"github.com/ChuLiYu/drone-dispatch/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// singleOrder is one drone, one warehouse at the depot stocking three units
// of a unit-weight product, and one order three cells away asking for them.
func singleOrder(turns int) *types.Problem {
	return &types.Problem{
		Rows: 10, Cols: 10, Drones: 1, Turns: turns, Payload: 5,
		Products:   []types.Product{{ID: 0, Weight: 1}},
		Warehouses: []*types.Spot{types.NewWarehouse(0, types.Point{X: 0, Y: 0}, map[int]int{0: 3})},
		Orders:     []*types.Spot{types.NewOrder(0, types.Point{X: 0, Y: 3}, map[int]int{0: 3})},
	}
}

func delivered(c *solution.Chromosome) map[int]map[int]int {
	out := make(map[int]map[int]int)
	for _, g := range c.Genes {
		if g.Load() || !g.Assigned() {
			continue
		}
		if out[g.Spot.ID] == nil {
			out[g.Spot.ID] = make(map[int]int)
		}
		out[g.Spot.ID][g.Product.ID] -= g.Demand
	}
	return out
}

// ============================================================================
// Greedy Builder
// ============================================================================

func TestGreedyBestOfSingleOrder(t *testing.T) {
	p := singleOrder(10)

	c, report := Greedy(p, BestOf, nil)

	assert.Equal(t, Report{Shipments: 1, CompletedOrders: 1}, report)
	assert.Equal(t, 0, c.Penalty)

	require.Len(t, c.Drones, 1)
	path := c.Drones[0]
	require.Len(t, path.Genes, 2)

	loadGene, unloadGene := c.Genes[path.Genes[0]], c.Genes[path.Genes[1]]
	assert.Equal(t, 3, loadGene.Demand)
	assert.Equal(t, -3, unloadGene.Demand)
	assert.Equal(t, types.KindWarehouse, loadGene.Spot.Kind)
	assert.Equal(t, types.KindOrder, unloadGene.Spot.Kind)

	// 0 turns to reach the warehouse, 1 to load, 3 to fly, 1 to unload
	assert.Equal(t, 5, path.Turns)
	assert.Equal(t, 50, c.Orders[0].Score)
	assert.InDelta(t, 50.0, c.Fitness(), 1e-9)

	assert.Equal(t, 3, p.Orders[0].Quantity(0), "the canonical order is never consumed")
	assert.Equal(t, 3, p.Warehouses[0].Quantity(0))
}

func TestGreedyBestOfDeadEnd(t *testing.T) {
	p := singleOrder(1)

	c, report := Greedy(p, BestOf, nil)

	assert.True(t, report.DeadEnd)
	assert.Equal(t, 0, report.Shipments)
	assert.Equal(t, 0, report.CompletedOrders)
	assert.Equal(t, 0, c.Len(), "no over-budget shipment is committed")
	assert.Equal(t, 0, c.Penalty)
	assert.Empty(t, delivered(c))
}

func TestGreedyBestOfIsAdmissible(t *testing.T) {
	p, err := parser.ParseFile("../parser/testdata/example.in")
	require.NoError(t, err)

	c, report := Greedy(p, BestOf, nil)

	assert.Equal(t, 0, c.Penalty, "best-of shipments respect payload, balance and turns")

	complete := 0
	for id, products := range delivered(c) {
		order := p.Order(id)
		for product, qty := range products {
			assert.LessOrEqual(t, qty, order.Quantity(product))
		}
		if assert.ObjectsAreEqual(order.Products, products) {
			complete++
		}
	}
	assert.Equal(t, report.CompletedOrders, complete)
}

func TestGreedyOneShipmentCompletes(t *testing.T) {
	p, err := parser.ParseFile("../parser/testdata/example.in")
	require.NoError(t, err)

	for seed := int64(0); seed < 10; seed++ {
		c, report := Greedy(p, OneShipment, rand.New(rand.NewSource(seed)))

		assert.False(t, report.DeadEnd, "seed %d", seed)
		assert.Equal(t, len(p.Orders), report.CompletedOrders, "seed %d", seed)

		got := delivered(c)
		for _, order := range p.Orders {
			assert.Equal(t, order.Products, got[order.ID], "seed %d order %d", seed, order.ID)
		}
	}
}

func TestGreedyIsReproducible(t *testing.T) {
	p, err := parser.ParseFile("../parser/testdata/example.in")
	require.NoError(t, err)

	a, _ := Greedy(p, OneShipment, rand.New(rand.NewSource(42)))
	b, _ := Greedy(p, OneShipment, rand.New(rand.NewSource(42)))

	assert.Equal(t, a.Commands(), b.Commands())
}

func TestParsePolicy(t *testing.T) {
	policy, err := ParsePolicy("best-of")
	require.NoError(t, err)
	assert.Equal(t, BestOf, policy)

	policy, err = ParsePolicy("random")
	require.NoError(t, err)
	assert.Equal(t, OneShipment, policy)
	assert.Equal(t, "one-shipment", policy.String())

	_, err = ParsePolicy("tree")
	assert.Error(t, err)
}

// ============================================================================
// Shipment
// ============================================================================

func TestShipmentPacksHeaviestFirst(t *testing.T) {
	p := &types.Problem{
		Drones: 1, Turns: 100, Payload: 5,
		Products: []types.Product{{ID: 0, Weight: 3}, {ID: 1, Weight: 1}, {ID: 2, Weight: 2}},
		Warehouses: []*types.Spot{
			types.NewWarehouse(0, types.Point{}, map[int]int{0: 5, 1: 1, 2: 1}),
		},
		Orders: []*types.Spot{
			types.NewOrder(0, types.Point{X: 0, Y: 3}, map[int]int{0: 2, 1: 4, 2: 1}),
		},
	}
	path := solution.NewDronePath(0, p.Depot())
	order, warehouse := p.Orders[0].Clone(), p.Warehouses[0].Clone()

	s := NewShipment(p, path, order, warehouse)

	require.True(t, s.HasProducts())
	assert.Equal(t, []Item{{Product: p.Products[0], Quantity: 1}, {Product: p.Products[2], Quantity: 1}}, s.Items)
	assert.Equal(t, 5, s.Weight)
	assert.Equal(t, 7, s.Turns, "three turns of flight plus two per product line")
	assert.InDelta(t, 5.0/12.0/7.0, s.Value, 1e-12)
	assert.True(t, s.Fits(7))
	assert.False(t, s.Fits(6))

	c := solution.New(p)
	complete := s.Execute(c)

	assert.False(t, complete)
	assert.Equal(t, 4, c.Len())
	assert.True(t, c.Genes[0].Load() && c.Genes[1].Load(), "loads come first")
	assert.False(t, c.Genes[2].Load() || c.Genes[3].Load())
	assert.Same(t, p.Orders[0], c.Genes[2].Spot, "genes reference canonical spots")
	assert.Equal(t, map[int]int{0: 1, 1: 4}, order.Products)
	assert.Equal(t, map[int]int{0: 4, 1: 1}, warehouse.Products)
	assert.Equal(t, 7, path.Turns)
	assert.Equal(t, order.Position, path.Position)
}

func TestShipmentWithoutCommonProducts(t *testing.T) {
	p := singleOrder(10)
	empty := types.NewWarehouse(0, types.Point{}, nil)

	s := NewShipment(p, solution.NewDronePath(0, p.Depot()), p.Orders[0].Clone(), empty)

	assert.False(t, s.HasProducts())
	assert.Zero(t, s.Value)
}

// ============================================================================
// Naive Builder
// ============================================================================

func TestNaiveSplitsByPayloadAndRotatesDrones(t *testing.T) {
	p := &types.Problem{
		Drones: 2, Turns: 100, Payload: 5,
		Products: []types.Product{{ID: 0, Weight: 1}},
		Warehouses: []*types.Spot{
			types.NewWarehouse(0, types.Point{}, map[int]int{0: 4}),
			types.NewWarehouse(1, types.Point{X: 1}, map[int]int{0: 10}),
		},
		Orders: []*types.Spot{types.NewOrder(0, types.Point{X: 2}, map[int]int{0: 7})},
	}

	c := Naive(p)

	require.Equal(t, 5, c.Len())
	assert.Equal(t, solution.Gene{Drone: 0, Demand: 4, Spot: p.Warehouses[0], Product: p.Products[0]}, stripDerived(c.Genes[0]))
	assert.Equal(t, solution.Gene{Drone: 0, Demand: 1, Spot: p.Warehouses[1], Product: p.Products[0]}, stripDerived(c.Genes[1]))
	assert.Equal(t, -5, c.Genes[2].Demand)
	assert.Equal(t, 1, c.Genes[3].Drone)
	assert.Equal(t, 2, c.Genes[3].Demand)
	assert.Equal(t, -2, c.Genes[4].Demand)
	assert.Equal(t, 0, c.Penalty)
}

func stripDerived(g solution.Gene) solution.Gene {
	g.Turn, g.Penalty = 0, 0
	return g
}
