package solution

import (
	"math/rand"
	"testing"

	"github.com/ChuLiYu/drone-dispatch/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Fixtures
// ============================================================================

func testProblem(turns int) *types.Problem {
	return &types.Problem{
		Rows: 10, Cols: 10, Drones: 2, Turns: turns, Payload: 5,
		Products: []types.Product{{ID: 0, Weight: 1}, {ID: 1, Weight: 2}},
		Warehouses: []*types.Spot{
			types.NewWarehouse(0, types.Point{X: 0, Y: 0}, map[int]int{0: 5, 1: 2}),
		},
		Orders: []*types.Spot{
			types.NewOrder(0, types.Point{X: 0, Y: 3}, map[int]int{0: 3}),
			types.NewOrder(1, types.Point{X: 4, Y: 0}, map[int]int{1: 1}),
		},
	}
}

func load(p *types.Problem, drone, qty, product int) Gene {
	return Gene{Drone: drone, Demand: qty, Spot: p.Warehouses[0], Product: p.Products[product]}
}

func unload(p *types.Problem, drone, order, qty, product int) Gene {
	return Gene{Drone: drone, Demand: -qty, Spot: p.Orders[order], Product: p.Products[product]}
}

// ============================================================================
// Evaluation
// ============================================================================

func TestEvaluateSingleTrip(t *testing.T) {
	p := testProblem(10)
	c := New(p, load(p, 0, 3, 0), unload(p, 0, 0, 3, 0))

	fitness := c.Evaluate()

	assert.Equal(t, 0, c.Penalty)
	assert.Equal(t, 1, c.Genes[0].Turn, "load at the depot takes one turn")
	assert.Equal(t, 5, c.Genes[1].Turn, "three turns of flight plus one to unload")

	require.Contains(t, c.Orders, 0)
	assert.Equal(t, 50, c.Orders[0].Score)
	assert.Equal(t, 5, c.Orders[0].MaxTurn)

	require.Len(t, c.Drones, 1)
	assert.Equal(t, []int{0, 1}, c.Drones[0].Genes)
	assert.Equal(t, 5, c.Drones[0].Turns)
	assert.Equal(t, types.Point{X: 0, Y: 3}, c.Drones[0].Position)

	// two orders in the problem, only one is served
	assert.InDelta(t, 25.0, c.Score, 1e-9)
	assert.InDelta(t, 25.0, fitness, 1e-9)
	assert.True(t, c.Admissible())
}

func TestEvaluateIsIdempotent(t *testing.T) {
	p := testProblem(6)
	c := New(p,
		unload(p, 1, 1, 1, 1), // nothing carried yet
		load(p, 0, 5, 0),
		load(p, 0, 2, 1), // over payload
		unload(p, 0, 0, 3, 0),
		unload(p, 0, 1, 1, 1), // past the turn budget
		load(p, NoDrone, 1, 0),
	)

	first := c.Evaluate()
	genes := append([]Gene(nil), c.Genes...)
	score, penalty := c.Score, c.Penalty

	second := c.Evaluate()

	assert.Equal(t, first, second)
	assert.Equal(t, score, c.Score)
	assert.Equal(t, penalty, c.Penalty)
	assert.Equal(t, genes, c.Genes)
	assert.Greater(t, c.Penalty, 0)
}

func TestPayloadCheck(t *testing.T) {
	p := testProblem(100)
	c := New(p, load(p, 0, 5, 0), load(p, 0, 1, 1), unload(p, 0, 0, 3, 0))

	c.Evaluate()

	assert.Equal(t, 1, c.Penalty)
	assert.Equal(t, []int{0, 1, 0}, []int{c.Genes[0].Penalty, c.Genes[1].Penalty, c.Genes[2].Penalty})
}

func TestDeliveryCheckSkipsInfeasibleUnload(t *testing.T) {
	p := testProblem(100)
	c := New(p,
		unload(p, 0, 0, 3, 0), // flagged, balance stays at zero
		load(p, 0, 3, 0),
		unload(p, 0, 0, 3, 0), // feasible because the flagged unload was skipped
		unload(p, 0, 0, 1, 0), // balance is exhausted
	)

	c.Evaluate()

	assert.Equal(t, 2, c.Penalty)
	assert.Equal(t, 1, c.Genes[0].Penalty)
	assert.Equal(t, 0, c.Genes[2].Penalty)
	assert.Equal(t, 1, c.Genes[3].Penalty)
	assert.False(t, c.Admissible())
}

func TestTurnCheckCountsOncePerPath(t *testing.T) {
	p := testProblem(4)
	c := New(p, load(p, 0, 1, 0), unload(p, 0, 0, 1, 0), unload(p, 0, 0, 0, 0))

	c.Evaluate()

	assert.Equal(t, 1, c.Penalty, "one unit per drone regardless of how many actions overrun")
	assert.Equal(t, 0, c.Genes[0].Penalty)
	assert.Equal(t, 1, c.Genes[1].Penalty)
	assert.Equal(t, 1, c.Genes[2].Penalty)
	assert.Equal(t, 0, c.Orders[0].Score, "orders finished past the budget score nothing")
}

func TestUnassignedGenesDoNotSchedule(t *testing.T) {
	p := testProblem(10)
	c := New(p, load(p, NoDrone, 3, 0), unload(p, NoDrone, 0, 3, 0))

	c.Evaluate()

	assert.Empty(t, c.Drones)
	assert.Empty(t, c.Orders)
	assert.Equal(t, 0.0, c.Score)
	assert.Equal(t, 0, c.Genes[0].Turn)
}

func TestOrderScore(t *testing.T) {
	testCases := []struct {
		turn, limit, want int
	}{
		{5, 10, 50},
		{3, 7, 58},
		{0, 10, 100},
		{1, 3, 67},
		{10, 10, 0},
		{12, 10, 0},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, orderScore(tc.turn, tc.limit), "turn %d of %d", tc.turn, tc.limit)
	}
}

// ============================================================================
// Lifecycle
// ============================================================================

func TestCloneIsIndependent(t *testing.T) {
	p := testProblem(10)
	c := New(p, load(p, 0, 3, 0), unload(p, 0, 0, 3, 0))
	c.Evaluate()

	clone := c.Clone()
	clone.Genes[0].Drone = 1
	clone.Append(load(p, 1, 1, 1))

	assert.Equal(t, 0, c.Genes[0].Drone)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 3, clone.Len())
}

func TestCleanDropsUnassigned(t *testing.T) {
	p := testProblem(10)
	c := New(p, load(p, 0, 3, 0), load(p, NoDrone, 2, 0), unload(p, 0, 0, 3, 0))

	cleaned := c.Clean()

	assert.Equal(t, 2, cleaned.Len())
	assert.Equal(t, 3, c.Len(), "clean must not touch the receiver")
	for _, g := range cleaned.Genes {
		assert.True(t, g.Assigned())
	}
	assert.InDelta(t, 25.0, cleaned.Fitness(), 1e-9)
}

func TestMutateLeavesParentUntouched(t *testing.T) {
	p := testProblem(10)
	parent := New(p, load(p, 0, 3, 0), load(p, 1, 2, 0), unload(p, 0, 0, 3, 0), unload(p, 1, 1, 1, 1))
	parent.Evaluate()
	before := append([]Gene(nil), parent.Genes...)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		child, op, _ := parent.Mutate(rng)
		require.NotNil(t, child)
		assert.NotEmpty(t, op)
	}

	assert.Equal(t, before, parent.Genes)
}

func TestPreferAndNoWorse(t *testing.T) {
	p := testProblem(10)
	good := New(p, load(p, 0, 3, 0), unload(p, 0, 0, 3, 0))
	empty := New(p)
	broken := New(p, unload(p, 0, 0, 3, 0), unload(p, 0, 1, 1, 1))

	assert.True(t, Prefer(good, empty))
	assert.False(t, Prefer(empty, good))
	assert.True(t, Prefer(empty, broken), "admissible wins over a penalized solution")
	assert.True(t, Prefer(good, nil))

	assert.True(t, NoWorse(good, good))
	assert.False(t, NoWorse(broken, empty))
	assert.False(t, NoWorse(empty, good))
}
