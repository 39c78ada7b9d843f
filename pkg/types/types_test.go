package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProblem() *Problem {
	return &Problem{
		Rows: 10, Cols: 10, Drones: 1, Turns: 10, Payload: 5,
		Products:   []Product{{ID: 0, Weight: 1}, {ID: 1, Weight: 3}},
		Warehouses: []*Spot{NewWarehouse(0, Point{0, 0}, map[int]int{0: 3, 1: 1})},
		Orders:     []*Spot{NewOrder(0, Point{0, 3}, map[int]int{0: 3})},
	}
}

func TestDistance(t *testing.T) {
	testCases := []struct {
		name string
		a, b Point
		want int
	}{
		{"same point", Point{1, 1}, Point{1, 1}, 0},
		{"axis aligned", Point{0, 0}, Point{0, 3}, 3},
		{"pythagorean", Point{0, 0}, Point{3, 4}, 5},
		{"rounded up", Point{0, 0}, Point{1, 1}, 2},
		{"symmetric", Point{3, 4}, Point{0, 0}, 5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Distance(tc.b))
		})
	}
}

func TestSpotQuantities(t *testing.T) {
	s := NewOrder(2, Point{1, 2}, map[int]int{0: 2, 1: 0})

	// zero quantities never enter the mapping
	assert.Equal(t, []int{0}, s.ProductIDs())
	assert.False(t, s.Complete())

	assert.Equal(t, 1, s.RemoveProducts(0, 1))
	assert.Equal(t, 1, s.Quantity(0))

	// removing more than held only removes what is there
	assert.Equal(t, 1, s.RemoveProducts(0, 5))
	assert.True(t, s.Complete(), "order should be complete once the mapping is empty")
	assert.Equal(t, 0, s.RemoveProducts(0, 1))

	s.AddProducts(3, 4)
	s.AddProducts(3, -1)
	assert.Equal(t, 4, s.Quantity(3))
	assert.Equal(t, SpotKey{Kind: KindOrder, ID: 2}, s.Key())
}

func TestSpotCloneIsDeep(t *testing.T) {
	s := NewWarehouse(0, Point{}, map[int]int{0: 3})
	c := s.Clone()
	c.RemoveProducts(0, 3)

	assert.Equal(t, 3, s.Quantity(0))
	assert.True(t, c.Complete())
}

func TestProblemValidate(t *testing.T) {
	require.NoError(t, testProblem().Validate())

	testCases := []struct {
		name   string
		mutate func(p *Problem)
	}{
		{"no drones", func(p *Problem) { p.Drones = 0 }},
		{"no turns", func(p *Problem) { p.Turns = 0 }},
		{"no payload", func(p *Problem) { p.Payload = -1 }},
		{"no warehouses", func(p *Problem) { p.Warehouses = nil }},
		{"bad product weight", func(p *Problem) { p.Products[1].Weight = 0 }},
		{"unknown product", func(p *Problem) { p.Orders[0].Products[7] = 1 }},
		{"misplaced order", func(p *Problem) { p.Orders[0].ID = 4 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := testProblem()
			tc.mutate(p)
			assert.ErrorIs(t, p.Validate(), ErrInvalidProblem)
		})
	}
}

func TestProblemLookups(t *testing.T) {
	p := testProblem()

	assert.Equal(t, Point{0, 0}, p.Depot())
	assert.Equal(t, 3, p.Weight(p.Orders[0]))
	assert.Equal(t, 6, p.Weight(p.Warehouses[0]))
	assert.Same(t, p.Orders[0], p.Spot(SpotKey{Kind: KindOrder, ID: 0}))
	assert.Nil(t, p.Warehouse(1))

	_, ok := p.Product(2)
	assert.False(t, ok)

	orders := p.CloneOrders()
	orders[0].RemoveProducts(0, 3)
	assert.False(t, p.Orders[0].Complete(), "clones must not alias canonical spots")
}
