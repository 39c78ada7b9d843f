// Package types defines the core domain model of the drone dispatch planner.
//
// Everything in this package describes immutable problem facts. Builders and
// search strategies that need to consume stock or demand work on clones
// obtained through Problem.CloneWarehouses and Problem.CloneOrders.
package types

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidProblem is returned by Problem.Validate.
var ErrInvalidProblem = errors.New("invalid problem")

// ============================================================================
// Geometry
// ============================================================================

// Point is a cell on the delivery grid.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Distance returns the number of turns needed to fly from p to q: the
// Euclidean distance rounded up.
func (p Point) Distance(q Point) int {
	dx := float64(p.X - q.X)
	dy := float64(p.Y - q.Y)
	return int(math.Ceil(math.Sqrt(dx*dx + dy*dy)))
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// ============================================================================
// Products and spots
// ============================================================================

// Product is a product type with its unit weight.
type Product struct {
	ID     int `json:"id"`
	Weight int `json:"weight"`
}

// SpotKind discriminates the two spot variants.
type SpotKind int

const (
	KindWarehouse SpotKind = iota // supply depot, Products is available stock
	KindOrder                     // customer order, Products is remaining demand
)

func (k SpotKind) String() string {
	switch k {
	case KindWarehouse:
		return "warehouse"
	case KindOrder:
		return "order"
	default:
		return fmt.Sprintf("SpotKind(%d)", int(k))
	}
}

// SpotKey identifies a spot by value.
type SpotKey struct {
	Kind SpotKind
	ID   int
}

// Spot is either a warehouse or an order. Products maps product id to a
// strictly positive quantity; entries that reach zero are removed.
type Spot struct {
	ID       int         `json:"id"`
	Kind     SpotKind    `json:"kind"`
	Position Point       `json:"position"`
	Products map[int]int `json:"products"`
}

// NewWarehouse creates a warehouse spot holding stock.
func NewWarehouse(id int, pos Point, stock map[int]int) *Spot {
	return newSpot(id, KindWarehouse, pos, stock)
}

// NewOrder creates an order spot requesting demand.
func NewOrder(id int, pos Point, demand map[int]int) *Spot {
	return newSpot(id, KindOrder, pos, demand)
}

func newSpot(id int, kind SpotKind, pos Point, products map[int]int) *Spot {
	s := &Spot{ID: id, Kind: kind, Position: pos, Products: make(map[int]int, len(products))}
	for product, qty := range products {
		s.AddProducts(product, qty)
	}
	return s
}

// Key returns the value key of the spot.
func (s *Spot) Key() SpotKey {
	return SpotKey{Kind: s.Kind, ID: s.ID}
}

// AddProducts increases the quantity held for product. Non-positive
// quantities are ignored.
func (s *Spot) AddProducts(product, qty int) {
	if qty <= 0 {
		return
	}
	s.Products[product] += qty
}

// RemoveProducts decreases the quantity held for product by at most qty and
// returns how many units were actually removed.
func (s *Spot) RemoveProducts(product, qty int) int {
	have := s.Products[product]
	if qty <= 0 || have == 0 {
		return 0
	}
	if qty >= have {
		delete(s.Products, product)
		return have
	}
	s.Products[product] = have - qty
	return qty
}

// Quantity returns the quantity held for product.
func (s *Spot) Quantity(product int) int {
	return s.Products[product]
}

// Complete reports whether nothing is left. For an order this is the only
// termination signal.
func (s *Spot) Complete() bool {
	return len(s.Products) == 0
}

// ProductIDs returns the held product ids in ascending order.
func (s *Spot) ProductIDs() []int {
	ids := make([]int, 0, len(s.Products))
	for id := range s.Products {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Clone returns a deep copy of the spot.
func (s *Spot) Clone() *Spot {
	return newSpot(s.ID, s.Kind, s.Position, s.Products)
}

func (s *Spot) String() string {
	return fmt.Sprintf("%s %d at %s", s.Kind, s.ID, s.Position)
}

// ============================================================================
// Problem
// ============================================================================

// Problem holds the immutable facts of one dispatch instance. It is passed
// explicitly to every component; nothing in the planner keeps it globally.
type Problem struct {
	Rows    int `json:"rows"`
	Cols    int `json:"cols"`
	Drones  int `json:"drones"`
	Turns   int `json:"turns"`   // turn budget per drone
	Payload int `json:"payload"` // maximum carried weight

	Products   []Product `json:"products"`   // indexed by product id
	Warehouses []*Spot   `json:"warehouses"` // indexed by warehouse id
	Orders     []*Spot   `json:"orders"`     // indexed by order id
}

// Validate checks the structural preconditions every component relies on.
func (p *Problem) Validate() error {
	switch {
	case p.Drones <= 0:
		return fmt.Errorf("%w: drone count must be positive, got %d", ErrInvalidProblem, p.Drones)
	case p.Turns <= 0:
		return fmt.Errorf("%w: turn limit must be positive, got %d", ErrInvalidProblem, p.Turns)
	case p.Payload <= 0:
		return fmt.Errorf("%w: payload must be positive, got %d", ErrInvalidProblem, p.Payload)
	case len(p.Warehouses) == 0:
		return fmt.Errorf("%w: at least one warehouse is required", ErrInvalidProblem)
	}

	for i, product := range p.Products {
		if product.ID != i {
			return fmt.Errorf("%w: product at index %d has id %d", ErrInvalidProblem, i, product.ID)
		}
		if product.Weight <= 0 {
			return fmt.Errorf("%w: product %d has non-positive weight", ErrInvalidProblem, i)
		}
	}

	check := func(spots []*Spot, kind SpotKind) error {
		for i, s := range spots {
			if s.ID != i || s.Kind != kind {
				return fmt.Errorf("%w: %s at index %d is %s %d", ErrInvalidProblem, kind, i, s.Kind, s.ID)
			}
			for product, qty := range s.Products {
				if product < 0 || product >= len(p.Products) {
					return fmt.Errorf("%w: %s references unknown product %d", ErrInvalidProblem, s, product)
				}
				if qty < 0 {
					return fmt.Errorf("%w: %s holds negative quantity of product %d", ErrInvalidProblem, s, product)
				}
			}
		}
		return nil
	}
	if err := check(p.Warehouses, KindWarehouse); err != nil {
		return err
	}
	return check(p.Orders, KindOrder)
}

// Product returns the product with the given id.
func (p *Problem) Product(id int) (Product, bool) {
	if id < 0 || id >= len(p.Products) {
		return Product{}, false
	}
	return p.Products[id], true
}

// Warehouse returns the canonical warehouse with the given id.
func (p *Problem) Warehouse(id int) *Spot {
	if id < 0 || id >= len(p.Warehouses) {
		return nil
	}
	return p.Warehouses[id]
}

// Order returns the canonical order with the given id.
func (p *Problem) Order(id int) *Spot {
	if id < 0 || id >= len(p.Orders) {
		return nil
	}
	return p.Orders[id]
}

// Spot resolves a key to its canonical spot.
func (p *Problem) Spot(key SpotKey) *Spot {
	if key.Kind == KindWarehouse {
		return p.Warehouse(key.ID)
	}
	return p.Order(key.ID)
}

// Depot is where every drone starts: the position of warehouse zero.
func (p *Problem) Depot() Point {
	return p.Warehouses[0].Position
}

// Weight returns the total weight of the products held by s.
func (p *Problem) Weight(s *Spot) int {
	total := 0
	for product, qty := range s.Products {
		total += p.Products[product].Weight * qty
	}
	return total
}

// CloneWarehouses returns private copies of all warehouses.
func (p *Problem) CloneWarehouses() []*Spot {
	return cloneSpots(p.Warehouses)
}

// CloneOrders returns private copies of all orders.
func (p *Problem) CloneOrders() []*Spot {
	return cloneSpots(p.Orders)
}

func cloneSpots(spots []*Spot) []*Spot {
	out := make([]*Spot, len(spots))
	for i, s := range spots {
		out[i] = s.Clone()
	}
	return out
}
