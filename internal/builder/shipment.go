package builder

import (
	"sort"

	"github.com/ChuLiYu/drone-dispatch/internal/solution"
	"github.com/ChuLiYu/drone-dispatch/pkg/types"
)

// Item is one product line of a shipment.
type Item struct {
	Product  types.Product
	Quantity int
}

// Shipment is a planned round trip: fly to a warehouse, load, fly to an
// order, unload. It is not committed until Execute.
type Shipment struct {
	Path      *solution.DronePath
	Warehouse *types.Spot // working copy, consumed on Execute
	Order     *types.Spot // working copy, consumed on Execute

	Items  []Item
	Weight int     // carried weight
	Turns  int     // turns the trip takes
	Value  float64 // share of the remaining order weight carried per turn

	problem *types.Problem
}

// NewShipment packs what warehouse can supply of order's remaining demand,
// heaviest products first, until the payload limit is reached.
func NewShipment(p *types.Problem, path *solution.DronePath, order, warehouse *types.Spot) *Shipment {
	s := &Shipment{Path: path, Warehouse: warehouse, Order: order, problem: p}

	products := make([]types.Product, 0, len(order.Products))
	for _, id := range order.ProductIDs() {
		if warehouse.Quantity(id) > 0 {
			products = append(products, p.Products[id])
		}
	}
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Weight > products[j].Weight
	})

	for _, product := range products {
		fit := (p.Payload - s.Weight) / product.Weight
		n := min(order.Quantity(product.ID), warehouse.Quantity(product.ID), fit)
		if n <= 0 {
			continue
		}
		s.Items = append(s.Items, Item{Product: product, Quantity: n})
		s.Weight += n * product.Weight
	}

	if len(s.Items) == 0 {
		return s
	}

	s.Turns = path.Position.Distance(warehouse.Position) +
		warehouse.Position.Distance(order.Position) +
		2*len(s.Items)
	if remaining := p.Weight(order); remaining > 0 {
		s.Value = float64(s.Weight) / float64(remaining) / float64(s.Turns)
	}
	return s
}

// HasProducts reports whether the shipment carries at least one unit.
func (s *Shipment) HasProducts() bool {
	return len(s.Items) > 0
}

// Fits reports whether the drone can still make the trip within limit.
func (s *Shipment) Fits(limit int) bool {
	return s.Path.Turns+s.Turns <= limit
}

// Execute commits the shipment: stock and demand are consumed, the drone
// moves to the order, and the load genes followed by the matching unload
// genes are appended to c. It reports whether the order is now complete.
func (s *Shipment) Execute(c *solution.Chromosome) bool {
	warehouse := s.problem.Warehouse(s.Warehouse.ID)
	order := s.problem.Order(s.Order.ID)
	drone := s.Path.Drone

	loads := make([]solution.Gene, 0, len(s.Items))
	unloads := make([]solution.Gene, 0, len(s.Items))
	for _, it := range s.Items {
		s.Warehouse.RemoveProducts(it.Product.ID, it.Quantity)
		s.Order.RemoveProducts(it.Product.ID, it.Quantity)

		loads = append(loads, solution.Gene{Drone: drone, Demand: it.Quantity, Spot: warehouse, Product: it.Product})
		unloads = append(unloads, solution.Gene{Drone: drone, Demand: -it.Quantity, Spot: order, Product: it.Product})
	}
	c.Append(loads...)
	c.Append(unloads...)

	s.Path.Turns += s.Turns
	s.Path.Position = s.Order.Position
	return s.Order.Complete()
}
