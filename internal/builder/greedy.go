// ============================================================================
// Drone Dispatch Builder - Greedy Construction
// ============================================================================
//
// Package: internal/builder
// File: greedy.go
// Purpose: Builds complete initial schedules out of shipments
//
// Build Loop:
//   Every drone starts idle at the depot (warehouse zero). Drones take turns
//   picking a shipment until every order is complete. A full pass in which
//   no drone could ship anything ends the build early: the remaining demand
//   cannot be served with the remaining stock and turns.
//
// Selection Policies:
//   best-of       every (incomplete order, warehouse) pair is evaluated and
//                 the highest-value shipment that carries something and fits
//                 the drone's remaining turn budget wins
//   one-shipment  a random incomplete order and a random warehouse stocking
//                 part of it; no comparison and no turn check, used to seed
//                 large populations cheaply
//
// ============================================================================

package builder

import (
	"fmt"
	"math/rand"

	"github.com/ChuLiYu/drone-dispatch/internal/solution"
	"github.com/ChuLiYu/drone-dispatch/pkg/types"
)

// Policy selects how a drone's next shipment is chosen.
type Policy int

const (
	BestOf Policy = iota
	OneShipment
)

func (p Policy) String() string {
	switch p {
	case BestOf:
		return "best-of"
	case OneShipment:
		return "one-shipment"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy maps a policy name to its value.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "best-of", "greedy":
		return BestOf, nil
	case "one-shipment", "random":
		return OneShipment, nil
	default:
		return 0, fmt.Errorf("unknown build policy %q", name)
	}
}

// Report summarizes a build.
type Report struct {
	Shipments       int  // shipments executed
	CompletedOrders int  // orders whose demand was fully served
	DeadEnd         bool // the build stopped with demand left
}

// Greedy builds a schedule for p. rng is only consulted by OneShipment and
// may be nil for BestOf.
func Greedy(p *types.Problem, policy Policy, rng *rand.Rand) (*solution.Chromosome, Report) {
	var (
		report     Report
		orders     = p.CloneOrders()
		warehouses = p.CloneWarehouses()
		chromosome = solution.New(p)
	)

	drones := make([]*solution.DronePath, p.Drones)
	for i := range drones {
		drones[i] = solution.NewDronePath(i, p.Depot())
	}

	for !allComplete(orders) {
		progress := false
		for _, path := range drones {
			var s *Shipment
			if policy == OneShipment {
				s = randomShipment(p, path, orders, warehouses, rng)
			} else {
				s = bestShipment(p, path, orders, warehouses)
			}
			if s == nil {
				continue
			}

			if s.Execute(chromosome) {
				report.CompletedOrders++
			}
			report.Shipments++
			progress = true

			if allComplete(orders) {
				break
			}
		}
		if !progress {
			report.DeadEnd = true
			break
		}
	}

	chromosome.Evaluate()
	return chromosome, report
}

func bestShipment(p *types.Problem, path *solution.DronePath, orders, warehouses []*types.Spot) *Shipment {
	var best *Shipment
	for _, order := range orders {
		if order.Complete() {
			continue
		}
		for _, warehouse := range warehouses {
			s := NewShipment(p, path, order, warehouse)
			if !s.HasProducts() || !s.Fits(p.Turns) {
				continue
			}
			if best == nil || s.Value > best.Value {
				best = s
			}
		}
	}
	return best
}

func randomShipment(p *types.Problem, path *solution.DronePath, orders, warehouses []*types.Spot, rng *rand.Rand) *Shipment {
	type option struct {
		order     *types.Spot
		suppliers []*types.Spot
	}

	var options []option
	for _, order := range orders {
		if order.Complete() {
			continue
		}
		var suppliers []*types.Spot
		for _, warehouse := range warehouses {
			if canSupply(p, order, warehouse) {
				suppliers = append(suppliers, warehouse)
			}
		}
		if len(suppliers) > 0 {
			options = append(options, option{order: order, suppliers: suppliers})
		}
	}
	if len(options) == 0 {
		return nil
	}

	pick := options[rng.Intn(len(options))]
	warehouse := pick.suppliers[rng.Intn(len(pick.suppliers))]
	return NewShipment(p, path, pick.order, warehouse)
}

// canSupply reports whether warehouse stocks a product of order that fits
// an empty drone.
func canSupply(p *types.Problem, order, warehouse *types.Spot) bool {
	for product := range order.Products {
		if warehouse.Quantity(product) > 0 && p.Products[product].Weight <= p.Payload {
			return true
		}
	}
	return false
}

func allComplete(orders []*types.Spot) bool {
	for _, o := range orders {
		if !o.Complete() {
			return false
		}
	}
	return true
}
