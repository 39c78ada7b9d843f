package builder

import (
	"github.com/ChuLiYu/drone-dispatch/internal/solution"
	"github.com/ChuLiYu/drone-dispatch/pkg/types"
)

// Naive builds a schedule without any optimization. Every order line is
// split into deliveries of at most a full drone load of that product, each
// delivery is picked up from the warehouses in list order, and deliveries
// are handed to drones round-robin. Products heavier than the payload are
// skipped.
func Naive(p *types.Problem) *solution.Chromosome {
	warehouses := p.CloneWarehouses()
	c := solution.New(p)
	drone := 0

	for _, order := range p.Orders {
		for _, id := range order.ProductIDs() {
			product := p.Products[id]
			perTrip := p.Payload / product.Weight
			if perTrip == 0 {
				continue
			}

			for remaining := order.Quantity(id); remaining > 0; {
				want := min(remaining, perTrip)
				remaining -= want

				carried := 0
				for i, w := range warehouses {
					if carried == want {
						break
					}
					got := w.RemoveProducts(id, want-carried)
					if got == 0 {
						continue
					}
					carried += got
					c.Append(solution.Gene{Drone: drone, Demand: got, Spot: p.Warehouses[i], Product: product})
				}
				if carried == 0 {
					continue
				}

				c.Append(solution.Gene{Drone: drone, Demand: -carried, Spot: order, Product: product})
				drone = (drone + 1) % p.Drones
			}
		}
	}

	c.Evaluate()
	return c
}
