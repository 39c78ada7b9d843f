package solution

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/ChuLiYu/drone-dispatch/pkg/types"
)

// Commands renders the executable schedule: a header with the number of
// actions, then one line per assigned gene, grouped by drone id in
// ascending order and in execution order within a drone.
//
//	{drone} {L|D} {spot} {product} {quantity}
func (c *Chromosome) Commands() []string {
	idx := make([]int, 0, len(c.Genes))
	for i, g := range c.Genes {
		if g.Assigned() {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return c.Genes[idx[a]].Drone < c.Genes[idx[b]].Drone
	})

	lines := make([]string, 0, len(idx)+1)
	lines = append(lines, strconv.Itoa(len(idx)))
	for _, i := range idx {
		lines = append(lines, command(c.Genes[i]))
	}
	return lines
}

func command(g Gene) string {
	action, qty := "L", g.Demand
	if !g.Load() {
		action, qty = "D", -g.Demand
	}
	return fmt.Sprintf("%d %s %d %d %d", g.Drone, action, g.Spot.ID, g.Product.ID, qty)
}

// WriteCommands writes Commands to w, one per line.
func (c *Chromosome) WriteCommands(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, line := range c.Commands() {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("write commands: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write commands: %w", err)
	}
	return nil
}

// Delivered sums the units unloaded by assigned genes per order and product.
func (c *Chromosome) Delivered() map[int]map[int]int {
	out := make(map[int]map[int]int)
	for _, g := range c.Genes {
		if !g.Assigned() || g.Load() || g.Spot.Kind != types.KindOrder {
			continue
		}
		if out[g.Spot.ID] == nil {
			out[g.Spot.ID] = make(map[int]int)
		}
		out[g.Spot.ID][g.Product.ID] -= g.Demand
	}
	return out
}

// CompletedOrders counts the orders whose delivered quantities equal their
// demand exactly.
func (c *Chromosome) CompletedOrders() int {
	delivered := c.Delivered()
	n := 0
	for _, order := range c.problem.Orders {
		got := delivered[order.ID]
		if len(got) != len(order.Products) {
			continue
		}
		match := true
		for product, qty := range order.Products {
			if got[product] != qty {
				match = false
				break
			}
		}
		if match {
			n++
		}
	}
	return n
}
