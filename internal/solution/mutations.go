package solution

import (
	"math/rand"

	"github.com/ChuLiYu/drone-dispatch/pkg/types"
)

// Operator is a local edit of an action list. Apply receives a private
// copy it may modify in place and returns the edited list. ok is false
// when there was nothing to act on; the list must then be left unchanged.
type Operator struct {
	Name  string
	Apply func(genes []Gene, p *types.Problem, rng *rand.Rand) ([]Gene, bool)
}

// Operators is the set Mutate draws from.
var Operators = []Operator{
	{Name: "switch_drones", Apply: SwitchDrones},
	{Name: "unbalance_quantities", Apply: UnbalanceQuantities},
	{Name: "join_genes", Apply: JoinGenes},
	{Name: "cleanse_genes", Apply: CleanseGenes},
	{Name: "pop_gene", Apply: PopGene},
	{Name: "add_gene", Apply: AddGene},
}

// SwitchDrones swaps the drone ids of two genes whose ids differ.
func SwitchDrones(genes []Gene, _ *types.Problem, rng *rand.Rand) ([]Gene, bool) {
	if !hasDistinctDrones(genes) {
		return genes, false
	}

	i := rng.Intn(len(genes))
	var others []int
	for j, g := range genes {
		if g.Drone != genes[i].Drone {
			others = append(others, j)
		}
	}
	j := others[rng.Intn(len(others))]
	genes[i].Drone, genes[j].Drone = genes[j].Drone, genes[i].Drone
	return genes, true
}

func hasDistinctDrones(genes []Gene) bool {
	for _, g := range genes[min(1, len(genes)):] {
		if g.Drone != genes[0].Drone {
			return true
		}
	}
	return false
}

// UnbalanceQuantities redistributes the summed demand of two loads on the
// same (warehouse, product) with a random split that leaves both positive.
func UnbalanceQuantities(genes []Gene, _ *types.Problem, rng *rand.Rand) ([]Gene, bool) {
	groups := eligible(groupGenes(genes, Gene.Load))
	if len(groups) == 0 {
		return genes, false
	}

	a, b := pickPair(groups[rng.Intn(len(groups))], rng)
	total := genes[a].Demand + genes[b].Demand
	split := 1 + rng.Intn(total-1)
	genes[a].Demand = split
	genes[b].Demand = total - split
	return genes, true
}

// JoinGenes merges two genes on the same (spot, product) into one carrying
// the summed demand and the drone of either original. The merged gene
// takes the position of the earlier one. A merge that sums to zero removes
// both.
func JoinGenes(genes []Gene, _ *types.Problem, rng *rand.Rand) ([]Gene, bool) {
	groups := eligible(groupGenes(genes, nil))
	if len(groups) == 0 {
		return genes, false
	}

	a, b := pickPair(groups[rng.Intn(len(groups))], rng)
	if a > b {
		a, b = b, a
	}

	merged := genes[a]
	merged.Demand += genes[b].Demand
	if rng.Intn(2) == 1 {
		merged.Drone = genes[b].Drone
	}

	out := make([]Gene, 0, len(genes)-1)
	for i, g := range genes {
		switch i {
		case a:
			if merged.Demand != 0 {
				out = append(out, merged)
			}
		case b:
		default:
			out = append(out, g)
		}
	}
	return out, true
}

// CleanseGenes drops every gene flagged by the last evaluation.
func CleanseGenes(genes []Gene, _ *types.Problem, _ *rand.Rand) ([]Gene, bool) {
	out := genes[:0]
	for _, g := range genes {
		if g.Penalty == 0 {
			out = append(out, g)
		}
	}
	if len(out) == len(genes) {
		return genes, false
	}
	return out, true
}

// PopGene removes the gene with the highest penalty, the earliest on ties.
func PopGene(genes []Gene, _ *types.Problem, _ *rand.Rand) ([]Gene, bool) {
	worst := -1
	for i, g := range genes {
		if g.Penalty > 0 && (worst < 0 || g.Penalty > genes[worst].Penalty) {
			worst = i
		}
	}
	if worst < 0 {
		return genes, false
	}
	return append(genes[:worst], genes[worst+1:]...), true
}

// AddGene appends an unassigned load for a random quantity of warehouse
// stock that no existing load consumes yet.
func AddGene(genes []Gene, p *types.Problem, rng *rand.Rand) ([]Gene, bool) {
	used := make(map[GroupKey]int)
	for _, g := range genes {
		if g.Load() {
			used[g.Group()] += g.Demand
		}
	}

	type spare struct {
		warehouse *types.Spot
		product   int
		qty       int
	}
	var candidates []spare
	for _, w := range p.Warehouses {
		for _, product := range w.ProductIDs() {
			left := w.Quantity(product) - used[GroupKey{Spot: w.Key(), Product: product}]
			if left > 0 {
				candidates = append(candidates, spare{warehouse: w, product: product, qty: left})
			}
		}
	}
	if len(candidates) == 0 {
		return genes, false
	}

	pick := candidates[rng.Intn(len(candidates))]
	product, _ := p.Product(pick.product)
	return append(genes, Gene{
		Drone:   NoDrone,
		Demand:  1 + rng.Intn(pick.qty),
		Spot:    pick.warehouse,
		Product: product,
	}), true
}

func eligible(groups []group) []group {
	out := groups[:0]
	for _, g := range groups {
		if len(g.members) >= 2 {
			out = append(out, g)
		}
	}
	return out
}

// pickPair returns two distinct member indices of g.
func pickPair(g group, rng *rand.Rand) (int, int) {
	i := rng.Intn(len(g.members))
	j := rng.Intn(len(g.members) - 1)
	if j >= i {
		j++
	}
	return g.members[i], g.members[j]
}
