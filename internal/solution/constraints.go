package solution

// Constraint checks walk one drone path in execution order. Each returns
// the penalty it adds to the chromosome and marks the offending genes.

// checkPayload flags every action after which the carried weight exceeds
// the payload limit.
func checkPayload(genes []Gene, path *DronePath, limit int) int {
	penalty := 0
	load := 0
	for _, i := range path.Genes {
		g := &genes[i]
		load += g.Demand * g.Product.Weight
		if load > limit {
			g.Penalty++
			penalty++
		}
	}
	return penalty
}

// checkDelivery flags every unload that exceeds what the drone carries of
// that product. Flagged unloads are left out of the running balance, so the
// balance never goes negative.
func checkDelivery(genes []Gene, path *DronePath) int {
	penalty := 0
	balance := make(map[int]int)
	for _, i := range path.Genes {
		g := &genes[i]
		product := g.Product.ID
		if g.Load() {
			balance[product] += g.Demand
			continue
		}
		if -g.Demand > balance[product] {
			g.Penalty++
			penalty++
			continue
		}
		balance[product] += g.Demand
	}
	return penalty
}

// checkTurns adds a single penalty when the path overruns the turn budget.
// Every action past the budget is marked.
func checkTurns(genes []Gene, path *DronePath, limit int) int {
	over := false
	for _, i := range path.Genes {
		g := &genes[i]
		if g.Turn > limit {
			g.Penalty++
			over = true
		}
	}
	if over {
		return 1
	}
	return 0
}
