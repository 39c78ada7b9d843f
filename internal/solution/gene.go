package solution

import (
	"fmt"

	"github.com/ChuLiYu/drone-dispatch/pkg/types"
)

// NoDrone marks a gene that is not assigned to any drone.
const NoDrone = -1

// Gene is one atomic load or unload action.
//
// Spot always points at the canonical spot of the problem and is never
// mutated through the gene. Turn and Penalty are derived by Evaluate.
type Gene struct {
	Drone   int           // drone id, NoDrone when unassigned
	Demand  int           // > 0 loads at a warehouse, < 0 unloads at an order
	Spot    *types.Spot   // target node
	Product types.Product // product moved

	Turn    int // turn at which the action completes
	Penalty int // constraint violations attributed to this action
}

// Assigned reports whether the gene belongs to a drone.
func (g Gene) Assigned() bool {
	return g.Drone != NoDrone
}

// Load reports whether the gene picks products up.
func (g Gene) Load() bool {
	return g.Demand > 0
}

// Group returns the (spot, product) key the gene acts on.
func (g Gene) Group() GroupKey {
	return GroupKey{Spot: g.Spot.Key(), Product: g.Product.ID}
}

func (g Gene) String() string {
	return fmt.Sprintf("[ %d | %d | %s | %d ]", g.Drone, g.Demand, g.Spot, g.Product.ID)
}

// GroupKey is a value key over (spot, product).
type GroupKey struct {
	Spot    types.SpotKey
	Product int
}

// group is a set of gene indices sharing a GroupKey.
type group struct {
	key     GroupKey
	members []int
}

// groupGenes buckets the indices of genes accepted by keep. Groups are
// returned in order of first appearance so that seeded runs are
// reproducible.
func groupGenes(genes []Gene, keep func(Gene) bool) []group {
	index := make(map[GroupKey]int)
	var groups []group
	for i, g := range genes {
		if keep != nil && !keep(g) {
			continue
		}
		k := g.Group()
		at, ok := index[k]
		if !ok {
			at = len(groups)
			index[k] = at
			groups = append(groups, group{key: k})
		}
		groups[at].members = append(groups[at].members, i)
	}
	return groups
}
