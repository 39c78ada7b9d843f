// ============================================================================
// Drone Dispatch Solution - Chromosome
// ============================================================================
//
// Package: internal/solution
// File: chromosome.go
// Purpose: Candidate schedule representation shared by every search strategy
//
// Representation:
//   The ordered Gene list is the only authoritative state. Per-drone and
//   per-order views are derived from it by Evaluate and are rebuilt from
//   scratch every time, since mutation operators may reorder, insert,
//   remove or reassign genes arbitrarily.
//
//   Genes are stored by value and reference canonical, read-only spots, so
//   cloning a chromosome is a single slice copy.
//
// Lifecycle:
//   New / builder  ->  Evaluate  ->  Mutate (clone + edit + Evaluate)
//                                     ...
//                                ->  Clean  ->  Commands (export)
//
// ============================================================================

package solution

import (
	"math/rand"

	"github.com/ChuLiYu/drone-dispatch/pkg/types"
)

// DronePath is the derived view of the genes assigned to one drone.
type DronePath struct {
	Drone    int
	Genes    []int       // indices into Chromosome.Genes, in execution order
	Position types.Point // position after the last action
	Turns    int         // elapsed turns after the last action
}

// NewDronePath returns an idle drone standing at start.
func NewDronePath(drone int, start types.Point) *DronePath {
	return &DronePath{Drone: drone, Position: start}
}

// OrderPath is the derived view of the genes targeting one order.
type OrderPath struct {
	Order   int
	Genes   []int
	MaxTurn int
	Score   int
}

// Chromosome is a candidate solution.
type Chromosome struct {
	Genes []Gene

	Drones map[int]*DronePath // drone id -> path, rebuilt by Evaluate
	Orders map[int]*OrderPath // order id -> path, rebuilt by Evaluate

	Score   float64
	Penalty int

	problem   *types.Problem
	evaluated bool
}

// New creates a chromosome over p holding genes.
func New(p *types.Problem, genes ...Gene) *Chromosome {
	return &Chromosome{
		Genes:   append([]Gene(nil), genes...),
		problem: p,
	}
}

// Problem returns the problem the chromosome schedules.
func (c *Chromosome) Problem() *types.Problem {
	return c.problem
}

// Append adds genes at the end of the action list.
func (c *Chromosome) Append(genes ...Gene) {
	c.Genes = append(c.Genes, genes...)
	c.evaluated = false
}

// Len returns the number of genes, assigned or not.
func (c *Chromosome) Len() int {
	return len(c.Genes)
}

// Fitness is score minus penalty, the value every strategy maximizes.
func (c *Chromosome) Fitness() float64 {
	if !c.evaluated {
		c.Evaluate()
	}
	return c.Score - float64(c.Penalty)
}

// Admissible reports whether the last evaluation found no violation.
func (c *Chromosome) Admissible() bool {
	if !c.evaluated {
		c.Evaluate()
	}
	return c.Penalty == 0
}

// Clone returns an independent copy. Derived views are not copied; they
// are rebuilt on the next evaluation.
func (c *Chromosome) Clone() *Chromosome {
	return &Chromosome{
		Genes:   append(make([]Gene, 0, len(c.Genes)+1), c.Genes...),
		Score:   c.Score,
		Penalty: c.Penalty,
		problem: c.problem,
	}
}

// Clean returns an evaluated copy without unassigned genes.
func (c *Chromosome) Clean() *Chromosome {
	out := &Chromosome{
		Genes:   make([]Gene, 0, len(c.Genes)),
		problem: c.problem,
	}
	for _, g := range c.Genes {
		if g.Assigned() {
			out.Genes = append(out.Genes, g)
		}
	}
	out.Evaluate()
	return out
}

// Mutate applies one uniformly chosen operator to a clone and evaluates
// it. The receiver is never modified. When the operator finds nothing to
// act on the clone is returned unchanged and ok is false.
func (c *Chromosome) Mutate(rng *rand.Rand) (child *Chromosome, op string, ok bool) {
	operator := Operators[rng.Intn(len(Operators))]
	return c.Apply(operator, rng)
}

// Apply runs a specific operator on a clone.
func (c *Chromosome) Apply(operator Operator, rng *rand.Rand) (*Chromosome, string, bool) {
	if !c.evaluated {
		c.Evaluate()
	}
	child := c.Clone()
	genes, ok := operator.Apply(child.Genes, c.problem, rng)
	if ok {
		child.Genes = genes
	}
	child.Evaluate()
	return child, operator.Name, ok
}

// ============================================================================
// Comparison
// ============================================================================

// Prefer reports whether candidate should replace incumbent as the best
// known solution. An admissible solution always beats an inadmissible one;
// otherwise the higher fitness wins.
func Prefer(candidate, incumbent *Chromosome) bool {
	if incumbent == nil {
		return true
	}
	ca, ia := candidate.Admissible(), incumbent.Admissible()
	if ca != ia {
		return ca
	}
	return candidate.Fitness() > incumbent.Fitness()
}

// NoWorse reports whether candidate has at least the fitness of incumbent
// without giving up admissibility.
func NoWorse(candidate, incumbent *Chromosome) bool {
	if incumbent.Admissible() && !candidate.Admissible() {
		return false
	}
	return candidate.Fitness() >= incumbent.Fitness()
}
