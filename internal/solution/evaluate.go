package solution

import (
	"github.com/shopspring/decimal"

	"github.com/ChuLiYu/drone-dispatch/pkg/types"
)

var hundred = decimal.NewFromInt(100)

// Evaluate rebuilds the derived views, runs the constraint checks and
// returns the fitness. It depends only on the gene list, so calling it
// twice without an edit in between yields identical results.
func (c *Chromosome) Evaluate() float64 {
	p := c.problem
	depot := p.Depot()

	c.Penalty = 0
	c.Drones = make(map[int]*DronePath)
	c.Orders = make(map[int]*OrderPath)

	var droneOrder []int
	for i := range c.Genes {
		g := &c.Genes[i]
		g.Turn = 0
		g.Penalty = 0
		if !g.Assigned() {
			continue
		}

		path, ok := c.Drones[g.Drone]
		if !ok {
			path = NewDronePath(g.Drone, depot)
			c.Drones[g.Drone] = path
			droneOrder = append(droneOrder, g.Drone)
		}
		g.Turn = path.Turns + path.Position.Distance(g.Spot.Position) + 1
		path.Turns = g.Turn
		path.Position = g.Spot.Position
		path.Genes = append(path.Genes, i)

		if g.Spot.Kind == types.KindOrder {
			op, ok := c.Orders[g.Spot.ID]
			if !ok {
				op = &OrderPath{Order: g.Spot.ID}
				c.Orders[g.Spot.ID] = op
			}
			op.Genes = append(op.Genes, i)
			if g.Turn > op.MaxTurn {
				op.MaxTurn = g.Turn
			}
		}
	}

	for _, drone := range droneOrder {
		path := c.Drones[drone]
		c.Penalty += checkPayload(c.Genes, path, p.Payload)
		c.Penalty += checkDelivery(c.Genes, path)
		c.Penalty += checkTurns(c.Genes, path, p.Turns)
	}

	total := decimal.Zero
	for _, op := range c.Orders {
		op.Score = orderScore(op.MaxTurn, p.Turns)
		total = total.Add(decimal.NewFromInt(int64(op.Score)))
	}
	c.Score = 0
	if len(p.Orders) > 0 {
		c.Score = total.Div(decimal.NewFromInt(int64(len(p.Orders)))).InexactFloat64()
	}

	c.evaluated = true
	return c.Score - float64(c.Penalty)
}

// orderScore is ceil((limit - turn) / limit * 100), clamped to [0, 100].
func orderScore(turn, limit int) int {
	if turn >= limit {
		return 0
	}
	if turn < 0 {
		turn = 0
	}
	s := decimal.NewFromInt(int64(limit - turn)).
		Mul(hundred).
		Div(decimal.NewFromInt(int64(limit))).
		Ceil()
	return int(s.IntPart())
}
