package shop

import (
	"github.com/google/uuid"

	"github.com/MJE43/rolldown-trainer-go/internal/pool"
	"github.com/MJE43/rolldown-trainer-go/internal/rng"
)

// DefaultSlotCount is the number of slots in one shop.
const DefaultSlotCount = 5

// Slot is one generated shop offer. Two slots can show the same identity;
// the instance id keeps them distinguishable for purchase and clearing.
type Slot struct {
	InstanceID string `json:"instance_id"`
	Identity   string `json:"identity"`
	Cost       int    `json:"cost"`
}

// Generator draws shop slots from the unit pool. Every displayed slot holds
// a reservation (a pool take); clearing a slot for any reason returns it.
type Generator struct {
	pool      *pool.Pool
	odds      OddsTable
	src       rng.Source
	slotCount int
	slots     []*Slot
}

// NewGenerator creates a generator over the given pool and odds table.
// slotCount <= 0 selects DefaultSlotCount.
func NewGenerator(p *pool.Pool, odds OddsTable, src rng.Source, slotCount int) *Generator {
	if slotCount <= 0 {
		slotCount = DefaultSlotCount
	}
	if src == nil {
		src = rng.NewEntropy()
	}
	return &Generator{
		pool:      p,
		odds:      odds,
		src:       src,
		slotCount: slotCount,
		slots:     make([]*Slot, slotCount),
	}
}

// GenerateSlot draws a single slot for the given level. It rolls a cost
// tier from the odds table, then picks uniformly over the availability-
// weighted identity list at that tier, cascading to lower tiers when a tier
// is drained. A nil return means the reachable pool is exhausted — a valid
// terminal state, not an error.
func (g *Generator) GenerateSlot(level int) *Slot {
	tier := g.odds.TierFor(level, g.src.Float64()*100)

	for cost := tier; cost >= 1; cost-- {
		ids := g.pool.AvailableByCost(cost)
		if len(ids) == 0 {
			continue
		}

		idx := int(g.src.Float64() * float64(len(ids)))
		if idx >= len(ids) {
			idx = len(ids) - 1
		}
		id := ids[idx]

		if !g.pool.Take(id, 1) {
			// Lost a race with another mutation between the weighted-list
			// read and the take; treat the tier as drained.
			continue
		}

		return &Slot{
			InstanceID: uuid.NewString(),
			Identity:   id,
			Cost:       cost,
		}
	}
	return nil
}

// GenerateShop replaces the displayed shop. All current reservations are
// returned to the pool first, so regenerating never leaks takes; each slot
// draw then sees the pool state left by the previous draws in this shop.
func (g *Generator) GenerateShop(level int) []*Slot {
	g.clear()
	for i := range g.slots {
		g.slots[i] = g.GenerateSlot(level)
	}
	return g.Slots()
}

// Reroll is shop regeneration; the gold cost is charged by the caller.
func (g *Generator) Reroll(level int) []*Slot {
	return g.GenerateShop(level)
}

// Purchase removes the slot at index i and returns its contents. The pool
// reservation transfers to the buyer unchanged — taken counts do not move.
// A nil return means the index is out of range or the slot is empty.
func (g *Generator) Purchase(i int) *Slot {
	if i < 0 || i >= len(g.slots) {
		return nil
	}
	s := g.slots[i]
	g.slots[i] = nil
	return s
}

// Sell returns one copy of the identity to the pool. Shop state is not
// touched; displayed slots keep their reservations.
func (g *Generator) Sell(identity string) bool {
	return g.pool.Return(identity, 1)
}

// ReturnCopies gives n copies of the identity back to the pool. Used when a
// multi-star unit is sold and all merged copies go home at once.
func (g *Generator) ReturnCopies(identity string, n int) bool {
	return g.pool.Return(identity, n)
}

// Slots returns the displayed slots; empty slots are nil.
func (g *Generator) Slots() []*Slot {
	out := make([]*Slot, len(g.slots))
	copy(out, g.slots)
	return out
}

// clear empties all slots, returning their reservations.
func (g *Generator) clear() {
	for i, s := range g.slots {
		if s != nil {
			g.pool.Return(s.Identity, 1)
			g.slots[i] = nil
		}
	}
}
