// Package pool implements the shared unit pool the shop draws from.
//
// Every purchasable identity has a fixed number of copies determined by its
// cost tier. Copies move between "available" (drawable) and "taken" (shown
// in a shop slot or owned by the player) — the pool does not distinguish the
// two kinds of taken, it only guarantees the ledger balances.
package pool

import (
	"sort"
	"strings"
	"sync"
)

// Definition describes one purchasable identity at pool-initialization time.
type Definition struct {
	ID   string
	Cost int
}

// Entry is the per-identity ledger snapshot. The invariant
// Available + Taken == Total holds after every operation.
type Entry struct {
	Cost      int `json:"cost"`
	Total     int `json:"total"`
	Available int `json:"available"`
	Taken     int `json:"taken"`
}

type record struct {
	cost      int
	total     int
	available int
	taken     int
}

// Pool tracks copy counts for every identity in the active data set.
type Pool struct {
	mu        sync.Mutex
	namespace string
	records   map[string]*record
	byCost    map[int][]string // identity ids per cost tier, sorted for determinism
}

// New initializes the pool from the given definitions. sizesByCost maps a
// cost tier to the number of copies each identity at that tier has.
// Identities outside the namespace (prefix "<namespace>/") are excluded, as
// are identities whose cost tier has no configured pool size.
func New(namespace string, sizesByCost map[int]int, defs []Definition) *Pool {
	p := &Pool{
		namespace: namespace,
		records:   make(map[string]*record),
		byCost:    make(map[int][]string),
	}
	prefix := namespace + "/"

	for _, d := range defs {
		if namespace != "" && !strings.HasPrefix(d.ID, prefix) {
			continue
		}
		total, ok := sizesByCost[d.Cost]
		if !ok || total <= 0 {
			continue
		}
		if _, dup := p.records[d.ID]; dup {
			continue
		}
		p.records[d.ID] = &record{cost: d.Cost, total: total, available: total}
		p.byCost[d.Cost] = append(p.byCost[d.Cost], d.ID)
	}

	for cost := range p.byCost {
		sort.Strings(p.byCost[cost])
	}
	return p
}

// Namespace returns the active data-set namespace.
func (p *Pool) Namespace() string { return p.namespace }

// Take reserves n copies of the identity. It reports false — leaving the
// pool untouched — when the identity is unknown, n is not positive, or
// fewer than n copies are available. Callers treat a false return as
// "cannot draw this identity", never as a hard error.
func (p *Pool) Take(id string, n int) bool {
	if n <= 0 {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	r, ok := p.records[id]
	if !ok || r.available < n {
		return false
	}
	r.available -= n
	r.taken += n
	return true
}

// Return releases n previously taken copies back to the pool. Symmetric to
// Take: false means the operation was rejected and nothing changed.
func (p *Pool) Return(id string, n int) bool {
	if n <= 0 {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	r, ok := p.records[id]
	if !ok || r.taken < n {
		return false
	}
	r.taken -= n
	r.available += n
	return true
}

// AvailableByCost returns the weighted candidate list for a cost tier: each
// identity appears once per available copy, so a uniform pick over the
// result is automatically weighted by availability.
func (p *Pool) AvailableByCost(cost int) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := p.byCost[cost]
	if len(ids) == 0 {
		return nil
	}

	var out []string
	for _, id := range ids {
		r := p.records[id]
		for i := 0; i < r.available; i++ {
			out = append(out, id)
		}
	}
	return out
}

// Counts returns the ledger entry for one identity.
func (p *Pool) Counts(id string) (Entry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	r, ok := p.records[id]
	if !ok {
		return Entry{}, false
	}
	return Entry{Cost: r.cost, Total: r.total, Available: r.available, Taken: r.taken}, true
}

// Cost returns the cost tier of an identity, or 0 if unknown.
func (p *Pool) Cost(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if r, ok := p.records[id]; ok {
		return r.cost
	}
	return 0
}

// Snapshot exports the full ledger, keyed by identity.
func (p *Pool) Snapshot() map[string]Entry {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]Entry, len(p.records))
	for id, r := range p.records {
		out[id] = Entry{Cost: r.cost, Total: r.total, Available: r.available, Taken: r.taken}
	}
	return out
}

// Identities returns all known identity ids, sorted.
func (p *Pool) Identities() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, 0, len(p.records))
	for id := range p.records {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
