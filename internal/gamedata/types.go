// Package gamedata supplies the injected configuration the simulation runs
// on: champion definitions, pool sizes per cost tier, and the level-indexed
// shop odds table. Data comes from the community data service when
// reachable, from the local sqlite cache when not, and from the embedded
// defaults as the last fallback — the trainer must work offline.
package gamedata

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MJE43/rolldown-trainer-go/internal/pool"
	"github.com/MJE43/rolldown-trainer-go/internal/shop"
)

// Champion is one purchasable identity in a set.
type Champion struct {
	ID     string   `yaml:"id" json:"id"`
	Name   string   `yaml:"name" json:"name"`
	Cost   int      `yaml:"cost" json:"cost"`
	Traits []string `yaml:"traits,omitempty" json:"traits,omitempty"`
}

// SetData is everything the pool and shop need for one game-data version.
type SetData struct {
	Namespace string         `yaml:"namespace" json:"namespace"`
	PoolSizes map[int]int    `yaml:"pool_sizes" json:"pool_sizes"`
	Odds      shop.OddsTable `yaml:"odds" json:"odds"`
	Champions []Champion     `yaml:"champions" json:"champions"`
}

// Parse decodes and validates a YAML set-data document.
func Parse(b []byte) (*SetData, error) {
	var d SetData
	if err := yaml.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("parse set data: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks internal consistency. Champions outside the namespace or
// at cost tiers without a pool size would silently vanish from the pool, so
// they are rejected here instead.
func (d *SetData) Validate() error {
	if d.Namespace == "" {
		return fmt.Errorf("set data has no namespace")
	}
	if err := d.Odds.Validate(); err != nil {
		return fmt.Errorf("set %s: %w", d.Namespace, err)
	}
	if len(d.Champions) == 0 {
		return fmt.Errorf("set %s has no champions", d.Namespace)
	}

	prefix := d.Namespace + "/"
	seen := make(map[string]bool, len(d.Champions))
	for _, c := range d.Champions {
		if !strings.HasPrefix(c.ID, prefix) {
			return fmt.Errorf("champion %q is outside namespace %s", c.ID, d.Namespace)
		}
		if seen[c.ID] {
			return fmt.Errorf("duplicate champion id %q", c.ID)
		}
		seen[c.ID] = true
		if c.Cost < 1 || c.Cost > d.Odds.Tiers() {
			return fmt.Errorf("champion %q has cost %d outside tiers 1..%d", c.ID, c.Cost, d.Odds.Tiers())
		}
		if _, ok := d.PoolSizes[c.Cost]; !ok {
			return fmt.Errorf("champion %q: no pool size for cost %d", c.ID, c.Cost)
		}
	}
	return nil
}

// Marshal encodes the set data back to YAML, for the local cache.
func (d *SetData) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}

// Definitions converts the champion list into pool definitions.
func (d *SetData) Definitions() []pool.Definition {
	defs := make([]pool.Definition, len(d.Champions))
	for i, c := range d.Champions {
		defs[i] = pool.Definition{ID: c.ID, Cost: c.Cost}
	}
	return defs
}

// ChampionByID returns the champion with the given identity.
func (d *SetData) ChampionByID(id string) (Champion, bool) {
	for _, c := range d.Champions {
		if c.ID == id {
			return c, true
		}
	}
	return Champion{}, false
}

// NewPool initializes a fresh unit pool for this set.
func (d *SetData) NewPool() *pool.Pool {
	return pool.New(d.Namespace, d.PoolSizes, d.Definitions())
}
