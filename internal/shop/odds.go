// Package shop implements shop generation: weighted cost-tier rolls against
// a level-indexed odds table, then availability-weighted identity draws from
// the shared unit pool.
package shop

import "fmt"

// OddsTable holds per-level drop rates. Row i is player level i+1; column j
// is the percentage chance of rolling cost tier j+1. Every row must sum to
// exactly 100. The values are injected configuration — they come from the
// active set's game data, not from code.
type OddsTable [][]int

// Validate checks table shape and row sums.
func (t OddsTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("odds table has no levels")
	}
	tiers := len(t[0])
	if tiers == 0 {
		return fmt.Errorf("odds table has no cost tiers")
	}

	for i, row := range t {
		if len(row) != tiers {
			return fmt.Errorf("level %d has %d tiers, want %d", i+1, len(row), tiers)
		}
		sum := 0
		for j, v := range row {
			if v < 0 {
				return fmt.Errorf("level %d tier %d has negative rate %d", i+1, j+1, v)
			}
			sum += v
		}
		if sum != 100 {
			return fmt.Errorf("level %d rates sum to %d, want 100", i+1, sum)
		}
	}
	return nil
}

// Tiers returns the number of cost tiers in the table.
func (t OddsTable) Tiers() int {
	if len(t) == 0 {
		return 0
	}
	return len(t[0])
}

// MaxLevel returns the highest level the table covers.
func (t OddsTable) MaxLevel() int { return len(t) }

// TierFor maps a uniform roll in [0, 100) to a cost tier at the given level
// by inverse-CDF lookup: the smallest tier whose cumulative rate covers the
// roll. Levels outside the table clamp to its first/last row.
func (t OddsTable) TierFor(level int, roll float64) int {
	if len(t) == 0 {
		return 0
	}
	if level < 1 {
		level = 1
	}
	if level > len(t) {
		level = len(t)
	}
	row := t[level-1]

	cum := 0
	for j, v := range row {
		cum += v
		if float64(cum) > roll {
			return j + 1
		}
	}
	// roll landed on the degenerate tail (possible only if the row has
	// trailing zeros and roll is at the very top of the range)
	return len(row)
}
