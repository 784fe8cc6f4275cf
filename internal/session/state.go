package session

import (
	"time"

	"github.com/MJE43/rolldown-trainer-go/internal/pool"
	"github.com/MJE43/rolldown-trainer-go/internal/shop"
)

// State is the full API-facing snapshot of a session.
type State struct {
	ID        string                `json:"id"`
	CreatedAt time.Time             `json:"created_at"`
	Namespace string                `json:"namespace"`
	Gold      int                   `json:"gold"`
	Level     int                   `json:"level"`
	XP        int                   `json:"xp"`
	XPToNext  int                   `json:"xp_to_next"`
	Shop      []*shop.Slot          `json:"shop"`
	Bench     []*Unit               `json:"bench"`
	Board     [][]*Unit             `json:"board"`
	Pool      map[string]pool.Entry `json:"pool"`
	Stats     StatsView             `json:"stats"`
}

// Snapshot exports the session's current state. Slices are copies; mutating
// the snapshot cannot touch the session.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	bench := make([]*Unit, BenchSize)
	for i, u := range s.bench {
		if u != nil {
			cp := *u
			bench[i] = &cp
		}
	}
	board := make([][]*Unit, BoardRows)
	for r := 0; r < BoardRows; r++ {
		board[r] = make([]*Unit, BoardCols)
		for c := 0; c < BoardCols; c++ {
			if u := s.board[r][c]; u != nil {
				cp := *u
				board[r][c] = &cp
			}
		}
	}

	return State{
		ID:        s.id,
		CreatedAt: s.createdAt,
		Namespace: s.set.Namespace,
		Gold:      s.gold,
		Level:     s.level,
		XP:        s.xp,
		XPToNext:  xpToNext[s.level],
		Shop:      s.gen.Slots(),
		Bench:     bench,
		Board:     board,
		Pool:      s.pool.Snapshot(),
		Stats:     s.stats.View(),
	}
}

// Gold returns the current gold balance.
func (s *Session) Gold() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gold
}

// Level returns the current player level.
func (s *Session) Level() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// Shop returns the current shop slots.
func (s *Session) Shop() []*shop.Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen.Slots()
}

// Stats returns the session statistics view.
func (s *Session) Stats() StatsView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats.View()
}

// PoolCounts returns the ledger entry for one identity.
func (s *Session) PoolCounts(identity string) (pool.Entry, bool) {
	return s.pool.Counts(identity)
}
