// Package session holds the mutable practice-session state the drop
// callbacks and API commands operate on: gold, level, bench, board, and the
// shop tied to a shared unit pool. All commands validate their preconditions
// and fail with a typed error instead of corrupting state.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/MJE43/rolldown-trainer-go/internal/gamedata"
	"github.com/MJE43/rolldown-trainer-go/internal/pool"
	"github.com/MJE43/rolldown-trainer-go/internal/rng"
	"github.com/MJE43/rolldown-trainer-go/internal/shop"
)

const (
	BenchSize = 9
	BoardRows = 4
	BoardCols = 7

	RerollCost = 2
	XPCost     = 4
	XPPerBuy   = 4

	MaxStar = 3
)

// xpToNext[level] is the experience required to advance past that level.
var xpToNext = map[int]int{
	1: 2, 2: 2, 3: 6, 4: 10, 5: 20, 6: 36, 7: 48, 8: 80, 9: 84,
}

var (
	ErrInsufficientGold = errors.New("not enough gold")
	ErrBenchFull        = errors.New("bench is full")
	ErrEmptySlot        = errors.New("shop slot is empty")
	ErrUnknownUnit      = errors.New("unit not found")
	ErrInvalidPosition  = errors.New("position out of range")
	ErrMaxLevel         = errors.New("already at max level")
)

// Unit is one owned copy (or combined stack) of a champion.
type Unit struct {
	InstanceID string `json:"instance_id"`
	Identity   string `json:"identity"`
	Name       string `json:"name"`
	Cost       int    `json:"cost"`
	Star       int    `json:"star"`
}

// Location addresses a bench slot or a board cell.
type Location struct {
	Kind  string `json:"kind"` // "bench" or "board"
	Index int    `json:"index,omitempty"`
	Row   int    `json:"row,omitempty"`
	Col   int    `json:"col,omitempty"`
}

func BenchLocation(i int) Location    { return Location{Kind: "bench", Index: i} }
func BoardLocation(r, c int) Location { return Location{Kind: "board", Row: r, Col: c} }

// Config sets up a new practice session.
type Config struct {
	Level   int
	Gold    int
	Targets []string // identities the player is rolling for, tracked in stats
}

// Session is one player's rolldown practice run. All methods are safe for
// concurrent use; the session holds its own lock, not the callers'.
type Session struct {
	mu sync.Mutex

	id        string
	createdAt time.Time
	set       *gamedata.SetData
	pool      *pool.Pool
	gen       *shop.Generator

	gold  int
	level int
	xp    int
	bench [BenchSize]*Unit
	board [BoardRows][BoardCols]*Unit

	stats *Stats
	log   *logrus.Entry
}

// New builds a session over a fresh pool for the given set and generates the
// opening shop (not charged).
func New(cfg Config, set *gamedata.SetData, src rng.Source, log *logrus.Logger) *Session {
	if log == nil {
		log = logrus.New()
	}
	maxLevel := set.Odds.MaxLevel()
	if cfg.Level < 1 {
		cfg.Level = 1
	}
	if cfg.Level > maxLevel {
		cfg.Level = maxLevel
	}
	if cfg.Gold < 0 {
		cfg.Gold = 0
	}

	id := uuid.NewString()
	p := set.NewPool()
	s := &Session{
		id:        id,
		createdAt: time.Now(),
		set:       set,
		pool:      p,
		gen:       shop.NewGenerator(p, set.Odds, src, shop.DefaultSlotCount),
		gold:      cfg.Gold,
		level:     cfg.Level,
		stats:     NewStats(cfg.Targets),
		log:       log.WithField("session", id),
	}
	s.gen.GenerateShop(s.level)
	return s
}

// ID returns the session's identifier.
func (s *Session) ID() string { return s.id }

// Reroll regenerates the shop for the fixed reroll cost.
func (s *Session) Reroll() ([]*shop.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gold < RerollCost {
		return nil, ErrInsufficientGold
	}
	s.gold -= RerollCost
	s.stats.recordReroll(RerollCost)
	return s.gen.Reroll(s.level), nil
}

// BuyXP spends gold on experience, leveling up as thresholds are crossed.
func (s *Session) BuyXP() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.level >= s.set.Odds.MaxLevel() {
		return ErrMaxLevel
	}
	if s.gold < XPCost {
		return ErrInsufficientGold
	}
	s.gold -= XPCost
	s.xp += XPPerBuy
	s.stats.recordXP(XPCost)

	for {
		need, ok := xpToNext[s.level]
		if !ok || s.xp < need || s.level >= s.set.Odds.MaxLevel() {
			break
		}
		s.xp -= need
		s.level++
	}
	return nil
}

// Purchase buys the shop slot at index i onto the first free bench slot.
func (s *Session) Purchase(i int) (*Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purchaseAt(i, -1)
}

// PurchaseTo buys the shop slot at index i onto a specific bench slot,
// falling back to the first free one when that slot is occupied.
func (s *Session) PurchaseTo(i, benchIndex int) (*Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purchaseAt(i, benchIndex)
}

func (s *Session) purchaseAt(i, benchIndex int) (*Unit, error) {
	slots := s.gen.Slots()
	if i < 0 || i >= len(slots) || slots[i] == nil {
		return nil, ErrEmptySlot
	}
	cost := slots[i].Cost
	if s.gold < cost {
		return nil, ErrInsufficientGold
	}

	if benchIndex < 0 || benchIndex >= BenchSize || s.bench[benchIndex] != nil {
		benchIndex = s.freeBenchSlot()
	}
	if benchIndex < 0 {
		return nil, ErrBenchFull
	}

	slot := s.gen.Purchase(i)
	if slot == nil {
		return nil, ErrEmptySlot
	}

	c, _ := s.set.ChampionByID(slot.Identity)
	u := &Unit{
		InstanceID: slot.InstanceID,
		Identity:   slot.Identity,
		Name:       c.Name,
		Cost:       slot.Cost,
		Star:       1,
	}
	s.bench[benchIndex] = u
	s.gold -= cost
	s.stats.recordPurchase(slot.Identity, cost)

	s.combine(slot.Identity)
	return u, nil
}

// Sell removes an owned unit, credits its sell value, and returns its pool
// copies. A star-n unit carries 3^(n-1) reservations.
func (s *Session) Sell(instanceID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc, u := s.findByInstance(instanceID)
	if u == nil {
		return 0, ErrUnknownUnit
	}
	s.clearAt(loc)

	value := SellValue(u.Cost, u.Star)
	s.gold += value
	s.gen.ReturnCopies(u.Identity, copiesIn(u.Star))
	s.stats.recordSale(value)
	return value, nil
}

// Move relocates an owned unit to a bench slot or board cell, swapping with
// any occupant.
func (s *Session) Move(instanceID string, to Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.validLocation(to) {
		return ErrInvalidPosition
	}
	from, u := s.findByInstance(instanceID)
	if u == nil {
		return ErrUnknownUnit
	}
	other := s.unitAt(to)
	s.setAt(from, other)
	s.setAt(to, u)
	return nil
}

// SellValue is what a unit of the given cost and star level sells for.
// Single-star units refund their cost; combined units refund the cost of the
// copies inside them, less one gold except for 1-cost units.
func SellValue(cost, star int) int {
	v := cost * copiesIn(star)
	if star > 1 && cost > 1 {
		v--
	}
	return v
}

// copiesIn is the number of pool copies inside a star-n unit.
func copiesIn(star int) int {
	n := 1
	for i := 1; i < star; i++ {
		n *= 3
	}
	return n
}

// combine merges three same-identity same-star units into one a star higher,
// repeatedly. The merged unit keeps the earliest position (board before
// bench) and the pool ledger is untouched: reservations transfer into the
// combined unit.
func (s *Session) combine(identity string) {
	for star := 1; star < MaxStar; star++ {
		for {
			locs := s.findUnits(identity, star)
			if len(locs) < 3 {
				break
			}
			keep := s.unitAt(locs[0])
			keep.Star = star + 1
			s.clearAt(locs[1])
			s.clearAt(locs[2])
			s.log.WithFields(logrus.Fields{
				"identity": identity,
				"star":     keep.Star,
			}).Debug("combined units")
		}
	}
}

// findUnits returns locations of owned units matching identity and star,
// board cells first in row-major order, then bench slots.
func (s *Session) findUnits(identity string, star int) []Location {
	var locs []Location
	for r := 0; r < BoardRows; r++ {
		for c := 0; c < BoardCols; c++ {
			if u := s.board[r][c]; u != nil && u.Identity == identity && u.Star == star {
				locs = append(locs, BoardLocation(r, c))
			}
		}
	}
	for i, u := range s.bench {
		if u != nil && u.Identity == identity && u.Star == star {
			locs = append(locs, BenchLocation(i))
		}
	}
	return locs
}

func (s *Session) findByInstance(id string) (Location, *Unit) {
	for i, u := range s.bench {
		if u != nil && u.InstanceID == id {
			return BenchLocation(i), u
		}
	}
	for r := 0; r < BoardRows; r++ {
		for c := 0; c < BoardCols; c++ {
			if u := s.board[r][c]; u != nil && u.InstanceID == id {
				return BoardLocation(r, c), u
			}
		}
	}
	return Location{}, nil
}

func (s *Session) freeBenchSlot() int {
	for i, u := range s.bench {
		if u == nil {
			return i
		}
	}
	return -1
}

func (s *Session) validLocation(l Location) bool {
	switch l.Kind {
	case "bench":
		return l.Index >= 0 && l.Index < BenchSize
	case "board":
		return l.Row >= 0 && l.Row < BoardRows && l.Col >= 0 && l.Col < BoardCols
	}
	return false
}

func (s *Session) unitAt(l Location) *Unit {
	if l.Kind == "bench" {
		return s.bench[l.Index]
	}
	return s.board[l.Row][l.Col]
}

func (s *Session) setAt(l Location, u *Unit) {
	if l.Kind == "bench" {
		s.bench[l.Index] = u
		return
	}
	s.board[l.Row][l.Col] = u
}

func (s *Session) clearAt(l Location) { s.setAt(l, nil) }
