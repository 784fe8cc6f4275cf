package session

import (
	"github.com/shopspring/decimal"
)

// Stats accumulates per-session economy numbers. Gold is tracked in decimal
// so derived averages survive JSON round trips without float drift.
type Stats struct {
	goldSpent    decimal.Decimal
	goldFromSale decimal.Decimal
	rerolls      int
	purchases    int
	xpBought     int
	targetHits   map[string]int
	isTarget     map[string]bool
}

// StatsView is the exported, JSON-ready form.
type StatsView struct {
	GoldSpent     decimal.Decimal `json:"gold_spent"`
	GoldFromSales decimal.Decimal `json:"gold_from_sales"`
	NetGoldSpent  decimal.Decimal `json:"net_gold_spent"`
	Rerolls       int             `json:"rerolls"`
	Purchases     int             `json:"purchases"`
	XPBought      int             `json:"xp_bought"`
	TargetHits    map[string]int  `json:"target_hits"`
	TotalHits     int             `json:"total_hits"`
	GoldPerHit    decimal.Decimal `json:"gold_per_hit"`
}

// NewStats creates statistics tracking hits on the given target identities.
func NewStats(targets []string) *Stats {
	s := &Stats{
		targetHits: make(map[string]int),
		isTarget:   make(map[string]bool, len(targets)),
	}
	for _, t := range targets {
		s.isTarget[t] = true
		s.targetHits[t] = 0
	}
	return s
}

func (s *Stats) recordReroll(cost int) {
	s.rerolls++
	s.goldSpent = s.goldSpent.Add(decimal.NewFromInt(int64(cost)))
}

func (s *Stats) recordXP(cost int) {
	s.xpBought++
	s.goldSpent = s.goldSpent.Add(decimal.NewFromInt(int64(cost)))
}

func (s *Stats) recordPurchase(identity string, cost int) {
	s.purchases++
	s.goldSpent = s.goldSpent.Add(decimal.NewFromInt(int64(cost)))
	if s.isTarget[identity] {
		s.targetHits[identity]++
	}
}

func (s *Stats) recordSale(value int) {
	s.goldFromSale = s.goldFromSale.Add(decimal.NewFromInt(int64(value)))
}

// View exports the current numbers. Gold-per-hit is net spend divided by
// target hits, rounded to two places; zero when nothing hit yet.
func (s *Stats) View() StatsView {
	total := 0
	hits := make(map[string]int, len(s.targetHits))
	for id, n := range s.targetHits {
		hits[id] = n
		total += n
	}

	net := s.goldSpent.Sub(s.goldFromSale)
	perHit := decimal.Zero
	if total > 0 {
		perHit = net.Div(decimal.NewFromInt(int64(total))).Round(2)
	}
	return StatsView{
		GoldSpent:     s.goldSpent,
		GoldFromSales: s.goldFromSale,
		NetGoldSpent:  net,
		Rerolls:       s.rerolls,
		Purchases:     s.purchases,
		XPBought:      s.xpBought,
		TargetHits:    hits,
		TotalHits:     total,
		GoldPerHit:    perHit,
	}
}
