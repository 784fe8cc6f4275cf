package scripting

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/MJE43/rolldown-trainer-go/internal/gamedata"
	"github.com/MJE43/rolldown-trainer-go/internal/rng"
	"github.com/MJE43/rolldown-trainer-go/internal/session"
)

// maxShops bounds a single simulation; a strategy that rerolls this many
// times without stopping is runaway.
const maxShops = 10000

// StopReason explains why a simulation ended.
type StopReason string

const (
	StopScript    StopReason = "stop_called"   // the script called stop()
	StopNoReroll  StopReason = "no_reroll"     // onShop returned without rerolling
	StopShopLimit StopReason = "shop_limit"    // safety cap reached
	StopError     StopReason = "script_error"  // onShop raised
)

// Result is the outcome of one simulated rolldown.
type Result struct {
	SessionID  string            `json:"session_id"`
	ShopsSeen  int               `json:"shops_seen"`
	StopReason StopReason        `json:"stop_reason"`
	Error      string            `json:"error,omitempty"`
	FinalGold  int               `json:"final_gold"`
	FinalLevel int               `json:"final_level"`
	Stats      session.StatsView `json:"stats"`
	Logs       []LogEntry        `json:"logs"`
}

// shopCard is the script-facing view of one shop slot.
type shopCard struct {
	Index    int    `json:"index"`
	Identity string `json:"identity"`
	Name     string `json:"name"`
	Cost     int    `json:"cost"`
}

// Runner executes a strategy against a fresh session. Each Run gets its own
// VM and session; a Runner is not reused across runs.
type Runner struct {
	set *gamedata.SetData
	src rng.Source
	log *logrus.Logger
}

// NewRunner creates a runner for the given set. src seeds the shop draws;
// pass a seeded source for reproducible simulations.
func NewRunner(set *gamedata.SetData, src rng.Source, log *logrus.Logger) *Runner {
	if log == nil {
		log = logrus.New()
	}
	return &Runner{set: set, src: src, log: log}
}

// Run executes the strategy source: the script is evaluated once to define
// onShop(), then onShop() is called for every shop until the script stops
// rerolling, calls stop(), errors, or hits the safety cap.
func (r *Runner) Run(source string, cfg session.Config) (*Result, error) {
	s := session.New(cfg, r.set, r.src, r.log)
	vm := NewVM()

	rerolled := false
	vm.Set("buy", func(i int) bool {
		_, err := s.Purchase(i)
		return err == nil
	})
	vm.Set("reroll", func() bool {
		_, err := s.Reroll()
		if err == nil {
			rerolled = true
		}
		return err == nil
	})
	vm.Set("buyXP", func() bool {
		return s.BuyXP() == nil
	})
	vm.Set("sell", func(instanceID string) bool {
		_, err := s.Sell(instanceID)
		return err == nil
	})
	vm.Set("shop", func() []shopCard {
		var cards []shopCard
		for i, slot := range s.Shop() {
			if slot == nil {
				continue
			}
			c, _ := r.set.ChampionByID(slot.Identity)
			cards = append(cards, shopCard{Index: i, Identity: slot.Identity, Name: c.Name, Cost: slot.Cost})
		}
		return cards
	})
	vm.Set("bench", func() []*session.Unit {
		return s.Snapshot().Bench
	})
	vm.Set("gold", func() int { return s.Gold() })
	vm.Set("level", func() int { return s.Level() })

	if err := vm.Execute(source); err != nil {
		return nil, err
	}
	if !vm.HasOnShop() {
		return nil, fmt.Errorf("script must define an onShop() function")
	}

	res := &Result{SessionID: s.ID()}
	for res.ShopsSeen < maxShops {
		res.ShopsSeen++
		rerolled = false

		if err := vm.CallOnShop(); err != nil {
			res.StopReason = StopError
			res.Error = err.Error()
			break
		}
		if vm.IsStopRequested() {
			res.StopReason = StopScript
			break
		}
		if !rerolled {
			res.StopReason = StopNoReroll
			break
		}
	}
	if res.StopReason == "" {
		res.StopReason = StopShopLimit
	}

	res.FinalGold = s.Gold()
	res.FinalLevel = s.Level()
	res.Stats = s.Stats()
	res.Logs = vm.Logs()
	return res, nil
}
