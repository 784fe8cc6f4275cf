package session

import (
	"testing"

	"github.com/MJE43/rolldown-trainer-go/internal/drag"
	"github.com/MJE43/rolldown-trainer-go/internal/geom"
)

// fixedLayout places the standard zones in a predictable grid for tests.
type fixedLayout struct {
	rects map[string]geom.Rect
}

func newFixedLayout() *fixedLayout {
	l := &fixedLayout{rects: map[string]geom.Rect{
		"sell": {X: 0, Y: 500, W: 700, H: 100},
		"shop": {X: 0, Y: 400, W: 700, H: 100},
	}}
	for i := 0; i < BenchSize; i++ {
		l.rects[benchZoneID(i)] = geom.Rect{X: float64(i) * 60, Y: 300, W: 60, H: 60}
	}
	for r := 0; r < BoardRows; r++ {
		for c := 0; c < BoardCols; c++ {
			l.rects[boardZoneID(r, c)] = geom.Rect{X: float64(c) * 60, Y: float64(r) * 60, W: 60, H: 60}
		}
	}
	return l
}

func benchZoneID(i int) string    { return "bench:" + string(rune('0'+i)) }
func boardZoneID(r, c int) string { return "board:" + string(rune('0'+r)) + "," + string(rune('0'+c)) }

func (l *fixedLayout) bounds(id string) (geom.Rect, bool) {
	r, ok := l.rects[id]
	return r, ok
}

func dropAt(t *testing.T, reg *drag.Registry, e drag.Entity, p geom.Point) bool {
	t.Helper()
	z, ok := reg.QueryHit(p, e)
	if ok && z.OnDrop != nil {
		z.OnDrop(e, p)
	}
	return ok
}

func TestWireZonesPurchaseByDrop(t *testing.T) {
	set := singleChampSet(t, 22)
	s := newTestSession(t, set, 10)
	reg := drag.NewRegistry()
	layout := newFixedLayout()
	s.WireZones(reg, layout.bounds)

	card := s.Shop()[2]
	e := drag.Entity{ID: card.InstanceID, Source: drag.SourceShop}

	// Drop in the middle of bench slot 4.
	if !dropAt(t, reg, e, geom.Point{X: 4*60 + 30, Y: 330}) {
		t.Fatal("no zone accepted the shop card")
	}

	snap := s.Snapshot()
	if snap.Bench[4] == nil || snap.Bench[4].Identity != "test/recruit" {
		t.Fatalf("bench[4] = %+v after drop", snap.Bench[4])
	}
	if snap.Gold != 9 {
		t.Errorf("gold = %d, want 9", snap.Gold)
	}
	if snap.Shop[2] != nil {
		t.Error("shop slot 2 not cleared by drag purchase")
	}
}

func TestWireZonesSellByDrop(t *testing.T) {
	set := singleChampSet(t, 22)
	s := newTestSession(t, set, 10)
	reg := drag.NewRegistry()
	layout := newFixedLayout()
	s.WireZones(reg, layout.bounds)

	u, err := s.Purchase(0)
	if err != nil {
		t.Fatal(err)
	}
	e := drag.Entity{ID: u.InstanceID, Source: drag.SourceBench, BenchIndex: 0}
	if !dropAt(t, reg, e, geom.Point{X: 100, Y: 550}) {
		t.Fatal("sell zone did not accept the bench unit")
	}
	if got := s.Gold(); got != 10 {
		t.Errorf("gold = %d after buy+sell, want 10", got)
	}
	if len(ownedUnits(s)) != 0 {
		t.Error("unit survived the sell drop")
	}
}

func TestWireZonesSellRejectsShopCards(t *testing.T) {
	set := singleChampSet(t, 22)
	s := newTestSession(t, set, 10)
	reg := drag.NewRegistry()
	layout := newFixedLayout()
	s.WireZones(reg, layout.bounds)

	card := s.Shop()[0]
	e := drag.Entity{ID: card.InstanceID, Source: drag.SourceShop}
	if dropAt(t, reg, e, geom.Point{X: 100, Y: 550}) {
		t.Error("sell zone accepted a shop card")
	}
	if s.Shop()[0] == nil {
		t.Error("shop slot was consumed by a rejected drop")
	}
}

func TestWireZonesBoardRejectsShopCards(t *testing.T) {
	set := singleChampSet(t, 22)
	s := newTestSession(t, set, 10)
	reg := drag.NewRegistry()
	layout := newFixedLayout()
	s.WireZones(reg, layout.bounds)

	card := s.Shop()[0]
	e := drag.Entity{ID: card.InstanceID, Source: drag.SourceShop}
	if dropAt(t, reg, e, geom.Point{X: 30, Y: 30}) {
		t.Error("board cell accepted a shop card")
	}
}

func TestWireZonesMoveByDrop(t *testing.T) {
	set := singleChampSet(t, 22)
	s := newTestSession(t, set, 10)
	reg := drag.NewRegistry()
	layout := newFixedLayout()
	s.WireZones(reg, layout.bounds)

	u, err := s.Purchase(0)
	if err != nil {
		t.Fatal(err)
	}
	e := drag.Entity{ID: u.InstanceID, Source: drag.SourceBench, BenchIndex: 0}
	// Drop on board cell (1, 2).
	if !dropAt(t, reg, e, geom.Point{X: 2*60 + 30, Y: 60 + 30}) {
		t.Fatal("board cell did not accept the bench unit")
	}
	snap := s.Snapshot()
	if snap.Board[1][2] == nil || snap.Board[1][2].InstanceID != u.InstanceID {
		t.Errorf("board[1][2] = %+v", snap.Board[1][2])
	}
	if snap.Bench[0] != nil {
		t.Error("unit still on the bench after move drop")
	}
}

func TestWireZonesFailedDropIsNoOp(t *testing.T) {
	set := singleChampSet(t, 22)
	s := newTestSession(t, set, 0) // no gold: purchase must fail silently
	reg := drag.NewRegistry()
	layout := newFixedLayout()
	s.WireZones(reg, layout.bounds)

	card := s.Shop()[0]
	e := drag.Entity{ID: card.InstanceID, Source: drag.SourceShop}
	if !dropAt(t, reg, e, geom.Point{X: 30, Y: 330}) {
		t.Fatal("bench zone should accept the card even when purchase fails")
	}
	snap := s.Snapshot()
	if snap.Bench[0] != nil {
		t.Error("broke purchase still placed a unit")
	}
	if snap.Shop[0] == nil {
		t.Error("broke purchase consumed the shop slot")
	}
	if snap.Gold != 0 {
		t.Errorf("gold = %d", snap.Gold)
	}
}

func TestWireZonesHandlesUnregister(t *testing.T) {
	set := singleChampSet(t, 22)
	s := newTestSession(t, set, 10)
	reg := drag.NewRegistry()
	layout := newFixedLayout()

	handles := s.WireZones(reg, layout.bounds)
	want := 1 + BenchSize + BoardRows*BoardCols + 1
	if reg.Len() != want {
		t.Fatalf("registered %d zones, want %d", reg.Len(), want)
	}
	for _, h := range handles {
		reg.Unregister(h)
	}
	if reg.Len() != 0 {
		t.Errorf("%d zones left after unregistering all handles", reg.Len())
	}
}
