package drag

import (
	"sync"
	"testing"

	"github.com/MJE43/rolldown-trainer-go/internal/geom"
)

// harness wires a coordinator with a frame recorder and no internal ticker;
// tests drive frames explicitly through Step.
type harness struct {
	coord  *Coordinator
	reg    *Registry
	mu     sync.Mutex
	frames []VisualState
}

func newHarness(cfg Config) *harness {
	h := &harness{reg: NewRegistry()}
	cfg.FrameInterval = -1
	cfg.Sink = func(vs VisualState) {
		h.mu.Lock()
		h.frames = append(h.frames, vs)
		h.mu.Unlock()
	}
	h.coord = NewCoordinator(h.reg, cfg)
	return h
}

func (h *harness) lastFrame() VisualState {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.frames) == 0 {
		return VisualState{}
	}
	return h.frames[len(h.frames)-1]
}

func benchEntity() Entity { return Entity{ID: "u1", Source: SourceBench, BenchIndex: 2} }
func shopEntity() Entity  { return Entity{ID: "s1", Source: SourceShop} }

func startAt(h *harness, e Entity, onEnd func(Entity, geom.Point)) bool {
	return h.coord.Start(geom.NewRect(100, 100, 60, 80), geom.Point{X: 130, Y: 140}, e, onEnd)
}

func TestStartIsExclusive(t *testing.T) {
	h := newHarness(Config{})

	if !startAt(h, benchEntity(), nil) {
		t.Fatal("first start should succeed")
	}
	if startAt(h, shopEntity(), nil) {
		t.Error("second start while active should be a no-op")
	}
	if !h.coord.Active() {
		t.Error("coordinator should be active")
	}
}

func TestCommitThresholdMonotonic(t *testing.T) {
	h := newHarness(Config{ShopThreshold: 12})
	startAt(h, shopEntity(), nil)

	// Oscillate across the threshold: under, over, back under, over.
	moves := []geom.Point{
		{X: 135, Y: 140}, // dist 5: uncommitted
		{X: 160, Y: 140}, // dist 30: commit edge
		{X: 131, Y: 140}, // dist 1: must stay committed
		{X: 150, Y: 140},
		{X: 130, Y: 140}, // dist 0
	}

	wantCommitted := []bool{false, true, true, true, true}
	for i, p := range moves {
		h.coord.PointerMove(p)
		h.coord.Step()
		if got := h.lastFrame().Committed; got != wantCommitted[i] {
			t.Errorf("move %d: committed = %v, want %v", i, got, wantCommitted[i])
		}
	}
}

func TestBenchCommitsOnAnyMovement(t *testing.T) {
	h := newHarness(Config{})
	startAt(h, benchEntity(), nil)

	h.coord.PointerMove(geom.Point{X: 130.6, Y: 140})
	h.coord.Step()
	if !h.lastFrame().Committed {
		t.Error("bench-sourced drag should commit on sub-pixel movement")
	}
}

func TestShopClickDoesNotCommit(t *testing.T) {
	h := newHarness(Config{ShopThreshold: 12})
	startAt(h, shopEntity(), nil)

	// Jitter within the threshold, as a click-to-purchase produces.
	h.coord.PointerMove(geom.Point{X: 133, Y: 142})
	h.coord.Step()
	if h.lastFrame().Committed {
		t.Error("shop drag committed inside the threshold")
	}
	if off := h.lastFrame().Offset; off.X != 0 || off.Y != 0 {
		t.Errorf("uncommitted frame carries offset %+v, want zero", off)
	}
}

func TestOffsetAppliedOnlyAfterCommit(t *testing.T) {
	h := newHarness(Config{ShopThreshold: 12})
	startAt(h, shopEntity(), nil)

	h.coord.PointerMove(geom.Point{X: 135, Y: 140})
	h.coord.Step()
	if off := h.lastFrame().Offset; off != (geom.Vec{}) {
		t.Fatalf("offset before commit = %+v, want zero", off)
	}

	h.coord.PointerMove(geom.Point{X: 230, Y: 140})
	h.coord.Step()
	if off := h.lastFrame().Offset; off.X <= 0 {
		t.Errorf("offset after commit = %+v, want positive x", off)
	}
}

func TestHoverTransitionsFireOncePerTransition(t *testing.T) {
	h := newHarness(Config{})

	var enters, leaves []string
	zone := func(id string, r geom.Rect) Zone {
		return Zone{
			ID:           id,
			Bounds:       fixedBounds(r),
			OnHoverEnter: func(Entity) { enters = append(enters, id) },
			OnHoverLeave: func(Entity) { leaves = append(leaves, id) },
		}
	}
	h.reg.Register(zone("a", geom.NewRect(0, 0, 100, 100)))
	h.reg.Register(zone("b", geom.NewRect(200, 0, 100, 100)))

	startAt(h, benchEntity(), nil)

	inA := geom.Point{X: 50, Y: 50}
	inB := geom.Point{X: 250, Y: 50}
	nowhere := geom.Point{X: 500, Y: 500}

	h.coord.PointerMove(inA)
	h.coord.PointerMove(inA) // staying put must not re-fire enter
	h.coord.PointerMove(inB)
	h.coord.PointerMove(nowhere)
	h.coord.PointerMove(inA)

	wantEnters := []string{"a", "b", "a"}
	wantLeaves := []string{"a", "b"}

	if len(enters) != len(wantEnters) {
		t.Fatalf("enters = %v, want %v", enters, wantEnters)
	}
	for i := range wantEnters {
		if enters[i] != wantEnters[i] {
			t.Fatalf("enters = %v, want %v", enters, wantEnters)
		}
	}
	if len(leaves) != len(wantLeaves) {
		t.Fatalf("leaves = %v, want %v", leaves, wantLeaves)
	}
	for i := range wantLeaves {
		if leaves[i] != wantLeaves[i] {
			t.Fatalf("leaves = %v, want %v", leaves, wantLeaves)
		}
	}
}

func TestHoveredZoneInFrames(t *testing.T) {
	h := newHarness(Config{})
	h.reg.Register(Zone{ID: "board", Bounds: fixedBounds(geom.NewRect(0, 0, 300, 300))})

	startAt(h, benchEntity(), nil)
	h.coord.PointerMove(geom.Point{X: 150, Y: 150})
	h.coord.Step()

	if hz := h.lastFrame().HoveredZone; hz != "board" {
		t.Errorf("hovered zone in frame = %q, want board", hz)
	}
}

func TestDropFirstMatchWins(t *testing.T) {
	h := newHarness(Config{})

	var dropped []string
	mk := func(id string, r geom.Rect) Zone {
		return Zone{
			ID:     id,
			Bounds: fixedBounds(r),
			OnDrop: func(Entity, geom.Point) { dropped = append(dropped, id) },
		}
	}
	// Both zones contain the drop point; "small" is registered first and
	// must win even though "big" covers it completely.
	h.reg.Register(mk("small", geom.NewRect(40, 40, 20, 20)))
	h.reg.Register(mk("big", geom.NewRect(0, 0, 1000, 1000)))

	startAt(h, benchEntity(), nil)
	h.coord.PointerMove(geom.Point{X: 50, Y: 50})
	h.coord.PointerUp(geom.Point{X: 50, Y: 50})

	if len(dropped) != 1 || dropped[0] != "small" {
		t.Errorf("dropped = %v, want [small]", dropped)
	}
}

func TestNoMatchInvokesFallback(t *testing.T) {
	h := newHarness(Config{})
	h.reg.Register(Zone{ID: "z", Bounds: fixedBounds(geom.NewRect(0, 0, 10, 10))})

	var fellBack bool
	startAt(h, benchEntity(), func(e Entity, p geom.Point) {
		fellBack = true
		if e.ID != "u1" {
			t.Errorf("fallback entity = %s, want u1", e.ID)
		}
	})

	h.coord.PointerMove(geom.Point{X: 400, Y: 400})
	h.coord.PointerUp(geom.Point{X: 400, Y: 400})

	if !fellBack {
		t.Error("fallback onEnd should fire when no zone matches")
	}
}

func TestPointerUpIdempotent(t *testing.T) {
	h := newHarness(Config{})

	drops := 0
	h.reg.Register(Zone{
		ID:     "z",
		Bounds: fixedBounds(geom.NewRect(0, 0, 1000, 1000)),
		OnDrop: func(Entity, geom.Point) { drops++ },
	})

	ends := 0
	startAt(h, benchEntity(), func(Entity, geom.Point) { ends++ })
	h.coord.PointerMove(geom.Point{X: 200, Y: 200})

	p := geom.Point{X: 200, Y: 200}
	h.coord.PointerUp(p)
	h.coord.PointerUp(p) // window-level safety net firing again

	if drops != 1 {
		t.Errorf("drops = %d, want 1", drops)
	}
	if ends != 0 {
		t.Errorf("fallback fired %d times, want 0", ends)
	}
}

func TestCancelTakesFallbackPath(t *testing.T) {
	h := newHarness(Config{})

	var dropFired, fallbackFired bool
	h.reg.Register(Zone{
		ID:     "z",
		Bounds: fixedBounds(geom.NewRect(0, 0, 1000, 1000)),
		OnDrop: func(Entity, geom.Point) { dropFired = true },
	})

	startAt(h, benchEntity(), func(Entity, geom.Point) { fallbackFired = true })
	h.coord.PointerMove(geom.Point{X: 200, Y: 200}) // over the zone

	// Right-click / native dragend: identical to pointer-up with no match.
	h.coord.Cancel()

	if dropFired {
		t.Error("cancel must not dispatch a drop")
	}
	if !fallbackFired {
		t.Error("cancel should invoke the fallback")
	}
	if h.coord.Active() {
		t.Error("gesture still active after cancel")
	}
}

func TestForceEndIdleIsNoOp(t *testing.T) {
	h := newHarness(Config{})

	h.coord.ForceEnd() // callable with nothing active
	h.coord.ForceEnd()

	if h.coord.Active() {
		t.Error("coordinator active after idle force-end")
	}
}

func TestCleanupCompleteness(t *testing.T) {
	paths := []struct {
		name string
		end  func(h *harness)
	}{
		{"drop", func(h *harness) { h.coord.PointerUp(geom.Point{X: 50, Y: 50}) }},
		{"no_match", func(h *harness) { h.coord.PointerUp(geom.Point{X: 900, Y: 900}) }},
		{"cancel", func(h *harness) { h.coord.Cancel() }},
		{"force_end", func(h *harness) { h.coord.ForceEnd() }},
	}

	for _, tc := range paths {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(Config{})
			h.reg.Register(Zone{
				ID:     "z",
				Bounds: fixedBounds(geom.NewRect(0, 0, 100, 100)),
				OnDrop: func(Entity, geom.Point) {},
			})

			startAt(h, benchEntity(), nil)
			h.coord.PointerMove(geom.Point{X: 50, Y: 50})
			h.coord.Step()
			tc.end(h)

			// Final frame restores everything.
			last := h.lastFrame()
			if last.Active {
				t.Error("final frame still active")
			}
			if last.Offset != (geom.Vec{}) {
				t.Errorf("residual offset %+v after %s", last.Offset, tc.name)
			}
			if last.Committed || last.HoveredZone != "" {
				t.Errorf("residual styling after %s: %+v", tc.name, last)
			}

			// A fresh gesture must start immediately.
			if !startAt(h, shopEntity(), nil) {
				t.Errorf("start after %s failed", tc.name)
			}
		})
	}
}

func TestObserverNotifications(t *testing.T) {
	h := newHarness(Config{})

	rec := &recordingObserver{}
	unsub := h.coord.Subscribe(rec)

	startAt(h, benchEntity(), nil)
	h.coord.PointerUp(geom.Point{X: 0, Y: 0})

	if rec.started != 1 || rec.ended != 1 {
		t.Errorf("observer saw started=%d ended=%d, want 1/1", rec.started, rec.ended)
	}

	unsub()
	startAt(h, benchEntity(), nil)
	h.coord.ForceEnd()

	if rec.started != 1 || rec.ended != 1 {
		t.Error("unsubscribed observer still notified")
	}
}

type recordingObserver struct {
	started, ended int
}

func (r *recordingObserver) DragStarted(Entity) { r.started++ }
func (r *recordingObserver) DragEnded(Entity)   { r.ended++ }

type staticResolver struct {
	rect geom.Rect
	ok   bool
	hits int
}

func (s *staticResolver) ResolveOrigin(Entity) (geom.Rect, bool) {
	s.hits++
	return s.rect, s.ok
}

func TestEntityRemovedRecoversOnce(t *testing.T) {
	res := &staticResolver{rect: geom.NewRect(10, 10, 60, 80), ok: true}
	h := newHarness(Config{Resolver: res})

	startAt(h, benchEntity(), nil)
	h.coord.PointerMove(geom.Point{X: 200, Y: 200})

	h.coord.HandleEntityRemoved()
	if !h.coord.Active() {
		t.Fatal("gesture should survive the first removal via recovery")
	}
	if res.hits != 1 {
		t.Fatalf("resolver hits = %d, want 1", res.hits)
	}

	// Recovery is one-time: a second removal terminates the gesture even
	// though the resolver could still answer.
	h.coord.HandleEntityRemoved()
	if h.coord.Active() {
		t.Error("second removal should end the gesture")
	}
	if res.hits != 1 {
		t.Errorf("resolver hits = %d, want 1 (no second attempt)", res.hits)
	}
}

func TestEntityRemovedWithoutResolverEndsGesture(t *testing.T) {
	h := newHarness(Config{})

	var fellBack bool
	startAt(h, benchEntity(), func(Entity, geom.Point) { fellBack = true })
	h.coord.HandleEntityRemoved()

	if h.coord.Active() {
		t.Error("gesture should end when no resolver is configured")
	}
	if !fellBack {
		t.Error("termination should take the fallback path")
	}
}

func TestEntityRemovedResolverFails(t *testing.T) {
	res := &staticResolver{ok: false}
	h := newHarness(Config{Resolver: res})

	startAt(h, benchEntity(), nil)
	h.coord.HandleEntityRemoved()

	if h.coord.Active() {
		t.Error("failed recovery should end the gesture")
	}
}

func TestUncommittedReleaseDoesNotDrop(t *testing.T) {
	h := newHarness(Config{ShopThreshold: 12})

	var dropFired bool
	h.reg.Register(Zone{
		ID:     "bench",
		Bounds: fixedBounds(geom.NewRect(0, 0, 1000, 1000)),
		OnDrop: func(Entity, geom.Point) { dropFired = true },
	})

	// Press and release a shop card with jitter below the threshold: that
	// is a click, and a click must not dispatch a drop.
	startAt(h, shopEntity(), nil)
	h.coord.PointerMove(geom.Point{X: 132, Y: 141})
	h.coord.PointerUp(geom.Point{X: 132, Y: 141})

	if dropFired {
		t.Error("uncommitted release dispatched a drop")
	}
}

func TestZoneRemovedMidDragIsSkippedOnDrop(t *testing.T) {
	h := newHarness(Config{})

	alive := true
	var dropped []string
	h.reg.Register(Zone{
		ID: "ephemeral",
		Bounds: func() (geom.Rect, bool) {
			return geom.NewRect(0, 0, 1000, 1000), alive
		},
		OnDrop: func(Entity, geom.Point) { dropped = append(dropped, "ephemeral") },
	})
	h.reg.Register(Zone{
		ID:     "backstop",
		Bounds: fixedBounds(geom.NewRect(0, 0, 1000, 1000)),
		OnDrop: func(Entity, geom.Point) { dropped = append(dropped, "backstop") },
	})

	startAt(h, benchEntity(), nil)
	h.coord.PointerMove(geom.Point{X: 500, Y: 500})

	alive = false // element vanishes between the last hover and the drop
	h.coord.PointerUp(geom.Point{X: 500, Y: 500})

	if len(dropped) != 1 || dropped[0] != "backstop" {
		t.Errorf("dropped = %v, want [backstop]", dropped)
	}
}
