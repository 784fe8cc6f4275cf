package drag

import (
	"sync"
	"time"

	"github.com/MJE43/rolldown-trainer-go/internal/geom"
)

// VisualState is the desired presentation of the dragged element for one
// frame. The engine computes it; the rendering layer applies it. An
// inactive state with a zero offset means "restore everything" — no
// residual transform, elevation, or highlight may survive a gesture.
type VisualState struct {
	Active      bool     `json:"active"`
	EntityID    string   `json:"entity_id,omitempty"`
	Offset      geom.Vec `json:"offset"`
	Committed   bool     `json:"committed"`
	HoveredZone string   `json:"hovered_zone,omitempty"`
}

// FrameSink receives one VisualState per animation frame while a gesture is
// active, plus a final restoring state when it ends.
type FrameSink func(VisualState)

// Observer is notified after a gesture starts and after it ends. Components
// that exist only during a drag (the sell overlay, for one) key their
// visibility off these notifications.
type Observer interface {
	DragStarted(Entity)
	DragEnded(Entity)
}

// Resolver re-resolves a dragged entity to its current on-screen rectangle
// after its original element disappears mid-gesture (a concurrent state
// update can remove the unit being dragged). Optional.
type Resolver interface {
	ResolveOrigin(Entity) (geom.Rect, bool)
}

// Config tunes a Coordinator. Zero values select the defaults.
type Config struct {
	// FrameInterval is the animation tick period. Zero selects the 16ms
	// default; a negative value disables the internal ticker entirely, and
	// the owner then drives frames through Step.
	FrameInterval time.Duration

	// Smoothing is the per-frame interpolation factor toward the raw
	// pointer offset, in (0, 1].
	Smoothing float64

	// Per-source commit thresholds in pixels. Negative values mean "use
	// the default"; zero is a meaningful threshold (commit on any move).
	ShopThreshold  float64
	BenchThreshold float64
	BoardThreshold float64

	Resolver Resolver
	Sink     FrameSink
}

const (
	defaultFrameInterval = 16 * time.Millisecond
	defaultSmoothing     = 0.35
)

// gesture is the state machine for one drag, pointer-down to pointer-up.
type gesture struct {
	entity      Entity
	tracker     *Tracker
	threshold   float64
	committed   bool // monotonic: false -> true, never back
	hovered     *zoneEntry
	lastPointer geom.Point
	recovered   bool // the one-time stale-origin recovery has been spent
	onEnd       func(Entity, geom.Point)
	gen         uint64
}

// Coordinator owns the full lifetime of drag gestures: start, move and
// hover updates, threshold commit, drop dispatch, and cleanup. Gestures are
// exclusive — starting one while another is active is a no-op. All state
// lives behind one mutex; zone callbacks, frames, and observer
// notifications are always invoked outside it.
type Coordinator struct {
	mu    sync.Mutex
	cfg   Config
	zones *Registry

	gest *gesture
	gen  uint64 // bumped on every start/end; stale frame loops see it and quit

	observers map[uint64]Observer
	obsNext   uint64
}

// NewCoordinator creates a coordinator over the given zone registry.
func NewCoordinator(zones *Registry, cfg Config) *Coordinator {
	if cfg.FrameInterval == 0 {
		cfg.FrameInterval = defaultFrameInterval
	}
	if cfg.Smoothing <= 0 || cfg.Smoothing > 1 {
		cfg.Smoothing = defaultSmoothing
	}
	if cfg.ShopThreshold < 0 {
		cfg.ShopThreshold = DefaultShopThreshold
	}
	if cfg.BenchThreshold < 0 {
		cfg.BenchThreshold = DefaultBenchThreshold
	}
	if cfg.BoardThreshold < 0 {
		cfg.BoardThreshold = DefaultBoardThreshold
	}
	return &Coordinator{
		cfg:       cfg,
		zones:     zones,
		observers: make(map[uint64]Observer),
	}
}

// Zones returns the registry this coordinator hit-tests against.
func (c *Coordinator) Zones() *Registry { return c.zones }

// Active reports whether a gesture is in flight.
func (c *Coordinator) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gest != nil
}

// Subscribe registers an observer and returns its unsubscribe function.
func (c *Coordinator) Subscribe(o Observer) func() {
	c.mu.Lock()
	c.obsNext++
	id := c.obsNext
	c.observers[id] = o
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

func (c *Coordinator) thresholdFor(s Source) float64 {
	switch s {
	case SourceShop:
		return c.cfg.ShopThreshold
	case SourceBench:
		return c.cfg.BenchThreshold
	case SourceBoard:
		return c.cfg.BoardThreshold
	default:
		return 0
	}
}

// Start begins a gesture for the entity grabbed at pointer inside the
// element rect origin. onEnd is the fallback completion, invoked when the
// gesture ends with no matching drop zone. Returns false — with no side
// effects — when a gesture is already active.
func (c *Coordinator) Start(origin geom.Rect, pointer geom.Point, e Entity, onEnd func(Entity, geom.Point)) bool {
	c.mu.Lock()
	if c.gest != nil {
		c.mu.Unlock()
		return false
	}
	c.gen++
	g := &gesture{
		entity:      e,
		tracker:     NewTracker(origin, pointer),
		threshold:   c.thresholdFor(e.Source),
		lastPointer: pointer,
		onEnd:       onEnd,
		gen:         c.gen,
	}
	c.gest = g
	obs := c.observerList()
	interval := c.cfg.FrameInterval
	gen := c.gen
	c.mu.Unlock()

	if interval > 0 {
		go c.frameLoop(gen, interval)
	}
	for _, o := range obs {
		o.DragStarted(e)
	}
	c.emit(VisualState{Active: true, EntityID: e.ID})
	return true
}

// PointerMove feeds a live pointer position into the active gesture: it
// retargets the interpolation, fires the one-way commit edge once the
// pointer clears the source's threshold, and re-evaluates zone hover after
// commit. A no-op when no gesture is active.
func (c *Coordinator) PointerMove(pointer geom.Point) {
	c.mu.Lock()
	g := c.gest
	if g == nil {
		c.mu.Unlock()
		return
	}
	g.lastPointer = pointer
	g.tracker.Track(pointer)

	if !g.committed && g.tracker.DistanceFromStart(pointer) > g.threshold {
		g.committed = true
	}

	var leave, enter func(Entity)
	if g.committed {
		next := c.zones.queryEntry(pointer, g.entity)
		if next != g.hovered {
			if g.hovered != nil {
				leave = g.hovered.zone.OnHoverLeave
			}
			if next != nil {
				enter = next.zone.OnHoverEnter
			}
			g.hovered = next
		}
	}
	e := g.entity
	c.mu.Unlock()

	// Leave fires before enter so at most one zone ever reads as hovered.
	if leave != nil {
		leave(e)
	}
	if enter != nil {
		enter(e)
	}
}

// PointerUp ends the gesture at the given pointer position. The first
// registered zone containing the pointer and accepting the entity receives
// the drop; with no match, the gesture's fallback onEnd runs instead.
// Calling it twice for one gesture is safe — the second call is a no-op.
func (c *Coordinator) PointerUp(pointer geom.Point) {
	c.finish(pointer, true)
}

// Cancel ends the gesture as if the pointer was released with no matching
// drop zone: right-click, a native dragend/dragleave leaking through, or
// window blur must never leave the system stuck in a dragging state.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	var pointer geom.Point
	if c.gest != nil {
		pointer = c.gest.lastPointer
	}
	c.mu.Unlock()
	c.finish(pointer, false)
}

// ForceEnd is the safety net: callable at any time, idempotent, identical
// to Cancel when a gesture is active and a no-op otherwise.
func (c *Coordinator) ForceEnd() {
	c.Cancel()
}

// HandleEntityRemoved reacts to the dragged element vanishing mid-gesture.
// One recovery attempt re-resolves the entity through the configured
// Resolver and rebases the tracker on the replacement rect; when recovery
// is unavailable, already spent, or fails, the gesture terminates through
// the fallback path.
func (c *Coordinator) HandleEntityRemoved() {
	c.mu.Lock()
	g := c.gest
	if g == nil {
		c.mu.Unlock()
		return
	}
	if !g.recovered && c.cfg.Resolver != nil {
		if rect, ok := c.cfg.Resolver.ResolveOrigin(g.entity); ok {
			g.recovered = true
			g.tracker.Rebase(rect, g.lastPointer)
			c.mu.Unlock()
			return
		}
	}
	c.mu.Unlock()
	c.Cancel()
}

// Step advances the interpolation one frame and emits the resulting
// VisualState. The internal ticker calls this; owners that disabled the
// ticker (FrameInterval <= 0) call it on their own cadence.
func (c *Coordinator) Step() {
	c.mu.Lock()
	g := c.gest
	if g == nil {
		c.mu.Unlock()
		return
	}
	off := g.tracker.Advance(c.cfg.Smoothing)
	vs := VisualState{
		Active:    true,
		EntityID:  g.entity.ID,
		Committed: g.committed,
	}
	if g.committed {
		// The element does not move until the gesture commits.
		vs.Offset = off
		if g.hovered != nil {
			vs.HoveredZone = g.hovered.zone.ID
		}
	}
	c.mu.Unlock()

	c.emit(vs)
}

// finish is the single cleanup routine every termination path converges
// on. resolveDrop distinguishes a real pointer-up (drop zones considered)
// from cancellation (straight to fallback).
func (c *Coordinator) finish(pointer geom.Point, resolveDrop bool) {
	c.mu.Lock()
	g := c.gest
	if g == nil {
		// Already ended (window-level safety net firing after pointer-up).
		c.mu.Unlock()
		return
	}
	c.gest = nil
	c.gen++ // frame loop self-terminates on next tick

	var leave func(Entity)
	if g.hovered != nil {
		leave = g.hovered.zone.OnHoverLeave
		g.hovered = nil
	}

	var drop *zoneEntry
	if resolveDrop && g.committed {
		drop = c.zones.queryEntry(pointer, g.entity)
	}
	obs := c.observerList()
	e := g.entity
	c.mu.Unlock()

	// Full restoration before any callback runs: no residual transform,
	// elevation, or highlight leaks into whatever the callbacks render.
	c.emit(VisualState{EntityID: e.ID})

	if leave != nil {
		leave(e)
	}
	if drop != nil {
		if drop.zone.OnDrop != nil {
			drop.zone.OnDrop(e, pointer)
		}
	} else if g.onEnd != nil {
		g.onEnd(e, pointer)
	}
	for _, o := range obs {
		o.DragEnded(e)
	}
}

// frameLoop ticks the gesture it was started for and exits the moment that
// gesture is gone. A stale loop writing frames after endDrag would repaint
// a detached element, so the generation check runs every tick.
func (c *Coordinator) frameLoop(gen uint64, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		alive := c.gest != nil && c.gest.gen == gen
		c.mu.Unlock()
		if !alive {
			return
		}
		c.Step()
	}
}

func (c *Coordinator) observerList() []Observer {
	out := make([]Observer, 0, len(c.observers))
	for _, o := range c.observers {
		out = append(out, o)
	}
	return out
}

func (c *Coordinator) emit(vs VisualState) {
	if c.cfg.Sink != nil {
		c.cfg.Sink(vs)
	}
}
