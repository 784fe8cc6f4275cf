package drag

import "github.com/MJE43/rolldown-trainer-go/internal/geom"

// snapDistance is the squared magnitude below which the interpolated offset
// snaps onto its target instead of asymptotically creeping toward it.
const snapDistance = 0.25

// Tracker converts raw pointer positions into a smoothed offset vector for
// the dragged element. The raw offset (target) updates on every pointer
// move; the applied offset (current) chases it once per frame, which is
// what makes the element glide instead of teleporting between sparse
// pointer events.
type Tracker struct {
	origin       geom.Rect  // element bounds captured at gesture start
	startPointer geom.Point // pointer position at gesture start
	grabOffset   geom.Vec   // pointer position relative to element top-left

	target  geom.Vec
	current geom.Vec
}

// NewTracker captures the gesture's starting geometry.
func NewTracker(origin geom.Rect, pointer geom.Point) *Tracker {
	return &Tracker{
		origin:       origin,
		startPointer: pointer,
		grabOffset:   pointer.Sub(origin.TopLeft()),
	}
}

// Track updates the interpolation target from a live pointer position:
// pointer minus start position minus grab offset, so the element stays
// pinned under the finger at the exact spot it was grabbed.
func (t *Tracker) Track(pointer geom.Point) {
	t.target = pointer.Sub(t.origin.TopLeft()).Sub(t.grabOffset)
}

// Advance moves the current offset toward the target by the given factor
// and returns it. Called once per animation frame.
func (t *Tracker) Advance(factor float64) geom.Vec {
	t.current = t.current.Lerp(t.target, factor)
	if t.target.Sub(t.current).Len() < snapDistance {
		t.current = t.target
	}
	return t.current
}

// Offset returns the current smoothed offset without advancing.
func (t *Tracker) Offset() geom.Vec { return t.current }

// DistanceFromStart returns how far the pointer has traveled from where the
// gesture began. Drives the commit threshold.
func (t *Tracker) DistanceFromStart(pointer geom.Point) float64 {
	return pointer.Dist(t.startPointer)
}

// Rebase re-anchors the tracker on a replacement element rect while keeping
// the applied offset visually continuous. Used when the dragged element is
// removed mid-gesture and re-resolved to a new representation.
func (t *Tracker) Rebase(origin geom.Rect, pointer geom.Point) {
	t.origin = origin
	t.grabOffset = pointer.Sub(origin.TopLeft()).Sub(t.current)
	t.Track(pointer)
}
