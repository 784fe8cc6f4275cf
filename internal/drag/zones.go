package drag

import (
	"sync"

	"github.com/MJE43/rolldown-trainer-go/internal/geom"
)

// Zone is a registered drop target. Geometry is queried live through Bounds
// on every hit test — never cached — because layout can shift while a
// gesture is in flight.
type Zone struct {
	// ID names the zone in VisualState frames (e.g. "sell", "board:2,4").
	ID string

	// Bounds returns the zone's current rectangle. ok == false means the
	// backing element has left the document; the zone is skipped silently.
	Bounds func() (r geom.Rect, ok bool)

	// Accepts decides whether the zone takes this entity. nil accepts all.
	Accepts func(Entity) bool

	// OnDrop receives the entity and the pointer position of the drop.
	OnDrop func(Entity, geom.Point)

	// Hover side-effect hooks. Each fires exactly once per transition —
	// enter when the zone becomes the hovered zone, leave when it stops
	// being it. Optional.
	OnHoverEnter func(Entity)
	OnHoverLeave func(Entity)
}

// Handle identifies a registration for later removal.
type Handle uint64

type zoneEntry struct {
	handle Handle
	zone   Zone
}

// Registry holds candidate drop zones in registration order. Zones
// self-register on mount and self-unregister on unmount; the registry owns
// nothing beyond the list.
type Registry struct {
	mu    sync.Mutex
	zones []*zoneEntry
	next  Handle
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a zone and returns its removal handle.
func (r *Registry) Register(z Zone) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	r.zones = append(r.zones, &zoneEntry{handle: r.next, zone: z})
	return r.next
}

// Unregister removes the zone with the given handle. Unknown handles are
// ignored; unregistering during an active gesture is legal.
func (r *Registry) Unregister(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, e := range r.zones {
		if e.handle == h {
			r.zones = append(r.zones[:i], r.zones[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered zones.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.zones)
}

// QueryHit returns the first zone, in registration order, whose live
// geometry contains the point and whose predicate accepts the entity.
// First-match-wins is the resolution rule — not largest, not topmost.
func (r *Registry) QueryHit(p geom.Point, e Entity) (Zone, bool) {
	if entry := r.queryEntry(p, e); entry != nil {
		return entry.zone, true
	}
	return Zone{}, false
}

// queryEntry is QueryHit exposed to the coordinator, which needs the stable
// entry identity to detect hover transitions.
func (r *Registry) queryEntry(p geom.Point, e Entity) *zoneEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range r.zones {
		if entry.zone.Bounds == nil {
			continue
		}
		rect, ok := entry.zone.Bounds()
		if !ok {
			// Backing element removed between registration and query
			// (unit combined away mid-drag). Skip, never error.
			continue
		}
		if !rect.Contains(p) {
			continue
		}
		if entry.zone.Accepts != nil && !entry.zone.Accepts(e) {
			continue
		}
		return entry
	}
	return nil
}
