package session

import (
	"fmt"

	"github.com/MJE43/rolldown-trainer-go/internal/drag"
	"github.com/MJE43/rolldown-trainer-go/internal/geom"
)

// BoundsFunc reports the live rectangle of a named zone as the rendering
// layer lays it out. ok == false means the zone is currently not on screen.
type BoundsFunc func(zoneID string) (geom.Rect, bool)

// WireZones registers the session's standard drop targets with a drag
// registry: the sell zone first (it overlays the shop during a drag), then
// bench slots, then board cells. Registration order matters — hit resolution
// is first-match-wins.
//
// Drop handlers follow the engine's degradation policy: a command that fails
// its precondition (not enough gold, bench full) is logged and dropped, never
// raised, so the gesture always ends cleanly.
func (s *Session) WireZones(reg *drag.Registry, bounds BoundsFunc) []drag.Handle {
	var handles []drag.Handle
	add := func(z drag.Zone) {
		handles = append(handles, reg.Register(z))
	}

	add(drag.Zone{
		ID:      "sell",
		Bounds:  func() (geom.Rect, bool) { return bounds("sell") },
		Accepts: func(e drag.Entity) bool { return e.Source != drag.SourceShop },
		OnDrop: func(e drag.Entity, _ geom.Point) {
			if _, err := s.Sell(e.ID); err != nil {
				s.log.WithError(err).WithField("unit", e.ID).Debug("sell drop ignored")
			}
		},
	})

	for i := 0; i < BenchSize; i++ {
		i := i
		id := fmt.Sprintf("bench:%d", i)
		add(drag.Zone{
			ID:     id,
			Bounds: func() (geom.Rect, bool) { return bounds(id) },
			OnDrop: func(e drag.Entity, _ geom.Point) {
				var err error
				if e.Source == drag.SourceShop {
					_, err = s.purchaseInstanceTo(e.ID, i)
				} else {
					err = s.Move(e.ID, BenchLocation(i))
				}
				if err != nil {
					s.log.WithError(err).WithField("zone", id).Debug("bench drop ignored")
				}
			},
		})
	}

	for r := 0; r < BoardRows; r++ {
		for c := 0; c < BoardCols; c++ {
			r, c := r, c
			id := fmt.Sprintf("board:%d,%d", r, c)
			add(drag.Zone{
				ID:      id,
				Bounds:  func() (geom.Rect, bool) { return bounds(id) },
				Accepts: func(e drag.Entity) bool { return e.Source != drag.SourceShop },
				OnDrop: func(e drag.Entity, _ geom.Point) {
					if err := s.Move(e.ID, BoardLocation(r, c)); err != nil {
						s.log.WithError(err).WithField("zone", id).Debug("board drop ignored")
					}
				},
			})
		}
	}

	// The shop area takes nothing; registering it keeps hover feedback
	// honest when a unit is dragged across it.
	add(drag.Zone{
		ID:      "shop",
		Bounds:  func() (geom.Rect, bool) { return bounds("shop") },
		Accepts: func(drag.Entity) bool { return false },
	})

	return handles
}

// purchaseInstanceTo buys the shop slot currently holding the given instance
// onto a preferred bench slot. Drag purchases address the card, not the slot
// index, so a reroll between pickup and drop cannot buy the wrong unit.
func (s *Session) purchaseInstanceTo(instanceID string, benchIndex int) (*Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, slot := range s.gen.Slots() {
		if slot != nil && slot.InstanceID == instanceID {
			return s.purchaseAt(i, benchIndex)
		}
	}
	return nil, ErrEmptySlot
}
