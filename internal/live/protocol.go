// Package live carries the drag protocol between the browser UI and the
// engine over a websocket. The browser owns layout: it streams element
// rectangles and pointer events in; the engine streams VisualState frames
// and session snapshots back out.
package live

import (
	"github.com/MJE43/rolldown-trainer-go/internal/drag"
	"github.com/MJE43/rolldown-trainer-go/internal/geom"
	"github.com/MJE43/rolldown-trainer-go/internal/session"
)

// Inbound message types.
const (
	MsgPointerDown   = "pointer_down"
	MsgPointerMove   = "pointer_move"
	MsgPointerUp     = "pointer_up"
	MsgCancel        = "cancel"
	MsgZoneUpdate    = "zone_update"
	MsgZoneRemove    = "zone_remove"
	MsgEntityRemoved = "entity_removed"
)

// Outbound message types.
const (
	MsgFrame   = "frame"
	MsgGesture = "gesture"
	MsgState   = "state"
	MsgError   = "error"
)

// Gesture event names.
const (
	GestureStarted = "started"
	GestureEnded   = "ended"
)

// ClientMessage is one inbound event from the browser.
type ClientMessage struct {
	Type string `json:"type"`

	// Pointer position, for pointer_* messages.
	Pointer *geom.Point `json:"pointer,omitempty"`

	// Entity and its element rect, for pointer_down.
	Entity *drag.Entity `json:"entity,omitempty"`
	Rect   *geom.Rect   `json:"rect,omitempty"`

	// Zone geometry, for zone_update / zone_remove.
	ZoneID string `json:"zone_id,omitempty"`
}

// ServerMessage is one outbound event to the browser.
type ServerMessage struct {
	Type string `json:"type"`

	Frame *drag.VisualState `json:"frame,omitempty"`

	// Gesture lifecycle.
	Event    string `json:"event,omitempty"`
	EntityID string `json:"entity_id,omitempty"`

	// Full session snapshot after mutations.
	State *session.State `json:"state,omitempty"`

	Message string `json:"message,omitempty"`
}
