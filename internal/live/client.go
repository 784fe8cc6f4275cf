package live

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/MJE43/rolldown-trainer-go/internal/drag"
	"github.com/MJE43/rolldown-trainer-go/internal/geom"
	"github.com/MJE43/rolldown-trainer-go/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client bridges one websocket connection to its own drag coordinator.
// Drags are per-client exclusive, so every connection gets a private
// coordinator and zone registry over a shared session.
type Client struct {
	conn *websocket.Conn
	send chan ServerMessage
	done chan struct{}
	sess *session.Session
	log  *logrus.Entry

	coordinator *drag.Coordinator

	// Live zone geometry as the browser lays it out.
	rectsMu sync.Mutex
	rects   map[string]geom.Rect
}

func newClient(conn *websocket.Conn, sess *session.Session, log *logrus.Entry) *Client {
	c := &Client{
		conn:  conn,
		send:  make(chan ServerMessage, 256),
		done:  make(chan struct{}),
		sess:  sess,
		log:   log,
		rects: map[string]geom.Rect{},
	}

	registry := drag.NewRegistry()
	sess.WireZones(registry, c.zoneBounds)

	c.coordinator = drag.NewCoordinator(registry, drag.Config{
		ShopThreshold: drag.DefaultShopThreshold,
		Sink: func(vs drag.VisualState) {
			c.trySend(ServerMessage{Type: MsgFrame, Frame: &vs})
		},
	})
	c.coordinator.Subscribe(c)
	return c
}

// zoneBounds reports the last rectangle the browser sent for a zone.
func (c *Client) zoneBounds(zoneID string) (geom.Rect, bool) {
	c.rectsMu.Lock()
	defer c.rectsMu.Unlock()
	r, ok := c.rects[zoneID]
	return r, ok
}

// DragStarted implements drag.Observer.
func (c *Client) DragStarted(e drag.Entity) {
	c.trySend(ServerMessage{Type: MsgGesture, Event: GestureStarted, EntityID: e.ID})
}

// DragEnded implements drag.Observer. The drop may have mutated the session,
// so the ending notification carries a fresh snapshot.
func (c *Client) DragEnded(e drag.Entity) {
	c.trySend(ServerMessage{Type: MsgGesture, Event: GestureEnded, EntityID: e.ID})
	c.sendState()
}

func (c *Client) sendState() {
	state := c.sess.Snapshot()
	c.trySend(ServerMessage{Type: MsgState, State: &state})
}

// trySend drops the message rather than blocking the engine on a slow or
// departed consumer; the next state snapshot resynchronizes the client.
func (c *Client) trySend(msg ServerMessage) {
	select {
	case <-c.done:
	case c.send <- msg:
	default:
	}
}

func (c *Client) handleMessage(msg ClientMessage) {
	switch msg.Type {
	case MsgPointerDown:
		if msg.Entity == nil || msg.Rect == nil || msg.Pointer == nil {
			c.trySend(ServerMessage{Type: MsgError, Message: "pointer_down requires entity, rect, and pointer"})
			return
		}
		c.coordinator.Start(*msg.Rect, *msg.Pointer, *msg.Entity, nil)

	case MsgPointerMove:
		if msg.Pointer != nil {
			c.coordinator.PointerMove(*msg.Pointer)
		}

	case MsgPointerUp:
		if msg.Pointer != nil {
			c.coordinator.PointerUp(*msg.Pointer)
		}

	case MsgCancel:
		c.coordinator.Cancel()

	case MsgEntityRemoved:
		c.coordinator.HandleEntityRemoved()

	case MsgZoneUpdate:
		if msg.ZoneID == "" || msg.Rect == nil {
			return
		}
		c.rectsMu.Lock()
		c.rects[msg.ZoneID] = *msg.Rect
		c.rectsMu.Unlock()

	case MsgZoneRemove:
		c.rectsMu.Lock()
		delete(c.rects, msg.ZoneID)
		c.rectsMu.Unlock()

	default:
		c.trySend(ServerMessage{Type: MsgError, Message: "unknown message type: " + msg.Type})
	}
}

// readPump reads browser events until the connection drops. Any exit path
// force-ends the active gesture so a disconnect mid-drag cannot leave the
// session stuck.
func (c *Client) readPump() {
	defer func() {
		c.coordinator.ForceEnd()
		close(c.done)
		if err := c.conn.Close(); err != nil {
			c.log.WithError(err).Debug("websocket close failed")
		}
		c.log.Info("client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.WithError(err).Warn("failed to set read deadline")
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Warn("websocket read error")
			}
			return
		}
		c.handleMessage(msg)
	}
}

// writePump forwards outbound messages and keeps the connection alive with
// pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case msg := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.WithError(err).Warn("failed to set write deadline")
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.log.WithError(err).Debug("websocket write failed")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.WithError(err).Warn("failed to set ping write deadline")
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
