package live

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/MJE43/rolldown-trainer-go/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The browser UI is served from its own dev server during development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub upgrades websocket connections and binds each one to a session's drag
// protocol.
type Hub struct {
	sessions *session.Manager
	log      *logrus.Logger
}

// NewHub creates a hub over the shared session manager.
func NewHub(sessions *session.Manager, log *logrus.Logger) *Hub {
	if log == nil {
		log = logrus.New()
	}
	return &Hub{sessions: sessions, log: log}
}

// Routes returns the websocket routes: GET /ws/{sessionID}.
func (h *Hub) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/ws/{sessionID}", h.handleWS)
	return r
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	sess, ok := h.sessions.Get(id)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := newClient(conn, sess, h.log.WithField("session", id))
	client.log.Info("client connected")

	go client.writePump()

	// The initial snapshot lets the browser render before any gesture.
	client.sendState()

	go client.readPump()
}
