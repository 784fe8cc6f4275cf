// Package api exposes the trainer over HTTP: session commands, scripted
// simulations, set-data listings, and run history.
package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/MJE43/rolldown-trainer-go/internal/gamedata"
	"github.com/MJE43/rolldown-trainer-go/internal/rng"
	"github.com/MJE43/rolldown-trainer-go/internal/session"
	"github.com/MJE43/rolldown-trainer-go/internal/store"
)

// Server handles HTTP requests.
type Server struct {
	db           store.DB
	sessions     *session.Manager
	sets         map[string]*gamedata.SetData
	defaultSet   string
	newSource    func() rng.Source
	errorHandler *ErrorHandler
	log          *logrus.Logger
	startTime    time.Time
}

// NewServer creates the API server. db may be nil (runs are then not
// persisted); sets must contain at least the default namespace.
func NewServer(db store.DB, sets map[string]*gamedata.SetData, defaultSet string, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	return &Server{
		db:           db,
		sessions:     session.NewManager(log),
		sets:         sets,
		defaultSet:   defaultSet,
		newSource:    func() rng.Source { return rng.NewEntropy() },
		errorHandler: NewErrorHandler(log),
		log:          log,
		startTime:    time.Now(),
	}
}

// Routes sets up the HTTP routes with proper middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.errorHandler.RecoveryHandler)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.CORSMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleVersion)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Delete("/sessions/{id}", s.handleDeleteSession)
		r.Post("/sessions/{id}/reroll", s.handleReroll)
		r.Post("/sessions/{id}/buy", s.handleBuy)
		r.Post("/sessions/{id}/sell", s.handleSell)
		r.Post("/sessions/{id}/move", s.handleMove)
		r.Post("/sessions/{id}/buyxp", s.handleBuyXP)
		r.Post("/sessions/{id}/finish", s.handleFinishSession)
		r.Post("/simulate", s.handleSimulate)
		r.Get("/sets", s.handleListSets)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})

	return r
}

// CORSMiddleware allows the browser UI, which is served from its own dev
// server, to call the API.
func (s *Server) CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionManager exposes the manager so the live websocket layer shares the
// same sessions.
func (s *Server) SessionManager() *session.Manager {
	return s.sessions
}

// writeJSON writes a JSON response with proper headers.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":         "healthy",
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
		"sets_loaded":    len(s.sets),
		"sessions_live":  len(s.sessions.IDs()),
		"database":       s.db != nil,
	}
	s.writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, GetVersionInfo())
}

func (s *Server) handleListSets(w http.ResponseWriter, r *http.Request) {
	infos := make([]SetInfo, 0, len(s.sets))
	for ns, d := range s.sets {
		infos = append(infos, SetInfo{
			Namespace: ns,
			Champions: len(d.Champions),
			MaxLevel:  d.Odds.MaxLevel(),
			Active:    ns == s.defaultSet,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Namespace < infos[j].Namespace })
	s.writeJSON(w, http.StatusOK, infos)
}

// setFor resolves a request's set namespace, empty meaning the default.
func (s *Server) setFor(name string) (*gamedata.SetData, bool) {
	if name == "" {
		name = s.defaultSet
	}
	d, ok := s.sets[name]
	return d, ok
}
