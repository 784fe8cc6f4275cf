package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MJE43/rolldown-trainer-go/internal/rng"
	"github.com/MJE43/rolldown-trainer-go/internal/scripting"
	"github.com/MJE43/rolldown-trainer-go/internal/session"
	"github.com/MJE43/rolldown-trainer-go/internal/store"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON payload")
		return
	}
	set, ok := s.setFor(req.Set)
	if !ok {
		s.errorHandler.HandleTyped(w, r, http.StatusNotFound, ErrTypeSetNotFound, "unknown set: "+req.Set)
		return
	}
	if req.Gold < 0 {
		s.errorHandler.HandleValidationError(w, r, "gold", "gold must not be negative")
		return
	}

	sess := s.sessions.Create(session.Config{
		Level:   req.Level,
		Gold:    req.Gold,
		Targets: req.Targets,
	}, set, s.newSource())

	s.writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		s.errorHandler.HandleTyped(w, r, http.StatusNotFound, ErrTypeSessionNotFound, "session not found")
		return
	}
	s.writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.sessions.Get(id); !ok {
		s.errorHandler.HandleTyped(w, r, http.StatusNotFound, ErrTypeSessionNotFound, "session not found")
		return
	}
	s.sessions.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReroll(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		s.errorHandler.HandleTyped(w, r, http.StatusNotFound, ErrTypeSessionNotFound, "session not found")
		return
	}
	if _, err := sess.Reroll(); err != nil {
		s.handleCommandError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		s.errorHandler.HandleTyped(w, r, http.StatusNotFound, ErrTypeSessionNotFound, "session not found")
		return
	}
	var req BuyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON payload")
		return
	}

	var err error
	if req.BenchIndex != nil {
		_, err = sess.PurchaseTo(req.Slot, *req.BenchIndex)
	} else {
		_, err = sess.Purchase(req.Slot)
	}
	if err != nil {
		s.handleCommandError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		s.errorHandler.HandleTyped(w, r, http.StatusNotFound, ErrTypeSessionNotFound, "session not found")
		return
	}
	var req SellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON payload")
		return
	}
	value, err := sess.Sell(req.InstanceID)
	if err != nil {
		s.handleCommandError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SellResponse{Value: value, State: sess.Snapshot()})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		s.errorHandler.HandleTyped(w, r, http.StatusNotFound, ErrTypeSessionNotFound, "session not found")
		return
	}
	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON payload")
		return
	}
	if err := sess.Move(req.InstanceID, req.To); err != nil {
		s.handleCommandError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleBuyXP(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		s.errorHandler.HandleTyped(w, r, http.StatusNotFound, ErrTypeSessionNotFound, "session not found")
		return
	}
	if err := sess.BuyXP(); err != nil {
		s.handleCommandError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handleFinishSession persists the session's stats as a run and removes it.
func (s *Server) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.sessions.Get(id)
	if !ok {
		s.errorHandler.HandleTyped(w, r, http.StatusNotFound, ErrTypeSessionNotFound, "session not found")
		return
	}

	snap := sess.Snapshot()
	run := runFromStats(snap.ID, snap.Namespace, "manual", 0, 0, "finished", snap.Stats)
	if s.db != nil {
		if err := s.db.SaveRun(run); err != nil {
			s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
			return
		}
	}
	s.sessions.Delete(id)
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON payload")
		return
	}
	if req.Script == "" {
		s.errorHandler.HandleValidationError(w, r, "script", "script source is required")
		return
	}
	set, ok := s.setFor(req.Set)
	if !ok {
		s.errorHandler.HandleTyped(w, r, http.StatusNotFound, ErrTypeSetNotFound, "unknown set: "+req.Set)
		return
	}

	src := s.newSource()
	var seed int64
	if req.Seed != nil {
		src = rng.NewMulberry32(*req.Seed)
		seed = int64(*req.Seed)
	}

	runner := scripting.NewRunner(set, src, s.log)
	result, err := runner.Run(req.Script, session.Config{
		Level:   req.Level,
		Gold:    req.Gold,
		Targets: req.Targets,
	})
	if err != nil {
		s.errorHandler.HandleTyped(w, r, http.StatusBadRequest, ErrTypeScriptError, err.Error())
		return
	}

	if s.db != nil {
		strategy := req.Strategy
		if strategy == "" {
			strategy = "script"
		}
		run := runFromStats(result.SessionID, set.Namespace, strategy, seed, result.ShopsSeen, string(result.StopReason), result.Stats)
		if err := s.db.SaveRun(run); err != nil {
			s.log.WithError(err).Warn("could not persist simulated run")
		}
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorHandler.HandleTyped(w, r, http.StatusServiceUnavailable, ErrTypeInternal, "run history is not enabled")
		return
	}
	q := store.RunsQuery{
		Namespace: r.URL.Query().Get("namespace"),
		Strategy:  r.URL.Query().Get("strategy"),
	}
	q.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	q.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))

	list, err := s.db.ListRuns(q)
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorHandler.HandleTyped(w, r, http.StatusServiceUnavailable, ErrTypeInternal, "run history is not enabled")
		return
	}
	run, err := s.db.GetRun(chi.URLParam(r, "id"))
	if err != nil {
		s.errorHandler.HandleTyped(w, r, http.StatusNotFound, ErrTypeRunNotFound, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

// handleCommandError maps session command failures onto the error envelope.
// Precondition failures are client errors, not server faults.
func (s *Server) handleCommandError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrInsufficientGold),
		errors.Is(err, session.ErrBenchFull),
		errors.Is(err, session.ErrMaxLevel):
		s.errorHandler.HandleTyped(w, r, http.StatusConflict, ErrTypeCommandRejected, err.Error())
	case errors.Is(err, session.ErrEmptySlot),
		errors.Is(err, session.ErrUnknownUnit),
		errors.Is(err, session.ErrInvalidPosition):
		s.errorHandler.HandleTyped(w, r, http.StatusBadRequest, ErrTypeInvalidParams, err.Error())
	default:
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
	}
}

func runFromStats(sessionID, namespace, strategy string, seed int64, shopsSeen int, stopReason string, stats session.StatsView) *store.Run {
	hits, err := json.Marshal(stats.TargetHits)
	if err != nil {
		hits = []byte("{}")
	}
	return &store.Run{
		SessionID:  sessionID,
		Namespace:  namespace,
		Strategy:   strategy,
		Seed:       seed,
		ShopsSeen:  shopsSeen,
		Rerolls:    stats.Rerolls,
		Purchases:  stats.Purchases,
		GoldSpent:  stats.GoldSpent.String(),
		HitsJSON:   string(hits),
		StopReason: stopReason,
	}
}
