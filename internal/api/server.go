// Package api serves the session over HTTP. GET endpoints are read-only;
// mutating endpoints go through the reducer and tick guards, so a retried
// or duplicated request can never double-apply.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/talgya/dealfloor/internal/actors"
	"github.com/talgya/dealfloor/internal/advisor"
	"github.com/talgya/dealfloor/internal/content"
	"github.com/talgya/dealfloor/internal/engine"
	"github.com/talgya/dealfloor/internal/persistence"
	"github.com/talgya/dealfloor/internal/state"
)

// Server serves one running session over HTTP and websocket.
type Server struct {
	DB       *persistence.DB
	Advisor  *advisor.Client
	Cast     *content.Cast
	Hub      *Hub
	AdminKey string // Bearer token for admin endpoints. Empty = open (local play).

	// All simulation access is serialized; the engine itself is
	// single-threaded by design.
	mu  sync.Mutex
	sim *engine.Simulation
}

// New builds a Server around a simulation.
func New(sim *engine.Simulation, db *persistence.DB, adv *advisor.Client, cast *content.Cast, adminKey string) *Server {
	return &Server{
		DB:       db,
		Advisor:  adv,
		Cast:     cast,
		Hub:      NewHub(),
		AdminKey: adminKey,
		sim:      sim,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	advisorLimiter := NewRateLimiter(10, time.Hour)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Get("/ws", s.Hub.ServeWs)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/snapshot", s.handleSnapshot)
		r.Get("/events", s.handleEvents)
		r.Get("/scenario", s.handleScenario)
		r.Get("/pending", s.handlePending)

		r.Post("/session", s.handleNewSession)
		r.Post("/command", s.handleCommand)
		r.Post("/action", s.handleAction)
		r.Post("/overtime", s.handleOvertime)
		r.Post("/slot", s.handleSlot)
		r.Post("/resolve", s.handleResolve)
		r.Post("/advisor", RateLimitMiddleware(advisorLimiter, s.handleAdvisor))

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/advance", s.handleAdvance)
			r.Delete("/session/{id}", s.handleDeleteSession)
		})
	})

	return r
}

// requireAdmin checks the bearer token when an admin key is configured.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey != "" && bearerToken(r.Header.Get("Authorization")) != s.AdminKey {
			writeError(w, http.StatusUnauthorized, "admin token required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.sim.Snap
	status := map[string]any{
		"session_id": snap.SessionID,
		"phase":      snap.Phase,
		"tick":       snap.LastWeekCursor,
	}
	if p := snap.Player; p != nil {
		status["week"] = p.GameTime.Week
		status["year"] = p.GameTime.Year
		status["cash"] = p.Cash
		status["stress"] = p.Stress
		status["reputation"] = p.Reputation
		status["actions_remaining"] = p.GameTime.ActionsRemaining
		status["portfolio"] = len(p.Portfolio)
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.sim.Snap)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	s.mu.Lock()
	sessionID := s.sim.Snap.SessionID
	journal := append([]engine.Event(nil), s.sim.Events...)
	s.mu.Unlock()

	if s.DB != nil {
		stored, err := s.DB.RecentEvents(sessionID, limit)
		if err == nil && len(stored) > 0 {
			journal = append(stored, journal...)
		}
	}
	if len(journal) > limit {
		journal = journal[len(journal)-limit:]
	}
	writeJSON(w, http.StatusOK, journal)
}

func (s *Server) handleScenario(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sim.PendingScenario == nil {
		writeJSON(w, http.StatusOK, map[string]any{"pending": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pending":  true,
		"scenario": s.sim.PendingScenario,
	})
}

// handlePending reports the blocking events awaiting resolution.
func (s *Server) handlePending(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"company_crisis": s.sim.ActiveCompanyEvent,
		"drama":          s.sim.ActiveDrama,
		"queued":         len(s.sim.EventQueue),
	})
}

type newSessionRequest struct {
	SessionID  string           `json:"session_id"`
	Level      state.Seniority  `json:"level"`
	Difficulty state.Difficulty `json:"difficulty"`
}

func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	var req newSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("bad request: %v", err))
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, dec := state.Reduce(nil, state.StatChanges{
		InitialLevel:      &req.Level,
		InitialDifficulty: &req.Difficulty,
	})
	if dec != nil {
		writeDecline(w, dec)
		return
	}
	snap.SessionID = req.SessionID
	if s.Cast != nil {
		s.Cast.Seed(snap)
	}
	s.sim.Snap = snap
	s.sim.PendingScenario = nil
	s.sim.Events = nil

	s.persist()
	slog.Info("session created", "session", req.SessionID, "level", req.Level, "difficulty", req.Difficulty)
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd state.StatChanges
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("bad request: %v", err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dec := s.sim.Dispatch(cmd); dec != nil {
		writeDecline(w, dec)
		return
	}
	s.persist()
	writeJSON(w, http.StatusOK, s.sim.Snap.Player)
}

type actionRequest struct {
	Type     string `json:"type"`
	TargetID int64  `json:"target_id"`
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Type == "" {
		writeError(w, http.StatusBadRequest, "action type required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dec := s.sim.ConsumeAction(req.Type, req.TargetID); dec != nil {
		writeDecline(w, dec)
		return
	}
	s.persist()
	writeJSON(w, http.StatusOK, map[string]any{
		"actions_remaining": s.sim.Snap.Player.GameTime.ActionsRemaining,
	})
}

func (s *Server) handleOvertime(w http.ResponseWriter, r *http.Request) {
	var req struct {
		On bool `json:"on"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("bad request: %v", err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dec := s.sim.ToggleOvertime(req.On); dec != nil {
		writeDecline(w, dec)
		return
	}
	s.persist()
	writeJSON(w, http.StatusOK, s.sim.Snap.Player.GameTime)
}

func (s *Server) handleSlot(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sim.Snap.Player == nil {
		writeError(w, http.StatusConflict, "no session in progress")
		return
	}
	s.sim.AdvanceSlot()
	s.persist()
	writeJSON(w, http.StatusOK, s.sim.Snap.Player.GameTime)
}

type resolveRequest struct {
	Kind   engine.EventKind `json:"kind"`
	Option int              `json:"option"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("bad request: %v", err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dec := s.sim.ResolveEvent(req.Kind, req.Option); dec != nil {
		writeDecline(w, dec)
		return
	}
	s.persist()
	writeJSON(w, http.StatusOK, s.sim.Snap.Player)
}

// handleAdvance runs the weekly tick. The cursor monotonically follows
// the last processed week, so concurrent or retried calls collapse into
// one advance.
func (s *Server) handleAdvance(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sim.Snap.Player == nil {
		writeError(w, http.StatusConflict, "no session in progress")
		return
	}

	cursor := s.sim.Snap.LastWeekCursor + 1
	s.sim.AdvanceWeek(cursor)
	s.persist()

	p := s.sim.Snap.Player
	summary := map[string]any{
		"tick":   cursor,
		"week":   p.GameTime.Week,
		"phase":  s.sim.Snap.Phase,
		"cash":   p.Cash,
		"stress": p.Stress,
	}
	s.Hub.Push("week_advanced", summary)
	if s.sim.PendingScenario != nil {
		s.Hub.Push("scenario_fired", s.sim.PendingScenario)
	}
	if s.sim.ActiveCompanyEvent != nil {
		s.Hub.Push("company_crisis", s.sim.ActiveCompanyEvent)
	}
	if s.sim.ActiveDrama != nil {
		s.Hub.Push("drama", s.sim.ActiveDrama)
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.DB == nil {
		writeError(w, http.StatusConflict, "no persistence configured")
		return
	}
	if err := s.DB.DeleteSession(id); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("delete: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

type advisorRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleAdvisor(w http.ResponseWriter, r *http.Request) {
	if !s.Advisor.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "advisor not configured")
		return
	}
	var req advisorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question required")
		return
	}

	s.mu.Lock()
	sit := s.situation(req.Question)
	s.mu.Unlock()
	if sit == nil {
		writeError(w, http.StatusConflict, "no session in progress")
		return
	}

	// The consultation happens outside the lock; only applying validated
	// effects reacquires it. Dropped clients cancel the upstream call.
	adv, err := advisor.Consult(r.Context(), s.Advisor, sit)
	if err != nil {
		if errors.Is(err, advisor.ErrRateLimited) {
			writeError(w, http.StatusTooManyRequests, "advisor is catching his breath, try again in a minute")
			return
		}
		writeError(w, http.StatusBadGateway, fmt.Sprintf("advisor: %v", err))
		return
	}

	if adv.Effects != nil {
		s.mu.Lock()
		if dec := s.sim.Dispatch(*adv.Effects); dec != nil {
			slog.Warn("advisor effects declined", "code", dec.Code)
			adv.Effects = nil
		} else {
			s.persist()
		}
		s.mu.Unlock()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"counsel": adv.Counsel,
		"applied": adv.Effects != nil,
	})
}

// situation summarizes the session for the advisor. Caller holds the lock.
func (s *Server) situation(question string) *advisor.Situation {
	p := s.sim.Snap.Player
	if p == nil {
		return nil
	}

	sit := &advisor.Situation{
		Week:       p.GameTime.Week,
		Seniority:  state.SeniorityName(p.Seniority),
		Cash:       p.Cash,
		LoanBal:    p.Finances.LoanBalance,
		Stress:     p.Stress,
		Reputation: p.Reputation,
		AuditRisk:  p.AuditRisk,
		Portfolio:  len(p.Portfolio),
		Question:   question,
	}

	var top *struct {
		name string
		tier string
		v    float64
	}
	for _, r := range s.sim.Snap.Rivals {
		if top == nil || r.Vendetta > top.v {
			top = &struct {
				name string
				tier string
				v    float64
			}{r.Name, actors.TierName(actors.TierFor(r.Vendetta)), r.Vendetta}
		}
	}
	if top != nil {
		sit.TopRival = top.name
		sit.RivalTier = top.tier
	}

	events := s.sim.Events
	if len(events) > 5 {
		events = events[len(events)-5:]
	}
	for _, e := range events {
		sit.RecentEvents = append(sit.RecentEvents, e.Description)
	}
	return sit
}

// Persist saves the current session, used for a final save on shutdown.
func (s *Server) Persist() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persist()
}

// persist saves the session when a store is configured. Save failures are
// logged, never surfaced; the in-memory session stays authoritative.
func (s *Server) persist() {
	if s.DB == nil {
		return
	}
	if err := s.DB.SaveSession(s.sim); err != nil {
		slog.Error("session save failed", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

// writeDecline maps a business-rule rejection to 422: the request was
// well-formed, the rules said no.
func writeDecline(w http.ResponseWriter, dec *state.Decline) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"declined": true,
		"code":     dec.Code,
		"reason":   dec.Reason,
	})
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
