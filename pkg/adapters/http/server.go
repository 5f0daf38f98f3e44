package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/drills"
	"github.com/aretw0/drills/internal/logging"
	"github.com/aretw0/drills/pkg/domain"
	"github.com/aretw0/drills/pkg/registry"
	"github.com/aretw0/drills/pkg/session"
	"github.com/go-chi/chi/v5"
)

// Server exposes a session registry as a JSON API.
type Server struct {
	Registry *registry.Registry
	Streams  *StreamManager
	logger   *slog.Logger
	metrics  http.Handler
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// StepRequest is the body of POST /sessions/{id}/step.
type StepRequest struct {
	Action *int `json:"action"`
}

// StepResponse is a step result plus the position it left the episode at.
type StepResponse struct {
	domain.StepResult
	Episode   int `json:"episode"`
	Iteration int `json:"iteration"`
}

// ResetResponse carries the initial observation of a new episode.
type ResetResponse struct {
	Observation domain.Observation `json:"observation"`
	Episode     int                `json:"episode"`
	Metrics     domain.Metrics     `json:"metrics"`
}

// CatalogResponse describes the action space.
type CatalogResponse struct {
	Transformations []string `json:"transformations"`
	Features        []string `json:"features"`
}

// NewHandler creates a new HTTP handler over reg.
func NewHandler(reg *registry.Registry, opts ...Option) http.Handler {
	server := &Server{
		Registry: reg,
		Streams:  NewStreamManager(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}
	server.Streams.logger = server.logger

	r := chi.NewRouter()
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	if server.metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.metrics)
	}
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", server.ListSessions)
		r.Post("/", server.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", server.GetSession)
			r.Delete("/", server.DeleteSession)
			r.Post("/reset", server.Reset)
			r.Post("/step", server.Step)
			r.Get("/best", server.GetBest)
			r.Get("/catalog", server.GetCatalog)
			r.Get("/events", server.SubscribeEvents)
		})
	})
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "drills-http",
		"version": strings.TrimSpace(drills.Version),
	})
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": s.Registry.List()})
}

// CreateSession handles the POST /sessions request.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.Registry.Create(r.Context())
	if err != nil {
		s.writeError(w, "CreateSession", err)
		return
	}
	w.Header().Set("Location", "/sessions/"+id)
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	var state domain.SessionState
	err := s.with(r, func(ctx context.Context, sess *session.Session) error {
		state = sess.State()
		return nil
	})
	if err != nil {
		s.writeError(w, "GetSession", err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Registry.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, "DeleteSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reset handles the POST /sessions/{id}/reset request.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	var resp ResetResponse
	err := s.with(r, func(ctx context.Context, sess *session.Session) error {
		obs, err := sess.Reset(ctx)
		if err != nil {
			return err
		}
		resp = ResetResponse{Observation: obs, Episode: sess.Episode(), Metrics: sess.Metrics()}
		return nil
	})
	if err != nil {
		s.writeError(w, "Reset", err)
		return
	}
	s.broadcast(chi.URLParam(r, "id"), "reset", resp)
	s.writeJSON(w, http.StatusOK, resp)
}

// Step handles the POST /sessions/{id}/step request.
func (s *Server) Step(w http.ResponseWriter, r *http.Request) {
	var body StepRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Step: invalid request body", "error", err)
		return
	}
	if body.Action == nil {
		http.Error(w, "Missing action", http.StatusBadRequest)
		return
	}

	var resp StepResponse
	err := s.with(r, func(ctx context.Context, sess *session.Session) error {
		res, err := sess.Step(ctx, *body.Action)
		if err != nil {
			return err
		}
		resp = StepResponse{StepResult: res, Episode: sess.Episode(), Iteration: sess.Iteration()}
		return nil
	})
	if err != nil {
		s.writeError(w, "Step", err)
		return
	}
	s.broadcast(chi.URLParam(r, "id"), "step", resp)
	s.writeJSON(w, http.StatusOK, resp)
}

// GetBest handles the GET /sessions/{id}/best request.
func (s *Server) GetBest(w http.ResponseWriter, r *http.Request) {
	var records domain.Records
	err := s.with(r, func(ctx context.Context, sess *session.Session) error {
		records = sess.Records()
		return nil
	})
	if err != nil {
		s.writeError(w, "GetBest", err)
		return
	}
	s.writeJSON(w, http.StatusOK, records)
}

// GetCatalog handles the GET /sessions/{id}/catalog request.
func (s *Server) GetCatalog(w http.ResponseWriter, r *http.Request) {
	var resp CatalogResponse
	err := s.with(r, func(ctx context.Context, sess *session.Session) error {
		resp = CatalogResponse{Transformations: sess.Catalog().Names(), Features: domain.FeatureNames}
		return nil
	})
	if err != nil {
		s.writeError(w, "GetCatalog", err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) with(r *http.Request, fn func(context.Context, *session.Session) error) error {
	return s.Registry.WithSession(r.Context(), chi.URLParam(r, "id"), fn)
}

func (s *Server) broadcast(id, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("event encode failed", "session_id", id, "error", err)
		return
	}
	s.Streams.Broadcast(id, event, string(data))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "error", err)
	} else {
		s.logger.Warn(op+" rejected", "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// StatusFor maps domain errors to HTTP status codes. Timeouts win over the
// tool failure that wraps them.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrBounds), errors.Is(err, domain.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEpisodeDone), errors.Is(err, domain.ErrEpisodeNotStarted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrToolExecution), errors.Is(err, domain.ErrParse):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// SubscribeEvents handles the GET /sessions/{id}/events request (SSE).
// Every successful reset and step of the session is pushed as an event.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: streaming not supported")
		return
	}

	id := chi.URLParam(r, "id")
	if !s.exists(id) {
		s.writeError(w, "SubscribeEvents", fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	s.logger.Info("SSE: subscribing to session events", "session_id", id)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE client disconnected", "session_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, msg.Data)
			flusher.Flush()
		}
	}
}

func (s *Server) exists(id string) bool {
	for _, known := range s.Registry.List() {
		if known == id {
			return true
		}
	}
	return false
}
