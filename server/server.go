// Package server exposes the orchestrator over HTTP. The surface is
// deliberately small: one query endpoint, one feedback endpoint, plus
// introspection and health routes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/lenoxhq/lenox/agent/contract"
	toolx "github.com/lenoxhq/lenox/agent/tool"
	metricsx "github.com/lenoxhq/lenox/pkg/metrics"
)

type Config struct {
	Addr            string        `envconfig:"ADDR" split_words:"true" default:":8080"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" split_words:"true" default:"10s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" split_words:"true" default:"15s"`
}

// Engine is the orchestrator surface the HTTP layer depends on.
type Engine interface {
	HandleQuery(ctx context.Context, sessionID, query string) (contractx.Response, error)
	HandleFeedback(ctx context.Context, sessionID, query, feedback string) (contractx.FeedbackRecord, error)
}

type Server struct {
	engine   Engine
	registry *toolx.Registry
	http     *http.Server
	shutdown time.Duration
}

func New(cfg Config, engine Engine, registry *toolx.Registry) *Server {
	s := &Server{
		engine:   engine,
		registry: registry,
		shutdown: cfg.ShutdownTimeout,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("POST /feedback", s.handleFeedback)
	mux.HandleFunc("GET /tools", s.handleTools)
	mux.Handle("GET /metrics", metricsx.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.http = &http.Server{
		Addr:        strings.TrimSpace(cfg.Addr),
		Handler:     recoverPanics(mux),
		ReadTimeout: cfg.ReadTimeout,
	}
	return s
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.http.Addr).Msg("http server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"sessionId"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	resp, err := s.engine.HandleQuery(r.Context(), req.SessionID, req.Query)
	if err != nil {
		if errors.Is(err, contractx.ErrInvalidQuery) || errors.Is(err, contractx.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("query handling failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type feedbackRequest struct {
	Query     string `json:"query"`
	Feedback  string `json:"feedback"`
	SessionID string `json:"sessionId"`
}

type feedbackResponse struct {
	Status    string `json:"status"`
	ID        int64  `json:"id"`
	SessionID string `json:"sessionId"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.Query) == "" || strings.TrimSpace(req.Feedback) == "" {
		writeError(w, http.StatusBadRequest, "query and feedback are required")
		return
	}

	rec, err := s.engine.HandleFeedback(r.Context(), req.SessionID, req.Query, req.Feedback)
	if err != nil {
		if errors.Is(err, contractx.ErrInvalidQuery) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("feedback handling failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, feedbackResponse{
		Status:    "ok",
		ID:        rec.ID,
		SessionID: rec.SessionID,
	})
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Infos())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("encode response failed")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, contractx.Response{
		Type:    contractx.ResponseError,
		Content: message,
	})
}

func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Any("panic", rec).Str("path", r.URL.Path).Msg("handler panicked")
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
