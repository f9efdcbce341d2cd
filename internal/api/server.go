// Package api implements the HTTP command API: one endpoint that runs
// an utterance through the interpretation pipeline, plus health,
// version, history, and a WebSocket surface for interactive clients.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/stewardbot/steward/internal/buildinfo"
	"github.com/stewardbot/steward/internal/history"
	"github.com/stewardbot/steward/internal/pipeline"
	"github.com/stewardbot/steward/internal/web"
)

// maxCommandBytes bounds a single command body. Spoken commands are
// short; anything larger is abuse.
const maxCommandBytes = 16 * 1024

// writeJSON encodes v as JSON to w, logging any errors at debug level.
// Errors here typically mean the client disconnected mid-response.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

// Server is the HTTP API server.
type Server struct {
	address string
	port    int
	pipe    *pipeline.Pipeline
	history *history.Store // nil disables /v1/history
	logger  *slog.Logger
	server  *http.Server
}

// NewServer creates a new API server. history may be nil.
func NewServer(address string, port int, pipe *pipeline.Pipeline, hist *history.Store, logger *slog.Logger) *Server {
	return &Server{
		address: address,
		port:    port,
		pipe:    pipe,
		history: hist,
		logger:  logger,
	}
}

// Start begins serving HTTP requests. It blocks until the listener
// fails or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/command", s.handleCommand)
	mux.HandleFunc("POST /command", s.handleCommand) // unversioned alias
	mux.HandleFunc("GET /v1/history", s.handleHistory)
	mux.HandleFunc("GET /v1/version", s.handleVersion)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	web.RegisterRoutes(mux)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.address, s.port),
		Handler:      s.withLogging(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // completions can be slow
	}

	addr := s.address
	if addr == "" {
		addr = "0.0.0.0"
	}
	s.logger.Info("starting API server", "address", addr, "port", s.port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestID,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	writeJSON(w, map[string]string{"error": message}, s.logger)
}

// CommandRequest is the /v1/command request body. HTML asks for the
// response rendered as HTML alongside the plain text.
type CommandRequest struct {
	Command string `json:"command"`
	HTML    bool   `json:"html,omitempty"`
}

// CommandResponse is the /v1/command response body.
type CommandResponse struct {
	Response string `json:"response"`
	Intent   string `json:"intent"`
	OK       bool   `json:"ok"`
	HTML     string `json:"html,omitempty"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	body := http.MaxBytesReader(w, r.Body, maxCommandBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Command == "" {
		s.errorResponse(w, http.StatusBadRequest, "command is required")
		return
	}

	resp := s.pipe.Process(r.Context(), "http", req.Command)

	out := CommandResponse{
		Response: resp.Text,
		Intent:   resp.Intent,
		OK:       resp.OK,
	}
	if req.HTML {
		rendered, err := web.RenderMarkdown(resp.Text)
		if err != nil {
			s.logger.Warn("markdown rendering failed", "error", err)
		} else {
			out.HTML = rendered
		}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, out, s.logger)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.errorResponse(w, http.StatusNotFound, "history is not enabled")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			s.errorResponse(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("history query failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{"entries": entries}, s.logger)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{
		"name":    "Steward",
		"version": buildinfo.Version,
		"status":  "ok",
	}, s.logger)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, buildinfo.Info(), s.logger)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": "healthy"}, s.logger)
}
