// ABOUTME: HTTP API exposing chat, ingestion, index status and host telemetry
// ABOUTME: Built on net/http ServeMux method patterns with graceful shutdown
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/index"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/ingest"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/logging"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/monitor"
)

const shutdownTimeout = 10 * time.Second

// Answerer answers one question
type Answerer interface {
	Answer(ctx context.Context, question string) models.Answer
}

// Ingester rebuilds the index from a directory
type Ingester interface {
	Run(ctx context.Context, dir string) (models.IngestStats, error)
}

// IndexStatus describes the vector index
type IndexStatus interface {
	Name() string
	Refresh(ctx context.Context) (index.State, error)
	Info(ctx context.Context) (*models.CollectionInfo, error)
}

// Deps are the collaborators behind the HTTP surface
type Deps struct {
	Answerer Answerer
	Ingester Ingester
	Index    IndexStatus
	Monitor  *monitor.Monitor
	DocsDir  string
	Logger   *slog.Logger
}

// Server serves the HTTP API
type Server struct {
	deps   Deps
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates a Server and registers its routes
func New(deps Deps) *Server {
	s := &Server{
		deps:   deps,
		logger: logging.OrDefault(deps.Logger),
		mux:    http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /chat", s.handleChat)
	s.mux.HandleFunc("POST /ingest", s.handleIngest)
	s.mux.HandleFunc("GET /status", s.handleStatus)
	s.mux.HandleFunc("POST /start-monitoring", s.handleStartMonitoring)
	s.mux.HandleFunc("POST /stop-monitoring", s.handleStopMonitoring)
	s.mux.HandleFunc("GET /system-stats", s.handleSystemStats)
	s.mux.HandleFunc("GET /stats-history", s.handleStatsHistory)
	return s
}

// Handler returns the routed handler with access logging and CORS applied
func (s *Server) Handler() http.Handler {
	return s.withCORS(s.withLogging(s.mux))
}

// ListenAndServe serves on addr until ctx is cancelled, then drains in-flight requests
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type chatRequest struct {
	Question string `json:"question"`
}

type chatResponse struct {
	Answer    string                `json:"answer"`
	Status    models.AnswerStatus   `json:"status"`
	Reason    string                `json:"reason,omitempty"`
	Retryable bool                  `json:"retryable,omitempty"`
	Sources   []models.SearchResult `json:"sources,omitempty"`
	PeakStats *monitor.Peaks        `json:"peak_stats,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "No question provided")
		return
	}

	var ans models.Answer
	ask := func() { ans = s.deps.Answerer.Answer(r.Context(), req.Question) }

	resp := chatResponse{}
	if s.deps.Monitor != nil {
		peaks := s.deps.Monitor.Track(r.Context(), ask)
		resp.PeakStats = &peaks
	} else {
		ask()
	}

	resp.Answer = ans.Text
	resp.Status = ans.Status
	resp.Reason = ans.Reason
	resp.Retryable = ans.Retryable
	resp.Sources = ans.Sources
	writeJSON(w, http.StatusOK, resp)
}

type ingestRequest struct {
	Directory string `json:"directory"`
}

type ingestResponse struct {
	Stats models.IngestStats `json:"stats"`
	Error string             `json:"error,omitempty"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ingester == nil {
		writeError(w, http.StatusServiceUnavailable, "ingestion is not configured")
		return
	}

	var req ingestRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	dir, err := ingest.ConfineDir(s.deps.DocsDir, req.Directory)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	stats, err := s.deps.Ingester.Run(r.Context(), dir)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ingest.ErrNoChunks) || errors.Is(err, index.ErrNothingIndexed) {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, ingestResponse{Stats: stats, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ingestResponse{Stats: stats})
}

type statusResponse struct {
	Collection string                 `json:"collection"`
	State      string                 `json:"state"`
	Info       *models.CollectionInfo `json:"info,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	state, err := s.deps.Index.Refresh(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := statusResponse{
		Collection: s.deps.Index.Name(),
		State:      state.String(),
	}
	info, err := s.deps.Index.Info(r.Context())
	switch {
	case err == nil:
		resp.Info = info
	case !errors.Is(err, models.ErrCollectionNotFound):
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStartMonitoring(w http.ResponseWriter, r *http.Request) {
	if !s.requireMonitor(w) {
		return
	}
	s.deps.Monitor.Start(context.WithoutCancel(r.Context()))
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleStopMonitoring(w http.ResponseWriter, r *http.Request) {
	if !s.requireMonitor(w) {
		return
	}
	peaks := s.deps.Monitor.Stop()
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "peak_stats": peaks})
}

func (s *Server) handleSystemStats(w http.ResponseWriter, r *http.Request) {
	if !s.requireMonitor(w) {
		return
	}
	sample, err := s.deps.Monitor.Sample(r.Context())
	if err != nil {
		s.logger.Warn("failed to sample system stats", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get system stats")
		return
	}
	writeJSON(w, http.StatusOK, sample)
}

func (s *Server) handleStatsHistory(w http.ResponseWriter, r *http.Request) {
	if !s.requireMonitor(w) {
		return
	}
	history := s.deps.Monitor.History()
	if history == nil {
		history = []monitor.Sample{}
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) requireMonitor(w http.ResponseWriter) bool {
	if s.deps.Monitor == nil {
		writeError(w, http.StatusServiceUnavailable, "monitoring is disabled")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
