// Package gateway is the HTTP front door: command submission, canvas
// bootstrap, health, and metrics.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"easel-ai/internal/domain"
	"easel-ai/internal/infra/config"
	"easel-ai/internal/resilience"
)

// CommandRunner executes one natural-language command.
type CommandRunner interface {
	Execute(ctx context.Context, cmd domain.Command, opts domain.ExecuteOptions) (*domain.CommandResult, error)
}

// CanvasStore is the subset of the object store the gateway serves directly.
type CanvasStore interface {
	CreateCanvas(ctx context.Context, name string) (*domain.Canvas, error)
	GetCanvas(ctx context.Context, id int64) (*domain.Canvas, error)
	ListObjects(ctx context.Context, canvasID int64) ([]domain.ObjectRef, error)
}

// Server exposes the command pipeline over HTTP.
type Server struct {
	runner CommandRunner
	store  CanvasStore
	health *resilience.HealthMonitor
	logger *slog.Logger
	cfg    config.GatewayConfig
}

func NewServer(cfg config.GatewayConfig, runner CommandRunner, store CanvasStore, health *resilience.HealthMonitor, logger *slog.Logger) *Server {
	return &Server{
		runner: runner,
		store:  store,
		health: health,
		logger: logger,
		cfg:    cfg,
	}
}

// Router builds the chi router with rate limiting and security headers
// applied to the API routes. ctx bounds the limiter's cleanup goroutine.
func (s *Server) Router(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	r.Use(securityHeaders)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(rateLimit(ctx, s.cfg.RequestsPerMin, s.cfg.BurstSize))
		r.Post("/v1/canvases", s.handleCreateCanvas)
		r.Get("/v1/canvases/{canvasID}/objects", s.handleListObjects)
		r.Post("/v1/canvases/{canvasID}/commands", s.handleCommand)
	})

	return r
}

// ListenAndServe runs the HTTP server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type commandRequest struct {
	Text         string           `json:"text"`
	SelectedIDs  []int64          `json:"selected_ids,omitempty"`
	Viewport     *domain.Viewport `json:"viewport,omitempty"`
	CurrentColor string           `json:"current_color,omitempty"`
	Provider     string           `json:"provider,omitempty"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	canvasID, err := strconv.ParseInt(chi.URLParam(r, "canvasID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid canvas id", domain.CodeUnknown)
		return
	}

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", domain.CodeUnknown)
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required", domain.CodeUnknown)
		return
	}

	cmd := domain.Command{
		Text:         req.Text,
		CanvasID:     canvasID,
		SelectedIDs:  req.SelectedIDs,
		Viewport:     req.Viewport,
		CurrentColor: req.CurrentColor,
	}
	opts := domain.ExecuteOptions{ProviderOverride: req.Provider}

	result, err := s.runner.Execute(r.Context(), cmd, opts)
	if err != nil {
		code := domain.ErrorCodeOf(err)
		s.logger.Error("command failed",
			"canvas_id", canvasID,
			"code", string(code),
			"error", err,
		)
		writeError(w, statusFor(err), err.Error(), code)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCreateCanvas(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", domain.CodeUnknown)
		return
	}
	if req.Name == "" {
		req.Name = "untitled"
	}

	canvas, err := s.store.CreateCanvas(r.Context(), req.Name)
	if err != nil {
		s.logger.Error("create canvas failed", "error", err)
		writeError(w, http.StatusInternalServerError, "create canvas failed", domain.CodeUnknown)
		return
	}
	writeJSON(w, http.StatusCreated, canvas)
}

func (s *Server) handleListObjects(w http.ResponseWriter, r *http.Request) {
	canvasID, err := strconv.ParseInt(chi.URLParam(r, "canvasID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid canvas id", domain.CodeUnknown)
		return
	}

	if _, err := s.store.GetCanvas(r.Context(), canvasID); err != nil {
		writeError(w, statusFor(err), err.Error(), domain.ErrorCodeOf(err))
		return
	}

	objects, err := s.store.ListObjects(r.Context(), canvasID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list objects failed", domain.ErrorCodeOf(err))
		return
	}
	if objects == nil {
		objects = []domain.ObjectRef{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"objects": objects})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if s.health != nil {
		resp["providers"] = s.health.Snapshot()
	}
	writeJSON(w, http.StatusOK, resp)
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrCanvasNotFound), errors.Is(err, domain.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrProviderNotFound):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrCircuitOpen):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrRequestFailed),
		errors.Is(err, domain.ErrAPIError),
		errors.Is(err, domain.ErrInvalidResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, code domain.ErrorCode) {
	writeJSON(w, status, map[string]any{
		"error": msg,
		"code":  string(code),
	})
}
