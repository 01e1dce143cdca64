package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/voxtask/voxtask/docs" // OpenAPI document registration
	"github.com/voxtask/voxtask/internal/config"
	"github.com/voxtask/voxtask/internal/handler/dto"
	"github.com/voxtask/voxtask/internal/inbox"
	"github.com/voxtask/voxtask/internal/middleware"
	"github.com/voxtask/voxtask/internal/repository"
	"github.com/voxtask/voxtask/internal/service"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	pool           *pgxpool.Pool
	orchestrator   *service.Orchestrator
	taskService    *service.TaskService
	poller         *inbox.Poller
	authMiddleware *middleware.AuthMiddleware
}

// New creates a new Handler instance with all dependencies.
func New(pool *pgxpool.Pool, cfg config.Config) *Handler {
	taskRepo := repository.NewTaskRepository(pool)
	logRepo := repository.NewTaskLogRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	orchestrator := service.NewOrchestrator(pool, taskRepo, logRepo)
	taskService := service.NewTaskService(pool, taskRepo, logRepo, userRepo, orchestrator)

	var poller *inbox.Poller
	if cfg.IMAP.Configured() {
		poller = inbox.NewPoller(cfg.IMAP, orchestrator)
	}

	authMiddleware := middleware.NewAuthMiddleware(userRepo)

	return &Handler{
		pool:           pool,
		orchestrator:   orchestrator,
		taskService:    taskService,
		poller:         poller,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers all HTTP routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /healthz", h.handleHealthz)

	// Swagger UI
	mux.HandleFunc("GET /swagger/", httpSwagger.Handler())

	// Channel webhooks: signature verification happens upstream, these
	// are thin normalization adapters.
	mux.HandleFunc("POST /api/v1/email/webhook", h.handleEmailWebhook)
	mux.HandleFunc("POST /api/v1/voice/webhook", h.handleVoiceWebhook)
	mux.HandleFunc("POST /api/v1/email/inbox/poll", h.handleInboxPoll)

	// Task API with authentication
	mux.Handle("POST /api/v1/tasks", h.authMiddleware.Authenticate(http.HandlerFunc(h.handleCreateTask)))
	mux.Handle("GET /api/v1/tasks", h.authMiddleware.Authenticate(http.HandlerFunc(h.handleListTasks)))
	mux.Handle("GET /api/v1/tasks/{id}", h.authMiddleware.Authenticate(http.HandlerFunc(h.handleGetTask)))
	mux.Handle("GET /api/v1/tasks/{id}/logs", h.authMiddleware.Authenticate(http.HandlerFunc(h.handleGetTaskLogs)))
	mux.Handle("POST /api/v1/tasks/{id}/execute", h.authMiddleware.Authenticate(http.HandlerFunc(h.handleExecuteTask)))
	mux.Handle("POST /api/v1/tasks/{id}/replan", h.authMiddleware.Authenticate(http.HandlerFunc(h.handleReplanTask)))
	mux.Handle("POST /api/v1/tasks/{id}/cancel", h.authMiddleware.Authenticate(http.HandlerFunc(h.handleCancelTask)))
}

// handleHealthz returns 200 OK if the database is reachable.
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.pool.Ping(ctx); err != nil {
		slog.Error("database health check failed", "error", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Ping checks if the database is reachable (used for testing).
func (h *Handler) Ping(ctx context.Context) error {
	return h.pool.Ping(ctx)
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a standard error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, dto.NewErrorResponse(code, message))
}

// respondDomainError maps a domain error to HTTP and writes it.
func respondDomainError(w http.ResponseWriter, err error) {
	status, code, message := dto.MapDomainError(err)
	respondError(w, status, code, message)
}

// extractTaskID extracts and validates task ID from path parameter.
// Returns (taskID, true) if valid, ("", false) if invalid (error already sent to client).
func extractTaskID(w http.ResponseWriter, r *http.Request) (string, bool) {
	taskID := r.PathValue("id")
	if taskID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "task id is required")
		return "", false
	}

	if _, err := uuid.Parse(taskID); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "task_id must be a valid UUID")
		return "", false
	}

	return taskID, true
}
