package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/taskfish-server/internal/domain"
	"github.com/taskfish-server/internal/service"
	"github.com/taskfish-server/internal/websocket"
)

// Handler provides HTTP handlers for the player API
type Handler struct {
	service *service.PlayerService
	hub     *websocket.Hub
	logger  *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(service *service.PlayerService, hub *websocket.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		hub:     hub,
		logger:  logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// QuestRequest is the body for adding or editing a quest
type QuestRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ReorderRequest is the body for reordering active quests
type ReorderRequest struct {
	QuestIDs []string `json:"quest_ids"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	// WebSocket endpoint
	r.Get("/ws", h.HandleWebSocket)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/commands", h.InvokeCommand)

		r.Route("/player", func(r chi.Router) {
			r.Get("/", h.GetPlayerState)
			r.Get("/production", h.GetProduction)
			r.Post("/upgrade", h.UpgradeProduction)
			r.Post("/fish", h.SuccessFish)

			r.Route("/quests", func(r chi.Router) {
				r.Post("/", h.AddQuest)
				r.Put("/order", h.ReorderQuests)
				r.Put("/{questID}", h.UpdateQuest)
				r.Post("/{questID}/complete", h.CompleteQuest)
			})
		})

		// WebSocket info endpoint
		r.Get("/ws/stats", h.GetWebSocketStats)
	})

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("failed to encode response", "error", err)
	}
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// writeServiceError maps a service error onto a response
func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownCommand):
		h.writeError(w, http.StatusBadRequest, domain.ErrUnknownCommand)
	case domain.IsStateAccessError(err):
		h.logger.Error("player state unavailable", "op", op, "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrStateAccess)
	default:
		h.logger.Error("request failed", "op", op, "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
	}
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, h.logger, w, r)
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]interface{}{
		"total_connections": h.hub.GetTotalConnections(),
	})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck reports ready while the player state is readable
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	if _, err := h.service.GetState(r.Context()); err != nil {
		h.writeError(w, http.StatusServiceUnavailable, domain.ErrStateAccess)
		return
	}
	h.writeSuccess(w, map[string]string{"status": "ready"})
}

// InvokeCommand runs a named command, mirroring the desktop client's invoke
func (h *Handler) InvokeCommand(w http.ResponseWriter, r *http.Request) {
	var cmd domain.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil || cmd.Name == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	result, err := h.service.Dispatch(r.Context(), cmd)
	if err != nil {
		h.writeServiceError(w, "invoke "+cmd.Name, err)
		return
	}

	h.writeSuccess(w, result)
}

// GetPlayerState returns the current player state
func (h *Handler) GetPlayerState(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.GetState(r.Context())
	if err != nil {
		h.writeServiceError(w, "get player state", err)
		return
	}

	h.writeSuccess(w, st)
}

// GetProduction returns the idle production report
func (h *Handler) GetProduction(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Production(r.Context())
	if err != nil {
		h.writeServiceError(w, "get production", err)
		return
	}

	h.writeSuccess(w, report)
}

// AddQuest handles quest creation
func (h *Handler) AddQuest(w http.ResponseWriter, r *http.Request) {
	var req QuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	quest, err := h.service.AddQuest(r.Context(), req.Title, req.Description)
	if err != nil {
		h.writeServiceError(w, "add quest", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    quest,
	})
}

// UpdateQuest edits an active quest. Unknown IDs still succeed.
func (h *Handler) UpdateQuest(w http.ResponseWriter, r *http.Request) {
	questID := chi.URLParam(r, "questID")

	var req QuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	found, err := h.service.UpdateQuest(r.Context(), questID, req.Title, req.Description)
	if err != nil {
		h.writeServiceError(w, "update quest", err)
		return
	}

	h.writeSuccess(w, map[string]bool{"applied": found})
}

// ReorderQuests sets the order of active quests
func (h *Handler) ReorderQuests(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	if err := h.service.ReorderQuests(r.Context(), req.QuestIDs); err != nil {
		h.writeServiceError(w, "reorder quests", err)
		return
	}

	h.writeSuccess(w, map[string]string{"status": "reordered"})
}

// CompleteQuest completes an active quest. Unknown IDs still succeed.
func (h *Handler) CompleteQuest(w http.ResponseWriter, r *http.Request) {
	questID := chi.URLParam(r, "questID")

	quest, applied, err := h.service.CompleteQuest(r.Context(), questID)
	if err != nil {
		h.writeServiceError(w, "complete quest", err)
		return
	}

	result := domain.CommandResult{Command: domain.CommandCompleteQuest, Applied: applied}
	if applied {
		result.Quest = &quest
	}
	h.writeSuccess(w, result)
}

// UpgradeProduction buys an idle production upgrade
func (h *Handler) UpgradeProduction(w http.ResponseWriter, r *http.Request) {
	applied, err := h.service.UpgradeProduction(r.Context())
	if err != nil {
		h.writeServiceError(w, "upgrade production", err)
		return
	}

	h.writeSuccess(w, map[string]bool{"applied": applied})
}

// SuccessFish credits the fishing minigame payout
func (h *Handler) SuccessFish(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SuccessFish(r.Context()); err != nil {
		h.writeServiceError(w, "success fish", err)
		return
	}

	h.writeSuccess(w, map[string]string{"status": "rewarded"})
}
