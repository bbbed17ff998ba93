package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/socdesk/playbook-rag/services/query"
	"github.com/socdesk/playbook-rag/utils"
)

// HealthHandler serves the liveness endpoint.
type HealthHandler struct {
	service *query.Service
	logger  *zap.Logger
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(service *query.Service, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		logger:  logger,
	}
}

// HealthResponse reports service liveness and tracker counters.
type HealthResponse struct {
	Status            string `json:"status"`
	ActiveRequests    int    `json:"active_requests"`
	CompletedRequests int    `json:"completed_requests"`
	FailedRequests    int    `json:"failed_requests"`
}

// HandleHealth reports liveness along with request-tracker counts.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	stats := h.service.GetTrackerStats()

	utils.WriteOK(w, HealthResponse{
		Status:            "healthy",
		ActiveRequests:    stats.Active,
		CompletedRequests: stats.Completed,
		FailedRequests:    stats.Failed,
	})
}
