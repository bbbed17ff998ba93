package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/socdesk/playbook-rag/services/query"
	"github.com/socdesk/playbook-rag/utils"
)

// StatusHandler serves request-status lookups.
type StatusHandler struct {
	service *query.Service
	logger  *zap.Logger
}

// NewStatusHandler creates a status handler.
func NewStatusHandler(service *query.Service, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{
		service: service,
		logger:  logger,
	}
}

// HandleGetStatus returns the tracked record for a request ID. The
// response shape depends on the record's state: completed records carry
// the result, failed records carry the error kind and message.
func (h *StatusHandler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.WriteBadRequest(w, "request id is required", nil)
		return
	}

	record, err := h.service.GetRequestStatus(id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	utils.WriteOK(w, record)
}
