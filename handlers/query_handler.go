package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/socdesk/playbook-rag/services/query"
	"github.com/socdesk/playbook-rag/utils"
)

// QueryHandler serves the question-answering endpoint.
type QueryHandler struct {
	service *query.Service
	logger  *zap.Logger
}

// NewQueryHandler creates a query handler.
func NewQueryHandler(service *query.Service, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{
		service: service,
		logger:  logger,
	}
}

// HandleQuery runs the full pipeline for a submitted question and
// returns the answer synchronously.
func (h *QueryHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var req query.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteBadRequest(w, "invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		if utils.IsValidationError(err) {
			HandleValidationError(w, err)
			return
		}
		utils.WriteInternalServerError(w, "failed to validate request")
		return
	}

	resp, err := h.service.ProcessQuery(r.Context(), req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	utils.WriteOK(w, resp)
}
