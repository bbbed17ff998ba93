package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/socdesk/playbook-rag/services"
	"github.com/socdesk/playbook-rag/utils"
)

// HandleServiceError maps domain error types onto HTTP status codes so
// every handler reports failures the same way.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	details := services.GetErrorDetails(err)

	switch {
	case services.IsValidationError(err):
		utils.WriteBadRequest(w, err.Error(), details)
	case services.IsNotFoundError(err):
		utils.WriteNotFound(w, err.Error())
	case services.IsConflictError(err):
		utils.WriteConflict(w, err.Error(), details)
	case services.IsUnavailableError(err):
		utils.WriteServiceUnavailable(w, err.Error(), details)
	case services.IsTimeoutError(err):
		utils.WriteGatewayTimeout(w, err.Error(), details)
	case services.IsProtocolError(err):
		utils.WriteBadGateway(w, err.Error(), details)
	default:
		logger.Error("unhandled service error", zap.Error(err))
		utils.WriteInternalServerError(w, "internal server error")
	}
}

// HandleValidationError reports struct validation failures as 400s with
// a per-field breakdown.
func HandleValidationError(w http.ResponseWriter, err error) {
	fields := utils.GetValidationFields(err)
	details := make(map[string]interface{}, len(fields))
	for field, message := range fields {
		details[field] = message
	}
	utils.WriteBadRequest(w, "request validation failed", details)
}
