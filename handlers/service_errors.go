package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/launchkit/saas-starter/services"
	"github.com/launchkit/saas-starter/utils"
)

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	details := services.GetErrorDetails(err)

	switch {
	case services.IsNotFoundError(err):
		if werr := utils.WriteNotFound(w, err.Error()); werr != nil {
			logger.Error("failed to write not found response", zap.Error(werr))
		}

	case services.IsValidationError(err):
		if werr := utils.WriteBadRequest(w, err.Error(), details); werr != nil {
			logger.Error("failed to write bad request response", zap.Error(werr))
		}

	case services.IsUnauthorizedError(err):
		if werr := utils.WriteUnauthorized(w, err.Error()); werr != nil {
			logger.Error("failed to write unauthorized response", zap.Error(werr))
		}

	case services.IsForbiddenError(err):
		if werr := utils.WriteForbidden(w, err.Error()); werr != nil {
			logger.Error("failed to write forbidden response", zap.Error(werr))
		}

	case services.IsInvariantError(err):
		// Invariant violations are state conflicts, not permission problems.
		if werr := utils.WriteConflict(w, "invariant_violation", err.Error(), details); werr != nil {
			logger.Error("failed to write invariant response", zap.Error(werr))
		}

	case services.IsLimitError(err):
		if werr := utils.WriteConflict(w, "limit_exceeded", err.Error(), details); werr != nil {
			logger.Error("failed to write limit response", zap.Error(werr))
		}

	case services.IsConflictError(err), services.IsInvalidStateError(err):
		if werr := utils.WriteConflict(w, "conflict", err.Error(), details); werr != nil {
			logger.Error("failed to write conflict response", zap.Error(werr))
		}

	case services.IsExpiredError(err):
		if werr := utils.WriteGone(w, err.Error()); werr != nil {
			logger.Error("failed to write gone response", zap.Error(werr))
		}

	case services.IsDependencyError(err):
		logger.Error("upstream dependency error", zap.Error(err))
		if werr := utils.WriteBadGateway(w, err.Error(), details); werr != nil {
			logger.Error("failed to write bad gateway response", zap.Error(werr))
		}

	case services.IsInternalError(err):
		// Log internal errors but return a generic message
		logger.Error("internal server error", zap.Error(err))
		if werr := utils.WriteInternalServerError(w, "An internal error occurred"); werr != nil {
			logger.Error("failed to write internal error response", zap.Error(werr))
		}

	default:
		logger.Error("unclassified error", zap.Error(err))
		if werr := utils.WriteInternalServerError(w, "An internal error occurred"); werr != nil {
			logger.Error("failed to write internal error response", zap.Error(werr))
		}
	}
}
