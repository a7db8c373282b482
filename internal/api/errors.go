package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"dyntable/internal/domain"
	"dyntable/internal/middleware"
)

// errorResponse is the JSON body of every non-2xx response.
type errorResponse struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// httpStatusFromDomainError maps domain errors to HTTP status codes.
// A name conflict is a client mistake, so it is reported as 400.
func httpStatusFromDomainError(err error) int {
	var notFound *domain.NotFoundError
	var accessDenied *domain.AccessDeniedError
	var unauthenticated *domain.UnauthenticatedError
	var validation *domain.ValidationError
	var conflict *domain.ConflictError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &accessDenied):
		return http.StatusForbidden
	case errors.As(err, &unauthenticated):
		return http.StatusUnauthorized
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorBody builds the response body for err. Internal failures never leak
// their message.
func errorBody(status int, err error) errorResponse {
	if status == http.StatusInternalServerError {
		return errorResponse{Code: status, Message: "internal server error"}
	}
	body := errorResponse{Code: status, Message: err.Error()}
	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		body.Message = validation.Message
		body.Errors = validation.Fields
	}
	return body
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromDomainError(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"error", err)
	}
	writeJSON(w, status, errorBody(status, err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("encode response", "error", err)
	}
}
