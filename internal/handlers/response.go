package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"bibliophage/internal/contextutil"
	"bibliophage/internal/domain"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	// Code is the error taxonomy code of a failed request.
	Code    string `json:"code,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// statusForCode maps an error code to the HTTP status returned with it.
func statusForCode(code string) int {
	switch code {
	case domain.CodeInvalidArgument, domain.CodeInvalidConfiguration:
		return http.StatusBadRequest
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeEmbeddingUnavailable, domain.CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func writeOK(ctx context.Context, w http.ResponseWriter, status int, message string, payload any) {
	writeJSON(ctx, w, status, Envelope{Success: true, Message: message, Payload: payload})
}

// writeError reports err with the status of its taxonomy code. Internal
// errors are logged and answered with fallback instead of their text.
func writeError(ctx context.Context, w http.ResponseWriter, err error, fallback string) {
	logger := contextutil.LoggerFromContext(ctx)
	code := domain.Classify(err)
	status := statusForCode(code)

	message := err.Error()
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "request failed", "code", code, "error", err)
		if code == domain.CodeInternal {
			message = fallback
		}
	} else {
		logger.WarnContext(ctx, "request rejected", "code", code, "error", err)
	}

	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		message = "Validation error on field " + validation.Field + ": " + validation.Message
	}
	writeJSON(ctx, w, status, Envelope{Success: false, Message: message, Code: code})
}

func writeBadRequest(ctx context.Context, w http.ResponseWriter, message string) {
	contextutil.LoggerFromContext(ctx).WarnContext(ctx, "bad request", "message", message)
	writeJSON(ctx, w, http.StatusBadRequest, Envelope{Success: false, Message: message, Code: domain.CodeInvalidArgument})
}
