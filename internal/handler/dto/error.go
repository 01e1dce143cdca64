package dto

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/voxtask/voxtask/internal/domain"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResponse creates a new error response.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// MapDomainError maps domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code string, message string) {
	message = err.Error()

	switch {
	// Task errors
	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound, "TASK_NOT_FOUND", message
	case errors.Is(err, domain.ErrTaskCompleted):
		return http.StatusConflict, "TASK_COMPLETED", message
	case errors.Is(err, domain.ErrNotTaskOwner):
		return http.StatusForbidden, "INSUFFICIENT_ACCESS", message

	// Event errors
	case errors.Is(err, domain.ErrInvalidEvent):
		return http.StatusBadRequest, "INVALID_EVENT", message
	case errors.Is(err, domain.ErrUnroutableEvent):
		return http.StatusBadRequest, "UNROUTABLE_EVENT", message

	// User errors
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusUnauthorized, "INVALID_TOKEN", message
	case errors.Is(err, domain.ErrUserInactive):
		return http.StatusUnauthorized, "USER_INACTIVE", message
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, "INVALID_TOKEN", message

	// Validation errors
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", message
	case errors.Is(err, domain.ErrEmptyGoal):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", message

	// Infrastructure errors: the caller may retry with backoff
	case errors.Is(err, domain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", message
	case errors.Is(err, domain.ErrChannelTimeout):
		return http.StatusGatewayTimeout, "CHANNEL_TIMEOUT", message

	// Default: internal server error
	default:
		slog.Error("unmapped domain error returned to client",
			"error", err,
			"error_type", fmt.Sprintf("%T", err),
		)
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
	}
}
