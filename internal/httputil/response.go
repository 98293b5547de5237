package httputil

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/opsdesk/admin-console-go/internal/errors"
)

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// ErrorResponse is the standard error response format. OK is always false so
// callers can branch on a single flag instead of the HTTP status.
type ErrorResponse struct {
	OK      bool                `json:"ok"`
	Error   string              `json:"error"`
	Code    apperrors.ErrorCode `json:"code"`
	Details any                 `json:"details,omitempty"`
}

// WriteError writes an AppError as an HTTP response with appropriate status code
func WriteError(w http.ResponseWriter, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		// Wrap unknown errors as internal errors
		appErr = apperrors.Internal("An unexpected error occurred")
	}

	status := StatusFromCode(appErr.Code)
	response := ErrorResponse{
		OK:      false,
		Error:   appErr.Message,
		Code:    appErr.Code,
		Details: appErr.Details,
	}

	WriteJSON(w, status, response)
}

// StatusFromCode maps ErrorCode to HTTP status code
func StatusFromCode(code apperrors.ErrorCode) int {
	switch code {
	// 400 Bad Request
	case apperrors.ErrCodeValidation,
		apperrors.ErrCodeInvalidInput,
		apperrors.ErrCodeMissingRequired,
		apperrors.ErrCodeNoActiveSession,
		apperrors.ErrCodeSessionNotFound:
		return http.StatusBadRequest

	// 401 Unauthorized
	case apperrors.ErrCodeUnauthenticated,
		apperrors.ErrCodeInvalidToken,
		apperrors.ErrCodeTokenExpired:
		return http.StatusUnauthorized

	// 403 Forbidden
	case apperrors.ErrCodeForbidden:
		return http.StatusForbidden

	// 404 Not Found
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound

	// 409 Conflict
	case apperrors.ErrCodeConflict:
		return http.StatusConflict

	// 429 Too Many Requests
	case apperrors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests

	// 501 Not Implemented: the identity provider integration is disabled,
	// which is a deployment configuration gap rather than a caller mistake
	case apperrors.ErrCodeProviderUnconfigured:
		return http.StatusNotImplemented

	// 500 Internal Server Error
	case apperrors.ErrCodeProviderError,
		apperrors.ErrCodeInternal,
		apperrors.ErrCodeDatabase:
		return http.StatusInternalServerError

	default:
		return http.StatusInternalServerError
	}
}
