package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/nmhung311/Exp-Gest-System/internal/http/response"
	"github.com/nmhung311/Exp-Gest-System/internal/repo/postgres"
	"github.com/nmhung311/Exp-Gest-System/internal/service"
	"github.com/nmhung311/Exp-Gest-System/pkg/logger"
)

// writeServiceError translates service-layer errors into the error
// taxonomy: validation 400, not-found 404, conflict 409, expired 410,
// everything else 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var already *service.AlreadyCheckedInError
	var dup *postgres.DuplicateError

	switch {
	case errors.As(err, &already):
		body := map[string]any{"error": "already checked in", "code": response.CodeConflict}
		if !already.At.IsZero() {
			body["checked_in_at"] = already.At.Format(time.RFC3339)
		}
		response.JSON(w, http.StatusConflict, body)
	case errors.As(err, &dup):
		msg := "already exists"
		if dup.Field != "" {
			msg = dup.Field + " already exists"
		}
		response.Conflict(w, msg)
	case errors.Is(err, service.ErrTokenRequired),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrEventMismatch):
		response.BadRequest(w, err.Error())
	case errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrGuestNotFound),
		errors.Is(err, service.ErrNoCheckin):
		response.NotFound(w, err.Error())
	case errors.Is(err, service.ErrTokenExpired):
		response.Gone(w, err.Error())
	case errors.Is(err, service.ErrUserExists):
		response.Conflict(w, err.Error())
	case errors.Is(err, service.ErrBadCredentials),
		errors.Is(err, service.ErrSessionInvalid):
		response.Unauthorized(w, err.Error())
	default:
		logger.ErrorContext(r.Context(), "request failed", "error", err, "path", r.URL.Path)
		response.InternalError(w, err.Error())
	}
}
