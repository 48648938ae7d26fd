package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskflow/internal/service"
	"github.com/BuzzLyutic/taskflow/internal/validation"
	"github.com/BuzzLyutic/taskflow/pkg/respond"
)

// handleErrors переводит ошибки сервиса в HTTP статусы. Причина 500 только логируется.
func handleErrors(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var verrs *validation.Errors
	switch {
	case errors.As(err, &verrs):
		respond.Invalid(w, r, "", fieldErrors(verrs))
	case errors.Is(err, service.ErrNotFound):
		respond.Error(w, r, http.StatusNotFound, "Task not found")
	case errors.Is(err, service.ErrUnauthenticated):
		respond.Error(w, r, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, service.ErrInvalidCredentials):
		respond.Error(w, r, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, service.ErrConflict):
		respond.Error(w, r, http.StatusConflict, "Task was modified concurrently, reload and try again")
	case errors.Is(err, service.ErrEmailTaken):
		respond.Error(w, r, http.StatusConflict, "An account with this email already exists")
	default:
		logger.Error("internal error",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		respond.Error(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

func fieldErrors(verrs *validation.Errors) []respond.FieldError {
	out := make([]respond.FieldError, 0, len(verrs.Fields))
	for _, f := range verrs.Fields {
		out = append(out, respond.FieldError{Field: f.Field, Message: f.Message})
	}
	return out
}
