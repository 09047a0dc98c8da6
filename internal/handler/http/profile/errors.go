package profile

import (
	"errors"
	"log/slog"
	"net/http"

	"turn-notify/internal/domain/entity"
	"turn-notify/internal/handler/http/respond"
	"turn-notify/internal/usecase/binding"
)

var errNoSession = errors.New("session is required")

// writeError maps binding errors to HTTP statuses. A rejected session gets
// an empty 204 so the caller stays silent in the chat. Store failures are
// masked as 500.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, binding.ErrSessionRejected):
		logger.Debug("binding command ignored", slog.Any("error", err))
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, binding.ErrInvalidProfileID),
		errors.Is(err, binding.ErrNotInGuild),
		errors.Is(err, entity.ErrValidationFailed):
		respond.SafeErrorV2(w, http.StatusBadRequest, respond.NewAppError(http.StatusBadRequest, err.Error(), nil))
	case errors.Is(err, binding.ErrForceNotAllowed):
		respond.SafeErrorV2(w, http.StatusForbidden, respond.NewAppError(http.StatusForbidden, err.Error(), nil))
	case errors.Is(err, binding.ErrNotBound):
		respond.SafeErrorV2(w, http.StatusNotFound, respond.NewAppError(http.StatusNotFound, err.Error(), nil))
	case errors.Is(err, binding.ErrBoundByOtherUser):
		respond.SafeErrorV2(w, http.StatusConflict, respond.NewAppError(http.StatusConflict, err.Error(), nil))
	case errors.Is(err, errNoSession):
		respond.SafeErrorV2(w, http.StatusUnauthorized, respond.NewAppError(http.StatusUnauthorized, "unauthorized", err))
	default:
		respond.SafeError(w, http.StatusInternalServerError, err)
	}
}
