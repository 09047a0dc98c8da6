// Package profile serves the profile binding API: bind, unbind, list and the
// per-user notify and interval settings. Every route requires a session
// established by auth.Authenticator.
package profile

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"turn-notify/internal/handler/http/auth"
	"turn-notify/internal/handler/http/pathutil"
	"turn-notify/internal/handler/http/respond"
	"turn-notify/internal/observability/logging"
	"turn-notify/internal/usecase/binding"
)

// base carries what every handler needs.
type base struct {
	Svc    *binding.Service
	Logger *slog.Logger
}

func (b base) logger(r *http.Request) *slog.Logger {
	l := b.Logger
	if l == nil {
		l = slog.Default()
	}
	return logging.WithRequestID(r.Context(), l)
}

func (b base) session(w http.ResponseWriter, r *http.Request) (binding.Session, bool) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, b.logger(r), errNoSession)
	}
	return sess, ok
}

// BindHandler serves POST /profiles/{id}/bind[?force=true].
type BindHandler struct{ base }

func (h BindHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	id, err := pathutil.PathID(r, "id")
	if err != nil {
		writeError(w, h.logger(r), binding.ErrInvalidProfileID)
		return
	}
	force := false
	if v := r.URL.Query().Get("force"); v != "" {
		force, err = strconv.ParseBool(v)
		if err != nil {
			respond.SafeError(w, http.StatusBadRequest, errors.New("force must be a boolean"))
			return
		}
	}

	res, err := h.Svc.Bind(r.Context(), sess, id, force)
	if err != nil {
		writeError(w, h.logger(r), err)
		return
	}
	status := http.StatusCreated
	if res.Rebound {
		status = http.StatusOK
	}
	respond.JSON(w, status, bindResponse{ID: res.ID, Rebound: res.Rebound})
}

// UnbindHandler serves DELETE /profiles/{id}.
type UnbindHandler struct{ base }

func (h UnbindHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	id, err := pathutil.PathID(r, "id")
	if err != nil {
		writeError(w, h.logger(r), binding.ErrInvalidProfileID)
		return
	}
	if err := h.Svc.Unbind(r.Context(), sess, id); err != nil {
		writeError(w, h.logger(r), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListHandler serves GET /profiles.
type ListHandler struct{ base }

func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	profiles, err := h.Svc.List(r.Context(), sess)
	if err != nil {
		writeError(w, h.logger(r), err)
		return
	}
	out := listResponse{Profiles: make([]DTO, 0, len(profiles))}
	for _, p := range profiles {
		out.Profiles = append(out.Profiles, toDTO(p))
	}
	respond.JSON(w, http.StatusOK, out)
}

// NotifyHandler serves POST /profiles/notify {"enabled": bool}.
type NotifyHandler struct{ base }

func (h NotifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		respond.SafeError(w, http.StatusBadRequest, errors.New("enabled is required"))
		return
	}
	res, err := h.Svc.SetNotify(r.Context(), sess, *req.Enabled)
	if err != nil {
		writeError(w, h.logger(r), err)
		return
	}
	respond.JSON(w, http.StatusOK, toggleResponse(res))
}

// IntervalHandler serves PUT /profiles/interval {"seconds": int}. The value
// is clamped, and the response carries the interval actually stored.
type IntervalHandler struct{ base }

func (h IntervalHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req intervalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Seconds == nil {
		respond.SafeError(w, http.StatusBadRequest, errors.New("seconds is required"))
		return
	}
	res, err := h.Svc.SetInterval(r.Context(), sess, *req.Seconds)
	if err != nil {
		writeError(w, h.logger(r), err)
		return
	}
	respond.JSON(w, http.StatusOK, toggleResponse(res))
}
