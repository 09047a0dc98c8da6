package profile

import (
	"log/slog"
	"net/http"

	"turn-notify/internal/handler/http/auth"
	"turn-notify/internal/usecase/binding"
)

// Register mounts the profile routes on mux behind authn.
func Register(mux *http.ServeMux, svc *binding.Service, authn *auth.Authenticator, logger *slog.Logger) {
	b := base{Svc: svc, Logger: logger}

	mux.Handle("GET /profiles", authn.Middleware(ListHandler{b}))
	mux.Handle("POST /profiles/{id}/bind", authn.Middleware(BindHandler{b}))
	mux.Handle("DELETE /profiles/{id}", authn.Middleware(UnbindHandler{b}))
	mux.Handle("POST /profiles/notify", authn.Middleware(NotifyHandler{b}))
	mux.Handle("PUT /profiles/interval", authn.Middleware(IntervalHandler{b}))
}

// NewListHandler returns a ListHandler for use outside Register.
func NewListHandler(svc *binding.Service, logger *slog.Logger) ListHandler {
	return ListHandler{base{Svc: svc, Logger: logger}}
}
