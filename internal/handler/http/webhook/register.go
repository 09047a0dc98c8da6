package webhook

import (
	"log/slog"
	"net/http"
)

// Register mounts the webhook on mux at path for POST requests. mw wraps the
// handler outermost first.
func Register(mux *http.ServeMux, path string, d Dispatcher, logger *slog.Logger, mw ...func(http.Handler) http.Handler) {
	var h http.Handler = Handler{Dispatcher: d, Logger: logger}
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	mux.Handle("POST "+path, h)
}
