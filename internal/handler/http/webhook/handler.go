// Package webhook receives turn notifications from the game server.
//
// The server posts a single line of text per turn, either as a JSON object
// {"text": "..."}, as form field text=, or as a raw text/plain body. The
// handler answers 400 for text the dispatcher cannot parse and 200 for
// everything else; delivery happens after the response is written.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"turn-notify/internal/handler/http/respond"
	"turn-notify/internal/observability/logging"
	"turn-notify/internal/usecase/notify"
)

// MaxBodyBytes bounds a webhook body. Turn texts are a few hundred bytes.
const MaxBodyBytes = 16 << 10

var errUnsupportedMedia = errors.New("content type not allowed")

// Dispatcher is the part of notify.Dispatcher the handler needs.
type Dispatcher interface {
	HandleWebhook(ctx context.Context, text string) notify.Outcome
}

// Handler serves POST webhook requests.
type Handler struct {
	Dispatcher Dispatcher
	Logger     *slog.Logger
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logging.WithRequestID(r.Context(), logger)

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	text, err := readText(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, errUnsupportedMedia):
			respond.SafeError(w, http.StatusUnsupportedMediaType, err)
		case errors.As(err, &tooLarge):
			respond.SafeError(w, http.StatusRequestEntityTooLarge, errors.New("request body too large"))
		default:
			logger.Warn("webhook body rejected", slog.Any("error", err))
			respond.SafeError(w, http.StatusBadRequest, fmt.Errorf("malformed body: %w", err))
		}
		return
	}

	out := h.Dispatcher.HandleWebhook(r.Context(), text)
	if out.Status == http.StatusBadRequest {
		respond.SafeError(w, http.StatusBadRequest, notify.ErrMalformedWebhook)
		return
	}
	w.WriteHeader(out.Status)
}

// readText extracts the webhook text according to the request content type.
// A missing content type is read as plain text.
func readText(r *http.Request) (string, error) {
	mediaType := "text/plain"
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return "", fmt.Errorf("%w: %v", errUnsupportedMedia, err)
		}
		mediaType = mt
	}

	switch mediaType {
	case "application/json":
		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return "", err
		}
		return body.Text, nil
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return "", err
		}
		return r.PostForm.Get("text"), nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(MaxBodyBytes); err != nil {
			return "", err
		}
		return r.PostFormValue("text"), nil
	case "text/plain":
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return "", err
		}
		return strings.TrimRight(string(b), "\r\n"), nil
	default:
		return "", errUnsupportedMedia
	}
}
