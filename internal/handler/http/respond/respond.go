// Package respond writes JSON responses and turns errors into messages that
// are safe to show to API callers.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// safeFragments mark error messages that describe the caller's own input or
// state and may be returned verbatim.
var safeFragments = []string{
	"required",
	"invalid",
	"malformed",
	"not found",
	"not bound",
	"already bound",
	"not allowed",
	"must be",
	"cannot be",
	"too long",
	"too large",
}

// JSON writes v as a JSON body with status code. A nil v writes no body.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode JSON response",
			slog.Int("status_code", code),
			slog.Any("error", err))
	}
}

// Error writes {"error": err.Error()}.
func Error(w http.ResponseWriter, code int, err error) {
	JSON(w, code, map[string]string{"error": err.Error()})
}

// IsSafe reports whether err may be shown to a caller with status code.
// 5xx errors are never safe.
func IsSafe(code int, err error) bool {
	if err == nil || code >= http.StatusInternalServerError {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, frag := range safeFragments {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}

// SafeError writes err when IsSafe allows it. Anything else is logged with
// secrets masked and answered with a generic "internal server error".
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}
	if IsSafe(code, err) {
		JSON(w, code, map[string]string{"error": err.Error()})
		return
	}
	slog.Default().Error("internal server error",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.String("error", SanitizeError(err)))
	JSON(w, code, map[string]string{"error": "internal server error"})
}

// AppError pairs a caller-facing message with the internal cause.
type AppError struct {
	UserMsg string
	Err     error
	Code    int
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.UserMsg
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError creates an AppError.
func NewAppError(code int, userMsg string, err error) *AppError {
	return &AppError{Code: code, UserMsg: userMsg, Err: err}
}

// SafeErrorV2 writes an AppError's message and status, logging its cause.
// Other errors go through SafeError with code.
func SafeErrorV2(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}
	var appErr *AppError
	if !errors.As(err, &appErr) {
		SafeError(w, code, err)
		return
	}
	if appErr.Err != nil {
		slog.Default().Warn("application error",
			slog.Int("code", appErr.Code),
			slog.String("user_message", appErr.UserMsg),
			slog.String("error", SanitizeError(appErr.Err)))
	}
	JSON(w, appErr.Code, map[string]string{"error": appErr.UserMsg})
}
