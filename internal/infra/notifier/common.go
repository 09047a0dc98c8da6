package notifier

import (
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"turn-notify/internal/resilience/retry"
)

// Platform API error types shared by the bot adapters.

// RateLimitError represents a rate limit rejection from a platform API.
type RateLimitError struct {
	Platform   string
	RetryAfter time.Duration
	Message    string // Optional custom message
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s (retry after %v)", e.Platform, e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("%s: rate limit exceeded (retry after %v)", e.Platform, e.RetryAfter)
}

// Unwrap exposes the rejection as an HTTP 429 so retry.IsRetryable treats it
// as transient.
func (e *RateLimitError) Unwrap() error {
	return &retry.HTTPError{StatusCode: http.StatusTooManyRequests, Message: e.Error()}
}

// APIError is a non-success response from a platform API. StatusCode is the
// HTTP status; Code is the platform's own error code when it has one.
type APIError struct {
	Platform   string
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s api error (status %d, code %d): %s", e.Platform, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%s api error (status %d): %s", e.Platform, e.StatusCode, e.Message)
}

// Unwrap maps the error onto retry.HTTPError: 5xx, 408 and 429 are retried,
// other 4xx are not.
func (e *APIError) Unwrap() error {
	return &retry.HTTPError{StatusCode: e.StatusCode, Message: e.Message}
}

// isClientError reports whether err is a 4xx rejection other than 408/429,
// e.g. an unknown chat or a user who blocked the bot.
func isClientError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 &&
		apiErr.StatusCode != http.StatusTooManyRequests &&
		apiErr.StatusCode != http.StatusRequestTimeout
}

// truncateMessage truncates text to maxRunes characters. If truncated,
// suffix is appended to indicate continuation.
func truncateMessage(text string, maxRunes int, suffix string) string {
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}

	// Reserve space for suffix
	keep := maxRunes - utf8.RuneCountInString(suffix)
	if keep < 0 {
		keep = 0
	}

	runes := []rune(text)
	return string(runes[:keep]) + suffix
}

const truncationSuffix = "..."
