package notify

import (
	"errors"
	"fmt"
)

// Sentinel errors for notify use case operations.
var (
	// ErrMalformedWebhook indicates that the inbound text does not start with
	// a "<id>" marker carrying a positive integer, or has no message after it.
	// Malformed input is answered with 400 and never retried.
	ErrMalformedWebhook = errors.New("malformed webhook text")

	// ErrAllCandidatesExhausted indicates that every (bot, group) candidate
	// failed for a profile. The notification is dropped; it is not retried.
	ErrAllCandidatesExhausted = errors.New("all delivery candidates exhausted")

	// ErrEmptyDelivery indicates that a sender returned no delivery id.
	ErrEmptyDelivery = errors.New("sender returned no delivery id")

	// ErrUnknownBot indicates that a routing candidate names a bot that is
	// not registered.
	ErrUnknownBot = errors.New("unknown bot")
)

// DeliveryError describes a single failed attempt against one candidate.
type DeliveryError struct {
	BotID   string
	GroupID string
	Mode    string // "direct" or "group"
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery via bot %q (group %q): %v", e.Mode, e.BotID, e.GroupID, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
