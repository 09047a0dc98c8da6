// Package binding provides the profile binding use cases: linking a game
// site profile id to a chat user, unlinking it, listing bindings and
// toggling notifications or the cooldown interval.
package binding

import "errors"

// Sentinel errors for binding operations.
var (
	// ErrNotInGuild indicates the command was issued outside a group chat.
	// Bindings record the group so group fallback has somewhere to post.
	ErrNotInGuild = errors.New("binding must be made from a group chat")

	// ErrSessionRejected indicates that no routing rule covers the session's
	// bot and group. Callers should fail silently.
	ErrSessionRejected = errors.New("session not covered by any routing rule")

	// ErrInvalidProfileID indicates the profile id is not a positive integer.
	ErrInvalidProfileID = errors.New("invalid profile id")

	// ErrBoundByOtherUser indicates the profile id already belongs to another user.
	ErrBoundByOtherUser = errors.New("profile is bound by another user")

	// ErrNotBound indicates the user has no matching binding.
	ErrNotBound = errors.New("no profile bound")

	// ErrForceNotAllowed indicates a forced bind without sufficient authority.
	ErrForceNotAllowed = errors.New("force bind requires higher authority")

	// ErrRemoveFailed indicates a matched binding could not be deleted.
	ErrRemoveFailed = errors.New("unbind failed")
)
