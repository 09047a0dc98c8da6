// Package notify dispatches turn notifications received from the game
// service webhook to the bound recipients' chat platforms.
//
// The package parses webhook text, resolves profiles, selects (bot, group)
// candidates from the routing rules and delivers through the first candidate
// that succeeds. A trailing-edge debounce collapses bursts for the same
// recipient and game into one delivery per cooldown window.
package notify

import (
	"context"
	"sort"
	"sync"
)

// Sender delivers plain-text messages on a chat platform.
//
// Both methods return the ids of the messages that were created. A call that
// returns no id is treated as a failed delivery.
//
// Implementations must be safe for concurrent use and must respect context
// cancellation.
type Sender interface {
	// SendDirect sends a direct message to userID. contextGroupID names the
	// group the user was bound in; platforms that need it to open a direct
	// channel use it as routing context, others ignore it.
	SendDirect(ctx context.Context, userID, message, contextGroupID string) ([]string, error)

	// SendGroup posts message to groupID.
	SendGroup(ctx context.Context, groupID, message string) ([]string, error)
}

// Bot is a Sender identified by a bot id on one platform.
type Bot interface {
	Sender

	// ID returns the bot id referenced by profiles and routing rules.
	ID() string

	// Platform returns the platform name, e.g. "discord".
	Platform() string

	// Mention renders the platform's mention markup for userID.
	Mention(userID string) string
}

// BotRegistry looks bots up by id.
type BotRegistry struct {
	mu   sync.RWMutex
	bots map[string]Bot
}

// NewBotRegistry returns a registry holding bots.
func NewBotRegistry(bots ...Bot) *BotRegistry {
	r := &BotRegistry{bots: make(map[string]Bot, len(bots))}
	for _, b := range bots {
		r.bots[b.ID()] = b
	}
	return r
}

// Register adds or replaces b.
func (r *BotRegistry) Register(b Bot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bots[b.ID()] = b
}

// Get returns the bot with the given id.
func (r *BotRegistry) Get(id string) (Bot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bots[id]
	return b, ok
}

// IDs returns the registered bot ids in sorted order.
func (r *BotRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.bots))
	for id := range r.bots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered bots.
func (r *BotRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bots)
}
