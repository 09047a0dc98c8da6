package entity

import (
	"fmt"
	"slices"
)

// SendMode selects how a notification is delivered to a candidate.
type SendMode string

const (
	// SendModePrivateOnly sends a direct message only.
	SendModePrivateOnly SendMode = "private-only"
	// SendModePrivateGuild sends a direct message and falls back to the group.
	SendModePrivateGuild SendMode = "private-guild"
	// SendModeGuildOnly posts to the group only.
	SendModeGuildOnly SendMode = "guild-only"
)

// DefaultSendMode is used when a rule does not set one.
const DefaultSendMode = SendModePrivateGuild

// Valid reports whether m is a known send mode.
func (m SendMode) Valid() bool {
	switch m {
	case SendModePrivateOnly, SendModePrivateGuild, SendModeGuildOnly:
		return true
	}
	return false
}

// RoutingRule restricts which bots and groups may deliver notifications for
// a platform, and how.
type RoutingRule struct {
	Platform       string   `yaml:"platform" json:"platform"`
	DefaultGuildID string   `yaml:"default_guild_id" json:"default_guild_id"`
	GuildIDs       []string `yaml:"guild_ids" json:"guild_ids"`
	DefaultBotIDs  []string `yaml:"default_bot_ids" json:"default_bot_ids"`
	BotIDs         []string `yaml:"bot_ids" json:"bot_ids"`
	SendMode       SendMode `yaml:"send_mode" json:"send_mode"`
}

// Mode returns the rule's send mode, falling back to DefaultSendMode.
func (r RoutingRule) Mode() SendMode {
	if r.SendMode == "" {
		return DefaultSendMode
	}
	return r.SendMode
}

// Validate checks the rule's send mode.
func (r RoutingRule) Validate() error {
	if r.SendMode != "" && !r.SendMode.Valid() {
		return &ValidationError{
			Field:   "send_mode",
			Message: fmt.Sprintf("must be one of private-only, private-guild, guild-only, got %q", r.SendMode),
		}
	}
	return nil
}

// Matches reports whether a (platform, bot, group) target satisfies the rule.
// An empty rule platform matches every platform. The bot restriction only
// applies when BotIDs is non-empty and the group restriction only when
// GuildIDs is non-empty; defaults alone never restrict.
func (r RoutingRule) Matches(platform, botID, guildID string) bool {
	if r.Platform != "" && r.Platform != platform {
		return false
	}
	if len(r.BotIDs) > 0 {
		if !slices.Contains(r.BotIDs, botID) && !slices.Contains(r.DefaultBotIDs, botID) {
			return false
		}
	}
	if len(r.GuildIDs) > 0 {
		if !slices.Contains(r.GuildIDs, guildID) && r.DefaultGuildID != guildID {
			return false
		}
	}
	return true
}

// MatchesProfile reports whether the rule applies to p.
func (r RoutingRule) MatchesProfile(p *Profile) bool {
	return r.Matches(p.Platform, p.BotID, p.GuildID)
}

// BotCandidates returns the rule's default bots, then the profile's bot,
// then the rule's allowed bots, without duplicates or empty ids.
func (r RoutingRule) BotCandidates(p *Profile) []string {
	ids := make([]string, 0, len(r.DefaultBotIDs)+1+len(r.BotIDs))
	ids = append(ids, r.DefaultBotIDs...)
	ids = append(ids, p.BotID)
	ids = append(ids, r.BotIDs...)
	return orderedUnique(ids)
}

// GuildCandidates returns the rule's default group, then the profile's group,
// then the rule's allowed groups, without duplicates or empty ids.
func (r RoutingRule) GuildCandidates(p *Profile) []string {
	ids := make([]string, 0, 2+len(r.GuildIDs))
	ids = append(ids, r.DefaultGuildID, p.GuildID)
	ids = append(ids, r.GuildIDs...)
	return orderedUnique(ids)
}

func orderedUnique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
