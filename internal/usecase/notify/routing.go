package notify

import (
	"sync/atomic"

	"turn-notify/internal/domain/entity"
)

// RuleSet is an ordered list of routing rules. Rules are evaluated in
// declaration order and the first match wins.
type RuleSet []entity.RoutingRule

// Match returns the first rule matching p.
func (rs RuleSet) Match(p *entity.Profile) (entity.RoutingRule, bool) {
	return rs.MatchTarget(p.Platform, p.BotID, p.GuildID)
}

// MatchTarget returns the first rule matching the (platform, bot, group) target.
func (rs RuleSet) MatchTarget(platform, botID, guildID string) (entity.RoutingRule, bool) {
	for _, r := range rs {
		if r.Matches(platform, botID, guildID) {
			return r, true
		}
	}
	return entity.RoutingRule{}, false
}

// Validate checks every rule.
func (rs RuleSet) Validate() error {
	for _, r := range rs {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// RuleProvider supplies the active rule set. Implementations must be safe for
// concurrent use.
type RuleProvider interface {
	Rules() RuleSet
}

// StaticRules is a RuleProvider that never changes.
type StaticRules RuleSet

// Rules implements RuleProvider.
func (s StaticRules) Rules() RuleSet {
	return RuleSet(s)
}

// AtomicRules is a RuleProvider whose rule set can be swapped at runtime,
// e.g. when the configuration file is reloaded.
type AtomicRules struct {
	v atomic.Pointer[RuleSet]
}

// NewAtomicRules returns an AtomicRules holding rs.
func NewAtomicRules(rs RuleSet) *AtomicRules {
	a := &AtomicRules{}
	a.Store(rs)
	return a
}

// Rules implements RuleProvider.
func (a *AtomicRules) Rules() RuleSet {
	if p := a.v.Load(); p != nil {
		return *p
	}
	return nil
}

// Store replaces the active rule set.
func (a *AtomicRules) Store(rs RuleSet) {
	cp := make(RuleSet, len(rs))
	copy(cp, rs)
	a.v.Store(&cp)
}
