package entity

import "fmt"

// Cooldown bounds for Profile.Interval, in seconds.
const (
	DefaultInterval = 30
	MinInterval     = 10
	MaxInterval     = 600
)

// Profile binds a webhook id (the number on the game site's profile page) to a
// chat user and the bot/group the binding was made from.
type Profile struct {
	ID       int64  `json:"id"`
	UserID   string `json:"user_id"`
	Platform string `json:"platform"`
	BotID    string `json:"bot_id"`
	GuildID  string `json:"guild_id"`
	Notify   bool   `json:"notify"`
	Interval int    `json:"interval"` // seconds
}

// ClampInterval maps an interval in seconds into [MinInterval, MaxInterval].
// Zero or negative values mean "unset" and yield DefaultInterval.
func ClampInterval(seconds int) int {
	switch {
	case seconds <= 0:
		return DefaultInterval
	case seconds < MinInterval:
		return MinInterval
	case seconds > MaxInterval:
		return MaxInterval
	default:
		return seconds
	}
}

// CooldownMillis returns the clamped cooldown window in milliseconds.
func (p *Profile) CooldownMillis() int64 {
	return int64(ClampInterval(p.Interval)) * 1000
}

// Validate checks the fields required for a stored binding.
// It normalizes Interval in place.
func (p *Profile) Validate() error {
	if p.ID <= 0 {
		return &ValidationError{Field: "id", Message: fmt.Sprintf("must be positive, got %d", p.ID)}
	}
	if p.UserID == "" {
		return &ValidationError{Field: "user_id", Message: "is required"}
	}
	if p.Platform == "" {
		return &ValidationError{Field: "platform", Message: "is required"}
	}
	p.Interval = ClampInterval(p.Interval)
	return nil
}
