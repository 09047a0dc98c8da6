package binding

import (
	"context"
	"fmt"
	"log/slog"

	"turn-notify/internal/domain/entity"
	"turn-notify/internal/repository"
	"turn-notify/internal/usecase/notify"
)

// ForceAuthority is the minimum authority level for a forced bind, which
// takes over a profile id bound by someone else.
const ForceAuthority = 4

// Session identifies who issued a binding command and from where.
type Session struct {
	UserID    string
	Platform  string
	BotID     string // the bot that received the command
	GuildID   string // empty for direct messages
	Authority int
}

// BindResult reports the outcome of Bind.
type BindResult struct {
	ID      int64
	Rebound bool // true when an existing binding was overwritten
}

// ToggleResult reports how many bindings SetNotify or SetInterval changed.
type ToggleResult struct {
	Updated  int
	Notify   bool
	Interval int // seconds, after clamping
}

// Service provides profile binding use cases.
type Service struct {
	Repo   repository.ProfileRepository
	Rules  notify.RuleProvider
	Logger *slog.Logger
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// checkSession rejects commands from outside a group, and from a bot/group
// pair no routing rule covers. With no rules configured every group is
// accepted.
func (s *Service) checkSession(sess Session) error {
	if sess.GuildID == "" {
		return ErrNotInGuild
	}
	if s.Rules == nil {
		return nil
	}
	rules := s.Rules.Rules()
	if len(rules) == 0 {
		return nil
	}
	if _, ok := rules.MatchTarget(sess.Platform, sess.BotID, sess.GuildID); !ok {
		return ErrSessionRejected
	}
	return nil
}

// Bind links profile id to the session user, recording the session's
// platform, bot and group. A profile bound by another user is only taken
// over with force, which needs ForceAuthority. Rebinding keeps the
// profile's notify flag and interval.
func (s *Service) Bind(ctx context.Context, sess Session, id int64, force bool) (BindResult, error) {
	if force && sess.Authority < ForceAuthority {
		return BindResult{}, ErrForceNotAllowed
	}
	if err := s.checkSession(sess); err != nil {
		return BindResult{}, err
	}
	if id <= 0 {
		return BindResult{}, ErrInvalidProfileID
	}

	existing, err := s.Repo.Get(ctx, repository.ByID(id))
	if err != nil {
		return BindResult{}, fmt.Errorf("get profile %d: %w: %w", id, entity.ErrStoreUnavailable, err)
	}
	if len(existing) > 1 {
		s.logger().Error("multiple profiles bound to one webhook id",
			slog.Int64("webhook_id", id),
			slog.Any("profiles", existing),
			slog.String("user_id", sess.UserID))
	}
	if !force && len(existing) > 0 && existing[0].UserID != sess.UserID {
		return BindResult{}, ErrBoundByOtherUser
	}

	p := &entity.Profile{
		ID:       id,
		UserID:   sess.UserID,
		Platform: sess.Platform,
		BotID:    sess.BotID,
		GuildID:  sess.GuildID,
		Notify:   true,
		Interval: entity.DefaultInterval,
	}
	if len(existing) > 0 {
		p.Notify = existing[0].Notify
		p.Interval = existing[0].Interval
	}
	if err := p.Validate(); err != nil {
		return BindResult{}, fmt.Errorf("validate profile: %w", err)
	}

	res, err := s.Repo.Upsert(ctx, []*entity.Profile{p})
	if err != nil {
		return BindResult{}, fmt.Errorf("upsert profile %d: %w: %w", id, entity.ErrStoreUnavailable, err)
	}

	result := BindResult{ID: id, Rebound: res.Inserted == 0}
	s.logger().Info("profile bound",
		slog.Int64("webhook_id", id),
		slog.String("user_id", sess.UserID),
		slog.String("platform", sess.Platform),
		slog.String("bot_id", sess.BotID),
		slog.String("guild_id", sess.GuildID),
		slog.Bool("force", force),
		slog.Bool("rebound", result.Rebound))
	return result, nil
}

// Unbind removes the session user's binding of profile id.
func (s *Service) Unbind(ctx context.Context, sess Session, id int64) error {
	if id <= 0 {
		return ErrInvalidProfileID
	}
	res, err := s.Repo.Remove(ctx, repository.ProfileFilter{ID: &id, UserID: sess.UserID})
	if err != nil {
		return fmt.Errorf("remove profile %d: %w: %w", id, entity.ErrStoreUnavailable, err)
	}
	if res.Matched == 0 {
		return ErrNotBound
	}
	if res.Removed == 0 {
		return ErrRemoveFailed
	}
	s.logger().Info("profile unbound",
		slog.Int64("webhook_id", id),
		slog.String("user_id", sess.UserID))
	return nil
}

// List returns the session user's bindings, ordered by profile id.
func (s *Service) List(ctx context.Context, sess Session) ([]*entity.Profile, error) {
	profiles, err := s.Repo.Get(ctx, repository.ByUser(sess.UserID))
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w: %w", entity.ErrStoreUnavailable, err)
	}
	return profiles, nil
}

// SetNotify turns notifications on or off for every binding of the user.
func (s *Service) SetNotify(ctx context.Context, sess Session, enabled bool) (ToggleResult, error) {
	return s.update(ctx, sess, func(p *entity.Profile) { p.Notify = enabled })
}

// SetInterval sets the cooldown of every binding of the user. seconds is
// clamped to [entity.MinInterval, entity.MaxInterval].
func (s *Service) SetInterval(ctx context.Context, sess Session, seconds int) (ToggleResult, error) {
	clamped := entity.ClampInterval(seconds)
	return s.update(ctx, sess, func(p *entity.Profile) { p.Interval = clamped })
}

func (s *Service) update(ctx context.Context, sess Session, apply func(*entity.Profile)) (ToggleResult, error) {
	profiles, err := s.Repo.Get(ctx, repository.ByUser(sess.UserID))
	if err != nil {
		return ToggleResult{}, fmt.Errorf("get profiles: %w: %w", entity.ErrStoreUnavailable, err)
	}
	if len(profiles) == 0 {
		return ToggleResult{}, ErrNotBound
	}

	for _, p := range profiles {
		apply(p)
	}

	res, err := s.Repo.Upsert(ctx, profiles)
	if err != nil {
		return ToggleResult{}, fmt.Errorf("update profiles: %w: %w", entity.ErrStoreUnavailable, err)
	}

	result := ToggleResult{
		Updated:  res.Matched,
		Notify:   profiles[0].Notify,
		Interval: entity.ClampInterval(profiles[0].Interval),
	}
	s.logger().Info("profiles updated",
		slog.String("user_id", sess.UserID),
		slog.Int("updated", result.Updated),
		slog.Bool("notify", result.Notify),
		slog.Int("interval", result.Interval))
	return result, nil
}
