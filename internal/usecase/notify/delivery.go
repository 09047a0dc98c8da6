package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"turn-notify/internal/domain/entity"
)

const (
	modeDirect = "direct"
	modeGroup  = "group"
)

// Candidate is a (bot, group) pair attempted during delivery.
type Candidate struct {
	BotID   string
	GroupID string
}

// Plan is the ordered candidate list and send mode chosen for a profile.
type Plan struct {
	Mode       entity.SendMode
	Candidates []Candidate
}

// Receipt describes a successful delivery.
type Receipt struct {
	Candidate
	Mode        string
	DeliveryIDs []string
}

// BuildPlan selects the routing rule for p and expands it into candidates.
// With no rules configured the profile's own bot and group are the sole
// candidate, sent with SendModePrivateGuild. Otherwise only the first
// matching rule is used. ok is false when rules exist but none matches.
func BuildPlan(rules RuleSet, p *entity.Profile) (plan Plan, ok bool) {
	rule := entity.RoutingRule{SendMode: entity.SendModePrivateGuild}
	if len(rules) > 0 {
		if rule, ok = rules.Match(p); !ok {
			return Plan{}, false
		}
	}

	bots := rule.BotCandidates(p)
	groups := rule.GuildCandidates(p)
	if len(groups) == 0 {
		// Direct messages still work without a group.
		groups = []string{""}
	}

	candidates := make([]Candidate, 0, len(bots)*len(groups))
	for _, b := range bots {
		for _, g := range groups {
			candidates = append(candidates, Candidate{BotID: b, GroupID: g})
		}
	}
	return Plan{Mode: rule.Mode(), Candidates: candidates}, true
}

// deliver walks the plan until one candidate succeeds. Failures are logged
// and the next candidate is tried; when every candidate fails the joined
// errors are returned wrapped in ErrAllCandidatesExhausted.
func (d *Dispatcher) deliver(ctx context.Context, log *slog.Logger, p *entity.Profile, message string) (Receipt, error) {
	plan, ok := BuildPlan(d.rules.Rules(), p)
	if !ok {
		return Receipt{}, fmt.Errorf("%w: no routing rule matches platform %q bot %q group %q",
			ErrAllCandidatesExhausted, p.Platform, p.BotID, p.GuildID)
	}

	var errs []error
	for _, c := range plan.Candidates {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		bot, found := d.bots.Get(c.BotID)
		if !found {
			log.Debug("skipping unknown bot", slog.String("bot_id", c.BotID))
			errs = append(errs, &DeliveryError{BotID: c.BotID, GroupID: c.GroupID, Mode: modeDirect, Err: ErrUnknownBot})
			continue
		}

		receipt, err := d.attemptCandidate(ctx, log, bot, plan.Mode, c, p, message)
		if err == nil {
			return receipt, nil
		}
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return Receipt{}, fmt.Errorf("%w: no candidates", ErrAllCandidatesExhausted)
	}
	return Receipt{}, fmt.Errorf("%w: %w", ErrAllCandidatesExhausted, errors.Join(errs...))
}

// attemptCandidate runs the send mode against one candidate.
func (d *Dispatcher) attemptCandidate(ctx context.Context, log *slog.Logger, bot Bot, mode entity.SendMode, c Candidate, p *entity.Profile, message string) (Receipt, error) {
	switch mode {
	case entity.SendModePrivateOnly:
		return d.attempt(ctx, log, bot, modeDirect, c, p, message)

	case entity.SendModeGuildOnly:
		return d.attempt(ctx, log, bot, modeGroup, c, p, message)

	default:
		receipt, directErr := d.attempt(ctx, log, bot, modeDirect, c, p, message)
		if directErr == nil {
			return receipt, nil
		}
		receipt, groupErr := d.attempt(ctx, log, bot, modeGroup, c, p, message)
		if groupErr == nil {
			return receipt, nil
		}
		return Receipt{}, errors.Join(directErr, groupErr)
	}
}

// attempt makes one sender call. Errors, panics and empty results all count
// as failure.
func (d *Dispatcher) attempt(ctx context.Context, log *slog.Logger, bot Bot, mode string, c Candidate, p *entity.Profile, message string) (receipt Receipt, err error) {
	if mode == modeGroup && c.GroupID == "" {
		return Receipt{}, &DeliveryError{BotID: c.BotID, Mode: mode, Err: errors.New("no group to post to")}
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.DeliveryTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = &DeliveryError{BotID: c.BotID, GroupID: c.GroupID, Mode: mode, Err: fmt.Errorf("sender panic: %v", r)}
		}
		RecordAttempt(bot.Platform(), mode, err == nil, time.Since(start))
		if err != nil {
			log.Warn("delivery attempt failed",
				slog.String("bot_id", c.BotID),
				slog.String("group_id", c.GroupID),
				slog.String("mode", mode),
				slog.Duration("send_duration", time.Since(start)),
				slog.Any("error", err))
		}
	}()

	var ids []string
	if mode == modeDirect {
		ids, err = bot.SendDirect(ctx, p.UserID, message, c.GroupID)
	} else {
		ids, err = bot.SendGroup(ctx, c.GroupID, composeGroupMessage(bot, p.UserID, message))
	}
	if err == nil && !hasDeliveryID(ids) {
		err = ErrEmptyDelivery
	}
	if err != nil {
		return Receipt{}, &DeliveryError{BotID: c.BotID, GroupID: c.GroupID, Mode: mode, Err: err}
	}

	return Receipt{Candidate: c, Mode: mode, DeliveryIDs: ids}, nil
}

// composeGroupMessage prefixes message with the bot's mention markup so the
// recipient is pinged in the group.
func composeGroupMessage(bot Bot, userID, message string) string {
	return bot.Mention(userID) + " " + message
}

func hasDeliveryID(ids []string) bool {
	for _, id := range ids {
		if id != "" {
			return true
		}
	}
	return false
}
