// Package notifier provides the chat platform bots that deliver turn
// notifications. Each platform adapter implements notify.Bot on top of the
// platform SDK; NewBot wraps it with rate limiting, a per-bot circuit
// breaker and retries so the dispatcher sees one uniform sender.
//
// Supported platforms are Discord (bwmarrin/discordgo), Telegram
// (mymmrac/telego), Feishu/Lark (larksuite/oapi-sdk-go) and a log-only bot
// for dry runs.
package notifier

import (
	"fmt"
	"log/slog"
	"strings"

	"turn-notify/internal/resilience/circuitbreaker"
	"turn-notify/internal/resilience/retry"
	"turn-notify/internal/usecase/notify"
)

// Platform names accepted in bot configuration. They match the platform
// stored on each profile.
const (
	PlatformDiscord  = "discord"
	PlatformTelegram = "telegram"
	PlatformFeishu   = "feishu"
	PlatformLark     = "lark"
	PlatformLog      = "log"
)

// BotConfig describes one bot account.
type BotConfig struct {
	// ID is the bot id referenced by profiles and routing rules.
	ID string

	// Platform selects the adapter (discord, telegram, feishu, lark, log).
	Platform string

	// Token is the Discord or Telegram bot token.
	Token string

	// AppID and AppSecret are the Feishu/Lark app credentials.
	AppID     string
	AppSecret string

	// RatePerSecond and Burst bound outbound calls. Zero uses the platform default.
	RatePerSecond float64
	Burst         int
}

// platformLimits are conservative per-bot send rates.
var platformLimits = map[string]struct {
	rate  float64
	burst int
}{
	PlatformDiscord:  {rate: 5, burst: 5},   // global bot limit is 50 req/s, per-channel 5 per 5s
	PlatformTelegram: {rate: 1, burst: 20},  // ~30 msg/s overall, 1 msg/s per chat
	PlatformFeishu:   {rate: 5, burst: 10},  // 5 QPS per app for im/v1/messages
	PlatformLog:      {rate: 100, burst: 100},
}

// NewBot builds the adapter for cfg and wraps it in a Guarded bot.
func NewBot(cfg BotConfig, logger *slog.Logger) (notify.Bot, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("bot config: id is required")
	}

	name := strings.ToLower(strings.TrimSpace(cfg.Platform))
	platform := name
	if platform == PlatformLark {
		platform = PlatformFeishu
	}

	var (
		bot notify.Bot
		err error
	)
	switch platform {
	case PlatformDiscord:
		bot, err = NewDiscordBot(cfg.ID, cfg.Token)
	case PlatformTelegram:
		bot, err = NewTelegramBot(cfg.ID, cfg.Token)
	case PlatformFeishu:
		bot, err = NewFeishuBot(cfg.ID, name, cfg.AppID, cfg.AppSecret)
	case PlatformLog:
		bot = NewLogBot(cfg.ID, logger)
	default:
		return nil, fmt.Errorf("bot %q: unsupported platform %q", cfg.ID, cfg.Platform)
	}
	if err != nil {
		return nil, fmt.Errorf("bot %q: %w", cfg.ID, err)
	}

	limits := platformLimits[platform]
	if cfg.RatePerSecond > 0 {
		limits.rate = cfg.RatePerSecond
	}
	if cfg.Burst > 0 {
		limits.burst = cfg.Burst
	}

	return NewGuarded(bot, GuardConfig{
		Limiter: NewRateLimiter(limits.rate, limits.burst),
		Breaker: circuitbreaker.New(circuitbreaker.BotConfig(cfg.ID)),
		Retry:   retry.SenderConfig(),
		Logger:  logger,
	}), nil
}
