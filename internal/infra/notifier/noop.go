package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// LogBot is a bot that only logs what it would send. It backs the "log"
// platform, used for dry runs and local development where no chat
// credentials are available.
type LogBot struct {
	id     string
	logger *slog.Logger
	seq    atomic.Int64
}

// NewLogBot creates a LogBot.
func NewLogBot(id string, logger *slog.Logger) *LogBot {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogBot{id: id, logger: logger}
}

func (b *LogBot) ID() string       { return b.id }
func (b *LogBot) Platform() string { return PlatformLog }

func (b *LogBot) Mention(userID string) string {
	return "@" + userID
}

// SendDirect logs the message and returns a synthetic delivery id.
func (b *LogBot) SendDirect(ctx context.Context, userID, message, contextGroupID string) ([]string, error) {
	id := b.next()
	b.logger.InfoContext(ctx, "dry-run direct message",
		slog.String("bot_id", b.id),
		slog.String("user_id", userID),
		slog.String("context_group_id", contextGroupID),
		slog.String("message", message),
		slog.String("delivery_id", id))
	return []string{id}, nil
}

// SendGroup logs the message and returns a synthetic delivery id.
func (b *LogBot) SendGroup(ctx context.Context, groupID, message string) ([]string, error) {
	id := b.next()
	b.logger.InfoContext(ctx, "dry-run group message",
		slog.String("bot_id", b.id),
		slog.String("group_id", groupID),
		slog.String("message", message),
		slog.String("delivery_id", id))
	return []string{id}, nil
}

func (b *LogBot) next() string {
	return fmt.Sprintf("%s-%d", b.id, b.seq.Add(1))
}
