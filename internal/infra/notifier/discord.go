package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Discord limits
const maxDiscordMessageLength = 2000

// discordSession is the subset of *discordgo.Session used for sending.
type discordSession interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordBot sends notifications through the Discord REST API. It never
// opens the gateway; a bot token is enough to create DM channels and post
// messages.
type DiscordBot struct {
	id      string
	session discordSession
}

// NewDiscordBot creates a Discord bot from a bot token.
func NewDiscordBot(id, token string) (*DiscordBot, error) {
	if token == "" {
		return nil, errors.New("discord token is required")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return &DiscordBot{id: id, session: session}, nil
}

func (b *DiscordBot) ID() string       { return b.id }
func (b *DiscordBot) Platform() string { return PlatformDiscord }

// Mention returns the user mention markup.
func (b *DiscordBot) Mention(userID string) string {
	return "<@" + userID + ">"
}

// SendDirect opens (or reuses) the DM channel with userID and posts message.
// Discord DMs are not scoped to a guild, so contextGroupID is unused.
func (b *DiscordBot) SendDirect(ctx context.Context, userID, message, contextGroupID string) ([]string, error) {
	ch, err := b.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("create dm channel: %w", discordError(err))
	}
	return b.post(ctx, ch.ID, message)
}

// SendGroup posts message to the channel groupID.
func (b *DiscordBot) SendGroup(ctx context.Context, groupID, message string) ([]string, error) {
	return b.post(ctx, groupID, message)
}

func (b *DiscordBot) post(ctx context.Context, channelID, message string) ([]string, error) {
	msg, err := b.session.ChannelMessageSend(channelID,
		truncateMessage(message, maxDiscordMessageLength, truncationSuffix),
		discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("send message: %w", discordError(err))
	}
	if msg == nil {
		return nil, nil
	}
	return []string{msg.ID}, nil
}

// discordError converts REST failures into APIError so that retries and the
// circuit breaker can tell client errors from outages.
func discordError(err error) error {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Response == nil {
		return err
	}
	apiErr := &APIError{
		Platform:   PlatformDiscord,
		StatusCode: restErr.Response.StatusCode,
		Message:    string(restErr.ResponseBody),
	}
	if restErr.Message != nil {
		apiErr.Code = restErr.Message.Code
		apiErr.Message = restErr.Message.Message
	}
	return apiErr
}
