package notifier

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	ta "github.com/mymmrac/telego/telegoapi"
	tu "github.com/mymmrac/telego/telegoutil"
)

// Telegram limits
const maxTelegramMessageLength = 4096

// telegramAPI is the subset of *telego.Bot used for sending.
type telegramAPI interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// TelegramBot sends notifications through the Telegram Bot API. Messages
// are sent in HTML parse mode so that group posts can mention the user by
// id.
type TelegramBot struct {
	id  string
	api telegramAPI
}

// NewTelegramBot creates a Telegram bot from a bot token.
func NewTelegramBot(id, token string) (*TelegramBot, error) {
	if token == "" {
		return nil, errors.New("telegram token is required")
	}
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramBot{id: id, api: bot}, nil
}

func (b *TelegramBot) ID() string       { return b.id }
func (b *TelegramBot) Platform() string { return PlatformTelegram }

// Mention returns an inline mention link for userID. It pings the user even
// when they have no public username.
func (b *TelegramBot) Mention(userID string) string {
	return fmt.Sprintf(`<a href="tg://user?id=%s">%s</a>`, html.EscapeString(userID), html.EscapeString(userID))
}

// SendDirect messages the user's private chat. The private chat id is the
// user id, so contextGroupID is unused.
func (b *TelegramBot) SendDirect(ctx context.Context, userID, message, contextGroupID string) ([]string, error) {
	return b.send(ctx, userID, html.EscapeString(message))
}

// SendGroup posts message to the group chat groupID. A leading mention
// produced by Mention is kept as markup; the rest is escaped.
func (b *TelegramBot) SendGroup(ctx context.Context, groupID, message string) ([]string, error) {
	return b.send(ctx, groupID, escapeAfterMention(message))
}

func (b *TelegramBot) send(ctx context.Context, chat, text string) ([]string, error) {
	chatID, err := telegramChatID(chat)
	if err != nil {
		return nil, err
	}

	params := tu.Message(chatID, truncateMessage(text, maxTelegramMessageLength, truncationSuffix)).
		WithParseMode(telego.ModeHTML)
	msg, err := b.api.SendMessage(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", telegramError(err))
	}
	if msg == nil {
		return nil, nil
	}
	return []string{strconv.Itoa(msg.MessageID)}, nil
}

// telegramChatID accepts numeric chat ids and @channel usernames.
func telegramChatID(chat string) (telego.ChatID, error) {
	if strings.HasPrefix(chat, "@") {
		return tu.Username(chat), nil
	}
	id, err := strconv.ParseInt(chat, 10, 64)
	if err != nil {
		return telego.ChatID{}, fmt.Errorf("invalid telegram chat id %q: %w", chat, err)
	}
	return tu.ID(id), nil
}

// escapeAfterMention HTML-escapes message except for a leading tg://user
// mention link.
func escapeAfterMention(message string) string {
	const prefix = `<a href="tg://user?id=`
	if !strings.HasPrefix(message, prefix) {
		return html.EscapeString(message)
	}
	mention, rest, found := strings.Cut(message, "</a>")
	if !found {
		return html.EscapeString(message)
	}
	return mention + "</a>" + html.EscapeString(rest)
}

// telegramError converts Bot API rejections into APIError or RateLimitError.
func telegramError(err error) error {
	var apiErr *ta.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	if apiErr.ErrorCode == http.StatusTooManyRequests {
		retryAfter := 5 * time.Second
		if apiErr.Parameters != nil && apiErr.Parameters.RetryAfter > 0 {
			retryAfter = time.Duration(apiErr.Parameters.RetryAfter) * time.Second
		}
		return &RateLimitError{
			Platform:   PlatformTelegram,
			RetryAfter: retryAfter,
			Message:    apiErr.Description,
		}
	}
	return &APIError{
		Platform:   PlatformTelegram,
		StatusCode: apiErr.ErrorCode,
		Message:    apiErr.Description,
	}
}
