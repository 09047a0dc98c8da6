package notify

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"turn-notify/internal/domain/entity"
)

var (
	// webhookPattern matches "<@ID> message" and "<ID> message". (?s) lets the
	// message span lines; hook messages put the game URL on its own line.
	webhookPattern = regexp.MustCompile(`(?s)^<@?([^>]*)>\s*(.*)$`)

	gameURLPattern = regexp.MustCompile(`https?://[^\s/]+/game/(\d+)`)
)

// ParseWebhookText extracts the webhook id, message and optional game id
// from the text posted by the game service.
func ParseWebhookText(text string) (entity.ParsedNotification, error) {
	m := webhookPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return entity.ParsedNotification{}, fmt.Errorf("%w: missing <id> marker", ErrMalformedWebhook)
	}

	id, err := strconv.ParseInt(strings.TrimSpace(m[1]), 10, 64)
	if err != nil || id <= 0 {
		return entity.ParsedNotification{}, fmt.Errorf("%w: invalid id %q", ErrMalformedWebhook, m[1])
	}

	message := strings.TrimSpace(m[2])
	if message == "" {
		return entity.ParsedNotification{}, fmt.Errorf("%w: empty message", ErrMalformedWebhook)
	}

	return entity.ParsedNotification{
		WebhookID: id,
		Message:   message,
		GameID:    ExtractGameID(message),
	}, nil
}

// ExtractGameID returns the numeric id of the first game URL in message, or
// "" when there is none.
func ExtractGameID(message string) string {
	if m := gameURLPattern.FindStringSubmatch(message); m != nil {
		return m[1]
	}
	return ""
}
