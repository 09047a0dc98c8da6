package respond

import (
	"regexp"
)

var (
	// 123456789:AAH... in api.telegram.org/bot<token>/ URLs.
	telegramTokenPattern = regexp.MustCompile(`(\d{5,}):[A-Za-z0-9_-]{30,}`)
	// Three dot-separated base64url segments.
	discordTokenPattern = regexp.MustCompile(`[A-Za-z0-9_-]{20,}\.[A-Za-z0-9_-]{6,}\.[A-Za-z0-9_-]{20,}`)
	bearerPattern       = regexp.MustCompile(`(?i)\b(bearer|bot)\s+[A-Za-z0-9._~+/=-]{8,}`)
	secretFieldPattern  = regexp.MustCompile(`(?i)\b(app_secret|tenant_access_token|token)(["']?\s*[:=]\s*["']?)[^\s"'&,}]+`)
	dbPasswordPattern   = regexp.MustCompile(`://([^:/@\s]+):([^@\s]+)@`)
)

// SanitizeError returns err's message with bot tokens, bearer credentials
// and DSN passwords masked, for logging.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	msg = bearerPattern.ReplaceAllString(msg, "$1 ****")
	msg = telegramTokenPattern.ReplaceAllString(msg, "$1:****")
	msg = discordTokenPattern.ReplaceAllString(msg, "****")
	msg = secretFieldPattern.ReplaceAllString(msg, "$1$2****")
	msg = dbPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	return msg
}
