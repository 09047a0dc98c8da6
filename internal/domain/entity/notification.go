package entity

// ParsedNotification is the webhook payload after parsing.
// GameID is empty when the message carries no game link.
type ParsedNotification struct {
	WebhookID int64
	Message   string
	GameID    string
}
