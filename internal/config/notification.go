package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"turn-notify/internal/infra/notifier"
	"turn-notify/internal/usecase/notify"

	"gopkg.in/yaml.v3"
)

// DefaultWebhookPath is the webhook route when the file does not set one.
const DefaultWebhookPath = "/18xx"

// Notification is the notification file: the webhook route, the ordered
// routing rules and the bot accounts.
//
//	enable: true
//	path: /18xx
//	rules:
//	  - platform: discord
//	    guild_ids: ["123"]
//	    send_mode: private-guild
//	bots:
//	  - id: main
//	    platform: discord
//	    token: ${DISCORD_TOKEN}
type Notification struct {
	// Enable registers the webhook route. Defaults to true.
	Enable *bool           `yaml:"enable"`
	Path   string          `yaml:"path"`
	Rules  notify.RuleSet  `yaml:"rules"`
	Bots   []BotDefinition `yaml:"bots"`
}

// BotDefinition is one bot account in the notification file.
type BotDefinition struct {
	ID            string  `yaml:"id"`
	Platform      string  `yaml:"platform"`
	Token         string  `yaml:"token"`
	AppID         string  `yaml:"app_id"`
	AppSecret     string  `yaml:"app_secret"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

// BotConfig converts d for notifier.NewBot.
func (d BotDefinition) BotConfig() notifier.BotConfig {
	return notifier.BotConfig{
		ID:            d.ID,
		Platform:      d.Platform,
		Token:         d.Token,
		AppID:         d.AppID,
		AppSecret:     d.AppSecret,
		RatePerSecond: d.RatePerSecond,
		Burst:         d.Burst,
	}
}

// Enabled reports whether the webhook route is registered.
func (n *Notification) Enabled() bool {
	return n.Enable == nil || *n.Enable
}

// WebhookPath returns the configured path or DefaultWebhookPath.
func (n *Notification) WebhookPath() string {
	if n.Path == "" {
		return DefaultWebhookPath
	}
	return n.Path
}

// Validate checks the path, every rule, and that bot ids are present and
// unique.
func (n *Notification) Validate() error {
	var errs []error
	if n.Path != "" && !strings.HasPrefix(n.Path, "/") {
		errs = append(errs, fmt.Errorf("path must start with '/', got %q", n.Path))
	}
	if err := n.Rules.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("rules: %w", err))
	}
	seen := make(map[string]struct{}, len(n.Bots))
	for i, b := range n.Bots {
		if b.ID == "" {
			errs = append(errs, fmt.Errorf("bots[%d]: id is required", i))
			continue
		}
		if _, dup := seen[b.ID]; dup {
			errs = append(errs, fmt.Errorf("bots[%d]: duplicate id %q", i, b.ID))
		}
		seen[b.ID] = struct{}{}
		if b.Platform == "" {
			errs = append(errs, fmt.Errorf("bots[%d]: platform is required", i))
		}
	}
	return errors.Join(errs...)
}

// ParseNotification decodes and validates a notification file. ${VAR}
// references are expanded from the environment before decoding, so tokens
// can stay out of the file. Unknown keys are rejected.
func ParseNotification(data []byte) (*Notification, error) {
	expanded := os.Expand(string(data), os.Getenv)

	var n Notification
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&n); err != nil {
		// an empty file is a valid, all-default configuration
		if !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode notification config: %w", err)
		}
	}
	if err := n.Validate(); err != nil {
		return nil, fmt.Errorf("invalid notification config: %w", err)
	}
	return &n, nil
}

// LoadNotification reads and parses the file at path.
func LoadNotification(path string) (*Notification, error) {
	// #nosec G304 -- path comes from NOTIFY_CONFIG, not from requests
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read notification config: %w", err)
	}
	return ParseNotification(data)
}
