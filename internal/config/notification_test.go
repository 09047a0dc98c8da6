package config

import (
	"os"
	"path/filepath"
	"testing"

	"turn-notify/internal/domain/entity"
	"turn-notify/internal/infra/notifier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleNotification = `
enable: true
path: /turns
rules:
  - platform: discord
    default_guild_id: "g1"
    guild_ids: ["g1", "g2"]
    bot_ids: ["main"]
    send_mode: guild-only
  - platform: telegram
bots:
  - id: main
    platform: discord
    token: ${TEST_DISCORD_TOKEN}
  - id: tg
    platform: telegram
    token: "123:abc"
    rate_per_second: 0.5
    burst: 3
`

func TestParseNotification(t *testing.T) {
	// Arrange
	t.Setenv("TEST_DISCORD_TOKEN", "secret-token")

	// Act
	n, err := ParseNotification([]byte(sampleNotification))

	// Assert
	require.NoError(t, err)
	assert.True(t, n.Enabled())
	assert.Equal(t, "/turns", n.WebhookPath())
	require.Len(t, n.Rules, 2)
	assert.Equal(t, entity.RoutingRule{
		Platform:       "discord",
		DefaultGuildID: "g1",
		GuildIDs:       []string{"g1", "g2"},
		BotIDs:         []string{"main"},
		SendMode:       entity.SendModeGuildOnly,
	}, n.Rules[0])
	assert.Equal(t, entity.DefaultSendMode, n.Rules[1].Mode())

	require.Len(t, n.Bots, 2)
	assert.Equal(t, "secret-token", n.Bots[0].Token)
	assert.Equal(t, notifier.BotConfig{
		ID:            "tg",
		Platform:      "telegram",
		Token:         "123:abc",
		RatePerSecond: 0.5,
		Burst:         3,
	}, n.Bots[1].BotConfig())
}

func TestParseNotification_Defaults(t *testing.T) {
	t.Run("TC-1: empty file", func(t *testing.T) {
		n, err := ParseNotification(nil)
		require.NoError(t, err)
		assert.True(t, n.Enabled())
		assert.Equal(t, DefaultWebhookPath, n.WebhookPath())
		assert.Empty(t, n.Rules)
		assert.Empty(t, n.Bots)
	})

	t.Run("TC-2: disabled", func(t *testing.T) {
		n, err := ParseNotification([]byte("enable: false\n"))
		require.NoError(t, err)
		assert.False(t, n.Enabled())
	})
}

func TestParseNotification_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "TC-1: unknown key", input: "enabled: true\n", wantErr: "field enabled not found"},
		{name: "TC-2: relative path", input: "path: 18xx\n", wantErr: "path must start with '/'"},
		{name: "TC-3: bad send mode", input: "rules:\n  - send_mode: broadcast\n", wantErr: "send_mode"},
		{name: "TC-4: bot without id", input: "bots:\n  - platform: log\n", wantErr: "id is required"},
		{name: "TC-5: duplicate bot id", input: "bots:\n  - {id: a, platform: log}\n  - {id: a, platform: log}\n", wantErr: "duplicate id"},
		{name: "TC-6: bot without platform", input: "bots:\n  - id: a\n", wantErr: "platform is required"},
		{name: "TC-7: not yaml", input: "rules: [", wantErr: "decode notification config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseNotification([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadNotification(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notify.yaml")
	require.NoError(t, os.WriteFile(path, []byte("path: /hook\n"), 0o600))

	n, err := LoadNotification(path)
	require.NoError(t, err)
	assert.Equal(t, "/hook", n.WebhookPath())

	_, err = LoadNotification(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "read notification config")
}

func TestSampleConfigParses(t *testing.T) {
	n, err := LoadNotification(filepath.Join("..", "..", "config", "notify.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultWebhookPath, n.WebhookPath())
	assert.NotEmpty(t, n.Bots)
}
