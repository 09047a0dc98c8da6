package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSendMode_Valid(t *testing.T) {
	assert.True(t, SendModePrivateOnly.Valid())
	assert.True(t, SendModePrivateGuild.Valid())
	assert.True(t, SendModeGuildOnly.Valid())
	assert.False(t, SendMode("broadcast").Valid())
	assert.False(t, SendMode("").Valid())
}

func TestRoutingRule_Mode(t *testing.T) {
	assert.Equal(t, SendModePrivateGuild, RoutingRule{}.Mode())
	assert.Equal(t, SendModeGuildOnly, RoutingRule{SendMode: SendModeGuildOnly}.Mode())
}

func TestRoutingRule_Validate(t *testing.T) {
	assert.NoError(t, RoutingRule{}.Validate())
	assert.NoError(t, RoutingRule{SendMode: SendModePrivateOnly}.Validate())

	err := RoutingRule{SendMode: "loud"}.Validate()
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Equal(t, "send_mode", ve.Field)
}

func TestRoutingRule_Matches(t *testing.T) {
	tests := []struct {
		name     string
		rule     RoutingRule
		platform string
		bot      string
		guild    string
		want     bool
	}{
		{"wildcard rule", RoutingRule{}, "discord", "b1", "g1", true},
		{"platform mismatch", RoutingRule{Platform: "telegram"}, "discord", "b1", "g1", false},
		{"platform match", RoutingRule{Platform: "discord"}, "discord", "b1", "g1", true},
		{"bot in allowed list", RoutingRule{BotIDs: []string{"b1"}}, "discord", "b1", "g1", true},
		{"bot in default list", RoutingRule{BotIDs: []string{"b2"}, DefaultBotIDs: []string{"b1"}}, "discord", "b1", "g1", true},
		{"bot not listed", RoutingRule{BotIDs: []string{"b2"}, DefaultBotIDs: []string{"b3"}}, "discord", "b1", "g1", false},
		{"default bots alone do not restrict", RoutingRule{DefaultBotIDs: []string{"b9"}}, "discord", "b1", "g1", true},
		{"group in allowed list", RoutingRule{GuildIDs: []string{"g1"}}, "discord", "b1", "g1", true},
		{"group equals default", RoutingRule{DefaultGuildID: "g1", GuildIDs: []string{"g2"}}, "discord", "b1", "g1", true},
		{"group not listed", RoutingRule{DefaultGuildID: "g2", GuildIDs: []string{"g3"}}, "discord", "b1", "g1", false},
		{"default group alone does not restrict", RoutingRule{DefaultGuildID: "g9"}, "discord", "b1", "g1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Matches(tt.platform, tt.bot, tt.guild))
		})
	}
}

func TestRoutingRule_Candidates(t *testing.T) {
	rule := RoutingRule{
		DefaultGuildID: "g-default",
		GuildIDs:       []string{"g-profile", "g-extra", ""},
		DefaultBotIDs:  []string{"b-default", "b-profile"},
		BotIDs:         []string{"b-extra", "b-default"},
	}
	p := &Profile{BotID: "b-profile", GuildID: "g-profile"}

	assert.Equal(t, []string{"b-default", "b-profile", "b-extra"}, rule.BotCandidates(p))
	assert.Equal(t, []string{"g-default", "g-profile", "g-extra"}, rule.GuildCandidates(p))
}

func TestRoutingRule_CandidatesDropEmpty(t *testing.T) {
	p := &Profile{BotID: "b1"}
	rule := RoutingRule{}

	assert.Equal(t, []string{"b1"}, rule.BotCandidates(p))
	assert.Empty(t, rule.GuildCandidates(p))
}
