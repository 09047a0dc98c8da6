package notifier

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
)

// fakeDiscordSession records calls instead of hitting the Discord API.
type fakeDiscordSession struct {
	mu         sync.Mutex
	dmChannels map[string]string // user id -> channel id
	sent       map[string][]string
	channelErr error
	sendErr    error
}

func newFakeDiscordSession() *fakeDiscordSession {
	return &fakeDiscordSession{
		dmChannels: map[string]string{},
		sent:       map[string][]string{},
	}
}

func (f *fakeDiscordSession) UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.channelErr != nil {
		return nil, f.channelErr
	}
	id, ok := f.dmChannels[recipientID]
	if !ok {
		id = "dm-" + recipientID
		f.dmChannels[recipientID] = id
	}
	return &discordgo.Channel{ID: id, Type: discordgo.ChannelTypeDM}, nil
}

func (f *fakeDiscordSession) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent[channelID] = append(f.sent[channelID], content)
	return &discordgo.Message{ID: "m" + channelID, ChannelID: channelID, Content: content}, nil
}

func TestNewDiscordBot(t *testing.T) {
	t.Run("should reject empty token", func(t *testing.T) {
		if _, err := NewDiscordBot("d1", ""); err == nil {
			t.Fatal("expected error for empty token")
		}
	})

	t.Run("should create bot with session", func(t *testing.T) {
		bot, err := NewDiscordBot("d1", "test-token")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if bot.ID() != "d1" || bot.Platform() != PlatformDiscord {
			t.Errorf("unexpected identity %q/%q", bot.ID(), bot.Platform())
		}
		if bot.session == nil {
			t.Error("expected session to be set")
		}
	})
}

func TestDiscordBot_SendDirect(t *testing.T) {
	t.Run("TC-1: should open DM channel and post message", func(t *testing.T) {
		// Arrange
		session := newFakeDiscordSession()
		bot := &DiscordBot{id: "d1", session: session}

		// Act
		ids, err := bot.SendDirect(context.Background(), "42", "Your turn", "guild-1")

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(ids) != 1 || ids[0] != "mdm-42" {
			t.Errorf("expected [mdm-42], got %v", ids)
		}
		if got := session.sent["dm-42"]; len(got) != 1 || got[0] != "Your turn" {
			t.Errorf("unexpected DM content %v", got)
		}
	})

	t.Run("TC-2: should convert REST errors into APIError", func(t *testing.T) {
		// Arrange
		session := newFakeDiscordSession()
		session.channelErr = &discordgo.RESTError{
			Response:     &http.Response{StatusCode: http.StatusForbidden},
			ResponseBody: []byte(`{"message":"Cannot send messages to this user","code":50007}`),
			Message:      &discordgo.APIErrorMessage{Code: 50007, Message: "Cannot send messages to this user"},
		}
		bot := &DiscordBot{id: "d1", session: session}

		// Act
		_, err := bot.SendDirect(context.Background(), "42", "Your turn", "")

		// Assert
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %T: %v", err, err)
		}
		if apiErr.StatusCode != http.StatusForbidden || apiErr.Code != 50007 {
			t.Errorf("unexpected api error %+v", apiErr)
		}
		if !isClientError(err) {
			t.Error("expected 403 to be treated as client error")
		}
	})

	t.Run("TC-3: should pass through non-REST errors", func(t *testing.T) {
		session := newFakeDiscordSession()
		netErr := errors.New("dial tcp: connection refused")
		session.sendErr = netErr
		bot := &DiscordBot{id: "d1", session: session}

		_, err := bot.SendDirect(context.Background(), "42", "Your turn", "")

		if !errors.Is(err, netErr) {
			t.Errorf("expected wrapped network error, got %v", err)
		}
	})
}

func TestDiscordBot_SendGroup(t *testing.T) {
	t.Run("TC-1: should post to channel", func(t *testing.T) {
		session := newFakeDiscordSession()
		bot := &DiscordBot{id: "d1", session: session}

		message := bot.Mention("42") + " Your turn"
		ids, err := bot.SendGroup(context.Background(), "chan-1", message)

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(ids) != 1 || ids[0] != "mchan-1" {
			t.Errorf("expected [mchan-1], got %v", ids)
		}
		if got := session.sent["chan-1"][0]; got != "<@42> Your turn" {
			t.Errorf("unexpected content %q", got)
		}
	})

	t.Run("TC-2: should truncate messages over 2000 characters", func(t *testing.T) {
		session := newFakeDiscordSession()
		bot := &DiscordBot{id: "d1", session: session}

		_, err := bot.SendGroup(context.Background(), "chan-1", strings.Repeat("x", 2500))

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := session.sent["chan-1"][0]; len(got) != maxDiscordMessageLength {
			t.Errorf("expected %d characters, got %d", maxDiscordMessageLength, len(got))
		}
	})
}

func TestDiscordBot_Mention(t *testing.T) {
	bot := &DiscordBot{id: "d1"}
	if got := bot.Mention("123"); got != "<@123>" {
		t.Errorf("expected <@123>, got %q", got)
	}
}
