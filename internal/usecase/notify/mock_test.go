package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"turn-notify/internal/domain/entity"
	"turn-notify/internal/repository"
)

// mockRepo is a test implementation of repository.ProfileRepository
type mockRepo struct {
	mu       sync.Mutex
	profiles []*entity.Profile
	getErr   error
	getCalls int
}

func (m *mockRepo) Get(ctx context.Context, filter repository.ProfileFilter) ([]*entity.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []*entity.Profile
	for _, p := range m.profiles {
		if filter.ID != nil && p.ID != *filter.ID {
			continue
		}
		if filter.UserID != "" && p.UserID != filter.UserID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockRepo) Upsert(ctx context.Context, profiles []*entity.Profile) (repository.UpsertResult, error) {
	return repository.UpsertResult{}, errors.New("not implemented")
}

func (m *mockRepo) Remove(ctx context.Context, filter repository.ProfileFilter) (repository.RemoveResult, error) {
	return repository.RemoveResult{}, errors.New("not implemented")
}

// update replaces the stored profiles.
func (m *mockRepo) update(fn func([]*entity.Profile) []*entity.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles = fn(m.profiles)
}

func (m *mockRepo) getCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getCalls
}

// sentMessage records one call made on a mockBot
type sentMessage struct {
	BotID   string
	Mode    string
	Target  string // user id for direct, group id for group
	Context string // context group for direct
	Text    string
}

// mockBot is a test implementation of the Bot interface
type mockBot struct {
	id       string
	platform string

	mu          sync.Mutex
	directErr   error
	groupErr    error
	directEmpty bool
	panicOnSend bool
	delay       time.Duration
	sent        []sentMessage
}

func newMockBot(id string) *mockBot {
	return &mockBot{id: id, platform: "discord"}
}

func (m *mockBot) ID() string       { return m.id }
func (m *mockBot) Platform() string { return m.platform }

func (m *mockBot) Mention(userID string) string {
	return "<@" + userID + ">"
}

func (m *mockBot) SendDirect(ctx context.Context, userID, message, contextGroupID string) ([]string, error) {
	m.mu.Lock()
	delay := m.delay
	m.mu.Unlock()
	time.Sleep(delay)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panicOnSend {
		panic("mock panic in SendDirect()")
	}
	m.sent = append(m.sent, sentMessage{BotID: m.id, Mode: modeDirect, Target: userID, Context: contextGroupID, Text: message})
	if m.directErr != nil {
		return nil, m.directErr
	}
	if m.directEmpty {
		return nil, nil
	}
	return []string{fmt.Sprintf("%s-dm-%d", m.id, len(m.sent))}, nil
}

func (m *mockBot) SendGroup(ctx context.Context, groupID, message string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{BotID: m.id, Mode: modeGroup, Target: groupID, Text: message})
	if m.groupErr != nil {
		return nil, m.groupErr
	}
	return []string{fmt.Sprintf("%s-msg-%d", m.id, len(m.sent))}, nil
}

func (m *mockBot) setDirectErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.directErr = err
}

func (m *mockBot) setGroupErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groupErr = err
}

func (m *mockBot) messages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

func (m *mockBot) sendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
