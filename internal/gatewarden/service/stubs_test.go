package service_test

import (
	"context"
	"errors"
	"sync"

	"github.com/ashvale/gatewarden/internal/gatewarden/service"
	"github.com/ashvale/gatewarden/internal/roblox"
)

// stubResolver resolves from a fixed name -> user table.
type stubResolver struct {
	users map[string]roblox.User
}

func (s stubResolver) ResolveByName(_ context.Context, username string) (roblox.User, error) {
	u, ok := s.users[username]
	if !ok {
		return roblox.User{}, roblox.ErrNotFound
	}
	return u, nil
}

func (s stubResolver) ResolveByID(_ context.Context, userID int64) (roblox.User, error) {
	for _, u := range s.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return roblox.User{}, roblox.ErrNotFound
}

// fixedDirectory returns a static approver set.
type fixedDirectory struct {
	approvers []service.Approver
	err       error
}

func (d fixedDirectory) Approvers(_ context.Context) ([]service.Approver, error) {
	return d.approvers, d.err
}

// recordingMessenger captures deliveries and can fail selected
// recipients.
type recordingMessenger struct {
	mu     sync.Mutex
	sent   map[string]string // recipient id -> text
	failed map[string]bool
}

func newRecordingMessenger(failIDs ...string) *recordingMessenger {
	failed := make(map[string]bool, len(failIDs))
	for _, id := range failIDs {
		failed[id] = true
	}
	return &recordingMessenger{sent: make(map[string]string), failed: failed}
}

func (m *recordingMessenger) SendDirect(_ context.Context, recipientID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed[recipientID] {
		return errors.New("cannot send messages to this user")
	}
	m.sent[recipientID] = text
	return nil
}

func (m *recordingMessenger) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *recordingMessenger) sentTo(recipientID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	text, ok := m.sent[recipientID]
	return text, ok
}
