package services_test

import (
	"context"
	"sync"

	"github.com/pheebyy/carelink/pkg/docstore"
	"github.com/pheebyy/carelink/services/notification-service/models"
	"github.com/pheebyy/carelink/services/notification-service/sender"
)

type removal struct {
	userID, token string
}

type mockStore struct {
	mu            sync.Mutex
	conversations map[string]*docstore.Conversation
	users         map[string]*docstore.User
	convErr       error
	userErrs      map[string]error
	removeErr     error
	removed       []removal
	userReads     []string
}

func (m *mockStore) GetConversation(ctx context.Context, id string) (*docstore.Conversation, error) {
	if m.convErr != nil {
		return nil, m.convErr
	}
	c, ok := m.conversations[id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return c, nil
}

func (m *mockStore) GetUser(ctx context.Context, id string) (*docstore.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userReads = append(m.userReads, id)
	if err := m.userErrs[id]; err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return u, nil
}

func (m *mockStore) RemoveToken(ctx context.Context, userID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removeErr != nil {
		return m.removeErr
	}
	m.removed = append(m.removed, removal{userID: userID, token: token})
	return nil
}

type mockPush struct {
	mu   sync.Mutex
	errs map[string]error
	sent []sender.PushMessage
}

func (m *mockPush) SendPush(ctx context.Context, msg sender.PushMessage) (sender.SendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	if err := m.errs[msg.Token]; err != nil {
		return sender.SendResult{}, err
	}
	return sender.SendResult{MessageID: "projects/carelink/messages/" + msg.Token}, nil
}

func (m *mockPush) tokens() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, s := range m.sent {
		out = append(out, s.Token)
	}
	return out
}

type mockRepo struct {
	saved   []models.NotificationLog
	saveErr error
	logs    []models.NotificationLog
	total   int64
	filter  models.NotificationFilter
}

func (m *mockRepo) SaveLogs(ctx context.Context, logs []models.NotificationLog) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, logs...)
	return nil
}

func (m *mockRepo) GetLogs(ctx context.Context, filter models.NotificationFilter) ([]models.NotificationLog, int64, error) {
	m.filter = filter
	return m.logs, m.total, nil
}

type mockMetrics struct {
	mu     sync.Mutex
	values map[string]float64
}

func (m *mockMetrics) RecordCount(ctx context.Context, name string, dims map[string]string) error {
	return m.RecordValue(ctx, name, 1, dims)
}

func (m *mockMetrics) RecordValue(ctx context.Context, name string, v float64, dims map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = map[string]float64{}
	}
	m.values[name] += v
	return nil
}
