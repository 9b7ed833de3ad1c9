package api

import (
	"context"
	"sync"
)

// MockClient is a mock implementation of ChatClientInterface for testing
type MockClient struct {
	// Mock return values
	SendVal   string
	SendErr   error
	HealthErr error
	URL       string

	// SendFunc, when set, takes precedence over SendVal/SendErr
	SendFunc func(ctx context.Context, message string) (string, error)

	// Call recorders
	mu          sync.Mutex
	Messages    []string
	HealthCalls int
	CloseCalled bool
}

// Ensure MockClient implements ChatClientInterface
var _ ChatClientInterface = (*MockClient)(nil)

func (m *MockClient) Send(ctx context.Context, message string) (string, error) {
	m.mu.Lock()
	m.Messages = append(m.Messages, message)
	fn := m.SendFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, message)
	}
	return m.SendVal, m.SendErr
}

func (m *MockClient) Health(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HealthCalls++
	return m.HealthErr
}

func (m *MockClient) BaseURL() string {
	if m.URL == "" {
		return "http://mock"
	}
	return m.URL
}

func (m *MockClient) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
}

// SentMessages returns a copy of every message passed to Send
func (m *MockClient) SentMessages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Messages))
	copy(out, m.Messages)
	return out
}
