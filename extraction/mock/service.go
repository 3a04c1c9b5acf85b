package mock

import (
	"context"
	"sync"

	"github.com/poiesic/tabulate/core"
	"github.com/poiesic/tabulate/extraction"
)

// MockService is a test double for extraction.Service.
type MockService struct {
	// InvokeFunc is called by Invoke if set.
	// If nil, returns {"file_key": name, "content": "content of <name>"}.
	InvokeFunc func(ctx context.Context, task core.DocumentTask) (extraction.Payload, error)

	mu    sync.Mutex
	calls []string
}

var _ extraction.Service = (*MockService)(nil)

// NewMockService creates a mock service with default behavior.
func NewMockService() *MockService {
	return &MockService{}
}

// Invoke records the call and returns the injected or default payload.
func (m *MockService) Invoke(ctx context.Context, task core.DocumentTask) (extraction.Payload, error) {
	m.mu.Lock()
	m.calls = append(m.calls, task.FileName)
	fn := m.InvokeFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, task)
	}
	return extraction.Payload{
		"file_key": task.FileName,
		"content":  "content of " + task.FileName,
	}, nil
}

// CallCount returns the number of times Invoke was called.
func (m *MockService) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns the file names Invoke was called with, in call order.
func (m *MockService) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Reset clears recorded calls and the custom function.
func (m *MockService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.InvokeFunc = nil
}

// NewMockServices returns one default mock per modality.
func NewMockServices() (extraction.Services, *MockService, *MockService, *MockService) {
	vision, document, audio := NewMockService(), NewMockService(), NewMockService()
	return extraction.Services{Vision: vision, Document: document, Audio: audio}, vision, document, audio
}
