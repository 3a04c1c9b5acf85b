package mock

import (
	"context"
	"sync"

	"github.com/poiesic/tabulate/core"
	"github.com/poiesic/tabulate/extraction"
)

// MockExtractor is a test double for extraction.Extractor.
type MockExtractor struct {
	// ExtractFunc is called by Extract if set.
	// If nil, returns {"content": "content of <name>"} for every modality.
	ExtractFunc func(ctx context.Context, modality core.Modality, task core.DocumentTask) (extraction.Payload, error)

	mu     sync.Mutex
	counts map[string]int
}

var _ extraction.Extractor = (*MockExtractor)(nil)

// NewMockExtractor creates a mock extractor with default behavior.
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{counts: make(map[string]int)}
}

// Extract records the call and returns the injected or default payload.
func (m *MockExtractor) Extract(ctx context.Context, modality core.Modality, task core.DocumentTask) (extraction.Payload, error) {
	m.mu.Lock()
	if m.counts == nil {
		m.counts = make(map[string]int)
	}
	m.counts[task.FileName]++
	fn := m.ExtractFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, modality, task)
	}
	return extraction.Payload{"content": "content of " + task.FileName}, nil
}

// CallCount returns the number of Extract calls for fileName.
func (m *MockExtractor) CallCount(fileName string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[fileName]
}

// TotalCalls returns the number of Extract calls across all files.
func (m *MockExtractor) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.counts {
		total += n
	}
	return total
}

// Reset clears recorded calls and the custom function.
func (m *MockExtractor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts = make(map[string]int)
	m.ExtractFunc = nil
}
