package mock

import (
	"context"
	"sync"

	"github.com/poiesic/tabulate/core"
	"github.com/poiesic/tabulate/extraction"
)

// MockAttributeExtractor is a test double for extraction.AttributeExtractor.
type MockAttributeExtractor struct {
	// ExtractAttributesFunc is called by ExtractAttributes if set.
	// If nil, answers every attribute with "<attribute> of <file>".
	ExtractAttributesFunc func(ctx context.Context, req extraction.AggregateRequest) (*extraction.AggregateResult, error)

	mu       sync.Mutex
	requests []extraction.AggregateRequest
}

var _ extraction.AttributeExtractor = (*MockAttributeExtractor)(nil)

// NewMockAttributeExtractor creates a mock with default behavior.
func NewMockAttributeExtractor() *MockAttributeExtractor {
	return &MockAttributeExtractor{}
}

// ExtractAttributes records the request and returns the injected or default result.
func (m *MockAttributeExtractor) ExtractAttributes(ctx context.Context, req extraction.AggregateRequest) (*extraction.AggregateResult, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	fn := m.ExtractAttributesFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return DefaultAggregateResult(req), nil
}

// DefaultAggregateResult answers every attribute for every document.
func DefaultAggregateResult(req extraction.AggregateRequest) *extraction.AggregateResult {
	result := &extraction.AggregateResult{}
	for _, doc := range req.Documents {
		answer := make(map[string]any, len(req.Attributes))
		for _, attr := range req.Attributes {
			answer[attr.Name] = attr.Name + " of " + doc.FileName
		}
		result.Documents = append(result.Documents, core.DocumentAttributes{
			FileName: doc.FileName,
			Answer:   answer,
		})
	}
	return result
}

// CallCount returns the number of times ExtractAttributes was called.
func (m *MockAttributeExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// LastRequest returns the most recent request, or false if there was none.
func (m *MockAttributeExtractor) LastRequest() (extraction.AggregateRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return extraction.AggregateRequest{}, false
	}
	return m.requests[len(m.requests)-1], true
}

// Reset clears recorded requests and the custom function.
func (m *MockAttributeExtractor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.ExtractAttributesFunc = nil
}
