package source

import (
	"context"
	"sync"

	"github.com/Veraticus/posko/internal/model"
)

// MockFetcher is a canned pipeline.Fetcher for tests.
type MockFetcher struct {
	FetchFunc  func(ctx context.Context, src model.Source) (model.RawSheet, error)
	Sheets     map[string]model.RawSheet
	Errors     map[string]error
	FetchCalls []string
	mu         sync.Mutex
}

// NewMockFetcher creates a mock that serves sheets by source ID.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		Sheets: make(map[string]model.RawSheet),
		Errors: make(map[string]error),
	}
}

// Fetch implements pipeline.Fetcher.
func (m *MockFetcher) Fetch(ctx context.Context, src model.Source) (model.RawSheet, error) {
	m.mu.Lock()
	m.FetchCalls = append(m.FetchCalls, src.ID)
	fn := m.FetchFunc
	sheet, err := m.Sheets[src.ID], m.Errors[src.ID]
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, src)
	}
	return sheet, err
}

// Calls returns the source IDs fetched so far.
func (m *MockFetcher) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.FetchCalls...)
}

// Reset clears all recorded calls.
func (m *MockFetcher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchCalls = nil
}
