package calllog

import (
	"context"
	"sync"
)

// MockStore records logged calls for test assertions.
type MockStore struct {
	mu      sync.Mutex
	records []Record
	err     error
}

// NewMockStore creates a MockStore.
func NewMockStore() *MockStore {
	return &MockStore{}
}

// SetError makes subsequent Log calls fail with err.
func (m *MockStore) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockStore) Log(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *MockStore) Close() error { return nil }

// Records returns a copy of everything logged so far.
func (m *MockStore) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}
