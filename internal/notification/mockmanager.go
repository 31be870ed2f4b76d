package notification

import (
	"context"
	"sync"
)

// MockManager records notification calls for test assertions.
type MockManager struct {
	mu          sync.Mutex
	missed      []MissedCall
	mwi         []bool
	cfi         []bool
	speaker     []bool
	mute        []bool
	displayInfo []string
	cleared     int
}

// NewMockManager creates a MockManager.
func NewMockManager() *MockManager {
	return &MockManager{}
}

func (m *MockManager) NotifyMissedCall(_ context.Context, mc MissedCall) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.missed = append(m.missed, mc)
	return nil
}

func (m *MockManager) UpdateMessageWaiting(_ context.Context, on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mwi = append(m.mwi, on)
	return nil
}

func (m *MockManager) UpdateCallForwarding(_ context.Context, on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfi = append(m.cfi, on)
	return nil
}

func (m *MockManager) UpdateSpeaker(_ context.Context, on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.speaker = append(m.speaker, on)
	return nil
}

func (m *MockManager) UpdateMute(_ context.Context, on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mute = append(m.mute, on)
	return nil
}

func (m *MockManager) ShowDisplayInfo(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.displayInfo = append(m.displayInfo, text)
	return nil
}

func (m *MockManager) ClearDisplayInfo(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared++
	return nil
}

// MissedCalls returns every missed-call notification raised.
func (m *MockManager) MissedCalls() []MissedCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MissedCall, len(m.missed))
	copy(out, m.missed)
	return out
}

// MWI returns the MWI update history.
func (m *MockManager) MWI() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]bool, len(m.mwi))
	copy(out, m.mwi)
	return out
}

// CFI returns the CFI update history.
func (m *MockManager) CFI() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]bool, len(m.cfi))
	copy(out, m.cfi)
	return out
}

// Mute returns the mute indicator update history.
func (m *MockManager) Mute() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]bool, len(m.mute))
	copy(out, m.mute)
	return out
}

// Speaker returns the speaker indicator update history.
func (m *MockManager) Speaker() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]bool, len(m.speaker))
	copy(out, m.speaker)
	return out
}

// DisplayInfos returns every display-info text shown.
func (m *MockManager) DisplayInfos() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.displayInfo))
	copy(out, m.displayInfo)
	return out
}

// ClearedDisplayInfo returns how many times the display record was cleared.
func (m *MockManager) ClearedDisplayInfo() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cleared
}
