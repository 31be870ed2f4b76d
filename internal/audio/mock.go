package audio

import "sync"

// MockRouter records routing changes for test assertions.
type MockRouter struct {
	mu         sync.Mutex
	mode       Mode
	ringerMode RingerMode
	speaker    bool
	sco        bool
	muted      bool
	calls      []string
}

// NewMockRouter creates a MockRouter in normal mode.
func NewMockRouter() *MockRouter {
	return &MockRouter{}
}

func (m *MockRouter) SetMode(mode Mode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = mode
	m.calls = append(m.calls, "mode="+mode.String())
}

func (m *MockRouter) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// SetRingerMode sets the value returned by RingerMode.
func (m *MockRouter) SetRingerMode(mode RingerMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ringerMode = mode
}

func (m *MockRouter) RingerMode() RingerMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ringerMode
}

func (m *MockRouter) SetSpeaker(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.speaker = on
	if on {
		m.calls = append(m.calls, "speaker=on")
	} else {
		m.calls = append(m.calls, "speaker=off")
	}
}

func (m *MockRouter) SetBluetoothSco(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sco = on
	if on {
		m.calls = append(m.calls, "sco=on")
	} else {
		m.calls = append(m.calls, "sco=off")
	}
}

func (m *MockRouter) SetMuted(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = on
}

func (m *MockRouter) Muted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

// Speaker reports the last speaker state.
func (m *MockRouter) Speaker() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speaker
}

// Sco reports the last Bluetooth SCO state.
func (m *MockRouter) Sco() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sco
}

// Calls returns the ordered history of routing changes.
func (m *MockRouter) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}
