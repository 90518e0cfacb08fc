package player

import "sync"

// Mock is a test double for Engine.
type Mock struct {
	mu          sync.Mutex
	state       State
	volume      int
	playCalls   []string
	volumeCalls []int
}

// NewMock creates a new mock engine for testing.
func NewMock() *Mock {
	return &Mock{state: Idle, volume: MaxVolume}
}

func (m *Mock) Play(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playCalls = append(m.playCalls, url)
	m.state = Playing
}

func (m *Mock) SetVolume(level int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	level = ClampVolume(level)
	m.volumeCalls = append(m.volumeCalls, level)
	m.volume = level
}

func (m *Mock) Volume() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *Mock) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Test helpers

func (m *Mock) SetState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

func (m *Mock) PlayCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.playCalls...)
}

func (m *Mock) VolumeCalls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.volumeCalls...)
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
