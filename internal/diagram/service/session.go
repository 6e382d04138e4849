package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ============================================================
// Session Manager
// ============================================================

// State is the latest diagram pushed to or pulled from the preview channel
// for one session.
type State struct {
	XML       string
	SVG       string
	UpdatedAt time.Time
}

type SessionManager struct {
	mu     sync.Mutex
	states map[string]State // sessionID -> latest state
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		states: make(map[string]State),
	}
}

// Start mints a new session id and registers an empty state for it.
func (m *SessionManager) Start() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := "mcp-" + uuid.NewString()
	m.states[id] = State{}
	return id
}

func (m *SessionManager) Get(sessionID string) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.states[sessionID]
	return state, ok
}

// Set stores the current state for a session. The browser side posts with
// ids it got from the page URL, so unknown sessions are created on the fly.
func (m *SessionManager) Set(sessionID, xml, svg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[sessionID] = State{XML: xml, SVG: svg, UpdatedAt: time.Now()}
}

func (m *SessionManager) Clear(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, sessionID)
}
