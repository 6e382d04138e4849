package history

import (
	"sync"
	"time"
)

// ============================================================
// Version History
// ============================================================

// MaxVersions is the per-session sliding window size.
const MaxVersions = 50

// Version is one immutable document snapshot.
type Version struct {
	XML       string
	SVG       string // optional preview image data
	CreatedAt time.Time
}

// Store keeps an append-only, capped list of versions per session.
type Store struct {
	mu       sync.Mutex
	versions map[string][]Version
}

func NewStore() *Store {
	return &Store{
		versions: make(map[string][]Version),
	}
}

// Append records a snapshot. Pushing the same xml as the latest entry is a
// no-op so repeated displays of unchanged state do not pile up. When the
// window overflows the oldest entries are trimmed from the head.
func (s *Store) Append(sessionID, xml, svg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.versions[sessionID]
	if len(list) > 0 && list[len(list)-1].XML == xml {
		return
	}

	list = append(list, Version{XML: xml, SVG: svg, CreatedAt: time.Now()})
	if len(list) > MaxVersions {
		list = list[len(list)-MaxVersions:]
	}
	s.versions[sessionID] = list
}

// Get returns the version at index. Index 0 is the oldest; negative indices
// count back from the newest (-1 = latest). Out of range returns ok=false.
func (s *Store) Get(sessionID string, index int) (Version, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.versions[sessionID]
	if index < 0 {
		index += len(list)
	}
	if index < 0 || index >= len(list) {
		return Version{}, false
	}
	return list[index], true
}

// Count returns the number of stored versions for a session.
func (s *Store) Count(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.versions[sessionID])
}

// Clear drops all versions for a session.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.versions, sessionID)
}
