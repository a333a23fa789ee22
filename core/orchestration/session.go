package orchestration

import "sync"

// Session holds the conversation token handed out by the backend. The first
// token received is kept for every following chat turn until Reset.
type Session struct {
	mu sync.Mutex
	id string
}

func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Assign stores id unless a token is already known. It reports whether id was
// stored.
func (s *Session) Assign(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id != "" || id == "" {
		return false
	}
	s.id = id
	return true
}

// Reset forgets the token and returns the one that was held.
func (s *Session) Reset() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.id
	s.id = ""
	return previous
}
