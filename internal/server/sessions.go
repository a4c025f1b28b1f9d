package server

import (
	"sync"

	"github.com/google/uuid"

	"github.com/csexpert/csexpert/internal/conversation"
)

// maxSessionTurns bounds per-session history so long conversations do not
// grow memory without limit. Older turns are dropped first.
const maxSessionTurns = 40

// session is one conversation's server-side state.
type session struct {
	id string

	mu      sync.Mutex
	history []conversation.Turn
}

// turns returns a copy of the history, oldest first.
func (s *session) turns() []conversation.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]conversation.Turn, len(s.history))
	copy(out, s.history)
	return out
}

// append adds turns, trimming the oldest past the cap.
func (s *session) append(turns ...conversation.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, turns...)
	if n := len(s.history); n > maxSessionTurns {
		s.history = s.history[n-maxSessionTurns:]
	}
}

// sessionStore holds in-memory conversations keyed by session ID. Sessions
// live for the process lifetime.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*session)}
}

// getOrCreate returns the session for id, creating a fresh one with a new
// UUID when id is empty or unknown.
func (st *sessionStore) getOrCreate(id string) *session {
	st.mu.Lock()
	defer st.mu.Unlock()
	if id != "" {
		if s, ok := st.sessions[id]; ok {
			return s
		}
	}
	s := &session{id: uuid.NewString()}
	st.sessions[s.id] = s
	return s
}
