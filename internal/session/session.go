// Package session keeps the ordered conversation log for one user's
// assistant session.
package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Roles a turn can carry.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a conversation. Immutable once appended.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is an append-only ordered sequence of turns, clearable on
// explicit user action. One session belongs to exactly one user; the mutex
// only guards against the HTTP layer touching a session while a previous
// request is still finishing.
type Session struct {
	id string

	mu    sync.Mutex
	turns []Turn
	now   func() time.Time
}

// New returns an empty session with a fresh identifier.
func New() *Session {
	return &Session{
		id:  uuid.NewString(),
		now: time.Now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// AppendUser appends a user turn. Always succeeds; the log is in-memory.
func (s *Session) AppendUser(content string) {
	s.append(RoleUser, content)
}

// AppendAssistant appends an assistant turn.
func (s *Session) AppendAssistant(content string) {
	s.append(RoleAssistant, content)
}

func (s *Session) append(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, Turn{
		Role:      role,
		Content:   content,
		Timestamp: s.now(),
	})
}

// Turns returns a copy of the turn log in insertion order.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len reports the number of turns.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// Clear drops all turns. The session identifier is kept.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
}

// ExportJSON serializes the full turn history as a JSON array of
// {role, content, timestamp} objects and suggests a download filename
// embedding the current local time. An empty session yields no artifact
// (nil, "", false).
func (s *Session) ExportJSON() ([]byte, string, bool) {
	s.mu.Lock()
	turns := make([]Turn, len(s.turns))
	copy(turns, s.turns)
	now := s.now()
	s.mu.Unlock()

	if len(turns) == 0 {
		return nil, "", false
	}

	data, err := json.MarshalIndent(turns, "", "  ")
	if err != nil {
		// Turn contains only strings and a time.Time; this cannot fail in
		// practice.
		return nil, "", false
	}

	filename := fmt.Sprintf("chat_history_%s.json", now.Format("20060102_150405"))
	return data, filename, true
}
