// Package history provides the process-local chat history store.
//
// History is an append-only, per-user sequence of role-tagged messages.
// State lives in memory only and is lost on restart; durability is out of
// scope for this service.
package history

import "sync"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single role-tagged chat message. Immutable once created.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Store maps a user identifier to an ordered message sequence.
//
// Store is safe for concurrent use by multiple goroutines: concurrent
// appends for the same user never lose entries. Each user's sequence is
// capped; appending beyond the cap evicts the oldest entries.
type Store struct {
	mu     sync.RWMutex
	byUser map[string][]Message
	cap    int
}

// DefaultCap is the per-user message cap used when NewStore receives a
// non-positive value.
const DefaultCap = 200

// NewStore creates a history store with the given per-user capacity.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	return &Store{
		byUser: make(map[string][]Message),
		cap:    capacity,
	}
}

// Get returns a copy of the user's messages, oldest first.
// Unknown users yield an empty slice; Get never fails.
func (s *Store) Get(userID string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.byUser[userID]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// Append adds a message to the user's sequence, creating it on first use.
// When the sequence exceeds the capacity, the oldest entries are dropped.
func (s *Store) Append(userID, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := append(s.byUser[userID], Message{Role: role, Content: content})
	if len(msgs) > s.cap {
		// Re-slice from a fresh allocation so evicted entries can be
		// garbage collected.
		trimmed := make([]Message, s.cap)
		copy(trimmed, msgs[len(msgs)-s.cap:])
		msgs = trimmed
	}
	s.byUser[userID] = msgs
}

// Len returns the number of messages stored for the user.
func (s *Store) Len(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byUser[userID])
}
