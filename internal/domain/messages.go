package domain

import "sync"

// MessageStore maps message identities to their records. Records are never
// replaced: the first insert for an identity wins.
type MessageStore struct {
	mu       sync.RWMutex
	messages map[MessageID]Message
}

func NewMessageStore() *MessageStore {
	return &MessageStore{
		messages: make(map[MessageID]Message),
	}
}

// Insert stores msg unless its identity is already present. It reports
// whether the record was added.
func (s *MessageStore) Insert(msg Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.messages[msg.ID]; exists {
		return false
	}
	s.messages[msg.ID] = msg
	return true
}

// Get returns the record for id. A missing id is reported through ok.
func (s *MessageStore) Get(id MessageID) (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.messages[id]
	return msg, ok
}

func (s *MessageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// All returns every stored record in no particular order.
func (s *MessageStore) All() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := make([]Message, 0, len(s.messages))
	for _, msg := range s.messages {
		msgs = append(msgs, msg)
	}
	return msgs
}
