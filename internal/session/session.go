package session

import (
	"context"
	"fmt"
	"sync"

	"document-gpt/internal/conversation"
	"document-gpt/internal/helper"
)

// Responder answers the pending last turn of a history.
type Responder interface {
	Converse(ctx context.Context, turns []conversation.Turn) []conversation.Turn
}

// Manager holds the in-memory conversation state for the interactive
// front-end. Turns within a session are serialized: a second request on
// the same session waits for the one in flight.
type Manager struct {
	engine Responder

	mu       sync.Mutex
	sessions map[string]*state
}

type state struct {
	mu    sync.Mutex
	turns []conversation.Turn
}

func NewManager(engine Responder) *Manager {
	return &Manager{engine: engine, sessions: make(map[string]*state)}
}

// Converse appends the message as a new pending turn and answers it.
// An empty session id starts a new session; if no id can be generated
// the turn is rejected, it must never land in a shared "" session.
func (m *Manager) Converse(ctx context.Context, sessionID, message string) (string, string, error) {
	if sessionID == "" {
		id, err := helper.GenerateUUID()
		if err != nil {
			return "", "", fmt.Errorf("creating session: %w", err)
		}
		sessionID = id
	}
	s := m.session(sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, conversation.Turn{Query: message})
	s.turns = m.engine.Converse(ctx, s.turns)
	return sessionID, s.turns[len(s.turns)-1].Response, nil
}

// History returns a copy of the session's turns so far.
func (m *Manager) History(sessionID string) []conversation.Turn {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]conversation.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (m *Manager) session(id string) *state {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		s = &state{}
		m.sessions[id] = s
	}
	return s
}

// KeyedMutex serializes work per key. The webhook handler uses it to
// keep concurrent messages from one sender from racing on the persisted
// record.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock locks the mutex for key and returns the unlock function.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
