package store

import (
	"context"
	"sync"

	"github.com/capitalize-ai/companion-chat/internal/model"
)

// MemoryHistory keeps chat turns in process memory. It is used when no
// JetStream server is configured.
type MemoryHistory struct {
	mu       sync.RWMutex
	sessions map[string][]model.ChatTurn
	seq      map[string]uint64
	maxTurns int
}

// NewMemoryHistory creates a history that keeps at most maxTurns per
// session; zero keeps everything.
func NewMemoryHistory(maxTurns int) *MemoryHistory {
	return &MemoryHistory{
		sessions: make(map[string][]model.ChatTurn),
		seq:      make(map[string]uint64),
		maxTurns: maxTurns,
	}
}

// AppendTurn records a turn and returns its per-session sequence number,
// which keeps increasing after older turns are trimmed.
func (m *MemoryHistory) AppendTurn(ctx context.Context, sessionID string, turn model.ChatTurn) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq[sessionID]++
	turn.Sequence = m.seq[sessionID]
	turns := append(m.sessions[sessionID], turn)
	if m.maxTurns > 0 && len(turns) > m.maxTurns {
		turns = turns[len(turns)-m.maxTurns:]
	}
	m.sessions[sessionID] = turns
	return turn.Sequence, nil
}

// RecentTurns returns up to limit most recent turns in chronological order.
// A non-positive limit returns the whole session.
func (m *MemoryHistory) RecentTurns(ctx context.Context, sessionID string, limit int) ([]model.ChatTurn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	turns := m.sessions[sessionID]
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]model.ChatTurn, len(turns))
	copy(out, turns)
	return out, nil
}

// DeleteSession drops every turn of a session.
func (m *MemoryHistory) DeleteSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	delete(m.seq, sessionID)
	return nil
}
