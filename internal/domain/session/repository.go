package session

import (
	"sync"

	"github.com/google/uuid"
)

// Repository tracks live sessions. There is no persistence: a session
// exists only for the lifetime of the process, and in practice only one
// is live per browser tab.
type Repository interface {
	// Create registers a new session.
	Create(s *Session)

	// Get retrieves a session by ID. Returns ErrNotFound if absent or
	// already closed.
	Get(id uuid.UUID) (*Session, error)

	// Delete closes and forgets a session. Closing first means model
	// calls still in flight see Closed() and drop their result.
	Delete(id uuid.UUID)
}

type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[uuid.UUID]*Session)}
}

func (r *MemoryRepository) Create(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

func (r *MemoryRepository) Get(id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok || s.Closed() {
		return nil, ErrNotFound
	}
	return s, nil
}

func (r *MemoryRepository) Delete(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.Close()
		delete(r.sessions, id)
	}
}
