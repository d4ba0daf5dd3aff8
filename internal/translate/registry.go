package translate

import (
	"errors"
	"sync"
)

// Registry hands out one Session per UI session identifier and tears it down
// on logout. Sessions created here are the only translation caches in the
// process; nothing outlives its owner.
type Registry struct {
	provider Provider

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry constructs a registry over the given provider.
func NewRegistry(provider Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("translate: provider is required")
	}
	return &Registry{
		provider: provider,
		sessions: make(map[string]*Session),
	}, nil
}

// Session returns the session for the identifier, creating it on first use.
func (r *Registry) Session(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s
	}
	s, _ := NewSession(r.provider)
	r.sessions[id] = s
	return s
}

// Drop discards the session and its caches.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}
