package registry

import "sync"

type (
	// Channel is the write side of one live client connection. A channel may
	// close at any moment; callers treat a failed Send as the peer having gone
	// away, never as a fault.
	Channel interface {
		Send(v any) error
		Close() error
	}

	// Registry maps a user identity to at most one live channel. It is the
	// single source of truth for "is this user online" and the only shared
	// mutable structure in the relay.
	Registry struct {
		mu       sync.Mutex
		sessions map[string]Channel
	}
)

func New() *Registry {
	return &Registry{
		sessions: make(map[string]Channel),
	}
}

// Register installs ch as the user's only live channel. A previously
// registered channel is evicted and closed; the evicted side sees nothing
// beyond the closure.
func (r *Registry) Register(userID string, ch Channel) {
	r.mu.Lock()
	prev := r.sessions[userID]
	r.sessions[userID] = ch
	r.mu.Unlock()

	if prev != nil && prev != ch {
		prev.Close()
	}
}

// Unregister removes the user's session only if ch is still the installed
// channel, so a stale disconnect cannot evict a newer session.
func (r *Registry) Unregister(userID string, ch Channel) {
	r.mu.Lock()
	if r.sessions[userID] == ch {
		delete(r.sessions, userID)
	}
	r.mu.Unlock()
}

// Lookup returns the user's live channel, if any. The channel may close
// between lookup and use; write sites must tolerate that.
func (r *Registry) Lookup(userID string) (Channel, bool) {
	r.mu.Lock()
	ch, ok := r.sessions[userID]
	r.mu.Unlock()
	return ch, ok
}

// Shutdown closes every registered channel and empties the registry.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]Channel)
	r.mu.Unlock()

	for _, ch := range sessions {
		ch.Close()
	}
}
