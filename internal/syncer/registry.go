package syncer

import (
	"net"
	"strings"
	"sync"
)

// Registry owns the mapping from normalized device network address to live
// session. It enforces the invariant that at most one session exists per
// address: a second Hello from an address with a live session is a
// reconnect and reuses the existing controller instead of creating a
// duplicate.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Get returns the live session for addr, if any.
func (r *Registry) Get(addr string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[NormalizeAddr(addr)]
	return s, ok
}

// Resolve returns the live session for addr, creating one with the given
// constructor on first use. The second return value reports whether a new
// session was created.
func (r *Registry) Resolve(addr string, create func(normalizedAddr string) *Session) (*Session, bool) {
	key := NormalizeAddr(addr)

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[key]; ok {
		return s, false
	}

	s := create(key)
	r.sessions[key] = s
	return s, true
}

// Remove tears down the session for addr.
func (r *Registry) Remove(addr string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, NormalizeAddr(addr))
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

// Sessions returns the live sessions in no particular order.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// NormalizeAddr reduces a remote address to its session key: the host part,
// lowercased. Devices reconnect from ephemeral ports, so the port cannot
// participate in session identity.
func NormalizeAddr(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	return strings.ToLower(host)
}
