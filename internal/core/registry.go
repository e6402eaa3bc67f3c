package core

import (
	"iter"
	"sort"
	"sync"
)

// Registry is the live-session table: connection ID to Session, plus a
// per-user index for recipient lookup. Membership here is the sole source of
// truth for "is this user online". It is the one structure mutated from every
// connection goroutine, so all access goes through a single RWMutex.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	byUser   map[string]map[string]*Session
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		byUser:   make(map[string]map[string]*Session),
	}
}

// Register inserts an authenticated session. Returns ErrDuplicateConnection
// if the connection ID is already present. Broadcasting is the caller's job.
func (r *Registry) Register(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.ID]; exists {
		return ErrDuplicateConnection
	}
	r.sessions[s.ID] = s

	userSessions := r.byUser[s.Identity.UserID]
	if userSessions == nil {
		userSessions = make(map[string]*Session)
		r.byUser[s.Identity.UserID] = userSessions
	}
	userSessions[s.ID] = s
	return nil
}

// Deregister removes the session if present. Removing an unknown connection
// ID is a no-op so abrupt-disconnect cleanup stays idempotent.
func (r *Registry) Deregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.sessions[connID]
	if !exists {
		return
	}
	delete(r.sessions, connID)

	userSessions := r.byUser[s.Identity.UserID]
	delete(userSessions, connID)
	if len(userSessions) == 0 {
		delete(r.byUser, s.Identity.UserID)
	}
}

// Session returns the session registered under connID, or nil.
func (r *Registry) Session(connID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[connID]
}

// SessionsFor returns every live session belonging to userID. A user with no
// sessions yields an empty slice, not an error.
func (r *Registry) SessionsFor(userID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userSessions := r.byUser[userID]
	out := make([]*Session, 0, len(userSessions))
	for _, s := range userSessions {
		out = append(out, s)
	}
	return out
}

// Sessions returns a snapshot of all live sessions.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Identities returns a restartable sequence of the currently online
// identities, one per user regardless of how many sessions that user has.
// Each iteration takes a fresh snapshot; the lock is not held while yielding.
func (r *Registry) Identities() iter.Seq[Identity] {
	return func(yield func(Identity) bool) {
		r.mu.RLock()
		online := make([]Identity, 0, len(r.byUser))
		for _, userSessions := range r.byUser {
			for _, s := range userSessions {
				online = append(online, s.Identity)
				break
			}
		}
		r.mu.RUnlock()

		sort.Slice(online, func(i, j int) bool {
			return online[i].Username < online[j].Username
		})

		for _, id := range online {
			if !yield(id) {
				return
			}
		}
	}
}
