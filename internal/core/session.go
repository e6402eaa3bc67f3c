package core

// sessionBuffer is the outbound event backlog per session. A session that
// falls further behind starts losing frames instead of blocking senders.
const sessionBuffer = 16

// Session is one authenticated live connection. It is created by the
// transport after token verification and owned by the Registry until the
// connection closes.
type Session struct {
	ID       string
	Identity Identity
	Events   chan *Event
}

// NewSession constructs a session with an initialized event channel.
func NewSession(id string, identity Identity) *Session {
	return &Session{
		ID:       id,
		Identity: identity,
		Events:   make(chan *Event, sessionBuffer),
	}
}

// TryPush enqueues an event without blocking. Returns false if the session's
// buffer is full; the frame is dropped and the connection's own close
// detection is left to reap a dead peer.
func (s *Session) TryPush(event *Event) bool {
	select {
	case s.Events <- event:
		return true
	default:
		return false
	}
}
