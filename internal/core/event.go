package core

// EventKind is a notification the core emits to sessions.
type EventKind int

const (
	// EventPresence carries the current online-user snapshot.
	EventPresence EventKind = iota
	// EventDelivery carries a message relayed to this session's user.
	EventDelivery
)

// Event is sent to sessions to describe what happened in the system.
type Event struct {
	Kind    EventKind
	Online  []Identity // EventPresence
	Message Message    // EventDelivery
}
