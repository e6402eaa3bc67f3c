package core

import (
	"slices"

	"github.com/rs/zerolog"
)

// Broadcaster pushes the online-user snapshot to every live session whenever
// registry membership changes. The lifecycle handler calls Broadcast once per
// register and once per deregister.
type Broadcaster struct {
	registry *Registry
	log      *zerolog.Logger
}

// NewBroadcaster builds a broadcaster over the given registry.
func NewBroadcaster(registry *Registry, logger *zerolog.Logger) *Broadcaster {
	return &Broadcaster{registry: registry, log: logger}
}

// Broadcast computes the current presence snapshot and fans it out to all
// sessions, including whichever session just joined. Delivery is best-effort:
// a session that cannot accept the frame is skipped and left for its own
// close detection; nothing is surfaced to the caller.
func (b *Broadcaster) Broadcast() {
	online := slices.Collect(b.registry.Identities())
	event := &Event{Kind: EventPresence, Online: online}

	for _, s := range b.registry.Sessions() {
		if !s.TryPush(event) {
			b.log.Warn().
				Str("conn_id", s.ID).
				Str("user_id", s.Identity.UserID).
				Msg("presence frame dropped, session backlogged")
		}
	}
}
