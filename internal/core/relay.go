package core

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quickchat/quickchat-server/internal/store"
)

// maxMessageRunes is the longest accepted message text after trimming.
const maxMessageRunes = 1000

// Relay validates and routes one direct message: persist first, then push a
// delivery event to every live session of the recipient. Persistence and push
// are deliberately not transactional; a message stored but never pushed is
// picked up from history.
type Relay struct {
	registry *Registry
	messages store.MessageStore
	log      *zerolog.Logger
}

// NewRelay builds a relay over the registry and message store.
func NewRelay(registry *Registry, messages store.MessageStore, logger *zerolog.Logger) *Relay {
	return &Relay{
		registry: registry,
		messages: messages,
		log:      logger,
	}
}

// Send relays text from the session registered under senderConnID to
// recipientID. All validation happens before persistence. On success the
// stored message is returned; live push to the recipient's sessions is
// best-effort and never fails the relay.
func (r *Relay) Send(ctx context.Context, senderConnID, recipientID, text string) (*Message, error) {
	sender := r.registry.Session(senderConnID)
	if sender == nil {
		return nil, ErrUnauthenticated
	}

	if _, err := uuid.Parse(recipientID); err != nil {
		return nil, ErrInvalidRecipient
	}

	text = strings.TrimSpace(text)
	if length := utf8.RuneCountInString(text); length == 0 || length > maxMessageRunes {
		return nil, ErrInvalidMessage
	}

	msg := Message{
		ID:          uuid.NewString(),
		SenderID:    sender.Identity.UserID,
		RecipientID: recipientID,
		Text:        text,
		CreatedAt:   time.Now().UTC(),
	}

	if err := r.messages.SaveMessage(ctx, &store.Message{
		ID:          msg.ID,
		SenderID:    msg.SenderID,
		RecipientID: msg.RecipientID,
		Text:        msg.Text,
		CreatedAt:   msg.CreatedAt,
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	event := &Event{Kind: EventDelivery, Message: msg}
	for _, s := range r.registry.SessionsFor(recipientID) {
		if !s.TryPush(event) {
			r.log.Warn().
				Str("conn_id", s.ID).
				Str("message_id", msg.ID).
				Msg("delivery frame dropped, session backlogged")
		}
	}

	return &msg, nil
}
