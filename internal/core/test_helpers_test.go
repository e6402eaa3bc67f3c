package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/quickchat/quickchat-server/internal/store"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// memStore is an in-memory store.MessageStore for relay tests.
type memStore struct {
	mu       sync.Mutex
	messages []*store.Message
}

func (m *memStore) SaveMessage(_ context.Context, msg *store.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := *msg
	m.messages = append(m.messages, &saved)
	return nil
}

func (m *memStore) ListConversation(_ context.Context, userA, userB string) ([]*store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*store.Message, 0)
	for _, msg := range m.messages {
		if (msg.SenderID == userA && msg.RecipientID == userB) ||
			(msg.SenderID == userB && msg.RecipientID == userA) {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// failStore always fails SaveMessage, simulating an unavailable store.
type failStore struct{}

func (failStore) SaveMessage(context.Context, *store.Message) error {
	return errors.New("disk on fire")
}

func (failStore) ListConversation(context.Context, string, string) ([]*store.Message, error) {
	return nil, errors.New("disk on fire")
}

func mustEvent(t *testing.T, events chan *Event, kind EventKind) *Event {
	t.Helper()

	select {
	case ev := <-events:
		if ev.Kind != kind {
			t.Fatalf("expected event kind %d, got %d: %+v", kind, ev.Kind, ev)
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event kind %d", kind)
		return nil
	}
}

func mustNoEvent(t *testing.T, events chan *Event) {
	t.Helper()

	select {
	case ev := <-events:
		t.Fatalf("expected no event, got %+v", ev)
	default:
	}
}
