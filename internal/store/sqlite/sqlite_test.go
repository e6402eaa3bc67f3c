package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/quickchat/quickchat-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateAndLookupUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, "alice", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := uuid.Parse(created.ID); err != nil {
		t.Fatalf("expected uuid user id, got %q", created.ID)
	}

	byName, err := s.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if byName.ID != created.ID || byName.PasswordHash != "hash" {
		t.Fatalf("unexpected user: %+v", byName)
	}

	if _, err := s.CreateUser(ctx, "alice", "otherhash"); err == nil {
		t.Fatalf("expected unique constraint violation for duplicate username")
	}

	if _, err := s.GetUserByUsername(ctx, "nobody"); err == nil {
		t.Fatalf("expected error for unknown username")
	}
}

func TestListUsersOrderedByUsername(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"charlie", "alice", "bob"} {
		if _, err := s.CreateUser(ctx, name, "hash"); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}

	got := make([]string, 0, len(users))
	for _, u := range users {
		got = append(got, u.Username)
	}
	want := []string{"alice", "bob", "charlie"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestConversationCoversBothDirectionsAscending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice, err := s.CreateUser(ctx, "alice", "hash")
	if err != nil {
		t.Fatalf("create alice: %v", err)
	}
	bob, err := s.CreateUser(ctx, "bob", "hash")
	if err != nil {
		t.Fatalf("create bob: %v", err)
	}
	carol, err := s.CreateUser(ctx, "carol", "hash")
	if err != nil {
		t.Fatalf("create carol: %v", err)
	}

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seed := []struct {
		from, to, text string
		at             time.Time
	}{
		{alice.ID, bob.ID, "first", base},
		{bob.ID, alice.ID, "second", base.Add(time.Second)},
		{alice.ID, carol.ID, "unrelated", base.Add(2 * time.Second)},
		{alice.ID, bob.ID, "third", base.Add(3 * time.Second)},
	}
	for _, m := range seed {
		err := s.SaveMessage(ctx, &store.Message{
			ID:          uuid.NewString(),
			SenderID:    m.from,
			RecipientID: m.to,
			Text:        m.text,
			CreatedAt:   m.at,
		})
		if err != nil {
			t.Fatalf("save %q: %v", m.text, err)
		}
	}

	// Same conversation regardless of argument order.
	for _, pair := range [][2]string{{alice.ID, bob.ID}, {bob.ID, alice.ID}} {
		messages, err := s.ListConversation(ctx, pair[0], pair[1])
		if err != nil {
			t.Fatalf("list conversation: %v", err)
		}

		got := make([]string, 0, len(messages))
		for _, m := range messages {
			got = append(got, m.Text)
		}
		want := []string{"first", "second", "third"}
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, got)
			}
		}
	}
}
