package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/quickchat/quickchat-server/internal/store"
)

func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func TestRegisterLoginAndProfile(t *testing.T) {
	ts, _ := startTestServer(t)

	token, userID := registerTestUser(t, ts, "alice", "password123")
	if token == "" || userID == "" {
		t.Fatalf("expected token and user id")
	}

	// Duplicate registration conflicts.
	resp := doJSON(t, ts, http.MethodPost, "/api/register", "", RegisterRequest{Username: "alice", Password: "password123"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate username, got %d", resp.StatusCode)
	}

	// Wrong password is rejected.
	resp = doJSON(t, ts, http.MethodPost, "/api/login", "", LoginRequest{Username: "alice", Password: "wrong"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad credentials, got %d", resp.StatusCode)
	}

	// Profile requires and honors the token.
	resp = doJSON(t, ts, http.MethodGet, "/api/profile", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp = doJSON(t, ts, http.MethodGet, "/api/profile", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", resp.StatusCode)
	}
	var profile struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.ID != userID || profile.Username != "alice" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestListPeople(t *testing.T) {
	ts, _ := startTestServer(t)

	token, _ := registerTestUser(t, ts, "alice", "password123")
	registerTestUser(t, ts, "bob", "password123")

	resp := doJSON(t, ts, http.MethodGet, "/api/people", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var people []UserResponse
	if err := json.NewDecoder(resp.Body).Decode(&people); err != nil {
		t.Fatalf("decode people: %v", err)
	}
	if len(people) != 2 || people[0].Username != "alice" || people[1].Username != "bob" {
		t.Fatalf("unexpected people list: %+v", people)
	}
}

func TestMessageHistory(t *testing.T) {
	ts, st := startTestServer(t)

	aliceToken, aliceID := registerTestUser(t, ts, "alice", "password123")
	_, bobID := registerTestUser(t, ts, "bob", "password123")

	// Seed a conversation directly through the store.
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, m := range []struct{ from, to, text string }{
		{aliceID, bobID, "hi bob"},
		{bobID, aliceID, "hi alice"},
	} {
		err := st.SaveMessage(context.Background(), &store.Message{
			ID:          uuid.NewString(),
			SenderID:    m.from,
			RecipientID: m.to,
			Text:        m.text,
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}

	resp := doJSON(t, ts, http.MethodGet, "/api/messages/"+bobID, aliceToken, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var history []MessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 2 || history[0].Text != "hi bob" || history[1].Text != "hi alice" {
		t.Fatalf("unexpected history: %+v", history)
	}

	// A malformed peer reference is rejected before hitting the store.
	resp = doJSON(t, ts, http.MethodGet, "/api/messages/not-a-uuid", aliceToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed user id, got %d", resp.StatusCode)
	}
}
