package http

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/quickchat/quickchat-server/internal/auth"
	"github.com/quickchat/quickchat-server/internal/config"
	"github.com/quickchat/quickchat-server/internal/core"
	"github.com/quickchat/quickchat-server/internal/store"
	"github.com/quickchat/quickchat-server/internal/store/sqlite"
)

// createTestStore creates an in-memory SQLite store.
func createTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return st
}

// createTestAuthService creates an auth service for testing.
func createTestAuthService(t *testing.T, st store.Store, jwtSecret string) *auth.Service {
	t.Helper()

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(jwtSecret),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}

	return auth.NewService(st, jwtConfig)
}

// startTestServer wires the full stack over an in-memory store and serves it
// from an httptest server.
func startTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()

	logger := zerolog.Nop()
	st := createTestStore(t)
	authService := createTestAuthService(t, st, "test-secret-change-me")

	registry := core.NewRegistry()
	broadcaster := core.NewBroadcaster(registry, &logger)
	relay := core.NewRelay(registry, st, &logger)

	server := NewServer(config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
		TokenTTL:          24 * time.Hour,
	}, registry, broadcaster, relay, authService, st, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, st
}

// registerTestUser creates a user through the HTTP API and returns its
// token and user ID.
func registerTestUser(t *testing.T, ts *httptest.Server, username, password string) (token, userID string) {
	t.Helper()

	body, _ := json.Marshal(RegisterRequest{Username: username, Password: password})
	resp, err := ts.Client().Post(ts.URL+"/api/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 201 {
		t.Fatalf("register %s: unexpected status %d", username, resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}

	return authResp.Token, authResp.ID
}
