// Command ws_smoke is a non-interactive smoke check: it logs in, opens the
// WebSocket, waits for the presence snapshot, optionally relays one message,
// and exits non-zero on any failure.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/quickchat/quickchat-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	server := flag.String("server", "http://localhost:8080", "server base URL")
	user := flag.String("user", "smoke-user", "username")
	password := flag.String("password", "password123", "password")
	to := flag.String("to", "", "optional recipient user ID to relay one message to")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	token, userID, err := login(ctx, *server, *user, *password)
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s (%s)\n", *user, userID)

	wsURL := strings.Replace(*server, "http", "ws", 1) + "/ws"
	headers := http.Header{}
	headers.Set("Cookie", "token="+token)

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{HTTPHeader: headers})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	// The server pushes the presence snapshot on connect.
	_, data, err := conn.Read(ctx)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	frame, err := proto.DecodeOutbound(data)
	if err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	pf, ok := frame.(proto.PresenceFrame)
	if !ok {
		return fmt.Errorf("expected presence snapshot, got %T", frame)
	}
	fmt.Printf("Online users: %d\n", len(pf.Online))

	if *to == "" {
		return nil
	}

	if err := wsjson.Write(ctx, conn, proto.SendRequest{Recipient: *to, Text: *text}); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	fmt.Printf("Relayed %q to %s\n", *text, *to)
	return nil
}

// login authenticates against the HTTP API, registering the user first if
// the account does not exist yet.
func login(ctx context.Context, server, user, password string) (token, userID string, err error) {
	for _, path := range []string{"/api/login", "/api/register"} {
		body, _ := json.Marshal(map[string]string{"username": user, "password": password})
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, server+path, bytes.NewReader(body))
		if reqErr != nil {
			return "", "", reqErr
		}
		req.Header.Set("Content-Type", "application/json")

		resp, respErr := http.DefaultClient.Do(req)
		if respErr != nil {
			return "", "", respErr
		}

		var auth struct {
			Token string `json:"token"`
			ID    string `json:"id"`
		}
		decodeErr := json.NewDecoder(resp.Body).Decode(&auth)
		resp.Body.Close()

		if resp.StatusCode < 300 && decodeErr == nil && auth.Token != "" {
			return auth.Token, auth.ID, nil
		}
	}
	return "", "", errors.New("login and register both failed")
}
