// Command ws_chat is a small interactive client for manual testing: it logs
// in over HTTP, opens the WebSocket with the token cookie, prints presence
// and deliveries, and sends typed lines to the chosen recipient.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/quickchat/quickchat-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	server := flag.String("server", "http://localhost:8080", "server base URL")
	user := flag.String("user", "cli-user", "username")
	password := flag.String("password", "password123", "password")
	to := flag.String("to", "", "recipient user ID (switch later with /to <id>)")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
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

	fmt.Println("Type messages and press Enter to send. /to <user-id> switches recipient. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn, *to)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
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
			Token    string `json:"token"`
			ID       string `json:"id"`
			Username string `json:"username"`
		}
		decodeErr := json.NewDecoder(resp.Body).Decode(&auth)
		resp.Body.Close()

		if resp.StatusCode < 300 && decodeErr == nil && auth.Token != "" {
			return auth.Token, auth.ID, nil
		}
	}
	return "", "", errors.New("login and register both failed")
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		frame, err := proto.DecodeOutbound(data)
		if err != nil {
			log.Printf("decode frame: %v", err)
			continue
		}

		switch f := frame.(type) {
		case proto.PresenceFrame:
			names := make([]string, 0, len(f.Online))
			for _, u := range f.Online {
				names = append(names, fmt.Sprintf("%s (%s)", u.Username, u.ID))
			}
			fmt.Printf("online: %s\n", strings.Join(names, ", "))
		case proto.DeliveryFrame:
			fmt.Printf("[%s] %s\n", f.Sender, f.Text)
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, recipient string) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			if rest, found := strings.CutPrefix(text, "/to "); found {
				recipient = strings.TrimSpace(rest)
				fmt.Printf("recipient set to %s\n", recipient)
				continue
			}
			if recipient == "" {
				fmt.Println("no recipient set; use /to <user-id>")
				continue
			}

			if err := wsjson.Write(ctx, conn, proto.SendRequest{Recipient: recipient, Text: text}); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
