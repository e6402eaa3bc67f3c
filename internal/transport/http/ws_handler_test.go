package http

import (
	"context"
	stdhttp "net/http"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/quickchat/quickchat-server/internal/proto"
)

func wsURL(ts string) string {
	return strings.Replace(ts, "http", "ws", 1) + "/ws"
}

func dialWS(t *testing.T, ctx context.Context, url, token string) *websocket.Conn {
	t.Helper()

	headers := stdhttp.Header{}
	if token != "" {
		headers.Set("Cookie", TokenCookieName+"="+token)
	}
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: headers})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func readFrame(t *testing.T, ctx context.Context, conn *websocket.Conn) proto.Outbound {
	t.Helper()

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	frame, err := proto.DecodeOutbound(data)
	if err != nil {
		t.Fatalf("decode frame %s: %v", data, err)
	}
	return frame
}

func readPresence(t *testing.T, ctx context.Context, conn *websocket.Conn) proto.PresenceFrame {
	t.Helper()

	frame := readFrame(t, ctx, conn)
	pf, ok := frame.(proto.PresenceFrame)
	if !ok {
		t.Fatalf("expected presence frame, got %T: %+v", frame, frame)
	}
	return pf
}

func onlineNames(pf proto.PresenceFrame) []string {
	names := make([]string, 0, len(pf.Online))
	for _, u := range pf.Online {
		names = append(names, u.Username)
	}
	return names
}

func TestWebSocketRejectsMissingAndBadTokens(t *testing.T) {
	ts, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for name, token := range map[string]string{
		"missing token": "",
		"garbage token": "not-a-jwt",
	} {
		conn := dialWS(t, ctx, wsURL(ts.URL), token)

		_, _, err := conn.Read(ctx)
		if err == nil {
			t.Fatalf("%s: expected the server to close the connection", name)
		}
		if status := websocket.CloseStatus(err); status != websocket.StatusPolicyViolation {
			t.Fatalf("%s: expected policy violation close, got %v (%v)", name, status, err)
		}
	}
}

func TestWebSocketMalformedFrameDoesNotKillConnection(t *testing.T) {
	ts, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	aliceToken, _ := registerTestUser(t, ts, "alice", "password123")
	bobToken, bobID := registerTestUser(t, ts, "bob", "password123")

	alice := dialWS(t, ctx, wsURL(ts.URL), aliceToken)
	readPresence(t, ctx, alice)

	bob := dialWS(t, ctx, wsURL(ts.URL), bobToken)
	readPresence(t, ctx, alice)
	readPresence(t, ctx, bob)

	// Garbage is logged and dropped; the connection stays usable.
	if err := alice.Write(ctx, websocket.MessageText, []byte("{not json")); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	// So is a structurally valid but invalid relay request.
	if err := wsjson.Write(ctx, alice, proto.SendRequest{Recipient: "not-a-uuid", Text: "hi"}); err != nil {
		t.Fatalf("write invalid request: %v", err)
	}

	if err := wsjson.Write(ctx, alice, proto.SendRequest{Recipient: bobID, Text: "still alive"}); err != nil {
		t.Fatalf("write valid request: %v", err)
	}

	frame := readFrame(t, ctx, bob)
	delivery, ok := frame.(proto.DeliveryFrame)
	if !ok {
		t.Fatalf("expected delivery frame, got %T", frame)
	}
	if delivery.Text != "still alive" {
		t.Fatalf("unexpected delivery: %+v", delivery)
	}
}

func TestWebSocketEndToEndScenario(t *testing.T) {
	ts, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	aliceToken, aliceID := registerTestUser(t, ts, "alice", "password123")
	bobToken, bobID := registerTestUser(t, ts, "bob", "password123")

	// Alice connects and sees herself online.
	alice := dialWS(t, ctx, wsURL(ts.URL), aliceToken)
	pf := readPresence(t, ctx, alice)
	if got := onlineNames(pf); len(got) != 1 || got[0] != "alice" {
		t.Fatalf("unexpected initial snapshot: %v", got)
	}

	// Bob connects; both receive a snapshot listing both users.
	bob := dialWS(t, ctx, wsURL(ts.URL), bobToken)
	for _, conn := range []*websocket.Conn{alice, bob} {
		pf := readPresence(t, ctx, conn)
		got := onlineNames(pf)
		if len(got) != 2 || got[0] != "alice" || got[1] != "bob" {
			t.Fatalf("unexpected snapshot: %v", got)
		}
	}

	// Alice sends to Bob; Bob receives the delivery with a server-assigned id.
	if err := wsjson.Write(ctx, alice, proto.SendRequest{Recipient: bobID, Text: "hi"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	frame := readFrame(t, ctx, bob)
	delivery, ok := frame.(proto.DeliveryFrame)
	if !ok {
		t.Fatalf("expected delivery frame, got %T: %+v", frame, frame)
	}
	if delivery.Sender != aliceID || delivery.Recipient != bobID || delivery.Text != "hi" {
		t.Fatalf("unexpected delivery: %+v", delivery)
	}
	if delivery.ID == "" {
		t.Fatalf("expected a server-assigned message id")
	}

	// Alice disconnects; Bob's next snapshot lists only Bob.
	_ = alice.Close(websocket.StatusNormalClosure, "bye")

	pf = readPresence(t, ctx, bob)
	if got := onlineNames(pf); len(got) != 1 || got[0] != "bob" {
		t.Fatalf("unexpected snapshot after disconnect: %v", got)
	}
}

func TestWebSocketMultiDeviceDelivery(t *testing.T) {
	ts, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	aliceToken, _ := registerTestUser(t, ts, "alice", "password123")
	bobToken, bobID := registerTestUser(t, ts, "bob", "password123")

	alice := dialWS(t, ctx, wsURL(ts.URL), aliceToken)
	readPresence(t, ctx, alice)

	// Bob connects twice; every connection drains its own presence frames.
	bobPhone := dialWS(t, ctx, wsURL(ts.URL), bobToken)
	readPresence(t, ctx, alice)
	readPresence(t, ctx, bobPhone)

	bobLaptop := dialWS(t, ctx, wsURL(ts.URL), bobToken)
	readPresence(t, ctx, alice)
	pf := readPresence(t, ctx, bobPhone)
	readPresence(t, ctx, bobLaptop)

	// Bob appears once in the snapshot despite two sessions.
	if got := onlineNames(pf); len(got) != 2 || got[0] != "alice" || got[1] != "bob" {
		t.Fatalf("expected deduplicated snapshot, got %v", got)
	}

	if err := wsjson.Write(ctx, alice, proto.SendRequest{Recipient: bobID, Text: "hi bob"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	// Both of Bob's sessions get the identical message exactly once.
	var first proto.DeliveryFrame
	for i, conn := range []*websocket.Conn{bobPhone, bobLaptop} {
		frame := readFrame(t, ctx, conn)
		delivery, ok := frame.(proto.DeliveryFrame)
		if !ok {
			t.Fatalf("expected delivery frame, got %T", frame)
		}
		if i == 0 {
			first = delivery
			continue
		}
		if delivery != first {
			t.Fatalf("sessions received different payloads: %+v vs %+v", first, delivery)
		}
	}
}
