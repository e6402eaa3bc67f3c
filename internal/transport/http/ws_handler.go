package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/quickchat/quickchat-server/internal/auth"
	"github.com/quickchat/quickchat-server/internal/core"
	"github.com/quickchat/quickchat-server/internal/proto"
	"github.com/quickchat/quickchat-server/internal/utils"
)

// WSHandler drives the per-connection lifecycle: accept, authenticate from
// handshake metadata, register, serve frames, deregister. Presence is
// rebroadcast on every register and deregister.
type WSHandler struct {
	registry    *core.Registry
	broadcaster *core.Broadcaster
	relay       *core.Relay
	authService *auth.Service
	frameLimit  int
	log         *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler. frameLimit caps inbound frames
// per connection per minute; 0 disables the cap.
func NewWSHandler(
	registry *core.Registry,
	broadcaster *core.Broadcaster,
	relay *core.Relay,
	authService *auth.Service,
	frameLimit int,
	logger *zerolog.Logger,
) stdhttp.Handler {
	return &WSHandler{
		registry:    registry,
		broadcaster: broadcaster,
		relay:       relay,
		authService: authService,
		frameLimit:  frameLimit,
		log:         logger,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	// The credential rides on the handshake; grab it before upgrading.
	token := tokenFromRequest(r)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if token == "" {
		h.log.Warn().Msg("ws connection without credentials")
		conn.Close(websocket.StatusPolicyViolation, "missing credentials")
		return
	}

	claims, err := h.authService.VerifyToken(token)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws token verification failed")
		conn.Close(websocket.StatusPolicyViolation, "invalid credentials")
		return
	}

	session := core.NewSession(utils.NewID(), core.Identity{
		UserID:   claims.UserID,
		Username: claims.Username,
	})

	if err := h.registry.Register(session); err != nil {
		h.log.Error().Err(err).Str("conn_id", session.ID).Msg("session registration failed")
		conn.Close(websocket.StatusInternalError, "registration failed")
		return
	}
	h.broadcaster.Broadcast()

	h.log.Info().
		Str("conn_id", session.ID).
		Str("user_id", session.Identity.UserID).
		Str("username", session.Identity.Username).
		Msg("user connected")

	defer func() {
		h.registry.Deregister(session.ID)
		h.broadcaster.Broadcast()
		h.log.Info().
			Str("conn_id", session.ID).
			Str("username", session.Identity.Username).
			Msg("user disconnected")
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limiter := newFrameLimiter(h.frameLimit)
	limiter.startReset(ctx.Done())

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, session, limiter)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, session)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if errors.Is(err, core.ErrUnauthenticated) {
			status = websocket.StatusPolicyViolation
			reason = "unauthenticated"
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// readLoop processes inbound frames strictly in order. A frame that fails to
// decode or validate is dropped without closing the connection; there is no
// error channel back to the sender on this protocol.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, session *core.Session, limiter *frameLimiter) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		if !limiter.allow() {
			h.log.Warn().Str("conn_id", session.ID).Msg("inbound frame over rate limit dropped")
			continue
		}

		var req proto.SendRequest
		if err := json.Unmarshal(data, &req); err != nil {
			h.log.Debug().Err(err).Str("conn_id", session.ID).Msg("malformed inbound frame dropped")
			continue
		}

		if _, err := h.relay.Send(ctx, session.ID, req.Recipient, req.Text); err != nil {
			if errors.Is(err, core.ErrUnauthenticated) {
				return err
			}
			h.log.Debug().Err(err).
				Str("conn_id", session.ID).
				Str("recipient", req.Recipient).
				Msg("relay request dropped")
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, session *core.Session) error {
	for {
		select {
		case event := <-session.Events:
			frame := frameFromEvent(event)
			if frame == nil {
				continue
			}
			if err := wsjson.Write(ctx, conn, frame); err != nil {
				h.log.Error().Err(err).Str("conn_id", session.ID).Msg("write ws frame")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
