// Package proto defines the wire frames exchanged over the WebSocket.
//
// The wire format carries no type tag: clients tell server frames apart by
// which key is present ("online" for presence, "id"/"sender" for a
// delivery). That convention is kept for compatibility with existing
// clients; inside the server frames are an explicit union (Outbound).
package proto

import (
	"encoding/json"
	"fmt"
)

// SendRequest is the only client→server frame: relay text to a user.
type SendRequest struct {
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
}

// Outbound is a server→client frame: PresenceFrame or DeliveryFrame.
type Outbound interface {
	outbound()
}

// OnlineUser is one entry of a presence snapshot.
type OnlineUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// PresenceFrame is the online-user set, pushed on every connect/disconnect.
type PresenceFrame struct {
	Online []OnlineUser `json:"online"`
}

func (PresenceFrame) outbound() {}

// DeliveryFrame is a relayed message, pushed to the recipient's sessions.
type DeliveryFrame struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"created_at"`
}

func (DeliveryFrame) outbound() {}

// DecodeOutbound parses a server frame, discriminating by key presence.
// Used by client tooling and tests; the server only encodes.
func DecodeOutbound(data []byte) (Outbound, error) {
	var probe struct {
		Online *json.RawMessage `json:"online"`
		ID     *string          `json:"id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	switch {
	case probe.Online != nil:
		var frame PresenceFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, fmt.Errorf("decode presence frame: %w", err)
		}
		return frame, nil
	case probe.ID != nil:
		var frame DeliveryFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, fmt.Errorf("decode delivery frame: %w", err)
		}
		return frame, nil
	default:
		return nil, fmt.Errorf("decode frame: unrecognized shape")
	}
}
