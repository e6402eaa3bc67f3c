package http

import (
	"github.com/quickchat/quickchat-server/internal/core"
	"github.com/quickchat/quickchat-server/internal/proto"
)

// frameFromEvent maps a core event to its wire frame.
func frameFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventPresence:
		online := make([]proto.OnlineUser, 0, len(event.Online))
		for _, id := range event.Online {
			online = append(online, proto.OnlineUser{
				ID:       id.UserID,
				Username: id.Username,
			})
		}
		return proto.PresenceFrame{Online: online}
	case core.EventDelivery:
		return proto.DeliveryFrame{
			ID:        event.Message.ID,
			Sender:    event.Message.SenderID,
			Recipient: event.Message.RecipientID,
			Text:      event.Message.Text,
			CreatedAt: event.Message.CreatedAt.Unix(),
		}
	default:
		return nil
	}
}
