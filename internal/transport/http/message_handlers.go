package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quickchat/quickchat-server/internal/store"
)

// MessageHandlers provides HTTP handlers for message history.
type MessageHandlers struct {
	store store.MessageStore
	log   *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(st store.MessageStore, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		store: st,
		log:   logger,
	}
}

// MessageResponse represents a stored message in API responses.
type MessageResponse struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"created_at"`
}

// History returns the conversation between the authenticated user and the
// user in the path, oldest first. Messages stored but never pushed live are
// recovered here.
// GET /api/messages/:userID
func (h *MessageHandlers) History(c *gin.Context) {
	uid, ok := currentUserID(c, h.log)
	if !ok {
		return
	}

	otherID := c.Param("userID")
	if _, err := uuid.Parse(otherID); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	messages, err := h.store.ListConversation(c.Request.Context(), uid, otherID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", uid).Str("other_id", otherID).Msg("failed to list conversation")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]MessageResponse, 0, len(messages))
	for _, msg := range messages {
		response = append(response, MessageResponse{
			ID:        msg.ID,
			Sender:    msg.SenderID,
			Recipient: msg.RecipientID,
			Text:      msg.Text,
			CreatedAt: msg.CreatedAt.Unix(),
		})
	}

	c.JSON(http.StatusOK, response)
}
