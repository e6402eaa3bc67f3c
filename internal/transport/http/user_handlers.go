package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/quickchat/quickchat-server/internal/store"
)

// UserHandlers provides HTTP handlers for user listing.
type UserHandlers struct {
	store store.UserStore
	log   *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(st store.UserStore, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		store: st,
		log:   logger,
	}
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ListPeople handles listing all registered users, so clients can start a
// conversation with someone who is offline.
// GET /api/people
func (h *UserHandlers) ListPeople(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]UserResponse, 0, len(users))
	for _, u := range users {
		response = append(response, UserResponse{
			ID:       u.ID,
			Username: u.Username,
		})
	}

	c.JSON(http.StatusOK, response)
}
