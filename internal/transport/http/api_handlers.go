package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/quickchat/quickchat-server/internal/auth"
)

// APIHandlers provides HTTP handlers for authentication endpoints.
type APIHandlers struct {
	authService *auth.Service
	tokenMaxAge int
	log         *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(authService *auth.Service, tokenMaxAge int, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		authService: authService,
		tokenMaxAge: tokenMaxAge,
		log:         logger,
	}
}

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents the authentication response body.
type AuthResponse struct {
	Token    string `json:"token"`
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Register handles user registration.
// POST /api/register
func (h *APIHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid register request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	user, token, err := h.authService.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "user already exists"})
		case errors.Is(err, auth.ErrInvalidUsername):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid username"})
		case errors.Is(err, auth.ErrInvalidPassword):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid password"})
		default:
			h.log.Error().Err(err).Str("username", req.Username).Msg("failed to register user")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.setTokenCookie(c, token)
	h.log.Info().Str("username", user.Username).Str("user_id", user.ID).Msg("user registered successfully")
	c.JSON(http.StatusCreated, AuthResponse{Token: token, ID: user.ID, Username: user.Username})
}

// Login handles user login.
// POST /api/login
func (h *APIHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid login request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	user, token, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
			return
		}
		h.log.Error().Err(err).Str("username", req.Username).Msg("failed to login user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.setTokenCookie(c, token)
	h.log.Info().Str("username", user.Username).Msg("user logged in successfully")
	c.JSON(http.StatusOK, AuthResponse{Token: token, ID: user.ID, Username: user.Username})
}

// Profile returns the authenticated user's identity.
// GET /api/profile
func (h *APIHandlers) Profile(c *gin.Context) {
	uid, ok := currentUserID(c, h.log)
	if !ok {
		return
	}

	username, _ := c.Get(ContextKeyUsername)
	c.JSON(http.StatusOK, gin.H{"id": uid, "username": username})
}

// setTokenCookie mirrors the token into a cookie so the WebSocket handshake
// carries the credential without extra client work.
func (h *APIHandlers) setTokenCookie(c *gin.Context, token string) {
	c.SetCookie(
		TokenCookieName,
		token,
		h.tokenMaxAge,
		"/",
		"",
		false, // secure (set to true in production with HTTPS)
		false, // httpOnly off so browser clients can read it
	)
}
