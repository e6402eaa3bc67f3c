package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/quickchat/quickchat-server/internal/auth"
	"github.com/quickchat/quickchat-server/internal/config"
	"github.com/quickchat/quickchat-server/internal/core"
	"github.com/quickchat/quickchat-server/internal/store"
)

// NewServer builds the HTTP server: auth endpoints, people listing, message
// history, health, and the WebSocket relay endpoint.
func NewServer(
	cfg config.Config,
	registry *core.Registry,
	broadcaster *core.Broadcaster,
	relay *core.Relay,
	authService *auth.Service,
	st store.Store,
	logger *zerolog.Logger,
) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	apiHandlers := NewAPIHandlers(authService, int(cfg.TokenTTL.Seconds()), logger)
	userHandlers := NewUserHandlers(st, logger)
	messageHandlers := NewMessageHandlers(st, logger)

	router.GET("/health", healthHandler)
	router.POST("/api/register", apiHandlers.Register)
	router.POST("/api/login", apiHandlers.Login)

	authed := router.Group("/api", AuthMiddleware(authService, logger))
	authed.GET("/profile", apiHandlers.Profile)
	authed.GET("/people", userHandlers.ListPeople)
	authed.GET("/messages/:userID", messageHandlers.History)

	router.GET("/ws", gin.WrapH(NewWSHandler(registry, broadcaster, relay, authService, cfg.MessageRateLimit, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
