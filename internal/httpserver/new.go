package httpserver

import (
	"errors"

	"github.com/gin-gonic/gin"

	"claude-session-hub/internal/middleware"
	pkgLog "claude-session-hub/pkg/log"
)

// HTTPServer holds all dependencies for the HTTP server.
type HTTPServer struct {
	// Server
	gin         *gin.Engine
	l           pkgLog.Logger
	port        int
	mode        string
	environment string

	// Webhook intake
	webhookHandler interface {
		HandleWebhook(c *gin.Context)
		HandleHealth(c *gin.Context)
	}

	// Session inspection
	sessionHandler interface {
		ListSessions(c *gin.Context)
		GetSessionByID(c *gin.Context)
	}
}

// Config is the dependency bag passed to New().
type Config struct {
	Logger      pkgLog.Logger
	Port        int
	Mode        string
	Environment string

	// Webhook intake
	WebhookHandler interface {
		HandleWebhook(c *gin.Context)
		HandleHealth(c *gin.Context)
	}

	// Session inspection
	SessionHandler interface {
		ListSessions(c *gin.Context)
		GetSessionByID(c *gin.Context)
	}
}

// New creates a new HTTPServer instance.
func New(logger pkgLog.Logger, cfg Config) (*HTTPServer, error) {
	gin.SetMode(cfg.Mode)

	srv := &HTTPServer{
		l:              logger,
		gin:            gin.New(),
		port:           cfg.Port,
		mode:           cfg.Mode,
		environment:    cfg.Environment,
		webhookHandler: cfg.WebhookHandler,
		sessionHandler: cfg.SessionHandler,
	}

	if err := srv.validate(); err != nil {
		return nil, err
	}

	mw := middleware.New(logger)
	srv.mapHandlers(mw)

	return srv, nil
}

func (srv *HTTPServer) validate() error {
	if srv.l == nil {
		return errors.New("logger is required")
	}
	if srv.mode == "" {
		return errors.New("mode is required")
	}
	if srv.port == 0 {
		return errors.New("port is required")
	}
	if srv.webhookHandler == nil {
		return errors.New("webhook handler is required")
	}
	return nil
}
