package httpserver

import (
	"context"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"claude-session-hub/internal/middleware"
)

func (srv *HTTPServer) mapHandlers(mw middleware.Middleware) {
	srv.registerMiddlewares(mw)
	srv.registerSystemRoutes()
	srv.registerDomainRoutes()
}

func (srv *HTTPServer) registerMiddlewares(mw middleware.Middleware) {
	srv.gin.Use(gin.Recovery())
	srv.gin.Use(mw.RequestID())
	srv.gin.Use(mw.AccessLog())
}

func (srv *HTTPServer) registerSystemRoutes() {
	srv.gin.GET("/health", srv.healthCheck)
	srv.gin.GET("/ready", srv.readyCheck)
	srv.gin.GET("/live", srv.liveCheck)

	srv.gin.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
	))
}

// registerDomainRoutes registers all domain routes.
func (srv *HTTPServer) registerDomainRoutes() {
	ctx := context.Background()
	api := srv.gin.Group("/api")

	api.POST("/webhooks/:provider", srv.webhookHandler.HandleWebhook)
	api.GET("/webhooks/health", srv.webhookHandler.HandleHealth)
	srv.l.Infof(ctx, "Webhook routes registered at POST /api/webhooks/:provider")

	if srv.sessionHandler != nil {
		api.GET("/sessions", srv.sessionHandler.ListSessions)
		api.GET("/sessions/:id", srv.sessionHandler.GetSessionByID)
		srv.l.Infof(ctx, "Session routes registered at GET /api/sessions")
	} else {
		srv.l.Infof(ctx, "Session handler not configured, skipping session routes")
	}
}
