package session

import (
	"github.com/gin-gonic/gin"

	pkgLog "claude-session-hub/pkg/log"
	pkgResponse "claude-session-hub/pkg/response"
)

// HTTPHandler exposes read-only session inspection routes.
type HTTPHandler struct {
	mgr *Manager
	l   pkgLog.Logger
}

func NewHTTPHandler(mgr *Manager, l pkgLog.Logger) *HTTPHandler {
	return &HTTPHandler{mgr: mgr, l: l}
}

// ListSessions handles GET /api/sessions. An optional "prefix" query filters
// by session id prefix, grouping an orchestration's sessions together.
func (h *HTTPHandler) ListSessions(c *gin.Context) {
	prefix := c.Query("prefix")
	sessions := h.mgr.GetOrchestrationSessions(prefix)
	pkgResponse.OK(c, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// GetSessionByID handles GET /api/sessions/:id.
func (h *HTTPHandler) GetSessionByID(c *gin.Context) {
	s, ok := h.mgr.GetSession(c.Param("id"))
	if !ok {
		pkgResponse.NotFound(c)
		return
	}
	pkgResponse.OK(c, s)
}
