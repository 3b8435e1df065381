package webhook

import (
	"net/http"

	"github.com/gin-gonic/gin"

	pkgResponse "claude-session-hub/pkg/response"
)

// HandleWebhook serves POST /api/webhooks/:provider. The provider name is
// validated against the fixed allow-list before touching the registry.
func (h *IntakeHandler) HandleWebhook(c *gin.Context) {
	ctx := c.Request.Context()
	providerName := c.Param("provider")

	var secret string
	switch providerName {
	case ProviderGitHub:
		secret = h.cfg.GitHubSecret
	case ProviderOrchestration:
		secret = h.cfg.OrchestrationSecret
	default:
		h.l.Warnf(ctx, "%s: unknown provider %q", LogPrefixIntake, providerName)
		pkgResponse.NotFound(c)
		return
	}

	if err := h.security.ValidateIPAddress(c.Request); err != nil {
		h.l.Warnf(ctx, "%s: %v", LogPrefixIntake, err)
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	if err := h.security.CheckRateLimit(providerName); err != nil {
		h.l.Warnf(ctx, "%s: %v", LogPrefixIntake, err)
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
		return
	}

	h.processor.ProcessWebhook(c, ProcessOptions{
		Provider:                  providerName,
		Secret:                    secret,
		SkipSignatureVerification: h.cfg.SkipVerification,
	})
}

// HandleHealth serves GET /api/webhooks/health: registered providers, their
// handler counts, and current scheduler occupancy. No auth.
func (h *IntakeHandler) HandleHealth(c *gin.Context) {
	body := gin.H{
		"status":    "ok",
		"providers": h.registry.Providers(),
	}
	if h.sessions != nil {
		body["active_sessions"] = h.sessions.ActiveSessionCount()
	}
	c.JSON(http.StatusOK, body)
}
