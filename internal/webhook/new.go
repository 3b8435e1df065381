package webhook

import (
	"claude-session-hub/config"
	pkgLog "claude-session-hub/pkg/log"
)

// SessionCounter reports scheduler occupancy for the health endpoint.
type SessionCounter interface {
	ActiveSessionCount() int
}

// Handler is the gin-facing entry point for webhook intake.
type IntakeHandler struct {
	registry  *Registry
	processor *Processor
	security  *SecurityValidator
	cfg       config.WebhookConfig
	sessions  SessionCounter
	l         pkgLog.Logger
}

func NewHandler(
	registry *Registry,
	processor *Processor,
	cfg config.WebhookConfig,
	sessions SessionCounter,
	l pkgLog.Logger,
) *IntakeHandler {
	return &IntakeHandler{
		registry:  registry,
		processor: processor,
		security: NewSecurityValidator(SecurityConfig{
			AllowedIPs:      cfg.AllowedIPs,
			RateLimitPerMin: cfg.RateLimitPerMin,
		}),
		cfg:      cfg,
		sessions: sessions,
		l:        l,
	}
}
