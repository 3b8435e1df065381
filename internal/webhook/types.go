package webhook

import (
	"context"
	"net/http"

	"claude-session-hub/internal/model"
)

// Provider adapts one external webhook format to the normalized payload
// shape. Implementations must be safe for concurrent use.
type Provider interface {
	// Name is the provider's registry key. Lookups are case-insensitive.
	Name() string

	// VerifySignature authenticates the raw request against the configured
	// secret. A nil return means the request is genuine.
	VerifySignature(r *http.Request, body []byte, secret string) error

	// ParsePayload converts the raw request into the normalized payload.
	ParsePayload(r *http.Request, body []byte) (*model.WebhookPayload, error)

	// GetEventType returns the dot-delimited event type used for handler
	// resolution.
	GetEventType(payload *model.WebhookPayload) string

	// GetEventDescription returns a human-readable one-liner for logs.
	GetEventDescription(payload *model.WebhookPayload) string
}

// Handler is one unit of business logic bound to an event pattern.
type Handler interface {
	// EventPattern selects events: exact match, "prefix.*", or a regular
	// expression tested against the full event string.
	EventPattern() string

	// Priority orders handler execution, highest first. Default is 0.
	Priority() int

	// Handle processes the event. Returned errors are isolated per handler
	// and never abort sibling handlers.
	Handle(ctx context.Context, payload *model.WebhookPayload, wctx *model.WebhookContext) (model.HandlerResponse, error)
}

// ConditionalHandler is optionally implemented by handlers that want a
// cheap pre-check before Handle. A false return skips the handler without
// recording a result.
type ConditionalHandler interface {
	CanHandle(payload *model.WebhookPayload, wctx *model.WebhookContext) bool
}

// ProcessOptions configures one ProcessWebhook invocation.
type ProcessOptions struct {
	Provider string
	// Secret enables signature verification when non-empty. Production
	// deployments must always configure one; see config.validate.
	Secret string
	// SkipSignatureVerification bypasses verification entirely. Dev only.
	SkipSignatureVerification bool
}

// SecurityConfig holds webhook boundary security settings.
type SecurityConfig struct {
	AllowedIPs      []string // IP whitelist (optional)
	RateLimitPerMin int      // Max requests per minute per source
}
