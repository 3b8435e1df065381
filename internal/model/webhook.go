package model

import "time"

// WebhookSource identifies the platform a webhook came from.
type WebhookSource string

const (
	SourceGitHub        WebhookSource = "github"
	SourceOrchestration WebhookSource = "claude"
)

// WebhookPayload is the normalized, provider-agnostic event shape.
// Providers construct it once; nothing mutates it afterwards.
type WebhookPayload struct {
	ID        string         `json:"id"`        // dedupe/correlation key
	Timestamp time.Time      `json:"timestamp"` // when the provider parsed it
	Event     string         `json:"event"`     // dot-delimited type, e.g. "issues.opened"
	Source    WebhookSource  `json:"source"`    // originating provider
	Data      map[string]any `json:"data"`      // provider-specific body, opaque to the pipeline
}

// WebhookContext carries per-request metadata alongside the payload.
// It is ephemeral and never persisted.
type WebhookContext struct {
	Provider      string         `json:"provider"`
	Authenticated bool           `json:"authenticated"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// HandlerResponse is the result of a single handler invocation.
type HandlerResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Error   string         `json:"error,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}
