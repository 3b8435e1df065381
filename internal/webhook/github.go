package webhook

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"claude-session-hub/internal/model"
)

// GitHubProvider adapts GitHub webhook deliveries to the normalized payload
// shape. Event types are normalized to dot-delimited strings: an "issues"
// delivery with action "opened" becomes "issues.opened".
type GitHubProvider struct{}

var _ Provider = (*GitHubProvider)(nil)

func NewGitHubProvider() *GitHubProvider {
	return &GitHubProvider{}
}

func (p *GitHubProvider) Name() string {
	return ProviderGitHub
}

// VerifySignature checks the X-Hub-Signature-256 HMAC over the raw body.
func (p *GitHubProvider) VerifySignature(r *http.Request, body []byte, secret string) error {
	return verifyHMACSignature(body, r.Header.Get("X-Hub-Signature-256"), secret)
}

// ParsePayload normalizes a GitHub delivery. The delivery id becomes the
// payload correlation key; the decoded body rides along opaquely.
func (p *GitHubProvider) ParsePayload(r *http.Request, body []byte) (*model.WebhookPayload, error) {
	eventName := r.Header.Get("X-GitHub-Event")
	if eventName == "" {
		return nil, fmt.Errorf("missing X-GitHub-Event header")
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to parse GitHub payload: %w", err)
	}

	event := eventName
	if action, ok := data["action"].(string); ok && action != "" {
		event = eventName + "." + action
	}

	id := r.Header.Get("X-GitHub-Delivery")
	if id == "" {
		id = uuid.NewString()
	}

	return &model.WebhookPayload{
		ID:        id,
		Timestamp: time.Now(),
		Event:     event,
		Source:    model.SourceGitHub,
		Data:      data,
	}, nil
}

func (p *GitHubProvider) GetEventType(payload *model.WebhookPayload) string {
	return payload.Event
}

func (p *GitHubProvider) GetEventDescription(payload *model.WebhookPayload) string {
	repo := ""
	if r, ok := payload.Data["repository"].(map[string]any); ok {
		repo, _ = r["full_name"].(string)
	}
	if repo == "" {
		return fmt.Sprintf("GitHub %s event", payload.Event)
	}
	return fmt.Sprintf("GitHub %s event on %s", payload.Event, repo)
}
