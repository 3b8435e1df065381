package webhook

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"claude-session-hub/internal/model"
)

// OrchestrationStrategy carries optional scheduling hints from the caller.
type OrchestrationStrategy struct {
	ParallelSessions int      `json:"parallelSessions,omitempty"`
	Phases           []string `json:"phases,omitempty"`
	DependencyMode   string   `json:"dependencyMode,omitempty"`
}

// SessionSpec is the explicit single-session shape for session.create.
type SessionSpec struct {
	Type         model.SessionType `json:"type"`
	Project      model.Project     `json:"project"`
	Dependencies []string          `json:"dependencies,omitempty"`
}

// OrchestrationRequest is the JSON body of the orchestration provider.
// Required fields are type-dependent; see ParsePayload.
type OrchestrationRequest struct {
	Type            string                 `json:"type"`
	Project         *model.Project         `json:"project,omitempty"`
	Strategy        *OrchestrationStrategy `json:"strategy,omitempty"`
	Session         *SessionSpec           `json:"session,omitempty"`
	SessionID       string                 `json:"sessionId,omitempty"`
	ParentSessionID string                 `json:"parentSessionId,omitempty"`
	Dependencies    []string               `json:"dependencies,omitempty"`
}

// OrchestrationProvider accepts events from the internal orchestration
// client, authenticated by a bearer token.
type OrchestrationProvider struct{}

var _ Provider = (*OrchestrationProvider)(nil)

func NewOrchestrationProvider() *OrchestrationProvider {
	return &OrchestrationProvider{}
}

func (p *OrchestrationProvider) Name() string {
	return ProviderOrchestration
}

// VerifySignature checks the Authorization bearer token in constant time.
func (p *OrchestrationProvider) VerifySignature(r *http.Request, body []byte, secret string) error {
	return verifyBearerToken(r.Header.Get("Authorization"), secret)
}

// ParsePayload validates the type-dependent required fields and normalizes
// the request. The typed request is recoverable with DecodeOrchestration.
func (p *OrchestrationProvider) ParsePayload(r *http.Request, body []byte) (*model.WebhookPayload, error) {
	var req OrchestrationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("failed to parse orchestration payload: %w", err)
	}

	if req.Type == "" {
		return nil, fmt.Errorf("Invalid payload: missing required type field")
	}

	switch req.Type {
	case "orchestrate", "coordinate", "session":
		if req.Project == nil || req.Project.Repository == "" || req.Project.Requirements == "" {
			return nil, fmt.Errorf("Invalid payload: missing required project fields")
		}
	case "session.create":
		if req.Session == nil {
			return nil, fmt.Errorf("Invalid payload: missing required session fields")
		}
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to parse orchestration payload: %w", err)
	}

	return &model.WebhookPayload{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Event:     req.Type,
		Source:    model.SourceOrchestration,
		Data:      data,
	}, nil
}

func (p *OrchestrationProvider) GetEventType(payload *model.WebhookPayload) string {
	return payload.Event
}

func (p *OrchestrationProvider) GetEventDescription(payload *model.WebhookPayload) string {
	repo := ""
	if proj, ok := payload.Data["project"].(map[string]any); ok {
		repo, _ = proj["repository"].(string)
	}
	if repo == "" {
		return fmt.Sprintf("Orchestration %s event", payload.Event)
	}
	return fmt.Sprintf("Orchestration %s event for %s", payload.Event, repo)
}

// DecodeOrchestration recovers the typed orchestration request from a
// normalized payload produced by this provider.
func DecodeOrchestration(payload *model.WebhookPayload) (*OrchestrationRequest, error) {
	raw, err := json.Marshal(payload.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode payload data: %w", err)
	}
	var req OrchestrationRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("failed to decode orchestration request: %w", err)
	}
	return &req, nil
}
