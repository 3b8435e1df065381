package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"claude-session-hub/internal/decompose"
	"claude-session-hub/internal/model"
	"claude-session-hub/internal/session"
	"claude-session-hub/internal/webhook"
	"claude-session-hub/pkg/docker"
	pkgGitHub "claude-session-hub/pkg/github"
)

type mockLogger struct{}

func (mockLogger) Debug(ctx context.Context, args ...any)                 {}
func (mockLogger) Debugf(ctx context.Context, format string, args ...any) {}
func (mockLogger) Info(ctx context.Context, args ...any)                  {}
func (mockLogger) Infof(ctx context.Context, format string, args ...any)  {}
func (mockLogger) Warn(ctx context.Context, args ...any)                  {}
func (mockLogger) Warnf(ctx context.Context, format string, args ...any)  {}
func (mockLogger) Error(ctx context.Context, args ...any)                 {}
func (mockLogger) Errorf(ctx context.Context, format string, args ...any) {}
func (mockLogger) Fatalf(ctx context.Context, format string, args ...any) {}

// stubExecutor completes every session instantly with exit code 0.
type stubExecutor struct {
	mu      sync.Mutex
	created int
	ran     int
}

func (s *stubExecutor) CreateContainer(ctx context.Context, opts docker.CreateOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created++
	return fmt.Sprintf("container-%d", s.created), nil
}

func (s *stubExecutor) RunSession(ctx context.Context, containerID, command string, onLine func(docker.LogLine)) (int, error) {
	s.mu.Lock()
	s.ran++
	s.mu.Unlock()
	return 0, nil
}

func (s *stubExecutor) StopContainer(ctx context.Context, containerID string) error { return nil }

func (s *stubExecutor) IsRunning(ctx context.Context, containerID string) (bool, error) {
	return false, nil
}

func newTestManager() *session.Manager {
	return session.New(&stubExecutor{}, session.Config{
		Image:           "agent:latest",
		ContainerPrefix: "cs",
	}, mockLogger{})
}

// orchestrationPayload builds a payload the way the orchestration provider
// would, so DecodeOrchestration round-trips.
func orchestrationPayload(t *testing.T, body string) *model.WebhookPayload {
	t.Helper()

	var data map[string]any
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		t.Fatalf("bad test body: %v", err)
	}
	event, _ := data["type"].(string)
	return &model.WebhookPayload{
		ID:        "test-delivery",
		Timestamp: time.Now(),
		Event:     event,
		Source:    model.SourceOrchestration,
		Data:      data,
	}
}

func waitAllTerminal(t *testing.T, mgr *session.Manager) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if mgr.ActiveSessionCount() == 0 {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("sessions never drained")
}

func TestOrchestrateHandler(t *testing.T) {
	t.Run("Schedules One Session Per Component", func(t *testing.T) {
		mgr := newTestManager()
		h := NewOrchestrateHandler(mgr, mockLogger{})

		payload := orchestrationPayload(t, `{
			"type": "orchestrate",
			"project": {
				"repository": "octo/app",
				"requirements": "Build a REST API with a database backend. Write tests."
			}
		}`)

		res, err := h.Handle(context.Background(), payload, &model.WebhookContext{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Success {
			t.Fatalf("expected success, got %+v", res)
		}

		orchID, _ := res.Data["orchestration_id"].(string)
		if !strings.HasPrefix(orchID, "orch-") {
			t.Errorf("unexpected orchestration id %q", orchID)
		}

		sessions := mgr.GetOrchestrationSessions(orchID)
		if len(sessions) != 3 { // backend, api, testing
			t.Fatalf("expected 3 sessions, got %d", len(sessions))
		}
		for _, s := range sessions {
			if !strings.HasPrefix(s.ID, orchID+"-") {
				t.Errorf("session id %q missing orchestration prefix", s.ID)
			}
		}

		waitAllTerminal(t, mgr)
		for _, s := range mgr.GetOrchestrationSessions(orchID) {
			if s.Status != model.SessionStatusCompleted {
				t.Errorf("session %s ended as %s: %s", s.ID, s.Status, s.Error)
			}
		}
	})

	t.Run("Dependencies Map To Session IDs", func(t *testing.T) {
		mgr := newTestManager()
		h := NewOrchestrateHandler(mgr, mockLogger{})

		payload := orchestrationPayload(t, `{
			"type": "orchestrate",
			"project": {"repository": "octo/app", "requirements": "REST API over a database"}
		}`)

		res, err := h.Handle(context.Background(), payload, &model.WebhookContext{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		orchID := res.Data["orchestration_id"].(string)

		apiSession, ok := mgr.GetSession(orchID + "-api")
		if !ok {
			t.Fatal("expected api session")
		}
		if len(apiSession.Dependencies) != 1 || apiSession.Dependencies[0] != orchID+"-backend" {
			t.Errorf("expected api to depend on backend session id, got %v", apiSession.Dependencies)
		}
		waitAllTerminal(t, mgr)
	})

	t.Run("Testing Component Gets Testing Session", func(t *testing.T) {
		mgr := newTestManager()
		h := NewOrchestrateHandler(mgr, mockLogger{})

		payload := orchestrationPayload(t, `{
			"type": "orchestrate",
			"project": {"repository": "octo/app", "requirements": "server work plus test coverage"}
		}`)

		res, err := h.Handle(context.Background(), payload, &model.WebhookContext{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		orchID := res.Data["orchestration_id"].(string)

		ts, ok := mgr.GetSession(orchID + "-testing")
		if !ok {
			t.Fatal("expected testing session")
		}
		if ts.Type != model.SessionTypeTesting {
			t.Errorf("expected testing session type, got %s", ts.Type)
		}
		waitAllTerminal(t, mgr)
	})

	t.Run("Dependency Mode Ignore Strips Edges", func(t *testing.T) {
		mgr := newTestManager()
		h := NewOrchestrateHandler(mgr, mockLogger{})

		payload := orchestrationPayload(t, `{
			"type": "coordinate",
			"project": {"repository": "octo/app", "requirements": "REST API over a database"},
			"strategy": {"dependencyMode": "ignore"}
		}`)

		res, err := h.Handle(context.Background(), payload, &model.WebhookContext{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Data["strategy"] != decompose.StrategyParallel {
			t.Errorf("expected parallel strategy, got %v", res.Data["strategy"])
		}

		orchID := res.Data["orchestration_id"].(string)
		for _, s := range mgr.GetOrchestrationSessions(orchID) {
			if len(s.Dependencies) != 0 {
				t.Errorf("session %s kept dependencies %v", s.ID, s.Dependencies)
			}
		}
		waitAllTerminal(t, mgr)
	})
}

func TestSingleSessionHandler(t *testing.T) {
	mgr := newTestManager()
	h := NewSingleSessionHandler(mgr, mockLogger{})

	if h.EventPattern() != "^session$" {
		t.Errorf("pattern must be anchored, got %q", h.EventPattern())
	}

	payload := orchestrationPayload(t, `{
		"type": "session",
		"project": {"repository": "octo/app", "requirements": "Fix the login redirect"}
	}`)

	res, err := h.Handle(context.Background(), payload, &model.WebhookContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id, _ := res.Data["session_id"].(string)
	if id == "" {
		t.Fatal("expected session id in response")
	}

	s, ok := mgr.GetSession(id)
	if !ok {
		t.Fatal("expected session recorded")
	}
	if s.Type != model.SessionTypeImplementation {
		t.Errorf("expected implementation session, got %s", s.Type)
	}
	waitAllTerminal(t, mgr)
}

func TestSessionCreateHandler(t *testing.T) {
	t.Run("Uses Spec Type And Caller ID", func(t *testing.T) {
		mgr := newTestManager()
		h := NewSessionCreateHandler(mgr, mockLogger{})

		payload := orchestrationPayload(t, `{
			"type": "session.create",
			"sessionId": "review-7",
			"session": {
				"type": "review",
				"project": {"repository": "octo/app", "requirements": "Review PR 42"}
			}
		}`)

		res, err := h.Handle(context.Background(), payload, &model.WebhookContext{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Data["session_id"] != "review-7" {
			t.Errorf("expected caller session id, got %v", res.Data["session_id"])
		}

		s, _ := mgr.GetSession("review-7")
		if s.Type != model.SessionTypeReview {
			t.Errorf("expected review type, got %s", s.Type)
		}
		waitAllTerminal(t, mgr)
	})

	t.Run("Defaults To Implementation Type", func(t *testing.T) {
		mgr := newTestManager()
		h := NewSessionCreateHandler(mgr, mockLogger{})

		payload := orchestrationPayload(t, `{
			"type": "session.create",
			"session": {"project": {"repository": "octo/app", "requirements": "anything"}}
		}`)

		res, err := h.Handle(context.Background(), payload, &model.WebhookContext{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		s, _ := mgr.GetSession(res.Data["session_id"].(string))
		if s.Type != model.SessionTypeImplementation {
			t.Errorf("expected implementation default, got %s", s.Type)
		}
		waitAllTerminal(t, mgr)
	})
}

func TestSessionStatusHandler(t *testing.T) {
	mgr := newTestManager()
	h := NewSessionStatusHandler(mgr, mockLogger{})

	t.Run("Missing Session ID", func(t *testing.T) {
		payload := orchestrationPayload(t, `{"type": "session.status"}`)
		res, err := h.Handle(context.Background(), payload, &model.WebhookContext{})
		if err != nil {
			t.Fatalf("a missing id is a failed result, not an error: %v", err)
		}
		if res.Success || res.Error != "sessionId is required" {
			t.Errorf("unexpected result %+v", res)
		}
	})

	t.Run("Unknown Session", func(t *testing.T) {
		payload := orchestrationPayload(t, `{"type": "session.status", "sessionId": "ghost"}`)
		res, err := h.Handle(context.Background(), payload, &model.WebhookContext{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Success || !strings.Contains(res.Error, "ghost") {
			t.Errorf("unexpected result %+v", res)
		}
	})

	t.Run("Known Session", func(t *testing.T) {
		s := session.NewSession("known-1", model.SessionTypeAnalysis, model.Project{}, nil)
		if _, err := mgr.CreateContainer(context.Background(), s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		payload := orchestrationPayload(t, `{"type": "session.status", "sessionId": "known-1"}`)
		res, err := h.Handle(context.Background(), payload, &model.WebhookContext{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Success {
			t.Fatalf("expected success, got %+v", res)
		}
		got, ok := res.Data["session"].(model.Session)
		if !ok || got.ID != "known-1" {
			t.Errorf("expected session record in data, got %v", res.Data["session"])
		}
	})
}

func TestIssueHandlers(t *testing.T) {
	githubPayload := func(event string, body string) *model.WebhookPayload {
		return &model.WebhookPayload{
			Event:  event,
			Source: model.SourceGitHub,
			Data: map[string]any{
				"repository": map[string]any{"full_name": "octo/app"},
				"issue": map[string]any{
					"number": float64(7),
					"title":  "Broken login",
					"body":   body,
				},
			},
		}
	}

	newGitHubClient := func(t *testing.T, handler http.HandlerFunc) *pkgGitHub.Client {
		t.Helper()
		srv := httptest.NewServer(handler)
		t.Cleanup(srv.Close)
		gh := pkgGitHub.NewClient(context.Background(), "test-token")
		gh.SetAPIURL(srv.URL)
		return gh
	}

	t.Run("Label Handler Applies Triage Labels", func(t *testing.T) {
		var gotPath string
		var gotBody map[string]any
		gh := newGitHubClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			json.NewDecoder(r.Body).Decode(&gotBody)
			w.WriteHeader(http.StatusOK)
		})

		h := NewIssueLabelHandler(gh, mockLogger{})
		res, err := h.Handle(context.Background(), githubPayload("issues.opened", "please fix"), &model.WebhookContext{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Success {
			t.Fatalf("expected success, got %+v", res)
		}
		if gotPath != "/repos/octo/app/issues/7/labels" {
			t.Errorf("unexpected path %q", gotPath)
		}
		labels, _ := gotBody["labels"].([]any)
		if len(labels) != 2 || labels[0] != "claude-hub" {
			t.Errorf("unexpected labels %v", labels)
		}
	})

	t.Run("Label Handler Without Issue Reference", func(t *testing.T) {
		gh := newGitHubClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no API call expected")
		})
		h := NewIssueLabelHandler(gh, mockLogger{})

		res, err := h.Handle(context.Background(), &model.WebhookPayload{
			Event: "issues.opened",
			Data:  map[string]any{},
		}, &model.WebhookContext{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Success {
			t.Error("expected failed result without issue reference")
		}
	})

	t.Run("Ack Handler Gated On Mention", func(t *testing.T) {
		gh := newGitHubClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		})
		h := NewIssueAckHandler(gh, mockLogger{})

		if h.CanHandle(githubPayload("issues.opened", "no mention here"), &model.WebhookContext{}) {
			t.Error("expected issues without mention to be skipped")
		}
		if !h.CanHandle(githubPayload("issues.opened", "hey @claude please look"), &model.WebhookContext{}) {
			t.Error("expected mentioned issue to be handled")
		}
	})

	t.Run("Ack Handler Posts Comment", func(t *testing.T) {
		var gotPath string
		gh := newGitHubClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.WriteHeader(http.StatusCreated)
		})
		h := NewIssueAckHandler(gh, mockLogger{})

		res, err := h.Handle(context.Background(), githubPayload("issues.opened", "@claude go"), &model.WebhookContext{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Success {
			t.Fatalf("expected success, got %+v", res)
		}
		if gotPath != "/repos/octo/app/issues/7/comments" {
			t.Errorf("unexpected path %q", gotPath)
		}
	})

	t.Run("API Failure Returns Error", func(t *testing.T) {
		gh := newGitHubClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"message": "Resource not accessible"}`)
		})
		h := NewIssueLabelHandler(gh, mockLogger{})

		_, err := h.Handle(context.Background(), githubPayload("issues.opened", ""), &model.WebhookContext{})
		if err == nil || !strings.Contains(err.Error(), "Resource not accessible") {
			t.Errorf("expected API error surfaced, got %v", err)
		}
	})
}

func TestRegister(t *testing.T) {
	t.Run("With GitHub Client", func(t *testing.T) {
		mgr := newTestManager()
		registry := webhook.NewRegistry(mockLogger{})
		gh := pkgGitHub.NewClient(context.Background(), "tok")

		Register(registry, mgr, gh, mockLogger{})

		if _, ok := registry.GetProvider(webhook.ProviderGitHub); !ok {
			t.Error("expected github provider registered")
		}
		if _, ok := registry.GetProvider(webhook.ProviderOrchestration); !ok {
			t.Error("expected orchestration provider registered")
		}
		if got := registry.GetHandlers(webhook.ProviderOrchestration, "orchestrate"); len(got) != 1 {
			t.Errorf("expected exactly the orchestrate handler, got %d", len(got))
		}
		if got := registry.GetHandlers(webhook.ProviderOrchestration, "session"); len(got) != 1 {
			t.Errorf("expected only the single-session handler for bare session, got %d", len(got))
		}
		if got := registry.GetHandlers(webhook.ProviderGitHub, "issues.opened"); len(got) != 2 {
			t.Errorf("expected label and ack handlers, got %d", len(got))
		}
	})

	t.Run("Without GitHub Client", func(t *testing.T) {
		mgr := newTestManager()
		registry := webhook.NewRegistry(mockLogger{})

		Register(registry, mgr, nil, mockLogger{})

		if got := registry.GetHandlers(webhook.ProviderGitHub, "issues.opened"); len(got) != 0 {
			t.Errorf("expected no github handlers without client, got %d", len(got))
		}
	})
}
