package handlers

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"claude-session-hub/internal/decompose"
	"claude-session-hub/internal/model"
	"claude-session-hub/internal/session"
	"claude-session-hub/internal/webhook"
	pkgLog "claude-session-hub/pkg/log"
)

// OrchestrateHandler decomposes a project into components and schedules one
// dependency-gated session per component. It serves both "orchestrate" and
// "coordinate"; the latter may override the computed strategy.
type OrchestrateHandler struct {
	mgr *session.Manager
	l   pkgLog.Logger
}

var _ webhook.Handler = (*OrchestrateHandler)(nil)

func NewOrchestrateHandler(mgr *session.Manager, l pkgLog.Logger) *OrchestrateHandler {
	return &OrchestrateHandler{mgr: mgr, l: l}
}

func (h *OrchestrateHandler) EventPattern() string { return "^(orchestrate|coordinate)$" }
func (h *OrchestrateHandler) Priority() int        { return PriorityOrchestrate }

func (h *OrchestrateHandler) Handle(ctx context.Context, payload *model.WebhookPayload, wctx *model.WebhookContext) (model.HandlerResponse, error) {
	req, err := webhook.DecodeOrchestration(payload)
	if err != nil {
		return model.HandlerResponse{}, err
	}

	decomp := decompose.Decompose(*req.Project)

	// An explicit dependencyMode of "ignore" strips the dependency edges so
	// every component runs concurrently.
	if req.Strategy != nil && req.Strategy.DependencyMode == "ignore" {
		for i := range decomp.Components {
			decomp.Components[i].Dependencies = []string{}
		}
		decomp.Strategy = decompose.StrategyParallel
	}

	orchestrationID := "orch-" + uuid.NewString()[:8]

	// Component names become session ids sharing the orchestration prefix,
	// so the whole batch is retrievable via GetOrchestrationSessions.
	sessionIDs := make(map[string]string, len(decomp.Components))
	for _, comp := range decomp.Components {
		sessionIDs[comp.Name] = orchestrationID + "-" + comp.Name
	}

	created := make([]string, 0, len(decomp.Components))
	for _, comp := range decomp.Components {
		deps := make([]string, 0, len(comp.Dependencies))
		for _, dep := range comp.Dependencies {
			deps = append(deps, sessionIDs[dep])
		}

		s := session.NewSession(sessionIDs[comp.Name], sessionTypeFor(comp), model.Project{
			Repository:   req.Project.Repository,
			Requirements: comp.Requirements,
			Constraints:  req.Project.Constraints,
		}, deps)

		if _, err := h.mgr.CreateContainer(ctx, s); err != nil {
			return model.HandlerResponse{}, fmt.Errorf("failed to provision component %s: %w", comp.Name, err)
		}
		created = append(created, s.ID)
	}

	// Queue only after every container exists: dependency ids must be
	// resolvable in the session table before the first cascade can fire.
	for _, id := range created {
		if err := h.mgr.QueueSession(ctx, id); err != nil {
			return model.HandlerResponse{}, fmt.Errorf("failed to queue session %s: %w", id, err)
		}
	}

	h.l.Infof(ctx, "%s: orchestration %s scheduled %d sessions (%s)", LogPrefixOrchestrate, orchestrationID, len(created), decomp.Strategy)

	return model.HandlerResponse{
		Success: true,
		Message: fmt.Sprintf("Scheduled %d sessions for %s", len(created), req.Project.Repository),
		Data: map[string]any{
			"orchestration_id":   orchestrationID,
			"sessions":           created,
			"strategy":           decomp.Strategy,
			"estimated_sessions": decomp.EstimatedSessions,
		},
	}, nil
}

// sessionTypeFor maps a decomposed component to the session type that runs
// it. Testing components get a testing session; everything else is
// implementation work.
func sessionTypeFor(comp model.TaskComponent) model.SessionType {
	if comp.Name == "testing" {
		return model.SessionTypeTesting
	}
	return model.SessionTypeImplementation
}

// SingleSessionHandler schedules exactly one session for a project, with
// caller-supplied dependencies. The pattern is anchored: a bare "session"
// would regex-match "session.create" too.
type SingleSessionHandler struct {
	mgr *session.Manager
	l   pkgLog.Logger
}

var _ webhook.Handler = (*SingleSessionHandler)(nil)

func NewSingleSessionHandler(mgr *session.Manager, l pkgLog.Logger) *SingleSessionHandler {
	return &SingleSessionHandler{mgr: mgr, l: l}
}

func (h *SingleSessionHandler) EventPattern() string { return "^session$" }
func (h *SingleSessionHandler) Priority() int        { return PrioritySession }

func (h *SingleSessionHandler) Handle(ctx context.Context, payload *model.WebhookPayload, wctx *model.WebhookContext) (model.HandlerResponse, error) {
	req, err := webhook.DecodeOrchestration(payload)
	if err != nil {
		return model.HandlerResponse{}, err
	}

	s := session.NewSession("", model.SessionTypeImplementation, *req.Project, req.Dependencies)
	if _, err := h.mgr.CreateContainer(ctx, s); err != nil {
		return model.HandlerResponse{}, err
	}
	if err := h.mgr.QueueSession(ctx, s.ID); err != nil {
		return model.HandlerResponse{}, err
	}

	h.l.Infof(ctx, "%s: scheduled session %s for %s", LogPrefixSession, s.ID, req.Project.Repository)

	return model.HandlerResponse{
		Success: true,
		Message: fmt.Sprintf("Scheduled session %s", s.ID),
		Data:    map[string]any{"session_id": s.ID},
	}, nil
}

// SessionCreateHandler schedules one session from an explicit session spec.
type SessionCreateHandler struct {
	mgr *session.Manager
	l   pkgLog.Logger
}

var _ webhook.Handler = (*SessionCreateHandler)(nil)

func NewSessionCreateHandler(mgr *session.Manager, l pkgLog.Logger) *SessionCreateHandler {
	return &SessionCreateHandler{mgr: mgr, l: l}
}

func (h *SessionCreateHandler) EventPattern() string { return "session.create" }
func (h *SessionCreateHandler) Priority() int        { return PrioritySession }

func (h *SessionCreateHandler) Handle(ctx context.Context, payload *model.WebhookPayload, wctx *model.WebhookContext) (model.HandlerResponse, error) {
	req, err := webhook.DecodeOrchestration(payload)
	if err != nil {
		return model.HandlerResponse{}, err
	}

	spec := req.Session
	sessionType := spec.Type
	if sessionType == "" {
		sessionType = model.SessionTypeImplementation
	}

	s := session.NewSession(req.SessionID, sessionType, spec.Project, spec.Dependencies)
	if _, err := h.mgr.CreateContainer(ctx, s); err != nil {
		return model.HandlerResponse{}, err
	}
	if err := h.mgr.QueueSession(ctx, s.ID); err != nil {
		return model.HandlerResponse{}, err
	}

	return model.HandlerResponse{
		Success: true,
		Message: fmt.Sprintf("Created session %s", s.ID),
		Data:    map[string]any{"session_id": s.ID},
	}, nil
}

// SessionStatusHandler returns the current record of one session.
type SessionStatusHandler struct {
	mgr *session.Manager
	l   pkgLog.Logger
}

var _ webhook.Handler = (*SessionStatusHandler)(nil)

func NewSessionStatusHandler(mgr *session.Manager, l pkgLog.Logger) *SessionStatusHandler {
	return &SessionStatusHandler{mgr: mgr, l: l}
}

func (h *SessionStatusHandler) EventPattern() string { return "session.status" }
func (h *SessionStatusHandler) Priority() int        { return PrioritySession }

func (h *SessionStatusHandler) Handle(ctx context.Context, payload *model.WebhookPayload, wctx *model.WebhookContext) (model.HandlerResponse, error) {
	req, err := webhook.DecodeOrchestration(payload)
	if err != nil {
		return model.HandlerResponse{}, err
	}
	if req.SessionID == "" {
		return model.HandlerResponse{Success: false, Error: "sessionId is required"}, nil
	}

	s, ok := h.mgr.GetSession(req.SessionID)
	if !ok {
		return model.HandlerResponse{Success: false, Error: fmt.Sprintf("session %s not found", req.SessionID)}, nil
	}

	return model.HandlerResponse{
		Success: true,
		Message: fmt.Sprintf("Session %s is %s", s.ID, s.Status),
		Data:    map[string]any{"session": s},
	}, nil
}
