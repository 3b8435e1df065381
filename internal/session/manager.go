// Package session schedules sandboxed agent sessions: one container per
// session, started only once every declared dependency has completed.
package session

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"claude-session-hub/internal/model"
	"claude-session-hub/pkg/docker"
	pkgLog "claude-session-hub/pkg/log"
)

// Manager owns the session table and the dependent queue. All mutation goes
// through its mutex: sibling sessions complete on independent goroutines and
// must not start a shared dependent twice.
type Manager struct {
	executor Executor
	cfg      Config
	l        pkgLog.Logger

	mu       sync.Mutex
	sessions map[string]*model.Session
	waiters  map[string][]string // dependency session id → waiting session ids
}

// New creates a session manager over the given executor.
func New(executor Executor, cfg Config, l pkgLog.Logger) *Manager {
	return &Manager{
		executor: executor,
		cfg:      cfg,
		l:        l,
		sessions: make(map[string]*model.Session),
		waiters:  make(map[string][]string),
	}
}

// NewSession builds a pending session record. The id may be pre-assigned by
// the caller (orchestrations share an id prefix); otherwise one is generated.
func NewSession(id string, sessionType model.SessionType, project model.Project, dependencies []string) *model.Session {
	if id == "" {
		id = uuid.NewString()
	}
	return &model.Session{
		ID:           id,
		Type:         sessionType,
		Status:       model.SessionStatusPending,
		Project:      project,
		Dependencies: append([]string(nil), dependencies...),
		CreatedAt:    time.Now(),
	}
}

// CreateContainer provisions one container for the session, one-to-one, and
// records the session in the table. Provisioning failure propagates to the
// caller; nothing is recorded in that case.
func (m *Manager) CreateContainer(ctx context.Context, s *model.Session) (string, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	s.Status = model.SessionStatusPending

	containerID, err := m.executor.CreateContainer(ctx, docker.CreateOptions{
		Name:    m.containerName(s),
		Image:   m.cfg.Image,
		Env:     m.containerEnv(s),
		AuthDir: m.cfg.AuthDir,
	})
	if err != nil {
		return "", fmt.Errorf("failed to provision container for session %s: %w", s.ID, err)
	}
	s.ContainerID = containerID

	m.mu.Lock()
	m.sessions[s.ID] = cloneSession(s)
	m.mu.Unlock()

	m.l.Infof(ctx, "%s: provisioned container %s for session %s (%s)", LogPrefixCreate, containerID, s.ID, s.Type)
	return containerID, nil
}

// StartSession transitions the session to running and launches its container
// asynchronously. It returns once the launch goroutine is off; completion is
// observed via the executor's exit.
func (m *Manager) StartSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if s.ContainerID == "" {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNoContainer, sessionID)
	}
	if s.Status != model.SessionStatusPending {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", ErrAlreadyStarted, sessionID, s.Status)
	}

	now := time.Now()
	s.Status = model.SessionStatusRunning
	s.StartedAt = &now
	containerID := s.ContainerID
	command := buildCommand(s)
	m.mu.Unlock()

	m.l.Infof(ctx, "%s: starting session %s in container %s", LogPrefixStart, sessionID, containerID)
	go m.runSession(sessionID, containerID, command)
	return nil
}

// QueueSession starts the session immediately when every dependency is
// already completed, otherwise registers it as a waiter on each unmet
// dependency. A dependency that has already failed fails this session at
// once; dependents of a failed session are never left queued.
func (m *Manager) QueueSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	var unmet []string
	for _, dep := range s.Dependencies {
		d, exists := m.sessions[dep]
		if exists && d.Status == model.SessionStatusFailed {
			m.failLocked(s, fmt.Sprintf("dependency session %s failed", dep))
			m.mu.Unlock()
			m.failDependents(sessionID)
			return nil
		}
		if !exists || d.Status != model.SessionStatusCompleted {
			unmet = append(unmet, dep)
		}
	}

	if len(unmet) == 0 {
		m.mu.Unlock()
		return m.StartSession(ctx, sessionID)
	}

	for _, dep := range unmet {
		m.waiters[dep] = append(m.waiters[dep], sessionID)
	}
	m.mu.Unlock()

	m.l.Infof(ctx, "%s: session %s waiting on %s", LogPrefixQueue, sessionID, strings.Join(unmet, ", "))
	return nil
}

// GetSession returns a copy of the session record.
func (m *Manager) GetSession(id string) (model.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return model.Session{}, false
	}
	return *cloneSession(s), true
}

// GetOrchestrationSessions returns all sessions whose id carries the given
// prefix, ordered by creation time. This is a filter convenience, not an
// index.
func (m *Manager) GetOrchestrationSessions(prefix string) []model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Session, 0)
	for id, s := range m.sessions {
		if strings.HasPrefix(id, prefix) {
			out = append(out, *cloneSession(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// ListSessions returns all sessions ordered by creation time.
func (m *Manager) ListSessions() []model.Session {
	return m.GetOrchestrationSessions("")
}

// ActiveSessionCount counts sessions that have not reached a terminal state.
func (m *Manager) ActiveSessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, s := range m.sessions {
		if !s.Status.Terminal() {
			n++
		}
	}
	return n
}

// RecoverSession creates a fresh session copying a terminal session's type,
// project, and dependencies, provisions a new container, and queues it.
// Terminal sessions are never resurrected.
func (m *Manager) RecoverSession(ctx context.Context, sessionID string) (model.Session, error) {
	m.mu.Lock()
	orig, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return model.Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if !orig.Status.Terminal() {
		m.mu.Unlock()
		return model.Session{}, fmt.Errorf("%w: %s is %s", ErrNotTerminal, sessionID, orig.Status)
	}
	replacement := NewSession("", orig.Type, orig.Project, orig.Dependencies)
	m.mu.Unlock()

	if _, err := m.CreateContainer(ctx, replacement); err != nil {
		return model.Session{}, err
	}
	if err := m.QueueSession(ctx, replacement.ID); err != nil {
		return model.Session{}, err
	}

	recovered, _ := m.GetSession(replacement.ID)
	return recovered, nil
}

// runSession drives one container to completion on its own goroutine. This
// is the single place where terminal transitions happen, which guarantees
// the dependency cascade fires at most once per session.
func (m *Manager) runSession(sessionID, containerID, command string) {
	ctx := context.Background()
	var cancel context.CancelFunc
	if m.cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, m.cfg.Timeout)
		defer cancel()
	}

	var logs []string
	exitCode, runErr := m.executor.RunSession(ctx, containerID, command, func(line docker.LogLine) {
		text := line.Text
		if line.Stderr {
			text = stderrPrefix + text
		}
		logs = append(logs, text)
	})

	timedOut := ctx.Err() == context.DeadlineExceeded
	if timedOut {
		// The CLI process is already dead; the container needs a real stop.
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := m.executor.StopContainer(stopCtx, containerID); err != nil {
			m.l.Warnf(stopCtx, "%s: failed to stop timed-out container %s: %v", LogPrefixStart, containerID, err)
		}
		stopCancel()
	}

	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return
	}
	now := time.Now()
	s.CompletedAt = &now
	s.Output = parseOutput(logs)
	switch {
	case timedOut:
		s.Status = model.SessionStatusFailed
		s.Error = fmt.Sprintf("session timed out after %s", m.cfg.Timeout)
	case runErr != nil:
		s.Status = model.SessionStatusFailed
		s.Error = runErr.Error()
	case exitCode != 0:
		s.Status = model.SessionStatusFailed
		s.Error = fmt.Sprintf("session exited with code %d", exitCode)
	default:
		s.Status = model.SessionStatusCompleted
	}
	status := s.Status
	m.mu.Unlock()

	m.l.Infof(ctx, "%s: session %s finished as %s", LogPrefixStart, sessionID, status)

	if status == model.SessionStatusCompleted {
		m.notifyWaitingSessions(sessionID)
	} else {
		m.failDependents(sessionID)
	}
}

// notifyWaitingSessions re-evaluates every waiter of the completed session.
// Each waiter's FULL dependency set is re-checked, not just the dependency
// that completed: two dependencies may finish in either order, and the
// waiter must start exactly once, on the last one.
func (m *Manager) notifyWaitingSessions(completedSessionID string) {
	m.mu.Lock()
	waiting := m.waiters[completedSessionID]
	delete(m.waiters, completedSessionID)

	var toStart []string
	toFail := make(map[string]string) // waiter id → failed dependency id
	for _, wid := range waiting {
		w, ok := m.sessions[wid]
		if !ok || w.Status != model.SessionStatusPending {
			continue // already started via another dependency's cascade
		}

		ready := true
		for _, dep := range w.Dependencies {
			d, exists := m.sessions[dep]
			if !exists || d.Status != model.SessionStatusCompleted {
				ready = false
				if exists && d.Status == model.SessionStatusFailed {
					toFail[wid] = dep
				}
				break
			}
		}
		if ready {
			toStart = append(toStart, wid)
		}
	}
	m.mu.Unlock()

	ctx := context.Background()
	for wid, dep := range toFail {
		m.failSession(wid, fmt.Sprintf("dependency session %s failed", dep))
	}
	for _, wid := range toStart {
		if err := m.StartSession(ctx, wid); err != nil {
			// A sibling cascade can win the race; ErrAlreadyStarted is benign.
			m.l.Warnf(ctx, "%s: could not start %s: %v", LogPrefixNotify, wid, err)
		}
	}
}

// failDependents propagates a failure to every queued waiter of the failed
// session, transitively. Leaving them queued forever would starve the
// scheduler.
func (m *Manager) failDependents(failedSessionID string) {
	m.mu.Lock()
	waiting := m.waiters[failedSessionID]
	delete(m.waiters, failedSessionID)

	var failed []string
	for _, wid := range waiting {
		w, ok := m.sessions[wid]
		if !ok || w.Status != model.SessionStatusPending {
			continue
		}
		m.failLocked(w, fmt.Sprintf("dependency session %s failed", failedSessionID))
		failed = append(failed, wid)
	}
	m.mu.Unlock()

	for _, wid := range failed {
		m.l.Warnf(context.Background(), "%s: session %s failed: dependency %s failed", LogPrefixNotify, wid, failedSessionID)
		m.failDependents(wid)
	}
}

// failSession marks a pending session failed and cascades.
func (m *Manager) failSession(sessionID, reason string) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if !ok || s.Status.Terminal() {
		m.mu.Unlock()
		return
	}
	m.failLocked(s, reason)
	m.mu.Unlock()

	m.failDependents(sessionID)
}

// failLocked transitions a session to failed. Caller holds the lock.
func (m *Manager) failLocked(s *model.Session, reason string) {
	now := time.Now()
	s.Status = model.SessionStatusFailed
	s.Error = reason
	s.CompletedAt = &now
}

func (m *Manager) containerName(s *model.Session) string {
	short := s.ID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s-%s-%s", m.cfg.ContainerPrefix, s.Type, short)
}

func (m *Manager) containerEnv(s *model.Session) map[string]string {
	env := map[string]string{
		EnvSessionID:     s.ID,
		EnvSessionType:   string(s.Type),
		EnvOperationType: string(s.Type),
		EnvRepoFullName:  s.Project.Repository,
		EnvIsPullRequest: "false",
		EnvIssueNumber:   "",
		EnvBranchName:    "",
	}
	for k, v := range m.cfg.Credentials {
		env[k] = v
	}
	return env
}

// buildCommand renders the agent instruction for a session from its type's
// template, falling back to the raw requirements for unknown types.
func buildCommand(s *model.Session) string {
	tmpl, ok := commandTemplates[s.Type]
	if !ok {
		return s.Project.Requirements
	}
	return fmt.Sprintf(tmpl, s.Project.Repository, s.Project.Requirements)
}

func cloneSession(s *model.Session) *model.Session {
	c := *s
	c.Dependencies = append([]string(nil), s.Dependencies...)
	if s.Output != nil {
		o := *s.Output
		o.Logs = append([]string(nil), s.Output.Logs...)
		o.Artifacts = append([]model.Artifact(nil), s.Output.Artifacts...)
		o.NextSteps = append([]string(nil), s.Output.NextSteps...)
		c.Output = &o
	}
	return &c
}
