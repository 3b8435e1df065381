package model

import "time"

// SessionType classifies what kind of work a session performs.
type SessionType string

const (
	SessionTypeAnalysis       SessionType = "analysis"
	SessionTypeImplementation SessionType = "implementation"
	SessionTypeTesting        SessionType = "testing"
	SessionTypeReview         SessionType = "review"
	SessionTypeCoordination   SessionType = "coordination"
)

// SessionStatus is the session lifecycle state. Transitions are monotonic:
// pending → running → completed|failed. Terminal states are final; recovery
// always creates a new session rather than resurrecting a terminal one.
type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusRunning   SessionStatus = "running"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusFailed    SessionStatus = "failed"
)

// Terminal reports whether the status is final.
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusFailed
}

// Project describes the repository and work a session runs against.
// Immutable after session creation.
type Project struct {
	Repository   string   `json:"repository"`
	Requirements string   `json:"requirements"`
	Constraints  []string `json:"constraints,omitempty"`
}

// ArtifactType distinguishes artifacts scraped from session output.
type ArtifactType string

const (
	ArtifactFile   ArtifactType = "file"
	ArtifactCommit ArtifactType = "commit"
)

// Artifact is one structured item extracted from session logs.
type Artifact struct {
	Type ArtifactType `json:"type"`
	Path string       `json:"path,omitempty"` // for file artifacts
	SHA  string       `json:"sha,omitempty"`  // for commit artifacts
}

// SessionOutput holds the parsed result of a finished session.
type SessionOutput struct {
	Logs      []string   `json:"logs"`
	Artifacts []Artifact `json:"artifacts"`
	Summary   string     `json:"summary,omitempty"`
	NextSteps []string   `json:"next_steps,omitempty"`
}

// Session is one scheduled unit of sandboxed execution work.
type Session struct {
	ID           string         `json:"id"`
	Type         SessionType    `json:"type"`
	Status       SessionStatus  `json:"status"`
	Project      Project        `json:"project"`
	Dependencies []string       `json:"dependencies,omitempty"` // session ids that must complete first
	ContainerID  string         `json:"container_id,omitempty"` // executor handle, set once at provisioning
	Output       *SessionOutput `json:"output,omitempty"`       // set only on terminal states
	Error        string         `json:"error,omitempty"`        // set only on failed
	CreatedAt    time.Time      `json:"created_at"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}
