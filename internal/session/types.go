package session

import (
	"context"
	"time"

	"claude-session-hub/pkg/docker"
)

// Executor is the opaque sandboxed process host the scheduler drives. Only
// exit codes and output text are interpreted. pkg/docker.Client is the
// production implementation.
type Executor interface {
	CreateContainer(ctx context.Context, opts docker.CreateOptions) (string, error)
	RunSession(ctx context.Context, containerID, command string, onLine func(docker.LogLine)) (int, error)
	StopContainer(ctx context.Context, containerID string) error
	IsRunning(ctx context.Context, containerID string) (bool, error)
}

// Config holds scheduler settings.
type Config struct {
	Image           string            // container image for sessions
	AuthDir         string            // credential mount, passed to the executor
	ContainerPrefix string            // display-name prefix
	Credentials     map[string]string // credential env injected into every container
	Timeout         time.Duration     // per-session wall clock; 0 disables
}
