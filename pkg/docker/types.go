package docker

import "context"

// CreateOptions describes a container to provision.
type CreateOptions struct {
	Name    string            // display name
	Image   string            // container image
	Env     map[string]string // environment injected into the container
	AuthDir string            // host dir mounted read-only at /root/.claude-auth
}

// LogLine is one line of container output in arrival order.
type LogLine struct {
	Text   string
	Stderr bool
}

// CommandRunner executes the docker binary. Abstracted so client tests can
// run without a docker daemon.
type CommandRunner interface {
	// Run executes the command and returns stdout. Stderr is folded into the
	// returned error on nonzero exit.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)

	// Stream executes the command, invoking onLine for every stdout/stderr
	// line as it arrives, and returns the process exit code.
	Stream(ctx context.Context, onLine func(LogLine), name string, args ...string) (int, error)
}
