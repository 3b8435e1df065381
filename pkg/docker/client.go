// Package docker is a thin client over the docker CLI used to provision and
// drive one sandbox container per session. Only exit codes and stdout/stderr
// text are interpreted; everything inside the container is opaque.
package docker

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Client drives containers through the docker binary.
type Client struct {
	bin    string
	runner CommandRunner
}

// NewClient creates a docker client. bin defaults to "docker".
func NewClient(bin string, runner CommandRunner) *Client {
	if bin == "" {
		bin = "docker"
	}
	if runner == nil {
		runner = NewRunner()
	}
	return &Client{bin: bin, runner: runner}
}

// CreateContainer provisions a stopped container and returns its id.
// The container is created without a command; work is injected later through
// the COMMAND environment variable and RunSession.
func (c *Client) CreateContainer(ctx context.Context, opts CreateOptions) (string, error) {
	args := []string{"create", "--name", opts.Name}

	// Deterministic env ordering keeps create calls reproducible in tests.
	keys := make([]string, 0, len(opts.Env))
	for k := range opts.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, opts.Env[k]))
	}

	if opts.AuthDir != "" {
		args = append(args, "-v", fmt.Sprintf("%s:/root/.claude-auth:ro", opts.AuthDir))
	}
	args = append(args, opts.Image)

	out, err := c.runner.Run(ctx, c.bin, args...)
	if err != nil {
		return "", fmt.Errorf("docker create: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// StartContainer starts a created container.
func (c *Client) StartContainer(ctx context.Context, containerID string) error {
	if _, err := c.runner.Run(ctx, c.bin, "start", containerID); err != nil {
		return fmt.Errorf("docker start: %w", err)
	}
	return nil
}

// StopContainer stops a running container.
func (c *Client) StopContainer(ctx context.Context, containerID string) error {
	if _, err := c.runner.Run(ctx, c.bin, "stop", containerID); err != nil {
		return fmt.Errorf("docker stop: %w", err)
	}
	return nil
}

// RemoveContainer force-removes a container.
func (c *Client) RemoveContainer(ctx context.Context, containerID string) error {
	if _, err := c.runner.Run(ctx, c.bin, "rm", "-f", containerID); err != nil {
		return fmt.Errorf("docker rm: %w", err)
	}
	return nil
}

// Exec runs a command inside a running container and returns its output.
func (c *Client) Exec(ctx context.Context, containerID string, command ...string) ([]byte, error) {
	args := append([]string{"exec", containerID}, command...)
	out, err := c.runner.Run(ctx, c.bin, args...)
	if err != nil {
		return out, fmt.Errorf("docker exec: %w", err)
	}
	return out, nil
}

// Logs returns the full log output of a container.
func (c *Client) Logs(ctx context.Context, containerID string) ([]byte, error) {
	out, err := c.runner.Run(ctx, c.bin, "logs", containerID)
	if err != nil {
		return out, fmt.Errorf("docker logs: %w", err)
	}
	return out, nil
}

// IsRunning reports whether the container is currently running.
func (c *Client) IsRunning(ctx context.Context, containerID string) (bool, error) {
	out, err := c.runner.Run(ctx, c.bin, "inspect", "-f", "{{.State.Running}}", containerID)
	if err != nil {
		return false, fmt.Errorf("docker inspect: %w", err)
	}
	running, err := strconv.ParseBool(strings.TrimSpace(string(out)))
	if err != nil {
		return false, fmt.Errorf("docker inspect: unexpected output %q", strings.TrimSpace(string(out)))
	}
	return running, nil
}

// sessionEntrypoint is the in-container script that reads COMMAND and runs
// the agent. The script itself is shipped with the image, not by this code.
const sessionEntrypoint = "/entrypoint.sh"

// RunSession starts the container, then executes the session entrypoint with
// the command delivered through the COMMAND environment variable, never as a
// shell-interpolated argument. Output lines stream to onLine as they arrive;
// the call blocks until the entrypoint exits and returns its exit code.
// Callers run this on their own goroutine.
func (c *Client) RunSession(ctx context.Context, containerID, command string, onLine func(LogLine)) (int, error) {
	if err := c.StartContainer(ctx, containerID); err != nil {
		return -1, err
	}
	return c.runner.Stream(ctx, onLine, c.bin,
		"exec", "-e", "COMMAND="+command, containerID, sessionEntrypoint)
}
