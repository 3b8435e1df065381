// Package handlers holds the event handlers registered on the webhook
// pipeline: the orchestration bridge into the session scheduler and the
// GitHub issue responders.
package handlers

import (
	"claude-session-hub/internal/session"
	"claude-session-hub/internal/webhook"
	pkgGitHub "claude-session-hub/pkg/github"
	pkgLog "claude-session-hub/pkg/log"
)

// Register wires every handler into the registry. Called once from main
// after providers are registered.
func Register(registry *webhook.Registry, mgr *session.Manager, gh *pkgGitHub.Client, l pkgLog.Logger) {
	registry.RegisterProvider(webhook.NewGitHubProvider())
	registry.RegisterProvider(webhook.NewOrchestrationProvider())

	registry.RegisterHandler(webhook.ProviderOrchestration, NewOrchestrateHandler(mgr, l))
	registry.RegisterHandler(webhook.ProviderOrchestration, NewSingleSessionHandler(mgr, l))
	registry.RegisterHandler(webhook.ProviderOrchestration, NewSessionCreateHandler(mgr, l))
	registry.RegisterHandler(webhook.ProviderOrchestration, NewSessionStatusHandler(mgr, l))

	if gh != nil {
		registry.RegisterHandler(webhook.ProviderGitHub, NewIssueLabelHandler(gh, l))
		registry.RegisterHandler(webhook.ProviderGitHub, NewIssueAckHandler(gh, l))
	}
}
