package webhook

// Log prefixes
const (
	LogPrefixProcess = "internal.webhook.Processor.ProcessWebhook"
	LogPrefixIntake  = "internal.webhook.Handler.HandleWebhook"
)

// Provider names accepted at the HTTP boundary.
const (
	ProviderGitHub        = "github"
	ProviderOrchestration = "claude"
)
