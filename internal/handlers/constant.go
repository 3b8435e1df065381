package handlers

// Handler priorities. Higher runs first; the label handler must precede the
// acknowledgement comment so the comment reflects the applied labels.
const (
	PriorityOrchestrate  = 100
	PrioritySession      = 90
	PriorityIssueLabel   = 20
	PriorityIssueComment = 10
)

// Log prefixes
const (
	LogPrefixOrchestrate = "internal.handlers.OrchestrateHandler.Handle"
	LogPrefixSession     = "internal.handlers.SingleSessionHandler.Handle"
	LogPrefixIssue       = "internal.handlers.IssueHandlers.Handle"
)

// TriageLabels are applied to issues picked up for agent work.
var TriageLabels = []string{"claude-hub", "triage"}

// mentionTrigger gates the acknowledgement comment: only issues that address
// the agent directly get a reply.
const mentionTrigger = "@claude"
