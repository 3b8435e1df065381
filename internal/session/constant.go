package session

import "claude-session-hub/internal/model"

// Log prefixes
const (
	LogPrefixCreate = "internal.session.Manager.CreateContainer"
	LogPrefixStart  = "internal.session.Manager.StartSession"
	LogPrefixQueue  = "internal.session.Manager.QueueSession"
	LogPrefixNotify = "internal.session.Manager.notifyWaitingSessions"
)

// Environment variables the executor entrypoint reads. COMMAND is delivered
// separately at start time.
const (
	EnvSessionID     = "SESSION_ID"
	EnvSessionType   = "SESSION_TYPE"
	EnvRepoFullName  = "REPO_FULL_NAME"
	EnvIssueNumber   = "ISSUE_NUMBER"
	EnvIsPullRequest = "IS_PULL_REQUEST"
	EnvBranchName    = "BRANCH_NAME"
	EnvOperationType = "OPERATION_TYPE"
)

// commandTemplates builds the natural-language instruction handed to the
// agent, one template per session type. Unknown types fall back to the raw
// requirements text.
var commandTemplates = map[model.SessionType]string{
	model.SessionTypeAnalysis:       "Analyze the repository %s and report on its architecture. Focus: %s",
	model.SessionTypeImplementation: "Implement the following in repository %s: %s",
	model.SessionTypeTesting:        "Write and run tests in repository %s covering: %s",
	model.SessionTypeReview:         "Review the latest changes in repository %s against these requirements: %s",
	model.SessionTypeCoordination:   "Coordinate and sequence the outstanding work in repository %s: %s",
}

// stderrPrefix marks stderr lines in the interleaved session log.
const stderrPrefix = "[stderr] "
