package decompose

import "claude-session-hub/internal/model"

// Strategy tags how the decomposed components should be executed.
type Strategy string

const (
	StrategyWaitForCore Strategy = "wait_for_core"
	StrategyParallel    Strategy = "parallel"
	StrategySequential  Strategy = "sequential"
)

// Decomposition is the result of splitting a project into components.
type Decomposition struct {
	Components        []model.TaskComponent `json:"components"`
	Strategy          Strategy              `json:"strategy"`
	EstimatedSessions int                   `json:"estimated_sessions"`
}
