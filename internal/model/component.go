package model

// ComponentPriority orders decomposed components.
type ComponentPriority string

const (
	PriorityHigh   ComponentPriority = "high"
	PriorityMedium ComponentPriority = "medium"
	PriorityLow    ComponentPriority = "low"
)

// TaskComponent is one named unit of a decomposed project. Dependencies
// reference other component names from the same decomposition.
type TaskComponent struct {
	Name         string            `json:"name"`
	Requirements string            `json:"requirements"`
	Dependencies []string          `json:"dependencies"`
	Priority     ComponentPriority `json:"priority"`
}
