// Package decompose splits a project's requirements into named components
// with priorities and dependency edges. It is a deterministic keyword
// classifier, not a planner: the matching rule is replaceable, but the
// output is always total and dependency-acyclic.
package decompose

import (
	"fmt"
	"strings"

	"claude-session-hub/internal/model"
)

// category is one fixed component category. Order matters: dependency edges
// only ever point at categories earlier in this list, which makes cycles
// impossible by construction.
type category struct {
	name     string
	keywords []string
	priority model.ComponentPriority
	// dependsOn lists candidate dependencies; an edge is emitted only when
	// the target category is itself present.
	dependsOn []string
}

var categories = []category{
	{name: "backend", keywords: []string{"backend", "server", "database", "db", "storage"}, priority: model.PriorityHigh},
	{name: "auth", keywords: []string{"auth", "authentication", "login", "oauth", "security"}, priority: model.PriorityHigh},
	{name: "api", keywords: []string{"api", "rest", "endpoint", "graphql"}, priority: model.PriorityHigh, dependsOn: []string{"backend"}},
	{name: "frontend", keywords: []string{"frontend", "ui", "react", "vue", "angular"}, priority: model.PriorityMedium, dependsOn: []string{"api"}},
	{name: "testing", keywords: []string{"test", "testing", "qa", "coverage"}, priority: model.PriorityLow, dependsOn: []string{"backend", "api", "frontend"}},
	{name: "deployment", keywords: []string{"deploy", "deployment", "docker", "kubernetes", "ci/cd"}, priority: model.PriorityLow, dependsOn: []string{"backend", "api", "frontend", "testing"}},
}

// Decompose scans the project requirements for component categories and
// emits one component per detected category, with dependency edges drawn
// only between categories that are actually present. When nothing matches it
// falls back to a single implementation component carrying the full
// requirements.
func Decompose(project model.Project) Decomposition {
	lower := strings.ToLower(project.Requirements)

	// First pass: which categories are present at all.
	present := make(map[string]bool, len(categories))
	for _, cat := range categories {
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				present[cat.name] = true
				break
			}
		}
	}

	if len(present) == 0 {
		return Decomposition{
			Components: []model.TaskComponent{{
				Name:         "implementation",
				Requirements: project.Requirements,
				Dependencies: []string{},
				Priority:     model.PriorityHigh,
			}},
			Strategy:          StrategySequential,
			EstimatedSessions: 1 + sessionOverhead,
		}
	}

	// Second pass: build components in fixed category order.
	components := make([]model.TaskComponent, 0, len(present))
	hasDeps := false
	for _, cat := range categories {
		if !present[cat.name] {
			continue
		}

		deps := make([]string, 0, len(cat.dependsOn))
		for _, dep := range cat.dependsOn {
			if present[dep] {
				deps = append(deps, dep)
			}
		}
		if len(deps) > 0 {
			hasDeps = true
		}

		components = append(components, model.TaskComponent{
			Name:         cat.name,
			Requirements: extractRequirements(project.Requirements, cat),
			Dependencies: deps,
			Priority:     cat.priority,
		})
	}

	strategy := StrategySequential
	switch {
	case hasDeps:
		strategy = StrategyWaitForCore
	case len(components) > 3:
		strategy = StrategyParallel
	}

	return Decomposition{
		Components:        components,
		Strategy:          strategy,
		EstimatedSessions: len(components) + sessionOverhead,
	}
}

// sessionOverhead is the fixed allowance for analysis/testing/review
// sessions beyond the per-component ones.
const sessionOverhead = 3

// extractRequirements keeps only the sentences mentioning one of the
// category's keywords. When the keyword was detected but no single sentence
// carries it (e.g. it spans a clause boundary), a generic fallback keeps the
// component total.
func extractRequirements(requirements string, cat category) string {
	var matched []string
	for _, sentence := range splitSentences(requirements) {
		sLower := strings.ToLower(sentence)
		for _, kw := range cat.keywords {
			if strings.Contains(sLower, kw) {
				matched = append(matched, sentence)
				break
			}
		}
	}
	if len(matched) == 0 {
		return fmt.Sprintf("Implement %s", cat.name)
	}
	return strings.Join(matched, ". ")
}

func splitSentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
