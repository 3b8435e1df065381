package session

import (
	"strings"

	"claude-session-hub/internal/model"
)

// Output markers the agent entrypoint is expected, but not required, to
// emit. Parsing is best-effort text scraping: lines without markers stay in
// the raw log and never cause a failure.
const (
	markerCreatedFile = "Created file:"
	markerCommitted   = "Committed:"
	markerSummary     = "Summary:"
	markerNextStep    = "Next step:"
)

// parseOutput scrapes structured artifacts out of the accumulated session
// logs. It is total: any input produces a valid output with the full log
// retained.
func parseOutput(logs []string) *model.SessionOutput {
	out := &model.SessionOutput{
		Logs:      logs,
		Artifacts: []model.Artifact{},
	}

	for _, line := range logs {
		switch {
		case strings.Contains(line, markerCreatedFile):
			if path := afterMarker(line, markerCreatedFile); path != "" {
				out.Artifacts = append(out.Artifacts, model.Artifact{
					Type: model.ArtifactFile,
					Path: path,
				})
			}
		case strings.Contains(line, markerCommitted):
			if rest := afterMarker(line, markerCommitted); rest != "" {
				// First token is the sha; anything after is the subject line.
				sha := rest
				if i := strings.IndexByte(rest, ' '); i > 0 {
					sha = rest[:i]
				}
				out.Artifacts = append(out.Artifacts, model.Artifact{
					Type: model.ArtifactCommit,
					SHA:  sha,
				})
			}
		case strings.Contains(line, markerSummary):
			if s := afterMarker(line, markerSummary); s != "" {
				out.Summary = s
			}
		case strings.Contains(line, markerNextStep):
			if s := afterMarker(line, markerNextStep); s != "" {
				out.NextSteps = append(out.NextSteps, s)
			}
		}
	}

	return out
}

func afterMarker(line, marker string) string {
	i := strings.Index(line, marker)
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(line[i+len(marker):])
}
