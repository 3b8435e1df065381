package handlers

import (
	"context"
	"fmt"
	"strings"

	"claude-session-hub/internal/model"
	"claude-session-hub/internal/webhook"
	pkgGitHub "claude-session-hub/pkg/github"
	pkgLog "claude-session-hub/pkg/log"
)

// issueRef pulls the repository and issue number out of a GitHub payload.
func issueRef(payload *model.WebhookPayload) (repo string, number int, ok bool) {
	if r, k := payload.Data["repository"].(map[string]any); k {
		repo, _ = r["full_name"].(string)
	}
	if issue, k := payload.Data["issue"].(map[string]any); k {
		if n, k := issue["number"].(float64); k {
			number = int(n)
		}
	}
	return repo, number, repo != "" && number > 0
}

// issueBody returns the issue's title and body concatenated.
func issueBody(payload *model.WebhookPayload) string {
	issue, ok := payload.Data["issue"].(map[string]any)
	if !ok {
		return ""
	}
	title, _ := issue["title"].(string)
	body, _ := issue["body"].(string)
	return title + "\n" + body
}

// IssueLabelHandler applies triage labels to newly opened issues. It runs at
// a higher priority than the acknowledgement comment so the comment observes
// the labels already applied.
type IssueLabelHandler struct {
	gh *pkgGitHub.Client
	l  pkgLog.Logger
}

var _ webhook.Handler = (*IssueLabelHandler)(nil)

func NewIssueLabelHandler(gh *pkgGitHub.Client, l pkgLog.Logger) *IssueLabelHandler {
	return &IssueLabelHandler{gh: gh, l: l}
}

func (h *IssueLabelHandler) EventPattern() string { return "issues.opened" }
func (h *IssueLabelHandler) Priority() int        { return PriorityIssueLabel }

func (h *IssueLabelHandler) Handle(ctx context.Context, payload *model.WebhookPayload, wctx *model.WebhookContext) (model.HandlerResponse, error) {
	repo, number, ok := issueRef(payload)
	if !ok {
		return model.HandlerResponse{Success: false, Error: "payload has no issue reference"}, nil
	}

	if err := h.gh.AddLabels(ctx, repo, number, TriageLabels); err != nil {
		return model.HandlerResponse{}, fmt.Errorf("failed to label %s#%d: %w", repo, number, err)
	}

	h.l.Infof(ctx, "%s: labeled %s#%d", LogPrefixIssue, repo, number)
	return model.HandlerResponse{
		Success: true,
		Message: fmt.Sprintf("Labeled %s#%d", repo, number),
		Data:    map[string]any{"labels": TriageLabels},
	}, nil
}

// IssueAckHandler posts an acknowledgement comment on issues that mention
// the agent. CanHandle gates on the mention so unrelated issues are skipped
// without recording a result.
type IssueAckHandler struct {
	gh *pkgGitHub.Client
	l  pkgLog.Logger
}

var (
	_ webhook.Handler            = (*IssueAckHandler)(nil)
	_ webhook.ConditionalHandler = (*IssueAckHandler)(nil)
)

func NewIssueAckHandler(gh *pkgGitHub.Client, l pkgLog.Logger) *IssueAckHandler {
	return &IssueAckHandler{gh: gh, l: l}
}

func (h *IssueAckHandler) EventPattern() string { return "issues.*" }
func (h *IssueAckHandler) Priority() int        { return PriorityIssueComment }

func (h *IssueAckHandler) CanHandle(payload *model.WebhookPayload, wctx *model.WebhookContext) bool {
	return strings.Contains(issueBody(payload), mentionTrigger)
}

func (h *IssueAckHandler) Handle(ctx context.Context, payload *model.WebhookPayload, wctx *model.WebhookContext) (model.HandlerResponse, error) {
	repo, number, ok := issueRef(payload)
	if !ok {
		return model.HandlerResponse{Success: false, Error: "payload has no issue reference"}, nil
	}

	comment := "I've picked this up and will start a work session shortly."
	if err := h.gh.CreateIssueComment(ctx, repo, number, comment); err != nil {
		return model.HandlerResponse{}, fmt.Errorf("failed to comment on %s#%d: %w", repo, number, err)
	}

	h.l.Infof(ctx, "%s: acknowledged %s#%d", LogPrefixIssue, repo, number)
	return model.HandlerResponse{
		Success: true,
		Message: fmt.Sprintf("Acknowledged %s#%d", repo, number),
	}, nil
}
