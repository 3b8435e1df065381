// Package github is a minimal GitHub REST client covering the two write
// operations the webhook handlers need: issue comments and labels.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
)

const defaultAPIURL = "https://api.github.com"

// Client talks to the GitHub REST API v3.
type Client struct {
	apiURL     string
	httpClient *http.Client
}

// NewClient creates a GitHub client authenticated with a personal access or
// installation token.
func NewClient(ctx context.Context, token string) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &Client{
		apiURL:     defaultAPIURL,
		httpClient: oauth2.NewClient(ctx, src),
	}
}

// SetAPIURL overrides the API base URL, for GitHub Enterprise or tests.
func (c *Client) SetAPIURL(url string) {
	c.apiURL = url
}

// CreateIssueComment posts a comment on an issue or pull request.
// repo is "owner/name".
func (c *Client) CreateIssueComment(ctx context.Context, repo string, issueNumber int, body string) error {
	url := fmt.Sprintf("%s/repos/%s/issues/%d/comments", c.apiURL, repo, issueNumber)
	return c.post(ctx, url, commentRequest{Body: body})
}

// AddLabels attaches labels to an issue or pull request. repo is "owner/name".
func (c *Client) AddLabels(ctx context.Context, repo string, issueNumber int, labels []string) error {
	url := fmt.Sprintf("%s/repos/%s/issues/%d/labels", c.apiURL, repo, issueNumber)
	return c.post(ctx, url, labelsRequest{Labels: labels})
}

func (c *Client) post(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("github request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("github API error %d: %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("github API error %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}
