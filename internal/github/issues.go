package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/teemow/mailtriage/internal/instrumentation"
	"github.com/teemow/mailtriage/internal/logging"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 1 << 20

// IssueResult is the outcome of CreateIssue. HTMLURL is empty when GitHub
// did not create the issue.
type IssueResult struct {
	StatusCode int    `json:"status_code"`
	HTMLURL    string `json:"html_url"`
}

// String renders "STATUS URL".
func (r IssueResult) String() string {
	return fmt.Sprintf("%d %s", r.StatusCode, r.HTMLURL)
}

// Created reports whether GitHub answered 201.
func (r IssueResult) Created() bool {
	return r.StatusCode == http.StatusCreated
}

// CreateIssue opens an issue in repo. Non-2xx answers are returned as a
// result, not an error, so callers can report the status.
func (c *Client) CreateIssue(ctx context.Context, repo, title, body string) (*IssueResult, error) {
	if !c.HasToken() {
		return nil, ErrMissingToken
	}
	if err := validateRepo(repo); err != nil {
		return nil, err
	}
	if title == "" {
		return nil, fmt.Errorf("issue title is required")
	}

	payload, err := json.Marshal(struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}{title, body})
	if err != nil {
		return nil, fmt.Errorf("failed to encode issue: %w", err)
	}

	url := c.apiURL + "/repos/" + repo + "/issues"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(ctx, instrumentation.OperationCreateIssue, repo, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	result := &IssueResult{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(raw) > 0 {
		var issue struct {
			HTMLURL string `json:"html_url"`
		}
		// Error bodies are not always JSON; the status still goes back.
		if json.Unmarshal(raw, &issue) == nil {
			result.HTMLURL = issue.HTMLURL
		}
	}

	c.logger.Info("issue request completed",
		logging.Repo(repo),
		logging.Status(instrumentation.StatusClass(resp.StatusCode)))
	return result, nil
}
