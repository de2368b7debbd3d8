package github

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/teemow/mailtriage/internal/instrumentation"
)

// ReadmeBranch is the branch GetRepoReadme reads from.
const ReadmeBranch = "main"

// GetRepoReadme returns README.md from the main branch of repo. Any status
// other than 200 is returned as *StatusError.
func (c *Client) GetRepoReadme(ctx context.Context, repo string) (string, error) {
	if err := validateRepo(repo); err != nil {
		return "", err
	}

	url := c.rawURL + "/" + repo + "/" + ReadmeBranch + "/README.md"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.do(ctx, instrumentation.OperationGetReadme, repo, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{StatusCode: resp.StatusCode, URL: url}
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read README: %w", err)
	}
	return string(b), nil
}
