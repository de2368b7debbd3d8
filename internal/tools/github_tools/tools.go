// Package github_tools exposes GitHub issue creation and README reads.
//
// Results follow the plain text conventions the agent prompts expect:
// "STATUS URL" for issues, the README text or "error STATUS" for reads and
// "missing GITHUB_TOKEN" when issues cannot be created.
package github_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/teemow/mailtriage/internal/github"
	"github.com/teemow/mailtriage/internal/tools"
)

const (
	ToolGetRepoReadme     = "get_repo_readme"
	ToolCreateGitHubIssue = "create_github_issue"
)

// Client is the part of the GitHub client the tools use.
type Client interface {
	CreateIssue(ctx context.Context, repo, title, body string) (*github.IssueResult, error)
	GetRepoReadme(ctx context.Context, repo string) (string, error)
}

var _ Client = (*github.Client)(nil)

// New returns both GitHub tools. defaultRepo is used when a call omits repo.
func New(client Client, defaultRepo string) []tools.Tool {
	return []tools.Tool{
		&getRepoReadme{client: client, defaultRepo: defaultRepo},
		&createIssue{client: client, defaultRepo: defaultRepo},
	}
}

type repoParams struct {
	Repo  string `json:"repo"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

func resolveRepo(repo, defaultRepo string) (string, error) {
	if repo != "" {
		return repo, nil
	}
	if defaultRepo != "" {
		return defaultRepo, nil
	}
	return "", fmt.Errorf("repo is required (no GITHUB_DEFAULT_REPO configured)")
}

type getRepoReadme struct {
	client      Client
	defaultRepo string
}

func (*getRepoReadme) Name() string { return ToolGetRepoReadme }

func (*getRepoReadme) Description() string {
	return "Fetch README.md from the main branch of an owner/name repository."
}

func (t *getRepoReadme) Params() []tools.Param {
	return []tools.Param{
		{Name: "repo", Type: tools.TypeString, Description: repoDescription(t.defaultRepo), Required: t.defaultRepo == ""},
	}
}

func (*getRepoReadme) ReadOnly() bool { return true }

func (t *getRepoReadme) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	var in repoParams
	if err := tools.DecodeParams(params, &in); err != nil {
		return "", err
	}
	repo, err := resolveRepo(in.Repo, t.defaultRepo)
	if err != nil {
		return "", err
	}

	readme, err := t.client.GetRepoReadme(ctx, repo)
	var statusErr *github.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("error %d", statusErr.StatusCode), nil
	}
	if err != nil {
		return "", err
	}
	return readme, nil
}

type createIssue struct {
	client      Client
	defaultRepo string
}

func (*createIssue) Name() string { return ToolCreateGitHubIssue }

func (*createIssue) Description() string {
	return "Create a GitHub issue in owner/name. Requires GITHUB_TOKEN. Returns 'STATUS URL'."
}

func (t *createIssue) Params() []tools.Param {
	return []tools.Param{
		{Name: "repo", Type: tools.TypeString, Description: repoDescription(t.defaultRepo), Required: t.defaultRepo == ""},
		{Name: "title", Type: tools.TypeString, Description: "Imperative issue title, 6 to 10 words", Required: true},
		{Name: "body", Type: tools.TypeString, Description: "Context followed by an acceptance criteria checklist"},
	}
}

func (*createIssue) ReadOnly() bool { return false }

// AuditTarget implements common.Audited.
func (t *createIssue) AuditTarget(params json.RawMessage) (kind, target string) {
	var in repoParams
	_ = tools.DecodeParams(params, &in)
	repo, _ := resolveRepo(in.Repo, t.defaultRepo)
	return "issue", repo
}

func (t *createIssue) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	var in repoParams
	if err := tools.DecodeParams(params, &in); err != nil {
		return "", err
	}
	repo, err := resolveRepo(in.Repo, t.defaultRepo)
	if err != nil {
		return "", err
	}

	res, err := t.client.CreateIssue(ctx, repo, in.Title, in.Body)
	if errors.Is(err, github.ErrMissingToken) {
		return github.ErrMissingToken.Error(), nil
	}
	if err != nil {
		return "", err
	}
	return res.String(), nil
}

func repoDescription(defaultRepo string) string {
	if defaultRepo == "" {
		return "Repository as owner/name"
	}
	return fmt.Sprintf("Repository as owner/name (default %s)", defaultRepo)
}
