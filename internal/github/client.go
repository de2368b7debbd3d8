package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/teemow/mailtriage/internal/config"
	"github.com/teemow/mailtriage/internal/instrumentation"
	"github.com/teemow/mailtriage/internal/logging"
)

const (
	DefaultAPIURL  = "https://api.github.com"
	DefaultRawURL  = "https://raw.githubusercontent.com"
	DefaultTimeout = 20 * time.Second
)

// ErrMissingToken is returned by CreateIssue when no token is configured.
var ErrMissingToken = errors.New("missing GITHUB_TOKEN")

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: http status %d", e.URL, e.StatusCode)
}

// Options configure a Client. Zero values fall back to the defaults.
type Options struct {
	Token   string
	APIURL  string
	RawURL  string
	Timeout time.Duration

	// HTTPClient replaces the instrumented default client.
	HTTPClient *http.Client
	Metrics    *instrumentation.Metrics
	Logger     *slog.Logger
}

// Client talks to the GitHub REST API.
type Client struct {
	token      string
	apiURL     string
	rawURL     string
	httpClient *http.Client
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
}

// NewClient creates a client from opts.
func NewClient(opts Options) *Client {
	c := &Client{
		token:      strings.TrimSpace(opts.Token),
		apiURL:     strings.TrimRight(opts.APIURL, "/"),
		rawURL:     strings.TrimRight(opts.RawURL, "/"),
		httpClient: opts.HTTPClient,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
	}
	if c.apiURL == "" {
		c.apiURL = DefaultAPIURL
	}
	if c.rawURL == "" {
		c.rawURL = DefaultRawURL
	}
	if c.httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = logging.WithOperation(c.logger, "github")
	return c
}

// HasToken reports whether write operations can be attempted.
func (c *Client) HasToken() bool {
	return c.token != ""
}

func validateRepo(repo string) error {
	if !config.ValidRepo(repo) {
		return fmt.Errorf("repo must be owner/name, got %q", repo)
	}
	return nil
}

// do sends req inside a span and records the resulting status class.
func (c *Client) do(ctx context.Context, operation, repo string, req *http.Request) (*http.Response, error) {
	ctx, span := instrumentation.StartGitHubSpan(ctx, operation, repo)
	defer span.End()

	start := time.Now()
	resp, err := c.httpClient.Do(req.WithContext(ctx))
	duration := time.Since(start)

	if err != nil {
		instrumentation.SetSpanError(span, err)
		c.metrics.RecordGitHubAPIOperation(ctx, operation, repo, instrumentation.StatusError, duration)
		c.logger.Debug("github request failed", logging.Operation(operation), logging.Repo(repo), logging.Err(err))
		return nil, fmt.Errorf("github %s: %w", operation, err)
	}

	if resp.StatusCode >= 400 {
		instrumentation.SetSpanError(span, &StatusError{StatusCode: resp.StatusCode, URL: req.URL.String()})
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	c.metrics.RecordGitHubAPIOperation(ctx, operation, repo, instrumentation.StatusClass(resp.StatusCode), duration)
	return resp, nil
}
