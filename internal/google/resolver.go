package google

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"github.com/teemow/mailtriage/internal/logging"
)

// ErrHeadless is returned when no stored credentials exist and the
// interactive flow is disabled.
var ErrHeadless = errors.New("HEADLESS_OAUTH=true but no GMAIL_TOKEN_JSON_B64 or token.json available")

// Source names reported by Resolver.Source.
const (
	SourceEnv         = "env"
	SourceFile        = "file"
	SourceInteractive = "interactive"
)

// TokenProvider yields a token source for the Gmail API.
type TokenProvider interface {
	TokenSource(ctx context.Context) (oauth2.TokenSource, error)
}

// Options configures a Resolver. Field names follow the environment
// variables they are usually loaded from.
type Options struct {
	Scopes              []string
	TokenJSONB64        string
	ClientSecretJSONB64 string
	TokenFile           string
	CredentialsFile     string
	Headless            bool

	// Prompt receives the consent URL during the interactive flow. It
	// defaults to printing the URL on stderr.
	Prompt func(authURL string)

	// HTTPClient is used for token exchange and refresh.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Resolver finds credentials in order: environment token, token file,
// interactive flow. The resolved source is cached.
type Resolver struct {
	opts Options

	mu     sync.Mutex
	ts     oauth2.TokenSource
	source string
}

// NewResolver returns a Resolver with defaults applied to opts.
func NewResolver(opts Options) *Resolver {
	if len(opts.Scopes) == 0 {
		opts.Scopes = DefaultScopes
	}
	if opts.TokenFile == "" {
		opts.TokenFile = "token.json"
	}
	if opts.CredentialsFile == "" {
		opts.CredentialsFile = "credentials.json"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Prompt == nil {
		opts.Prompt = func(u string) {
			fmt.Fprintf(os.Stderr, "Open this URL in your browser to authorize Gmail access:\n\n%s\n\n", u)
		}
	}
	return &Resolver{opts: opts}
}

// Source reports where the cached credentials came from, or "" before the
// first successful TokenSource call.
func (r *Resolver) Source() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.source
}

// TokenSource resolves and caches a token source.
func (r *Resolver) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ts != nil {
		return r.ts, nil
	}

	ctx = r.oauthContext(ctx)
	// Cached sources refresh long after the resolving request is done.
	tsCtx := context.WithoutCancel(ctx)
	logger := logging.WithOperation(r.opts.Logger, "google.credentials")

	if r.opts.TokenJSONB64 != "" {
		ts, ok, err := r.fromEnv(tsCtx)
		if err != nil {
			return nil, err
		}
		if ok {
			logger.Debug("using token from environment")
			return r.cache(ts, SourceEnv), nil
		}
		logger.Debug("environment token unusable, trying token file")
	}

	au, err := LoadAuthorizedUser(r.opts.TokenFile)
	switch {
	case err == nil:
		ts, err := refreshIfNeeded(tsCtx, au, r.opts.Scopes)
		if err != nil {
			return nil, fmt.Errorf("token file %s: %w", r.opts.TokenFile, err)
		}
		logger.Debug("using token file", slog.String("path", r.opts.TokenFile))
		return r.cache(ts, SourceFile), nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("token file %s: %w", r.opts.TokenFile, err)
	}

	if r.opts.Headless {
		return nil, ErrHeadless
	}

	conf, err := r.clientConfig()
	if err != nil {
		return nil, err
	}

	tok, err := Interactive(ctx, conf, r.opts.Prompt)
	if err != nil {
		return nil, err
	}

	if err := NewAuthorizedUser(conf, tok).Save(r.opts.TokenFile); err != nil {
		logger.Warn("could not save token file", slog.String("path", r.opts.TokenFile), logging.Err(err))
	}

	return r.cache(conf.TokenSource(tsCtx, tok), SourceInteractive), nil
}

// Authorize always runs the interactive flow and returns the resulting
// credentials without caching them.
func (r *Resolver) Authorize(ctx context.Context) (*AuthorizedUser, error) {
	conf, err := r.clientConfig()
	if err != nil {
		return nil, err
	}
	tok, err := Interactive(r.oauthContext(ctx), conf, r.opts.Prompt)
	if err != nil {
		return nil, err
	}
	return NewAuthorizedUser(conf, tok), nil
}

// TokenFile is the path tokens are read from and saved to.
func (r *Resolver) TokenFile() string {
	return r.opts.TokenFile
}

func (r *Resolver) cache(ts oauth2.TokenSource, source string) oauth2.TokenSource {
	r.ts = ts
	r.source = source
	return ts
}

func (r *Resolver) oauthContext(ctx context.Context) context.Context {
	if r.opts.HTTPClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, r.opts.HTTPClient)
	}
	return ctx
}

// fromEnv reports ok=false when the environment token is neither valid nor
// refreshable, so the caller can fall through to the token file.
func (r *Resolver) fromEnv(ctx context.Context) (oauth2.TokenSource, bool, error) {
	au, err := DecodeAuthorizedUserB64(r.opts.TokenJSONB64)
	if err != nil {
		return nil, false, fmt.Errorf("GMAIL_TOKEN_JSON_B64: %w", err)
	}
	tok := au.OAuth2Token()
	if !tok.Valid() && tok.RefreshToken == "" {
		return nil, false, nil
	}
	ts, err := refreshIfNeeded(ctx, au, r.opts.Scopes)
	if err != nil {
		return nil, false, fmt.Errorf("GMAIL_TOKEN_JSON_B64: %w", err)
	}
	return ts, true, nil
}

// refreshIfNeeded returns a reusable token source for au, refreshing once
// up front when the stored access token is no longer valid.
func refreshIfNeeded(ctx context.Context, au *AuthorizedUser, scopes []string) (oauth2.TokenSource, error) {
	conf := au.Config(scopes)
	tok := au.OAuth2Token()
	ts := conf.TokenSource(ctx, tok)
	if !tok.Valid() && tok.RefreshToken != "" {
		if _, err := ts.Token(); err != nil {
			return nil, fmt.Errorf("failed to refresh token: %w", err)
		}
	}
	return ts, nil
}

func (r *Resolver) clientConfig() (*oauth2.Config, error) {
	if b64 := strings.TrimSpace(r.opts.ClientSecretJSONB64); b64 != "" {
		data, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, fmt.Errorf("GMAIL_CLIENT_SECRET_JSON_B64: failed to decode base64: %w", err)
		}
		return ClientConfig(data, r.opts.Scopes)
	}
	data, err := os.ReadFile(r.opts.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read client secret %s: %w", r.opts.CredentialsFile, err)
	}
	return ClientConfig(data, r.opts.Scopes)
}

// HTTPClient returns an authorized client for p.
func HTTPClient(ctx context.Context, p TokenProvider) (*http.Client, error) {
	ts, err := p.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, ts), nil
}
