package server

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/teemow/mailtriage/internal/agent"
	"github.com/teemow/mailtriage/internal/config"
	"github.com/teemow/mailtriage/internal/github"
	"github.com/teemow/mailtriage/internal/gmail"
	"github.com/teemow/mailtriage/internal/google"
	"github.com/teemow/mailtriage/internal/instrumentation"
	"github.com/teemow/mailtriage/internal/llm"
	"github.com/teemow/mailtriage/internal/llm/openai"
	"github.com/teemow/mailtriage/internal/logging"
	"github.com/teemow/mailtriage/internal/tools"
	"github.com/teemow/mailtriage/internal/tools/common"
	"github.com/teemow/mailtriage/internal/tools/github_tools"
	"github.com/teemow/mailtriage/internal/tools/gmail_tools"
	"github.com/teemow/mailtriage/internal/tools/triage_tools"
)

// Options configure a ServerContext. Only Config is required.
type Options struct {
	Config  *config.Config
	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger
	Logger  *slog.Logger

	// TokenProvider overrides the credential resolver built from Config.
	TokenProvider google.TokenProvider
	// Provider overrides the OpenAI provider built from Config.
	Provider llm.Provider
	// Offline forces the heuristic even when an API key is configured.
	Offline bool
	// GmailOptions are passed to every Gmail client built by the context.
	GmailOptions []gmail.ClientOption
}

// ServerContext holds the shared clients, tool registry and agent runner.
// The Gmail client is created on first use so credentials are only resolved
// when a Gmail tool runs.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg      *config.Config
	metrics  *instrumentation.Metrics
	logger   *slog.Logger
	tokens   google.TokenProvider
	gmailOpt []gmail.ClientOption

	github   *github.Client
	registry *tools.Registry
	runner   *agent.Runner

	gmailMu sync.Mutex
	gmail   *gmail.Client

	mu       sync.Mutex
	shutdown bool
}

// NewServerContext wires clients, tools and agents from opts.
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	sc := &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		cfg:      cfg,
		metrics:  opts.Metrics,
		logger:   logger,
		tokens:   opts.TokenProvider,
		gmailOpt: opts.GmailOptions,
	}
	if sc.tokens == nil {
		sc.tokens = google.NewResolver(google.Options{
			Scopes:              cfg.GmailScopes,
			TokenJSONB64:        cfg.GmailTokenJSONB64,
			ClientSecretJSONB64: cfg.GmailClientSecretJSONB64,
			TokenFile:           cfg.GmailTokenFile,
			CredentialsFile:     cfg.GmailCredentialsFile,
			Headless:            cfg.Headless(),
			Logger:              logger,
		})
	}

	sc.github = github.NewClient(github.Options{
		Token:   cfg.GitHubToken,
		APIURL:  cfg.GitHubAPIURL,
		RawURL:  cfg.GitHubRawURL,
		Timeout: cfg.RequestTimeout,
		Metrics: opts.Metrics,
		Logger:  logger,
	})

	catalog := tools.NewRegistry(slices.Concat(
		github_tools.New(sc.github, cfg.GitHubDefaultRepo),
		gmail_tools.New(sc.mailbox),
		triage_tools.New(),
	)...)
	sc.registry = common.InstrumentAll(catalog, opts.Metrics, opts.Audit)

	var provider llm.Provider
	switch {
	case opts.Offline:
	case opts.Provider != nil:
		provider = opts.Provider
	default:
		// openai.New returns a typed nil without a key.
		if c := openai.New(openai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.Model,
			Metrics: opts.Metrics,
			Logger:  logger,
		}); c != nil {
			provider = c
		}
	}

	runner, err := agent.NewRunner(agent.Options{
		Provider: provider,
		Tools:    sc.registry,
		MaxTurns: cfg.AgentMaxTurns,
		Logger:   logging.NewSlogAdapter(logging.WithOperation(logger, "agent")),
		Metrics:  opts.Metrics,
	}, agent.DefaultAgents(cfg.GitHubDefaultRepo)...)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to build agents: %w", err)
	}
	sc.runner = runner

	if runner.Offline() {
		logger.Info("no OpenAI API key configured, agents use the offline heuristic")
	}
	return sc, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

func (sc *ServerContext) Config() *config.Config {
	return sc.cfg
}

// Runner returns the agent runner.
func (sc *ServerContext) Runner() *agent.Runner {
	return sc.runner
}

// Tools returns the instrumented tool catalog.
func (sc *ServerContext) Tools() *tools.Registry {
	return sc.registry
}

// GitHub returns the GitHub client.
func (sc *ServerContext) GitHub() *github.Client {
	return sc.github
}

// GmailClient returns the cached Gmail client, creating it on first use.
// Credential resolution may run the interactive OAuth flow unless the
// configuration is headless. It ends when either ctx or the server context
// is done.
func (sc *ServerContext) GmailClient(ctx context.Context) (*gmail.Client, error) {
	sc.gmailMu.Lock()
	defer sc.gmailMu.Unlock()

	if sc.gmail != nil {
		return sc.gmail, nil
	}

	resolveCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(sc.ctx, cancel)
	defer stop()

	hc, err := google.HTTPClient(resolveCtx, sc.tokens)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Gmail credentials: %w", err)
	}

	opts := append([]gmail.ClientOption{
		gmail.WithMetrics(sc.metrics),
		gmail.WithLogger(sc.logger),
	}, sc.gmailOpt...)
	client, err := gmail.NewClient(ctx, hc, opts...)
	if err != nil {
		return nil, err
	}
	sc.gmail = client
	return client, nil
}

func (sc *ServerContext) mailbox(ctx context.Context) (gmail_tools.Mailbox, error) {
	return sc.GmailClient(ctx)
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.shutdown
}

// Shutdown cancels the server context. It is safe to call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
