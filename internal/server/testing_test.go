package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teemow/mailtriage/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Model:                "gpt-4o-mini",
		GitHubAPIURL:         "https://api.github.invalid",
		GitHubRawURL:         "https://raw.github.invalid",
		GitHubDefaultRepo:    "acme/app",
		GmailTokenFile:       filepath.Join(dir, "token.json"),
		GmailCredentialsFile: filepath.Join(dir, "credentials.json"),
		HeadlessOAuth:        "true",
		AgentMaxTurns:        10,
		RequestTimeout:       5 * time.Second,
	}
}

func newTestContext(t *testing.T, opts Options) *ServerContext {
	t.Helper()
	if opts.Config == nil {
		opts.Config = testConfig(t)
	}
	sc, err := NewServerContext(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}
