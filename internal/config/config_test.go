package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"MODEL", "OPENAI_API_KEY", "OPENAI_BASE_URL",
	"GITHUB_TOKEN", "GITHUB_DEFAULT_REPO", "GITHUB_API_URL", "GITHUB_RAW_URL",
	"GMAIL_SCOPES", "GMAIL_TOKEN_JSON_B64", "GMAIL_CLIENT_SECRET_JSON_B64",
	"GMAIL_TOKEN_FILE", "GMAIL_CREDENTIALS_FILE", "HEADLESS_OAUTH",
	"AGENT_MAX_TURNS", "REQUEST_TIMEOUT", "LOG_FORMAT",
}

// clearEnv unsets every config key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	conf, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", conf.Model)
	assert.Equal(t, "https://api.github.com", conf.GitHubAPIURL)
	assert.Equal(t, "https://raw.githubusercontent.com", conf.GitHubRawURL)
	assert.Equal(t, []string{DefaultGmailScope}, conf.GmailScopes)
	assert.Equal(t, "token.json", conf.GmailTokenFile)
	assert.Equal(t, "credentials.json", conf.GmailCredentialsFile)
	assert.Equal(t, 10, conf.AgentMaxTurns)
	assert.Equal(t, 20*time.Second, conf.RequestTimeout)
	assert.True(t, conf.Offline())
	assert.False(t, conf.Headless())
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("MODEL", "gpt-4.1")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GMAIL_SCOPES", " https://a/scope , ,https://b/scope")
	t.Setenv("HEADLESS_OAUTH", "TRUE")
	t.Setenv("AGENT_MAX_TURNS", "4")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("GITHUB_DEFAULT_REPO", "acme/widgets")

	conf, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "gpt-4.1", conf.Model)
	assert.False(t, conf.Offline())
	assert.True(t, conf.Headless())
	assert.Equal(t, []string{"https://a/scope", "https://b/scope"}, conf.GmailScopes)
	assert.Equal(t, 4, conf.AgentMaxTurns)
	assert.Equal(t, 5*time.Second, conf.RequestTimeout)
	assert.Equal(t, "acme/widgets", conf.GitHubDefaultRepo)
}

func TestLoad_EnvFileDoesNotOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("MODEL", "from-env")

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("MODEL=from-file\nGITHUB_DEFAULT_REPO=acme/site\n"), 0o600))

	conf, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", conf.Model)
	assert.Equal(t, "acme/site", conf.GitHubDefaultRepo)
}

func TestLoad_DefaultEnvFile(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile(DefaultEnvFile, []byte("OPENAI_API_KEY=sk-file\n"), 0o600))

	conf, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sk-file", conf.OpenAIAPIKey)
	assert.False(t, conf.Offline())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.env"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "bad max turns", key: "AGENT_MAX_TURNS", val: "0"},
		{name: "unparsable max turns", key: "AGENT_MAX_TURNS", val: "ten"},
		{name: "bad timeout", key: "REQUEST_TIMEOUT", val: "-1s"},
		{name: "bad repo", key: "GITHUB_DEFAULT_REPO", val: "not-a-repo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestValidRepo(t *testing.T) {
	assert.True(t, ValidRepo("owner/name"))
	assert.True(t, ValidRepo("my-org/repo.go"))
	assert.False(t, ValidRepo("owner"))
	assert.False(t, ValidRepo("owner/name/extra"))
	assert.False(t, ValidRepo("../etc"))
	assert.False(t, ValidRepo(""))
}
