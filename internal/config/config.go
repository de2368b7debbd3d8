// Package config loads mailtriage settings from the environment.
//
// A .env file, when present, is read first and only fills variables that are
// not already set, so the real environment always wins. The typed Config is
// then populated with envconfig.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// DefaultEnvFile is read when no explicit env file is given.
const DefaultEnvFile = ".env"

// DefaultGmailScope is used when GMAIL_SCOPES is unset or empty.
const DefaultGmailScope = "https://www.googleapis.com/auth/gmail.readonly"

var repoPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)

type Config struct {
	Model         string `envconfig:"MODEL" default:"gpt-4o-mini"`
	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`

	GitHubToken       string `envconfig:"GITHUB_TOKEN"`
	GitHubDefaultRepo string `envconfig:"GITHUB_DEFAULT_REPO"`
	GitHubAPIURL      string `envconfig:"GITHUB_API_URL" default:"https://api.github.com"`
	GitHubRawURL      string `envconfig:"GITHUB_RAW_URL" default:"https://raw.githubusercontent.com"`

	GmailScopes              []string `envconfig:"GMAIL_SCOPES"`
	GmailTokenJSONB64        string   `envconfig:"GMAIL_TOKEN_JSON_B64"`
	GmailClientSecretJSONB64 string   `envconfig:"GMAIL_CLIENT_SECRET_JSON_B64"`
	GmailTokenFile           string   `envconfig:"GMAIL_TOKEN_FILE" default:"token.json"`
	GmailCredentialsFile     string   `envconfig:"GMAIL_CREDENTIALS_FILE" default:"credentials.json"`

	// HeadlessOAuth is kept as text: only "true" (any case) disables the
	// interactive flow.
	HeadlessOAuth string `envconfig:"HEADLESS_OAUTH"`

	AgentMaxTurns  int           `envconfig:"AGENT_MAX_TURNS" default:"10"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"20s"`
	LogFormat      string        `envconfig:"LOG_FORMAT" default:"text"`
}

// Load reads envFile (DefaultEnvFile when empty; a missing default file is
// not an error) and processes the environment into a Config.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		if err := exportEnvironmentIfExists(DefaultEnvFile); err != nil {
			return nil, fmt.Errorf("failed to load default env file: %w", err)
		}
	} else if err := exportEnvironment(envFile); err != nil {
		return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}

	var conf Config
	if err := envconfig.Process("", &conf); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	conf.GmailScopes = normalizeScopes(conf.GmailScopes)

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Validate checks values that envconfig cannot.
func (c *Config) Validate() error {
	var errs []error
	if c.AgentMaxTurns < 1 {
		errs = append(errs, fmt.Errorf("AGENT_MAX_TURNS must be at least 1, got %d", c.AgentMaxTurns))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout))
	}
	if c.GitHubDefaultRepo != "" && !ValidRepo(c.GitHubDefaultRepo) {
		errs = append(errs, fmt.Errorf("GITHUB_DEFAULT_REPO must be owner/name, got %q", c.GitHubDefaultRepo))
	}
	return errors.Join(errs...)
}

// Offline reports whether no LLM backend is configured.
func (c *Config) Offline() bool {
	return strings.TrimSpace(c.OpenAIAPIKey) == ""
}

// Headless reports whether the interactive OAuth flow is disabled.
func (c *Config) Headless() bool {
	return strings.EqualFold(strings.TrimSpace(c.HeadlessOAuth), "true")
}

// ValidRepo reports whether repo has the owner/name form.
func ValidRepo(repo string) bool {
	if !repoPattern.MatchString(repo) {
		return false
	}
	for _, part := range strings.Split(repo, "/") {
		if part == "." || part == ".." {
			return false
		}
	}
	return true
}

func normalizeScopes(raw []string) []string {
	var scopes []string
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}
	if len(scopes) == 0 {
		return []string{DefaultGmailScope}
	}
	return scopes
}

func exportEnvironmentIfExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	return exportEnvironment(path)
}

func exportEnvironment(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	for k, val := range v.AllSettings() {
		key := strings.ToUpper(k)
		if _, ok := os.LookupEnv(key); ok {
			continue
		}
		if err := os.Setenv(key, fmt.Sprint(val)); err != nil {
			return err
		}
	}
	return nil
}
