package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/mailtriage/internal/config"
	"github.com/teemow/mailtriage/internal/google"
	"github.com/teemow/mailtriage/internal/logging"
)

func newAuthCmd() *cobra.Command {
	var (
		printB64 bool
		compose  bool
		scopes   string
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize Gmail access and store the token",
		Long: `Run the installed-app OAuth flow for Gmail and write the resulting
authorized-user credentials to GMAIL_TOKEN_FILE (default token.json).

The OAuth client is read from GMAIL_CLIENT_SECRET_JSON_B64 or
GMAIL_CREDENTIALS_FILE (default credentials.json). Use --compose to also
request the scope needed to create drafts, and --print-b64 to print the value
for GMAIL_TOKEN_JSON_B64 in headless deployments.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			if s := parseCommaSeparatedList(scopes); s != nil {
				cfg.GmailScopes = s
			}
			if compose {
				cfg.GmailScopes = google.WithCompose(cfg.GmailScopes)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runAuth(ctx, cmd, cfg, printB64)
		},
	}

	cmd.Flags().BoolVar(&printB64, "print-b64", false, "Print the token as base64 for GMAIL_TOKEN_JSON_B64")
	cmd.Flags().BoolVar(&compose, "compose", false, "Also request the gmail.compose scope for draft creation")
	cmd.Flags().StringVar(&scopes, "scopes", "", "Comma-separated OAuth scopes, overriding GMAIL_SCOPES")

	return cmd
}

func runAuth(ctx context.Context, cmd *cobra.Command, cfg *config.Config, printB64 bool) error {
	logger := logging.New(debugMode, cfg.LogFormat)

	resolver := google.NewResolver(google.Options{
		Scopes:              cfg.GmailScopes,
		ClientSecretJSONB64: cfg.GmailClientSecretJSONB64,
		TokenFile:           cfg.GmailTokenFile,
		CredentialsFile:     cfg.GmailCredentialsFile,
		Logger:              logger,
	})

	au, err := resolver.Authorize(ctx)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}
	if err := au.Save(resolver.TokenFile()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Saved Gmail token to %s\n", resolver.TokenFile())

	if printB64 {
		encoded, err := au.EncodeB64()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), encoded)
	}
	return nil
}

// parseCommaSeparatedList parses a comma-separated string into a slice,
// trimming whitespace from each element and filtering out empty strings.
// Returns nil if the input is empty or contains only whitespace/commas.
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
