package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/mailtriage/internal/agent"
	"github.com/teemow/mailtriage/internal/guardrails"
)

// defaultInput is used when neither arguments nor stdin carry text.
const defaultInput = "Help"

func newTriageCmd() *cobra.Command {
	var (
		agentName string
		offline   bool
	)

	cmd := &cobra.Command{
		Use:   "triage [text...]",
		Short: "Run an agent once and print the result as JSON",
		Long: `Run an agent on the given text. Arguments are joined with spaces; without
arguments the text is read from stdin when it is piped, otherwise "Help" is used.

Agents:
  gmail   GmailTriage: summary, priority 1-5, actions and three reply drafts (default)
  triage  Triage: direct answers, repository READMEs, hands off to GitOps
  gitops  GitOps: opens GitHub issues

Guardrail trips are printed as JSON and exit with a non-zero status.`,
		Example: `  mailtriage triage "URGENT: can we schedule a call today?"
  mailtriage triage --agent gitops "open an issue to add retries to the sync job"
  cat message.txt | mailtriage triage --offline`,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := agent.Lookup(agentName)
			if err != nil {
				return err
			}
			input, err := readInput(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			rt, err := newRuntime(ctx, runtimeOptions{offline: offline})
			if err != nil {
				return err
			}
			defer rt.Close(context.WithoutCancel(ctx))

			res, err := rt.sc.Runner().Run(ctx, name, input)
			var tripwire *guardrails.TripwireError
			if errors.As(err, &tripwire) {
				_ = writeJSON(cmd.OutOrStdout(), map[string]string{
					"error":     "guardrail tripped",
					"guardrail": tripwire.Guardrail,
					"reason":    tripwire.Reason,
				})
				return err
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&agentName, "agent", "gmail", "Agent to run: gmail, triage or gitops")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use the keyword heuristic even when OPENAI_API_KEY is set")

	return cmd
}

// readInput joins args, falls back to piped stdin and finally to
// defaultInput.
func readInput(args []string, in io.Reader) (string, error) {
	if text := strings.TrimSpace(strings.Join(args, " ")); text != "" {
		return text, nil
	}
	if in == nil {
		return defaultInput, nil
	}
	if f, ok := in.(*os.File); ok {
		fi, err := f.Stat()
		if err != nil || fi.Mode()&os.ModeCharDevice != 0 {
			return defaultInput, nil
		}
	}

	b, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	if text := strings.TrimSpace(string(b)); text != "" {
		return text, nil
	}
	return defaultInput, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
