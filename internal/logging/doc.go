// Package logging holds the structured logging conventions of mailtriage.
//
// Everything logs through log/slog. This package only fixes attribute names
// so that agent runs, tool calls and API calls can be correlated, and keeps
// secrets and recipient addresses out of the logs:
//
//	logger := logging.WithAgent(slog.Default(), "GmailTriage")
//	logger.Info("run finished",
//	    logging.RunID(id),
//	    logging.Priority(p.Priority),
//	    logging.Status(logging.StatusSuccess))
//
// Tokens are rendered with SanitizeToken and recipients with Recipient, which
// hashes the address.
package logging
