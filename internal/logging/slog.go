package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Attribute keys shared by every package.
const (
	KeyOperation = "operation"
	KeyAgent     = "agent"
	KeyRunID     = "run_id"
	KeyTool      = "tool"
	KeyRepo      = "repo"
	KeyPriority  = "priority"
	KeyRecipient = "recipient_hash"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
)

// Status values. The instrumentation package has its own copy because it
// imports this one.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusTripped = "tripped"
)

// New builds the process logger. Output goes to stderr so that stdout stays
// clean for JSON results and the MCP stdio transport.
func New(debug bool, format string) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(h)
}

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithAgent returns a logger with the agent attribute set.
func WithAgent(logger *slog.Logger, agent string) *slog.Logger {
	return logger.With(slog.String(KeyAgent, agent))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

func Agent(name string) slog.Attr {
	return slog.String(KeyAgent, name)
}

func RunID(id string) slog.Attr {
	return slog.String(KeyRunID, id)
}

func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

func Repo(repo string) slog.Attr {
	return slog.String(KeyRepo, repo)
}

func Priority(p int) slog.Attr {
	return slog.Int(KeyPriority, p)
}

func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Err returns an attribute for err. A nil error yields an empty group, which
// slog drops, so Err(maybeNil) is always safe to pass.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// HashAddress returns a stable, non-reversible handle for an email address.
func HashAddress(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	if addr == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(addr))
	return "addr:" + hex.EncodeToString(sum[:8])
}

// Recipient returns an attribute carrying the hashed recipient address.
func Recipient(addr string) slog.Attr {
	return slog.String(KeyRecipient, HashAddress(addr))
}

// SanitizeToken renders a secret as its length only.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}

// Preview shortens free text (user input, model output) for debug logs.
func Preview(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if limit <= 0 || len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
