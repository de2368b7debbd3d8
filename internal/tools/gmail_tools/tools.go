// Package gmail_tools exposes mailbox reads and draft creation as tools.
// Drafts are created, never sent.
package gmail_tools

import (
	"context"

	"github.com/teemow/mailtriage/internal/gmail"
	"github.com/teemow/mailtriage/internal/tools"
)

const (
	ToolListMessages     = "list_messages"
	ToolGetMessage       = "get_message"
	ToolCreateDraftNew   = "create_draft_new"
	ToolCreateDraftReply = "create_draft_reply"
)

// Mailbox is the part of the Gmail client the tools use.
type Mailbox interface {
	ListMessages(ctx context.Context, label, query string, max int64) ([]string, error)
	GetMessage(ctx context.Context, id string) (*gmail.Message, error)
	CreateDraft(ctx context.Context, d gmail.Draft) (*gmail.DraftRef, error)
	CreateDraftReply(ctx context.Context, r gmail.Reply) (*gmail.DraftRef, error)
}

var _ Mailbox = (*gmail.Client)(nil)

// MailboxFunc returns the mailbox on first use, so credentials are only
// resolved when a Gmail tool actually runs.
type MailboxFunc func(ctx context.Context) (Mailbox, error)

// New returns all Gmail tools.
func New(mailbox MailboxFunc) []tools.Tool {
	return []tools.Tool{
		&listMessages{mailbox: mailbox},
		&getMessage{mailbox: mailbox},
		&createDraftNew{mailbox: mailbox},
		&createDraftReply{mailbox: mailbox},
	}
}
