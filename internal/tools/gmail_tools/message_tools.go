package gmail_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/teemow/mailtriage/internal/gmail"
	"github.com/teemow/mailtriage/internal/tools"
)

type listMessages struct {
	mailbox MailboxFunc
}

func (*listMessages) Name() string { return ToolListMessages }

func (*listMessages) Description() string {
	return "Return message IDs from the user's mailbox based on label and/or query."
}

func (*listMessages) Params() []tools.Param {
	return []tools.Param{
		{Name: "label", Type: tools.TypeString, Description: "Gmail label ID, e.g. INBOX or UNREAD"},
		{Name: "query", Type: tools.TypeString, Description: "Gmail search query, e.g. 'is:unread newer_than:2d'"},
		{Name: "max_results", Type: tools.TypeInteger, Description: fmt.Sprintf("Maximum number of IDs (default %d)", gmail.DefaultMaxResults)},
	}
}

func (*listMessages) ReadOnly() bool { return true }

func (t *listMessages) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	var in struct {
		Label      string `json:"label"`
		Query      string `json:"query"`
		MaxResults int64  `json:"max_results"`
	}
	if err := tools.DecodeParams(params, &in); err != nil {
		return "", err
	}

	mb, err := t.mailbox(ctx)
	if err != nil {
		return "", err
	}
	ids, err := mb.ListMessages(ctx, in.Label, in.Query, in.MaxResults)
	if err != nil {
		return "", err
	}
	if ids == nil {
		ids = []string{}
	}
	return tools.JSONResult(ids)
}

type getMessage struct {
	mailbox MailboxFunc
}

func (*getMessage) Name() string { return ToolGetMessage }

func (*getMessage) Description() string {
	return "Fetch a message in full format. Returns id, threadId, lower-cased headers, snippet and body_text."
}

func (*getMessage) Params() []tools.Param {
	return []tools.Param{
		{Name: "msg_id", Type: tools.TypeString, Description: "Message ID from list_messages", Required: true},
	}
}

func (*getMessage) ReadOnly() bool { return true }

func (t *getMessage) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	var in struct {
		MsgID string `json:"msg_id"`
	}
	if err := tools.DecodeParams(params, &in); err != nil {
		return "", err
	}
	if in.MsgID == "" {
		return "", fmt.Errorf("msg_id is required")
	}

	mb, err := t.mailbox(ctx)
	if err != nil {
		return "", err
	}
	msg, err := mb.GetMessage(ctx, in.MsgID)
	if err != nil {
		return "", err
	}
	return tools.JSONResult(msg)
}
