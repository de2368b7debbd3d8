package gmail_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/teemow/mailtriage/internal/gmail"
	"github.com/teemow/mailtriage/internal/tools"
)

type draftParams struct {
	ThreadID  string `json:"thread_id"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	InReplyTo string `json:"in_reply_to"`
}

type createDraftNew struct {
	mailbox MailboxFunc
}

func (*createDraftNew) Name() string { return ToolCreateDraftNew }

func (*createDraftNew) Description() string {
	return "Create a new draft email. The draft is stored, not sent."
}

func (*createDraftNew) Params() []tools.Param {
	return []tools.Param{
		{Name: "to", Type: tools.TypeString, Description: "Recipient address", Required: true},
		{Name: "subject", Type: tools.TypeString, Description: "Subject line", Required: true},
		{Name: "body", Type: tools.TypeString, Description: "Plain text body", Required: true},
	}
}

func (*createDraftNew) ReadOnly() bool { return false }

// AuditTarget implements common.Audited.
func (*createDraftNew) AuditTarget(params json.RawMessage) (kind, target string) {
	var in draftParams
	_ = tools.DecodeParams(params, &in)
	return "draft", in.To
}

func (t *createDraftNew) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	var in draftParams
	if err := tools.DecodeParams(params, &in); err != nil {
		return "", err
	}

	mb, err := t.mailbox(ctx)
	if err != nil {
		return "", err
	}
	ref, err := mb.CreateDraft(ctx, gmail.Draft{To: in.To, Subject: in.Subject, Body: in.Body})
	if err != nil {
		return "", err
	}
	return tools.JSONResult(ref)
}

type createDraftReply struct {
	mailbox MailboxFunc
}

func (*createDraftReply) Name() string { return ToolCreateDraftReply }

func (*createDraftReply) Description() string {
	return "Create a reply draft in an existing thread. Requires the Message-ID of the message being answered as in_reply_to."
}

func (*createDraftReply) Params() []tools.Param {
	return []tools.Param{
		{Name: "thread_id", Type: tools.TypeString, Description: "Thread ID of the original message", Required: true},
		{Name: "to", Type: tools.TypeString, Description: "Recipient address", Required: true},
		{Name: "subject", Type: tools.TypeString, Description: "Subject line, usually 'Re: ' plus the original", Required: true},
		{Name: "body", Type: tools.TypeString, Description: "Plain text body", Required: true},
		{Name: "in_reply_to", Type: tools.TypeString, Description: "Message-ID header of the original message", Required: true},
	}
}

func (*createDraftReply) ReadOnly() bool { return false }

func (*createDraftReply) AuditTarget(params json.RawMessage) (kind, target string) {
	var in draftParams
	_ = tools.DecodeParams(params, &in)
	return "draft", in.To
}

func (t *createDraftReply) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	var in draftParams
	if err := tools.DecodeParams(params, &in); err != nil {
		return "", err
	}
	if in.ThreadID == "" {
		return "", fmt.Errorf("thread_id is required")
	}

	mb, err := t.mailbox(ctx)
	if err != nil {
		return "", err
	}
	ref, err := mb.CreateDraftReply(ctx, gmail.Reply{
		ThreadID:  in.ThreadID,
		To:        in.To,
		Subject:   in.Subject,
		Body:      in.Body,
		InReplyTo: in.InReplyTo,
	})
	if err != nil {
		return "", err
	}
	return tools.JSONResult(ref)
}
