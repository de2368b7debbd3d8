package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"strings"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/mailtriage/internal/instrumentation"
)

// ErrHeaderInjection is returned for header values containing line breaks.
var ErrHeaderInjection = errors.New("header value contains a line break")

// Draft is a new message to store as a draft.
type Draft struct {
	To      string
	Subject string
	Body    string
}

// Reply is a draft in an existing thread. InReplyTo is the Message-ID of
// the message being answered.
type Reply struct {
	ThreadID  string
	To        string
	Subject   string
	Body      string
	InReplyTo string
}

// DraftRef identifies a created draft.
type DraftRef struct {
	DraftID   string `json:"draft_id"`
	MessageID string `json:"message_id"`
}

// CreateDraft stores a new draft. It is never sent.
func (c *Client) CreateDraft(ctx context.Context, d Draft) (*DraftRef, error) {
	if strings.TrimSpace(d.To) == "" {
		return nil, fmt.Errorf("recipient is required")
	}
	raw, err := buildMessage([]header{
		{"To", d.To},
		{"Subject", d.Subject},
	}, d.Body)
	if err != nil {
		return nil, err
	}
	return c.createDraft(ctx, &gmail.Message{Raw: raw})
}

// CreateDraftReply stores a reply draft in r.ThreadID with In-Reply-To and
// References set to r.InReplyTo.
func (c *Client) CreateDraftReply(ctx context.Context, r Reply) (*DraftRef, error) {
	switch {
	case r.ThreadID == "":
		return nil, fmt.Errorf("thread id is required")
	case strings.TrimSpace(r.To) == "":
		return nil, fmt.Errorf("recipient is required")
	case r.InReplyTo == "":
		return nil, fmt.Errorf("in_reply_to message id is required")
	}
	raw, err := buildMessage([]header{
		{"To", r.To},
		{"Subject", r.Subject},
		{"In-Reply-To", r.InReplyTo},
		{"References", r.InReplyTo},
	}, r.Body)
	if err != nil {
		return nil, err
	}
	return c.createDraft(ctx, &gmail.Message{Raw: raw, ThreadId: r.ThreadID})
}

func (c *Client) createDraft(ctx context.Context, m *gmail.Message) (*DraftRef, error) {
	var ref *DraftRef
	err := c.observe(ctx, instrumentation.OperationCreateDraft, m.ThreadId, func(ctx context.Context) error {
		d, err := c.svc.Drafts.Create(userID, &gmail.Draft{Message: m}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to create draft: %w", err)
		}
		ref = &DraftRef{DraftID: d.Id}
		if d.Message != nil {
			ref.MessageID = d.Message.Id
		}
		return nil
	})
	return ref, err
}

type header struct {
	name, value string
}

// buildMessage renders an RFC 2822 plain text message and returns it
// base64url encoded, as the API expects in Message.Raw.
func buildMessage(headers []header, body string) (string, error) {
	var b strings.Builder
	for _, h := range headers {
		if strings.ContainsAny(h.value, "\r\n") {
			return "", fmt.Errorf("%s: %w", h.name, ErrHeaderInjection)
		}
		value := h.value
		if h.name == "Subject" {
			value = encodeRFC2047(value)
		}
		b.WriteString(h.name)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\r\n")
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	if !isASCII(body) {
		b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	}
	b.WriteString("\r\n")
	b.WriteString(normalizeNewlines(body))

	return base64.URLEncoding.EncodeToString([]byte(b.String())), nil
}

// encodeRFC2047 encodes non-ASCII header text as a MIME encoded-word.
func encodeRFC2047(s string) string {
	if isASCII(s) {
		return s
	}
	return mime.BEncoding.Encode("UTF-8", s)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}
