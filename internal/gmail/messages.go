package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/mailtriage/internal/instrumentation"
)

// DefaultMaxResults is used by ListMessages when max is not positive.
const DefaultMaxResults = 5

// Message is the triage view of a Gmail message.
type Message struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
	// Headers are keyed by lower-cased name; later duplicates win.
	Headers  map[string]string `json:"headers"`
	Snippet  string            `json:"snippet"`
	BodyText string            `json:"body_text"`
}

// ListMessages returns the IDs of up to max messages matching label and
// query. Empty label or query are not applied.
func (c *Client) ListMessages(ctx context.Context, label, query string, max int64) ([]string, error) {
	if max <= 0 {
		max = DefaultMaxResults
	}

	var ids []string
	err := c.observe(ctx, instrumentation.OperationList, "", func(ctx context.Context) error {
		call := c.svc.Messages.List(userID).MaxResults(max).Context(ctx)
		if label != "" {
			call = call.LabelIds(label)
		}
		if query != "" {
			call = call.Q(query)
		}
		res, err := call.Do()
		if err != nil {
			return fmt.Errorf("failed to list messages: %w", err)
		}
		ids = make([]string, 0, len(res.Messages))
		for _, m := range res.Messages {
			ids = append(ids, m.Id)
		}
		return nil
	})
	return ids, err
}

// GetMessage fetches a message in full format.
func (c *Client) GetMessage(ctx context.Context, id string) (*Message, error) {
	if id == "" {
		return nil, fmt.Errorf("message id is required")
	}

	var msg *Message
	err := c.observe(ctx, instrumentation.OperationGet, id, func(ctx context.Context) error {
		m, err := c.svc.Messages.Get(userID, id).Format("full").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to get message %s: %w", id, err)
		}
		msg = toMessage(m)
		return nil
	})
	return msg, err
}

func toMessage(m *gmail.Message) *Message {
	msg := &Message{
		ID:       m.Id,
		ThreadID: m.ThreadId,
		Headers:  map[string]string{},
		Snippet:  m.Snippet,
	}
	if m.Payload == nil {
		return msg
	}
	for _, h := range m.Payload.Headers {
		msg.Headers[strings.ToLower(h.Name)] = h.Value
	}
	msg.BodyText = bodyText(m.Payload)
	return msg
}

// bodyText returns the first part, depth-first, whose body data decodes.
func bodyText(p *gmail.MessagePart) string {
	if p == nil {
		return ""
	}
	if p.Body != nil && p.Body.Data != "" {
		if text, ok := decodeBody(p.Body.Data); ok {
			return text
		}
	}
	for _, part := range p.Parts {
		if text := bodyText(part); text != "" {
			return text
		}
	}
	return ""
}

// decodeBody accepts padded and unpadded base64url and drops invalid UTF-8.
func decodeBody(data string) (string, bool) {
	b, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		b, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
		if err != nil {
			return "", false
		}
	}
	return strings.ToValidUTF8(string(b), ""), true
}

func attributeResourceID(id string) attribute.KeyValue {
	return attribute.String(instrumentation.SpanAttrResourceID, id)
}
