package gmail

import (
	"context"
	"fmt"

	"github.com/teemow/mailtriage/internal/instrumentation"
)

// Profile summarizes the authenticated mailbox.
type Profile struct {
	EmailAddress  string `json:"email"`
	MessagesTotal int64  `json:"messages_total"`
	ThreadsTotal  int64  `json:"threads_total"`
	HistoryID     uint64 `json:"history_id"`
}

// GetProfile returns the mailbox profile.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	var p *Profile
	err := c.observe(ctx, instrumentation.OperationGetProfile, "", func(ctx context.Context) error {
		res, err := c.svc.GetProfile(userID).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to get profile: %w", err)
		}
		p = &Profile{
			EmailAddress:  res.EmailAddress,
			MessagesTotal: res.MessagesTotal,
			ThreadsTotal:  res.ThreadsTotal,
			HistoryID:     res.HistoryId,
		}
		return nil
	})
	return p, err
}
