// Package gmail is a thin client over the Gmail API users service, limited
// to what triage needs: listing and reading messages and creating drafts.
// Nothing in this package sends mail.
//
// Every call is traced as google.gmail.<operation> and counted in the
// google_api_operations_total metric.
//
//	c, err := gmail.NewClient(ctx, httpClient, gmail.WithMetrics(m))
//	ids, err := c.ListMessages(ctx, "INBOX", "is:unread", 5)
//	msg, err := c.GetMessage(ctx, ids[0])
//	ref, err := c.CreateDraftReply(ctx, gmail.Reply{
//	    ThreadID:  msg.ThreadID,
//	    To:        msg.Headers["from"],
//	    Subject:   "Re: " + msg.Headers["subject"],
//	    Body:      "Thanks, on it.",
//	    InReplyTo: msg.Headers["message-id"],
//	})
package gmail
