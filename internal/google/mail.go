package google

import (
	"context"
	"fmt"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Message is the subset of a mail message the workflow engine needs:
// a stable id for deduplication plus sender, subject, and a short
// preview for classification prompts.
type Message struct {
	ID      string
	From    string
	Subject string
	Snippet string
}

// MailClient lists recent messages from the user's Gmail inbox.
type MailClient struct {
	cred *Credential
}

// NewMailClient creates a MailClient with the given credential.
func NewMailClient(cred *Credential) *MailClient {
	return &MailClient{cred: cred}
}

// RecentMessages fetches up to max recent messages matching the Gmail
// search query (e.g. "is:unread"). An empty query lists the most
// recent messages unfiltered.
func (c *MailClient) RecentMessages(ctx context.Context, max int64, query string) ([]Message, error) {
	if c.cred == nil {
		return nil, ErrNotConnected
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(c.cred.HTTPClient(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}

	call := svc.Users.Messages.List("me").MaxResults(max)
	if query != "" {
		call = call.Q(query)
	}
	list, err := call.Context(ctx).Do()
	if err != nil {
		return nil, classifyErr(err)
	}

	messages := make([]Message, 0, len(list.Messages))
	for _, ref := range list.Messages {
		full, err := svc.Users.Messages.Get("me", ref.Id).
			Format("metadata").
			MetadataHeaders("From", "Subject").
			Context(ctx).Do()
		if err != nil {
			return nil, classifyErr(err)
		}

		msg := Message{ID: full.Id, Snippet: full.Snippet}
		if full.Payload != nil {
			for _, h := range full.Payload.Headers {
				switch h.Name {
				case "From":
					msg.From = h.Value
				case "Subject":
					msg.Subject = h.Value
				}
			}
		}
		messages = append(messages, msg)
	}

	return messages, nil
}
