// ABOUTME: Google Gmail API client and message source
// ABOUTME: Lists high-signal messages page by page and fetches their headers
package sync

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const maxGmailResults = 500 // Gmail API max per page

// MessageSource is the mailbox the importer reads.
type MessageSource interface {
	// Profile returns the mailbox address and its current history id.
	Profile(ctx context.Context) (string, uint64, error)
	// Messages calls fn for every message matching query.
	Messages(ctx context.Context, query string, fn func(*gmail.Message) error) error
}

// NewGmailClient creates a new Google Gmail API client.
func NewGmailClient(ctx context.Context, token *oauth2.Token) (*gmail.Service, error) {
	if token == nil {
		return nil, fmt.Errorf("token cannot be nil")
	}

	client := NewOAuthConfig().Client(ctx, token)
	service, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return service, nil
}

// GmailSource reads messages through the Gmail API.
type GmailSource struct {
	svc *gmail.Service
}

func NewGmailSource(svc *gmail.Service) *GmailSource {
	return &GmailSource{svc: svc}
}

func (g *GmailSource) Profile(ctx context.Context) (string, uint64, error) {
	profile, err := g.svc.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return "", 0, fmt.Errorf("failed to get user profile: %w", err)
	}
	return profile.EmailAddress, profile.HistoryId, nil
}

func (g *GmailSource) Messages(ctx context.Context, query string, fn func(*gmail.Message) error) error {
	call := g.svc.Users.Messages.List("me").Q(query).MaxResults(maxGmailResults)
	return call.Pages(ctx, func(page *gmail.ListMessagesResponse) error {
		for _, ref := range page.Messages {
			msg, err := g.svc.Users.Messages.Get("me", ref.Id).
				Format("metadata").
				MetadataHeaders("From", "To", "Cc", "Subject", "Date").
				Context(ctx).
				Do()
			if err != nil {
				return fmt.Errorf("failed to fetch message %s: %w", ref.Id, err)
			}
			if err := fn(msg); err != nil {
				return err
			}
		}
		return nil
	})
}
