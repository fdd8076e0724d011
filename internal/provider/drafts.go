package provider

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/draft"
	"github.com/sells-group/prospect-cli/internal/resilience"
	"github.com/sells-group/prospect-cli/pkg/gmail"
	"github.com/sells-group/prospect-cli/pkg/notion"
)

// GmailDrafts creates drafts in the authorized Gmail mailbox.
type GmailDrafts struct {
	Client gmail.Client
	Guard  *resilience.Guard
	From   string
}

// Create implements draft.Creator.
func (g GmailDrafts) Create(ctx context.Context, msg draft.Message) (string, error) {
	atts := make([]gmail.Attachment, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		atts = append(atts, gmail.Attachment{Filename: a.Filename, ContentType: a.ContentType, Data: a.Data})
	}
	raw, err := gmail.Build(gmail.Message{
		From:        g.From,
		To:          msg.To,
		ToName:      msg.ToName,
		Subject:     msg.Subject,
		Body:        msg.Body,
		Attachments: atts,
	})
	if err != nil {
		return "", err
	}

	d, err := resilience.Call(ctx, g.Guard, ServiceGmail, "create_draft", func(ctx context.Context) (*gmail.Draft, error) {
		return g.Client.CreateDraft(ctx, raw)
	})
	if err != nil {
		return "", err
	}
	return d.ID, nil
}

// NotionDrafts records drafts as pages in a Notion outreach database.
// Attachments are listed by name only.
type NotionDrafts struct {
	Client     notion.Client
	Guard      *resilience.Guard
	DatabaseID string
}

// Create implements draft.Creator.
func (n NotionDrafts) Create(ctx context.Context, msg draft.Message) (string, error) {
	if n.DatabaseID == "" {
		return "", eris.New("provider: notion database id is required")
	}
	names := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		names = append(names, a.Filename)
	}
	page := notion.DraftPage{
		DatabaseID:  n.DatabaseID,
		Subject:     msg.Subject,
		To:          msg.To,
		ToName:      msg.ToName,
		Body:        msg.Body,
		Attachments: names,
	}
	return resilience.Call(ctx, n.Guard, ServiceNotion, "create_page", func(ctx context.Context) (string, error) {
		return notion.CreateDraftPage(ctx, n.Client, page)
	})
}
