package notion

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// maxRichText is Notion's per-rich-text content limit.
const maxRichText = 2000

// DraftStatus is the Status value given to new draft pages.
const DraftStatus = "Draft"

// DraftPage is one outreach draft stored as a database row.
type DraftPage struct {
	DatabaseID  string
	Subject     string
	To          string
	ToName      string
	Body        string
	Attachments []string
}

// BuildDraftPage converts d into a page create request. The subject is
// the title; the body becomes paragraph blocks, one per blank-line
// separated section.
func BuildDraftPage(d DraftPage) *notionapi.PageCreateRequest {
	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: richText(d.Subject),
		},
		"Email": notionapi.EmailProperty{
			Type:  notionapi.PropertyTypeEmail,
			Email: d.To,
		},
		"Recipient": notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(d.ToName),
		},
		"Status": notionapi.StatusProperty{
			Status: notionapi.Status{Name: DraftStatus},
		},
	}

	var blocks []notionapi.Block
	for _, section := range strings.Split(d.Body, "\n\n") {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		blocks = append(blocks, paragraph(section))
	}
	if len(d.Attachments) > 0 {
		blocks = append(blocks, paragraph("Attachments: "+strings.Join(d.Attachments, ", ")))
	}

	return &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(d.DatabaseID),
		},
		Properties: props,
		Children:   blocks,
	}
}

// CreateDraftPage creates the page and returns its ID.
func CreateDraftPage(ctx context.Context, c Client, d DraftPage) (string, error) {
	if d.DatabaseID == "" {
		return "", eris.New("notion: draft database id is required")
	}
	page, err := c.CreatePage(ctx, BuildDraftPage(d))
	if err != nil {
		return "", eris.Wrapf(err, "notion: create draft for %s", d.To)
	}
	return string(page.ID), nil
}

func paragraph(text string) notionapi.Block {
	return notionapi.ParagraphBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeParagraph,
		},
		Paragraph: notionapi.Paragraph{RichText: richText(text)},
	}
}

// richText splits s into chunks Notion accepts.
func richText(s string) []notionapi.RichText {
	var out []notionapi.RichText
	for r := []rune(s); len(r) > 0; {
		n := min(len(r), maxRichText)
		out = append(out, notionapi.RichText{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: string(r[:n])},
		})
		r = r[n:]
	}
	return out
}
