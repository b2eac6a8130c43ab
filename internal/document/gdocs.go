package document

import (
	"context"
	"fmt"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"

	"pun_archiver/internal/domain"
)

// GoogleDocs is a Document backed by the Google Docs API.
type GoogleDocs struct {
	svc        *docs.Service
	documentID string
}

func NewGoogleDocs(ctx context.Context, documentID string, opts ...option.ClientOption) (*GoogleDocs, error) {
	svc, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create docs service: %w", err)
	}
	return &GoogleDocs{svc: svc, documentID: documentID}, nil
}

// Apply sends edits as a single batchUpdate call.
func (g *GoogleDocs) Apply(ctx context.Context, edits ...domain.DocumentEdit) error {
	requests := make([]*docs.Request, 0, len(edits))
	for _, edit := range edits {
		r, err := toRequest(edit)
		if err != nil {
			return err
		}
		requests = append(requests, r)
	}

	_, err := g.svc.Documents.
		BatchUpdate(g.documentID, &docs.BatchUpdateDocumentRequest{Requests: requests}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("batch update %s: %w", g.documentID, err)
	}
	return nil
}

func (g *GoogleDocs) Layout(ctx context.Context) (*domain.Layout, error) {
	doc, err := g.svc.Documents.Get(g.documentID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", g.documentID, err)
	}

	layout := &domain.Layout{}
	if doc.Body == nil {
		return layout, nil
	}

	for _, el := range doc.Body.Content {
		if el.EndIndex > layout.End {
			layout.End = el.EndIndex
		}
		if el.Paragraph == nil {
			continue
		}
		layout.Paragraphs = append(layout.Paragraphs, domain.Range{Start: el.StartIndex, End: el.EndIndex})
	}

	return layout, nil
}

func toRequest(edit domain.DocumentEdit) (*docs.Request, error) {
	switch e := edit.(type) {
	case domain.InsertText:
		return &docs.Request{
			InsertText: &docs.InsertTextRequest{
				Location: &docs.Location{Index: e.Index},
				Text:     e.Text,
			},
		}, nil
	case domain.SetParagraphStyle:
		return &docs.Request{
			UpdateParagraphStyle: &docs.UpdateParagraphStyleRequest{
				Range: toRange(e.Range),
				ParagraphStyle: &docs.ParagraphStyle{
					NamedStyleType: e.NamedStyle,
					SpaceAbove:     zeroPoints(),
					SpaceBelow:     zeroPoints(),
				},
				Fields: "namedStyleType,spaceAbove,spaceBelow",
			},
		}, nil
	case domain.SetItalic:
		return &docs.Request{
			UpdateTextStyle: &docs.UpdateTextStyleRequest{
				Range:     toRange(e.Range),
				TextStyle: &docs.TextStyle{Italic: true},
				Fields:    "italic",
			},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported document edit %T", edit)
	}
}

func toRange(r domain.Range) *docs.Range {
	return &docs.Range{StartIndex: r.Start, EndIndex: r.End}
}

func zeroPoints() *docs.Dimension {
	return &docs.Dimension{Magnitude: 0, Unit: "PT", ForceSendFields: []string{"Magnitude"}}
}
