// Package gdocs renders composed content items into Google Docs API batch
// requests and wraps the Drive/Docs services used to persist them.
package gdocs

import (
	"fmt"
	"unicode/utf16"

	"google.golang.org/api/docs/v1"

	"github.com/gydisme/savebot/internal/compose"
)

// The Docs API only offers reliable insertion at the very top of the body
// (index 1). Rendering therefore walks the items in REVERSE order, always
// inserting at index 1: the last item lands first and is pushed down by each
// earlier one, so the document reads in the original item order.
const insertIndex = 1

const (
	bulletPreset  = "BULLET_DISC_CIRCLE_SQUARE"
	imageWidthPT  = 400
	maxHeadingLvl = 3
)

// Render translates items into the batch update requests that reproduce them
// in reading order. The returned slice is ready for documents.batchUpdate.
func Render(items []compose.Item) ([]*docs.Request, error) {
	var reqs []*docs.Request
	for i := len(items) - 1; i >= 0; i-- {
		r, err := renderItem(items[i])
		if err != nil {
			return nil, fmt.Errorf("render item %d: %w", i, err)
		}
		reqs = append(reqs, r...)
	}
	return reqs, nil
}

func renderItem(item compose.Item) ([]*docs.Request, error) {
	switch item.Kind {
	case compose.KindText:
		return []*docs.Request{insertText(withNewline(item))}, nil

	case compose.KindLink:
		reqs := []*docs.Request{insertText(withNewline(item))}
		if item.URL != "" {
			// The link style covers the text only, never the newline; a
			// styled newline would bleed the link into the next paragraph.
			reqs = append(reqs, &docs.Request{
				UpdateTextStyle: &docs.UpdateTextStyleRequest{
					Range:     topRange(item.Text),
					TextStyle: &docs.TextStyle{Link: &docs.Link{Url: item.URL}},
					Fields:    "link",
				},
			})
		}
		return reqs, nil

	case compose.KindHeading:
		if item.Level < 1 || item.Level > maxHeadingLvl {
			return nil, fmt.Errorf("heading level %d out of range", item.Level)
		}
		text := item.Text + "\n"
		return []*docs.Request{
			insertText(text),
			{
				UpdateParagraphStyle: &docs.UpdateParagraphStyleRequest{
					Range: topRange(text),
					ParagraphStyle: &docs.ParagraphStyle{
						NamedStyleType: fmt.Sprintf("HEADING_%d", item.Level),
					},
					Fields: "namedStyleType",
				},
			},
		}, nil

	case compose.KindListItem:
		text := item.Text + "\n"
		return []*docs.Request{
			insertText(text),
			{
				CreateParagraphBullets: &docs.CreateParagraphBulletsRequest{
					Range:        topRange(text),
					BulletPreset: bulletPreset,
				},
			},
		}, nil

	case compose.KindImage:
		if item.URI == "" {
			return nil, nil
		}
		return []*docs.Request{
			{
				InsertInlineImage: &docs.InsertInlineImageRequest{
					Location: &docs.Location{Index: insertIndex},
					Uri:      item.URI,
					ObjectSize: &docs.Size{
						Width: &docs.Dimension{Magnitude: imageWidthPT, Unit: "PT"},
					},
				},
			},
			insertText("\n"),
		}, nil

	default:
		return nil, fmt.Errorf("unknown item kind %q", item.Kind)
	}
}

func withNewline(item compose.Item) string {
	if item.AppendNewline {
		return item.Text + "\n"
	}
	return item.Text
}

func insertText(text string) *docs.Request {
	return &docs.Request{
		InsertText: &docs.InsertTextRequest{
			Location: &docs.Location{Index: insertIndex},
			Text:     text,
		},
	}
}

// topRange addresses the freshly inserted text at the top of the body. Docs
// API indexes count UTF-16 code units, not bytes or runes.
func topRange(text string) *docs.Range {
	return &docs.Range{
		StartIndex: insertIndex,
		EndIndex:   insertIndex + utf16Len(text),
	}
}

func utf16Len(s string) int64 {
	var n int64
	for _, r := range s {
		n += int64(len(utf16.Encode([]rune{r})))
	}
	return n
}
