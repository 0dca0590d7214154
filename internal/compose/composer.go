package compose

import (
	"fmt"
	"strings"
	"time"

	"github.com/gydisme/savebot/internal/webmeta"
)

// htmlSeparator visually divides merged page backups in the imported document.
const htmlSeparator = "<br><hr><br>"

// Request carries everything needed to compose one save into content items.
// Summaries are the fetch results for the URLs found in Text, in extraction
// order; unusable entries are ignored here so callers can pass fetch output
// through unfiltered.
type Request struct {
	Title       string
	Platform    string
	ChatContext string
	Timestamp   time.Time
	Text        string
	Summaries   []webmeta.Summary
	FileLink    string
}

// Compose builds the ordered content sequence for one save request.
//
// When an uploaded file produced FileLink and the request carries no text,
// document creation is pointless: the result short-circuits with empty Items.
//
// When any fetched page yielded an HTML fragment, all fragments merge into
// one HTML body (MergedHTML) and no per-URL backup blocks are emitted; the
// header and original-content items still precede the imported content.
// Otherwise each usable summary becomes a structured fallback block.
func Compose(req Request) Result {
	res := Result{Title: req.Title, FileLink: req.FileLink}

	if req.FileLink != "" && req.Text == "" {
		return res
	}

	res.Items = append(res.Items, Text(header(req)))
	res.Items = append(res.Items, originalContent(req.Text)...)

	backups := usable(req.Summaries)
	res.MergedHTML = mergeHTML(backups)
	if res.MergedHTML == "" {
		res.Items = append(res.Items, backupBlocks(backups)...)
	}

	if req.FileLink != "" {
		res.Items = append(res.Items, Text("- GDrive File Link: "+req.FileLink))
	}

	return res
}

func header(req Request) string {
	return fmt.Sprintf(
		"Title: %s\n\nSource:\n- Platform: %s\n- Chat Context: %s\n- Timestamp: %s\n\nContent:",
		req.Title, req.Platform, req.ChatContext, req.Timestamp.Format(time.RFC3339))
}

// originalContent emits the label on its own line, then the message text as
// one paragraph with every URL rendered as a clickable link. Only the final
// run terminates the paragraph.
func originalContent(text string) []Item {
	if text == "" {
		return nil
	}

	items := []Item{Text("- Original Content: ")}
	var runs []Item
	for _, part := range SplitAroundURLs(text) {
		if part == "" {
			continue
		}
		if IsURL(part) {
			runs = append(runs, InlineLink(part, part))
		} else {
			runs = append(runs, Inline(part))
		}
	}
	if len(runs) > 0 {
		runs[len(runs)-1].AppendNewline = true
	}
	return append(items, runs...)
}

func usable(summaries []webmeta.Summary) []webmeta.Summary {
	var out []webmeta.Summary
	for _, s := range summaries {
		if s.Usable() {
			out = append(out, s)
		}
	}
	return out
}

// mergeHTML combines the fetched fragments into a single importable HTML
// document. Empty result means no fragment survived and the structured
// fallback applies.
func mergeHTML(summaries []webmeta.Summary) string {
	var chunks []string
	for _, s := range summaries {
		if s.HTMLFragment != "" {
			chunks = append(chunks, s.HTMLFragment)
		}
	}
	if len(chunks) == 0 {
		return ""
	}
	return "<html><body>" + strings.Join(chunks, htmlSeparator) + "</body></html>"
}

// backupBlocks renders one structured block per fetched page: linked title,
// description, preview image and a blank spacer line.
func backupBlocks(summaries []webmeta.Summary) []Item {
	if len(summaries) == 0 {
		return nil
	}

	items := []Item{Text("\n[Comprehensive Content Backup]\n")}
	for _, s := range summaries {
		items = append(items, Link("Title: "+s.Title, s.URL))

		details := ""
		if s.Description != "" {
			details = "Description: " + s.Description + "\n"
		}
		items = append(items, Text(details))

		if s.ImageURL != "" {
			items = append(items, Image(s.ImageURL))
		}
		items = append(items, Text("\n"))
	}
	return items
}
