// Package compose turns an inbound save request (free text, fetched page
// summaries, an optional uploaded-file link) into an ordered sequence of
// typed content items ready for document rendering.
package compose

// ItemKind discriminates the content item variants.
type ItemKind string

const (
	KindText     ItemKind = "text"
	KindLink     ItemKind = "link"
	KindHeading  ItemKind = "heading"
	KindListItem ItemKind = "list_item"
	KindImage    ItemKind = "image"
)

// Item is one semantic unit of composed output. Which fields are meaningful
// depends on Kind: Text for text/link/heading/list items, URL for links,
// URI for images, Level (1-3) for headings.
//
// AppendNewline controls paragraph termination for text and link items:
// consecutive inline items with AppendNewline=false render on one visual
// line. Headings and list items always terminate their paragraph.
type Item struct {
	Kind          ItemKind
	Text          string
	URL           string
	URI           string
	Level         int
	AppendNewline bool
}

// Text returns a paragraph-terminating text block.
func Text(text string) Item {
	return Item{Kind: KindText, Text: text, AppendNewline: true}
}

// Inline returns a text run that does not terminate its paragraph.
func Inline(text string) Item {
	return Item{Kind: KindText, Text: text}
}

// Link returns a paragraph-terminating hyperlink item.
func Link(text, url string) Item {
	return Item{Kind: KindLink, Text: text, URL: url, AppendNewline: true}
}

// InlineLink returns a hyperlink run that does not terminate its paragraph.
func InlineLink(text, url string) Item {
	return Item{Kind: KindLink, Text: text, URL: url}
}

// Heading returns a heading item at the given level (1-3).
func Heading(level int, text string) Item {
	return Item{Kind: KindHeading, Text: text, Level: level, AppendNewline: true}
}

// ListItem returns a bulleted list entry.
func ListItem(text string) Item {
	return Item{Kind: KindListItem, Text: text, AppendNewline: true}
}

// Image returns an inline image item referencing a publicly fetchable URI.
func Image(uri string) Item {
	return Item{Kind: KindImage, URI: uri}
}

// Result is the outcome of composing one save request.
//
// MergedHTML is non-empty if and only if at least one fetched page yielded an
// HTML fragment; in that case Items carries no structured backup blocks for
// any URL (the HTML import supersedes them).
//
// FileLink set with empty Items signals the file-only short-circuit: the
// caller should return the stored-file link directly instead of creating a
// document.
type Result struct {
	Title      string
	Items      []Item
	MergedHTML string
	FileLink   string
}

// ShortCircuit reports whether the caller should skip document creation and
// hand back the uploaded-file link as-is.
func (r Result) ShortCircuit() bool {
	return r.FileLink != "" && len(r.Items) == 0
}
