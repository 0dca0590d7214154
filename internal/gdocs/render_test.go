package gdocs

import (
	"testing"
	"unicode/utf16"

	"google.golang.org/api/docs/v1"

	"github.com/gydisme/savebot/internal/compose"
)

// fakeDoc simulates the Docs API body: a UTF-16 code unit sequence where
// body index 1 maps to position 0, and insertions push existing content down.
type fakeDoc struct {
	units []uint16
}

func (d *fakeDoc) apply(t *testing.T, reqs []*docs.Request) {
	t.Helper()
	for _, r := range reqs {
		if r.InsertText != nil {
			pos := int(r.InsertText.Location.Index) - 1
			if pos < 0 || pos > len(d.units) {
				t.Fatalf("insert at %d outside document of length %d", pos, len(d.units))
			}
			ins := utf16.Encode([]rune(r.InsertText.Text))
			d.units = append(d.units[:pos], append(append([]uint16{}, ins...), d.units[pos:]...)...)
		}
	}
}

func (d *fakeDoc) String() string {
	return string(utf16.Decode(d.units))
}

func TestRenderPreservesReadingOrder(t *testing.T) {
	t.Parallel()

	items := []compose.Item{
		compose.Text("first"),
		compose.Text("second"),
		compose.Text("third"),
	}

	reqs, err := Render(items)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	var doc fakeDoc
	doc.apply(t, reqs)

	if got, want := doc.String(), "first\nsecond\nthird\n"; got != want {
		t.Fatalf("document = %q, want %q", got, want)
	}
}

func TestRenderInlineRunsShareParagraph(t *testing.T) {
	t.Parallel()

	items := []compose.Item{
		compose.Inline("see "),
		compose.InlineLink("https://a.example", "https://a.example"),
		compose.Text(" now"),
	}

	reqs, err := Render(items)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	var doc fakeDoc
	doc.apply(t, reqs)

	if got, want := doc.String(), "see https://a.example now\n"; got != want {
		t.Fatalf("document = %q, want %q", got, want)
	}
}

func TestRenderLinkStyleExcludesNewline(t *testing.T) {
	t.Parallel()

	reqs, err := Render([]compose.Item{compose.Link("Title: Alpha", "https://a.example")})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	if len(reqs) != 2 {
		t.Fatalf("got %d requests, want 2", len(reqs))
	}
	if reqs[0].InsertText == nil || reqs[0].InsertText.Text != "Title: Alpha\n" {
		t.Fatalf("unexpected insert: %+v", reqs[0])
	}
	style := reqs[1].UpdateTextStyle
	if style == nil {
		t.Fatal("missing updateTextStyle request")
	}
	if style.Range.StartIndex != 1 || style.Range.EndIndex != 1+int64(len("Title: Alpha")) {
		t.Fatalf("style range = [%d,%d), want [1,%d)",
			style.Range.StartIndex, style.Range.EndIndex, 1+len("Title: Alpha"))
	}
	if style.TextStyle.Link.Url != "https://a.example" {
		t.Fatalf("link url = %q", style.TextStyle.Link.Url)
	}
	if style.Fields != "link" {
		t.Fatalf("fields = %q, want %q", style.Fields, "link")
	}
}

func TestRenderHeadingAndListIncludeNewline(t *testing.T) {
	t.Parallel()

	reqs, err := Render([]compose.Item{compose.Heading(2, "Section")})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	para := reqs[1].UpdateParagraphStyle
	if para == nil {
		t.Fatal("missing updateParagraphStyle request")
	}
	if para.ParagraphStyle.NamedStyleType != "HEADING_2" {
		t.Fatalf("style = %q", para.ParagraphStyle.NamedStyleType)
	}
	if para.Range.EndIndex != 1+int64(len("Section\n")) {
		t.Fatalf("heading range end = %d, want %d", para.Range.EndIndex, 1+len("Section\n"))
	}

	reqs, err = Render([]compose.Item{compose.ListItem("point")})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	bullets := reqs[1].CreateParagraphBullets
	if bullets == nil {
		t.Fatal("missing createParagraphBullets request")
	}
	if bullets.BulletPreset != "BULLET_DISC_CIRCLE_SQUARE" {
		t.Fatalf("preset = %q", bullets.BulletPreset)
	}
	if bullets.Range.EndIndex != 1+int64(len("point\n")) {
		t.Fatalf("bullet range end = %d, want %d", bullets.Range.EndIndex, 1+len("point\n"))
	}
}

func TestRenderRangesCountUTF16Units(t *testing.T) {
	t.Parallel()

	// U+1F600 needs a surrogate pair: 2 units, not 1 rune or 4 bytes.
	text := "Title: \U0001F600"
	reqs, err := Render([]compose.Item{compose.Link(text, "https://a.example")})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	style := reqs[1].UpdateTextStyle
	want := int64(1 + len("Title: ") + 2)
	if style.Range.EndIndex != want {
		t.Fatalf("style range end = %d, want %d", style.Range.EndIndex, want)
	}
}

func TestRenderImage(t *testing.T) {
	t.Parallel()

	reqs, err := Render([]compose.Item{compose.Image("https://img.example/a.png")})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("got %d requests, want 2", len(reqs))
	}
	img := reqs[0].InsertInlineImage
	if img == nil {
		t.Fatal("missing insertInlineImage request")
	}
	if img.Uri != "https://img.example/a.png" {
		t.Fatalf("uri = %q", img.Uri)
	}
	if img.ObjectSize.Width.Magnitude != 400 || img.ObjectSize.Width.Unit != "PT" {
		t.Fatalf("unexpected size: %+v", img.ObjectSize.Width)
	}
	if reqs[1].InsertText == nil || reqs[1].InsertText.Text != "\n" {
		t.Fatalf("expected trailing newline insert, got %+v", reqs[1])
	}

	// Image without a URI renders nothing rather than producing an invalid
	// request.
	reqs, err = Render([]compose.Item{{Kind: compose.KindImage}})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if len(reqs) != 0 {
		t.Fatalf("got %d requests, want 0", len(reqs))
	}
}

func TestRenderRejectsBadHeadingLevel(t *testing.T) {
	t.Parallel()

	if _, err := Render([]compose.Item{compose.Heading(4, "nope")}); err == nil {
		t.Fatal("expected error for heading level 4")
	}
	if _, err := Render([]compose.Item{compose.Heading(0, "nope")}); err == nil {
		t.Fatal("expected error for heading level 0")
	}
}

func TestRenderMixedDocumentRoundTrip(t *testing.T) {
	t.Parallel()

	items := []compose.Item{
		compose.Heading(1, "Backup"),
		compose.Inline("- Original Content: "),
		compose.InlineLink("https://a.example", "https://a.example"),
		compose.Inline(" trailing"),
		compose.Text(""),
		compose.ListItem("first point"),
		compose.ListItem("second point"),
		compose.Text("done"),
	}

	reqs, err := Render(items)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	var doc fakeDoc
	doc.apply(t, reqs)

	want := "Backup\n- Original Content: https://a.example trailing\nfirst point\nsecond point\ndone\n"
	if got := doc.String(); got != want {
		t.Fatalf("document = %q, want %q", got, want)
	}
}
