// Package webmeta fetches remote pages and normalizes them into backup
// summaries: Open Graph style metadata plus a sanitized HTML fragment of the
// page's main content.
package webmeta

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// Summary is the normalized description of one fetched page. A zero Summary
// (empty Title) means the page could not be fetched or parsed; callers treat
// it as "nothing usable" rather than an error.
type Summary struct {
	URL          string
	Title        string
	Description  string
	ImageURL     string
	HTMLFragment string
}

// Usable reports whether the summary carries enough metadata to back up.
func (s Summary) Usable() bool {
	return strings.TrimSpace(s.Title) != ""
}

const (
	// DefaultTimeout bounds a single page fetch.
	DefaultTimeout = 15 * time.Second

	// DefaultUserAgent is a desktop browser identity; several major sites
	// refuse or strip metadata for unknown agents.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Fetcher retrieves pages and extracts summaries.
type Fetcher struct {
	client    *http.Client
	userAgent string
	log       *slog.Logger
}

// NewFetcher builds a Fetcher. A zero timeout falls back to DefaultTimeout
// and an empty userAgent falls back to DefaultUserAgent.
func NewFetcher(timeout time.Duration, userAgent string, log *slog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		log:       log.With(slog.String("service", "webmeta")),
	}
}

// Fetch retrieves url and extracts a Summary. All failure modes (network
// errors, non-2xx status, unparsable bodies) degrade to a zero Summary with
// only URL set; the save flow must not fail because one page is unreachable.
func (f *Fetcher) Fetch(ctx context.Context, url string) Summary {
	s, err := f.fetch(ctx, url)
	if err != nil {
		f.log.Warn("fetch page metadata",
			slog.String("url", url),
			slog.Any("error", err))
		return Summary{URL: url}
	}
	return s
}

// FetchAll fetches every URL in order and returns a summary per URL,
// unusable ones included so indexes line up with the input.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []Summary {
	summaries := make([]Summary, len(urls))
	for i, u := range urls {
		summaries[i] = f.Fetch(ctx, u)
	}
	return summaries
}

func (f *Fetcher) fetch(ctx context.Context, url string) (Summary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return Summary{}, fmt.Errorf("get page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Summary{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	// Decode legacy encodings (Big5, GBK, Shift_JIS) to UTF-8 before parsing.
	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return Summary{}, fmt.Errorf("detect charset: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return Summary{}, fmt.Errorf("parse html: %w", err)
	}

	return extract(doc, url), nil
}

func extract(doc *goquery.Document, url string) Summary {
	s := Summary{URL: url}

	s.Title = metaContent(doc, `meta[property="og:title"]`)
	if s.Title == "" {
		s.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	s.Description = metaContent(doc, `meta[property="og:description"]`)
	if s.Description == "" {
		s.Description = metaContent(doc, `meta[name="description"]`)
	}

	s.ImageURL = resolveImageURL(url, metaContent(doc, `meta[property="og:image"]`))

	s.HTMLFragment = mainContent(doc)

	return s
}

// resolveImageURL makes relative og:image values absolute against the page
// URL; image URIs must be fetchable on their own to embed in a document.
func resolveImageURL(pageURL, image string) string {
	if image == "" || strings.HasPrefix(image, "http") {
		return image
	}
	base, err := neturl.Parse(pageURL)
	if err != nil {
		return image
	}
	ref, err := neturl.Parse(image)
	if err != nil {
		return image
	}
	return base.ResolveReference(ref).String()
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

// elements whose subtrees never belong in a content backup.
var strippedSelectors = []string{
	"script", "style", "nav", "footer", "header", "aside", "iframe", "noscript",
}

// mainContent returns a sanitized HTML fragment of the page's primary
// content, preferring <main> over <article> over <body>.
func mainContent(doc *goquery.Document) string {
	for _, sel := range strippedSelectors {
		doc.Find(sel).Remove()
	}

	// Event handler attributes would survive a raw HTML import.
	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		for _, node := range sel.Nodes {
			for _, attr := range node.Attr {
				if strings.HasPrefix(strings.ToLower(attr.Key), "on") {
					sel.RemoveAttr(attr.Key)
				}
			}
		}
	})

	for _, sel := range []string{"main", "article", "body"} {
		root := doc.Find(sel).First()
		if root.Length() == 0 {
			continue
		}
		html, err := root.Html()
		if err != nil || strings.TrimSpace(html) == "" {
			continue
		}
		return html
	}
	return "<div>No main content found</div>"
}
