// Package save orchestrates one save request end to end: URL extraction,
// page fetching, content composition and persistence to Drive.
package save

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/gydisme/savebot/internal/compose"
	"github.com/gydisme/savebot/internal/webmeta"
)

// Kind classifies what a request carries.
const (
	KindText     = "text"
	KindImage    = "image"
	KindVideo    = "video"
	KindAudio    = "audio"
	KindFile     = "file"
	KindSticker  = "sticker"
	KindLocation = "location"
)

// DocStore is the persistence surface the service needs from Drive.
type DocStore interface {
	CreateDocument(ctx context.Context, title string, items []compose.Item, mergedHTML string) (string, error)
	UploadFile(ctx context.Context, content []byte, filename, mimeType string) (string, error)
}

// Fetcher resolves URLs into page summaries.
type Fetcher interface {
	FetchAll(ctx context.Context, urls []string) []webmeta.Summary
}

// Request is one unit of content to save. FileContent and Filename are set
// for media saves; Text may accompany them as a caption.
//
// FetchContent, when set, defers the media download to the worker that
// processes the request. Webhook handlers must not block on platform blob
// downloads, so they enqueue the closure instead of the bytes. The returned
// kind and filename override Kind and Filename when non-empty.
type Request struct {
	Platform     string
	ChatContext  string
	Kind         string
	Text         string
	FileContent  []byte
	Filename     string
	FetchContent func(ctx context.Context) (data []byte, kind, filename string, err error)
}

// Service runs the save pipeline.
type Service struct {
	store   DocStore
	fetcher Fetcher
	now     func() time.Time
	log     *slog.Logger
}

func NewService(store DocStore, fetcher Fetcher, log *slog.Logger) *Service {
	return &Service{
		store:   store,
		fetcher: fetcher,
		now:     time.Now,
		log:     log.With(slog.String("service", "save")),
	}
}

// Process saves one request and returns the link to the created document,
// or to the uploaded file when the request was a bare media upload.
func (s *Service) Process(ctx context.Context, req Request) (string, error) {
	s.log.Info("processing save request",
		slog.String("kind", req.Kind),
		slog.String("context", req.ChatContext))

	if req.FetchContent != nil {
		data, kind, filename, err := req.FetchContent(ctx)
		if err != nil {
			return "", fmt.Errorf("fetch content: %w", err)
		}
		req.FileContent = data
		if kind != "" {
			req.Kind = kind
		}
		if filename != "" {
			req.Filename = filename
		}
	}

	urls := compose.ExtractURLs(req.Text)
	var summaries []webmeta.Summary
	if len(urls) > 0 {
		summaries = s.fetcher.FetchAll(ctx, urls)
	}

	title := s.title(req, summaries)

	fileLink := ""
	if len(req.FileContent) > 0 {
		link, err := s.uploadFile(ctx, req, title)
		if err != nil {
			return "", err
		}
		fileLink = link
	}

	result := compose.Compose(compose.Request{
		Title:       title,
		Platform:    req.Platform,
		ChatContext: req.ChatContext,
		Timestamp:   s.now(),
		Text:        req.Text,
		Summaries:   summaries,
		FileLink:    fileLink,
	})

	if result.ShortCircuit() {
		s.log.Info("bare media upload, skipping document", slog.String("title", title))
		return result.FileLink, nil
	}

	link, err := s.store.CreateDocument(ctx, title, result.Items, result.MergedHTML)
	if err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}
	return link, nil
}

func (s *Service) title(req Request, summaries []webmeta.Summary) string {
	seed := ""
	if req.Kind == KindText {
		titles := make([]string, len(summaries))
		for i, sum := range summaries {
			titles[i] = sum.Title
		}
		seed = compose.TitleSeed(req.Text, titles)
	}
	return compose.BuildTitle(s.now(), kindTag(req.Kind), seed)
}

func (s *Service) uploadFile(ctx context.Context, req Request, title string) (string, error) {
	filename := title + fileExt(req.Kind, req.Filename)
	link, err := s.store.UploadFile(ctx, req.FileContent, filename, mimeType(req.Kind, req.Filename))
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}
	return link, nil
}

func kindTag(kind string) string {
	switch kind {
	case KindText:
		return "Doc"
	case KindFile:
		return "File"
	case "":
		return "Doc"
	default:
		return strings.ToUpper(kind[:1]) + kind[1:]
	}
}

// fileExt keeps the original extension when the platform gave us a filename,
// otherwise guesses from the content kind.
func fileExt(kind, filename string) string {
	if ext := filepath.Ext(filename); ext != "" {
		return ext
	}
	switch kind {
	case KindImage:
		return ".jpg"
	case KindVideo:
		return ".mp4"
	case KindAudio:
		return ".m4a"
	}
	return ""
}

func mimeType(kind, filename string) string {
	switch kind {
	case KindImage:
		return "image/jpeg"
	case KindVideo:
		return "video/mp4"
	}
	if ext := filepath.Ext(filename); ext != "" {
		if mt := mime.TypeByExtension(ext); mt != "" {
			return mt
		}
	}
	return "application/octet-stream"
}
