package gdocs

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/gydisme/savebot/internal/compose"
)

const docMimeType = "application/vnd.google-apps.document"

// Config selects the credentials and target folder for Drive access.
// TokenFile takes precedence when it exists, so a user-consented token can
// override the service account without a config change.
type Config struct {
	CredentialsFile string
	TokenFile       string
	FolderID        string
}

// Client wraps the Docs and Drive services behind the handful of operations
// the save flow needs.
type Client struct {
	docs     *docs.Service
	drive    *drive.Service
	folderID string
	log      *slog.Logger
}

// NewClient authenticates against Google and builds the API services.
func NewClient(ctx context.Context, cfg Config, log *slog.Logger) (*Client, error) {
	opts, err := clientOptions(ctx, cfg)
	if err != nil {
		return nil, err
	}

	docsSvc, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create docs service: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	return &Client{
		docs:     docsSvc,
		drive:    driveSvc,
		folderID: cfg.FolderID,
		log:      log.With(slog.String("service", "gdocs")),
	}, nil
}

func clientOptions(ctx context.Context, cfg Config) ([]option.ClientOption, error) {
	if cfg.TokenFile != "" {
		if data, err := os.ReadFile(cfg.TokenFile); err == nil {
			creds, err := google.CredentialsFromJSON(ctx, data, drive.DriveScope)
			if err != nil {
				return nil, fmt.Errorf("parse token file: %w", err)
			}
			return []option.ClientOption{option.WithCredentials(creds)}, nil
		}
	}
	return []option.ClientOption{
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(drive.DriveScope),
	}, nil
}

func (c *Client) parents() []string {
	if c.folderID == "" {
		return nil
	}
	return []string{c.folderID}
}

// CreateDocument persists one composed result as a Google Doc and returns
// its web link. With merged HTML the document body comes from Drive's HTML
// conversion; the items are then prepended on top. Without it the document
// starts empty and the items are its whole content.
func (c *Client) CreateDocument(ctx context.Context, title string, items []compose.Item, mergedHTML string) (string, error) {
	var (
		docID string
		err   error
	)
	if mergedHTML != "" {
		docID, err = c.importHTML(ctx, title, mergedHTML)
	} else {
		docID, err = c.createEmptyDoc(ctx, title)
	}
	if err != nil {
		return "", err
	}

	reqs, err := Render(items)
	if err != nil {
		return "", err
	}
	if len(reqs) > 0 {
		_, err = c.docs.Documents.BatchUpdate(docID, &docs.BatchUpdateDocumentRequest{
			Requests: reqs,
		}).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("batch update document: %w", err)
		}
	}

	c.log.Info("document created",
		slog.String("title", title),
		slog.String("doc_id", docID))
	return c.webViewLink(ctx, docID)
}

func (c *Client) createEmptyDoc(ctx context.Context, title string) (string, error) {
	file, err := c.drive.Files.Create(&drive.File{
		Name:     title,
		MimeType: docMimeType,
		Parents:  c.parents(),
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}
	return file.Id, nil
}

// importHTML lets Drive convert an HTML body into a native document,
// preserving tables, emphasis and other formatting the item model cannot
// express.
func (c *Client) importHTML(ctx context.Context, title, html string) (string, error) {
	file, err := c.drive.Files.Create(&drive.File{
		Name:     title,
		MimeType: docMimeType,
		Parents:  c.parents(),
	}).Media(strings.NewReader(html), googleapi.ContentType("text/html")).
		Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("import html document: %w", err)
	}
	return file.Id, nil
}

// UploadFile stores raw media in the target folder and returns its web link.
func (c *Client) UploadFile(ctx context.Context, content []byte, filename, mimeType string) (string, error) {
	file, err := c.drive.Files.Create(&drive.File{
		Name:    filename,
		Parents: c.parents(),
	}).Media(bytes.NewReader(content), googleapi.ContentType(mimeType)).
		Fields("id", "webViewLink").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}

	c.log.Info("file uploaded",
		slog.String("filename", filename),
		slog.Int("size", len(content)))
	return file.WebViewLink, nil
}

func (c *Client) webViewLink(ctx context.Context, fileID string) (string, error) {
	file, err := c.drive.Files.Get(fileID).Fields("webViewLink").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get file link: %w", err)
	}
	return file.WebViewLink, nil
}
