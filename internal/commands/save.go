package commands

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/gydisme/savebot/internal/channel"
	"github.com/gydisme/savebot/internal/i18n"
	"github.com/gydisme/savebot/internal/save"
)

var savePattern = regexp.MustCompile(`^/save\s*(.*)`)

// SaveCommand saves the current message text, or the message it quotes.
// Quoted media is downloaded and saved asynchronously because the transfer
// can outlive the platform's reply window.
type SaveCommand struct {
	platform string
	service  *save.Service
	queue    *save.Queue
	media    channel.MediaFetcher
	i18n     *i18n.Service
	log      *slog.Logger
}

func NewSaveCommand(platform string, service *save.Service, queue *save.Queue, media channel.MediaFetcher, i18nSvc *i18n.Service, log *slog.Logger) *SaveCommand {
	return &SaveCommand{
		platform: platform,
		service:  service,
		queue:    queue,
		media:    media,
		i18n:     i18nSvc,
		log:      log.With(slog.String("service", "commands")),
	}
}

func (c *SaveCommand) Match(text string) bool {
	return strings.HasPrefix(text, "/save")
}

func (c *SaveCommand) Execute(ctx context.Context, msg channel.Message, respond channel.Responder) error {
	title := ""
	if m := savePattern.FindStringSubmatch(strings.TrimSpace(msg.Text)); m != nil {
		title = strings.TrimSpace(m[1])
	}

	if msg.QuotedMessageID != "" {
		return c.saveQuoted(ctx, msg, title, respond)
	}

	link, err := c.service.Process(ctx, save.Request{
		Platform:    c.platform,
		ChatContext: msg.ContextName,
		Kind:        save.KindText,
		Text:        title,
	})
	if err != nil {
		c.log.Error("save command failed", slog.Any("error", err))
		return respond.Reply(ctx, msg, c.i18n.Default("save_error", nil))
	}
	return respond.Reply(ctx, msg, c.i18n.Default("save_success", map[string]string{"link": link}))
}

// saveQuoted defers the quoted message's download and save to the worker
// pool and pushes the outcome, since the transfer can outlive the platform's
// reply window.
func (c *SaveCommand) saveQuoted(ctx context.Context, msg channel.Message, title string, respond channel.Responder) error {
	quotedID := msg.QuotedMessageID
	req := save.Request{
		Platform:    c.platform,
		ChatContext: msg.ContextName,
		Kind:        save.KindFile,
		Text:        title,
		FetchContent: func(ctx context.Context) ([]byte, string, string, error) {
			data, kind, filename, err := c.media.FetchContent(ctx, quotedID)
			return data, string(kind), filename, err
		},
	}
	userID := msg.UserID
	_, depth := c.queue.Enqueue(req, func(link string, err error) {
		if err != nil {
			c.log.Error("quoted save failed",
				slog.String("message_id", quotedID),
				slog.Any("error", err))
			_ = respond.Push(context.Background(), userID, c.i18n.Default("save_error", nil))
			return
		}
		_ = respond.Push(context.Background(), userID, c.i18n.Default("save_success", map[string]string{"link": link}))
	})
	return respond.Reply(ctx, msg, c.i18n.Default("queued_media", map[string]string{
		"count": strconv.Itoa(depth),
	}))
}
