// Package telegram implements the Telegram channel via long polling.
package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/gydisme/savebot/internal/channel"
	"github.com/gydisme/savebot/internal/commands"
	"github.com/gydisme/savebot/internal/i18n"
	"github.com/gydisme/savebot/internal/save"
	"github.com/gydisme/savebot/internal/settings"
)

// Platform identifies this channel in saved documents.
const Platform = "Telegram"

// Adapter long-polls Telegram updates and routes them through the command
// registry and the save queue.
//
// Telegram media is addressed by file id rather than message id, so the
// normalized Message carries the file id in ID (and QuotedMessageID for
// replied-to media); FetchContent resolves file ids.
type Adapter struct {
	bot      *tgbotapi.BotAPI
	registry *commands.Registry
	queue    *save.Queue
	settings *settings.Store
	i18n     *i18n.Service
	client   *http.Client
	log      *slog.Logger
}

// NewAdapter connects to the bot API. The registry must be attached with
// SetRegistry before Start, since commands need the adapter as responder.
func NewAdapter(token string, queue *save.Queue, store *settings.Store, i18nSvc *i18n.Service, log *slog.Logger) (*Adapter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	return &Adapter{
		bot:      bot,
		queue:    queue,
		settings: store,
		i18n:     i18nSvc,
		client:   &http.Client{Timeout: 60 * time.Second},
		log:      log.With(slog.String("adapter", "telegram")),
	}, nil
}

func (a *Adapter) SetRegistry(registry *commands.Registry) {
	a.registry = registry
}

// Start consumes updates until ctx is cancelled.
func (a *Adapter) Start(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := a.bot.GetUpdatesChan(cfg)

	a.log.Info("telegram adapter started",
		slog.String("username", a.bot.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			if err := a.handle(ctx, update.Message); err != nil {
				a.log.Error("handle update",
					slog.Int("message_id", update.Message.MessageID),
					slog.Any("error", err))
			}
		}
	}
}

func (a *Adapter) handle(ctx context.Context, m *tgbotapi.Message) error {
	msg := Normalize(m)

	if msg.Kind == channel.KindText {
		handled, err := a.registry.Dispatch(ctx, msg, a)
		if err != nil {
			return err
		}
		if handled {
			return nil
		}
	}

	if msg.SourceType != channel.SourceUser || !a.settings.AutoSave(msg.UserID) {
		return nil
	}
	return a.autoSave(ctx, msg)
}

// autoSave acknowledges immediately with the queue depth, then lets the
// worker pool do the slow part (download included) and push the outcome.
func (a *Adapter) autoSave(ctx context.Context, msg channel.Message) error {
	req := save.Request{
		Platform:    Platform,
		ChatContext: msg.ContextName,
		Kind:        string(msg.Kind),
		Text:        msg.Text,
	}

	// Locations carry no downloadable content and save as text.
	textual := msg.Kind == channel.KindText || msg.Kind == channel.KindLocation
	if !textual {
		fileID := msg.ID
		filename := msg.Filename
		req.FetchContent = func(ctx context.Context) ([]byte, string, string, error) {
			data, kind, name, err := a.FetchContent(ctx, fileID)
			if filename != "" {
				name = filename
			}
			return data, string(kind), name, err
		}
	}

	userID := msg.UserID
	_, depth := a.queue.Enqueue(req, func(link string, err error) {
		if err != nil {
			_ = a.Push(context.Background(), userID, a.i18n.Default("save_error", nil))
			return
		}
		_ = a.Push(context.Background(), userID, a.i18n.Default("save_success", map[string]string{"link": link}))
	})

	noticeKey := "queued_media"
	if textual {
		noticeKey = "queued_text"
	}
	return a.Reply(ctx, msg, a.i18n.Default(noticeKey, map[string]string{
		"count": strconv.Itoa(depth),
	}))
}

// Normalize maps a Telegram message onto the shared message model.
func Normalize(m *tgbotapi.Message) channel.Message {
	msg := channel.Message{
		ID:         strconv.Itoa(m.MessageID),
		Kind:       channel.KindText,
		Text:       m.Text,
		UserID:     strconv.FormatInt(m.Chat.ID, 10),
		ReplyToken: strconv.Itoa(m.MessageID),
	}

	if fileID, kind, filename := mediaRef(m); fileID != "" {
		msg.ID = fileID
		msg.Kind = kind
		msg.Filename = filename
		msg.Text = m.Caption
	} else if text := locationText(m); text != "" {
		msg.Kind = channel.KindLocation
		msg.Text = text
	}

	if m.Chat.IsPrivate() {
		msg.SourceType = channel.SourceUser
		msg.SourceID = msg.UserID
		msg.ContextName = fmt.Sprintf("1:1 (%s)", displayName(m.From))
	} else {
		msg.SourceType = channel.SourceGroup
		msg.SourceID = strconv.FormatInt(m.Chat.ID, 10)
		msg.ContextName = fmt.Sprintf("Group (%s)", m.Chat.Title)
	}

	if m.ReplyToMessage != nil {
		if fileID, _, _ := mediaRef(m.ReplyToMessage); fileID != "" {
			msg.QuotedMessageID = fileID
		}
	}
	return msg
}

// mediaRef extracts the downloadable file id and filename hint, if any.
func mediaRef(m *tgbotapi.Message) (fileID string, kind channel.MessageKind, filename string) {
	switch {
	case len(m.Photo) > 0:
		// Last entry is the largest rendition.
		return m.Photo[len(m.Photo)-1].FileID, channel.KindImage, ""
	case m.Video != nil:
		return m.Video.FileID, channel.KindVideo, m.Video.FileName
	case m.Audio != nil:
		return m.Audio.FileID, channel.KindAudio, m.Audio.FileName
	case m.Voice != nil:
		return m.Voice.FileID, channel.KindAudio, ""
	case m.Document != nil:
		return m.Document.FileID, channel.KindFile, m.Document.FileName
	case m.Sticker != nil:
		return m.Sticker.FileID, channel.KindSticker, ""
	}
	return "", channel.KindText, ""
}

// locationText renders a location or venue share as the text to save.
// Venues carry a human address, bare locations only coordinates.
func locationText(m *tgbotapi.Message) string {
	if m.Venue != nil {
		return "Location: " + m.Venue.Address
	}
	if m.Location != nil {
		return fmt.Sprintf("Location: %f,%f", m.Location.Latitude, m.Location.Longitude)
	}
	return ""
}

func displayName(u *tgbotapi.User) string {
	if u == nil {
		return "unknown"
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	return name
}

// Reply answers in the chat, referencing the triggering message.
func (a *Adapter) Reply(ctx context.Context, msg channel.Message, text string) error {
	chatID, err := strconv.ParseInt(msg.UserID, 10, 64)
	if err != nil {
		return fmt.Errorf("parse chat id: %w", err)
	}
	out := tgbotapi.NewMessage(chatID, text)
	if replyTo, err := strconv.Atoi(msg.ReplyToken); err == nil {
		out.ReplyToMessageID = replyTo
	}
	if _, err := a.bot.Send(out); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

// Push sends a standalone message to the chat.
func (a *Adapter) Push(ctx context.Context, userID, text string) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("parse chat id: %w", err)
	}
	if _, err := a.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	return nil
}

// FetchContent downloads the file behind a Telegram file id.
func (a *Adapter) FetchContent(ctx context.Context, fileID string) ([]byte, channel.MessageKind, string, error) {
	url, err := a.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, "", "", fmt.Errorf("resolve file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", "", fmt.Errorf("build request: %w", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, "", "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", "", fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", "", fmt.Errorf("read file: %w", err)
	}

	kind := channel.KindFile
	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	switch {
	case strings.Contains(contentType, "image"):
		kind = channel.KindImage
	case strings.Contains(contentType, "video"):
		kind = channel.KindVideo
	case strings.Contains(contentType, "audio"):
		kind = channel.KindAudio
	}
	return data, kind, "auto_" + fileID, nil
}
