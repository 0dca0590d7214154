// Package line implements the LINE Messaging API channel: webhook event
// handling, replies, pushes and content download, via the official SDK.
package line

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/gydisme/savebot/internal/channel"
	"github.com/gydisme/savebot/internal/commands"
	"github.com/gydisme/savebot/internal/i18n"
	"github.com/gydisme/savebot/internal/save"
	"github.com/gydisme/savebot/internal/settings"
)

// Platform identifies this channel in saved documents.
const Platform = "LINE"

// ErrInvalidSignature is returned when the webhook signature check fails.
var ErrInvalidSignature = webhook.ErrInvalidSignature

// Config carries the LINE channel credentials.
type Config struct {
	ChannelSecret      string
	ChannelAccessToken string
}

// Adapter connects LINE webhooks to the command registry and the save queue.
type Adapter struct {
	channelSecret string
	api           *messaging_api.MessagingApiAPI
	blob          *messaging_api.MessagingApiBlobAPI
	registry      *commands.Registry
	queue         *save.Queue
	settings      *settings.Store
	i18n          *i18n.Service
	log           *slog.Logger
}

func NewAdapter(cfg Config, queue *save.Queue, store *settings.Store, i18nSvc *i18n.Service, log *slog.Logger) (*Adapter, error) {
	api, err := messaging_api.NewMessagingApiAPI(cfg.ChannelAccessToken)
	if err != nil {
		return nil, fmt.Errorf("messaging api client: %w", err)
	}
	blob, err := messaging_api.NewMessagingApiBlobAPI(cfg.ChannelAccessToken)
	if err != nil {
		return nil, fmt.Errorf("blob api client: %w", err)
	}
	return &Adapter{
		channelSecret: cfg.ChannelSecret,
		api:           api,
		blob:          blob,
		queue:         queue,
		settings:      store,
		i18n:          i18nSvc,
		log:           log.With(slog.String("adapter", "line")),
	}, nil
}

// SetRegistry attaches the command registry. The registry needs the adapter
// as responder and media fetcher, so it is built after the adapter.
func (a *Adapter) SetRegistry(registry *commands.Registry) {
	a.registry = registry
}

// HandleWebhook verifies and processes one webhook delivery.
func (a *Adapter) HandleWebhook(ctx context.Context, r *http.Request) error {
	cb, err := webhook.ParseRequest(a.channelSecret, r)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			return ErrInvalidSignature
		}
		return fmt.Errorf("parse webhook: %w", err)
	}

	for _, ev := range cb.Events {
		event, ok := ev.(webhook.MessageEvent)
		if !ok {
			continue
		}
		if err := a.handleMessage(ctx, event); err != nil {
			a.log.Error("handle message", slog.Any("error", err))
		}
	}
	return nil
}

func (a *Adapter) handleMessage(ctx context.Context, event webhook.MessageEvent) error {
	msg, ok := a.normalize(event)
	if !ok {
		return nil
	}

	if msg.Kind == channel.KindText {
		handled, err := a.registry.Dispatch(ctx, msg, a)
		if err != nil {
			return err
		}
		if handled {
			return nil
		}
	}

	// Anything else only gets saved when the user opted in, and only in a
	// direct chat.
	if msg.SourceType != channel.SourceUser || !a.settings.AutoSave(msg.UserID) {
		return nil
	}
	return a.autoSave(ctx, msg)
}

// normalize maps one SDK message event onto the shared message model.
// Stickers and locations have no downloadable content, so their identifying
// text is captured here and they save as text documents.
func (a *Adapter) normalize(event webhook.MessageEvent) (channel.Message, bool) {
	msg := channel.Message{ReplyToken: event.ReplyToken}

	switch m := event.Message.(type) {
	case webhook.TextMessageContent:
		msg.ID = m.Id
		msg.Kind = channel.KindText
		msg.Text = m.Text
		msg.QuoteToken = m.QuoteToken
		msg.QuotedMessageID = m.QuotedMessageId
	case webhook.ImageMessageContent:
		msg.ID = m.Id
		msg.Kind = channel.KindImage
	case webhook.VideoMessageContent:
		msg.ID = m.Id
		msg.Kind = channel.KindVideo
	case webhook.AudioMessageContent:
		msg.ID = m.Id
		msg.Kind = channel.KindAudio
	case webhook.FileMessageContent:
		msg.ID = m.Id
		msg.Kind = channel.KindFile
		msg.Filename = m.FileName
	case webhook.StickerMessageContent:
		msg.ID = m.Id
		msg.Kind = channel.KindSticker
		msg.Text = "Sticker ID: " + m.StickerId
	case webhook.LocationMessageContent:
		msg.ID = m.Id
		msg.Kind = channel.KindLocation
		msg.Text = "Location: " + m.Address
	default:
		return channel.Message{}, false
	}

	switch s := event.Source.(type) {
	case webhook.UserSource:
		msg.UserID = s.UserId
		msg.SourceType = channel.SourceUser
		msg.SourceID = s.UserId
		msg.ContextName = fmt.Sprintf("1:1 (%s)", a.displayName(s.UserId))
	case webhook.GroupSource:
		msg.UserID = s.UserId
		msg.SourceType = channel.SourceGroup
		msg.SourceID = s.GroupId
		msg.ContextName = fmt.Sprintf("Group (%s)", a.groupName(s.GroupId))
	case webhook.RoomSource:
		msg.UserID = s.UserId
		msg.SourceType = channel.SourceRoom
		msg.SourceID = s.RoomId
		msg.ContextName = fmt.Sprintf("Room (%s)", s.RoomId)
	}
	return msg, true
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

	textual := msg.Kind == channel.KindText ||
		msg.Kind == channel.KindSticker ||
		msg.Kind == channel.KindLocation
	if !textual {
		messageID := msg.ID
		filename := msg.Filename
		req.FetchContent = func(ctx context.Context) ([]byte, string, string, error) {
			data, kind, name, err := a.FetchContent(ctx, messageID)
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

// Reply answers msg using its reply token, quoting the original message when
// a quote token is available.
func (a *Adapter) Reply(ctx context.Context, msg channel.Message, text string) error {
	_, err := a.api.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: msg.ReplyToken,
		Messages: []messaging_api.MessageInterface{
			messaging_api.TextMessage{Text: text, QuoteToken: msg.QuoteToken},
		},
	})
	if err != nil {
		return fmt.Errorf("reply message: %w", err)
	}
	return nil
}

// Push starts a new message to the user.
func (a *Adapter) Push(ctx context.Context, userID, text string) error {
	_, err := a.api.PushMessage(&messaging_api.PushMessageRequest{
		To: userID,
		Messages: []messaging_api.MessageInterface{
			messaging_api.TextMessage{Text: text},
		},
	}, "")
	if err != nil {
		return fmt.Errorf("push message: %w", err)
	}
	return nil
}

// FetchContent downloads the binary content of a message from the blob API,
// classifying it by the returned Content-Type.
func (a *Adapter) FetchContent(ctx context.Context, messageID string) ([]byte, channel.MessageKind, string, error) {
	resp, err := a.blob.GetMessageContent(messageID)
	if err != nil {
		return nil, "", "", fmt.Errorf("download content: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", "", fmt.Errorf("read content: %w", err)
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

	a.log.Info("content downloaded",
		slog.String("message_id", messageID),
		slog.String("content_type", contentType),
		slog.Int("size", len(data)))

	return data, kind, "auto_" + messageID, nil
}

func (a *Adapter) displayName(userID string) string {
	profile, err := a.api.GetProfile(userID)
	if err != nil || profile.DisplayName == "" {
		return userID
	}
	return profile.DisplayName
}

func (a *Adapter) groupName(groupID string) string {
	summary, err := a.api.GetGroupSummary(groupID)
	if err != nil || summary.GroupName == "" {
		return groupID
	}
	return summary.GroupName
}
