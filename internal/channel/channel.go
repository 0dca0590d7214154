// Package channel defines the platform-neutral message model shared by the
// chat adapters and the command layer.
package channel

import "context"

// SourceType tells where a message came from.
type SourceType string

const (
	SourceUser  SourceType = "user"
	SourceGroup SourceType = "group"
	SourceRoom  SourceType = "room"
)

// MessageKind mirrors the content classification used by the save pipeline.
type MessageKind string

const (
	KindText     MessageKind = "text"
	KindImage    MessageKind = "image"
	KindVideo    MessageKind = "video"
	KindAudio    MessageKind = "audio"
	KindFile     MessageKind = "file"
	KindSticker  MessageKind = "sticker"
	KindLocation MessageKind = "location"
)

// Message is one inbound chat message, normalized across platforms.
type Message struct {
	ID              string
	Kind            MessageKind
	Text            string
	Filename        string
	UserID          string
	SourceType      SourceType
	SourceID        string
	ReplyToken      string
	QuoteToken      string
	QuotedMessageID string
	// ContextName is a human readable description of the chat, e.g.
	// "1:1 (Alice)" or "Group (Team)".
	ContextName string
}

// Responder sends text back to the platform: Reply answers the triggering
// message (consumes the reply token), Push starts a new message to the user.
type Responder interface {
	Reply(ctx context.Context, msg Message, text string) error
	Push(ctx context.Context, userID, text string) error
}

// MediaFetcher downloads the binary content behind a message id and reports
// the detected kind and a filename hint.
type MediaFetcher interface {
	FetchContent(ctx context.Context, messageID string) (data []byte, kind MessageKind, filename string, err error)
}
