package commands

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gydisme/savebot/internal/channel"
	"github.com/gydisme/savebot/internal/compose"
	"github.com/gydisme/savebot/internal/i18n"
	"github.com/gydisme/savebot/internal/save"
	"github.com/gydisme/savebot/internal/settings"
	"github.com/gydisme/savebot/internal/webmeta"
)

type fakeResponder struct {
	mu      sync.Mutex
	replies []string
	pushes  []string
}

func (f *fakeResponder) Reply(_ context.Context, _ channel.Message, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, text)
	return nil
}

func (f *fakeResponder) Push(_ context.Context, _ string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes = append(f.pushes, text)
	return nil
}

func (f *fakeResponder) lastReply() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.replies) == 0 {
		return ""
	}
	return f.replies[len(f.replies)-1]
}

func (f *fakeResponder) waitPush(t *testing.T) string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		if len(f.pushes) > 0 {
			push := f.pushes[0]
			f.mu.Unlock()
			return push
		}
		f.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("no push received")
	return ""
}

type fakeStore struct {
	docLink   string
	docErr    error
	docItems  []compose.Item
	uploadErr error
}

func (f *fakeStore) CreateDocument(_ context.Context, _ string, items []compose.Item, _ string) (string, error) {
	f.docItems = items
	return f.docLink, f.docErr
}

func (f *fakeStore) UploadFile(_ context.Context, _ []byte, _, _ string) (string, error) {
	return "https://drive.example/file/1", f.uploadErr
}

type noFetcher struct{}

func (noFetcher) FetchAll(_ context.Context, _ []string) []webmeta.Summary { return nil }

type fakeMedia struct {
	data []byte
	kind channel.MessageKind
	name string
	err  error
	gate chan struct{}
}

func (f *fakeMedia) FetchContent(_ context.Context, _ string) ([]byte, channel.MessageKind, string, error) {
	if f.gate != nil {
		<-f.gate
	}
	return f.data, f.kind, f.name, f.err
}

func mustI18n(t *testing.T) *i18n.Service {
	t.Helper()
	svc, err := i18n.NewService("en")
	if err != nil {
		t.Fatalf("i18n.NewService() error: %v", err)
	}
	return svc
}

func TestRegistryIgnoresPlainText(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(slog.Default(), NewHelpCommand(mustI18n(t)))
	handled, err := reg.Dispatch(context.Background(), channel.Message{Text: "hello"}, &fakeResponder{})
	if err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
	if handled {
		t.Fatal("plain text must not be treated as a command")
	}
}

func TestRegistrySwallowsUnknownCommand(t *testing.T) {
	t.Parallel()

	respond := &fakeResponder{}
	reg := NewRegistry(slog.Default(), NewHelpCommand(mustI18n(t)))
	handled, err := reg.Dispatch(context.Background(), channel.Message{Text: "/frobnicate"}, respond)
	if err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
	if !handled {
		t.Fatal("slash commands are always handled")
	}
	if len(respond.replies) != 0 {
		t.Fatal("unknown command must not reply")
	}
}

func TestHelpCommandReplies(t *testing.T) {
	t.Parallel()

	respond := &fakeResponder{}
	cmd := NewHelpCommand(mustI18n(t))
	if err := cmd.Execute(context.Background(), channel.Message{Text: "/help"}, respond); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !strings.Contains(respond.lastReply(), "/save") {
		t.Fatalf("help reply = %q", respond.lastReply())
	}
}

func TestAutoSaveCommandDMOnly(t *testing.T) {
	t.Parallel()

	store, err := settings.NewStore(filepath.Join(t.TempDir(), "s.json"), slog.Default())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	respond := &fakeResponder{}
	cmd := NewAutoSaveCommand(store, mustI18n(t))

	msg := channel.Message{Text: "/auto_save", UserID: "U1", SourceType: channel.SourceGroup}
	if err := cmd.Execute(context.Background(), msg, respond); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !strings.Contains(respond.lastReply(), "direct chat") {
		t.Fatalf("reply = %q, want dm-only warning", respond.lastReply())
	}
	if store.AutoSave("U1") {
		t.Fatal("group command must not change settings")
	}
}

func TestAutoSaveCommandExplicitAndToggle(t *testing.T) {
	t.Parallel()

	store, err := settings.NewStore(filepath.Join(t.TempDir(), "s.json"), slog.Default())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	respond := &fakeResponder{}
	cmd := NewAutoSaveCommand(store, mustI18n(t))
	msg := channel.Message{UserID: "U1", SourceType: channel.SourceUser}

	msg.Text = "/auto_save on"
	if err := cmd.Execute(context.Background(), msg, respond); err != nil {
		t.Fatalf("Execute(on) error: %v", err)
	}
	if !store.AutoSave("U1") {
		t.Fatal("expected auto save on")
	}
	if !strings.Contains(respond.lastReply(), "ON") {
		t.Fatalf("reply = %q", respond.lastReply())
	}

	msg.Text = "/auto_save off"
	if err := cmd.Execute(context.Background(), msg, respond); err != nil {
		t.Fatalf("Execute(off) error: %v", err)
	}
	if store.AutoSave("U1") {
		t.Fatal("expected auto save off")
	}

	// Bare /auto_save flips the current state.
	msg.Text = "/auto_save"
	if err := cmd.Execute(context.Background(), msg, respond); err != nil {
		t.Fatalf("Execute(toggle) error: %v", err)
	}
	if !store.AutoSave("U1") {
		t.Fatal("expected toggle back on")
	}
}

func TestSaveCommandSavesText(t *testing.T) {
	t.Parallel()

	store := &fakeStore{docLink: "https://docs.example/1"}
	svc := save.NewService(store, noFetcher{}, slog.Default())
	respond := &fakeResponder{}
	cmd := NewSaveCommand("LINE", svc, nil, &fakeMedia{}, mustI18n(t), slog.Default())

	msg := channel.Message{Text: "/save my note", UserID: "U1", ContextName: "1:1 (Alice)"}
	if err := cmd.Execute(context.Background(), msg, respond); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !strings.Contains(respond.lastReply(), "https://docs.example/1") {
		t.Fatalf("reply = %q, want doc link", respond.lastReply())
	}
}

func TestSaveCommandReportsFailure(t *testing.T) {
	t.Parallel()

	store := &fakeStore{docErr: errors.New("api down")}
	svc := save.NewService(store, noFetcher{}, slog.Default())
	respond := &fakeResponder{}
	cmd := NewSaveCommand("LINE", svc, nil, &fakeMedia{}, mustI18n(t), slog.Default())

	msg := channel.Message{Text: "/save doomed", UserID: "U1"}
	if err := cmd.Execute(context.Background(), msg, respond); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !strings.Contains(respond.lastReply(), "failed") {
		t.Fatalf("reply = %q, want failure message", respond.lastReply())
	}
}

func TestSaveCommandQuotedMediaGoesThroughQueue(t *testing.T) {
	t.Parallel()

	store := &fakeStore{docLink: "https://docs.example/1"}
	svc := save.NewService(store, noFetcher{}, slog.Default())
	queue := save.NewQueue(svc, 1, slog.Default())

	// Execute must acknowledge while the download is still blocked: the
	// fetch belongs to the worker, not the command handler.
	media := &fakeMedia{
		data: []byte{1, 2, 3},
		kind: channel.KindImage,
		name: "photo.jpg",
		gate: make(chan struct{}),
	}
	respond := &fakeResponder{}
	cmd := NewSaveCommand("LINE", svc, queue, media, mustI18n(t), slog.Default())

	msg := channel.Message{
		Text:            "/save vacation",
		UserID:          "U1",
		QuotedMessageID: "M99",
	}
	if err := cmd.Execute(context.Background(), msg, respond); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !strings.Contains(respond.lastReply(), "in queue") {
		t.Fatalf("ack = %q, want queue notice", respond.lastReply())
	}

	close(media.gate)
	push := respond.waitPush(t)
	if !strings.Contains(push, "Saved!") {
		t.Fatalf("push = %q, want success", push)
	}
}

func TestSaveCommandQuotedMediaFetchFailurePushed(t *testing.T) {
	t.Parallel()

	store := &fakeStore{docLink: "https://docs.example/1"}
	svc := save.NewService(store, noFetcher{}, slog.Default())
	queue := save.NewQueue(svc, 1, slog.Default())

	media := &fakeMedia{err: errors.New("content expired")}
	respond := &fakeResponder{}
	cmd := NewSaveCommand("LINE", svc, queue, media, mustI18n(t), slog.Default())

	msg := channel.Message{Text: "/save", UserID: "U1", QuotedMessageID: "M99"}
	if err := cmd.Execute(context.Background(), msg, respond); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	push := respond.waitPush(t)
	if !strings.Contains(push, "failed") {
		t.Fatalf("push = %q, want failure message", push)
	}
}
