// Package commands implements the slash commands users can issue in chat.
package commands

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gydisme/savebot/internal/channel"
	"github.com/gydisme/savebot/internal/i18n"
	"github.com/gydisme/savebot/internal/save"
	"github.com/gydisme/savebot/internal/settings"
)

// Command handles one slash command.
type Command interface {
	// Match reports whether this command should handle the message text.
	Match(text string) bool
	// Execute runs the command and sends its replies through the responder.
	Execute(ctx context.Context, msg channel.Message, respond channel.Responder) error
}

// Registry dispatches messages to the first matching command.
type Registry struct {
	commands []Command
	log      *slog.Logger
}

func NewRegistry(log *slog.Logger, cmds ...Command) *Registry {
	return &Registry{
		commands: cmds,
		log:      log.With(slog.String("service", "commands")),
	}
}

// StandardSet returns the bot's full command set for one platform adapter.
func StandardSet(platform string, service *save.Service, queue *save.Queue, media channel.MediaFetcher, store *settings.Store, i18nSvc *i18n.Service, log *slog.Logger) []Command {
	return []Command{
		NewAutoSaveCommand(store, i18nSvc),
		NewSaveCommand(platform, service, queue, media, i18nSvc, log),
		NewHelpCommand(i18nSvc),
	}
}

// Dispatch routes msg to a matching command. It returns true when the
// message was a command (known or not); unknown slash commands are swallowed
// so they never fall through to auto save.
func (r *Registry) Dispatch(ctx context.Context, msg channel.Message, respond channel.Responder) (bool, error) {
	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") {
		return false, nil
	}

	for _, cmd := range r.commands {
		if cmd.Match(text) {
			return true, cmd.Execute(ctx, msg, respond)
		}
	}

	r.log.Debug("unknown command", slog.String("text", text))
	return true, nil
}
