package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/gydisme/savebot/internal/channel"
	"github.com/gydisme/savebot/internal/i18n"
	"github.com/gydisme/savebot/internal/settings"
)

// AutoSaveCommand toggles automatic saving for a user. It only works in
// direct chats; saving every group message would be noise.
type AutoSaveCommand struct {
	store *settings.Store
	i18n  *i18n.Service
}

func NewAutoSaveCommand(store *settings.Store, i18nSvc *i18n.Service) *AutoSaveCommand {
	return &AutoSaveCommand{store: store, i18n: i18nSvc}
}

func (c *AutoSaveCommand) Match(text string) bool {
	return strings.HasPrefix(text, "/auto_save")
}

func (c *AutoSaveCommand) Execute(ctx context.Context, msg channel.Message, respond channel.Responder) error {
	if msg.SourceType != channel.SourceUser {
		return respond.Reply(ctx, msg, c.i18n.Default("auto_save_dm_only", nil))
	}

	var (
		state bool
		err   error
	)
	switch argument(msg.Text) {
	case "on":
		state = true
		err = c.store.SetAutoSave(msg.UserID, true)
	case "off":
		state = false
		err = c.store.SetAutoSave(msg.UserID, false)
	default:
		state, err = c.store.ToggleAutoSave(msg.UserID)
	}
	if err != nil {
		return fmt.Errorf("update auto save: %w", err)
	}

	statusKey := "auto_save_off"
	if state {
		statusKey = "auto_save_on"
	}
	return respond.Reply(ctx, msg, c.i18n.Default("auto_save_status", map[string]string{
		"status": c.i18n.Default(statusKey, nil),
	}))
}

func argument(text string) string {
	parts := strings.Fields(text)
	if len(parts) < 2 {
		return ""
	}
	return strings.ToLower(parts[1])
}
