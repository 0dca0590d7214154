package commands

import (
	"context"
	"strings"

	"github.com/gydisme/savebot/internal/channel"
	"github.com/gydisme/savebot/internal/i18n"
)

// HelpCommand replies with the command overview.
type HelpCommand struct {
	i18n *i18n.Service
}

func NewHelpCommand(i18nSvc *i18n.Service) *HelpCommand {
	return &HelpCommand{i18n: i18nSvc}
}

func (c *HelpCommand) Match(text string) bool {
	return strings.HasPrefix(text, "/help")
}

func (c *HelpCommand) Execute(ctx context.Context, msg channel.Message, respond channel.Responder) error {
	return respond.Reply(ctx, msg, c.i18n.Default("help_text", nil))
}
