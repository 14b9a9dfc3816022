package bot

import (
	"context"
	"strings"

	"telegram-dialog-bot/internal/domain/model"
	"telegram-dialog-bot/internal/i18n"
)

// HelpRenderer produces the full help text for one chat. Installed via
// Engine.SetHelpRenderer to replace the default listing.
type HelpRenderer func(ctx context.Context, chat *model.ChatState, commands []*Command) string

// sendHelp renders and delivers the command listing. Invoked whenever no
// command, callback or pending-wait context applies to an update.
func (e *Engine) sendHelp(ctx context.Context, chat *model.ChatState, upd Update) error {
	ctx = i18n.WithLocale(ctx, upd.LanguageCode)
	var text string
	if e.helpRenderer != nil {
		text = e.helpRenderer(ctx, chat, e.registry.All())
	} else {
		text = e.defaultHelpText(ctx)
	}
	return e.sender.Send(ctx, text, upd.ChatID, nil, 0)
}

func (e *Engine) defaultHelpText(ctx context.Context) string {
	var sb strings.Builder
	sb.WriteString(i18n.T(ctx, e.helpIntro))
	for _, cmd := range e.registry.All() {
		if cmd.Hidden {
			continue
		}
		sb.WriteString("\n")
		sb.WriteString(cmd.CommandString())
		sb.WriteString(" - ")
		sb.WriteString(cmd.Description)
	}
	return sb.String()
}
