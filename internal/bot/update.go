package bot

import (
	"encoding/json"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-dialog-bot/internal/domain"
)

// Update is the canonical form of one inbound platform update: either a text
// message or a button interaction.
type Update struct {
	ChatID        int64
	MessageID     int    // 0 for plain text messages; replies then send instead of edit
	MessageText   string // empty for button interactions
	CallbackToken string // empty for text messages
	LanguageCode  string

	isMessage  bool
	isCallback bool
}

// ParseUpdate normalizes a raw webhook payload.
// Returns domain.ErrMalformedUpdate when the payload carries neither a text
// message nor a callback query.
func ParseUpdate(raw []byte) (Update, error) {
	var u tgbotapi.Update
	if err := json.Unmarshal(raw, &u); err != nil {
		return Update{}, fmt.Errorf("%w: %v", domain.ErrMalformedUpdate, err)
	}
	return Normalize(u)
}

// Normalize converts a deserialized bot API update into the canonical form.
func Normalize(u tgbotapi.Update) (Update, error) {
	switch {
	case u.Message != nil && u.Message.Text != "":
		upd := Update{
			ChatID:      u.Message.Chat.ID,
			MessageText: u.Message.Text,
			isMessage:   true,
		}
		if u.Message.From != nil {
			upd.LanguageCode = u.Message.From.LanguageCode
		}
		return upd, nil
	case u.CallbackQuery != nil && u.CallbackQuery.Message != nil:
		upd := Update{
			ChatID:        u.CallbackQuery.Message.Chat.ID,
			MessageID:     u.CallbackQuery.Message.MessageID,
			CallbackToken: u.CallbackQuery.Data,
			isCallback:    true,
		}
		if u.CallbackQuery.From != nil {
			upd.LanguageCode = u.CallbackQuery.From.LanguageCode
		}
		return upd, nil
	default:
		return Update{}, domain.ErrMalformedUpdate
	}
}

// IsTextMessage reports whether the update is a plain message.
func (u Update) IsTextMessage() bool { return u.isMessage }

// IsButtonInteraction reports whether the update is a callback query.
func (u Update) IsButtonInteraction() bool { return u.isCallback }

// IsSlashCommand reports whether the update is a message starting with "/".
func (u Update) IsSlashCommand() bool {
	return u.isMessage && strings.HasPrefix(u.MessageText, "/")
}

// CommandName returns the lowercased command name (without the leading slash)
// of a slash-command message, or "" for any other update.
func (u Update) CommandName() string {
	if !u.IsSlashCommand() {
		return ""
	}
	name := strings.Fields(u.MessageText)[0]
	return strings.ToLower(strings.TrimPrefix(name, "/"))
}
