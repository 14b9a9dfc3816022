package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-dialog-bot/internal/domain"
	"telegram-dialog-bot/internal/domain/ports/adapter"
	"telegram-dialog-bot/internal/infra/metrics"
)

var _ adapter.MessageSender = (*Gateway)(nil)

// Gateway talks to the bot messaging API with direct HTTP calls. Every call
// uses a bounded timeout and checks the API's ok indicator; failures surface
// as delivery errors without retrying.
type Gateway struct {
	baseURL string
	client  *http.Client
}

func NewGateway(botURL string, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Gateway{
		baseURL: strings.TrimRight(botURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send delivers text to chatID, editing message messageID in place when it is
// non-zero. keyboard rows render as an inline keyboard whose buttons carry
// opaque callback tokens.
func (g *Gateway) Send(ctx context.Context, text string, chatID int64, keyboard [][]adapter.Button, messageID int) error {
	payload := map[string]any{"chat_id": chatID, "text": text}
	endpoint := "sendMessage"
	if messageID != 0 {
		payload["message_id"] = messageID
		endpoint = "editMessageText"
	}
	if keyboard != nil {
		payload["reply_markup"] = inlineKeyboard(keyboard)
	}
	return g.Post(ctx, endpoint, payload)
}

// SetWebhook registers url as the webhook target, with an optional shared
// secret the platform echoes back on every delivery.
func (g *Gateway) SetWebhook(ctx context.Context, url, secretToken string) error {
	payload := map[string]any{"url": url}
	if secretToken != "" {
		payload["secret_token"] = secretToken
	}
	return g.Post(ctx, "setWebhook", payload)
}

// SetMyCommands pushes the command list, optionally scoped to one locale.
func (g *Gateway) SetMyCommands(ctx context.Context, commands []tgbotapi.BotCommand, languageCode string) error {
	payload := map[string]any{"commands": commands}
	if languageCode != "" {
		payload["language_code"] = languageCode
	}
	return g.Post(ctx, "setMyCommands", payload)
}

// DeleteMyCommands clears the command list, optionally for one locale.
func (g *Gateway) DeleteMyCommands(ctx context.Context, languageCode string) error {
	payload := map[string]any{}
	if languageCode != "" {
		payload["language_code"] = languageCode
	}
	return g.Post(ctx, "deleteMyCommands", payload)
}

// Post sends payload as JSON to {BOT_URL}/{endpoint} and verifies the
// response's ok indicator.
func (g *Gateway) Post(ctx context.Context, endpoint string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", endpoint, err)
	}

	url := g.baseURL + "/" + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		metrics.IncOutbound(endpoint, false)
		return fmt.Errorf("%w: %s: %v", domain.ErrDelivery, endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.IncOutbound(endpoint, false)
		return fmt.Errorf("%w: %s: read response: %v", domain.ErrDelivery, endpoint, err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil || !parsed.OK {
		metrics.IncOutbound(endpoint, false)
		return fmt.Errorf("%w: %s: status=%d description=%q", domain.ErrDelivery, endpoint, resp.StatusCode, parsed.Description)
	}

	metrics.IncOutbound(endpoint, true)
	return nil
}

// inlineKeyboard renders the button grid in the bot API wire shape.
func inlineKeyboard(rows [][]adapter.Button) tgbotapi.InlineKeyboardMarkup {
	markup := tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: make([][]tgbotapi.InlineKeyboardButton, 0, len(rows)),
	}
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Token))
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, buttons)
	}
	return markup
}
