// Package bottest provides in-memory collaborators and a webhook-style test
// harness for exercising commands end to end without Redis or a network.
package bottest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"telegram-dialog-bot/internal/bot"
	"telegram-dialog-bot/internal/domain"
	"telegram-dialog-bot/internal/domain/model"
	"telegram-dialog-bot/internal/domain/ports/adapter"
)

// SentMessage captures one outbound gateway call.
type SentMessage struct {
	Text      string
	ChatID    int64
	MessageID int
	Keyboard  [][]adapter.Button
}

// Sender records outbound messages instead of delivering them.
type Sender struct {
	mu       sync.Mutex
	Sent     []SentMessage
	FailWith error // when set, every send fails with this error
}

func (s *Sender) Send(ctx context.Context, text string, chatID int64, keyboard [][]adapter.Button, messageID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	s.Sent = append(s.Sent, SentMessage{Text: text, ChatID: chatID, MessageID: messageID, Keyboard: keyboard})
	return nil
}

// Last returns the most recent sent message.
func (s *Sender) Last() (SentMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Sent) == 0 {
		return SentMessage{}, false
	}
	return s.Sent[len(s.Sent)-1], true
}

// ChatRepo is an in-memory chat state store. Records round-trip through JSON
// on every access so tests see the same value types a real store produces.
type ChatRepo struct {
	mu     sync.Mutex
	states map[int64][]byte
}

func NewChatRepo() *ChatRepo {
	return &ChatRepo{states: make(map[int64][]byte)}
}

func (r *ChatRepo) Get(ctx context.Context, chatID int64) (*model.ChatState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, ok := r.states[chatID]
	if !ok {
		return nil, domain.ErrChatNotFound
	}
	var state model.ChatState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}
	if state.Data == nil {
		state.Data = map[string]any{}
	}
	return &state, nil
}

func (r *ChatRepo) Create(ctx context.Context, state *model.ChatState) error {
	return r.Save(ctx, state)
}

func (r *ChatRepo) Save(ctx context.Context, state *model.ChatState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[state.ChatID] = raw
	return nil
}

func (r *ChatRepo) ListChatIDs(ctx context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.states))
	for id := range r.states {
		ids = append(ids, id)
	}
	return ids, nil
}

// CallbackRepo is an in-memory callback token store with the same JSON
// round-trip behavior as ChatRepo.
type CallbackRepo struct {
	mu      sync.Mutex
	records map[string][]byte
}

func NewCallbackRepo() *CallbackRepo {
	return &CallbackRepo{records: make(map[string][]byte)}
}

func (r *CallbackRepo) Create(ctx context.Context, rec *model.CallbackRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.Token] = raw
	return nil
}

func (r *CallbackRepo) Get(ctx context.Context, token string) (*model.CallbackRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, ok := r.records[token]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	var rec model.CallbackRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *CallbackRepo) DeleteByCorrelation(ctx context.Context, correlationKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for token, raw := range r.records {
		var rec model.CallbackRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		if rec.Correlation() == correlationKey {
			delete(r.records, token)
		}
	}
	return nil
}

// Delete removes a single record; tests use it to simulate expiry.
func (r *CallbackRepo) Delete(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, token)
}

// Count returns the number of stored records.
func (r *CallbackRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// CountByCorrelation returns how many records share the given correlation key.
func (r *CallbackRepo) CountByCorrelation(correlationKey string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, raw := range r.records {
		var rec model.CallbackRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		if rec.Correlation() == correlationKey {
			n++
		}
	}
	return n
}

// DefaultChatID is the chat the harness pre-creates.
const DefaultChatID int64 = 123456789

// Harness drives an engine the way the webhook does: raw JSON updates in,
// recorded sends out.
type Harness struct {
	T      *testing.T
	Engine *bot.Engine
	Sender *Sender
	Chats  *ChatRepo
	Tokens *CallbackRepo
	ChatID int64
}

// New builds a harness around the given registry with the default chat
// already known.
func New(t *testing.T, registry *bot.Registry) *Harness {
	t.Helper()
	sender := &Sender{}
	chats := NewChatRepo()
	tokens := NewCallbackRepo()
	logger := zerolog.Nop()
	engine := bot.NewEngine(registry, chats, tokens, sender, false, "Currently available commands:", &logger)

	h := &Harness{
		T:      t,
		Engine: engine,
		Sender: sender,
		Chats:  chats,
		Tokens: tokens,
		ChatID: DefaultChatID,
	}
	if err := chats.Create(context.Background(), model.NewChatState(h.ChatID)); err != nil {
		t.Fatalf("create chat state: %v", err)
	}
	return h
}

// SendText feeds a plain text message through the engine.
func (h *Harness) SendText(text string) error {
	raw, _ := json.Marshal(map[string]any{
		"message": map[string]any{
			"chat": map[string]any{"id": h.ChatID},
			"text": text,
		},
	})
	return h.Engine.HandleUpdate(context.Background(), raw)
}

// ClickOn simulates pressing the button with the given label on the most
// recently sent keyboard.
func (h *Harness) ClickOn(label string) error {
	h.T.Helper()
	token, err := h.buttonToken(label)
	if err != nil {
		return err
	}
	return h.Click(token)
}

// Click feeds a callback interaction carrying the given token.
func (h *Harness) Click(token string) error {
	raw, _ := json.Marshal(map[string]any{
		"callback_query": map[string]any{
			"message": map[string]any{
				"message_id": 123,
				"chat":       map[string]any{"id": h.ChatID},
			},
			"data": token,
		},
	})
	return h.Engine.HandleUpdate(context.Background(), raw)
}

// MustSendText is SendText failing the test on error.
func (h *Harness) MustSendText(text string) {
	h.T.Helper()
	if err := h.SendText(text); err != nil {
		h.T.Fatalf("send %q: %v", text, err)
	}
}

// MustClickOn is ClickOn failing the test on error.
func (h *Harness) MustClickOn(label string) {
	h.T.Helper()
	if err := h.ClickOn(label); err != nil {
		h.T.Fatalf("click %q: %v", label, err)
	}
}

// VerifyLog asserts the exact sequence of sent message texts.
func (h *Harness) VerifyLog(expected []string) {
	h.T.Helper()
	h.Sender.mu.Lock()
	defer h.Sender.mu.Unlock()
	if len(h.Sender.Sent) != len(expected) {
		h.T.Fatalf("sent %d messages, want %d: %v", len(h.Sender.Sent), len(expected), sentTexts(h.Sender.Sent))
	}
	for i, want := range expected {
		if got := h.Sender.Sent[i].Text; got != want {
			h.T.Errorf("message %d = %q, want %q", i, got, want)
		}
	}
}

// ChatState returns the current persisted state of the harness chat.
func (h *Harness) ChatState() *model.ChatState {
	h.T.Helper()
	state, err := h.Chats.Get(context.Background(), h.ChatID)
	if err != nil {
		h.T.Fatalf("get chat state: %v", err)
	}
	return state
}

func (h *Harness) buttonToken(label string) (string, error) {
	last, ok := h.Sender.Last()
	if !ok {
		return "", fmt.Errorf("no messages sent yet")
	}
	for _, row := range last.Keyboard {
		for _, b := range row {
			if b.Text == label {
				return b.Token, nil
			}
		}
	}
	return "", fmt.Errorf("no button %q on the last keyboard", label)
}

func sentTexts(sent []SentMessage) []string {
	texts := make([]string, len(sent))
	for i, m := range sent {
		texts[i] = m.Text
	}
	return texts
}
