package bot_test

import (
	"context"
	"fmt"
	"testing"

	"telegram-dialog-bot/internal/bot"
	"telegram-dialog-bot/internal/bot/bottest"
	"telegram-dialog-bot/internal/domain/model"
	"telegram-dialog-bot/internal/domain/ports/adapter"
)

// tripCommand is a three-step flow exercising every dispatch action. The
// received capture records the input data each step ran with.
func tripCommand(received *[]map[string]any) bot.Factory {
	capture := func(inv *bot.Invocation) {
		if received != nil {
			*received = append(*received, inv.Data)
		}
	}
	return func() *bot.Command {
		return &bot.Command{
			Name:        "trip",
			Description: "Take a trip",
			Steps: []bot.Step{
				{ID: "one", Handle: func(ctx context.Context, inv *bot.Invocation) error {
					capture(inv)
					next, err := inv.NextStepCallback(ctx, inv.Data, map[string]any{"choice": "a"})
					if err != nil {
						return err
					}
					prev, err := inv.PreviousStepCallback(ctx, 1, inv.Data, nil)
					if err != nil {
						return err
					}
					refresh, err := inv.CurrentStepCallback(ctx, inv.Data, map[string]any{"page": 2})
					if err != nil {
						return err
					}
					return inv.Send(ctx, "step one", [][]adapter.Button{{
						{Text: "Next", Token: next},
						{Text: "Previous", Token: prev},
						{Text: "Refresh", Token: refresh},
						{Text: "Noop", Token: bot.DoNothingToken},
					}})
				}},
				{ID: "two", Handle: func(ctx context.Context, inv *bot.Invocation) error {
					capture(inv)
					next, err := inv.NextStepCallback(ctx, inv.Data, nil)
					if err != nil {
						return err
					}
					prev, err := inv.PreviousStepCallback(ctx, 1, inv.Data, nil)
					if err != nil {
						return err
					}
					cancel, err := inv.CancelCallback(ctx, inv.Data, nil)
					if err != nil {
						return err
					}
					return inv.Send(ctx, "step two", [][]adapter.Button{{
						{Text: "Next", Token: next},
						{Text: "Previous", Token: prev},
						{Text: "Cancel", Token: cancel},
					}})
				}},
				{ID: "three", Handle: func(ctx context.Context, inv *bot.Invocation) error {
					capture(inv)
					finish, err := inv.NextStepCallback(ctx, inv.Data, nil)
					if err != nil {
						return err
					}
					restart, err := inv.RestartCallback(ctx, inv.Data, nil)
					if err != nil {
						return err
					}
					return inv.Send(ctx, "step three", [][]adapter.Button{{
						{Text: "Finish", Token: finish},
						{Text: "Restart", Token: restart},
					}})
				}},
			},
		}
	}
}

func newTripHarness(t *testing.T, received *[]map[string]any) *bottest.Harness {
	t.Helper()
	registry := bot.NewRegistry()
	if err := registry.Register("trip", tripCommand(received)); err != nil {
		t.Fatalf("register trip: %v", err)
	}
	return bottest.New(t, registry)
}

func TestSlashCommandStartsFirstStep(t *testing.T) {
	h := newTripHarness(t, nil)

	h.MustSendText("/trip")

	h.VerifyLog([]string{"step one"})
	if last, _ := h.Sender.Last(); last.MessageID != 0 {
		t.Errorf("message id = %d, want 0 (new message, not an edit)", last.MessageID)
	}
}

func TestUnknownCommandSendsHelp(t *testing.T) {
	h := newTripHarness(t, nil)

	h.MustSendText("/doesnotexist")

	h.VerifyLog([]string{"Currently available commands:\n/trip - Take a trip"})
}

func TestPlainTextWithoutPendingWaitSendsHelp(t *testing.T) {
	h := newTripHarness(t, nil)

	h.MustSendText("hello there")

	h.VerifyLog([]string{"Currently available commands:\n/trip - Take a trip"})
}

func TestNextStepWalksToCompletion(t *testing.T) {
	var received []map[string]any
	h := newTripHarness(t, &received)

	h.MustSendText("/trip")
	h.MustClickOn("Next")
	h.MustClickOn("Next")
	h.MustClickOn("Finish")

	h.VerifyLog([]string{"step one", "step two", "step three"})

	corr, ok := received[0][model.CorrelationKey].(string)
	if !ok || corr == "" {
		t.Fatalf("first step carries no correlation key: %v", received[0])
	}
	for i, data := range received {
		if got := data[model.CorrelationKey]; got != corr {
			t.Errorf("step %d correlation = %v, want %q", i, got, corr)
		}
	}
	if got := received[1]["choice"]; got != "a" {
		t.Errorf("extra payload not carried to next step: choice = %v", got)
	}

	// Finishing from a token-carrying trigger deletes the whole token family.
	if n := h.Tokens.CountByCorrelation(corr); n != 0 {
		t.Errorf("%d tokens left after finish, want 0", n)
	}
	if state := h.ChatState(); len(state.Data) != 0 {
		t.Errorf("chat state not cleared after finish: %v", state.Data)
	}
}

func TestRestartReturnsToFirstStep(t *testing.T) {
	h := newTripHarness(t, nil)

	h.MustSendText("/trip")
	h.MustClickOn("Next")
	h.MustClickOn("Next")
	h.MustClickOn("Restart")

	h.VerifyLog([]string{"step one", "step two", "step three", "step one"})
	if state := h.ChatState(); state.WaitingFor() != "" {
		t.Errorf("restart left a pending wait: %v", state.Data)
	}
}

func TestCallbackRepliesEditTheTriggeringMessage(t *testing.T) {
	h := newTripHarness(t, nil)

	h.MustSendText("/trip")
	h.MustClickOn("Next")

	last, _ := h.Sender.Last()
	if last.MessageID == 0 {
		t.Error("callback-triggered reply should edit the triggering message")
	}
}

func TestPreviousStepRewinds(t *testing.T) {
	h := newTripHarness(t, nil)

	h.MustSendText("/trip")
	h.MustClickOn("Next")
	h.MustClickOn("Previous")

	h.VerifyLog([]string{"step one", "step two", "step one"})
}

func TestPreviousStepAtFirstStepIsSilent(t *testing.T) {
	h := newTripHarness(t, nil)

	h.MustSendText("/trip")
	h.MustClickOn("Previous")

	// No new message, no error, state untouched.
	h.VerifyLog([]string{"step one"})
}

func TestCurrentStepReinvokesWithNewData(t *testing.T) {
	var received []map[string]any
	h := newTripHarness(t, &received)

	h.MustSendText("/trip")
	h.MustClickOn("Refresh")

	h.VerifyLog([]string{"step one", "step one"})
	if got := received[1]["page"]; fmt.Sprint(got) != "2" {
		t.Errorf("refreshed step data page = %v, want 2", got)
	}
}

func TestCancelSendsDefaultTextAndFinishes(t *testing.T) {
	h := newTripHarness(t, nil)

	h.MustSendText("/trip")
	h.MustClickOn("Next")
	h.MustClickOn("Cancel")

	h.VerifyLog([]string{"step one", "step two", "Command canceled."})
	if last, _ := h.Sender.Last(); last.MessageID != 0 {
		t.Errorf("cancel notice message id = %d, want 0 (new message)", last.MessageID)
	}
	if state := h.ChatState(); len(state.Data) != 0 {
		t.Errorf("chat state not cleared after cancel: %v", state.Data)
	}
}

func TestCancelTextOverride(t *testing.T) {
	registry := bot.NewRegistry()
	err := registry.Register("order", func() *bot.Command {
		return &bot.Command{
			Name: "order",
			Steps: []bot.Step{
				{ID: "ask", Handle: func(ctx context.Context, inv *bot.Invocation) error {
					cancel, err := inv.CancelCallback(ctx, inv.Data, map[string]any{
						model.CancelTextKey: "Order dropped, nothing was charged.",
					})
					if err != nil {
						return err
					}
					return inv.Send(ctx, "confirm?", [][]adapter.Button{{{Text: "No", Token: cancel}}})
				}},
			},
		}
	})
	if err != nil {
		t.Fatalf("register order: %v", err)
	}
	h := bottest.New(t, registry)

	h.MustSendText("/order")
	h.MustClickOn("No")

	h.VerifyLog([]string{"confirm?", "Order dropped, nothing was charged."})
}

func TestExpiredTokenSendsNoticeAsEdit(t *testing.T) {
	h := newTripHarness(t, nil)

	h.MustSendText("/trip")
	last, _ := h.Sender.Last()
	var token string
	for _, b := range last.Keyboard[0] {
		if b.Text == "Next" {
			token = b.Token
		}
	}
	h.Tokens.Delete(token)

	if err := h.Click(token); err != nil {
		t.Fatalf("expired token must not surface an error, got %v", err)
	}
	h.VerifyLog([]string{"step one", "This command has expired."})
	if notice, _ := h.Sender.Last(); notice.MessageID == 0 {
		t.Error("expiry notice should edit the triggering message")
	}
}

func TestNoopTokenShortCircuits(t *testing.T) {
	h := newTripHarness(t, nil)

	h.MustSendText("/trip")
	h.MustClickOn("Noop")

	h.VerifyLog([]string{"step one"})
	if state := h.ChatState(); len(state.Data) != 0 {
		t.Errorf("noop touched chat state: %v", state.Data)
	}
}

func TestUnknownChatIsRejectedWhenCreationDisabled(t *testing.T) {
	h := newTripHarness(t, nil)
	h.ChatID = h.ChatID + 1

	if err := h.SendText("/trip"); err == nil {
		t.Fatal("expected an error for an unknown chat")
	}
	h.VerifyLog(nil)
}

func TestWaitForInputRoutesNextTextMessage(t *testing.T) {
	var answer string
	registry := bot.NewRegistry()
	err := registry.Register("ask", func() *bot.Command {
		return &bot.Command{
			Name: "ask",
			Steps: []bot.Step{
				{ID: "prompt", Handle: func(ctx context.Context, inv *bot.Invocation) error {
					if err := inv.WaitForInput(ctx, "answer", inv.Data); err != nil {
						return err
					}
					return inv.Send(ctx, "Tell me something:", nil)
				}},
				{ID: "reply", Handle: func(ctx context.Context, inv *bot.Invocation) error {
					answer, _ = inv.Data["answer"].(string)
					return inv.Send(ctx, "noted", nil)
				}},
			},
		}
	})
	if err != nil {
		t.Fatalf("register ask: %v", err)
	}
	h := bottest.New(t, registry)

	h.MustSendText("/ask")
	if waiting := h.ChatState().WaitingFor(); waiting == "" {
		t.Fatal("chat state carries no waiting-for token after WaitForInput")
	}

	h.MustSendText("   the meaning of life   ")

	h.VerifyLog([]string{"Tell me something:", "noted"})
	if answer != "the meaning of life" {
		t.Errorf("answer = %q, want trimmed input", answer)
	}
}

func TestMalformedUpdateIsAnError(t *testing.T) {
	h := newTripHarness(t, nil)

	if err := h.Engine.HandleUpdate(context.Background(), []byte(`{"edited_message":{}}`)); err == nil {
		t.Fatal("expected an error for an update with no message or callback")
	}
	h.VerifyLog(nil)
}
