package commands

import (
	"testing"

	"telegram-dialog-bot/internal/bot"
	"telegram-dialog-bot/internal/bot/bottest"
)

func newHarness(t *testing.T) *bottest.Harness {
	t.Helper()
	registry := bot.NewRegistry()
	if err := Register(registry); err != nil {
		t.Fatalf("register commands: %v", err)
	}
	return bottest.New(t, registry)
}

func TestPollHappyPath(t *testing.T) {
	h := newHarness(t)

	h.MustSendText("/poll")
	h.MustClickOn("🤺 Fencing")
	h.MustClickOn("✅ Yes")

	h.VerifyLog([]string{
		"What is your favourite sport?",
		"Would you like to submit Fencing as your favourite sport?",
		"Thank you! Your favourite sport Fencing has been recorded.",
	})

	// The trailing Advance finishes the command: no leftover state.
	if state := h.ChatState(); len(state.Data) != 0 {
		t.Errorf("chat state not cleared after poll finished: %v", state.Data)
	}
}

func TestPollPagination(t *testing.T) {
	h := newHarness(t)

	h.MustSendText("/poll")

	first, _ := h.Sender.Last()
	if got := keyboardLabels(first); !equalStrings(got, []string{"🏓 Ping Pong", "🤺 Fencing", "🏸 Badminton", "➡️ Next"}) {
		t.Fatalf("page 1 keyboard = %v", got)
	}

	h.MustClickOn("➡️ Next")
	second, _ := h.Sender.Last()
	if got := keyboardLabels(second); !equalStrings(got, []string{"🥊 Boxing", "🏹 Archery", "🏒 Hockey", "⬅️ Back"}) {
		t.Fatalf("page 2 keyboard = %v", got)
	}

	h.MustClickOn("⬅️ Back")
	third, _ := h.Sender.Last()
	if got := keyboardLabels(third); !equalStrings(got, []string{"🏓 Ping Pong", "🤺 Fencing", "🏸 Badminton", "➡️ Next"}) {
		t.Fatalf("back to page 1 keyboard = %v", got)
	}

	h.VerifyLog([]string{
		"What is your favourite sport?",
		"What is your favourite sport?",
		"What is your favourite sport?",
	})
}

func TestPollSelectFromSecondPage(t *testing.T) {
	h := newHarness(t)

	h.MustSendText("/poll")
	h.MustClickOn("➡️ Next")
	h.MustClickOn("🥊 Boxing")
	h.MustClickOn("✅ Yes")

	last, _ := h.Sender.Last()
	if want := "Thank you! Your favourite sport Boxing has been recorded."; last.Text != want {
		t.Errorf("final message = %q, want %q", last.Text, want)
	}
}

func TestPollCancel(t *testing.T) {
	h := newHarness(t)

	h.MustSendText("/poll")
	h.MustClickOn("🏓 Ping Pong")
	h.MustClickOn("❌ No")

	h.VerifyLog([]string{
		"What is your favourite sport?",
		"Would you like to submit Ping Pong as your favourite sport?",
		"Poll cancelled. Your favourite sport was not recorded.",
	})
	if state := h.ChatState(); len(state.Data) != 0 {
		t.Errorf("chat state not cleared after cancel: %v", state.Data)
	}
}

func TestPollPreviousStepDropsSelection(t *testing.T) {
	h := newHarness(t)

	h.MustSendText("/poll")
	h.MustClickOn("🏸 Badminton")
	h.MustClickOn("⬅️ Previous step")

	h.VerifyLog([]string{
		"What is your favourite sport?",
		"Would you like to submit Badminton as your favourite sport?",
		"What is your favourite sport?",
	})

	// The re-asked step offers a fresh choice; picking another sport works.
	h.MustClickOn("🤺 Fencing")
	last, _ := h.Sender.Last()
	if want := "Would you like to submit Fencing as your favourite sport?"; last.Text != want {
		t.Errorf("confirm after rewind = %q, want %q", last.Text, want)
	}
}

func keyboardLabels(msg bottest.SentMessage) []string {
	var labels []string
	for _, row := range msg.Keyboard {
		for _, b := range row {
			labels = append(labels, b.Text)
		}
	}
	return labels
}

func equalStrings(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
