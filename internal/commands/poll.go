// Package commands holds the commands wired into the default bot binary. They
// double as realistic examples of multi-step dialogs: pagination, confirmation
// with cancel, and free-text capture.
package commands

import (
	"context"
	"fmt"

	"telegram-dialog-bot/internal/bot"
	"telegram-dialog-bot/internal/domain/ports/adapter"
)

const sportsPerPage = 3

// Poll asks for a favourite sport across three steps: ask (paginated options),
// confirm (yes / no / previous) and respond.
func Poll() *bot.Command {
	return &bot.Command{
		Name:        "poll",
		Description: "Poll for a user's favourite sport.",
		Steps: []bot.Step{
			{ID: "AskFavouriteSport", Handle: askFavouriteSport},
			{ID: "Confirm", Handle: confirmFavouriteSport},
			{ID: "Respond", Handle: recordFavouriteSport},
		},
	}
}

type sportOption struct {
	label string
	value string
}

func sportOptions() []sportOption {
	return []sportOption{
		{"🏓 Ping Pong", "Ping Pong"},
		{"🤺 Fencing", "Fencing"},
		{"🏸 Badminton", "Badminton"},
		{"🥊 Boxing", "Boxing"},
		{"🏹 Archery", "Archery"},
		{"🏒 Hockey", "Hockey"},
	}
}

func askFavouriteSport(ctx context.Context, inv *bot.Invocation) error {
	data := inv.Data
	page := pageNumber(data["current_page"])
	delete(data, "favourite_sport") // drop any previous selection

	options := sportOptions()
	start := (page - 1) * sportsPerPage
	end := start + sportsPerPage
	if start > len(options) {
		start = len(options)
	}
	visible := options[start:min(end, len(options))]

	keyboard := make([][]adapter.Button, 0, len(visible)+2)
	for _, opt := range visible {
		token, err := inv.NextStepCallback(ctx, data, map[string]any{"favourite_sport": opt.value})
		if err != nil {
			return err
		}
		keyboard = append(keyboard, []adapter.Button{{Text: opt.label, Token: token}})
	}

	if page > 1 {
		token, err := inv.CurrentStepCallback(ctx, data, map[string]any{"current_page": page - 1})
		if err != nil {
			return err
		}
		keyboard = append(keyboard, []adapter.Button{{Text: "⬅️ Back", Token: token}})
	}
	if len(options) > end {
		token, err := inv.CurrentStepCallback(ctx, data, map[string]any{"current_page": page + 1})
		if err != nil {
			return err
		}
		keyboard = append(keyboard, []adapter.Button{{Text: "➡️ Next", Token: token}})
	}

	return inv.Send(ctx, "What is your favourite sport?", keyboard)
}

func confirmFavouriteSport(ctx context.Context, inv *bot.Invocation) error {
	data := inv.Data
	sport, _ := data["favourite_sport"].(string)

	yes, err := inv.NextStepCallback(ctx, data, map[string]any{"confirmed": true})
	if err != nil {
		return err
	}
	no, err := inv.CancelCallback(ctx, data, map[string]any{
		"confirmed":   false,
		"cancel_text": "Poll cancelled. Your favourite sport was not recorded.",
	})
	if err != nil {
		return err
	}
	previous, err := inv.PreviousStepCallback(ctx, 1, data, nil)
	if err != nil {
		return err
	}

	keyboard := [][]adapter.Button{
		{{Text: "✅ Yes", Token: yes}},
		{{Text: "❌ No", Token: no}},
		{{Text: "⬅️ Previous step", Token: previous}},
	}
	return inv.Send(ctx, fmt.Sprintf("Would you like to submit %s as your favourite sport?", sport), keyboard)
}

func recordFavouriteSport(ctx context.Context, inv *bot.Invocation) error {
	sport, _ := inv.Data["favourite_sport"].(string)
	if err := inv.Send(ctx, fmt.Sprintf("Thank you! Your favourite sport %s has been recorded.", sport), nil); err != nil {
		return err
	}
	return inv.Advance(ctx)
}

// pageNumber tolerates the float64 that JSON round-trips produce for ints.
func pageNumber(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 1
	}
}
