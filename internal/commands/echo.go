package commands

import (
	"context"
	"fmt"

	"telegram-dialog-bot/internal/bot"
)

// Echo captures the next free-text message and repeats it back.
func Echo() *bot.Command {
	return &bot.Command{
		Name:        "echo",
		Description: "Responds with the same message.",
		Steps: []bot.Step{
			{ID: "WaitForInput", Handle: waitForEchoInput},
			{ID: "Echo", Handle: echoInput, Translate: bot.NoTranslation()},
		},
	}
}

func waitForEchoInput(ctx context.Context, inv *bot.Invocation) error {
	if err := inv.WaitForInput(ctx, "userinput", nil); err != nil {
		return err
	}
	return inv.Send(ctx, "Send the message you want to echo:", nil)
}

func echoInput(ctx context.Context, inv *bot.Invocation) error {
	userInput, _ := inv.Data["userinput"].(string)
	if err := inv.Send(ctx, fmt.Sprintf("You said: %s", userInput), nil); err != nil {
		return err
	}
	return inv.Advance(ctx)
}
