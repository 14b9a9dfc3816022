package commands

import (
	"context"

	"telegram-dialog-bot/internal/bot"
)

// Maintenance is excluded from help and from the pushed command list. It
// exists so the help exclusion path stays exercised end to end.
func Maintenance() *bot.Command {
	return &bot.Command{
		Name:        "maintenance",
		Description: "A hidden command that does not appear in help.",
		Hidden:      true,
		Steps: []bot.Step{
			{ID: "Status", Handle: func(ctx context.Context, inv *bot.Invocation) error {
				if err := inv.Send(ctx, "All systems operational.", nil); err != nil {
					return err
				}
				return inv.Advance(ctx)
			}},
		},
	}
}

// Register wires the default command set into a registry.
func Register(registry *bot.Registry) error {
	for name, factory := range map[string]bot.Factory{
		"poll":        Poll,
		"echo":        Echo,
		"maintenance": Maintenance,
	} {
		if err := registry.Register(name, factory); err != nil {
			return err
		}
	}
	return nil
}
