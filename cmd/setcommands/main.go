// Command setcommands pushes the bot's command list to the platform, per
// locale when requested, or deletes it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-dialog-bot/internal/bot"
	"telegram-dialog-bot/internal/commands"
	"telegram-dialog-bot/internal/config"
	tele "telegram-dialog-bot/internal/infra/telegram"
)

type localeList []string

func (l *localeList) String() string { return fmt.Sprint(*l) }
func (l *localeList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	var locales localeList
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	includeHidden := flag.Bool("include-hidden", false, "add all commands, even those excluded from help")
	deleteCommands := flag.Bool("delete", false, "clear the list of commands")
	flag.Var(&locales, "locale", "two-letter locale to set the commands for; repeatable")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	gateway := tele.NewGateway(cfg.Bot.URL, cfg.Bot.RequestTimeout)
	ctx := context.Background()

	if *deleteCommands {
		if len(locales) == 0 {
			mustCall(gateway.DeleteMyCommands(ctx, ""), "deleteMyCommands")
			return
		}
		for _, locale := range locales {
			mustCall(gateway.DeleteMyCommands(ctx, locale), "deleteMyCommands")
		}
		return
	}

	registry := bot.NewRegistry()
	if err := commands.Register(registry); err != nil {
		log.Fatalf("commands: %v", err)
	}

	if len(locales) == 0 {
		mustCall(gateway.SetMyCommands(ctx, commandList(registry, *includeHidden), ""), "setMyCommands")
		return
	}
	for _, locale := range locales {
		// Rebuild so locale-sensitive factories regenerate their descriptions.
		registry.Invalidate()
		mustCall(gateway.SetMyCommands(ctx, commandList(registry, *includeHidden), locale), "setMyCommands")
	}
	registry.Invalidate()
}

func commandList(registry *bot.Registry, includeHidden bool) []tgbotapi.BotCommand {
	var list []tgbotapi.BotCommand
	for _, cmd := range registry.All() {
		if !includeHidden && cmd.Hidden {
			continue
		}
		list = append(list, tgbotapi.BotCommand{Command: cmd.Name, Description: cmd.Description})
	}
	return list
}

func mustCall(err error, method string) {
	if err != nil {
		log.Fatalf("something went wrong while calling %s: %v", method, err)
	}
	fmt.Printf("Successfully called %s.\n", method)
}
