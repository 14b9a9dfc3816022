// Command broadcast starts a bot command for every known chat (or a filtered
// subset) by synthesizing a minimal slash-command update per chat and feeding
// it through the normal dispatch path.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strings"

	"telegram-dialog-bot/internal/bot"
	"telegram-dialog-bot/internal/commands"
	"telegram-dialog-bot/internal/config"
	"telegram-dialog-bot/internal/infra/logging"
	red "telegram-dialog-bot/internal/infra/redis"
	tele "telegram-dialog-bot/internal/infra/telegram"
)

type chatIDList []int64

func (l *chatIDList) String() string { return fmt.Sprint(*l) }
func (l *chatIDList) Set(v string) error {
	var id int64
	if _, err := fmt.Sscanf(v, "%d", &id); err != nil {
		return err
	}
	*l = append(*l, id)
	return nil
}

func main() {
	var chatIDs chatIDList
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	command := flag.String("command", "", "command to start, e.g. /poll")
	flag.Var(&chatIDs, "chat-id", "restrict to this chat id; repeatable")
	flag.Parse()

	if *command == "" {
		log.Fatal("usage: broadcast -command /name [-chat-id N]...")
	}
	commandText := *command
	if !strings.HasPrefix(commandText, "/") {
		commandText = "/" + commandText
	}

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, false)
	ctx := context.Background()

	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	chats := red.NewChatStateRepo(redisClient)
	tokens := red.NewCallbackRepo(redisClient, cfg.Redis.TokenTTL)

	registry := bot.NewRegistry()
	if err := commands.Register(registry); err != nil {
		log.Fatalf("commands: %v", err)
	}
	gateway := tele.NewGateway(cfg.Bot.URL, cfg.Bot.RequestTimeout)
	engine := bot.NewEngine(registry, chats, tokens, gateway, cfg.Bot.AllowChatCreation, cfg.Bot.HelpIntro, logger)

	targets := []int64(chatIDs)
	if len(targets) == 0 {
		targets, err = chats.ListChatIDs(ctx)
		if err != nil {
			log.Fatalf("list chats: %v", err)
		}
	}
	if len(targets) == 0 {
		fmt.Println("No chats found for the given filter. Nothing to do.")
		return
	}

	started := 0
	for _, chatID := range targets {
		raw, err := json.Marshal(map[string]any{
			"message": map[string]any{
				"chat": map[string]any{"id": chatID},
				"text": commandText,
			},
		})
		if err != nil {
			log.Fatalf("marshal update: %v", err)
		}
		if err := engine.HandleUpdate(ctx, raw); err != nil {
			logger.Error().Err(err).Int64("chat_id", chatID).Msg("broadcast failed for chat")
			continue
		}
		started++
		fmt.Printf("Started %s for chat %d.\n", commandText, chatID)
	}
	fmt.Printf("Done: %d/%d chats.\n", started, len(targets))
}
