// Command setwebhook registers the bot's webhook with the platform. It takes a
// publicly accessible base URL and joins it with the configured webhook path.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"telegram-dialog-bot/internal/config"
	tele "telegram-dialog-bot/internal/infra/telegram"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatal("usage: setwebhook [-config config.yaml] <base-url>")
	}
	baseURL := flag.Arg(0)

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	url := strings.TrimRight(baseURL, "/") + cfg.Bot.WebhookPath
	gateway := tele.NewGateway(cfg.Bot.URL, cfg.Bot.RequestTimeout)
	if err := gateway.SetWebhook(context.Background(), url, cfg.Bot.WebhookSecret); err != nil {
		log.Fatalf("failed to set webhook to %s: %v", url, err)
	}
	fmt.Printf("Successfully set webhook to %q\n", url)
}
