package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telegram-dialog-bot/internal/bot"
	"telegram-dialog-bot/internal/commands"
	"telegram-dialog-bot/internal/config"
	"telegram-dialog-bot/internal/domain/ports/repository"
	pg "telegram-dialog-bot/internal/infra/db/postgres"
	"telegram-dialog-bot/internal/infra/logging"
	"telegram-dialog-bot/internal/infra/metrics"
	red "telegram-dialog-bot/internal/infra/redis"
	"telegram-dialog-bot/internal/infra/sched"
	tele "telegram-dialog-bot/internal/infra/telegram"
	"telegram-dialog-bot/internal/infra/web"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	chats := red.NewChatStateRepo(redisClient)
	tokens := red.NewCallbackRepo(redisClient, cfg.Redis.TokenTTL)

	// ---- Postgres update log (optional) ----
	var updates repository.UpdateLogRepository
	if cfg.Database.URL != "" {
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer pool.Close()
		repo := pg.NewUpdateLogRepo(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatalf("postgres schema: %v", err)
		}
		updates = repo

		worker := sched.NewRetentionWorker(cfg.Retention.Interval, cfg.Retention.MaxAge, repo, logger)
		go func() { _ = worker.Run(ctx) }()
	} else {
		logger.Warn().Msg("database.url not set; update log disabled")
	}

	// ---- Engine ----
	gateway := tele.NewGateway(cfg.Bot.URL, cfg.Bot.RequestTimeout)
	registry := bot.NewRegistry()
	if err := commands.Register(registry); err != nil {
		log.Fatalf("commands: %v", err)
	}
	engine := bot.NewEngine(registry, chats, tokens, gateway, cfg.Bot.AllowChatCreation, cfg.Bot.HelpIntro, logger)

	// ---- Webhook server ----
	srv := web.NewServer(engine, cfg.Bot.WebhookPath, cfg.Bot.WebhookSecret, updates, logger)
	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: srv.Router()}
	go func() {
		logger.Info().Str("addr", server.Addr).Str("path", cfg.Bot.WebhookPath).Msg("webhook listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
}
