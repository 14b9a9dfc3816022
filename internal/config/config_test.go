package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
bot:
  url: "https://api.telegram.org/bot123:abc"
redis:
  url: "localhost:6379"
`)

	cfg, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Bot.WebhookPath != "/telegram/webhook" {
		t.Errorf("webhook path = %q", cfg.Bot.WebhookPath)
	}
	if cfg.Bot.HelpIntro != "Currently available commands:" {
		t.Errorf("help intro = %q", cfg.Bot.HelpIntro)
	}
	if cfg.Bot.RequestTimeout != 5*time.Second {
		t.Errorf("request timeout = %v", cfg.Bot.RequestTimeout)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Redis.TokenTTL != 24*time.Hour {
		t.Errorf("token ttl = %v", cfg.Redis.TokenTTL)
	}
	if cfg.Retention.MaxAge != 30*24*time.Hour || cfg.Retention.Interval != time.Hour {
		t.Errorf("retention = %+v", cfg.Retention)
	}
	if !cfg.Runtime.Dev {
		t.Error("dev flag not carried into runtime config")
	}
}

func TestLoadConfigExplicitValues(t *testing.T) {
	path := writeConfig(t, `
bot:
  url: "https://api.telegram.org/bot123:abc"
  webhook_path: "/hooks/tg"
  webhook_secret: "s3cret"
  allow_chat_creation: true
  request_timeout: 10s
server:
  port: 9999
redis:
  url: "localhost:6379"
  db: 3
  token_ttl: 1h
database:
  url: "postgres://bot:pw@localhost:5432/bot"
`)

	cfg, err := LoadConfig(path, false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Bot.WebhookPath != "/hooks/tg" || cfg.Bot.WebhookSecret != "s3cret" {
		t.Errorf("bot = %+v", cfg.Bot)
	}
	if !cfg.Bot.AllowChatCreation {
		t.Error("allow_chat_creation not read")
	}
	if cfg.Bot.RequestTimeout != 10*time.Second {
		t.Errorf("request timeout = %v", cfg.Bot.RequestTimeout)
	}
	if cfg.Server.Port != 9999 || cfg.Redis.DB != 3 || cfg.Redis.TokenTTL != time.Hour {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Database.URL == "" {
		t.Error("database url not read")
	}
}

func TestLoadConfigMissingRequiredFields(t *testing.T) {
	cases := map[string]struct {
		yaml string
		want string
	}{
		"no bot url":   {yaml: "redis:\n  url: localhost:6379\n", want: "bot.url"},
		"no redis url": {yaml: "bot:\n  url: https://api.telegram.org/bot123:abc\n", want: "redis.url"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, tc.yaml)
			_, err := LoadConfig(path, false)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %v, want mention of %s", err, tc.want)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), false); err == nil {
		t.Error("expected an error for a missing file")
	}
}
