package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	// URL is the bot API base, e.g. "https://api.telegram.org/bot123:abc".
	URL               string        `yaml:"url"`
	WebhookPath       string        `yaml:"webhook_path"`
	WebhookSecret     string        `yaml:"webhook_secret"` // empty accepts any inbound secret
	AllowChatCreation bool          `yaml:"allow_chat_creation"`
	HelpIntro         string        `yaml:"help_intro"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TokenTTL time.Duration `yaml:"token_ttl"` // callback token lifetime
}

type DatabaseConfig struct {
	// URL enables the durable update log when set; empty disables it.
	URL string `yaml:"url"`
}

type RetentionConfig struct {
	MaxAge   time.Duration `yaml:"max_age"`
	Interval time.Duration `yaml:"interval"`
}

type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
	Database  DatabaseConfig  `yaml:"database"`
	Retention RetentionConfig `yaml:"retention"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()

	// Minimal validation
	if cfg.Bot.URL == "" {
		return nil, errors.New("bot.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// ApplyDefaults fills unset fields. Split out so tests can build configs directly.
func (cfg *Config) ApplyDefaults() {
	if cfg.Bot.WebhookPath == "" {
		cfg.Bot.WebhookPath = "/telegram/webhook"
	}
	if cfg.Bot.HelpIntro == "" {
		cfg.Bot.HelpIntro = "Currently available commands:"
	}
	if cfg.Bot.RequestTimeout <= 0 {
		cfg.Bot.RequestTimeout = 5 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Redis.TokenTTL <= 0 {
		cfg.Redis.TokenTTL = 24 * time.Hour
	}
	if cfg.Retention.MaxAge <= 0 {
		cfg.Retention.MaxAge = 30 * 24 * time.Hour
	}
	if cfg.Retention.Interval <= 0 {
		cfg.Retention.Interval = time.Hour
	}
}
