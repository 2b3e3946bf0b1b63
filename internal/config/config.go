package config

import (
	"log"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Configuration holds everything the process reads from the environment.
// Runtime credentials (Instagram token, Telegram bot) normally live in the
// settings table; the fields here are bootstrap fallbacks.
type Configuration struct {
	Address     string `env:"ADDRESS" envDefault:":8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	WebhookVerifyToken   string `env:"WEBHOOK_VERIFY_TOKEN" envDefault:"instabot_verify_2026"`
	InstagramAccessToken string `env:"INSTAGRAM_ACCESS_TOKEN"`

	PollIntervalSeconds int  `env:"POLL_INTERVAL_SECONDS" envDefault:"30"`
	PollAutoStart       bool `env:"POLL_AUTO_START" envDefault:"false"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string `env:"TELEGRAM_CHAT_ID"`

	// Optional AMQP mirror for webhook event summaries. Empty disables it.
	AmqpURL   string `env:"AMQP_URL"`
	AmqpQueue string `env:"AMQP_QUEUE" envDefault:"webhook_events"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads .env (if present) and parses the environment into a Configuration.
func Load() (*Configuration, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on OS environment variables")
	}

	cfg := &Configuration{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
