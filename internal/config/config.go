package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURI   string
	TelegramToken string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// DefaultTimezone applies to users who never configured one.
	DefaultTimezone string

	// PremiumSweepRule is an RFC 5545 rule for the daily premium-expiry check.
	PremiumSweepRule string

	AdminChatID int64
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional in production
	}

	return &Config{
		DatabaseURI:      os.Getenv("DATABASE_URI"),
		TelegramToken:    os.Getenv("TELEGRAM_TOKEN"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:      getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		DefaultTimezone:  getEnvOrDefault("DEFAULT_TIMEZONE", "Asia/Almaty"),
		PremiumSweepRule: getEnvOrDefault("PREMIUM_SWEEP_RULE", "FREQ=DAILY;BYHOUR=3;BYMINUTE=0;BYSECOND=0"),
		AdminChatID:      getEnvInt64("ADMIN_CHAT_ID"),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string) int64 {
	v, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
