package config

import (
	"os"
	"testing"
)

func TestLoadChannelIDHasNoDefault(t *testing.T) {
	os.Unsetenv("TELEGRAM_CHANNEL_ID")
	cfg := Load()
	if cfg.Telegram.ChannelID != "" {
		t.Fatalf("канал задаётся только явно через окружение, получили %q", cfg.Telegram.ChannelID)
	}
}

func TestLoadChannelIDFromEnv(t *testing.T) {
	t.Setenv("TELEGRAM_CHANNEL_ID", "@chatbot24_news")
	cfg := Load()
	if cfg.Telegram.ChannelID != "@chatbot24_news" {
		t.Fatalf("ожидали @chatbot24_news, получили %q", cfg.Telegram.ChannelID)
	}
}
