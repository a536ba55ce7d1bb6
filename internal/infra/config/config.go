package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	Port   int    `envconfig:"PORT" default:"8080"`

	PGDSN          string `envconfig:"PG_DSN"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"migrations"`

	RedisAddr string `envconfig:"REDIS_ADDR"`
	RabbitURL string `envconfig:"RABBITMQ_URL"`

	Telegram struct {
		BotToken   string `envconfig:"TELEGRAM_BOT_TOKEN"`
		ChannelID  string `envconfig:"TELEGRAM_CHANNEL_ID"`
		LeadChatID int64  `envconfig:"TELEGRAM_LEAD_CHAT_ID"`
	} `envconfig:""`

	OpenRouter struct {
		APIKey   string        `envconfig:"OPENROUTER_API_KEY"`
		BaseURL  string        `envconfig:"OPENROUTER_BASE_URL" default:"https://openrouter.ai/api/v1"`
		Model    string        `envconfig:"OPENROUTER_MODEL" default:"mistralai/mistral-7b-instruct:free"`
		Referer  string        `envconfig:"OPENROUTER_REFERER" default:"https://chatbot24.su"`
		Title    string        `envconfig:"OPENROUTER_TITLE" default:"ChatBot24 Content Generator"`
		Timeout  time.Duration `envconfig:"OPENROUTER_TIMEOUT" default:"60s"`
		Fallback []string      `envconfig:"OPENROUTER_FALLBACK_MODELS"`
	} `envconfig:""`

	Unsplash struct {
		AccessKey string        `envconfig:"UNSPLASH_ACCESS_KEY"`
		Timeout   time.Duration `envconfig:"UNSPLASH_TIMEOUT" default:"10s"`
	} `envconfig:""`

	Sync struct {
		CronSecret string `envconfig:"CRON_SECRET"`
		FetchLimit int    `envconfig:"SYNC_FETCH_LIMIT" default:"20"`
		MinTextLen int    `envconfig:"SYNC_MIN_TEXT_LEN" default:"50"`
		Schedule   string `envconfig:"SYNC_SCHEDULE" default:"0 */6 * * *"`
		TargetURL  string `envconfig:"SYNC_TARGET_URL" default:"http://localhost:8080/api/v1/sync"`
	} `envconfig:""`

	Auth struct {
		AdminToken  string `envconfig:"ADMIN_TOKEN"`
		EditorToken string `envconfig:"EDITOR_TOKEN"`
	} `envconfig:""`

	Queues struct {
		Leads string `envconfig:"LEADS_QUEUE_KEY" default:"lead_jobs"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
