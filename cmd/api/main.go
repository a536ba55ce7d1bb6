package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/timoshinoleg-eng/chatbot24-landing/internal/adapters/httpapi"
	"github.com/timoshinoleg-eng/chatbot24-landing/internal/adapters/repo"
	"github.com/timoshinoleg-eng/chatbot24-landing/internal/adapters/rewriter"
	telegramadapter "github.com/timoshinoleg-eng/chatbot24-landing/internal/adapters/telegram"
	"github.com/timoshinoleg-eng/chatbot24-landing/internal/adapters/unsplash"
	"github.com/timoshinoleg-eng/chatbot24-landing/internal/domain"
	"github.com/timoshinoleg-eng/chatbot24-landing/internal/infra/cache"
	"github.com/timoshinoleg-eng/chatbot24-landing/internal/infra/config"
	"github.com/timoshinoleg-eng/chatbot24-landing/internal/infra/db"
	httpinfra "github.com/timoshinoleg-eng/chatbot24-landing/internal/infra/http"
	loginfra "github.com/timoshinoleg-eng/chatbot24-landing/internal/infra/log"
	"github.com/timoshinoleg-eng/chatbot24-landing/internal/infra/metrics"
	openai "github.com/timoshinoleg-eng/chatbot24-landing/internal/infra/openai"
	"github.com/timoshinoleg-eng/chatbot24-landing/internal/infra/queue"
	blogusecase "github.com/timoshinoleg-eng/chatbot24-landing/internal/usecase/blog"
	chatusecase "github.com/timoshinoleg-eng/chatbot24-landing/internal/usecase/chat"
	leadsusecase "github.com/timoshinoleg-eng/chatbot24-landing/internal/usecase/leads"
	moderationusecase "github.com/timoshinoleg-eng/chatbot24-landing/internal/usecase/moderation"
	syncusecase "github.com/timoshinoleg-eng/chatbot24-landing/internal/usecase/sync"
)

func main() {
	cfg := config.Load()
	logger := loginfra.NewLogger(cfg.AppEnv).With().Str("component", "api").Logger()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(cfg.PGDSN, cfg.MigrationsPath); err != nil {
		logger.Fatal().Err(err).Msg("api: миграции не применились")
	}
	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: нет подключения к БД")
	}
	defer pool.Close()
	posts := repo.NewPostgres(pool)

	var appCache domain.Cache
	if cfg.RedisAddr != "" {
		appCache = cache.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	} else {
		logger.Warn().Msg("api: Redis не настроен, прогоны без замка и кэша")
	}

	var leadQueue domain.LeadQueue
	if cfg.RabbitURL != "" {
		rabbit, err := queue.NewRabbitLeadQueue(cfg.RabbitURL, cfg.Queues.Leads)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: нет подключения к RabbitMQ")
		}
		defer rabbit.Close()
		leadQueue = rabbit
	} else {
		logger.Fatal().Msg("api: RABBITMQ_URL обязателен для приёма заявок")
	}

	if cfg.Telegram.ChannelID == "" {
		logger.Fatal().Msg("api: TELEGRAM_CHANNEL_ID обязателен для синхронизации канала")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: не удалось создать Telegram бота")
	}
	fetcher := telegramadapter.NewFetcher(bot, cfg.Telegram.ChannelID, logger.With().Str("component", "telegram").Logger())

	llm := openai.NewClient(cfg.OpenRouter.APIKey, cfg.OpenRouter.BaseURL, cfg.OpenRouter.Timeout, map[string]string{
		"HTTP-Referer": cfg.OpenRouter.Referer,
		"X-Title":      cfg.OpenRouter.Title,
	})
	articleRewriter := rewriter.NewOpenRouter(llm, cfg.OpenRouter.Model, cfg.OpenRouter.Timeout)
	images := unsplash.NewClient(cfg.Unsplash.AccessKey, cfg.Unsplash.Timeout, logger.With().Str("component", "unsplash").Logger())

	syncSvc := syncusecase.NewService(fetcher, articleRewriter, images, posts, appCache,
		logger.With().Str("component", "sync").Logger(),
		cfg.Telegram.ChannelID, cfg.Sync.FetchLimit, cfg.Sync.MinTextLen)
	moderationSvc := moderationusecase.NewService(posts, logger.With().Str("component", "moderation").Logger())
	blogSvc := blogusecase.NewService(posts, appCache, logger.With().Str("component", "blog").Logger())
	chatModels := append([]string{cfg.OpenRouter.Model}, cfg.OpenRouter.Fallback...)
	chatSvc := chatusecase.NewService(llm, chatModels, cfg.OpenRouter.Timeout, logger.With().Str("component", "chat").Logger())
	leadsSvc := leadsusecase.NewService(leadQueue, logger.With().Str("component", "leads").Logger())

	tokens := make(map[string]domain.Role)
	if cfg.Auth.AdminToken != "" {
		tokens[cfg.Auth.AdminToken] = domain.RoleAdmin
	}
	if cfg.Auth.EditorToken != "" {
		tokens[cfg.Auth.EditorToken] = domain.RoleEditor
	}

	handler := httpapi.NewHandler(syncSvc, moderationSvc, blogSvc, chatSvc, leadsSvc, cfg.Sync.CronSecret, tokens, logger)

	srv := httpinfra.NewServer(logger)
	handler.Register(srv.Router)

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":9090")
	go func() {
		if err := srv.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("api: сервер остановлен")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
