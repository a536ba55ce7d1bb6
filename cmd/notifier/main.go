package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	telegramadapter "github.com/timoshinoleg-eng/chatbot24-landing/internal/adapters/telegram"
	"github.com/timoshinoleg-eng/chatbot24-landing/internal/infra/config"
	loginfra "github.com/timoshinoleg-eng/chatbot24-landing/internal/infra/log"
	"github.com/timoshinoleg-eng/chatbot24-landing/internal/infra/queue"
)

// Нотификатор читает заявки из очереди и доставляет их в рабочий чат.
func main() {
	cfg := config.Load()
	logger := loginfra.NewLogger(cfg.AppEnv).With().Str("component", "notifier").Logger()

	if cfg.RabbitURL == "" {
		logger.Fatal().Msg("notifier: RABBITMQ_URL обязателен")
	}
	if cfg.Telegram.LeadChatID == 0 {
		logger.Fatal().Msg("notifier: TELEGRAM_LEAD_CHAT_ID обязателен")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	leadQueue, err := queue.NewRabbitLeadQueue(cfg.RabbitURL, cfg.Queues.Leads)
	if err != nil {
		logger.Fatal().Err(err).Msg("notifier: нет подключения к RabbitMQ")
	}
	defer leadQueue.Close()

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("notifier: не удалось создать Telegram бота")
	}
	notifier := telegramadapter.NewNotifier(bot, cfg.Telegram.LeadChatID, logger)

	logger.Info().Str("queue", cfg.Queues.Leads).Msg("notifier: старт")
	for {
		lead, err := leadQueue.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			logger.Error().Err(err).Msg("notifier: чтение очереди не удалось")
			// Пауза, чтобы не крутить цикл на постоянной ошибке канала.
			select {
			case <-ctx.Done():
			case <-time.After(5 * time.Second):
			}
			continue
		}
		if err := notifier.NotifyLead(ctx, lead); err != nil {
			logger.Error().Err(err).Str("telegram", lead.Telegram).Msg("notifier: доставка заявки не удалась")
		}
		if ctx.Err() != nil {
			break
		}
	}
	logger.Info().Msg("notifier: остановка")
}
