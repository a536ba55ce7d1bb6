package main

import (
	"context"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/timoshinoleg-eng/chatbot24-landing/internal/infra/config"
	loginfra "github.com/timoshinoleg-eng/chatbot24-landing/internal/infra/log"
)

// Планировщик дёргает эндпоинт синхронизации API по расписанию.
// Он намеренно не знает про пайплайн: единственный контракт —
// HTTP-вызов с общим секретом.
func main() {
	cfg := config.Load()
	logger := loginfra.NewLogger(cfg.AppEnv).With().Str("component", "scheduler").Logger()

	if cfg.Sync.CronSecret == "" {
		logger.Fatal().Msg("scheduler: CRON_SECRET обязателен")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := &http.Client{Timeout: 5 * time.Minute}
	trigger := func() {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Sync.TargetURL, nil)
		if err != nil {
			logger.Error().Err(err).Msg("scheduler: не удалось собрать запрос")
			return
		}
		req.Header.Set("Authorization", "Bearer "+cfg.Sync.CronSecret)

		start := time.Now()
		resp, err := client.Do(req)
		if err != nil {
			logger.Error().Err(err).Msg("scheduler: запуск синхронизации не удался")
			return
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.Info().
			Int("status", resp.StatusCode).
			Dur("duration", time.Since(start)).
			Str("body", string(body)).
			Msg("scheduler: синхронизация запущена")
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.Sync.Schedule, trigger); err != nil {
		logger.Fatal().Err(err).Str("schedule", cfg.Sync.Schedule).Msg("scheduler: некорректное расписание")
	}
	c.Start()
	logger.Info().Str("schedule", cfg.Sync.Schedule).Str("target", cfg.Sync.TargetURL).Msg("scheduler: старт")

	<-ctx.Done()
	logger.Info().Msg("scheduler: остановка")
	<-c.Stop().Done()
}
