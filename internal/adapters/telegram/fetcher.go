package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/timoshinoleg-eng/chatbot24-landing/internal/domain"
	"github.com/timoshinoleg-eng/chatbot24-landing/internal/infra/metrics"
)

type updatesClient interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// Fetcher выгружает последние сообщения канала через Bot API getUpdates.
// Бот должен быть администратором канала, иначе апдейты не приходят.
type Fetcher struct {
	client  updatesClient
	channel string
	log     zerolog.Logger
}

// NewFetcher создаёт выгрузчик для одного канала.
// channel — алиас с @ или числовой id канала.
func NewFetcher(client updatesClient, channel string, log zerolog.Logger) *Fetcher {
	return &Fetcher{client: client, channel: normalizeChannel(channel), log: log}
}

var _ domain.ChannelFetcher = (*Fetcher)(nil)

// FetchRecent возвращает до limit последних сообщений настроенного канала.
func (f *Fetcher) FetchRecent(ctx context.Context, limit int) ([]domain.ChannelMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	cfg := tgbotapi.NewUpdate(0)
	// Запрашиваем с запасом: апдейты приходят и из чужих чатов.
	cfg.Limit = limit * 2
	if cfg.Limit > 100 {
		cfg.Limit = 100
	}
	cfg.AllowedUpdates = []string{"channel_post", "message"}

	start := time.Now()
	updates, err := f.client.GetUpdates(cfg)
	metrics.ObserveNetworkRequest("telegram", "get_updates", f.channel, start, err)
	if err != nil {
		return nil, fmt.Errorf("telegram getUpdates: %w", err)
	}

	var messages []domain.ChannelMessage
	for _, upd := range updates {
		post := upd.ChannelPost
		if post == nil {
			post = upd.Message
		}
		if post == nil || post.Chat == nil || !f.matchChat(post.Chat) {
			continue
		}
		text := post.Text
		if text == "" {
			text = post.Caption
		}
		messages = append(messages, domain.ChannelMessage{
			ID:      int64(post.MessageID),
			Text:    text,
			Date:    time.Unix(int64(post.Date), 0).UTC(),
			Channel: f.channel,
		})
	}

	if len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	f.log.Debug().Int("count", len(messages)).Msg("telegram: сообщения канала выгружены")
	return messages, nil
}

func (f *Fetcher) matchChat(chat *tgbotapi.Chat) bool {
	if chat.UserName != "" && "@"+strings.ToLower(chat.UserName) == strings.ToLower(f.channel) {
		return true
	}
	return strconv.FormatInt(chat.ID, 10) == strings.TrimPrefix(f.channel, "@")
}

func normalizeChannel(channel string) string {
	trimmed := strings.TrimSpace(channel)
	if trimmed == "" {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "@") {
		return trimmed
	}
	if _, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return trimmed
	}
	return "@" + trimmed
}
