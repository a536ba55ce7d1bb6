package telegram

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

type stubUpdates struct {
	updates []tgbotapi.Update
}

func (s *stubUpdates) GetUpdates(tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	return s.updates, nil
}

func channelPost(id int, username, text, caption string) tgbotapi.Update {
	return tgbotapi.Update{ChannelPost: &tgbotapi.Message{
		MessageID: id,
		Chat:      &tgbotapi.Chat{UserName: username},
		Text:      text,
		Caption:   caption,
	}}
}

func TestFetchRecentFiltersByChannel(t *testing.T) {
	client := &stubUpdates{updates: []tgbotapi.Update{
		channelPost(1, "my_channel", "наше сообщение", ""),
		channelPost(2, "other_channel", "чужое сообщение", ""),
		channelPost(3, "my_channel", "ещё одно", ""),
	}}
	fetcher := NewFetcher(client, "@my_channel", zerolog.Nop())

	messages, err := fetcher.FetchRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("ожидали 2 сообщения своего канала, получили %d", len(messages))
	}
	if messages[0].ID != 1 || messages[1].ID != 3 {
		t.Fatalf("неожиданные id: %v", messages)
	}
	if messages[0].Channel != "@my_channel" {
		t.Fatalf("канал должен нормализоваться: %q", messages[0].Channel)
	}
}

func TestFetchRecentUsesCaptionFallback(t *testing.T) {
	client := &stubUpdates{updates: []tgbotapi.Update{
		channelPost(1, "my_channel", "", "подпись к фото"),
	}}
	fetcher := NewFetcher(client, "my_channel", zerolog.Nop())

	messages, err := fetcher.FetchRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(messages) != 1 || messages[0].Text != "подпись к фото" {
		t.Fatalf("ожидали текст из подписи, получили %v", messages)
	}
}

func TestFetchRecentTakesLastN(t *testing.T) {
	var updates []tgbotapi.Update
	for i := 1; i <= 30; i++ {
		updates = append(updates, channelPost(i, "my_channel", "сообщение", ""))
	}
	fetcher := NewFetcher(&stubUpdates{updates: updates}, "@my_channel", zerolog.Nop())

	messages, err := fetcher.FetchRecent(context.Background(), 5)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(messages) != 5 {
		t.Fatalf("ожидали 5 последних, получили %d", len(messages))
	}
	if messages[0].ID != 26 || messages[4].ID != 30 {
		t.Fatalf("ожидали хвост 26..30, получили %v", messages)
	}
}

func TestFetchRecentCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fetcher := NewFetcher(&stubUpdates{}, "@my_channel", zerolog.Nop())

	if _, err := fetcher.FetchRecent(ctx, 10); err == nil {
		t.Fatalf("отменённый контекст должен давать ошибку")
	}
}
