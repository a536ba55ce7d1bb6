package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/timoshinoleg-eng/chatbot24-landing/internal/domain"
	openai "github.com/timoshinoleg-eng/chatbot24-landing/internal/infra/openai"
)

// ErrNoMessages возвращается на пустую историю диалога.
var ErrNoMessages = errors.New("пустая история диалога")

// ErrAllModelsFailed возвращается, когда ни одна модель из списка не ответила.
var ErrAllModelsFailed = errors.New("все модели недоступны")

const maxHistory = 20

const systemPrompt = `Ты — AI-ассистент ChatBot24.su, продающий чат-ботов и автоматизацию для B2B.

Твоя цель: превратить посетителя сайта в квалифицированного лида.

Стиль общения:
- Профессионально, но по-человечески (без канцелярита)
- Короткие сообщения: 1-3 предложения
- Не дави, показывай выгоды

Аргументы:
- Скорость: ответ за секунды
- 24/7: работает ночью и в выходные
- Квалификация: передаёт только тёплых лидов
- Интеграции: CRM, мессенджеры, сайт

Структура диалога:
1. Hook: приветствие + сильное обещание
2. Квалификация: ниша, роль, проблема, объём
3. Персонализация: как бот решит проблему
4. Мини-кейс: короткий пример с результатом
5. CTA: бриф, демо или консультация

Если вопрос сложный — предложи живого специалиста.`

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Service — продающий чат с политикой отката по списку моделей:
// модели пробуются по порядку, следующая — при любой ошибке предыдущей.
type Service struct {
	client  chatClient
	models  []string
	timeout time.Duration
	log     zerolog.Logger
}

// NewService создаёт сервис чата. models — упорядоченный список: первой
// пробуется основная модель, дальше запасные.
func NewService(client chatClient, models []string, timeout time.Duration, log zerolog.Logger) *Service {
	if len(models) == 0 {
		models = []string{"mistralai/mistral-7b-instruct:free"}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{client: client, models: models, timeout: timeout, log: log}
}

// Reply строит ответ ассистента на историю диалога.
func (s *Service) Reply(ctx context.Context, history []domain.ChatMessage) (string, error) {
	if len(history) == 0 {
		return "", ErrNoMessages
	}
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}

	messages := make([]openai.ChatMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatMessage{Role: openai.RoleSystem, Content: systemPrompt})
	for _, msg := range history {
		role := msg.Role
		if role != openai.RoleUser && role != openai.RoleAssistant {
			role = openai.RoleUser
		}
		messages = append(messages, openai.ChatMessage{Role: role, Content: msg.Content})
	}

	var lastErr error
	for _, model := range s.models {
		reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
		resp, err := s.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
			Model:       model,
			Temperature: 0.7,
			MaxTokens:   500,
			Messages:    messages,
		})
		cancel()
		if err != nil {
			s.log.Warn().Err(err).Str("model", model).Msg("chat: модель не ответила, пробуем следующую")
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			lastErr = fmt.Errorf("модель %s: пустой ответ", model)
			s.log.Warn().Str("model", model).Msg("chat: пустой ответ модели")
			continue
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	}
	if lastErr != nil {
		return "", fmt.Errorf("%w: %v", ErrAllModelsFailed, lastErr)
	}
	return "", ErrAllModelsFailed
}
