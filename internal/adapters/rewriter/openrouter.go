package rewriter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/timoshinoleg-eng/chatbot24-landing/internal/domain"
	openai "github.com/timoshinoleg-eng/chatbot24-landing/internal/infra/openai"
)

// ErrEmptyCompletion возвращается на ответ модели без контента.
var ErrEmptyCompletion = errors.New("пустой ответ модели")

// ErrMissingField возвращается, когда в распарсенном ответе нет
// обязательного поля. Частичный результат не принимается.
var ErrMissingField = errors.New("в ответе модели нет обязательного поля")

var seoKeywords = []string{
	"внедрение чат-ботов",
	"автоматизация бизнеса ИИ",
	"нейросети для продаж",
	"разработка ботов под ключ",
}

var fencedJSONRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenRouter переписывает статьи через OpenRouter Chat Completions.
type OpenRouter struct {
	client  chatClient
	model   string
	timeout time.Duration
}

// NewOpenRouter создаёт переписчик статей.
func NewOpenRouter(client chatClient, model string, timeout time.Duration) *OpenRouter {
	if model == "" {
		model = "mistralai/mistral-7b-instruct:free"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenRouter{client: client, model: model, timeout: timeout}
}

var _ domain.ArticleRewriter = (*OpenRouter)(nil)

type rewritePayload struct {
	Title           string          `json:"title"`
	Summary         string          `json:"summary"`
	Content         string          `json:"content"`
	Tags            json.RawMessage `json:"tags"`
	MetaTitle       string          `json:"metaTitle"`
	MetaDescription string          `json:"metaDescription"`
}

// Rewrite переписывает сырой текст в SEO-оптимизированную статью
// с шестью обязательными полями.
func (r *OpenRouter) Rewrite(ctx context.Context, rawText, sourceChannel string) (domain.RewrittenArticle, error) {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return domain.RewrittenArticle{}, errors.New("пустой исходный текст")
	}
	reqCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	systemPrompt := fmt.Sprintf(`Ты - эксперт по контент-маркетингу и SEO. Твоя задача - переписать статью о чат-ботах и ИИ,
сохранив суть, но сделав её уникальной, интересной и оптимизированной для поисковых систем.

Обязательно используй эти ключевые слова естественным образом:
%s

Верни результат в формате JSON с полями:
- title: привлекательный заголовок (до 70 символов)
- summary: краткое описание для превью (до 200 символов)
- content: полный переписанный текст с HTML-разметкой
- tags: массив тегов (5-7 штук)
- metaTitle: SEO-заголовок (до 60 символов)
- metaDescription: SEO-описание (до 160 символов)`, strings.Join(seoKeywords, ", "))

	req := openai.ChatCompletionRequest{
		Model:       r.model,
		Temperature: 0.7,
		MaxTokens:   2000,
		Messages: []openai.ChatMessage{
			{Role: openai.RoleSystem, Content: systemPrompt},
			{Role: openai.RoleUser, Content: fmt.Sprintf("Исходный текст из канала %s:\n\n%s", sourceChannel, text)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ResponseFormatTypeJSONObject},
	}

	resp, err := r.client.CreateChatCompletion(reqCtx, req)
	if err != nil {
		return domain.RewrittenArticle{}, fmt.Errorf("openrouter completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return domain.RewrittenArticle{}, ErrEmptyCompletion
	}

	payload, err := parsePayload(strings.TrimSpace(resp.Choices[0].Message.Content))
	if err != nil {
		return domain.RewrittenArticle{}, err
	}
	return payload.toArticle()
}

// parsePayload сначала пытается разобрать ответ как чистый JSON,
// затем — содержимое обрамляющего fenced-блока.
func parsePayload(content string) (rewritePayload, error) {
	var payload rewritePayload
	if err := json.Unmarshal([]byte(content), &payload); err == nil {
		return payload, nil
	}
	match := fencedJSONRegex.FindStringSubmatch(content)
	if match == nil {
		return rewritePayload{}, errors.New("ответ модели не является JSON")
	}
	if err := json.Unmarshal([]byte(match[1]), &payload); err != nil {
		return rewritePayload{}, fmt.Errorf("распаковка ответа LLM: %w", err)
	}
	return payload, nil
}

func (p rewritePayload) toArticle() (domain.RewrittenArticle, error) {
	required := map[string]string{
		"title":           p.Title,
		"summary":         p.Summary,
		"content":         p.Content,
		"metaTitle":       p.MetaTitle,
		"metaDescription": p.MetaDescription,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			return domain.RewrittenArticle{}, fmt.Errorf("%w: %s", ErrMissingField, field)
		}
	}
	if len(p.Tags) == 0 || string(p.Tags) == "null" {
		return domain.RewrittenArticle{}, fmt.Errorf("%w: tags", ErrMissingField)
	}

	// Теги — косметика: нелистовое значение не повод выбрасывать статью.
	var tags []string
	if err := json.Unmarshal(p.Tags, &tags); err != nil {
		tags = []string{}
	}
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		cleaned = append(cleaned, trimmed)
	}

	return domain.RewrittenArticle{
		Title:           strings.TrimSpace(p.Title),
		Summary:         strings.TrimSpace(p.Summary),
		Content:         strings.TrimSpace(p.Content),
		Tags:            cleaned,
		MetaTitle:       strings.TrimSpace(p.MetaTitle),
		MetaDescription: strings.TrimSpace(p.MetaDescription),
	}, nil
}
