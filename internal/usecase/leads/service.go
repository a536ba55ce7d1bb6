package leads

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/timoshinoleg-eng/chatbot24-landing/internal/domain"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidationError содержит пофилдовые сообщения о недопустимом вводе.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return "некорректная заявка: " + strings.Join(parts, "; ")
}

// Service валидирует заявки формы обратной связи и ставит их в очередь доставки.
type Service struct {
	queue domain.LeadQueue
	log   zerolog.Logger
}

// NewService создаёт сервис заявок.
func NewService(queue domain.LeadQueue, log zerolog.Logger) *Service {
	return &Service{queue: queue, log: log}
}

// Submit проверяет заявку и публикует её в очередь.
// Ошибки валидации возвращаются до каких-либо побочных эффектов.
func (s *Service) Submit(ctx context.Context, lead domain.Lead) error {
	normalized, err := normalize(lead)
	if err != nil {
		return err
	}
	normalized.CreatedAt = time.Now().UTC()
	if err := s.queue.Enqueue(ctx, normalized); err != nil {
		return fmt.Errorf("постановка заявки в очередь: %w", err)
	}
	s.log.Info().Str("telegram", normalized.Telegram).Msg("leads: заявка принята")
	return nil
}

func normalize(lead domain.Lead) (domain.Lead, error) {
	fields := make(map[string]string)

	username := strings.TrimSpace(lead.Telegram)
	username = strings.TrimPrefix(username, "@")
	switch {
	case utf8.RuneCountInString(username) < 5:
		fields["telegram"] = "имя пользователя короче 5 символов"
	case utf8.RuneCountInString(username) > 32:
		fields["telegram"] = "имя пользователя длиннее 32 символов"
	case !usernameRegex.MatchString(username):
		fields["telegram"] = "допустимы только буквы, цифры и подчёркивание"
	}

	message := strings.TrimSpace(lead.Message)
	switch {
	case utf8.RuneCountInString(message) < 10:
		fields["message"] = "сообщение короче 10 символов"
	case utf8.RuneCountInString(message) > 1000:
		fields["message"] = "сообщение длиннее 1000 символов"
	}

	name := strings.TrimSpace(lead.Name)
	if utf8.RuneCountInString(name) > 100 {
		fields["name"] = "имя длиннее 100 символов"
	}

	email := strings.TrimSpace(lead.Email)
	if email != "" && !emailRegex.MatchString(email) {
		fields["email"] = "некорректный адрес почты"
	}

	if len(fields) > 0 {
		return domain.Lead{}, &ValidationError{Fields: fields}
	}
	return domain.Lead{Telegram: username, Name: name, Email: email, Message: message}, nil
}
