package leads

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/timoshinoleg-eng/chatbot24-landing/internal/domain"
)

type stubQueue struct {
	enqueued []domain.Lead
	err      error
}

func (s *stubQueue) Enqueue(_ context.Context, lead domain.Lead) error {
	if s.err != nil {
		return s.err
	}
	s.enqueued = append(s.enqueued, lead)
	return nil
}

func (s *stubQueue) Pop(context.Context) (domain.Lead, error) {
	return domain.Lead{}, errors.New("не используется")
}

func validLead() domain.Lead {
	return domain.Lead{
		Telegram: "@ivan_petrov",
		Name:     "Иван",
		Email:    "ivan@example.com",
		Message:  "Хочу чат-бота для отдела продаж",
	}
}

func TestSubmitNormalizesAndEnqueues(t *testing.T) {
	queue := &stubQueue{}
	service := NewService(queue, zerolog.Nop())

	if err := service.Submit(context.Background(), validLead()); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(queue.enqueued) != 1 {
		t.Fatalf("заявка должна попасть в очередь")
	}
	lead := queue.enqueued[0]
	if lead.Telegram != "ivan_petrov" {
		t.Fatalf("@ должен сниматься, получили %q", lead.Telegram)
	}
	if lead.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt должен быть выставлен")
	}
}

func TestSubmitValidation(t *testing.T) {
	cases := map[string]struct {
		mutate func(*domain.Lead)
		field  string
	}{
		"короткий username": {func(l *domain.Lead) { l.Telegram = "@abc" }, "telegram"},
		"длинный username":  {func(l *domain.Lead) { l.Telegram = strings.Repeat("a", 33) }, "telegram"},
		"плохие символы":    {func(l *domain.Lead) { l.Telegram = "иван-петров" }, "telegram"},
		"короткое сообщение": {func(l *domain.Lead) { l.Message = "мало" }, "message"},
		"длинное сообщение":  {func(l *domain.Lead) { l.Message = strings.Repeat("а", 1001) }, "message"},
		"длинное имя":        {func(l *domain.Lead) { l.Name = strings.Repeat("и", 101) }, "name"},
		"плохая почта":       {func(l *domain.Lead) { l.Email = "не почта" }, "email"},
	}
	for name, tc := range cases {
		queue := &stubQueue{}
		service := NewService(queue, zerolog.Nop())
		lead := validLead()
		tc.mutate(&lead)

		err := service.Submit(context.Background(), lead)
		var validation *ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("%s: ожидали ValidationError, получили %v", name, err)
		}
		if _, ok := validation.Fields[tc.field]; !ok {
			t.Fatalf("%s: ожидали ошибку поля %s, получили %v", name, tc.field, validation.Fields)
		}
		if len(queue.enqueued) != 0 {
			t.Fatalf("%s: заявка не должна попадать в очередь до валидации", name)
		}
	}
}

func TestSubmitOptionalFields(t *testing.T) {
	queue := &stubQueue{}
	service := NewService(queue, zerolog.Nop())

	lead := validLead()
	lead.Name = ""
	lead.Email = ""
	if err := service.Submit(context.Background(), lead); err != nil {
		t.Fatalf("имя и почта необязательны: %v", err)
	}
}

func TestSubmitQueueFailure(t *testing.T) {
	queue := &stubQueue{err: errors.New("rabbitmq недоступен")}
	service := NewService(queue, zerolog.Nop())

	if err := service.Submit(context.Background(), validLead()); err == nil {
		t.Fatalf("ошибка очереди должна возвращаться вызывающему")
	}
}
