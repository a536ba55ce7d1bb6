package telegram

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/timoshinoleg-eng/chatbot24-landing/internal/domain"
	"github.com/timoshinoleg-eng/chatbot24-landing/internal/infra/metrics"
)

type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier доставляет заявки формы обратной связи в рабочий чат.
type Notifier struct {
	bot    botSender
	chatID int64
	log    zerolog.Logger
}

// NewNotifier создаёт нотификатор заявок.
func NewNotifier(bot botSender, chatID int64, log zerolog.Logger) *Notifier {
	return &Notifier{bot: bot, chatID: chatID, log: log}
}

var _ domain.LeadNotifier = (*Notifier)(nil)

// NotifyLead отправляет заявку сообщением с HTML-разметкой.
func (n *Notifier) NotifyLead(ctx context.Context, lead domain.Lead) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("<b>Новая заявка с сайта</b>\n\n")
	fmt.Fprintf(&b, "<b>Telegram:</b> @%s\n", html.EscapeString(lead.Telegram))
	if lead.Name != "" {
		fmt.Fprintf(&b, "<b>Имя:</b> %s\n", html.EscapeString(lead.Name))
	}
	if lead.Email != "" {
		fmt.Fprintf(&b, "<b>Email:</b> %s\n", html.EscapeString(lead.Email))
	}
	fmt.Fprintf(&b, "\n<b>Сообщение:</b>\n%s", html.EscapeString(lead.Message))

	msg := tgbotapi.NewMessage(n.chatID, b.String())
	msg.ParseMode = tgbotapi.ModeHTML

	start := time.Now()
	_, err := n.bot.Send(msg)
	metrics.ObserveNetworkRequest("telegram", "send_message", "leads", start, err)
	if err != nil {
		metrics.LeadNotifyErrors.Inc()
		return fmt.Errorf("отправка заявки в Telegram: %w", err)
	}
	n.log.Info().Str("telegram", lead.Telegram).Msg("notifier: заявка доставлена")
	return nil
}
