package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/timoshinoleg-eng/chatbot24-landing/internal/domain"
	"github.com/timoshinoleg-eng/chatbot24-landing/internal/infra/metrics"
)

// RabbitLeadQueue реализует очередь заявок поверх RabbitMQ.
// Сообщения подтверждаются при получении: неудачная доставка заявки
// логируется получателем, повторная постановка не выполняется.
type RabbitLeadQueue struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	queue      string
	deliveries <-chan amqp.Delivery
}

// NewRabbitLeadQueue подключается к RabbitMQ и объявляет устойчивую очередь.
func NewRabbitLeadQueue(amqpURL, queue string) (*RabbitLeadQueue, error) {
	if amqpURL == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &RabbitLeadQueue{conn: conn, ch: ch, queue: queue}, nil
}

// Enqueue публикует заявку в очередь.
func (q *RabbitLeadQueue) Enqueue(ctx context.Context, lead domain.Lead) error {
	payload, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("marshal lead: %w", err)
	}
	start := time.Now()
	err = q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		return fmt.Errorf("publish lead: %w", err)
	}
	return nil
}

// Pop блокирующе читает заявку из очереди.
func (q *RabbitLeadQueue) Pop(ctx context.Context) (domain.Lead, error) {
	if q.deliveries == nil {
		deliveries, err := q.ch.Consume(q.queue, "", true, false, false, false, nil)
		if err != nil {
			return domain.Lead{}, fmt.Errorf("consume queue: %w", err)
		}
		q.deliveries = deliveries
	}
	for {
		select {
		case <-ctx.Done():
			return domain.Lead{}, ctx.Err()
		case msg, ok := <-q.deliveries:
			if !ok {
				return domain.Lead{}, errors.New("rabbitmq: канал доставки закрыт")
			}
			var lead domain.Lead
			if err := json.Unmarshal(msg.Body, &lead); err != nil {
				return domain.Lead{}, fmt.Errorf("decode lead: %w", err)
			}
			return lead, nil
		}
	}
}

// Close освобождает соединение.
func (q *RabbitLeadQueue) Close() error {
	if err := q.ch.Close(); err != nil {
		_ = q.conn.Close()
		return err
	}
	return q.conn.Close()
}
