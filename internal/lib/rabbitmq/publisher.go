package rabbitmq

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/ldavidflorez/gpt-tools-api/internal/models"
)

const (
	// UsageExchange — exchange для событий потребления токенов.
	UsageExchange = "usage"
	// UsageRoutingKey — ключ маршрутизации событий потребления.
	UsageRoutingKey = "consumed"
)

// Channel описывает подмножество API канала AMQP, используемое публикатором.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher публикует события потребления токенов в RabbitMQ.
type Publisher struct {
	ch Channel
}

// NewPublisher создаёт публикатор поверх открытого канала.
func NewPublisher(ch Channel) *Publisher {
	return &Publisher{ch: ch}
}

// PublishUsage сериализует событие в JSON и публикует его с флагом
// персистентности, чтобы оно пережило перезапуск брокера.
func (p *Publisher) PublishUsage(event *models.UsageEvent) error {
	const op = "rabbitmq.PublishUsage"
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = p.ch.Publish(
		UsageExchange,
		UsageRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
