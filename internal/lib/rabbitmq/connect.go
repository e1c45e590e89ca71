// Package rabbitmq содержит подключение к брокеру и публикацию событий
// потребления токенов для асинхронных потребителей биллинга.
package rabbitmq

import (
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// Connect подключается к RabbitMQ с повторными попытками.
func Connect(connection string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
	var conn *amqp.Connection
	var err error

	for range retries {
		conn, err = amqp.Dial(connection)
		if err == nil {
			return conn, nil
		}
		time.Sleep(delay)
	}

	return nil, fmt.Errorf("%s: %w", op, err)
}

// SetupChannel открывает канал, объявляет exchange "usage" и очередь,
// привязанную к нему по ключу маршрутизации "consumed".
func SetupChannel(conn *amqp.Connection, queueName string) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		UsageExchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, queueName, err)
	}

	err = ch.QueueBind(
		queueName,
		UsageRoutingKey,
		UsageExchange,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to bind queue %s: %w", op, queueName, err)
	}

	return ch, nil
}
