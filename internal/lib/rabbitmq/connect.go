// Package rabbitmq содержит подключение к брокеру, объявление топологии,
// публикацию и потребление сообщений.
package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// prefetch ограничивает число неподтверждённых сообщений на канал
// и совпадает с числом одновременно работающих обработчиков.
const prefetch = 10

// Connect подключается к брокеру, повторяя попытку retries раз с паузой delay.
func Connect(ctx context.Context, connection string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
	if retries < 1 {
		retries = 1
	}
	var err error
	for attempt := range retries {
		var conn *amqp.Connection
		conn, err = amqp.Dial(connection)
		if err == nil {
			return conn, nil
		}
		if attempt == retries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("%s: %w", op, err)
}

// SetupChannel открывает канал и объявляет обменники и очереди из queues.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}
	if err := declare(ch, queues); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ch, nil
}

func declare(ch *amqp.Channel, queues []QueueConfig) error {
	declared := make(map[string]struct{})
	for _, q := range queues {
		if _, ok := declared[q.Exchange]; !ok && q.Exchange != "" {
			if err := ch.ExchangeDeclare(q.Exchange, "direct", true, false, false, false, nil); err != nil {
				return fmt.Errorf("failed to declare exchange %s: %w", q.Exchange, err)
			}
			declared[q.Exchange] = struct{}{}
		}
		if _, err := ch.QueueDeclare(q.QueueName, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", q.QueueName, err)
		}
		if q.Exchange == "" {
			continue
		}
		if err := ch.QueueBind(q.QueueName, q.RoutingKey, q.Exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s with routing key %s: %w", q.QueueName, q.RoutingKey, err)
		}
	}
	return nil
}
