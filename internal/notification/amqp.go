package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier publishes every message as JSON to a topic exchange, routed
// by its kind, for a downstream mailer to consume.
type AMQPNotifier struct {
	conn     *amqp.Connection
	channel  publisher
	exchange string
}

// DialAMQP connects and declares a durable topic exchange.
func DialAMQP(url, exchange string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &AMQPNotifier{conn: conn, channel: ch, exchange: exchange}, nil
}

// Send publishes message with persistent delivery.
func (n *AMQPNotifier) Send(ctx context.Context, message Message) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	err = n.channel.PublishWithContext(ctx, n.exchange, message.Kind, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
		Timestamp:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", message.Kind, err)
	}
	return nil
}

// Close tears down the channel and connection.
func (n *AMQPNotifier) Close() error {
	var errs []error
	if ch, ok := n.channel.(*amqp.Channel); ok {
		errs = append(errs, ch.Close())
	}
	if n.conn != nil {
		errs = append(errs, n.conn.Close())
	}
	return errors.Join(errs...)
}
