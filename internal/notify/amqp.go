package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/eventplan/eventplan/internal/model"
)

// ExchangeName is the topic exchange notifications are published to. The
// routing key is the notification's event type, so consumers can bind to
// patterns like "participant.*".
const ExchangeName = "eventplan.notifications"

// AMQPNotifier publishes payloads to a RabbitMQ topic exchange.
type AMQPNotifier struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewAMQPNotifier dials the broker and declares the topic exchange.
func NewAMQPNotifier(url string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	err = ch.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &AMQPNotifier{conn: conn, channel: ch}, nil
}

// Notify implements Notifier. Publish failures are logged and absorbed.
func (n *AMQPNotifier) Notify(_ context.Context, client model.Client, typ EventType, data any) {
	payload := Payload{
		Event:     typ,
		Timestamp: time.Now().UTC(),
		ClientID:  client.ID,
		Data:      data,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("failed to marshal notification", "client_id", client.ID, "event", typ, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = n.channel.PublishWithContext(
		ctx,
		ExchangeName,
		string(typ),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: uuid.New().String(),
			Body:          body,
			DeliveryMode:  amqp.Persistent,
			Timestamp:     time.Now(),
		},
	)
	if err != nil {
		slog.Warn("failed to publish notification", "event", typ, "client_id", client.ID, "error", err)
	}
}

// Close closes the channel and connection.
func (n *AMQPNotifier) Close() error {
	if n.channel != nil {
		_ = n.channel.Close()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
