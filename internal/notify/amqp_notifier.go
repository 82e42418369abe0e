package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
)

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier кладёт события в durable-очередь RabbitMQ; чат-шлюз читает их и отправляет сообщения.
type AMQPNotifier struct {
	ch    amqpPublisher
	queue string
}

func NewAMQPNotifier(ch amqpPublisher, queue string) *AMQPNotifier {
	return &AMQPNotifier{ch: ch, queue: queue}
}

// DialAMQP открывает соединение и канал и объявляет очередь (идемпотентно).
// Закрывать нужно оба: сначала канал, потом соединение.
func DialAMQP(url, queue string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("amqp queue declare: %w", err)
	}
	return conn, ch, nil
}

func (n *AMQPNotifier) NotifyOperator(ctx context.Context, e Event) error {
	return n.publish(ctx, e)
}

func (n *AMQPNotifier) NotifyClient(ctx context.Context, clientID int64, e Event) error {
	e.ClientID = clientID
	return n.publish(ctx, e)
}

func (n *AMQPNotifier) publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    e.ID.String(),
		Type:         string(e.Type),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	// default exchange, routing key = имя очереди
	if err := n.ch.PublishWithContext(ctx, "", n.queue, false, false, msg); err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}
