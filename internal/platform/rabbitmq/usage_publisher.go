package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"communibot/internal/model"
)

// UsageLogPublisher enqueues AI usage records for asynchronous persistence.
type UsageLogPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewUsageLogPublisher(conn *amqp.Connection, queueName string) *UsageLogPublisher {
	return &UsageLogPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *UsageLogPublisher) Publish(ctx context.Context, entry model.AIUsageLog) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		p.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue failed: %w", err)
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal usage log payload failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish usage log failed: %w", err)
	}
	return nil
}
