package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chxdon9587/NextForD/internal/logger"
	"github.com/rabbitmq/amqp091-go"
)

// Publisher 消息发布
type Publisher interface {
	Publish(ctx context.Context, routingKey string, msg Envelope) error
	Close() error
}

// AMQPPublisher 发布到 RabbitMQ 的 topic exchange
type AMQPPublisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic", // routing key 形如 milestone.completed
		true,    // durable
		false,   // auto-deleted
		false,   // internal
		false,   // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, msg Envelope) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.channel.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			MessageId:    msg.ID,
			Timestamp:    time.Now(),
			Body:         body,
			DeliveryMode: amqp091.Persistent,
		},
	)
}

func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// LogPublisher 未配置 MQ 时只写日志
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, routingKey string, msg Envelope) error {
	logger.Info("event %s %s/%s: %s", routingKey, msg.AggregateType, msg.AggregateID, string(msg.Data))
	return nil
}

func (LogPublisher) Close() error { return nil }
