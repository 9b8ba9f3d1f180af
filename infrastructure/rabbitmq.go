package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"ai-interviewer/config"
	"ai-interviewer/domain"
)

const publishTimeout = 5 * time.Second

// RabbitMQ publishes interview lifecycle events to a durable queue.
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	log     *zap.Logger
}

func NewRabbitMQ(cfg config.RabbitMQConfig, log *zap.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		cfg.Queue, // queue name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", cfg.Queue, err)
	}

	log.Info("connected to rabbitmq", zap.String("queue", q.Name))
	return &RabbitMQ{conn: conn, channel: ch, queue: q, log: log}, nil
}

// Publish sends event to the queue. A missing ID or timestamp is filled in.
func (r *RabbitMQ) Publish(ctx context.Context, event domain.InterviewEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = r.channel.PublishWithContext(
		ctx,
		"",           // exchange
		r.queue.Name, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// ConsumeEvents delivers queued events to handler until ctx is done or the
// channel closes. Malformed messages are logged and dropped.
func (r *RabbitMQ) ConsumeEvents(ctx context.Context, handler func(domain.InterviewEvent)) error {
	msgs, err := r.channel.Consume(
		r.queue.Name,
		"",
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			var event domain.InterviewEvent
			if err := json.Unmarshal(d.Body, &event); err != nil {
				r.log.Warn("invalid event format", zap.Error(err))
				continue
			}
			handler(event)
		}
	}
}

func (r *RabbitMQ) Close() error {
	if err := r.channel.Close(); err != nil {
		r.conn.Close()
		return err
	}
	return r.conn.Close()
}

// LoggingPublisher wraps a publisher so delivery failures never reach the
// caller. Events are best effort.
type LoggingPublisher struct {
	next domain.EventPublisher
	log  *zap.Logger
}

func NewLoggingPublisher(next domain.EventPublisher, log *zap.Logger) *LoggingPublisher {
	return &LoggingPublisher{next: next, log: log}
}

func (p *LoggingPublisher) Publish(ctx context.Context, event domain.InterviewEvent) error {
	if err := p.next.Publish(ctx, event); err != nil {
		p.log.Warn("publish interview event",
			zap.Uint("interview_id", event.InterviewID),
			zap.String("status", string(event.Status)),
			zap.Error(err),
		)
	}
	return nil
}
