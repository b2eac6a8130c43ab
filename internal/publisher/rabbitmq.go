package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"pun_archiver/internal/domain"
)

const ActionArchived = "archived"

// RabbitMQ announces archived puns on a topic exchange. Each message is
// routed as "{routing_key}.{year}" so consumers can bind to a single year
// or to "{routing_key}.#" for all of them.
type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *slog.Logger
}

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

// ArchiveMessage announces a pun that was written to the document.
type ArchiveMessage struct {
	Action    string             `json:"action"`
	Archived  domain.ArchivedPun `json:"archived"`
	Timestamp time.Time          `json:"timestamp"`
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	r := &RabbitMQ{
		conn:       conn,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger.With("exchange", cfg.Exchange, "queue", cfg.QueueName),
	}

	if err := r.declare(cfg.QueueName); err != nil {
		_ = r.Close()
		return nil, err
	}

	r.logger.Info("connected to rabbitmq", "binding", r.bindingKey())
	return r, nil
}

func (r *RabbitMQ) declare(queue string) error {
	ch, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	r.channel = ch

	if err := ch.ExchangeDeclare(r.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, r.bindingKey(), r.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

func (r *RabbitMQ) bindingKey() string {
	return r.routingKey + ".#"
}

// RoutingKey is the key an archived pun is published under.
func (r *RabbitMQ) RoutingKey(archived *domain.ArchivedPun) string {
	return r.routingKey + "." + strconv.Itoa(archived.Post.CreatedAt.Year())
}

func (r *RabbitMQ) Publish(ctx context.Context, archived *domain.ArchivedPun) error {
	now := time.Now().UTC()
	body, err := json.Marshal(ArchiveMessage{
		Action:    ActionArchived,
		Archived:  *archived,
		Timestamp: now,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	key := r.RoutingKey(archived)
	err = r.channel.PublishWithContext(ctx, r.exchange, key, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    uuid.NewString(),
		Type:         ActionArchived,
		Timestamp:    now,
		Headers: amqp.Table{
			"post_id":  archived.Post.ID,
			"pun_date": archived.Date,
		},
		Body: body,
	})
	if err != nil {
		return fmt.Errorf("publish post %s: %w", archived.Post.ID, err)
	}

	r.logger.Debug("published archived pun", "post_id", archived.Post.ID, "routing_key", key)
	return nil
}

func (r *RabbitMQ) Close() error {
	var errs []error
	if r.channel != nil {
		if err := r.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
	}
	if r.conn != nil {
		if err := r.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}
