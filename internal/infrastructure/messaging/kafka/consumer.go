package kafka

import (
	"context"
	"errors"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"retailhub/internal/config"
	domain "retailhub/internal/domain/order"
	"retailhub/internal/domain/restock"
	"retailhub/internal/infrastructure/encoding/avro"
	"retailhub/pkg/logger"
)

// messageReader is the part of *kafkago.Reader the consumers use.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

type EventHandler interface {
	ProjectEvent(ctx context.Context, ev domain.Event) error
}

type DeliveryHandler interface {
	ApplyDelivery(ctx context.Context, d restock.Delivery) error
}

func newReader(cfg config.KafkaConfig, topic, group string) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  group,
		Topic:    topic,
		MinBytes: 1e3,
		MaxBytes: 1e6,
	})
}

type consumer struct {
	reader messageReader
	log    logger.Logger
	handle func(ctx context.Context, value []byte) error
}

// run fetches, handles and commits until ctx ends. Payloads that do not decode
// are logged and committed; handler errors stop the loop uncommitted.
func (c *consumer) run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		if err := c.handle(ctx, msg.Value); err != nil {
			var bad *decodeError
			if !errors.As(err, &bad) {
				return err
			}
			c.log.Warn("skipping undecodable message",
				logger.String("topic", msg.Topic),
				logger.Int64("offset", msg.Offset),
				logger.Error(err),
			)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit offset: %w", err)
		}
	}
}

type decodeError struct{ err error }

func (e *decodeError) Error() string { return "decode message: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

// EventConsumer feeds order events to the read-side projection.
type EventConsumer struct {
	consumer
}

func NewEventConsumer(cfg config.KafkaConfig, handler EventHandler, log logger.Logger) (*EventConsumer, error) {
	return newEventConsumer(newReader(cfg, cfg.EventTopic, cfg.ConsumerGroup+"-projection"), handler, log)
}

func newEventConsumer(r messageReader, handler EventHandler, log logger.Logger) (*EventConsumer, error) {
	enc, err := avro.NewEncoder(avro.OrderEventSchema)
	if err != nil {
		return nil, err
	}
	return &EventConsumer{consumer{
		reader: r,
		log:    log,
		handle: func(ctx context.Context, value []byte) error {
			native, err := enc.DecodeNative(value)
			if err != nil {
				return &decodeError{err}
			}
			ev, err := avro.OrderEventFromNative(native)
			if err != nil {
				return &decodeError{err}
			}
			if err := handler.ProjectEvent(ctx, ev); err != nil {
				return fmt.Errorf("project event %s for order %d: %w", ev.Type, ev.OrderID, err)
			}
			return nil
		},
	}}, nil
}

func (c *EventConsumer) Start(ctx context.Context) error { return c.run(ctx) }

func (c *EventConsumer) Close() { _ = c.reader.Close() }

// RestockConsumer applies supplier deliveries to the catalog.
type RestockConsumer struct {
	consumer
}

func NewRestockConsumer(cfg config.KafkaConfig, handler DeliveryHandler, log logger.Logger) (*RestockConsumer, error) {
	return newRestockConsumer(newReader(cfg, cfg.RestockTopic, cfg.ConsumerGroup+"-restock"), handler, log)
}

func newRestockConsumer(r messageReader, handler DeliveryHandler, log logger.Logger) (*RestockConsumer, error) {
	enc, err := avro.NewEncoder(avro.RestockDeliverySchema)
	if err != nil {
		return nil, err
	}
	return &RestockConsumer{consumer{
		reader: r,
		log:    log,
		handle: func(ctx context.Context, value []byte) error {
			native, err := enc.DecodeNative(value)
			if err != nil {
				return &decodeError{err}
			}
			d, err := avro.DeliveryFromNative(native)
			if err != nil {
				return &decodeError{err}
			}
			if err := d.Validate(); err != nil {
				return &decodeError{err}
			}
			return handler.ApplyDelivery(ctx, d)
		},
	}}, nil
}

func (c *RestockConsumer) Start(ctx context.Context) error { return c.run(ctx) }

func (c *RestockConsumer) Close() { _ = c.reader.Close() }
