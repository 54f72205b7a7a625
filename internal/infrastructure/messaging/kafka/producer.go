package kafka

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"retailhub/internal/config"
	domain "retailhub/internal/domain/order"
	"retailhub/internal/domain/restock"
	"retailhub/internal/infrastructure/encoding/avro"
	"retailhub/pkg/logger"
)

// syncProducer is the part of *kgo.Client the producers use.
type syncProducer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type producer struct {
	client syncProducer
	topic  string
	log    logger.Logger
}

func newClient(cfg config.KafkaConfig, topic string) (*kgo.Client, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(5 * time.Millisecond),
	}
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return client, nil
}

func (p *producer) produce(ctx context.Context, key string, payload []byte, headers ...kgo.RecordHeader) error {
	if len(payload) == 0 {
		return fmt.Errorf("payload is empty")
	}

	rec := &kgo.Record{
		Topic:     p.topic,
		Key:       []byte(key),
		Value:     payload,
		Headers:   headers,
		Timestamp: time.Now().UTC(),
	}

	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		p.log.Error("kafka publish failed",
			logger.String("topic", p.topic),
			logger.Int("payload_bytes", len(payload)),
			logger.Error(err),
		)
		return fmt.Errorf("publish to kafka topic %s: %w", p.topic, err)
	}
	return nil
}

func (p *producer) Close(ctx context.Context) error {
	p.log.Info("closing kafka producer", logger.String("topic", p.topic))
	if p.client != nil {
		p.client.Close()
	}
	return nil
}

// EventProducer publishes order events as Avro, keyed by order id so every
// event of one order lands on the same partition.
type EventProducer struct {
	producer
	encoder *avro.Encoder
}

func NewEventProducer(cfg config.KafkaConfig, log logger.Logger) (*EventProducer, error) {
	client, err := newClient(cfg, cfg.EventTopic)
	if err != nil {
		return nil, err
	}
	return newEventProducer(client, cfg.EventTopic, log)
}

func newEventProducer(client syncProducer, topic string, log logger.Logger) (*EventProducer, error) {
	enc, err := avro.NewEncoder(avro.OrderEventSchema)
	if err != nil {
		return nil, err
	}
	log.Info("kafka event producer ready", logger.String("topic", topic))
	return &EventProducer{
		producer: producer{client: client, topic: topic, log: log},
		encoder:  enc,
	}, nil
}

func (p *EventProducer) PublishEvent(ctx context.Context, ev domain.Event) error {
	payload, err := p.encoder.EncodeNative(avro.OrderEventToNative(ev))
	if err != nil {
		return fmt.Errorf("encode order event: %w", err)
	}
	return p.produce(ctx, strconv.FormatInt(ev.OrderID, 10), payload,
		kgo.RecordHeader{Key: "event_type", Value: []byte(ev.Type)},
	)
}

// RestockProducer publishes supplier deliveries as Avro.
type RestockProducer struct {
	producer
	encoder *avro.Encoder
}

func NewRestockProducer(cfg config.KafkaConfig, log logger.Logger) (*RestockProducer, error) {
	client, err := newClient(cfg, cfg.RestockTopic)
	if err != nil {
		return nil, err
	}
	return newRestockProducer(client, cfg.RestockTopic, log)
}

func newRestockProducer(client syncProducer, topic string, log logger.Logger) (*RestockProducer, error) {
	enc, err := avro.NewEncoder(avro.RestockDeliverySchema)
	if err != nil {
		return nil, err
	}
	return &RestockProducer{
		producer: producer{client: client, topic: topic, log: log},
		encoder:  enc,
	}, nil
}

func (p *RestockProducer) PublishDelivery(ctx context.Context, d restock.Delivery) error {
	if err := d.Validate(); err != nil {
		return err
	}
	payload, err := p.encoder.EncodeNative(avro.DeliveryToNative(d))
	if err != nil {
		return fmt.Errorf("encode delivery: %w", err)
	}
	return p.produce(ctx, d.ID, payload)
}
