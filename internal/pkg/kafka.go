package pkg

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Event is a lifecycle notification such as "user.created".
type Event struct {
	Type     string    `json:"type"`
	EntityID string    `json:"entity_id"`
	At       time.Time `json:"at"`
	Data     any       `json:"data,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type KafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

func NewKafkaProducer(cfg KafkaConfig) (*KafkaProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &KafkaProducer{writer: w, topic: cfg.Topic}, nil
}

func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// Send writes one raw message keyed by key.
func (p *KafkaProducer) Send(ctx context.Context, key string, value []byte) error {
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Publish keys the event by entity id so updates of one entity stay ordered.
func (p *KafkaProducer) Publish(ctx context.Context, ev Event) error {
	value, err := EncodeEvent(ev)
	if err != nil {
		return err
	}
	if err := p.Send(ctx, ev.EntityID, value); err != nil {
		return fmt.Errorf("kafka publish %s to %s: %w", ev.Type, p.topic, err)
	}
	return nil
}

func EncodeEvent(ev Event) ([]byte, error) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", ev.Type, err)
	}
	return b, nil
}

// LogPublisher is used when no broker is configured.
type LogPublisher struct {
	log zerolog.Logger
}

func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log.With().Str("component", "events").Logger()}
}

func (p *LogPublisher) Publish(_ context.Context, ev Event) error {
	p.log.Debug().Str("type", ev.Type).Str("entity_id", ev.EntityID).Msg("event")
	return nil
}

func (p *LogPublisher) Close() error { return nil }
