package bus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/xraph/assetsync/event"
)

// KafkaConfig configures the Kafka publisher.
type KafkaConfig struct {
	Brokers      []string      `json:"brokers" yaml:"brokers"`
	Topic        string        `json:"topic" yaml:"topic"`
	BatchTimeout time.Duration `json:"batch_timeout" yaml:"batch_timeout"`
	RequiredAcks string        `json:"required_acks" yaml:"required_acks"`
	Compression  string        `json:"compression" yaml:"compression"`
	MaxAttempts  int           `json:"max_attempts" yaml:"max_attempts"`
}

// messageWriter is the subset of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes envelopes as structured-mode CloudEvents, keyed by brand
// id so one brand's events stay on one partition.
type Kafka struct {
	writer messageWriter
}

var _ Publisher = (*Kafka)(nil)

// NewKafka creates a publisher writing to cfg.Topic.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("bus: kafka: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("bus: kafka: no topic configured")
	}

	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: batchTimeout,
		RequiredAcks: parseAcks(cfg.RequiredAcks),
		MaxAttempts:  cfg.MaxAttempts,
		Compression:  parseCompression(cfg.Compression),
	}

	return &Kafka{writer: w}, nil
}

// Publish writes one message and waits for the configured acknowledgement.
func (k *Kafka) Publish(ctx context.Context, env *event.Envelope) error {
	body, err := env.JSON()
	if err != nil {
		return fmt.Errorf("bus: kafka: encode %s: %w", env.ID, err)
	}

	key := env.BrandID()
	if key == "" {
		key = env.ID
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: body,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte(ContentTypeCloudEvents)},
			{Key: "ce_id", Value: []byte(env.ID)},
			{Key: "ce_type", Value: []byte(env.Type)},
			{Key: "ce_source", Value: []byte(env.Source)},
		},
	}

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("bus: kafka: publish %s: %w", env.ID, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}

func parseAcks(s string) kafka.RequiredAcks {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "0":
		return kafka.RequireNone
	case "all", "-1":
		return kafka.RequireAll
	default:
		return kafka.RequireOne
	}
}

func parseCompression(s string) kafka.Compression {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gzip":
		return kafka.Gzip
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Compression(0)
	}
}
