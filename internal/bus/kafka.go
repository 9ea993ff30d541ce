package bus

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig represents Apache Kafka configuration
type KafkaConfig struct {
	Brokers      []string      // Kafka broker addresses
	BatchSize    int           // Batch size for producer (default: 100)
	BatchTimeout time.Duration // Batch timeout for producer (default: 10ms)
	MaxRetries   int           // Max attempts on failure (default: 3)
}

// KafkaBus implements Publisher using Apache Kafka. One writer is kept
// per topic and reused across publishes.
type KafkaBus struct {
	config  KafkaConfig
	writers map[string]*kafka.Writer
	mu      sync.RWMutex
}

// newKafkaBus validates configuration and creates the bus
func newKafkaBus(cfg KafkaConfig) (*KafkaBus, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}

	return &KafkaBus{
		config:  cfg,
		writers: make(map[string]*kafka.Writer),
	}, nil
}

// topicName converts a subject to a Kafka topic name (dots to dashes)
func topicName(subject string) string {
	return strings.ReplaceAll(subject, ".", "-")
}

// getOrCreateWriter returns the existing writer or creates one for the topic
func (b *KafkaBus) getOrCreateWriter(topic string) *kafka.Writer {
	b.mu.Lock()
	defer b.mu.Unlock()

	if writer, exists := b.writers[topic]; exists {
		return writer
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(b.config.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    b.config.BatchSize,
		BatchTimeout: b.config.BatchTimeout,
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  b.config.MaxRetries,
	}
	b.writers[topic] = writer
	return writer
}

// Publish writes a message to the subject's topic
func (b *KafkaBus) Publish(ctx context.Context, subject string, data []byte) error {
	writer := b.getOrCreateWriter(topicName(subject))
	if err := writer.WriteMessages(ctx, kafka.Message{Value: data}); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topicName(subject), err)
	}
	return nil
}

// Close closes all topic writers
func (b *KafkaBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var firstErr error
	for topic, writer := range b.writers {
		if err := writer.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close writer for topic %s: %w", topic, err)
		}
	}
	b.writers = make(map[string]*kafka.Writer)
	return firstErr
}
