package bus

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NATSBus implements Publisher on NATS JetStream
type NATSBus struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// newNATSBus connects to NATS and creates a JetStream context
func newNATSBus(url string) (*NATSBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &NATSBus{conn: conn, js: js}, nil
}

// Publish publishes a message to a subject using JetStream
func (b *NATSBus) Publish(ctx context.Context, subject string, data []byte) error {
	if _, err := b.js.PublishAsync(subject, data); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	return nil
}

// Close drains and closes the connection
func (b *NATSBus) Close() error {
	b.conn.Close()
	return nil
}
