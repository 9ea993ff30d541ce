package bus

import (
	"fmt"
	"strings"

	"github.com/nodeplane/nodeplane/internal/config"
)

// New creates a Publisher instance based on configuration.
// Default is the in-memory bus if type is not specified.
func New(cfg config.BusConfig) (Publisher, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "memory":
		return NewMemoryBus(), nil

	case "nats":
		return newNATSBus(cfg.URL)

	case "redis":
		return newRedisBus(RedisConfig{
			URL:      cfg.URL,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
			Stream:   cfg.RedisStream,
		})

	case "kafka":
		return newKafkaBus(KafkaConfig{
			Brokers: cfg.KafkaBrokers,
		})

	default:
		return nil, fmt.Errorf("unsupported bus type: %s (supported: memory, nats, redis, kafka)", cfg.Type)
	}
}
