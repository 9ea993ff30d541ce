package store

import (
	"fmt"
	"strings"

	"github.com/nodeplane/nodeplane/internal/config"
	"github.com/nodeplane/nodeplane/internal/logging"
)

// New creates a Store instance based on configuration.
// Default is the in-memory backend if no backend is specified.
func New(cfg config.StoreConfig, logger *logging.Logger) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return NewMemoryStore(logger), nil
	case "badger":
		return NewBadgerStore(cfg.DataDir, logger)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s (supported: memory, badger)", cfg.Backend)
	}
}
