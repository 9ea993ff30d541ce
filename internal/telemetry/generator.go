// Package telemetry synthesizes per-node metric samples for every
// RUNNING node at a fixed cadence. Samples are noisy but bounded, and
// reproducible given the same node identity and wall-clock second.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nodeplane/nodeplane/internal/bus"
	"github.com/nodeplane/nodeplane/internal/config"
	"github.com/nodeplane/nodeplane/internal/logging"
	"github.com/nodeplane/nodeplane/internal/models"
	"github.com/nodeplane/nodeplane/internal/store"
)

// Generator persists one synthesized sample per running node per cycle
type Generator struct {
	config    config.TelemetryConfig
	store     store.Store
	publisher bus.Publisher
	logger    *logging.Logger

	now func() time.Time // swapped in tests

	alive  atomic.Bool
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewGenerator creates a telemetry generator. publisher may be nil to
// disable bus publishing.
func NewGenerator(cfg config.TelemetryConfig, st store.Store, publisher bus.Publisher, logger *logging.Logger) *Generator {
	return &Generator{
		config:    cfg,
		store:     st,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start starts the polling loop
func (g *Generator) Start(ctx context.Context) {
	g.logger.Info("Starting telemetry generator",
		"collect_interval", g.config.CollectInterval,
		"backoff_interval", g.config.BackoffInterval)

	g.alive.Store(true)
	g.wg.Add(1)
	go g.run(ctx)
}

// Stop signals the loop to stop and waits for the in-flight cycle to drain
func (g *Generator) Stop() {
	close(g.stopCh)
	g.wg.Wait()
	g.logger.Info("Telemetry generator stopped")
}

// Alive reports whether the polling loop is running
func (g *Generator) Alive() bool {
	return g.alive.Load()
}

func (g *Generator) run(ctx context.Context) {
	defer g.wg.Done()
	defer g.alive.Store(false)

	timer := time.NewTimer(g.config.CollectInterval)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			delay := g.config.CollectInterval
			if err := g.runCycle(ctx); err != nil {
				g.logger.Error("Telemetry cycle failed", "error", err)
				delay = g.config.BackoffInterval
			}
			timer.Reset(delay)
		case <-g.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// runCycle synthesizes and persists one sample per RUNNING node.
// Per-node errors are logged and do not abort the rest of the list.
func (g *Generator) runCycle(ctx context.Context) error {
	nodes, err := g.store.ListNodesInStates(ctx, models.StateRunning)
	if err != nil {
		return fmt.Errorf("failed to list running nodes: %w", err)
	}

	now := g.now()
	for _, node := range nodes {
		sample := Synthesize(node, now)
		if err := g.store.InsertSample(ctx, sample); err != nil {
			g.logger.Error("Failed to persist sample",
				"node_id", node.NodeID,
				"deployment_uid", node.DeploymentUID,
				"error", err)
			continue
		}
		g.publishSample(ctx, sample)
	}
	return nil
}

// publishSample mirrors the sample onto the bus; failures are logged
// and swallowed since the store commit already landed
func (g *Generator) publishSample(ctx context.Context, sample *models.TelemetrySample) {
	if g.publisher == nil {
		return
	}
	data, err := json.Marshal(sample)
	if err != nil {
		g.logger.Warn("Failed to marshal sample for bus", "error", err)
		return
	}
	if err := g.publisher.Publish(ctx, bus.SubjectTelemetry, data); err != nil {
		g.logger.Warn("Failed to publish sample", "error", err, "node_uid", sample.NodeUID)
	}
}
