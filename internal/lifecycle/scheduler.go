// Package lifecycle drives provisioned nodes through their state
// machine:
//
//	PENDING -> PROVISIONING -> CONFIGURING -> RUNNING or FAILED
//
// The scheduler polls the store for in-flight nodes at a fixed cadence
// and applies at most one transition per node per cycle. Transition
// timing and the configuration outcome are deterministic functions of
// node identity (see timing.go), never of a stateful random source.
package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nodeplane/nodeplane/internal/bus"
	"github.com/nodeplane/nodeplane/internal/config"
	"github.com/nodeplane/nodeplane/internal/logging"
	"github.com/nodeplane/nodeplane/internal/models"
	"github.com/nodeplane/nodeplane/internal/store"
)

// Scheduler advances nodes through the lifecycle state machine
type Scheduler struct {
	config    config.LifecycleConfig
	store     store.Store
	publisher bus.Publisher
	logger    *logging.Logger

	now func() time.Time // swapped in tests

	alive  atomic.Bool
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewScheduler creates a lifecycle scheduler. publisher may be nil to
// disable bus publishing.
func NewScheduler(cfg config.LifecycleConfig, st store.Store, publisher bus.Publisher, logger *logging.Logger) *Scheduler {
	return &Scheduler{
		config:    cfg,
		store:     st,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start starts the polling loop
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting lifecycle scheduler",
		"poll_interval", s.config.PollInterval,
		"backoff_interval", s.config.BackoffInterval)

	s.alive.Store(true)
	s.wg.Add(1)
	go s.run(ctx)
}

// Stop signals the loop to stop and waits for the in-flight cycle to drain
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("Lifecycle scheduler stopped")
}

// Alive reports whether the polling loop is running
func (s *Scheduler) Alive() bool {
	return s.alive.Load()
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()
	defer s.alive.Store(false)

	timer := time.NewTimer(s.config.PollInterval)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			delay := s.config.PollInterval
			if err := s.runCycle(ctx); err != nil {
				// Cycle-level errors never escape the loop; back off and retry
				s.logger.Error("Lifecycle cycle failed", "error", err)
				delay = s.config.BackoffInterval
			}
			timer.Reset(delay)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// runCycle fetches every in-flight node and evaluates it once.
// Per-node errors are logged and do not abort the rest of the list.
func (s *Scheduler) runCycle(ctx context.Context) error {
	nodes, err := s.store.ListNodesInStates(ctx, models.InFlightStates...)
	if err != nil {
		return fmt.Errorf("failed to list in-flight nodes: %w", err)
	}

	for _, node := range nodes {
		if err := s.evaluate(ctx, node); err != nil {
			s.logger.Error("Failed to transition node",
				"node_id", node.NodeID,
				"deployment_uid", node.DeploymentUID,
				"state", string(node.State),
				"error", err)
		}
	}
	return nil
}

// evaluate applies at most one transition to the node
func (s *Scheduler) evaluate(ctx context.Context, node *models.Node) error {
	now := s.now()
	elapsed := now.Sub(node.StateChangedAt)

	switch node.State {
	case models.StatePending:
		// Provisioning starts the first cycle a PENDING node is seen;
		// the address is assigned exactly once, here
		node.IPAddress = AssignAddress(node.DeploymentUID, node.Ordinal)
		return s.transition(ctx, node, models.StateProvisioning, now,
			fmt.Sprintf("Starting provisioning for %s", node.NodeID))

	case models.StateProvisioning:
		if elapsed < ProvisioningDuration(node.UID) {
			return nil
		}
		return s.transition(ctx, node, models.StateConfiguring, now,
			fmt.Sprintf("Provisioned, starting configuration for %s", node.NodeID))

	case models.StateConfiguring:
		if elapsed < ConfiguringDuration(node.UID) {
			return nil
		}
		if FailsConfiguration(node.DeploymentUID, node.UID) {
			return s.transition(ctx, node, models.StateFailed, now,
				fmt.Sprintf("Configuration failed for %s", node.NodeID))
		}
		return s.transition(ctx, node, models.StateRunning, now,
			fmt.Sprintf("Node %s is now running", node.NodeID))

	default:
		// Terminal states are never fetched; nothing to do
		return nil
	}
}

// transition commits the state change, its timestamps, and the audit
// event as one atomic store update, then publishes the event
// best-effort.
func (s *Scheduler) transition(ctx context.Context, node *models.Node, newState models.NodeState, now time.Time, message string) error {
	oldState := node.State
	node.State = newState
	node.StateChangedAt = now
	node.UpdatedAt = now

	event := &models.Event{
		UID:           uuid.New().String(),
		DeploymentUID: node.DeploymentUID,
		NodeUID:       node.UID,
		Type:          models.EventStateChange,
		Message:       message,
		Metadata: map[string]string{
			"node_id":   node.NodeID,
			"old_state": string(oldState),
			"new_state": string(newState),
		},
		CreatedAt: now,
	}

	if err := s.store.UpdateNode(ctx, node, event); err != nil {
		return fmt.Errorf("failed to commit transition %s -> %s: %w", oldState, newState, err)
	}

	s.logger.Debug("Node transitioned",
		"node_id", node.NodeID,
		"old_state", string(oldState),
		"new_state", string(newState))

	s.publishEvent(ctx, event)
	return nil
}

// publishEvent mirrors the audit event onto the bus; failures are
// logged and swallowed since the store commit already landed
func (s *Scheduler) publishEvent(ctx context.Context, event *models.Event) {
	if s.publisher == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("Failed to marshal event for bus", "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, bus.SubjectEvents, data); err != nil {
		s.logger.Warn("Failed to publish event", "error", err, "event_type", event.Type)
	}
}
