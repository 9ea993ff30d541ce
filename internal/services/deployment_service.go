package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nodeplane/nodeplane/internal/bus"
	"github.com/nodeplane/nodeplane/internal/logging"
	"github.com/nodeplane/nodeplane/internal/models"
	"github.com/nodeplane/nodeplane/internal/store"
)

// DeploymentService manages deployments and their initial node sets
type DeploymentService struct {
	logger    *logging.Logger
	store     store.Store
	publisher bus.Publisher
}

// NewDeploymentService creates a deployment service. publisher may be
// nil to disable bus publishing.
func NewDeploymentService(logger *logging.Logger, st store.Store, publisher bus.Publisher) *DeploymentService {
	return &DeploymentService{logger: logger, store: st, publisher: publisher}
}

// Create persists a deployment together with its target count of
// PENDING nodes and the creation audit event, all in one commit.
// Nodes start with no network address; the lifecycle scheduler assigns
// one at the first transition.
func (s *DeploymentService) Create(ctx context.Context, req models.CreateDeploymentRequest) (*models.Deployment, error) {
	now := time.Now().UTC()
	dep := &models.Deployment{
		UID:             uuid.New().String(),
		Name:            req.Name,
		Description:     req.Description,
		TargetNodeCount: req.TargetNodeCount,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	shortUID := dep.UID[:8]
	nodes := make([]*models.Node, req.TargetNodeCount)
	for i := 0; i < req.TargetNodeCount; i++ {
		nodes[i] = &models.Node{
			UID:            uuid.New().String(),
			DeploymentUID:  dep.UID,
			NodeID:         fmt.Sprintf("node-%03d", i+1),
			Ordinal:        i + 1,
			State:          models.StatePending,
			Hostname:       fmt.Sprintf("switch-%s-%03d", shortUID, i+1),
			CreatedAt:      now,
			UpdatedAt:      now,
			StateChangedAt: now,
		}
	}

	event := &models.Event{
		UID:           uuid.New().String(),
		DeploymentUID: dep.UID,
		Type:          models.EventDeploymentCreated,
		Message:       fmt.Sprintf("Deployment %q created with %d nodes", dep.Name, req.TargetNodeCount),
		CreatedAt:     now,
	}

	if err := s.store.CreateDeployment(ctx, dep, nodes, event); err != nil {
		return nil, fmt.Errorf("failed to create deployment: %w", err)
	}

	s.logger.Info("Deployment created",
		"deployment_uid", dep.UID,
		"name", dep.Name,
		"target_node_count", req.TargetNodeCount)

	s.publishEvent(ctx, event)
	return dep, nil
}

// Get returns a deployment by UID
func (s *DeploymentService) Get(ctx context.Context, uid string) (*models.Deployment, error) {
	return s.store.GetDeployment(ctx, uid)
}

// List returns deployments newest-first
func (s *DeploymentService) List(ctx context.Context, offset, limit int) ([]*models.Deployment, error) {
	return s.store.ListDeployments(ctx, offset, limit)
}

// Count returns the total number of deployments
func (s *DeploymentService) Count(ctx context.Context) (int, error) {
	return s.store.CountDeployments(ctx)
}

// NodeCount returns the current number of nodes in a deployment
func (s *DeploymentService) NodeCount(ctx context.Context, uid string) (int, error) {
	nodes, err := s.store.ListNodesByDeployment(ctx, uid)
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

// Delete removes a deployment and everything it owns
func (s *DeploymentService) Delete(ctx context.Context, uid string) error {
	if err := s.store.DeleteDeployment(ctx, uid); err != nil {
		return err
	}
	s.logger.Info("Deployment deleted", "deployment_uid", uid)
	return nil
}

// ListEvents returns a deployment's audit events newest-first
func (s *DeploymentService) ListEvents(ctx context.Context, uid string, limit int) ([]*models.Event, error) {
	if _, err := s.store.GetDeployment(ctx, uid); err != nil {
		return nil, err
	}
	return s.store.ListEvents(ctx, uid, limit)
}

func (s *DeploymentService) publishEvent(ctx context.Context, event *models.Event) {
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
