package services

import (
	"context"

	"github.com/nodeplane/nodeplane/internal/logging"
	"github.com/nodeplane/nodeplane/internal/models"
	"github.com/nodeplane/nodeplane/internal/store"
)

// NodeService exposes read access to nodes. Node state is mutated
// exclusively by the lifecycle scheduler.
type NodeService struct {
	logger *logging.Logger
	store  store.Store
}

// NewNodeService creates a node service
func NewNodeService(logger *logging.Logger, st store.Store) *NodeService {
	return &NodeService{logger: logger, store: st}
}

// Get returns a node by UID
func (s *NodeService) Get(ctx context.Context, uid string) (*models.Node, error) {
	return s.store.GetNode(ctx, uid)
}

// ListByDeployment returns a deployment's nodes in creation order
func (s *NodeService) ListByDeployment(ctx context.Context, deploymentUID string) ([]*models.Node, error) {
	return s.store.ListNodesByDeployment(ctx, deploymentUID)
}
