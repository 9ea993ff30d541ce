// Package store provides the queryable, transactional persistence layer
// for deployments, nodes, telemetry samples, and audit events.
//
// Every mutating operation commits as one atomic unit. UpdateNode in
// particular persists the node and its audit event together or not at
// all, which is what makes the lifecycle scheduler's at-least-once
// re-evaluation safe.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nodeplane/nodeplane/internal/models"
)

// ErrNotFound is returned when an entity does not exist
var ErrNotFound = errors.New("entity not found")

// SampleFilter bounds a telemetry sample query
type SampleFilter struct {
	DeploymentUID string
	NodeUID       string    // optional: restrict to one node
	Since         time.Time // optional: inclusive lower bound
	Until         time.Time // optional: exclusive upper bound
	Limit         int       // optional: 0 means no limit
}

// Store is the entity persistence contract shared by all backends
type Store interface {
	// CreateDeployment atomically persists the deployment, its initial
	// nodes, and the creation event.
	CreateDeployment(ctx context.Context, dep *models.Deployment, nodes []*models.Node, event *models.Event) error
	GetDeployment(ctx context.Context, uid string) (*models.Deployment, error)
	// ListDeployments returns deployments newest-first.
	ListDeployments(ctx context.Context, offset, limit int) ([]*models.Deployment, error)
	CountDeployments(ctx context.Context) (int, error)
	// DeleteDeployment cascades to the deployment's nodes, samples, and events.
	DeleteDeployment(ctx context.Context, uid string) error

	GetNode(ctx context.Context, uid string) (*models.Node, error)
	ListNodesByDeployment(ctx context.Context, deploymentUID string) ([]*models.Node, error)
	// ListNodesInStates returns all nodes whose state is in states,
	// across deployments.
	ListNodesInStates(ctx context.Context, states ...models.NodeState) ([]*models.Node, error)
	// UpdateNode atomically persists the node and appends the audit
	// event. A nil event updates the node alone.
	UpdateNode(ctx context.Context, node *models.Node, event *models.Event) error

	InsertSample(ctx context.Context, sample *models.TelemetrySample) error
	// ListSamples returns samples matching the filter, newest-first.
	ListSamples(ctx context.Context, filter SampleFilter) ([]*models.TelemetrySample, error)

	AppendEvent(ctx context.Context, event *models.Event) error
	// ListEvents returns a deployment's events newest-first.
	ListEvents(ctx context.Context, deploymentUID string, limit int) ([]*models.Event, error)

	Ping(ctx context.Context) error
	Close() error
}
