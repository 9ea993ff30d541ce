package store

import (
	"context"
	"sort"
	"sync"

	"github.com/nodeplane/nodeplane/internal/logging"
	"github.com/nodeplane/nodeplane/internal/models"
)

// MemoryStore is an in-memory Store implementation guarded by a single
// RWMutex. It is the default backend and the one tests run against.
// Entities are copied on the way in and out so callers can never alias
// store-owned state.
type MemoryStore struct {
	mu     sync.RWMutex
	logger *logging.Logger

	deployments map[string]*models.Deployment
	depOrder    []string // creation order, oldest first
	nodes       map[string]*models.Node
	depNodes    map[string][]string                   // deployment UID -> node UIDs, creation order
	samples     map[string][]*models.TelemetrySample  // deployment UID -> samples, insert order
	events      map[string][]*models.Event            // deployment UID -> events, insert order
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(logger *logging.Logger) *MemoryStore {
	return &MemoryStore{
		logger:      logger,
		deployments: make(map[string]*models.Deployment),
		nodes:       make(map[string]*models.Node),
		depNodes:    make(map[string][]string),
		samples:     make(map[string][]*models.TelemetrySample),
		events:      make(map[string][]*models.Event),
	}
}

func cloneDeployment(d *models.Deployment) *models.Deployment {
	c := *d
	return &c
}

func cloneNode(n *models.Node) *models.Node {
	c := *n
	return &c
}

func cloneSample(s *models.TelemetrySample) *models.TelemetrySample {
	c := *s
	return &c
}

func cloneEvent(e *models.Event) *models.Event {
	c := *e
	if e.Metadata != nil {
		c.Metadata = make(map[string]string, len(e.Metadata))
		for k, v := range e.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// CreateDeployment atomically persists the deployment, its nodes, and
// the creation event
func (s *MemoryStore) CreateDeployment(ctx context.Context, dep *models.Deployment, nodes []*models.Node, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deployments[dep.UID] = cloneDeployment(dep)
	s.depOrder = append(s.depOrder, dep.UID)
	for _, n := range nodes {
		s.nodes[n.UID] = cloneNode(n)
		s.depNodes[dep.UID] = append(s.depNodes[dep.UID], n.UID)
	}
	if event != nil {
		s.events[dep.UID] = append(s.events[dep.UID], cloneEvent(event))
	}
	return nil
}

// GetDeployment returns the deployment with the given UID
func (s *MemoryStore) GetDeployment(ctx context.Context, uid string) (*models.Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dep, ok := s.deployments[uid]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDeployment(dep), nil
}

// ListDeployments returns deployments newest-first
func (s *MemoryStore) ListDeployments(ctx context.Context, offset, limit int) ([]*models.Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Deployment, 0)
	for i := len(s.depOrder) - 1 - offset; i >= 0; i-- {
		if limit > 0 && len(result) >= limit {
			break
		}
		if dep, ok := s.deployments[s.depOrder[i]]; ok {
			result = append(result, cloneDeployment(dep))
		}
	}
	return result, nil
}

// CountDeployments returns the number of deployments
func (s *MemoryStore) CountDeployments(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.deployments), nil
}

// DeleteDeployment removes the deployment and everything it owns
func (s *MemoryStore) DeleteDeployment(ctx context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.deployments[uid]; !ok {
		return ErrNotFound
	}

	delete(s.deployments, uid)
	for i, id := range s.depOrder {
		if id == uid {
			s.depOrder = append(s.depOrder[:i], s.depOrder[i+1:]...)
			break
		}
	}
	for _, nodeUID := range s.depNodes[uid] {
		delete(s.nodes, nodeUID)
	}
	delete(s.depNodes, uid)
	delete(s.samples, uid)
	delete(s.events, uid)
	return nil
}

// GetNode returns the node with the given UID
func (s *MemoryStore) GetNode(ctx context.Context, uid string) (*models.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[uid]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneNode(node), nil
}

// ListNodesByDeployment returns a deployment's nodes in creation order
func (s *MemoryStore) ListNodesByDeployment(ctx context.Context, deploymentUID string) ([]*models.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.deployments[deploymentUID]; !ok {
		return nil, ErrNotFound
	}

	uids := s.depNodes[deploymentUID]
	result := make([]*models.Node, 0, len(uids))
	for _, uid := range uids {
		if node, ok := s.nodes[uid]; ok {
			result = append(result, cloneNode(node))
		}
	}
	return result, nil
}

// ListNodesInStates returns all nodes in any of the given states
func (s *MemoryStore) ListNodesInStates(ctx context.Context, states ...models.NodeState) ([]*models.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[models.NodeState]bool, len(states))
	for _, st := range states {
		wanted[st] = true
	}

	result := make([]*models.Node, 0)
	for _, node := range s.nodes {
		if wanted[node.State] {
			result = append(result, cloneNode(node))
		}
	}
	// Map iteration order is random; sort for stable cycles
	sort.Slice(result, func(i, j int) bool {
		if result[i].DeploymentUID != result[j].DeploymentUID {
			return result[i].DeploymentUID < result[j].DeploymentUID
		}
		return result[i].Ordinal < result[j].Ordinal
	})
	return result, nil
}

// UpdateNode atomically persists the node and appends the audit event
func (s *MemoryStore) UpdateNode(ctx context.Context, node *models.Node, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[node.UID]; !ok {
		return ErrNotFound
	}
	s.nodes[node.UID] = cloneNode(node)
	if event != nil {
		s.events[node.DeploymentUID] = append(s.events[node.DeploymentUID], cloneEvent(event))
	}
	return nil
}

// InsertSample appends one telemetry sample
func (s *MemoryStore) InsertSample(ctx context.Context, sample *models.TelemetrySample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.samples[sample.DeploymentUID] = append(s.samples[sample.DeploymentUID], cloneSample(sample))
	return nil
}

// ListSamples returns samples matching the filter, newest-first
func (s *MemoryStore) ListSamples(ctx context.Context, filter SampleFilter) ([]*models.TelemetrySample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.samples[filter.DeploymentUID]
	result := make([]*models.TelemetrySample, 0)
	for i := len(all) - 1; i >= 0; i-- {
		sample := all[i]
		if filter.NodeUID != "" && sample.NodeUID != filter.NodeUID {
			continue
		}
		if !filter.Since.IsZero() && sample.Timestamp.Before(filter.Since) {
			continue
		}
		if !filter.Until.IsZero() && !sample.Timestamp.Before(filter.Until) {
			continue
		}
		result = append(result, cloneSample(sample))
		if filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	return result, nil
}

// AppendEvent appends one audit event
func (s *MemoryStore) AppendEvent(ctx context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[event.DeploymentUID] = append(s.events[event.DeploymentUID], cloneEvent(event))
	return nil
}

// ListEvents returns a deployment's events newest-first
func (s *MemoryStore) ListEvents(ctx context.Context, deploymentUID string, limit int) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.events[deploymentUID]
	result := make([]*models.Event, 0)
	for i := len(all) - 1; i >= 0; i-- {
		if limit > 0 && len(result) >= limit {
			break
		}
		result = append(result, cloneEvent(all[i]))
	}
	return result, nil
}

// Ping reports store availability
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close releases store resources
func (s *MemoryStore) Close() error {
	return nil
}
