package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nodeplane/nodeplane/internal/logging"
	"github.com/nodeplane/nodeplane/internal/models"
)

var testBase = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func testDeployment(uid string, createdAt time.Time) *models.Deployment {
	return &models.Deployment{
		UID:             uid,
		Name:            "deployment-" + uid,
		TargetNodeCount: 3,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
}

func testNodes(deploymentUID string, count int, createdAt time.Time) []*models.Node {
	nodes := make([]*models.Node, count)
	for i := 0; i < count; i++ {
		nodes[i] = &models.Node{
			UID:            fmt.Sprintf("%s-node-%d", deploymentUID, i+1),
			DeploymentUID:  deploymentUID,
			NodeID:         fmt.Sprintf("node-%03d", i+1),
			Ordinal:        i + 1,
			State:          models.StatePending,
			CreatedAt:      createdAt,
			UpdatedAt:      createdAt,
			StateChangedAt: createdAt,
		}
	}
	return nodes
}

func testEvent(uid, deploymentUID, nodeUID, eventType string, at time.Time) *models.Event {
	return &models.Event{
		UID:           uid,
		DeploymentUID: deploymentUID,
		NodeUID:       nodeUID,
		Type:          eventType,
		Message:       "test event " + uid,
		CreatedAt:     at,
	}
}

func testSample(uid, deploymentUID, nodeUID string, at time.Time, latency float64) *models.TelemetrySample {
	return &models.TelemetrySample{
		UID:            uid,
		NodeUID:        nodeUID,
		DeploymentUID:  deploymentUID,
		Timestamp:      at,
		LatencyMS:      latency,
		ThroughputGbps: 9.5,
		ErrorRate:      0.1,
	}
}

func seedDeployment(t *testing.T, s Store, uid string, nodeCount int, createdAt time.Time) {
	t.Helper()
	dep := testDeployment(uid, createdAt)
	nodes := testNodes(uid, nodeCount, createdAt)
	event := testEvent(uid+"-ev", uid, "", models.EventDeploymentCreated, createdAt)
	if err := s.CreateDeployment(context.Background(), dep, nodes, event); err != nil {
		t.Fatalf("CreateDeployment failed: %v", err)
	}
}

func TestMemoryStore_CreateAndGetDeployment(t *testing.T) {
	s := NewMemoryStore(logging.NewDevelopment())
	ctx := context.Background()
	seedDeployment(t, s, "dep1", 3, testBase)

	dep, err := s.GetDeployment(ctx, "dep1")
	if err != nil {
		t.Fatalf("GetDeployment failed: %v", err)
	}
	if dep.Name != "deployment-dep1" {
		t.Errorf("Expected name deployment-dep1, got %s", dep.Name)
	}

	nodes, err := s.ListNodesByDeployment(ctx, "dep1")
	if err != nil {
		t.Fatalf("ListNodesByDeployment failed: %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("Expected 3 nodes, got %d", len(nodes))
	}
	for i, node := range nodes {
		if node.Ordinal != i+1 {
			t.Errorf("Expected nodes in creation order, got ordinal %d at index %d", node.Ordinal, i)
		}
		if node.State != models.StatePending {
			t.Errorf("Expected PENDING, got %s", node.State)
		}
	}

	events, err := s.ListEvents(ctx, "dep1", 0)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) != 1 || events[0].Type != models.EventDeploymentCreated {
		t.Errorf("Expected one creation event, got %d events", len(events))
	}
}

func TestMemoryStore_GetDeployment_NotFound(t *testing.T) {
	s := NewMemoryStore(logging.NewDevelopment())

	if _, err := s.GetDeployment(context.Background(), "nope"); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetNode(context.Background(), "nope"); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound for node, got %v", err)
	}
	if _, err := s.ListNodesByDeployment(context.Background(), "nope"); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound for node list, got %v", err)
	}
}

func TestMemoryStore_ListDeployments_NewestFirst(t *testing.T) {
	s := NewMemoryStore(logging.NewDevelopment())
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		seedDeployment(t, s, fmt.Sprintf("dep%d", i+1), 1, testBase.Add(time.Duration(i)*time.Minute))
	}

	deps, err := s.ListDeployments(ctx, 0, 0)
	if err != nil {
		t.Fatalf("ListDeployments failed: %v", err)
	}
	if len(deps) != 5 {
		t.Fatalf("Expected 5 deployments, got %d", len(deps))
	}
	if deps[0].UID != "dep5" || deps[4].UID != "dep1" {
		t.Errorf("Expected newest-first order, got %s..%s", deps[0].UID, deps[4].UID)
	}

	page, err := s.ListDeployments(ctx, 1, 2)
	if err != nil {
		t.Fatalf("ListDeployments with paging failed: %v", err)
	}
	if len(page) != 2 || page[0].UID != "dep4" || page[1].UID != "dep3" {
		t.Errorf("Expected [dep4 dep3], got %v", []string{page[0].UID, page[1].UID})
	}

	count, err := s.CountDeployments(ctx)
	if err != nil || count != 5 {
		t.Errorf("Expected count 5, got %d (err %v)", count, err)
	}
}

func TestMemoryStore_DeleteDeployment_Cascades(t *testing.T) {
	s := NewMemoryStore(logging.NewDevelopment())
	ctx := context.Background()
	seedDeployment(t, s, "dep1", 2, testBase)
	seedDeployment(t, s, "dep2", 2, testBase.Add(time.Minute))

	if err := s.InsertSample(ctx, testSample("s1", "dep1", "dep1-node-1", testBase, 10)); err != nil {
		t.Fatalf("InsertSample failed: %v", err)
	}

	if err := s.DeleteDeployment(ctx, "dep1"); err != nil {
		t.Fatalf("DeleteDeployment failed: %v", err)
	}

	if _, err := s.GetDeployment(ctx, "dep1"); err != ErrNotFound {
		t.Errorf("Expected deployment gone, got %v", err)
	}
	if _, err := s.GetNode(ctx, "dep1-node-1"); err != ErrNotFound {
		t.Errorf("Expected nodes gone, got %v", err)
	}
	samples, err := s.ListSamples(ctx, SampleFilter{DeploymentUID: "dep1"})
	if err != nil || len(samples) != 0 {
		t.Errorf("Expected samples gone, got %d (err %v)", len(samples), err)
	}
	events, err := s.ListEvents(ctx, "dep1", 0)
	if err != nil || len(events) != 0 {
		t.Errorf("Expected events gone, got %d (err %v)", len(events), err)
	}

	// The other deployment survives intact
	if _, err := s.GetDeployment(ctx, "dep2"); err != nil {
		t.Errorf("Expected dep2 untouched, got %v", err)
	}
	nodes, _ := s.ListNodesByDeployment(ctx, "dep2")
	if len(nodes) != 2 {
		t.Errorf("Expected dep2 nodes untouched, got %d", len(nodes))
	}

	if err := s.DeleteDeployment(ctx, "dep1"); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound on double delete, got %v", err)
	}
}

func TestMemoryStore_UpdateNode_WithEvent(t *testing.T) {
	s := NewMemoryStore(logging.NewDevelopment())
	ctx := context.Background()
	seedDeployment(t, s, "dep1", 1, testBase)

	node, err := s.GetNode(ctx, "dep1-node-1")
	if err != nil {
		t.Fatalf("GetNode failed: %v", err)
	}
	node.State = models.StateProvisioning
	node.IPAddress = "10.1.0.1"
	node.StateChangedAt = testBase.Add(2 * time.Second)

	event := testEvent("ev2", "dep1", node.UID, models.EventStateChange, testBase.Add(2*time.Second))
	if err := s.UpdateNode(ctx, node, event); err != nil {
		t.Fatalf("UpdateNode failed: %v", err)
	}

	updated, err := s.GetNode(ctx, "dep1-node-1")
	if err != nil {
		t.Fatalf("GetNode after update failed: %v", err)
	}
	if updated.State != models.StateProvisioning || updated.IPAddress != "10.1.0.1" {
		t.Errorf("Update not persisted: state=%s ip=%s", updated.State, updated.IPAddress)
	}

	events, err := s.ListEvents(ctx, "dep1", 0)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events (create + transition), got %d", len(events))
	}
	// Newest first
	if events[0].UID != "ev2" {
		t.Errorf("Expected newest event first, got %s", events[0].UID)
	}
}

func TestMemoryStore_UpdateNode_NotFound(t *testing.T) {
	s := NewMemoryStore(logging.NewDevelopment())
	node := &models.Node{UID: "ghost", DeploymentUID: "dep1"}
	if err := s.UpdateNode(context.Background(), node, nil); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_ListNodesInStates(t *testing.T) {
	s := NewMemoryStore(logging.NewDevelopment())
	ctx := context.Background()
	seedDeployment(t, s, "dep1", 4, testBase)

	// Move node 2 to RUNNING and node 3 to FAILED
	for uid, state := range map[string]models.NodeState{
		"dep1-node-2": models.StateRunning,
		"dep1-node-3": models.StateFailed,
	} {
		node, _ := s.GetNode(ctx, uid)
		node.State = state
		if err := s.UpdateNode(ctx, node, nil); err != nil {
			t.Fatalf("UpdateNode failed: %v", err)
		}
	}

	inflight, err := s.ListNodesInStates(ctx, models.InFlightStates...)
	if err != nil {
		t.Fatalf("ListNodesInStates failed: %v", err)
	}
	if len(inflight) != 2 {
		t.Fatalf("Expected 2 in-flight nodes, got %d", len(inflight))
	}
	// Sorted by (deployment, ordinal) for stable cycles
	if inflight[0].Ordinal != 1 || inflight[1].Ordinal != 4 {
		t.Errorf("Expected ordinals [1 4], got [%d %d]", inflight[0].Ordinal, inflight[1].Ordinal)
	}

	running, err := s.ListNodesInStates(ctx, models.StateRunning)
	if err != nil || len(running) != 1 || running[0].UID != "dep1-node-2" {
		t.Errorf("Expected exactly dep1-node-2 running, got %d nodes (err %v)", len(running), err)
	}
}

func TestMemoryStore_ListSamples_Filters(t *testing.T) {
	s := NewMemoryStore(logging.NewDevelopment())
	ctx := context.Background()
	seedDeployment(t, s, "dep1", 2, testBase)

	for i := 0; i < 10; i++ {
		nodeUID := "dep1-node-1"
		if i%2 == 1 {
			nodeUID = "dep1-node-2"
		}
		sample := testSample(fmt.Sprintf("s%d", i), "dep1", nodeUID, testBase.Add(time.Duration(i)*time.Minute), 10)
		if err := s.InsertSample(ctx, sample); err != nil {
			t.Fatalf("InsertSample failed: %v", err)
		}
	}

	all, err := s.ListSamples(ctx, SampleFilter{DeploymentUID: "dep1"})
	if err != nil {
		t.Fatalf("ListSamples failed: %v", err)
	}
	if len(all) != 10 {
		t.Fatalf("Expected 10 samples, got %d", len(all))
	}
	if all[0].UID != "s9" || all[9].UID != "s0" {
		t.Errorf("Expected newest-first, got %s..%s", all[0].UID, all[9].UID)
	}

	byNode, _ := s.ListSamples(ctx, SampleFilter{DeploymentUID: "dep1", NodeUID: "dep1-node-2"})
	if len(byNode) != 5 {
		t.Errorf("Expected 5 samples for node 2, got %d", len(byNode))
	}

	// Since is inclusive, Until is exclusive
	windowed, _ := s.ListSamples(ctx, SampleFilter{
		DeploymentUID: "dep1",
		Since:         testBase.Add(3 * time.Minute),
		Until:         testBase.Add(7 * time.Minute),
	})
	if len(windowed) != 4 {
		t.Errorf("Expected 4 samples in [3m,7m), got %d", len(windowed))
	}

	limited, _ := s.ListSamples(ctx, SampleFilter{DeploymentUID: "dep1", Limit: 3})
	if len(limited) != 3 || limited[0].UID != "s9" {
		t.Errorf("Expected 3 newest samples, got %d starting at %s", len(limited), limited[0].UID)
	}
}

func TestMemoryStore_CloneIsolation(t *testing.T) {
	s := NewMemoryStore(logging.NewDevelopment())
	ctx := context.Background()
	seedDeployment(t, s, "dep1", 1, testBase)

	node, _ := s.GetNode(ctx, "dep1-node-1")
	node.State = models.StateFailed // mutate the returned copy only

	fresh, _ := s.GetNode(ctx, "dep1-node-1")
	if fresh.State != models.StatePending {
		t.Errorf("Store state leaked through returned pointer: %s", fresh.State)
	}
}

func TestMemoryStore_Ping(t *testing.T) {
	s := NewMemoryStore(logging.NewDevelopment())
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Expected healthy ping, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Ping(ctx); err == nil {
		t.Error("Expected error on cancelled context")
	}
}
