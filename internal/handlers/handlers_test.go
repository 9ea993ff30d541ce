package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeplane/nodeplane/internal/config"
	"github.com/nodeplane/nodeplane/internal/logging"
	"github.com/nodeplane/nodeplane/internal/models"
	"github.com/nodeplane/nodeplane/internal/store"
)

func setupTestApp(alive bool) (*fiber.App, store.Store) {
	logger := logging.NewDevelopment()
	st := store.NewMemoryStore(logger)

	aliveFunc := func() bool { return alive }
	h := New(logger, st, nil, config.AnalyticsConfig{WindowMinutes: 10, DeviationThreshold: 2.0}, aliveFunc, aliveFunc)

	app := fiber.New()
	app.Get("/health", h.Health)
	app.Post("/v1/deployments", h.CreateDeployment)
	app.Get("/v1/deployments", h.ListDeployments)
	app.Get("/v1/deployments/:uid", h.GetDeployment)
	app.Delete("/v1/deployments/:uid", h.DeleteDeployment)
	app.Get("/v1/deployments/:uid/nodes", h.GetDeploymentNodes)
	app.Get("/v1/deployments/:uid/telemetry", h.GetDeploymentTelemetry)
	app.Get("/v1/deployments/:uid/events", h.GetDeploymentEvents)
	app.Get("/v1/deployments/:uid/bottlenecks", h.GetDeploymentBottlenecks)
	return app, st
}

func createTestDeployment(t *testing.T, app *fiber.App, name string, nodeCount int) models.DeploymentResponse {
	t.Helper()
	body, _ := json.Marshal(map[string]interface{}{
		"name":              name,
		"target_node_count": nodeCount,
	})
	req := httptest.NewRequest("POST", "/v1/deployments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var dep models.DeploymentResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&dep))
	return dep
}

func TestHealth_Healthy(t *testing.T) {
	app, _ := setupTestApp(true)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var health models.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Store)
	assert.True(t, health.Workers.Lifecycle)
	assert.True(t, health.Workers.Telemetry)
}

func TestHealth_DegradedWhenWorkersDown(t *testing.T) {
	app, _ := setupTestApp(false)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var health models.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "degraded", health.Status)
	assert.False(t, health.Workers.Lifecycle)
}

func TestCreateDeployment(t *testing.T) {
	app, _ := setupTestApp(true)

	dep := createTestDeployment(t, app, "edge-rollout", 4)
	assert.NotEmpty(t, dep.UID)
	assert.Equal(t, "edge-rollout", dep.Name)
	assert.Equal(t, 4, dep.TargetNodeCount)

	// All nodes start PENDING with no address
	resp, err := app.Test(httptest.NewRequest("GET", "/v1/deployments/"+dep.UID+"/nodes", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var nodes models.NodeListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&nodes))
	require.Equal(t, 4, nodes.Total)
	for _, node := range nodes.Nodes {
		assert.Equal(t, "PENDING", node.State)
		assert.Empty(t, node.IPAddress)
	}
}

func TestCreateDeployment_Validation(t *testing.T) {
	app, _ := setupTestApp(true)

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"target_node_count": 3}`},
		{"zero node count", `{"name": "x", "target_node_count": 0}`},
		{"node count too large", `{"name": "x", "target_node_count": 5000}`},
		{"malformed json", `{"name": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/v1/deployments", bytes.NewReader([]byte(tt.body)))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestGetDeployment(t *testing.T) {
	app, _ := setupTestApp(true)
	dep := createTestDeployment(t, app, "lookup", 2)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/deployments/"+dep.UID, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var detail models.DeploymentDetailResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
	assert.Equal(t, dep.UID, detail.UID)
	assert.Equal(t, 2, detail.CurrentNodeCount)
}

func TestGetDeployment_NotFound(t *testing.T) {
	app, _ := setupTestApp(true)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/deployments/does-not-exist", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "NOT_FOUND")
}

func TestListDeployments(t *testing.T) {
	app, _ := setupTestApp(true)
	for i := 0; i < 3; i++ {
		createTestDeployment(t, app, fmt.Sprintf("dep-%d", i), 1)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/deployments", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var list models.DeploymentListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Equal(t, 3, list.Total)
	assert.Equal(t, "dep-2", list.Deployments[0].Name, "newest first")

	paged, err := app.Test(httptest.NewRequest("GET", "/v1/deployments?skip=1&limit=1", nil))
	require.NoError(t, err)
	var page models.DeploymentListResponse
	require.NoError(t, json.NewDecoder(paged.Body).Decode(&page))
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "dep-1", page.Deployments[0].Name)
}

func TestDeleteDeployment(t *testing.T) {
	app, _ := setupTestApp(true)
	dep := createTestDeployment(t, app, "doomed", 1)

	resp, err := app.Test(httptest.NewRequest("DELETE", "/v1/deployments/"+dep.UID, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/v1/deployments/"+dep.UID, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("DELETE", "/v1/deployments/"+dep.UID, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGetDeploymentEvents(t *testing.T) {
	app, _ := setupTestApp(true)
	dep := createTestDeployment(t, app, "audited", 2)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/deployments/"+dep.UID+"/events", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var events models.EventListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	require.Equal(t, 1, events.Total)
	assert.Equal(t, models.EventDeploymentCreated, events.Events[0].Type)
}

func TestGetDeploymentTelemetry(t *testing.T) {
	app, st := setupTestApp(true)
	dep := createTestDeployment(t, app, "metered", 1)

	nodes, err := st.ListNodesByDeployment(context.Background(), dep.UID)
	require.NoError(t, err)
	sample := &models.TelemetrySample{
		UID: "s1", NodeUID: nodes[0].UID, DeploymentUID: dep.UID,
		Timestamp: time.Now().UTC(), LatencyMS: 12.5, ThroughputGbps: 9.1, ErrorRate: 0.2,
	}
	require.NoError(t, st.InsertSample(context.Background(), sample))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/deployments/"+dep.UID+"/telemetry", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var list models.TelemetryListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, 12.5, list.Samples[0].LatencyMS)
}

func TestGetDeploymentTelemetry_InvalidStart(t *testing.T) {
	app, _ := setupTestApp(true)
	dep := createTestDeployment(t, app, "metered", 1)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/deployments/"+dep.UID+"/telemetry?start=yesterday", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "RFC3339")
}

func TestGetDeploymentBottlenecks_Empty(t *testing.T) {
	app, _ := setupTestApp(true)
	dep := createTestDeployment(t, app, "analyzed", 2)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/deployments/"+dep.UID+"/bottlenecks", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result models.BottleneckResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, dep.UID, result.DeploymentUID)
	assert.Equal(t, 0, result.TotalBottlenecks)
	assert.Equal(t, 10, result.WindowMinutes, "config default window applies")
}

func TestGetDeploymentBottlenecks_NotFound(t *testing.T) {
	app, _ := setupTestApp(true)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/deployments/nope/bottlenecks", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGetDeploymentBottlenecks_WindowValidation(t *testing.T) {
	app, _ := setupTestApp(true)
	dep := createTestDeployment(t, app, "analyzed", 1)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/deployments/"+dep.UID+"/bottlenecks?window_minutes=500", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
