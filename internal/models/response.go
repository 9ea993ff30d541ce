package models

import "time"

// DeploymentResponse represents a deployment in API responses
type DeploymentResponse struct {
	UID             string `json:"uid"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	TargetNodeCount int    `json:"target_node_count"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// DeploymentDetailResponse adds the live node count
type DeploymentDetailResponse struct {
	DeploymentResponse
	CurrentNodeCount int `json:"current_node_count"`
}

// DeploymentListResponse represents list deployments response
type DeploymentListResponse struct {
	Deployments []DeploymentResponse `json:"deployments"`
	Total       int                  `json:"total"`
}

// NodeResponse represents a node in API responses
type NodeResponse struct {
	UID            string `json:"uid"`
	NodeID         string `json:"node_id"`
	State          string `json:"state"`
	Hostname       string `json:"hostname,omitempty"`
	IPAddress      string `json:"ip_address,omitempty"`
	CreatedAt      string `json:"created_at"`
	StateChangedAt string `json:"state_changed_at"`
}

// NodeListResponse represents list nodes response
type NodeListResponse struct {
	Nodes []NodeResponse `json:"nodes"`
	Total int            `json:"total"`
}

// TelemetrySampleResponse represents a telemetry sample in API responses
type TelemetrySampleResponse struct {
	UID            string  `json:"uid"`
	NodeUID        string  `json:"node_uid"`
	Timestamp      string  `json:"timestamp"`
	LatencyMS      float64 `json:"latency_ms"`
	ThroughputGbps float64 `json:"throughput_gbps"`
	ErrorRate      float64 `json:"error_rate"`
}

// TelemetryListResponse represents list telemetry response
type TelemetryListResponse struct {
	Samples []TelemetrySampleResponse `json:"samples"`
	Total   int                       `json:"total"`
}

// BottleneckNode represents one flagged node in a bottleneck analysis
type BottleneckNode struct {
	NodeUID        string    `json:"node_uid"`
	NodeID         string    `json:"node_id"`
	LatencyMS      float64   `json:"latency_ms"`
	ThroughputGbps float64   `json:"throughput_gbps"`
	ErrorRate      float64   `json:"error_rate"`
	DeviationScore float64   `json:"deviation_score"`
	Timestamp      time.Time `json:"timestamp"`
}

// BottleneckResponse represents bottleneck analysis response
type BottleneckResponse struct {
	DeploymentUID    string           `json:"deployment_uid"`
	DetectedAt       time.Time        `json:"detected_at"`
	Bottlenecks      []BottleneckNode `json:"bottlenecks"`
	TotalBottlenecks int              `json:"total_bottlenecks"`
	WindowMinutes    int              `json:"window_minutes"`
}

// EventResponse represents an audit event in API responses
type EventResponse struct {
	UID       string `json:"uid"`
	NodeUID   string `json:"node_uid,omitempty"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

// EventListResponse represents list events response
type EventListResponse struct {
	Events []EventResponse `json:"events"`
	Total  int             `json:"total"`
}

// WorkerStatus reports liveness of the background workers
type WorkerStatus struct {
	Lifecycle bool `json:"lifecycle"`
	Telemetry bool `json:"telemetry"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status            string       `json:"status"`
	Timestamp         string       `json:"timestamp"`
	Store             string       `json:"store"`
	Workers           WorkerStatus `json:"workers"`
	ActiveDeployments int          `json:"active_deployments"`
	Version           string       `json:"version"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
