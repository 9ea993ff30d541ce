package models

import "time"

// NodeState represents a node's position in the lifecycle state machine:
//
//	PENDING -> PROVISIONING -> CONFIGURING -> RUNNING or FAILED
//
// RUNNING and FAILED are terminal.
type NodeState string

const (
	StatePending      NodeState = "PENDING"
	StateProvisioning NodeState = "PROVISIONING"
	StateConfiguring  NodeState = "CONFIGURING"
	StateRunning      NodeState = "RUNNING"
	StateFailed       NodeState = "FAILED"
)

// Valid reports whether s is one of the defined lifecycle states
func (s NodeState) Valid() bool {
	switch s {
	case StatePending, StateProvisioning, StateConfiguring, StateRunning, StateFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition leaves s
func (s NodeState) Terminal() bool {
	return s == StateRunning || s == StateFailed
}

// InFlightStates are the states the lifecycle scheduler polls for.
// Terminal-state nodes are never re-fetched.
var InFlightStates = []NodeState{StatePending, StateProvisioning, StateConfiguring}

// Deployment is a named collection of nodes. It owns its nodes and
// events; deleting a deployment cascades to both.
type Deployment struct {
	UID             string    `json:"uid"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	TargetNodeCount int       `json:"target_node_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Node is a single simulated network device in a deployment.
// NodeID is the human-facing name ("node-001"), unique within the
// deployment; Ordinal is its 1-based position, set at creation.
type Node struct {
	UID            string    `json:"uid"`
	DeploymentUID  string    `json:"deployment_uid"`
	NodeID         string    `json:"node_id"`
	Ordinal        int       `json:"ordinal"`
	State          NodeState `json:"state"`
	Hostname       string    `json:"hostname,omitempty"`
	IPAddress      string    `json:"ip_address,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	StateChangedAt time.Time `json:"state_changed_at"`
}

// TelemetrySample is an immutable, append-only metric fact.
// DeploymentUID is denormalized so window queries don't need a join
// through the node.
type TelemetrySample struct {
	UID            string    `json:"uid"`
	NodeUID        string    `json:"node_uid"`
	DeploymentUID  string    `json:"deployment_uid"`
	Timestamp      time.Time `json:"timestamp"`
	LatencyMS      float64   `json:"latency_ms"`
	ThroughputGbps float64   `json:"throughput_gbps"`
	ErrorRate      float64   `json:"error_rate"`
}

// Event types written by the orchestrator
const (
	EventDeploymentCreated = "DEPLOYMENT_CREATED"
	EventStateChange       = "STATE_CHANGE"
)

// Event is an immutable audit record, appended whenever a node
// transitions state or a deployment is created.
type Event struct {
	UID           string            `json:"uid"`
	DeploymentUID string            `json:"deployment_uid,omitempty"`
	NodeUID       string            `json:"node_uid,omitempty"`
	Type          string            `json:"type"`
	Message       string            `json:"message"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}
