// Package bus publishes orchestrator facts (audit events, telemetry
// samples) to an external message bus. Publishing is best-effort: a
// bus failure is logged by the caller and never blocks a store commit.
package bus

import "context"

// Subjects published by the orchestrator
const (
	SubjectEvents    = "nodeplane.events"
	SubjectTelemetry = "nodeplane.telemetry"
)

// Publisher publishes messages to a subject/topic
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close() error
}
