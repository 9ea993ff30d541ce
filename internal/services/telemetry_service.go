package services

import (
	"context"
	"fmt"
	"time"

	"github.com/nodeplane/nodeplane/internal/logging"
	"github.com/nodeplane/nodeplane/internal/models"
	"github.com/nodeplane/nodeplane/internal/store"
)

const defaultTelemetryLimit = 100

// TelemetryService exposes read access to telemetry samples. Samples
// are written exclusively by the telemetry generator (or directly by
// tests).
type TelemetryService struct {
	logger *logging.Logger
	store  store.Store
}

// NewTelemetryService creates a telemetry service
func NewTelemetryService(logger *logging.Logger, st store.Store) *TelemetryService {
	return &TelemetryService{logger: logger, store: st}
}

// List returns a deployment's samples newest-first, honoring the
// query's node, time range, and limit filters
func (s *TelemetryService) List(ctx context.Context, deploymentUID string, query models.TelemetryQuery) ([]*models.TelemetrySample, error) {
	if _, err := s.store.GetDeployment(ctx, deploymentUID); err != nil {
		return nil, err
	}

	filter := store.SampleFilter{
		DeploymentUID: deploymentUID,
		NodeUID:       query.NodeUID,
		Limit:         query.Limit,
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultTelemetryLimit
	}

	if query.Start != "" {
		t, err := time.Parse(time.RFC3339, query.Start)
		if err != nil {
			return nil, NewServiceError(CodeInvalid, fmt.Sprintf("invalid start time %q: must be RFC3339", query.Start))
		}
		filter.Since = t
	}
	if query.End != "" {
		t, err := time.Parse(time.RFC3339, query.End)
		if err != nil {
			return nil, NewServiceError(CodeInvalid, fmt.Sprintf("invalid end time %q: must be RFC3339", query.End))
		}
		filter.Until = t
	}

	return s.store.ListSamples(ctx, filter)
}
