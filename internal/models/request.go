package models

// CreateDeploymentRequest represents create deployment request
type CreateDeploymentRequest struct {
	Name            string `json:"name" validate:"required,min=1,max=255"`
	Description     string `json:"description,omitempty" validate:"max=1024"`
	TargetNodeCount int    `json:"target_node_count" validate:"required,min=1,max=1000"`
}

// TelemetryQuery represents telemetry listing filters
type TelemetryQuery struct {
	NodeUID string `query:"node_uid"`
	Start   string `query:"start"` // RFC3339
	End     string `query:"end"`   // RFC3339
	Limit   int    `query:"limit" validate:"omitempty,min=1,max=1000"`
}

// BottleneckQuery represents bottleneck analysis parameters
type BottleneckQuery struct {
	WindowMinutes int     `query:"window_minutes" validate:"omitempty,min=1,max=60"`
	Threshold     float64 `query:"threshold" validate:"omitempty,gt=0"`
}
