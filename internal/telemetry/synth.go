package telemetry

import (
	"hash/fnv"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/nodeplane/nodeplane/internal/models"
)

// Metric bounds. Every synthesized sample is clamped into these
// ranges and rounded to two decimals.
const (
	MinLatencyMS     = 1.0
	MaxLatencyMS     = 200.0
	MinThroughputGbp = 1.0
	MaxThroughputGbp = 10.0
	MinErrorRate     = 0.0
	MaxErrorRate     = 5.0
)

func hash64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// BucketOffset maps a node into one of ten performance buckets:
// hash(node UID) % 10. Offsets 8 and 9 are the bottleneck-prone bucket
// (roughly 20% of nodes); the rest are normal. The mapping is a stable
// contract the bottleneck detector's separation depends on.
func BucketOffset(nodeUID string) int {
	return int(hash64(nodeUID) % 10)
}

// BottleneckProne reports whether the node falls in the degraded bucket
func BottleneckProne(nodeUID string) bool {
	return BucketOffset(nodeUID) > 7
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Synthesize produces one telemetry sample for the node at the given
// instant. It is a pure function of (node identity, at): the same node
// at the same wall-clock second always yields the same sample.
//
// Bottleneck-prone nodes get materially worse baselines, scaled by how
// far into the bucket they fall; normal nodes improve slightly with
// their offset. A sine perturbation of wall-clock seconds, phase-
// shifted per node, adds bounded variation on top.
func Synthesize(node *models.Node, at time.Time) *models.TelemetrySample {
	offset := float64(BucketOffset(node.UID))

	var baseLatency, baseThroughput, baseErrorRate float64
	if offset > 7 {
		baseLatency = 50.0 + (offset-7)*20.0
		baseThroughput = 8.0 - (offset-7)*1.5
		baseErrorRate = 0.5 + (offset-7)*0.3
	} else {
		baseLatency = 10.0 + offset*2.0
		baseThroughput = 9.5 - offset*0.1
		baseErrorRate = 0.1 + offset*0.02
	}

	timeFactor := float64(at.Unix()) / 100.0
	phase := float64(hash64(node.UID) % 1000)
	variation := math.Sin(timeFactor+phase) * 0.3

	latency := baseLatency * (1.0 + variation*0.2)
	throughput := baseThroughput * (1.0 + variation*0.1)
	errorRate := math.Max(0.0, baseErrorRate+variation*0.1)

	return &models.TelemetrySample{
		UID:            uuid.New().String(),
		NodeUID:        node.UID,
		DeploymentUID:  node.DeploymentUID,
		Timestamp:      at,
		LatencyMS:      round2(clamp(latency, MinLatencyMS, MaxLatencyMS)),
		ThroughputGbps: round2(clamp(throughput, MinThroughputGbp, MaxThroughputGbp)),
		ErrorRate:      round2(clamp(errorRate, MinErrorRate, MaxErrorRate)),
	}
}
