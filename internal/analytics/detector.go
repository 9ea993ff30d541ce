// Package analytics flags nodes whose telemetry statistically deviates
// from their deployment's baseline.
//
// Detection is a pure read-and-compute pass over persisted samples: no
// internal state, safe to call concurrently and repeatedly, and
// invariant to call order given unchanged underlying samples.
package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/nodeplane/nodeplane/internal/logging"
	"github.com/nodeplane/nodeplane/internal/models"
	"github.com/nodeplane/nodeplane/internal/store"
)

// DefaultDeviationThreshold is the default number of standard
// deviations from the baseline mean that flags a node.
const DefaultDeviationThreshold = 2.0

// Combined score weights. Latency and throughput dominate; error rate
// contributes less.
const (
	latencyWeight    = 0.4
	throughputWeight = 0.4
	errorRateWeight  = 0.2
)

// Detector computes bottleneck analyses over persisted telemetry
type Detector struct {
	store  store.Store
	logger *logging.Logger
}

// NewDetector creates a bottleneck detector
func NewDetector(st store.Store, logger *logging.Logger) *Detector {
	return &Detector{store: st, logger: logger}
}

// meanStdev returns the mean and sample standard deviation of values.
// A population of fewer than two samples has stdev 0.
func meanStdev(values []float64) (mean, stdev float64) {
	n := float64(len(values))
	if n == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / n
	if n < 2 {
		return mean, 0
	}
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / (n - 1))
}

// deviation returns the z-score of value against the baseline, or 0
// when the baseline has no variance (no signal)
func deviation(value, mean, stdev float64) float64 {
	if stdev <= 0 {
		return 0
	}
	return (value - mean) / stdev
}

type nodeAccumulator struct {
	latencies   []float64
	throughputs []float64
	errorRates  []float64
	latest      time.Time
}

// Detect analyzes a deployment's samples within the trailing window
// ending now and returns the flagged nodes ranked worst-first.
// threshold <= 0 selects DefaultDeviationThreshold.
func (d *Detector) Detect(ctx context.Context, deploymentUID string, window time.Duration, threshold float64) (*models.BottleneckResponse, error) {
	if threshold <= 0 {
		threshold = DefaultDeviationThreshold
	}

	// Missing deployment is a caller error, not an empty result
	if _, err := d.store.GetDeployment(ctx, deploymentUID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	resp := &models.BottleneckResponse{
		DeploymentUID: deploymentUID,
		DetectedAt:    now,
		Bottlenecks:   []models.BottleneckNode{},
		WindowMinutes: int(window / time.Minute),
	}

	samples, err := d.store.ListSamples(ctx, store.SampleFilter{
		DeploymentUID: deploymentUID,
		Since:         now.Add(-window),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list samples: %w", err)
	}
	if len(samples) == 0 {
		return resp, nil
	}

	// Deployment-wide baseline over all samples in the window
	latencies := make([]float64, len(samples))
	throughputs := make([]float64, len(samples))
	errorRates := make([]float64, len(samples))
	for i, s := range samples {
		latencies[i] = s.LatencyMS
		throughputs[i] = s.ThroughputGbps
		errorRates[i] = s.ErrorRate
	}
	latencyMean, latencyStd := meanStdev(latencies)
	throughputMean, throughputStd := meanStdev(throughputs)
	errorRateMean, errorRateStd := meanStdev(errorRates)

	// Per-node averages over each node's own samples
	perNode := make(map[string]*nodeAccumulator)
	for _, s := range samples {
		acc := perNode[s.NodeUID]
		if acc == nil {
			acc = &nodeAccumulator{}
			perNode[s.NodeUID] = acc
		}
		acc.latencies = append(acc.latencies, s.LatencyMS)
		acc.throughputs = append(acc.throughputs, s.ThroughputGbps)
		acc.errorRates = append(acc.errorRates, s.ErrorRate)
		if s.Timestamp.After(acc.latest) {
			acc.latest = s.Timestamp
		}
	}

	for nodeUID, acc := range perNode {
		nodeLatency, _ := meanStdev(acc.latencies)
		nodeThroughput, _ := meanStdev(acc.throughputs)
		nodeErrorRate, _ := meanStdev(acc.errorRates)

		latencyDev := deviation(nodeLatency, latencyMean, latencyStd)
		// Inverted on purpose: lower throughput is worse
		throughputDev := deviation(throughputMean-nodeThroughput, 0, throughputStd)
		errorRateDev := deviation(nodeErrorRate, errorRateMean, errorRateStd)

		// Better-than-baseline deviations never contribute to the score
		score := latencyWeight*math.Max(0, latencyDev) +
			throughputWeight*math.Max(0, throughputDev) +
			errorRateWeight*math.Max(0, errorRateDev)

		// A node is a bottleneck iff any raw deviation meets the
		// threshold, not the combined score
		if latencyDev < threshold && throughputDev < threshold && errorRateDev < threshold {
			continue
		}

		node, err := d.store.GetNode(ctx, nodeUID)
		if err == store.ErrNotFound {
			// Node deleted since the sample was written; skip
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch node %s: %w", nodeUID, err)
		}

		resp.Bottlenecks = append(resp.Bottlenecks, models.BottleneckNode{
			NodeUID:        nodeUID,
			NodeID:         node.NodeID,
			LatencyMS:      nodeLatency,
			ThroughputGbps: nodeThroughput,
			ErrorRate:      nodeErrorRate,
			DeviationScore: score,
			Timestamp:      acc.latest,
		})
	}

	// Worst first
	sort.Slice(resp.Bottlenecks, func(i, j int) bool {
		return resp.Bottlenecks[i].DeviationScore > resp.Bottlenecks[j].DeviationScore
	})
	resp.TotalBottlenecks = len(resp.Bottlenecks)
	return resp, nil
}
