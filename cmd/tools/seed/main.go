// Command seed creates a demo deployment through the orchestrator's
// HTTP API, waits for the nodes to settle, and prints the resulting
// bottleneck analysis. Handy for eyeballing a running instance.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

type seedConfig struct {
	BaseURL   string
	Name      string
	NodeCount int
	Timeout   time.Duration
	APIKey    string
}

type deploymentResp struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

type nodeListResp struct {
	Nodes []struct {
		NodeID    string `json:"node_id"`
		State     string `json:"state"`
		IPAddress string `json:"ip_address"`
	} `json:"nodes"`
	Total int `json:"total"`
}

type bottleneckResp struct {
	TotalBottlenecks int `json:"total_bottlenecks"`
	Bottlenecks      []struct {
		NodeID         string  `json:"node_id"`
		LatencyMS      float64 `json:"latency_ms"`
		ThroughputGbps float64 `json:"throughput_gbps"`
		ErrorRate      float64 `json:"error_rate"`
		DeviationScore float64 `json:"deviation_score"`
	} `json:"bottlenecks"`
}

func main() {
	cfg := seedConfig{}
	flag.StringVar(&cfg.BaseURL, "url", "http://localhost:8080", "Orchestrator base URL")
	flag.StringVar(&cfg.Name, "name", "demo-deployment", "Deployment name")
	flag.IntVar(&cfg.NodeCount, "nodes", 10, "Target node count")
	flag.DurationVar(&cfg.Timeout, "timeout", 2*time.Minute, "How long to wait for nodes to settle")
	flag.StringVar(&cfg.APIKey, "api-key", "", "API key (if auth is enabled)")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	uid, err := createDeployment(client, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create deployment: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Created deployment %s (%d nodes)\n", uid, cfg.NodeCount)

	if err := waitForSettled(client, cfg, uid); err != nil {
		fmt.Fprintf(os.Stderr, "Deployment did not settle: %v\n", err)
		os.Exit(1)
	}

	// Let the telemetry generator accumulate a few cycles of samples
	fmt.Println("Nodes settled; collecting telemetry for 30s...")
	time.Sleep(30 * time.Second)

	if err := printBottlenecks(client, cfg, uid); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to fetch bottlenecks: %v\n", err)
		os.Exit(1)
	}
}

func doJSON(client *http.Client, cfg seedConfig, method, path string, body io.Reader, out interface{}) error {
	req, err := http.NewRequest(method, cfg.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.APIKey != "" {
		req.Header.Set("X-API-Key", cfg.APIKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func createDeployment(client *http.Client, cfg seedConfig) (string, error) {
	payload, _ := json.Marshal(map[string]interface{}{
		"name":              cfg.Name,
		"description":       "seeded by cmd/tools/seed",
		"target_node_count": cfg.NodeCount,
	})

	var dep deploymentResp
	if err := doJSON(client, cfg, http.MethodPost, "/v1/deployments", bytes.NewReader(payload), &dep); err != nil {
		return "", err
	}
	return dep.UID, nil
}

// waitForSettled polls until every node is RUNNING or FAILED
func waitForSettled(client *http.Client, cfg seedConfig, uid string) error {
	deadline := time.Now().Add(cfg.Timeout)
	for time.Now().Before(deadline) {
		var nodes nodeListResp
		if err := doJSON(client, cfg, http.MethodGet, "/v1/deployments/"+uid+"/nodes", nil, &nodes); err != nil {
			return err
		}

		settled := 0
		for _, n := range nodes.Nodes {
			if n.State == "RUNNING" || n.State == "FAILED" {
				settled++
			}
		}
		fmt.Printf("  %d/%d nodes settled\n", settled, nodes.Total)
		if settled == nodes.Total {
			return nil
		}
		time.Sleep(2 * time.Second)
	}
	return fmt.Errorf("timed out after %s", cfg.Timeout)
}

func printBottlenecks(client *http.Client, cfg seedConfig, uid string) error {
	var result bottleneckResp
	if err := doJSON(client, cfg, http.MethodGet, "/v1/deployments/"+uid+"/bottlenecks?window_minutes=10", nil, &result); err != nil {
		return err
	}

	fmt.Printf("Bottlenecks detected: %d\n", result.TotalBottlenecks)
	for _, b := range result.Bottlenecks {
		fmt.Printf("  %-10s latency=%.2fms throughput=%.2fGbps errors=%.2f%% score=%.2f\n",
			b.NodeID, b.LatencyMS, b.ThroughputGbps, b.ErrorRate, b.DeviationScore)
	}
	return nil
}
