package lifecycle

import (
	"fmt"
	"hash/fnv"
	"time"
)

// Simulated step durations are derived from a stable FNV-1a hash of
// the node UID, so re-running the simulation with the same data yields
// the same outcome. The exact mappings below are a contract, not an
// implementation detail: tests depend on them.

const (
	provisioningMin  = 3 * time.Second // PROVISIONING takes 3-8s
	provisioningSpan = 6
	configuringMin   = 5 * time.Second // CONFIGURING takes 5-12s
	configuringSpan  = 8

	// One node in failureModulus fails configuration (~5%)
	failureModulus = 20
)

func hash64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// ProvisioningDuration returns how long the node stays in
// PROVISIONING: 3 + (hash % 6) seconds, i.e. 3-8s.
func ProvisioningDuration(nodeUID string) time.Duration {
	return provisioningMin + time.Duration(hash64("prov:"+nodeUID)%provisioningSpan)*time.Second
}

// ConfiguringDuration returns how long the node stays in CONFIGURING:
// 5 + (hash % 8) seconds, i.e. 5-12s.
func ConfiguringDuration(nodeUID string) time.Duration {
	return configuringMin + time.Duration(hash64("conf:"+nodeUID)%configuringSpan)*time.Second
}

// FailsConfiguration reports whether the node belongs to the
// deterministic ~5% subset whose configuration fails:
// hash(deploymentUID + "/" + nodeUID) % 20 == 0.
func FailsConfiguration(deploymentUID, nodeUID string) bool {
	return hash64(deploymentUID+"/"+nodeUID)%failureModulus == 0
}

// AssignAddress derives the node's network address from its deployment
// and its ordinal. The second octet comes from the deployment hash;
// the third and fourth encode the ordinal, so addresses are unique per
// node within a deployment. Not routable, not meant to be.
func AssignAddress(deploymentUID string, ordinal int) string {
	return fmt.Sprintf("10.%d.%d.%d",
		hash64(deploymentUID)%200+1,
		ordinal/250,
		ordinal%250+1,
	)
}
