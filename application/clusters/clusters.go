// Package clusters projects the community lists the remote service
// computes into client-side cluster records and the per-node lookup used
// to color and group rendering. Clusters are derived state: ownership of
// node data never moves here.
package clusters

import (
	"fmt"

	"weaveclient/domain/core/aggregates"
)

// BuildClusterRecords converts raw community lists into cluster records.
// Cluster ids are synthetic, assigned by enumeration order, so the same
// community list always produces the same assignment. Empty communities
// are dropped but still consume their enumeration index, which keeps
// re-derivation from a cached snapshot reproducible.
func BuildClusterRecords(communities [][]string) []aggregates.Cluster {
	if len(communities) == 0 {
		return nil
	}

	records := make([]aggregates.Cluster, 0, len(communities))
	for i, members := range communities {
		if len(members) == 0 {
			continue
		}
		copied := make([]string, len(members))
		copy(copied, members)
		records = append(records, aggregates.Cluster{
			ID:      fmt.Sprintf("cluster-%d", i),
			Members: copied,
		})
	}
	return records
}

// Lookup builds the node-id to cluster-id map from cluster records. A
// node listed in several communities keeps the first assignment.
func Lookup(records []aggregates.Cluster) map[string]string {
	lookup := make(map[string]string)
	for _, cluster := range records {
		for _, nodeID := range cluster.Members {
			if _, seen := lookup[nodeID]; !seen {
				lookup[nodeID] = cluster.ID
			}
		}
	}
	return lookup
}
