package cluster

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shardroute-io/shardroute/internal/logging"
	"github.com/shardroute-io/shardroute/internal/metadata"
	"github.com/shardroute-io/shardroute/internal/metadata/keys"
	"github.com/shardroute-io/shardroute/internal/routing"
)

// StoreDiscovery discovers registered routees by listing their ephemeral keys
// in the metadata store. It implements routing.RouteeDiscovery.
type StoreDiscovery struct {
	store     metadata.MetadataStore
	clusterID string
	logger    *logging.Logger
}

// NewStoreDiscovery creates a routee discovery backed by the metadata store.
func NewStoreDiscovery(store metadata.MetadataStore, clusterID string, logger *logging.Logger) *StoreDiscovery {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &StoreDiscovery{
		store:     store,
		clusterID: clusterID,
		logger:    logger,
	}
}

// CurrentRoutees returns the routees currently registered in the cluster.
// Malformed registrations are skipped rather than failing the whole listing.
func (d *StoreDiscovery) CurrentRoutees(ctx context.Context) ([]routing.RouteeEntry, error) {
	prefix := keys.RouteesPrefix(d.clusterID)

	kvs, err := d.store.List(ctx, prefix, "", 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list routees: %w", err)
	}

	var routees []routing.RouteeEntry
	for _, kv := range kvs {
		var info RouteeInfo
		if err := json.Unmarshal(kv.Value, &info); err != nil {
			d.logger.Warnf("failed to unmarshal routee info", map[string]any{
				"key":   kv.Key,
				"error": err.Error(),
			})
			continue
		}
		routees = append(routees, info.Entry())
	}

	return routees, nil
}
