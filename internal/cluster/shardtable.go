package cluster

import (
	"context"
	"fmt"

	"github.com/shardroute-io/shardroute/internal/logging"
	"github.com/shardroute-io/shardroute/internal/metadata"
	"github.com/shardroute-io/shardroute/internal/metadata/keys"
	"github.com/shardroute-io/shardroute/internal/routing"
)

// ShardTable reads the authoritative shard placement table from the metadata
// store. Each shard is stored as a key under the cluster's shards prefix with
// the owning node's address as the value. It implements
// routing.LocationSource.
type ShardTable struct {
	store     metadata.MetadataStore
	clusterID string
	logger    *logging.Logger
}

// NewShardTable creates a shard table reader backed by the metadata store.
func NewShardTable(store metadata.MetadataStore, clusterID string, logger *logging.Logger) *ShardTable {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &ShardTable{
		store:     store,
		clusterID: clusterID,
		logger:    logger,
	}
}

// CurrentLocations returns the full shard to node mapping.
// Rows whose key does not parse are skipped rather than failing the listing.
func (t *ShardTable) CurrentLocations(ctx context.Context) (map[routing.ShardID]routing.NodeAddress, error) {
	prefix := keys.ShardsPrefix(t.clusterID)

	kvs, err := t.store.List(ctx, prefix, "", 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list shard table: %w", err)
	}

	locations := make(map[routing.ShardID]routing.NodeAddress, len(kvs))
	for _, kv := range kvs {
		shardID, err := keys.ParseShardKey(t.clusterID, kv.Key)
		if err != nil {
			t.logger.Warnf("skipping malformed shard table row", map[string]any{
				"key":   kv.Key,
				"error": err.Error(),
			})
			continue
		}
		locations[routing.ShardID(shardID)] = routing.NodeAddress(kv.Value)
	}

	return locations, nil
}

// ShardTablePublisher writes shard placements to the metadata store. It is
// used by whatever component owns shard placement, typically a rebalancer or
// an operator tool.
type ShardTablePublisher struct {
	store     metadata.MetadataStore
	clusterID string
	logger    *logging.Logger
}

// NewShardTablePublisher creates a shard table writer.
func NewShardTablePublisher(store metadata.MetadataStore, clusterID string, logger *logging.Logger) *ShardTablePublisher {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &ShardTablePublisher{
		store:     store,
		clusterID: clusterID,
		logger:    logger,
	}
}

// Assign writes a single shard placement.
func (p *ShardTablePublisher) Assign(ctx context.Context, shardID routing.ShardID, addr routing.NodeAddress) error {
	if err := keys.ValidateID(string(shardID)); err != nil {
		return fmt.Errorf("invalid shard id %q: %w", shardID, err)
	}

	key := keys.ShardKeyPath(p.clusterID, string(shardID))
	if _, err := p.store.Put(ctx, key, []byte(addr)); err != nil {
		return fmt.Errorf("failed to assign shard %q: %w", shardID, err)
	}
	return nil
}

// Unassign removes a single shard placement.
func (p *ShardTablePublisher) Unassign(ctx context.Context, shardID routing.ShardID) error {
	key := keys.ShardKeyPath(p.clusterID, string(shardID))
	if err := p.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to unassign shard %q: %w", shardID, err)
	}
	return nil
}

// Publish replaces the entire shard table with the given placements.
// Rows for shards not present in the table are removed.
func (p *ShardTablePublisher) Publish(ctx context.Context, table map[routing.ShardID]routing.NodeAddress) error {
	for shardID := range table {
		if err := keys.ValidateID(string(shardID)); err != nil {
			return fmt.Errorf("invalid shard id %q: %w", shardID, err)
		}
	}

	prefix := keys.ShardsPrefix(p.clusterID)
	kvs, err := p.store.List(ctx, prefix, "", 0)
	if err != nil {
		return fmt.Errorf("failed to list shard table: %w", err)
	}

	for shardID, addr := range table {
		key := keys.ShardKeyPath(p.clusterID, string(shardID))
		if _, err := p.store.Put(ctx, key, []byte(addr)); err != nil {
			return fmt.Errorf("failed to assign shard %q: %w", shardID, err)
		}
	}

	var removed int
	for _, kv := range kvs {
		shardID, err := keys.ParseShardKey(p.clusterID, kv.Key)
		if err != nil {
			continue
		}
		if _, ok := table[routing.ShardID(shardID)]; ok {
			continue
		}
		if err := p.store.Delete(ctx, kv.Key); err != nil {
			return fmt.Errorf("failed to remove stale shard %q: %w", shardID, err)
		}
		removed++
	}

	p.logger.Infof("shard table published", map[string]any{
		"clusterId": p.clusterID,
		"shards":    len(table),
		"removed":   removed,
	})

	return nil
}
