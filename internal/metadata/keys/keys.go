// Package keys provides key encoding and parsing for the router's
// metadata keyspace.
//
// Layout:
//
//	/shardroute/v1/cluster/<clusterId>/routees/<routeeId>  routee registration (ephemeral)
//	/shardroute/v1/cluster/<clusterId>/shards/<shardId>    shard ownership table
package keys

import (
	"errors"
	"fmt"
	"strings"
)

// Prefix is the root prefix for all router keys.
const Prefix = "/shardroute/v1"

// ErrInvalidKey is returned when a key does not match the expected layout.
var ErrInvalidKey = errors.New("keys: invalid key")

// ClusterPrefix returns the prefix for a cluster's keys.
func ClusterPrefix(clusterID string) string {
	return fmt.Sprintf("%s/cluster/%s", Prefix, clusterID)
}

// RouteesPrefix returns the prefix under which routees register.
// The trailing slash makes it usable directly as a List start key.
func RouteesPrefix(clusterID string) string {
	return ClusterPrefix(clusterID) + "/routees/"
}

// RouteeKeyPath returns the registration key for a routee.
func RouteeKeyPath(clusterID, routeeID string) string {
	return RouteesPrefix(clusterID) + routeeID
}

// ShardsPrefix returns the prefix for the cluster's shard ownership table.
func ShardsPrefix(clusterID string) string {
	return ClusterPrefix(clusterID) + "/shards/"
}

// ShardKeyPath returns the ownership key for a shard.
func ShardKeyPath(clusterID, shardID string) string {
	return ShardsPrefix(clusterID) + shardID
}

// ParseRouteeKey extracts the routee ID from a registration key.
func ParseRouteeKey(clusterID, key string) (string, error) {
	return parseChild(RouteesPrefix(clusterID), key)
}

// ParseShardKey extracts the shard ID from an ownership key.
func ParseShardKey(clusterID, key string) (string, error) {
	return parseChild(ShardsPrefix(clusterID), key)
}

func parseChild(prefix, key string) (string, error) {
	id, ok := strings.CutPrefix(key, prefix)
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("%w: %q under %q", ErrInvalidKey, key, prefix)
	}
	return id, nil
}

// ValidateID rejects IDs that would corrupt the keyspace layout.
// Cluster, routee, and shard IDs must be non-empty and slash-free.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidKey)
	}
	if strings.Contains(id, "/") {
		return fmt.Errorf("%w: id %q contains '/'", ErrInvalidKey, id)
	}
	return nil
}
