// Package cluster implements routee registration and discovery backed by the
// metadata store, plus the authoritative shard table that maps shards to the
// nodes hosting them.
//
// Routees register themselves with ephemeral keys so that a crashed process
// drops out of the routee set automatically when its session expires. The
// shard table is written by whatever component owns shard placement (an
// operator tool or a rebalancer) and read by every router.
//
// A ZooKeeper-backed alternative is provided for deployments that already run
// a ZooKeeper ensemble instead of a metadata store.
package cluster
