// Package routing implements locality-aware routing of shard-keyed
// messages to worker endpoints ("routees").
//
// # Routing model
//
// Every message maps deterministically to a shard via a caller-supplied
// extraction function. Each shard is owned by exactly one cluster node at
// a time; ownership is decided by an external shard-management subsystem
// and consumed here through the LocationSource interface. Routees are
// discovered through the RouteeDiscovery interface and tagged with the
// node they run on.
//
// The engine prefers a routee colocated with the shard's owner (a
// "locality hit"). When the owner is unknown, or no routee runs on the
// owner's node, it falls back to a uniform random pick across all known
// routees (a "locality miss"). A miss is expected degraded operation,
// never an error: the shard-owning layer still delivers the message
// correctly from a non-optimal node, so stale caches only cost latency.
//
// # Caches and refresh
//
// Routing reads two caches, the LocationDirectory (shard to node address)
// and the RouteeSet (routees indexed by node address). Both are immutable
// snapshots swapped atomically by the background Refresher, so the route
// path is lock-free and never blocks. Refresh failures keep the previous
// snapshot in place and are retried on the next tick.
//
// # Failure modes
//
//   - An empty routee set fails a single Route call with ErrNoRoutees.
//   - A message the extractor cannot classify fails with
//     ErrUnroutableMessage; this is an integration defect, not a
//     transient condition.
//   - Unreachable location or discovery sources are absorbed by the
//     Refresher and never surface to routing callers.
package routing
