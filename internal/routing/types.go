package routing

// ShardID identifies a logical partition of entities. Shard IDs are
// opaque, stable, and derived deterministically from messages by an
// ExtractShardID function: two messages for the same logical entity must
// always yield the same ShardID.
type ShardID string

// NodeAddress identifies a cluster member, typically "host:port".
// Addresses from the location directory and the routee set are drawn from
// the same address space and compared by value.
type NodeAddress string

// RouteeRef identifies a worker endpoint capable of receiving routed
// messages. The router only selects a ref; dispatching the message to it
// is the caller's concern.
type RouteeRef string

// RouteeEntry pairs a routee with the node it runs on.
type RouteeEntry struct {
	// Ref is the unique identifier of the worker endpoint.
	Ref RouteeRef `json:"ref"`

	// Addr is the address of the node hosting the routee.
	Addr NodeAddress `json:"addr"`
}
