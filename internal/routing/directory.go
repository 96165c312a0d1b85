package routing

import "sync/atomic"

// LocationDirectory is an eventually-consistent cache mapping shards to
// the address of their owning node. It is a passive cache: it never
// initiates refreshes, and staleness is bounded only by the Refresher's
// cadence.
//
// Lookups read an immutable snapshot installed with an atomic pointer
// swap, so they never block, never fail, and never observe a partially
// updated table.
type LocationDirectory struct {
	snapshot atomic.Pointer[map[ShardID]NodeAddress]
}

// NewLocationDirectory creates an empty directory.
func NewLocationDirectory() *LocationDirectory {
	d := &LocationDirectory{}
	empty := make(map[ShardID]NodeAddress)
	d.snapshot.Store(&empty)
	return d
}

// Lookup returns the cached owner address for the shard. Absence simply
// means "unknown"; the engine handles it through the fallback path.
func (d *LocationDirectory) Lookup(shard ShardID) (NodeAddress, bool) {
	addr, ok := (*d.snapshot.Load())[shard]
	return addr, ok
}

// Replace atomically installs a new full view of shard ownership.
// The input map is copied, so the caller may keep mutating its own copy.
// Replacing with an unchanged table is a no-op for routing decisions.
func (d *LocationDirectory) Replace(locations map[ShardID]NodeAddress) {
	copied := make(map[ShardID]NodeAddress, len(locations))
	for shard, addr := range locations {
		copied[shard] = addr
	}
	d.snapshot.Store(&copied)
}

// Len returns the number of shards in the current snapshot.
func (d *LocationDirectory) Len() int {
	return len(*d.snapshot.Load())
}
